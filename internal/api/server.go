// Package api exposes the capture service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/IshaanNene/ScrapeBoard/internal/config"
	"github.com/IshaanNene/ScrapeBoard/internal/history"
	"github.com/IshaanNene/ScrapeBoard/internal/service"
	"github.com/IshaanNene/ScrapeBoard/internal/types"
)

// maxRequestBody caps capture request bodies at 1 MiB.
const maxRequestBody = 1 << 20

// Server provides the REST API around a capture service.
type Server struct {
	mux    *http.ServeMux
	srv    *http.Server
	svc    *service.Service
	logger *slog.Logger
}

// NewServer creates an API server bound per the server config.
func NewServer(cfg *config.ServerConfig, svc *service.Service, logger *slog.Logger) *Server {
	s := &Server{
		mux:    http.NewServeMux(),
		svc:    svc,
		logger: logger.With("component", "api_server"),
	}
	s.srv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	s.registerRoutes()
	return s
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("API server starting", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler returns the route mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)

	s.mux.HandleFunc("POST /api/capture", s.handleCapture)
	s.mux.HandleFunc("POST /api/preview", s.handlePreview)

	s.mux.HandleFunc("GET /api/sites", s.handleSites)
	s.mux.HandleFunc("POST /api/reload", s.handleReload)

	s.mux.HandleFunc("GET /api/history", s.handleHistory)

	s.mux.Handle("GET /metrics", s.svc.Metrics())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": config.Version,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.svc.Status(r.Context()))
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	var req service.CaptureRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.URL == "" {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "url is required"})
		return
	}
	if req.Actor == "" {
		req.Actor = r.Header.Get("X-Actor")
	}

	res, err := s.svc.Capture(r.Context(), req)
	if err != nil {
		s.jsonResponse(w, statusFor(err), res)
		return
	}
	s.jsonResponse(w, http.StatusCreated, res)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.URL == "" {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "url is required"})
		return
	}

	res, err := s.svc.Preview(r.Context(), req.URL)
	if err != nil {
		s.jsonResponse(w, statusFor(err), res)
		return
	}
	s.jsonResponse(w, http.StatusOK, res)
}

func (s *Server) handleSites(w http.ResponseWriter, r *http.Request) {
	registry := s.svc.Registry()

	type siteInfo struct {
		Host            string   `json:"host"`
		Name            string   `json:"name"`
		SelectorFields  []string `json:"selector_fields"`
		BindingFields   []string `json:"binding_fields"`
		DuplicateChecks []string `json:"duplicate_checks"`
	}

	infos := make([]siteInfo, 0, registry.Len())
	for _, host := range registry.Hosts() {
		site, ok := registry.Lookup(host)
		if !ok {
			continue
		}
		infos = append(infos, siteInfo{
			Host:            site.Host,
			Name:            site.Name,
			SelectorFields:  site.SelectorFields(),
			BindingFields:   site.BindingFields(),
			DuplicateChecks: site.DuplicateCheckFields(),
		})
	}
	s.jsonResponse(w, http.StatusOK, infos)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Reload(); err != nil {
		s.logger.Error("site reload failed", "error", err)
		s.jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status": "reloaded",
		"sites":  s.svc.Registry().Len(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	journal := s.svc.Journal()
	if journal == nil {
		s.jsonResponse(w, http.StatusNotFound, map[string]string{"error": "history is disabled"})
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}

	entries, err := journal.Recent(r.Context(), limit)
	if err != nil {
		s.jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	s.jsonResponse(w, http.StatusOK, entries)
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return false
	}
	return true
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// statusFor maps a capture error onto an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, types.ErrInvalidURL):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrSiteNotSupported),
		errors.Is(err, types.ErrIdentityUnresolved):
		return http.StatusUnprocessableEntity
	}
	var renderErr *types.RenderError
	var storeErr *types.StoreError
	if errors.As(err, &renderErr) || errors.As(err, &storeErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
