package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/IshaanNene/ScrapeBoard/internal/config"
	"github.com/IshaanNene/ScrapeBoard/internal/types"
)

// identPattern restricts table names to plain identifiers. The table
// name is interpolated into SQL, so anything else is rejected up front.
var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresStore stores records as JSONB rows in a Postgres table.
type PostgresStore struct {
	pool   *pgxpool.Pool
	table  string
	logger *slog.Logger
}

// NewPostgresStore connects to Postgres and creates the records table
// if it does not exist.
func NewPostgresStore(cfg *config.PostgresConfig, logger *slog.Logger) (*PostgresStore, error) {
	if !identPattern.MatchString(cfg.Table) {
		return nil, fmt.Errorf("invalid postgres table name %q", cfg.Table)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	s := &PostgresStore{
		pool:   pool,
		table:  cfg.Table,
		logger: logger.With("component", "postgres_store"),
	}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id BIGSERIAL PRIMARY KEY,
		fields JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, s.table)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// QueryEqual returns rows whose JSONB field equals value, compared as
// text the way records are written.
func (s *PostgresStore) QueryEqual(ctx context.Context, field, value string) ([]types.Record, error) {
	query := fmt.Sprintf(`SELECT id, fields FROM %s WHERE fields->>$1 = $2 ORDER BY id LIMIT 25`, s.table)
	rows, err := s.pool.Query(ctx, query, field, value)
	if err != nil {
		return nil, s.wrap("query", err)
	}
	defer rows.Close()

	var records []types.Record
	for rows.Next() {
		var (
			id  int64
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, s.wrap("query", err)
		}
		fields := map[string]any{}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, s.wrap("query", fmt.Errorf("decode row %d: %w", id, err))
		}
		records = append(records, types.Record{ID: strconv.FormatInt(id, 10), Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap("query", err)
	}
	return records, nil
}

// Insert writes one row and returns its serial id.
func (s *PostgresStore) Insert(ctx context.Context, p types.Payload) (string, error) {
	buf, err := json.Marshal(p)
	if err != nil {
		return "", s.wrap("insert", fmt.Errorf("encode payload: %w", err))
	}

	var id int64
	query := fmt.Sprintf(`INSERT INTO %s (fields) VALUES ($1::jsonb) RETURNING id`, s.table)
	if err := s.pool.QueryRow(ctx, query, buf).Scan(&id); err != nil {
		return "", s.wrap("insert", err)
	}
	return strconv.FormatInt(id, 10), nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return s.wrap("ping", err)
	}
	return nil
}

func (s *PostgresStore) Name() string { return "postgres" }

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) wrap(op string, err error) error {
	return &types.StoreError{Backend: "postgres", Op: op, Err: err}
}
