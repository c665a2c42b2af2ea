package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrSiteNotSupported   = errors.New("no site configuration for host")
	ErrNoMatch            = errors.New("selector matched nothing")
	ErrIdentityUnresolved = errors.New("actor identity unresolved")
	ErrDuplicate          = errors.New("record already exists")
	ErrInvalidURL         = errors.New("invalid URL")
	ErrEmptyResponse      = errors.New("empty response body")
)

// RenderError wraps errors that occur while rendering a page.
type RenderError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *RenderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("render error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("render error for %s: %v", e.URL, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// StoreError wraps errors returned by a record store backend.
type StoreError struct {
	Backend string
	Op      string
	Err     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error (%s %s): %v", e.Backend, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// CaptureError wraps errors that occur in the capture flow, tagged
// with the stage that produced them.
type CaptureError struct {
	URL   string
	Stage string
	Err   error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture error at stage %q for %s: %v", e.Stage, e.URL, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }
