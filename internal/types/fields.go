package types

import (
	"encoding/json"
	"sort"
)

// RawFields holds values extracted from a page, keyed by internal field
// name. A value is a string, a float64, or nil when the field's selector
// matched nothing.
type RawFields map[string]any

// NewRawFields creates an empty field map.
func NewRawFields() RawFields {
	return make(RawFields)
}

// Set sets a field value. A nil value records the field as missing.
func (f RawFields) Set(name string, value any) {
	f[name] = value
}

// Get retrieves a field value.
func (f RawFields) Get(name string) (any, bool) {
	v, ok := f[name]
	return v, ok
}

// GetString retrieves a field value as a string, or "" when the field
// is absent, null, or not a string.
func (f RawFields) GetString(name string) string {
	s, _ := f[name].(string)
	return s
}

// IsNull reports whether the field is absent or was recorded as null.
func (f RawFields) IsNull(name string) bool {
	v, ok := f[name]
	return !ok || v == nil
}

// Names returns all field names in sorted order.
func (f RawFields) Names() []string {
	names := make([]string, 0, len(f))
	for k := range f {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Clone creates a shallow copy of the field map.
func (f RawFields) Clone() RawFields {
	clone := make(RawFields, len(f))
	for k, v := range f {
		clone[k] = v
	}
	return clone
}

// MergeOver returns a copy of f with non-nil values from over replacing
// the extracted ones. Fields unknown to f are carried over as-is so a
// caller can supply values no selector produces.
func (f RawFields) MergeOver(over RawFields) RawFields {
	merged := f.Clone()
	for k, v := range over {
		if v != nil {
			merged[k] = v
		}
	}
	return merged
}

// ToJSON serializes the field map.
func (f RawFields) ToJSON() ([]byte, error) {
	return json.Marshal(map[string]any(f))
}

// Payload holds the values bound for the external record store, keyed by
// external field identifier. Fields whose source was null are absent.
type Payload map[string]any

// Record is a single row returned by a record store query.
type Record struct {
	ID     string
	Fields map[string]any
}

// CaptureStatus classifies the terminal state of a capture run.
type CaptureStatus string

const (
	StatusCaptured    CaptureStatus = "captured"
	StatusDuplicate   CaptureStatus = "duplicate"
	StatusUnsupported CaptureStatus = "unsupported"
	StatusFailed      CaptureStatus = "failed"
	StatusPreviewed   CaptureStatus = "previewed"
)
