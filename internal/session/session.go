// Package session holds the per-interaction form state: the field store a
// render cycle reads and writes, the selection sentinels that guard
// one-shot hydration, and the coercions that keep half-typed input from
// breaking a save.
package session

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrSelectionMissing rejects a save when no customer or visit can be
// resolved. No network call happens on this path.
var ErrSelectionMissing = errors.New("no record selected")

// Kind tells the form how to edit and coerce a field.
type Kind int

const (
	KindText Kind = iota
	KindDate
	KindInt
)

// FieldSpec declares one form field: its stable key, the spreadsheet
// column it round-trips with, and its default. A zero DefaultDate on a
// date field means "today at render time".
type FieldSpec struct {
	Key         string
	Column      string
	Label       string
	Kind        Kind
	DefaultText string
	DefaultDate time.Time
	DefaultInt  int
	Min, Max    int
}

// Session is the explicit replacement for ambient per-session globals:
// one value store keyed by field name plus the selection sentinels.
type Session struct {
	fields map[string]string

	// CurrentCustomerID is the customer a save will target.
	CurrentCustomerID string
	// loadedCustomerID guards the one-shot customer hydration.
	loadedCustomerID string
	// SelectedVisitID is the visit being edited, empty in new-visit mode.
	SelectedVisitID string

	now func() time.Time
}

// New builds an empty session.
func New() *Session {
	return &Session{fields: make(map[string]string), now: time.Now}
}

// SetClock overrides the session clock: the UI points it at the
// configured timezone, tests use it to pin "today".
func (s *Session) SetClock(now func() time.Time) {
	s.now = now
}

// Now reads the session clock.
func (s *Session) Now() time.Time {
	return s.now()
}

// Get returns the stored value for a field key, "" when absent.
func (s *Session) Get(key string) string {
	return s.fields[key]
}

// Set stores one field value.
func (s *Session) Set(key, value string) {
	s.fields[key] = value
}

// Has reports whether the key holds a value (possibly empty).
func (s *Session) Has(key string) bool {
	_, ok := s.fields[key]
	return ok
}

// Init fills in defaults for every spec key that is not already present.
// Re-running it is idempotent: a value the user already typed this cycle
// is never overwritten.
func (s *Session) Init(specs []FieldSpec, row map[string]string) {
	for _, spec := range specs {
		if s.Has(spec.Key) {
			continue
		}
		if row != nil {
			if v, ok := row[spec.Column]; ok {
				s.fields[spec.Key] = s.coerce(spec, v)
				continue
			}
		}
		s.fields[spec.Key] = s.defaultValue(spec)
	}
}

// Clear removes every value belonging to the given specs. Switching form
// modes clears the mode being left before the other mode initializes.
func (s *Session) Clear(specs []FieldSpec) {
	for _, spec := range specs {
		delete(s.fields, spec.Key)
	}
}

// Hydrate bulk-overwrites every spec field from a record row. Callers go
// through HydrateCustomer/HydrateVisit so the overwrite stays one-shot.
func (s *Session) Hydrate(specs []FieldSpec, row map[string]string) {
	for _, spec := range specs {
		s.fields[spec.Key] = s.coerce(spec, row[spec.Column])
	}
}

// HydrateCustomer loads a customer's values exactly once per selection.
// Re-rendering with the same selection returns false and leaves
// in-progress edits alone.
func (s *Session) HydrateCustomer(specs []FieldSpec, row map[string]string, customerID string) bool {
	if customerID == "" || s.loadedCustomerID == customerID {
		return false
	}
	s.loadedCustomerID = customerID
	s.CurrentCustomerID = customerID
	s.Hydrate(specs, row)
	return true
}

// HydrateVisit is the visit counterpart, keyed on SelectedVisitID.
func (s *Session) HydrateVisit(specs []FieldSpec, row map[string]string, visitID string) bool {
	if visitID == "" || s.SelectedVisitID == visitID {
		return false
	}
	s.SelectedVisitID = visitID
	s.Hydrate(specs, row)
	return true
}

// ResetCustomerSelection drops the customer sentinels, e.g. when the
// picker goes back to the not-selected option or the menu changes.
func (s *Session) ResetCustomerSelection() {
	s.CurrentCustomerID = ""
	s.loadedCustomerID = ""
}

// ResetVisitSelection drops the visit sentinel.
func (s *Session) ResetVisitSelection() {
	s.SelectedVisitID = ""
}

// RequireCustomer resolves the save target or rejects the save.
func (s *Session) RequireCustomer() (string, error) {
	if s.CurrentCustomerID == "" {
		return "", ErrSelectionMissing
	}
	return s.CurrentCustomerID, nil
}

// RequireVisit resolves the visit being edited or rejects the save.
func (s *Session) RequireVisit() (string, error) {
	if s.SelectedVisitID == "" {
		return "", ErrSelectionMissing
	}
	return s.SelectedVisitID, nil
}

func (s *Session) coerce(spec FieldSpec, v string) string {
	switch spec.Kind {
	case KindDate:
		// Absent values take the field's declared fallback; garbage that
		// claims to be a date falls back to today instead.
		if strings.TrimSpace(v) == "" {
			return s.dateFallback(spec).Format("2006-01-02")
		}
		return SafeDate(v, Today(s.now())).Format("2006-01-02")
	case KindInt:
		return strconv.Itoa(SafeInt(v, spec.DefaultInt))
	default:
		return v
	}
}

func (s *Session) defaultValue(spec FieldSpec) string {
	switch spec.Kind {
	case KindDate:
		return s.dateFallback(spec).Format("2006-01-02")
	case KindInt:
		return strconv.Itoa(spec.DefaultInt)
	default:
		return spec.DefaultText
	}
}

func (s *Session) dateFallback(spec FieldSpec) time.Time {
	if spec.DefaultDate.IsZero() {
		return Today(s.now())
	}
	return spec.DefaultDate
}

// Today truncates a moment to its calendar date.
func Today(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// SafeDate always yields a usable calendar date for a date widget: blank
// input takes the fallback, a datetime truncates to its date, and an
// unparseable string quietly falls back rather than erroring.
func SafeDate(v string, fallback time.Time) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
	}
	return fallback
}

// SafeBool accepts the fixed truthy spellings, case-insensitive; anything
// else is false.
func SafeBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

// SafeInt parses an integer field, falling back to def on blank or
// non-numeric input.
func SafeInt(v string, def int) int {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Clamp bounds an integer field: floored at Min, capped at Max when a cap
// is declared. Both integer fields here are non-negative counts.
func Clamp(n int, spec FieldSpec) int {
	if n < spec.Min {
		return spec.Min
	}
	if spec.Max > 0 && n > spec.Max {
		return spec.Max
	}
	return n
}
