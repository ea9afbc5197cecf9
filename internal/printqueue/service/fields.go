package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/Aceless34/PrintingQueue/internal/printqueue/apperr"
)

// Field optional request value. Set reports the key was present; Valid is false for null or "".
type Field[T any] struct {
	Set   bool
	Valid bool
	Value T
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
		f.Valid = false
		return nil
	}
	if err := json.Unmarshal(trimmed, &f.Value); err != nil {
		return err
	}
	f.Valid = true
	return nil
}

// Ptr returns the value as a pointer, nil when absent or null
func (f Field[T]) Ptr() *T {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// Some builds a present, non-null field
func Some[T any](v T) Field[T] {
	return Field[T]{Set: true, Valid: true, Value: v}
}

// Null builds a present field holding null
func Null[T any]() Field[T] {
	return Field[T]{Set: true}
}

// Amount number that also accepts numeric strings. Unparseable strings decode to NaN.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*a = Amount(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("expected number: %w", err)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		v = math.NaN()
	}
	*a = Amount(v)
	return nil
}

func (a Amount) finite() bool {
	f := float64(a)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ID integer identifier that also accepts numeric strings. Fractions and garbage decode to 0.
type ID uint

func (id *ID) UnmarshalJSON(data []byte) error {
	var a Amount
	if err := a.UnmarshalJSON(data); err != nil {
		return err
	}
	f := float64(a)
	if !a.finite() || f < 1 || f != math.Trunc(f) {
		*id = 0
		return nil
	}
	*id = ID(f)
	return nil
}

// trimToPtr trims s and maps an empty result to nil
func trimToPtr(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// parseDate accepts YYYY-MM-DD or RFC 3339
func parseDate(field string, value Field[string]) (*datatypes.Date, error) {
	if !value.Valid || strings.TrimSpace(value.Value) == "" {
		return nil, nil
	}
	raw := strings.TrimSpace(value.Value)
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, raw); err != nil {
			return nil, apperr.Validation(fmt.Sprintf("%s must be a date (YYYY-MM-DD)", field))
		}
	}
	d := datatypes.Date(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
	return &d, nil
}
