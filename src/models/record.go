package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Record is a user-owned financial entry held by a list view.
type Record interface {
	RecordID() string
}

// Identifiable records can be copied with a different identifier. The
// optimistic layer uses it to swap temporary and server IDs.
type Identifiable[T any] interface {
	Record
	WithID(id string) T
}

// Page is one bounded slice of a user's records.
type Page[T any] struct {
	Records []T `json:"records"`
	Total   int `json:"total"`
	Page    int `json:"page"`
}

// DateLayout is the calendar-date wire format.
const DateLayout = "2006-01-02"

// Date is a calendar date. It marshals as YYYY-MM-DD and also accepts full
// RFC3339 timestamps, which some endpoints return.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses YYYY-MM-DD or RFC3339.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected %s", s, DateLayout)
	}
	y, m, d := t.UTC().Date()
	return NewDate(y, m, d), nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
