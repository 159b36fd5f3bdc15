// Package model defines the records exchanged with the PG management API.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Entity is any record the API returns in a list. Key is the server's
// stable serial number (s_no) and is used to reconcile pages.
type Entity interface {
	Key() int64
}

// Pagination is the metadata block attached to every list response.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// HasMore reports whether pages after this one exist.
func (p Pagination) HasMore() bool {
	return p.Page < p.TotalPages
}

// ResultPage is one page of entities plus its pagination metadata.
type ResultPage[T Entity] struct {
	Items      []T
	Pagination Pagination
}

// DateLayout is the calendar date format used on the wire and in filters.
const DateLayout = "2006-01-02"

// Date is a calendar date. The API sends either a bare date or an RFC 3339
// timestamp; both decode into Date.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar date in t's location.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, t.Location())}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		// The calendar date is the one written in the timestamp, placed in
		// the local zone like ParseDate results.
		y, m, day := t.Date()
		*d = Date{time.Date(y, m, day, 0, 0, 0, 0, time.Local)}
		return nil
	}

	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Between reports whether d falls within [start, end]. A zero bound is open.
func (d Date) Between(start, end Date) bool {
	if !start.IsZero() && d.Before(start.Time) {
		return false
	}
	if !end.IsZero() && d.After(end.Time) {
		return false
	}
	return true
}
