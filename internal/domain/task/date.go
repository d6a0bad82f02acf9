package task

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

const DateLayout = "2006-01-02"

var errInvalidDate = errors.New("date must be YYYY-MM-DD or RFC 3339")

// Date is a calendar day with no time-of-day, stored as midnight UTC.
type Date struct {
	t time.Time
}

// DateOf keeps the calendar day t falls on in its own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts a bare date or a full RFC 3339 timestamp; the latter is
// reduced to the day it names in its own offset.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, errInvalidDate
}

func (d Date) Time() time.Time { return d.t }

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

func (d Date) Compare(o Date) int { return d.t.Compare(o.t) }

func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

func (d Date) String() string { return d.t.Format(DateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errInvalidDate
	}

	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}

	*d = parsed
	return nil
}

// DatePatch is a due date in an update body. Set records that the key was
// sent at all; Set with a nil Value clears the stored date.
type DatePatch struct {
	Set   bool
	Value *Date
}

func ChangeDate(d Date) DatePatch { return DatePatch{Set: true, Value: &d} }

func ClearDate() DatePatch { return DatePatch{Set: true} }

func (p DatePatch) IsZero() bool { return !p.Set }

func (p DatePatch) MarshalJSON() ([]byte, error) {
	if p.Value == nil {
		return []byte("null"), nil
	}
	return p.Value.MarshalJSON()
}

// UnmarshalJSON is only called when the key is present, null included.
func (p *DatePatch) UnmarshalJSON(b []byte) error {
	p.Set = true
	p.Value = nil
	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	var d Date
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	p.Value = &d
	return nil
}
