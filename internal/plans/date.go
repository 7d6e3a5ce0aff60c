// internal/plans/date.go
package plans

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar day with no time of day and no zone.
type Date struct {
	d civil.Date
}

// NewDate builds a Date from its components. Out of range values normalize like time.Date.
func NewDate(year int, month time.Month, day int) Date {
	return Date{d: civil.DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))}
}

// DateOf returns the calendar day of t as observed in loc.
func DateOf(t time.Time, loc *time.Location) Date {
	if loc != nil {
		t = t.In(loc)
	}
	return Date{d: civil.DateOf(t)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	d, err := civil.ParseDate(s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{d: d}, nil
}

// Civil exposes the underlying calendar date.
func (d Date) Civil() civil.Date { return d.d }

// AddDays returns the date n calendar days later.
func (d Date) AddDays(n int) Date {
	return Date{d: d.d.AddDays(n)}
}

// DaysUntil returns the number of calendar days from d to other.
func (d Date) DaysUntil(other Date) int {
	return other.d.DaysSince(d.d)
}

func (d Date) IsZero() bool           { return d.d == civil.Date{} }
func (d Date) Before(other Date) bool { return d.d.Before(other.d) }
func (d Date) After(other Date) bool  { return d.d.After(other.d) }
func (d Date) Equal(other Date) bool  { return d.d == other.d }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.d.String()
}

// StartIn is local midnight of d in loc. A nil loc means UTC.
func (d Date) StartIn(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return d.d.In(loc)
}

// EndIn is the last instant of d in loc.
func (d Date) EndIn(loc *time.Location) time.Time {
	return d.AddDays(1).StartIn(loc).Add(-time.Nanosecond)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
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
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores the date as a YYYY-MM-DD string so the driver never shifts it by zone.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		// DATE columns arrive as midnight in the session zone; keep the wall date.
		*d = Date{d: civil.DateOf(v)}
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func (d *Date) scanString(s string) error {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
