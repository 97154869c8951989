// Package calendar provides a timezone-free calendar date type for
// due-date and streak arithmetic. No sub-day precision, ever.
package calendar

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Date is a calendar date with no time-of-day or timezone component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func Of(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// FromTime truncates t to its local calendar date.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current local calendar date.
func Today() Date {
	return FromTime(time.Now())
}

func (d Date) toTime() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Bounds returns the half-open [start, end) UTC timestamp range covering
// the calendar day d, used to query timestamp columns by calendar date.
func (d Date) Bounds() (start, end time.Time) {
	start = d.toTime()
	end = d.AddDays(1).toTime()
	return start, end
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return FromTime(d.toTime().AddDate(0, 0, n))
}

// DaysUntil returns the number of days from d to other (other - d).
func (d Date) DaysUntil(other Date) int {
	return int(other.toTime().Sub(d.toTime()).Hours() / 24)
}

func (d Date) Before(other Date) bool {
	return d.toTime().Before(other.toTime())
}

func (d Date) After(other Date) bool {
	return d.toTime().After(other.toTime())
}

func (d Date) Equal(other Date) bool {
	return d == other
}

// Compare returns -1, 0, or 1 as d is before, equal to, or after other.
func (d Date) Compare(other Date) int {
	switch {
	case d.Before(other):
		return -1
	case d.After(other):
		return 1
	default:
		return 0
	}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Value implements driver.Valuer so Date can be stored as a DATE column.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.toTime(), nil
}

// Scan implements sql.Scanner.
func (d *Date) Scan(src interface{}) error {
	if src == nil {
		*d = Date{}
		return nil
	}
	switch v := src.(type) {
	case time.Time:
		*d = FromTime(v)
		return nil
	case []byte:
		t, err := time.Parse("2006-01-02", string(v))
		if err != nil {
			return err
		}
		*d = FromTime(t)
		return nil
	case string:
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return err
		}
		*d = FromTime(t)
		return nil
	default:
		return fmt.Errorf("calendar: unsupported Scan source %T", src)
	}
}
