package domain

import (
	"fmt"
	"time"
)

const dateLayout = time.DateOnly

// Date is a calendar date in UTC, truncated to midnight.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("ParseDate: %q: %w", s, ErrInvalidRequest)
	}
	return DateOf(t), nil
}

func (d Date) Time() time.Time    { return d.t }
func (d Date) String() string     { return d.t.Format(dateLayout) }
func (d Date) IsZero() bool       { return d.t.IsZero() }
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }
func (d Date) End() time.Time     { return d.t.AddDate(0, 0, 1) }

// DaysBetween returns the absolute number of calendar days between a and b.
func DaysBetween(a, b Date) int {
	h := a.t.Sub(b.t).Hours()
	if h < 0 {
		h = -h
	}
	return int(h / 24)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Period is a settlement window: one calendar month.
type Period struct {
	Year  int
	Month time.Month
}

func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("ParsePeriod: %q: %w", s, ErrInvalidRequest)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

func PeriodOf(d Date) Period {
	return Period{Year: d.t.Year(), Month: d.t.Month()}
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is exclusive.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

func (p Period) IsZero() bool { return p.Year == 0 }
