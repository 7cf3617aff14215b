package period

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidPeriod = errors.New("invalid payroll period")

// Period is a calendar-month pay period. The canonical key is "YYYY-MM".
type Period struct {
	Year  int
	Month time.Month
}

const keyLayout = "2006-01"

// New builds a Period, rejecting months outside 1..12 and years outside 1900..9999.
func New(year int, month int) (Period, error) {
	if month < 1 || month > 12 || year < 1900 || year > 9999 {
		return Period{}, fmt.Errorf("%w: year=%d month=%d", ErrInvalidPeriod, year, month)
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

// Parse accepts only the canonical "YYYY-MM" key, with the same year range as New.
func Parse(key string) (Period, error) {
	t, err := time.Parse(keyLayout, key)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, key)
	}
	p, err := New(t.Year(), int(t.Month()))
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, key)
	}
	return p, nil
}

// MustParse is for fixtures and tests.
func MustParse(key string) Period {
	p, err := Parse(key)
	if err != nil {
		panic(err)
	}
	return p
}

// Of returns the period containing t.
func Of(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

func (p Period) Key() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

func (p Period) String() string {
	return p.Key()
}

func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// Start is the first day of the period in UTC.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the last day of the period in UTC.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, -1)
}

func (p Period) Next() Period {
	return Of(p.Start().AddDate(0, 1, 0))
}

func (p Period) Prev() Period {
	return Of(p.Start().AddDate(0, -1, 0))
}

func (p Period) ordinal() int {
	return p.Year*12 + int(p.Month) - 1
}

func (p Period) Before(o Period) bool {
	return p.ordinal() < o.ordinal()
}

func (p Period) After(o Period) bool {
	return p.ordinal() > o.ordinal()
}

// Compare returns -1, 0 or 1.
func (p Period) Compare(o Period) int {
	switch {
	case p.Before(o):
		return -1
	case p.After(o):
		return 1
	default:
		return 0
	}
}

func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.Key()), nil
}

func (p *Period) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
