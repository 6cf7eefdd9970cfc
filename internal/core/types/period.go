package types

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Period is a calendar month used to bucket movements and aggregate reports.
// Wire and storage format is "YYYY-MM".
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the period containing t (UTC date of t).
func PeriodOf(t time.Time) Period {
	return Period{Year: t.UTC().Year(), Month: t.UTC().Month()}
}

// ParsePeriod parses "YYYY-MM".
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("parse period %q: expected YYYY-MM", s)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// MustParsePeriod parses "YYYY-MM", panics on error. Use only in tests.
func MustParsePeriod(s string) Period {
	p, err := ParsePeriod(s)
	if err != nil {
		panic(err)
	}
	return p
}

// IsZero reports whether the period is unset.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// String formats the period as "YYYY-MM".
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// FirstDay returns midnight UTC of the first day of the period.
func (p Period) FirstDay() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// LastDay returns midnight UTC of the last day of the period.
// As-of-date stock folds use movementDate <= LastDay().
func (p Period) LastDay() time.Time {
	return p.FirstDay().AddDate(0, 1, -1)
}

// Next returns the following calendar month.
func (p Period) Next() Period {
	t := p.FirstDay().AddDate(0, 1, 0)
	return Period{Year: t.Year(), Month: t.Month()}
}

// Prev returns the preceding calendar month.
func (p Period) Prev() Period {
	t := p.FirstDay().AddDate(0, -1, 0)
	return Period{Year: t.Year(), Month: t.Month()}
}

// Before reports whether p is strictly earlier than other.
func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

// MarshalJSON encodes the period as a "YYYY-MM" string.
func (p Period) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// UnmarshalJSON parses a "YYYY-MM" string.
func (p *Period) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" || s == "null" {
		*p = Period{}
		return nil
	}
	parsed, err := ParsePeriod(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Value implements driver.Valuer for storing as TEXT.
func (p Period) Value() (driver.Value, error) {
	return p.String(), nil
}

// Scan implements sql.Scanner for the TEXT column.
func (p *Period) Scan(src any) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParsePeriod(v)
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	case []byte:
		return p.Scan(string(v))
	case nil:
		*p = Period{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Period", src)
	}
}
