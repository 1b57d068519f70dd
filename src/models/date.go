package models

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// -----------------------------------------------------------------------------

// MDate is a calendar date without time-of-day, serialized as YYYY-MM-DD.
type MDate struct {
	time.Time
}

// -----------------------------------------------------------------------------

// NewMDate truncates t to its calendar date in UTC.
func NewMDate(t time.Time) MDate {
	y, m, d := t.Date()
	return MDate{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// -----------------------------------------------------------------------------

// ParseMDate parses a YYYY-MM-DD string.
func ParseMDate(s string) (MDate, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return MDate{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return MDate{t}, nil
}

// -----------------------------------------------------------------------------

func (d MDate) String() string {
	return d.Format(dateLayout)
}

// -----------------------------------------------------------------------------

func (d MDate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// -----------------------------------------------------------------------------

func (d *MDate) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date literal %s", s)
	}
	parsed, err := ParseMDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// -----------------------------------------------------------------------------

// AddDays returns the date n calendar days later.
func (d MDate) AddDays(n int) MDate {
	return MDate{d.AddDate(0, 0, n)}
}
