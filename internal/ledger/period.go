package ledger

import (
	"fmt"
	"time"
)

// Period selects a competency month, or a whole year when Month is zero.
type Period struct {
	Year  int
	Month time.Month
}

// MonthOf returns the competency month containing t.
func MonthOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParsePeriod accepts "2006-01" (month) or "2006" (year).
func ParsePeriod(s string) (Period, error) {
	if t, err := time.Parse("2006-01", s); err == nil {
		return MonthOf(t), nil
	}

	if t, err := time.Parse("2006", s); err == nil {
		return Period{Year: t.Year()}, nil
	}

	return Period{}, fmt.Errorf("invalid period %q: want YYYY-MM or YYYY", s)
}

func (p Period) Contains(t time.Time) bool {
	if t.Year() != p.Year {
		return false
	}

	return p.Month == 0 || t.Month() == p.Month
}

func (p Period) String() string {
	if p.Month == 0 {
		return fmt.Sprintf("%04d", p.Year)
	}

	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Summary aggregates entries of one period.
type Summary struct {
	Revenue int64 `json:"revenue"`
	Expense int64 `json:"expense"`
	Balance int64 `json:"balance"`
	Count   int   `json:"count"`
}

// Filter returns the entries whose competency date falls in p. An empty
// typ keeps both directions.
func Filter(entries []Entry, p Period, typ Type) []Entry {
	var out []Entry

	for _, e := range entries {
		if !p.Contains(e.EffectiveDate) {
			continue
		}

		if typ != "" && e.Type != typ {
			continue
		}

		out = append(out, e)
	}

	return out
}

func Summarize(entries []Entry, p Period) Summary {
	var s Summary

	for _, e := range Filter(entries, p, "") {
		s.Count++
		s.Balance += e.Signed()

		switch e.Type {
		case TypeCredit:
			s.Revenue += e.Amount
		case TypeDebit:
			s.Expense += e.Amount
		}
	}

	return s
}
