package ledger

import (
	"strings"
	"time"
)

// Conflict pairs an incoming movement with the entry it duplicates.
type Conflict struct {
	Incoming CreateParams `json:"incoming"`
	Existing Entry        `json:"existing"`
}

type dupKey struct {
	date        string
	amount      int64
	typ         Type
	description string
}

func keyOf(date time.Time, amount int64, typ Type, description string) dupKey {
	return dupKey{
		date:        competency(date).Format(time.DateOnly),
		amount:      amount,
		typ:         typ,
		description: strings.ToLower(strings.TrimSpace(description)),
	}
}

// ImportBatch creates entries for params, skipping every movement already
// booked in existing with the same day, amount, type and description.
// Skipped movements are returned as conflicts. Duplicates inside params
// itself are all kept: a statement may list two identical movements.
func (s *Service) ImportBatch(existing []Entry, params []CreateParams) ([]Entry, []Conflict, error) {
	lookup := make(map[dupKey]Entry, len(existing))
	for _, e := range existing {
		lookup[keyOf(e.EffectiveDate, e.Amount, e.Type, e.Description)] = e
	}

	var (
		created   []Entry
		conflicts []Conflict
	)

	for _, p := range params {
		if e, ok := lookup[keyOf(p.Date, p.Amount, p.Type, p.Description)]; ok {
			conflicts = append(conflicts, Conflict{Incoming: p, Existing: e})
			continue
		}

		e, err := s.CreateEntry(p)
		if err != nil {
			return nil, nil, err
		}

		created = append(created, e)
	}

	return created, conflicts, nil
}
