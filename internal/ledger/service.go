package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/oficina/internal/apperr"
	"github.com/MrJamesThe3rd/oficina/internal/money"
)

const creationNote = "Criação inicial"

// Service creates, amends and groups ledger entries. It never performs I/O:
// callers own the entry collection and pass it in.
type Service struct {
	now   func() time.Time
	newID func() string
}

func NewService() *Service {
	return NewServiceWithClock(time.Now)
}

// NewServiceWithClock is NewService with an injectable clock for tests.
func NewServiceWithClock(now func() time.Time) *Service {
	return &Service{
		now:   func() time.Time { return now().UTC().Round(0) },
		newID: uuid.NewString,
	}
}

type CreateParams struct {
	Description string
	Amount      int64
	Type        Type
	Date        time.Time
	GroupID     string
}

type RecurrenceParams struct {
	Description string
	Total       int64
	Type        Type
	Start       time.Time
	Mode        Mode
	Count       int
}

// AmendParams carries the optional fields Amend may change.
type AmendParams struct {
	Description *string
	Amount      *int64
	Type        *Type
	Date        *time.Time
	Actor       string
	Reason      string
}

func (s *Service) CreateEntry(p CreateParams) (Entry, error) {
	desc := strings.TrimSpace(p.Description)
	if desc == "" {
		return Entry{}, apperr.Invalid("description", "is required")
	}

	if p.Amount <= 0 {
		return Entry{}, apperr.Invalid("amount", "must be positive, got %d", p.Amount)
	}

	if !p.Type.Valid() {
		return Entry{}, apperr.Invalid("type", "unknown entry type %q", p.Type)
	}

	now := s.now()

	date := p.Date
	if date.IsZero() {
		date = now
	}

	return Entry{
		ID:            s.newID(),
		Description:   desc,
		Amount:        p.Amount,
		Type:          p.Type,
		EffectiveDate: competency(date),
		CreatedAt:     now,
		GroupID:       p.GroupID,
		History:       []HistoryLine{{Timestamp: now, Note: creationNote}},
	}, nil
}

// AmendAmount replaces the amount and appends an audit line. The original
// history is never rewritten.
func (s *Service) AmendAmount(e Entry, newAmount int64, actor, reason string) (Entry, error) {
	return s.Amend(e, AmendParams{Amount: &newAmount, Actor: actor, Reason: reason})
}

// Amend applies every non-nil field of p, appending one history line per
// effective change. Unchanged fields produce no history.
func (s *Service) Amend(e Entry, p AmendParams) (Entry, error) {
	if p.Amount != nil && *p.Amount <= 0 {
		return Entry{}, apperr.Invalid("amount", "must be positive, got %d", *p.Amount)
	}

	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		return Entry{}, apperr.Invalid("description", "is required")
	}

	if p.Type != nil && !p.Type.Valid() {
		return Entry{}, apperr.Invalid("type", "unknown entry type %q", *p.Type)
	}

	actor := strings.TrimSpace(p.Actor)
	if actor == "" {
		actor = "sistema"
	}

	now := s.now()
	out := e
	out.History = append(make([]HistoryLine, 0, len(e.History)+4), e.History...)

	note := func(format string, args ...any) {
		line := fmt.Sprintf("%s: %s", actor, fmt.Sprintf(format, args...))
		if p.Reason != "" {
			line += fmt.Sprintf(" (%s)", p.Reason)
		}

		out.History = append(out.History, HistoryLine{Timestamp: now, Note: line})
	}

	if p.Amount != nil && *p.Amount != e.Amount {
		out.Amount = *p.Amount
		note("Alterou valor de %s para %s", money.Decimal(e.Amount), money.Decimal(*p.Amount))
	}

	if p.Description != nil {
		desc := strings.TrimSpace(*p.Description)
		if desc != e.Description {
			out.Description = desc
			note("Alterou descrição para %q", desc)
		}
	}

	if p.Type != nil && *p.Type != e.Type {
		out.Type = *p.Type
		note("Alterou tipo para %s", *p.Type)
	}

	if p.Date != nil {
		date := competency(*p.Date)
		if !date.Equal(e.EffectiveDate) {
			out.EffectiveDate = date
			note("Alterou competência para %s", date.Format(time.DateOnly))
		}
	}

	return out, nil
}

// CreateWithRecurrence expands one user action into one or more entries.
// Multi-entry series share a group id and are dated one month apart.
func (s *Service) CreateWithRecurrence(p RecurrenceParams) ([]Entry, error) {
	if p.Total <= 0 {
		return nil, apperr.Invalid("amount", "must be positive, got %d", p.Total)
	}

	mode := p.Mode
	if mode == "" {
		mode = ModeSingle
	}

	if mode == ModeSingle {
		e, err := s.CreateEntry(CreateParams{
			Description: p.Description,
			Amount:      p.Total,
			Type:        p.Type,
			Date:        p.Start,
		})
		if err != nil {
			return nil, err
		}

		return []Entry{e}, nil
	}

	if mode != ModeInstallment && mode != ModeRecurring {
		return nil, apperr.Invalid("mode", "unknown recurrence mode %q", mode)
	}

	if p.Count < 1 {
		return nil, apperr.Invalid("count", "must be at least 1, got %d", p.Count)
	}

	amounts := make([]int64, p.Count)
	if mode == ModeInstallment {
		amounts = money.Split(p.Total, p.Count)
	} else {
		for i := range amounts {
			amounts[i] = p.Total
		}
	}

	var groupID string
	if p.Count > 1 {
		groupID = s.newID()
	}

	start := p.Start
	if start.IsZero() {
		start = s.now()
	}

	entries := make([]Entry, 0, p.Count)

	for i := 0; i < p.Count; i++ {
		desc := p.Description
		if mode == ModeInstallment {
			desc = fmt.Sprintf("%s (%d/%d)", strings.TrimSpace(p.Description), i+1, p.Count)
		}

		e, err := s.CreateEntry(CreateParams{
			Description: desc,
			Amount:      amounts[i],
			Type:        p.Type,
			Date:        AddMonths(start, i),
			GroupID:     groupID,
		})
		if err != nil {
			return nil, fmt.Errorf("installment %d/%d: %w", i+1, p.Count, err)
		}

		entries = append(entries, e)
	}

	return entries, nil
}

// Delete removes exactly one entry. The input slice is not modified.
func (s *Service) Delete(entries []Entry, id string) ([]Entry, bool) {
	idx := Find(entries, id)
	if idx < 0 {
		return entries, false
	}

	out := make([]Entry, 0, len(entries)-1)
	out = append(out, entries[:idx]...)
	out = append(out, entries[idx+1:]...)

	return out, true
}

// DeleteGroup removes every entry of a series and returns the removed ids.
func (s *Service) DeleteGroup(entries []Entry, groupID string) ([]Entry, []string) {
	if groupID == "" {
		return entries, nil
	}

	out := make([]Entry, 0, len(entries))

	var removed []string

	for _, e := range entries {
		if e.GroupID == groupID {
			removed = append(removed, e.ID)
			continue
		}

		out = append(out, e)
	}

	return out, removed
}

// AddMonths steps n calendar months from t, clamping the day to the last day
// of the target month (Jan 31 + 1 month = Feb 28/29).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1).Day()

	if d > last {
		d = last
	}

	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// competency normalizes a date to midnight UTC of its calendar day.
func competency(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
