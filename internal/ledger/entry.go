package ledger

import (
	"time"
)

// Type is the direction of a ledger movement.
type Type string

const (
	TypeCredit Type = "CREDIT"
	TypeDebit  Type = "DEBIT"
)

func (t Type) Valid() bool {
	return t == TypeCredit || t == TypeDebit
}

// Mode controls how CreateWithRecurrence expands one user action into entries.
type Mode string

const (
	ModeSingle      Mode = "SINGLE"
	ModeInstallment Mode = "INSTALLMENT"
	ModeRecurring   Mode = "RECURRING"
)

// HistoryLine is one line of an entry's audit trail.
type HistoryLine struct {
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note"`
}

// Entry is one financial movement. Amount is always positive; the sign is
// carried by Type.
type Entry struct {
	ID            string        `json:"id"`
	Description   string        `json:"description"`
	Amount        int64         `json:"amount"` // Amount in cents
	Type          Type          `json:"type"`
	EffectiveDate time.Time     `json:"effectiveDate"`
	CreatedAt     time.Time     `json:"createdAt"`
	GroupID       string        `json:"groupId,omitempty"`
	History       []HistoryLine `json:"history"`
}

// Signed returns the amount with the sign implied by the entry type.
func (e Entry) Signed() int64 {
	if e.Type == TypeDebit {
		return -e.Amount
	}

	return e.Amount
}

// Audited reports whether the entry was changed after its creation.
func (e Entry) Audited() bool {
	return len(e.History) > 1
}

// Find returns the index of the entry with the given id, or -1.
func Find(entries []Entry, id string) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}

	return -1
}
