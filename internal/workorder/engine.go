// Package workorder implements the work order lifecycle and the rule that
// ties finishing an order to a revenue entry in the ledger.
package workorder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MrJamesThe3rd/oficina/internal/apperr"
	"github.com/MrJamesThe3rd/oficina/internal/ledger"
	"github.com/MrJamesThe3rd/oficina/internal/money"
)

// Outcome is the result of a status change. Order and Ledger are always the
// collections to keep: on a declined change they are the inputs untouched.
type Outcome struct {
	Order    Order
	Ledger   []ledger.Entry
	Changed  bool
	Declined bool
}

type Engine struct {
	ledger *ledger.Service
}

func NewEngine(ledgerSvc *ledger.Service) *Engine {
	return &Engine{ledger: ledgerSvc}
}

// SetStatus moves o to target. Entering FINALIZADO may post revenue and
// leaving it may remove that revenue, each only after d confirms. Refusing
// to remove revenue aborts the whole change.
func (e *Engine) SetStatus(ctx context.Context, d Decision, o Order, target Status, entries []ledger.Entry) (Outcome, error) {
	unchanged := Outcome{Order: o, Ledger: entries}

	if !target.Valid() {
		return unchanged, apperr.Invalid("status", "unknown status %q", target)
	}

	if target == o.Status {
		return unchanged, nil
	}

	if target == StatusArchived || o.Status == StatusArchived {
		return e.archiveMove(o, target, entries), nil
	}

	switch {
	case target == StatusFinished:
		return e.finish(ctx, d, o, entries)
	case o.Status == StatusFinished && o.FinancialID != "":
		return e.reopen(ctx, d, o, target, entries)
	}

	out := o
	out.Status = target

	return Outcome{Order: out, Ledger: entries, Changed: true}, nil
}

// Advance moves one step forward in the flow. Archived orders stay put.
func (e *Engine) Advance(ctx context.Context, d Decision, o Order, entries []ledger.Entry) (Outcome, error) {
	if o.Status == StatusArchived {
		return Outcome{Order: o, Ledger: entries}, nil
	}

	return e.SetStatus(ctx, d, o, o.Status.Next(), entries)
}

// Regress moves one step back in the flow. Archived orders stay put.
func (e *Engine) Regress(ctx context.Context, d Decision, o Order, entries []ledger.Entry) (Outcome, error) {
	if o.Status == StatusArchived {
		return Outcome{Order: o, Ledger: entries}, nil
	}

	return e.SetStatus(ctx, d, o, o.Status.Prev(), entries)
}

// Archive parks the order, remembering where it was.
func (e *Engine) Archive(o Order, entries []ledger.Entry) Outcome {
	if o.Status == StatusArchived {
		return Outcome{Order: o, Ledger: entries}
	}

	return e.archiveMove(o, StatusArchived, entries)
}

// Restore brings an archived order back to the status it was archived from.
func (e *Engine) Restore(o Order, entries []ledger.Entry) Outcome {
	if o.Status != StatusArchived {
		return Outcome{Order: o, Ledger: entries}
	}

	target := o.PreviousStatus
	if position(target) < 0 {
		target = StatusQuote
	}

	return e.archiveMove(o, target, entries)
}

func (e *Engine) archiveMove(o Order, target Status, entries []ledger.Entry) Outcome {
	out := o
	if target == StatusArchived {
		out.PreviousStatus = o.Status
	} else {
		out.PreviousStatus = ""
	}

	out.Status = target

	slog.Debug("order archive state changed", "order_id", o.ID, "from", o.Status, "to", target)

	return Outcome{Order: out, Ledger: entries, Changed: true}
}

func (e *Engine) finish(ctx context.Context, d Decision, o Order, entries []ledger.Entry) (Outcome, error) {
	out := o
	out.Status = StatusFinished

	if o.FinancialID != "" {
		return Outcome{Order: out, Ledger: entries, Changed: true}, nil
	}

	ok, err := d.Confirm(ctx, Prompt{
		Question: QuestionPostRevenue,
		OrderID:  o.ID,
		OSNumber: o.OSNumber,
		Amount:   o.Total,
		Message:  fmt.Sprintf("Lançar %s da OS #%d no financeiro?", money.Format(o.Total), o.OSNumber),
	})
	if err != nil {
		return Outcome{Order: o, Ledger: entries}, fmt.Errorf("confirming revenue for order %s: %w", o.ID, err)
	}

	if !ok {
		return Outcome{Order: out, Ledger: entries, Changed: true}, nil
	}

	if o.Total <= 0 {
		slog.Info("order finished without revenue", "order_id", o.ID, "os_number", o.OSNumber)
		return Outcome{Order: out, Ledger: entries, Changed: true}, nil
	}

	entry, err := e.ledger.CreateEntry(ledger.CreateParams{
		Description: RevenueDescription(o),
		Amount:      o.Total,
		Type:        ledger.TypeCredit,
		Date:        o.CreatedAt,
	})
	if err != nil {
		return Outcome{Order: o, Ledger: entries}, fmt.Errorf("posting revenue for order %s: %w", o.ID, err)
	}

	out.FinancialID = entry.ID

	next := append(make([]ledger.Entry, 0, len(entries)+1), entries...)
	next = append(next, entry)

	slog.Info("revenue posted", "order_id", o.ID, "entry_id", entry.ID, "amount", entry.Amount)

	return Outcome{Order: out, Ledger: next, Changed: true}, nil
}

func (e *Engine) reopen(ctx context.Context, d Decision, o Order, target Status, entries []ledger.Entry) (Outcome, error) {
	unchanged := Outcome{Order: o, Ledger: entries}

	ok, err := d.Confirm(ctx, Prompt{
		Question: QuestionRemoveRevenue,
		OrderID:  o.ID,
		OSNumber: o.OSNumber,
		Amount:   o.Total,
		Message:  fmt.Sprintf("A OS #%d possui lançamento financeiro. Remover a receita?", o.OSNumber),
	})
	if err != nil {
		return unchanged, fmt.Errorf("confirming revenue removal for order %s: %w", o.ID, err)
	}

	if !ok {
		unchanged.Declined = true
		return unchanged, nil
	}

	next, found := e.ledger.Delete(entries, o.FinancialID)
	if !found {
		slog.Warn("linked entry already gone", "order_id", o.ID, "entry_id", o.FinancialID)
	}

	out := o
	out.Status = target
	out.FinancialID = ""

	slog.Info("revenue removed", "order_id", o.ID, "entry_id", o.FinancialID)

	return Outcome{Order: out, Ledger: next, Changed: true}, nil
}

// RevenueDescription is the ledger description for an order's revenue.
func RevenueDescription(o Order) string {
	if o.ClientName == "" {
		return fmt.Sprintf("OS #%d", o.OSNumber)
	}

	return fmt.Sprintf("OS #%d - %s", o.OSNumber, o.ClientName)
}
