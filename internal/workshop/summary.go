package workshop

import (
	"github.com/MrJamesThe3rd/oficina/internal/ledger"
	"github.com/MrJamesThe3rd/oficina/internal/workorder"
)

// Summary is the financial overview of one period.
type Summary struct {
	Period         string `json:"period"`
	Revenue        int64  `json:"revenue"`
	Expense        int64  `json:"expense"`
	Balance        int64  `json:"balance"`
	Entries        int    `json:"entries"`
	FinishedOrders int    `json:"finishedOrders"`
	AverageTicket  int64  `json:"averageTicket"`
}

// Summarize computes the ledger totals of p and the average ticket of the
// orders finished with a competency date inside p.
func (a *App) Summarize(p ledger.Period) Summary {
	doc := a.Snapshot()
	totals := ledger.Summarize(doc.Ledger, p)

	s := Summary{
		Period:  p.String(),
		Revenue: totals.Revenue,
		Expense: totals.Expense,
		Balance: totals.Balance,
		Entries: totals.Count,
	}

	var sum int64

	for _, o := range doc.WorkOrders {
		if o.Status != workorder.StatusFinished || !p.Contains(o.CreatedAt) {
			continue
		}

		s.FinishedOrders++
		sum += o.Total
	}

	if s.FinishedOrders > 0 {
		s.AverageTicket = sum / int64(s.FinishedOrders)
	}

	return s
}
