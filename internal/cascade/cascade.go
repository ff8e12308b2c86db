// Package cascade propagates edits of a client or catalog item into the
// orders and ledger entries that copied its text. All functions are pure:
// inputs are never modified.
package cascade

import (
	"strings"

	"github.com/MrJamesThe3rd/oficina/internal/catalog"
	"github.com/MrJamesThe3rd/oficina/internal/ledger"
	"github.com/MrJamesThe3rd/oficina/internal/workorder"
)

type Result struct {
	Orders  []workorder.Order
	Ledger  []ledger.Entry
	Changed int // Number of orders and entries rewritten
}

// Client rewrites orders and ledger descriptions after old became updated.
// Vehicles are matched by position in the client's vehicle list.
func Client(old, updated catalog.Client, orders []workorder.Order, entries []ledger.Entry) Result {
	res := Result{
		Orders: make([]workorder.Order, len(orders)),
		Ledger: make([]ledger.Entry, len(entries)),
	}
	copy(res.Orders, orders)
	copy(res.Ledger, entries)

	renames := vehicleRenames(old.Vehicles, updated.Vehicles)

	for i, o := range res.Orders {
		touched := false

		if old.Name != "" && o.ClientName == old.Name {
			o.ClientName = updated.Name
			o.ClientPhone = updated.Phone
			touched = true
		}

		if to, ok := renames[o.Vehicle]; ok {
			o.Vehicle = to
			touched = true
		}

		if touched {
			res.Orders[i] = o
			res.Changed++
		}
	}

	if old.Name == "" || old.Name == updated.Name {
		return res
	}

	for i, e := range res.Ledger {
		if !strings.Contains(e.Description, old.Name) {
			continue
		}

		e.Description = strings.ReplaceAll(e.Description, old.Name, updated.Name)
		res.Ledger[i] = e
		res.Changed++
	}

	return res
}

func vehicleRenames(old, updated []catalog.Vehicle) map[string]string {
	renames := make(map[string]string)

	for i := 0; i < len(old) && i < len(updated); i++ {
		from, to := old[i].Label(), updated[i].Label()
		if from != to && from != "" {
			renames[from] = to
		}
	}

	return renames
}

// CatalogItem relabels order items whose description equals the old one.
// Prices on existing orders are left as they were billed.
func CatalogItem(old, updated catalog.Item, orders []workorder.Order) Result {
	res := Result{Orders: make([]workorder.Order, len(orders))}
	copy(res.Orders, orders)

	if old.Description == "" || old.Description == updated.Description {
		return res
	}

	for i, o := range res.Orders {
		parts, p := relabel(o.Parts, old.Description, updated.Description)
		services, s := relabel(o.Services, old.Description, updated.Description)

		if !p && !s {
			continue
		}

		o.Parts, o.Services = parts, services
		res.Orders[i] = o
		res.Changed++
	}

	return res
}

func relabel(items []workorder.Item, from, to string) ([]workorder.Item, bool) {
	var out []workorder.Item

	for i, it := range items {
		if it.Description != from {
			continue
		}

		if out == nil {
			out = append([]workorder.Item(nil), items...)
		}

		out[i].Description = to
	}

	if out == nil {
		return items, false
	}

	return out, true
}
