package workshop

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/oficina/internal/apperr"
	"github.com/MrJamesThe3rd/oficina/internal/cascade"
	"github.com/MrJamesThe3rd/oficina/internal/catalog"
	"github.com/MrJamesThe3rd/oficina/internal/ledger"
	"github.com/MrJamesThe3rd/oficina/internal/workorder"
)

func errUnknownCommand(cmd Command) error {
	return fmt.Errorf("unknown command %T", cmd)
}

func (a *App) saveOrder(ctx context.Context, d workorder.Decision, c SaveOrder) (Result, error) {
	o := c.Order
	o.ClientName = strings.TrimSpace(o.ClientName)
	o.ClientPhone = strings.TrimSpace(o.ClientPhone)

	if c.VehicleModel != "" || c.VehiclePlate != "" {
		o.Vehicle = catalog.Vehicle{Model: strings.TrimSpace(c.VehicleModel), Plate: strings.TrimSpace(c.VehiclePlate)}.Label()
	}

	o.Vehicle = strings.TrimSpace(o.Vehicle)

	if o.ClientName == "" {
		return Result{}, apperr.Invalid("clientName", "is required")
	}

	if o.Mileage < 0 {
		return Result{}, apperr.Invalid("mileage", "must not be negative")
	}

	if err := validateItems(o.Parts, o.Services); err != nil {
		return Result{}, err
	}

	idx := -1
	if o.ID != "" {
		idx = workorder.Find(a.doc.WorkOrders, o.ID)
	}

	if idx >= 0 {
		prev := a.doc.WorkOrders[idx]
		o.Status = prev.Status
		o.PreviousStatus = prev.PreviousStatus
		o.FinancialID = prev.FinancialID

		if o.CreatedAt.IsZero() {
			o.CreatedAt = prev.CreatedAt
		}

		if o.Checklist == nil {
			o.Checklist = prev.Checklist
		}

		if o.PublicNotes == "" {
			o.PublicNotes = prev.PublicNotes
		}
	} else {
		if o.ID == "" {
			o.ID = uuid.NewString()
		}

		o.Status = workorder.StatusQuote
		o.PreviousStatus = ""
		o.FinancialID = ""

		if o.CreatedAt.IsZero() {
			y, m, day := a.now().Date()
			o.CreatedAt = time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
		}
	}

	if o.OSNumber <= 0 {
		o.OSNumber = workorder.NextOSNumber(a.doc.WorkOrders)
	}

	if workorder.NumberTaken(a.doc.WorkOrders, o.OSNumber, o.ID) {
		ok, err := d.Confirm(ctx, workorder.Prompt{
			Question: workorder.QuestionDuplicateNumber,
			OrderID:  o.ID,
			OSNumber: o.OSNumber,
			Message:  fmt.Sprintf("Já existe uma OS #%d. Salvar mesmo assim?", o.OSNumber),
		})
		if err != nil {
			return Result{}, fmt.Errorf("confirming duplicate number: %w", err)
		}

		if !ok {
			return Result{Declined: true}, apperr.Invalid("osNumber", "OS #%d already exists", o.OSNumber)
		}
	}

	o = o.Recalculate()

	orders := slices.Clone(a.doc.WorkOrders)
	if idx >= 0 {
		orders[idx] = o
	} else {
		orders = append(orders, o)
	}

	a.doc.WorkOrders = orders
	a.doc.Clients = catalog.LearnClient(a.doc.Clients, catalog.ClientInput{
		Name:    o.ClientName,
		Phone:   o.ClientPhone,
		Notes:   c.ClientNotes,
		Vehicle: catalog.ParseVehicle(o.Vehicle),
	})
	a.doc.CatalogParts = catalog.LearnItems(a.doc.CatalogParts, toCatalog(o.Parts))
	a.doc.CatalogServices = catalog.LearnItems(a.doc.CatalogServices, toCatalog(o.Services))
	a.reindexClients()
	a.reindexCatalog()

	return Result{Order: &o, Changed: true}, nil
}

func validateItems(lists ...[]workorder.Item) error {
	for _, items := range lists {
		for _, it := range items {
			if strings.TrimSpace(it.Description) == "" {
				return apperr.Invalid("items", "every item needs a description")
			}

			if it.Price < 0 {
				return apperr.Invalid("items", "price of %q must not be negative", it.Description)
			}
		}
	}

	return nil
}

func toCatalog(items []workorder.Item) []catalog.Item {
	out := make([]catalog.Item, 0, len(items))
	for _, it := range items {
		out = append(out, catalog.Item{Description: it.Description, Price: it.Price, Cost: it.Cost})
	}

	return out
}

type transitionFunc func(o workorder.Order, entries []ledger.Entry) (workorder.Outcome, error)

func (a *App) transition(orderID string, fn transitionFunc) (Result, error) {
	idx := workorder.Find(a.doc.WorkOrders, orderID)
	if idx < 0 {
		return Result{}, fmt.Errorf("order %s: %w", orderID, apperr.ErrNotFound)
	}

	out, err := fn(a.doc.WorkOrders[idx], a.doc.Ledger)
	if err != nil {
		return Result{}, err
	}

	o := out.Order
	res := Result{Order: &o, Changed: out.Changed, Declined: out.Declined}

	if !out.Changed {
		return res, nil
	}

	orders := slices.Clone(a.doc.WorkOrders)
	orders[idx] = out.Order
	a.doc.WorkOrders = orders
	a.doc.Ledger = out.Ledger

	return res, nil
}

func (a *App) deleteOrder(c DeleteOrder) (Result, error) {
	idx := workorder.Find(a.doc.WorkOrders, c.OrderID)
	if idx < 0 {
		return Result{}, fmt.Errorf("order %s: %w", c.OrderID, apperr.ErrNotFound)
	}

	a.doc.WorkOrders = slices.Delete(slices.Clone(a.doc.WorkOrders), idx, idx+1)

	return Result{Changed: true}, nil
}

func (a *App) updateChecklist(c UpdateChecklist) (Result, error) {
	idx := workorder.Find(a.doc.WorkOrders, c.OrderID)
	if idx < 0 {
		return Result{}, fmt.Errorf("order %s: %w", c.OrderID, apperr.ErrNotFound)
	}

	if c.Checklist.FuelLevel < 0 || c.Checklist.FuelLevel > 100 {
		return Result{}, apperr.Invalid("fuelLevel", "must be between 0 and 100")
	}

	o := a.doc.WorkOrders[idx]
	cl := c.Checklist
	o.Checklist = &cl

	if c.PublicNotes != nil {
		o.PublicNotes = strings.TrimSpace(*c.PublicNotes)
	}

	orders := slices.Clone(a.doc.WorkOrders)
	orders[idx] = o
	a.doc.WorkOrders = orders

	return Result{Order: &o, Changed: true}, nil
}

func (a *App) addEntry(c AddEntry) (Result, error) {
	created, err := a.ledger.CreateWithRecurrence(c.Params)
	if err != nil {
		return Result{}, err
	}

	a.doc.Ledger = append(slices.Clone(a.doc.Ledger), created...)

	return Result{Entries: created, Changed: true}, nil
}

func (a *App) importEntries(c ImportEntries) (Result, error) {
	var existing []ledger.Entry
	if !c.Force {
		existing = a.doc.Ledger
	}

	created, conflicts, err := a.ledger.ImportBatch(existing, c.Params)
	if err != nil {
		return Result{}, err
	}

	if len(created) > 0 {
		a.doc.Ledger = append(slices.Clone(a.doc.Ledger), created...)
	}

	return Result{Entries: created, Conflicts: conflicts, Changed: len(created) > 0}, nil
}

func (a *App) amendEntry(c AmendEntry) (Result, error) {
	idx := ledger.Find(a.doc.Ledger, c.EntryID)
	if idx < 0 {
		return Result{}, fmt.Errorf("entry %s: %w", c.EntryID, apperr.ErrNotFound)
	}

	prev := a.doc.Ledger[idx]

	amended, err := a.ledger.Amend(prev, c.Params)
	if err != nil {
		return Result{}, err
	}

	if len(amended.History) == len(prev.History) {
		return Result{Entries: []ledger.Entry{prev}}, nil
	}

	entries := slices.Clone(a.doc.Ledger)
	entries[idx] = amended
	a.doc.Ledger = entries

	return Result{Entries: []ledger.Entry{amended}, Changed: true}, nil
}

func (a *App) deleteEntry(c DeleteEntry) (Result, error) {
	entries, ok := a.ledger.Delete(a.doc.Ledger, c.EntryID)
	if !ok {
		return Result{}, fmt.Errorf("entry %s: %w", c.EntryID, apperr.ErrNotFound)
	}

	a.doc.Ledger = entries
	a.doc.WorkOrders = unlink(a.doc.WorkOrders, c.EntryID)

	return Result{Changed: true}, nil
}

func (a *App) deleteGroup(c DeleteGroup) (Result, error) {
	entries, removed := a.ledger.DeleteGroup(a.doc.Ledger, c.GroupID)
	if len(removed) == 0 {
		return Result{}, fmt.Errorf("group %s: %w", c.GroupID, apperr.ErrNotFound)
	}

	a.doc.Ledger = entries
	a.doc.WorkOrders = unlink(a.doc.WorkOrders, removed...)

	return Result{Changed: true}, nil
}

// unlink clears the financial link of every order pointing at a removed
// entry.
func unlink(orders []workorder.Order, entryIDs ...string) []workorder.Order {
	out := slices.Clone(orders)

	for i, o := range out {
		if o.FinancialID != "" && slices.Contains(entryIDs, o.FinancialID) {
			o.FinancialID = ""
			out[i] = o
		}
	}

	return out
}

// unlinkMissing clears the financial link of every order whose entry is not
// in entries.
func unlinkMissing(orders []workorder.Order, entries []ledger.Entry) []workorder.Order {
	ids := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		ids[e.ID] = struct{}{}
	}

	out := slices.Clone(orders)

	for i, o := range out {
		if _, ok := ids[o.FinancialID]; o.FinancialID != "" && !ok {
			o.FinancialID = ""
			out[i] = o
		}
	}

	return out
}

func (a *App) updateClient(c UpdateClient) (Result, error) {
	idx := catalog.FindClient(a.doc.Clients, c.Client.ID)
	if idx < 0 {
		return Result{}, fmt.Errorf("client %s: %w", c.Client.ID, apperr.ErrNotFound)
	}

	updated := c.Client
	updated.Name = strings.TrimSpace(updated.Name)
	updated.Phone = strings.TrimSpace(updated.Phone)

	if updated.Name == "" {
		return Result{}, apperr.Invalid("name", "is required")
	}

	if other, ok := a.clients.Lookup(updated.Name); ok && other.ID != updated.ID {
		return Result{}, apperr.Invalid("name", "client %q already exists", updated.Name)
	}

	if updated.Vehicles == nil {
		updated.Vehicles = []catalog.Vehicle{}
	}

	old := a.doc.Clients[idx]
	res := cascade.Client(old, updated, a.doc.WorkOrders, a.doc.Ledger)

	clients := slices.Clone(a.doc.Clients)
	clients[idx] = updated

	a.doc.Clients = clients
	a.doc.WorkOrders = res.Orders
	a.doc.Ledger = res.Ledger
	a.reindexClients()

	return Result{Changed: true}, nil
}

func (a *App) catalogOf(kind CatalogKind) (*[]catalog.Item, error) {
	switch kind {
	case KindParts:
		return &a.doc.CatalogParts, nil
	case KindServices:
		return &a.doc.CatalogServices, nil
	default:
		return nil, apperr.Invalid("kind", "unknown catalog %q", kind)
	}
}

func (a *App) updateCatalogItem(c UpdateCatalogItem) (Result, error) {
	list, err := a.catalogOf(c.Kind)
	if err != nil {
		return Result{}, err
	}

	idx := catalog.FindItem(*list, c.Description)
	if idx < 0 {
		return Result{}, fmt.Errorf("catalog item %q: %w", c.Description, apperr.ErrNotFound)
	}

	updated := c.Item
	updated.Description = strings.TrimSpace(updated.Description)

	if updated.Description == "" {
		return Result{}, apperr.Invalid("description", "is required")
	}

	if updated.Price < 0 {
		return Result{}, apperr.Invalid("price", "must not be negative")
	}

	if other := catalog.FindItem(*list, updated.Description); other >= 0 && other != idx {
		return Result{}, apperr.Invalid("description", "%q already exists", updated.Description)
	}

	old := (*list)[idx]
	res := cascade.CatalogItem(old, updated, a.doc.WorkOrders)

	items := slices.Clone(*list)
	items[idx] = updated
	*list = items

	a.doc.WorkOrders = res.Orders
	a.reindexCatalog()

	return Result{Changed: true}, nil
}

func (a *App) deleteCatalogItem(c DeleteCatalogItem) (Result, error) {
	list, err := a.catalogOf(c.Kind)
	if err != nil {
		return Result{}, err
	}

	idx := catalog.FindItem(*list, c.Description)
	if idx < 0 {
		return Result{}, fmt.Errorf("catalog item %q: %w", c.Description, apperr.ErrNotFound)
	}

	*list = slices.Delete(slices.Clone(*list), idx, idx+1)
	a.reindexCatalog()

	return Result{Changed: true}, nil
}
