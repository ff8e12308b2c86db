// Package workshop holds the in-memory application state and applies every
// named command to it. It is the only writer of the document; persistence
// and the remote mirror observe it.
package workshop

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/MrJamesThe3rd/oficina/internal/catalog"
	"github.com/MrJamesThe3rd/oficina/internal/ledger"
	"github.com/MrJamesThe3rd/oficina/internal/workorder"
)

type App struct {
	mu  sync.Mutex
	doc Document

	clients  *catalog.ClientIndex
	parts    *catalog.ItemIndex
	services *catalog.ItemIndex

	ledger *ledger.Service
	engine *workorder.Engine
	now    func() time.Time

	observers []func()
}

func New(ledgerSvc *ledger.Service, engine *workorder.Engine) *App {
	a := &App{
		ledger: ledgerSvc,
		engine: engine,
		now:    time.Now,
	}
	a.setDocument(Document{}.normalize())

	return a
}

// OnChange registers fn to run after every command that changed the
// document. Observers run outside the state lock.
func (a *App) OnChange(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.observers = append(a.observers, fn)
}

// Dispatch applies cmd. Questions raised along the way are answered by d.
// A failed command leaves the state exactly as it was.
func (a *App) Dispatch(ctx context.Context, d workorder.Decision, cmd Command) (Result, error) {
	a.mu.Lock()
	res, err := a.apply(ctx, d, cmd)
	observers := a.observers
	a.mu.Unlock()

	if err != nil {
		slog.Debug("command rejected", "command", cmd.commandName(), "error", err)
		return res, err
	}

	if res.Declined {
		slog.Info("command declined", "command", cmd.commandName())
	}

	if res.Changed {
		slog.Debug("command applied", "command", cmd.commandName())

		for _, fn := range observers {
			fn()
		}
	}

	return res, nil
}

func (a *App) apply(ctx context.Context, d workorder.Decision, cmd Command) (Result, error) {
	switch c := cmd.(type) {
	case SaveOrder:
		return a.saveOrder(ctx, d, c)
	case SetStatus:
		return a.transition(c.OrderID, func(o workorder.Order, entries []ledger.Entry) (workorder.Outcome, error) {
			return a.engine.SetStatus(ctx, d, o, c.Status, entries)
		})
	case Advance:
		return a.transition(c.OrderID, func(o workorder.Order, entries []ledger.Entry) (workorder.Outcome, error) {
			return a.engine.Advance(ctx, d, o, entries)
		})
	case Regress:
		return a.transition(c.OrderID, func(o workorder.Order, entries []ledger.Entry) (workorder.Outcome, error) {
			return a.engine.Regress(ctx, d, o, entries)
		})
	case Archive:
		return a.transition(c.OrderID, func(o workorder.Order, entries []ledger.Entry) (workorder.Outcome, error) {
			return a.engine.Archive(o, entries), nil
		})
	case Restore:
		return a.transition(c.OrderID, func(o workorder.Order, entries []ledger.Entry) (workorder.Outcome, error) {
			return a.engine.Restore(o, entries), nil
		})
	case DeleteOrder:
		return a.deleteOrder(c)
	case UpdateChecklist:
		return a.updateChecklist(c)
	case AddEntry:
		return a.addEntry(c)
	case ImportEntries:
		return a.importEntries(c)
	case AmendEntry:
		return a.amendEntry(c)
	case DeleteEntry:
		return a.deleteEntry(c)
	case DeleteGroup:
		return a.deleteGroup(c)
	case UpdateClient:
		return a.updateClient(c)
	case UpdateCatalogItem:
		return a.updateCatalogItem(c)
	case DeleteCatalogItem:
		return a.deleteCatalogItem(c)
	case UpdateSettings:
		a.doc.Settings = c.Settings
		return Result{Changed: true}, nil
	case ReplaceCollection:
		return a.replaceCollection(c)
	default:
		return Result{}, errUnknownCommand(cmd)
	}
}

func (a *App) setDocument(d Document) {
	a.doc = d
	a.reindexClients()
	a.reindexCatalog()
}

func (a *App) reindexClients() {
	a.clients = catalog.NewClientIndex(a.doc.Clients)
}

func (a *App) reindexCatalog() {
	a.parts = catalog.NewItemIndex(a.doc.CatalogParts)
	a.services = catalog.NewItemIndex(a.doc.CatalogServices)
}

// Replace swaps the whole document, as after a load. Observers are not
// notified.
func (a *App) Replace(d Document) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.setDocument(d.normalize())
}

// Snapshot returns a copy of the document safe to read concurrently.
func (a *App) Snapshot() Document {
	a.mu.Lock()
	defer a.mu.Unlock()

	return Document{
		Ledger:          append([]ledger.Entry{}, a.doc.Ledger...),
		WorkOrders:      append([]workorder.Order{}, a.doc.WorkOrders...),
		Clients:         append([]catalog.Client{}, a.doc.Clients...),
		CatalogParts:    append([]catalog.Item{}, a.doc.CatalogParts...),
		CatalogServices: append([]catalog.Item{}, a.doc.CatalogServices...),
		Settings:        a.doc.Settings,
	}
}

// Encode serializes the current document.
func (a *App) Encode() (string, error) {
	return Encode(a.Snapshot())
}

// Decode replaces the document with the decoded content.
func (a *App) Decode(content string) error {
	d, err := Decode(content)
	if err != nil {
		return err
	}

	a.Replace(d)

	return nil
}

// Empty reports whether every tracked collection is empty.
func (a *App) Empty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.doc.Empty()
}

func (a *App) Order(id string) (workorder.Order, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	i := workorder.Find(a.doc.WorkOrders, id)
	if i < 0 {
		return workorder.Order{}, false
	}

	return a.doc.WorkOrders[i], true
}

func (a *App) NextOSNumber() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return workorder.NextOSNumber(a.doc.WorkOrders)
}

// SuggestClients lists known clients whose name starts with prefix.
func (a *App) SuggestClients(prefix string, limit int) []catalog.Client {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.clients.Suggest(prefix, limit)
}

func (a *App) LookupClient(name string) (catalog.Client, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.clients.Lookup(name)
}

// LookupPrice finds a catalog item by description.
func (a *App) LookupPrice(kind CatalogKind, description string) (catalog.Item, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if kind == KindServices {
		return a.services.Lookup(description)
	}

	return a.parts.Lookup(description)
}
