package workshop

import (
	"github.com/MrJamesThe3rd/oficina/internal/catalog"
	"github.com/MrJamesThe3rd/oficina/internal/ledger"
	"github.com/MrJamesThe3rd/oficina/internal/mirror"
	"github.com/MrJamesThe3rd/oficina/internal/workorder"
)

// Command is a named mutation of the application state. Every change to
// the document goes through App.Dispatch with one of the types below.
type Command interface {
	commandName() string
}

// CatalogKind selects the parts or the services price list.
type CatalogKind string

const (
	KindParts    CatalogKind = "parts"
	KindServices CatalogKind = "services"
)

// SaveOrder creates the order when its id is unknown and updates it
// otherwise. Status and financial link are never changed by saving.
type SaveOrder struct {
	Order        workorder.Order
	VehicleModel string
	VehiclePlate string
	ClientNotes  string
}

type SetStatus struct {
	OrderID string
	Status  workorder.Status
}

type Advance struct{ OrderID string }

type Regress struct{ OrderID string }

type Archive struct{ OrderID string }

type Restore struct{ OrderID string }

// DeleteOrder removes the order. A linked ledger entry is kept.
type DeleteOrder struct{ OrderID string }

type UpdateChecklist struct {
	OrderID     string
	Checklist   workorder.Checklist
	PublicNotes *string
}

type AddEntry struct{ Params ledger.RecurrenceParams }

// ImportEntries books movements read from a statement. Movements already
// in the ledger are skipped and reported as conflicts unless Force is set.
type ImportEntries struct {
	Params []ledger.CreateParams
	Force  bool
}

type AmendEntry struct {
	EntryID string
	Params  ledger.AmendParams
}

type DeleteEntry struct{ EntryID string }

type DeleteGroup struct{ GroupID string }

// UpdateClient replaces the client with the same id and cascades the edit.
type UpdateClient struct{ Client catalog.Client }

// UpdateCatalogItem replaces the item currently described as Description.
type UpdateCatalogItem struct {
	Kind        CatalogKind
	Description string
	Item        catalog.Item
}

type DeleteCatalogItem struct {
	Kind        CatalogKind
	Description string
}

type UpdateSettings struct{ Settings Settings }

// ReplaceCollection overwrites one collection with records fetched from a
// remote mirror.
type ReplaceCollection struct {
	Collection mirror.Collection
	Records    []mirror.Record
}

func (SaveOrder) commandName() string         { return "save-order" }
func (SetStatus) commandName() string         { return "set-status" }
func (Advance) commandName() string           { return "advance" }
func (Regress) commandName() string           { return "regress" }
func (Archive) commandName() string           { return "archive" }
func (Restore) commandName() string           { return "restore" }
func (DeleteOrder) commandName() string       { return "delete-order" }
func (UpdateChecklist) commandName() string   { return "update-checklist" }
func (AddEntry) commandName() string          { return "add-entry" }
func (ImportEntries) commandName() string     { return "import-entries" }
func (AmendEntry) commandName() string        { return "amend-entry" }
func (DeleteEntry) commandName() string       { return "delete-entry" }
func (DeleteGroup) commandName() string       { return "delete-group" }
func (UpdateClient) commandName() string      { return "update-client" }
func (UpdateCatalogItem) commandName() string { return "update-catalog-item" }
func (DeleteCatalogItem) commandName() string { return "delete-catalog-item" }
func (UpdateSettings) commandName() string    { return "update-settings" }
func (ReplaceCollection) commandName() string { return "replace-collection" }

// Result describes what a command did.
type Result struct {
	Order    *workorder.Order
	Entries  []ledger.Entry
	Changed  bool
	Declined bool

	// Conflicts lists imported movements skipped as already booked.
	Conflicts []ledger.Conflict
}
