package workshop

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MrJamesThe3rd/oficina/internal/catalog"
	"github.com/MrJamesThe3rd/oficina/internal/ledger"
	"github.com/MrJamesThe3rd/oficina/internal/workorder"
)

type Settings struct {
	Name             string `json:"name"`
	CNPJ             string `json:"cnpj"`
	Address          string `json:"address"`
	Technician       string `json:"technician"`
	ExportPath       string `json:"exportPath"`
	GoogleDriveToken string `json:"googleDriveToken"`
}

// Document is the whole persisted state, written and read as one JSON text.
type Document struct {
	Ledger          []ledger.Entry    `json:"ledger"`
	WorkOrders      []workorder.Order `json:"workOrders"`
	Clients         []catalog.Client  `json:"clients"`
	CatalogParts    []catalog.Item    `json:"catalogParts"`
	CatalogServices []catalog.Item    `json:"catalogServices"`
	Settings        Settings          `json:"settings"`
}

// Empty reports whether every tracked collection is empty.
func (d Document) Empty() bool {
	return len(d.Ledger) == 0 &&
		len(d.WorkOrders) == 0 &&
		len(d.Clients) == 0 &&
		len(d.CatalogParts) == 0 &&
		len(d.CatalogServices) == 0
}

// normalize replaces nil collections with empty ones so the document always
// encodes arrays, never null.
func (d Document) normalize() Document {
	if d.Ledger == nil {
		d.Ledger = []ledger.Entry{}
	}

	if d.WorkOrders == nil {
		d.WorkOrders = []workorder.Order{}
	}

	if d.Clients == nil {
		d.Clients = []catalog.Client{}
	}

	if d.CatalogParts == nil {
		d.CatalogParts = []catalog.Item{}
	}

	if d.CatalogServices == nil {
		d.CatalogServices = []catalog.Item{}
	}

	return d
}

func Encode(d Document) (string, error) {
	b, err := json.MarshalIndent(d.normalize(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding document: %w", err)
	}

	return string(b), nil
}

// Decode parses a stored document. Blank content means no data yet and
// yields an empty document.
func Decode(content string) (Document, error) {
	var d Document

	if strings.TrimSpace(content) == "" {
		return d.normalize(), nil
	}

	if err := json.Unmarshal([]byte(content), &d); err != nil {
		return Document{}, fmt.Errorf("decoding document: %w", err)
	}

	for i, o := range d.WorkOrders {
		d.WorkOrders[i] = o.Recalculate()
	}

	return d.normalize(), nil
}
