package workshop

import (
	"context"
	"fmt"

	"github.com/MrJamesThe3rd/oficina/internal/catalog"
	"github.com/MrJamesThe3rd/oficina/internal/ledger"
	"github.com/MrJamesThe3rd/oficina/internal/mirror"
	"github.com/MrJamesThe3rd/oficina/internal/workorder"
)

// Records exports one collection as mirror records. Catalog items are keyed
// by their lowercase description, everything else by id.
func (a *App) Records(_ context.Context, c mirror.Collection) ([]mirror.Record, error) {
	doc := a.Snapshot()

	switch c {
	case mirror.Ledger:
		return toRecords(doc.Ledger, func(e ledger.Entry) string { return e.ID })
	case mirror.WorkOrders:
		return toRecords(doc.WorkOrders, func(o workorder.Order) string { return o.ID })
	case mirror.Clients:
		return toRecords(doc.Clients, func(cl catalog.Client) string { return cl.ID })
	case mirror.CatalogParts:
		return toRecords(doc.CatalogParts, func(it catalog.Item) string { return catalog.Key(it.Description) })
	case mirror.CatalogServices:
		return toRecords(doc.CatalogServices, func(it catalog.Item) string { return catalog.Key(it.Description) })
	default:
		return nil, fmt.Errorf("unknown collection %q", c)
	}
}

// ReplaceRecords overwrites one collection through the command path so the
// change is persisted like any other.
func (a *App) ReplaceRecords(ctx context.Context, c mirror.Collection, records []mirror.Record) error {
	_, err := a.Dispatch(ctx, workorder.Answers{}, ReplaceCollection{Collection: c, Records: records})
	return err
}

func toRecords[T any](values []T, key func(T) string) ([]mirror.Record, error) {
	out := make([]mirror.Record, 0, len(values))

	for _, v := range values {
		r, err := mirror.NewRecord(key(v), v)
		if err != nil {
			return nil, err
		}

		out = append(out, r)
	}

	return out, nil
}

func (a *App) replaceCollection(c ReplaceCollection) (Result, error) {
	switch c.Collection {
	case mirror.Ledger:
		v, err := mirror.Decode[ledger.Entry](c.Records)
		if err != nil {
			return Result{}, err
		}

		a.doc.Ledger = v
		a.doc.WorkOrders = unlinkMissing(a.doc.WorkOrders, v)
	case mirror.WorkOrders:
		v, err := mirror.Decode[workorder.Order](c.Records)
		if err != nil {
			return Result{}, err
		}

		for i, o := range v {
			v[i] = o.Recalculate()
		}

		a.doc.WorkOrders = unlinkMissing(v, a.doc.Ledger)
	case mirror.Clients:
		v, err := mirror.Decode[catalog.Client](c.Records)
		if err != nil {
			return Result{}, err
		}

		a.doc.Clients = v
		a.reindexClients()
	case mirror.CatalogParts:
		v, err := mirror.Decode[catalog.Item](c.Records)
		if err != nil {
			return Result{}, err
		}

		a.doc.CatalogParts = v
		a.reindexCatalog()
	case mirror.CatalogServices:
		v, err := mirror.Decode[catalog.Item](c.Records)
		if err != nil {
			return Result{}, err
		}

		a.doc.CatalogServices = v
		a.reindexCatalog()
	default:
		return Result{}, fmt.Errorf("unknown collection %q", c.Collection)
	}

	return Result{Changed: true}, nil
}
