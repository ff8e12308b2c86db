// Package bootstrap wires the application state, its persistence and the
// optional remote mirror from configuration. Every binary starts here.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MrJamesThe3rd/oficina/internal/config"
	"github.com/MrJamesThe3rd/oficina/internal/database"
	"github.com/MrJamesThe3rd/oficina/internal/export"
	"github.com/MrJamesThe3rd/oficina/internal/importer"
	"github.com/MrJamesThe3rd/oficina/internal/ledger"
	"github.com/MrJamesThe3rd/oficina/internal/mirror"
	"github.com/MrJamesThe3rd/oficina/internal/mirror/dynamo"
	"github.com/MrJamesThe3rd/oficina/internal/mirror/memory"
	"github.com/MrJamesThe3rd/oficina/internal/mirror/postgres"
	"github.com/MrJamesThe3rd/oficina/internal/persistence"
	"github.com/MrJamesThe3rd/oficina/internal/storage/file"
	"github.com/MrJamesThe3rd/oficina/internal/storage/sqlite"
	"github.com/MrJamesThe3rd/oficina/internal/workorder"
	"github.com/MrJamesThe3rd/oficina/internal/workshop"
)

type Runtime struct {
	App    *workshop.App
	Saver  *persistence.Coordinator
	Mirror *mirror.Service
	Export *export.Service
	Import *importer.Service

	closers []func() error
}

// New builds the runtime and loads the document. A failed load is logged
// and reported through the saver status; the runtime is still usable.
func New(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	rt := &Runtime{}

	ledgerSvc := ledger.NewService()
	rt.App = workshop.New(ledgerSvc, workorder.NewEngine(ledgerSvc))

	files := file.New()

	var store persistence.Storage = files

	if cfg.Storage.Driver == "sqlite" {
		db, err := sqlite.New(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite storage: %w", err)
		}

		store = db
		rt.closers = append(rt.closers, db.Close)
	}

	rt.Saver = persistence.NewCoordinator(store, rt.App, cfg.Locator(), persistence.Options{
		Debounce: cfg.Storage.Debounce,
		Grace:    cfg.Storage.Grace,
		Timeout:  cfg.Storage.Timeout,
	})
	rt.App.OnChange(rt.Saver.Notify)

	remote, err := rt.remote(ctx, cfg)
	if err != nil {
		rt.close()
		return nil, err
	}

	rt.Mirror = mirror.NewService(remote, rt.App, cfg.Remote.PageSize)
	rt.Export = export.NewService(files, cfg.Export.Dir)
	rt.Import = importer.NewService()

	if err := rt.Saver.Load(ctx); err != nil {
		slog.Warn("starting without stored data", "locator", cfg.Locator(), "error", err)
	}

	return rt, nil
}

func (rt *Runtime) remote(ctx context.Context, cfg *config.Config) (mirror.Remote, error) {
	switch cfg.Remote.Backend {
	case "":
		return nil, nil
	case "memory":
		return memory.New(), nil
	case "postgres":
		db, err := database.New(ctx, cfg.ConnectionString())
		if err != nil {
			return nil, err
		}

		rt.closers = append(rt.closers, db.Close)

		r := postgres.New(db)
		if err := r.Migrate(ctx); err != nil {
			return nil, err
		}

		return r, nil
	case "dynamodb":
		client, err := database.NewDynamo(ctx, database.DynamoOptions{
			Region:          cfg.Dynamo.Region,
			Endpoint:        cfg.Dynamo.Endpoint,
			AccessKeyID:     cfg.Dynamo.AccessKeyID,
			SecretAccessKey: cfg.Dynamo.SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}

		r := dynamo.New(client, cfg.Dynamo.Table)
		if err := r.EnsureTable(ctx); err != nil {
			// The mirror reports itself unavailable until the table exists.
			slog.Warn("dynamodb table not ready", "table", cfg.Dynamo.Table, "error", err)
		}

		return r, nil
	default:
		return nil, fmt.Errorf("unknown remote backend %q", cfg.Remote.Backend)
	}
}

// Close flushes pending changes and releases every resource.
func (rt *Runtime) Close(ctx context.Context) error {
	err := rt.Saver.Close(ctx)

	return errors.Join(err, rt.close())
}

func (rt *Runtime) close() error {
	var errs []error

	for i := len(rt.closers) - 1; i >= 0; i-- {
		errs = append(errs, rt.closers[i]())
	}

	return errors.Join(errs...)
}
