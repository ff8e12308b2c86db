package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/MrJamesThe3rd/oficina/internal/bootstrap"
	"github.com/MrJamesThe3rd/oficina/internal/mirror"
)

type syncCmd struct {
	direction   mirror.Direction
	collections string
}

func (p *syncCmd) Name() string { return "sync-" + string(p.direction) }
func (p *syncCmd) Synopsis() string {
	if p.direction == mirror.Up {
		return "overwrite remote collections with the local ones"
	}

	return "overwrite local collections with the remote ones"
}
func (p *syncCmd) Usage() string {
	return fmt.Sprintf(`oficinactl %s [-c <collections>]

  Syncs each collection independently and reports per collection.
  Collections: ledger, workOrders, clients, catalogParts, catalogServices.
`, p.Name())
}

func (p *syncCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.collections, "c", "", "Comma separated collections to sync (defaults to all).")
}

func (p *syncCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	collections, err := parseCollections(p.collections)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	return withRuntime(ctx, func(ctx context.Context, rt *bootstrap.Runtime) error {
		var report mirror.Report

		if p.direction == mirror.Up {
			report, err = rt.Mirror.SyncUp(ctx, collections...)
		} else {
			report, err = rt.Mirror.SyncDown(ctx, printProgress, collections...)
		}

		if err != nil {
			return err
		}

		printReport(report)

		return report.Err()
	})
}

type fullSyncCmd struct{}

func (*fullSyncCmd) Name() string     { return "full-sync" }
func (*fullSyncCmd) Synopsis() string { return "pull every collection from the remote" }
func (*fullSyncCmd) Usage() string {
	return `oficinactl full-sync

  Replaces every local collection with its remote snapshot. Never pushes.
`
}

func (*fullSyncCmd) SetFlags(*flag.FlagSet) {}

func (*fullSyncCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withRuntime(ctx, func(ctx context.Context, rt *bootstrap.Runtime) error {
		report, err := rt.Mirror.FullSync(ctx, printProgress)
		if err != nil {
			return err
		}

		printReport(report)

		return report.Err()
	})
}

func printProgress(c mirror.Collection, fetched int) {
	fmt.Fprintf(os.Stderr, "%s: %d fetched\n", c, fetched)
}

func printReport(r mirror.Report) {
	for _, res := range r.Results {
		if res.Err != nil {
			fmt.Printf("%-16s FAILED  %v\n", res.Collection, res.Err)
			continue
		}

		fmt.Printf("%-16s ok      %d records\n", res.Collection, res.Records)
	}
}
