package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/MrJamesThe3rd/oficina/internal/bootstrap"
	"github.com/MrJamesThe3rd/oficina/internal/importer"
	"github.com/MrJamesThe3rd/oficina/internal/money"
	"github.com/MrJamesThe3rd/oficina/internal/workorder"
	"github.com/MrJamesThe3rd/oficina/internal/workshop"
)

type importCmd struct {
	file  string
	force bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "book the movements of a bank statement CSV" }
func (*importCmd) Usage() string {
	return `oficinactl import -f <statement.csv> [-force]

  Detects the statement layout, books every movement and lists the ones
  skipped because an identical entry is already in the ledger.
`
}

func (p *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.file, "f", "", "Statement CSV to import.")
	f.BoolVar(&p.force, "force", false, "Book movements even when they look already booked.")
}

func (p *importCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.file == "" {
		fmt.Fprintln(os.Stderr, "-f is required")
		return subcommands.ExitUsageError
	}

	return withRuntime(ctx, func(ctx context.Context, rt *bootstrap.Runtime) error {
		f, err := os.Open(p.file)
		if err != nil {
			return err
		}
		defer f.Close()

		params, err := rt.Import.Import(importer.FormatStatement, f)
		if err != nil {
			return err
		}

		res, err := rt.App.Dispatch(ctx, workorder.Answers{}, workshop.ImportEntries{Params: params, Force: p.force})
		if err != nil {
			return err
		}

		fmt.Printf("%d entries booked\n", len(res.Entries))

		for _, c := range res.Conflicts {
			fmt.Printf("skipped %s %s %s (already booked as %s)\n",
				c.Incoming.Date.Format("02/01/2006"), money.Format(c.Incoming.Amount), c.Incoming.Description, c.Existing.ID[:min(8, len(c.Existing.ID))])
		}

		return nil
	})
}
