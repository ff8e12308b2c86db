package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/MrJamesThe3rd/oficina/internal/bootstrap"
	"github.com/MrJamesThe3rd/oficina/internal/ledger"
	"github.com/MrJamesThe3rd/oficina/internal/persistence"
)

type exportCmd struct {
	period string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write the financial report of a period as CSV" }
func (*exportCmd) Usage() string {
	return `oficinactl export [-p <YYYY-MM|YYYY>]

  Writes relatorio_financeiro_<period>.csv into EXPORT_DIR.
`
}

func (p *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.period, "p", "", "Competency period, YYYY-MM or YYYY (defaults to the current month).")
}

func (p *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	period, err := periodFlag(p.period)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	return withRuntime(ctx, func(ctx context.Context, rt *bootstrap.Runtime) error {
		doc := rt.App.Snapshot()

		res, err := rt.Export.Export(ctx, doc.Ledger, doc.WorkOrders, period)
		if err != nil {
			return err
		}

		fmt.Println(res.Message)

		return nil
	})
}

type summaryCmd struct {
	period string
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "print revenue, expense and balance of a period" }
func (*summaryCmd) Usage() string {
	return `oficinactl summary [-p <YYYY-MM|YYYY>]
`
}

func (p *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.period, "p", "", "Competency period, YYYY-MM or YYYY (defaults to the current month).")
}

func (p *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	period, err := periodFlag(p.period)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	return withRuntime(ctx, func(_ context.Context, rt *bootstrap.Runtime) error {
		return printJSON(rt.App.Summarize(period))
	})
}

type statusCmd struct{}

func (*statusCmd) Name() string     { return "status" }
func (*statusCmd) Synopsis() string { return "show storage and remote mirror status" }
func (*statusCmd) Usage() string {
	return `oficinactl status
`
}

func (*statusCmd) SetFlags(*flag.FlagSet) {}

func (*statusCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withRuntime(ctx, func(ctx context.Context, rt *bootstrap.Runtime) error {
		out := struct {
			Persistence persistence.Status `json:"persistence"`
			Remote      string             `json:"remote"`
			NextOS      int                `json:"nextOsNumber"`
		}{
			Persistence: rt.Saver.Status(),
			Remote:      "ok",
			NextOS:      rt.App.NextOSNumber(),
		}

		if err := rt.Mirror.Available(ctx); err != nil {
			out.Remote = err.Error()
		}

		return printJSON(out)
	})
}

func periodFlag(s string) (ledger.Period, error) {
	if s == "" {
		return ledger.MonthOf(time.Now()), nil
	}

	return ledger.ParsePeriod(s)
}
