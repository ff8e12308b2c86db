package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/MrJamesThe3rd/oficina/internal/bootstrap"
	"github.com/MrJamesThe3rd/oficina/internal/storage/file"
)

type backupCmd struct {
	out string
}

func (*backupCmd) Name() string     { return "backup" }
func (*backupCmd) Synopsis() string { return "write the whole document to a JSON file" }
func (*backupCmd) Usage() string {
	return `oficinactl backup -o <file.json>
`
}

func (p *backupCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.out, "o", "", "Backup file to write.")
}

func (p *backupCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.out == "" {
		fmt.Fprintln(os.Stderr, "-o is required")
		return subcommands.ExitUsageError
	}

	return withRuntime(ctx, func(ctx context.Context, rt *bootstrap.Runtime) error {
		content, err := rt.App.Encode()
		if err != nil {
			return err
		}

		if err := file.New().SaveAtomic(ctx, p.out, content); err != nil {
			return err
		}

		fmt.Printf("backup written to %s\n", p.out)

		return nil
	})
}

type restoreCmd struct {
	in string
}

func (*restoreCmd) Name() string     { return "restore" }
func (*restoreCmd) Synopsis() string { return "replace the whole document with a JSON backup" }
func (*restoreCmd) Usage() string {
	return `oficinactl restore -f <file.json>

  Every collection is replaced by the backup content.
`
}

func (p *restoreCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.in, "f", "", "Backup file to read.")
}

func (p *restoreCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.in == "" {
		fmt.Fprintln(os.Stderr, "-f is required")
		return subcommands.ExitUsageError
	}

	return withRuntime(ctx, func(ctx context.Context, rt *bootstrap.Runtime) error {
		content, err := file.New().Load(ctx, p.in)
		if err != nil {
			return err
		}

		if content == "" {
			return errors.New("backup file not found")
		}

		if err := rt.App.Decode(content); err != nil {
			return fmt.Errorf("reading backup: %w", err)
		}

		rt.Saver.Notify()

		fmt.Printf("restored from %s\n", p.in)

		return nil
	})
}
