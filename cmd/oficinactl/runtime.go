package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/MrJamesThe3rd/oficina/internal/bootstrap"
	"github.com/MrJamesThe3rd/oficina/internal/config"
	"github.com/MrJamesThe3rd/oficina/internal/mirror"
)

// withRuntime loads the document, runs fn and saves whatever fn changed.
func withRuntime(ctx context.Context, fn func(ctx context.Context, rt *bootstrap.Runtime) error) subcommands.ExitStatus {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	rt, err := bootstrap.New(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	runErr := fn(ctx, rt)

	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Storage.Timeout)
	defer cancel()

	if err := rt.Close(closeCtx); err != nil {
		slog.Error("failed to save", "error", err)
		return subcommands.ExitFailure
	}

	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}

// parseCollections reads a comma separated collection list. Empty means
// every collection.
func parseCollections(s string) ([]mirror.Collection, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var out []mirror.Collection

	for name := range strings.SplitSeq(s, ",") {
		c, err := mirror.ParseCollection(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}

		out = append(out, c)
	}

	return out, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
