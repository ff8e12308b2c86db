package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/MrJamesThe3rd/oficina/internal/config"
	"github.com/MrJamesThe3rd/oficina/internal/http/auth"
)

type tokenCmd struct {
	subject string
	ttl     time.Duration
}

func (*tokenCmd) Name() string     { return "token" }
func (*tokenCmd) Synopsis() string { return "issue a bearer token for the HTTP API" }
func (*tokenCmd) Usage() string {
	return `oficinactl token [-sub <name>] [-ttl <duration>]

  Signs a token with AUTH_SECRET.
`
}

func (p *tokenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.subject, "sub", "oficina", "Subject recorded as the actor of amendments.")
	f.DurationVar(&p.ttl, "ttl", 24*time.Hour, "Token lifetime.")
}

func (p *tokenCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	if cfg.Auth.Secret == "" {
		fmt.Fprintln(os.Stderr, "AUTH_SECRET is not set")
		return subcommands.ExitFailure
	}

	token, err := auth.NewToken(cfg.Auth.Secret, p.subject, p.ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	fmt.Println(token)

	return subcommands.ExitSuccess
}
