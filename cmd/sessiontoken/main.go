// Command sessiontoken mints a signed session token for local testing.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/sheikh-saqib/bookkeeping-approvals/internal/config"
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models"
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var (
		actor string
		role  string
		org   string
		name  string
	)
	flags := pflag.NewFlagSet("sessiontoken", pflag.ExitOnError)
	flags.StringVar(&actor, "actor", "", "actor id (token subject)")
	flags.StringVar(&role, "role", "", "optional role claim: owner or delegate")
	flags.StringVar(&org, "org", "", "organization key for a delegate role claim")
	flags.StringVar(&name, "name", "", "display name")
	flags.StringVar(&cfg.SessionSecret, "secret", cfg.SessionSecret, "signing secret")
	flags.DurationVar(&cfg.SessionTTL, "ttl", cfg.SessionTTL, "token lifetime")
	_ = flags.Parse(os.Args[1:])

	if actor == "" {
		fmt.Fprintln(os.Stderr, "--actor is required")
		os.Exit(2)
	}
	if role != "" && !models.Role(role).Valid() {
		fmt.Fprintf(os.Stderr, "unknown role %q\n", role)
		os.Exit(2)
	}

	sessions, err := session.NewManager(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	token, err := sessions.Issue(actor, models.Role(role), org, name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
