// Package cli wires the trainctl command tree onto internal/registry.
// Grounded in the teacher's apps/api/main.go (.env/.env.local loading via
// joho/godotenv) and apps/poller/internal/config (env-var-with-default
// style), adapted to spf13/cobra + spf13/viper for flag/env binding instead
// of the teacher's hand-rolled getEnv helpers.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/you/trainctl/internal/registry"
	"github.com/you/trainctl/internal/store/memstore"
	"github.com/you/trainctl/internal/store/pgstore"
	"github.com/you/trainctl/internal/store/retrystore"
	"github.com/you/trainctl/internal/store/sqlitestore"
)

var cfg = viper.New()

// app bundles the wiring every subcommand needs: the registry plus a closer
// for whatever store backed it.
type app struct {
	reg   *registry.Registry
	close func() error
}

func buildApp() (*app, error) {
	backend := cfg.GetString("store")
	switch backend {
	case "", "memory":
		return &app{reg: registry.New(memstore.New()), close: func() error { return nil }}, nil

	case "sqlite":
		path := cfg.GetString("sqlite-path")
		if path == "" {
			path = "trainctl.db"
		}
		s, err := sqlitestore.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return &app{reg: registry.New(s), close: s.Close}, nil

	case "postgres":
		dsn := cfg.GetString("postgres-dsn")
		if dsn == "" {
			return nil, fmt.Errorf("--postgres-dsn (or TRAINCTL_POSTGRES_DSN) is required for --store=postgres")
		}
		s, err := pgstore.Open(context.Background(), dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		wrapped := retrystore.New(s)
		return &app{reg: registry.New(wrapped), close: func() error { s.Close(); return nil }}, nil

	default:
		return nil, fmt.Errorf("unknown --store %q (want memory, sqlite, or postgres)", backend)
	}
}

// registryFor resolves the app for the current invocation and sets the root
// command's PersistentPostRunE to close its store, keeping subcommands free
// of store-lifecycle concerns.
func registryFor(cmd *cobra.Command) (*registry.Registry, error) {
	a, err := buildApp()
	if err != nil {
		return nil, err
	}
	cmd.Root().PersistentPostRunE = func(*cobra.Command, []string) error { return a.close() }
	return a.reg, nil
}

// NewRootCommand builds the full trainctl command tree.
func NewRootCommand() *cobra.Command {
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	root := &cobra.Command{
		Use:           "trainctl",
		Short:         "Operate a model-railroad operating-session core from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("store", "memory", "backing store: memory, sqlite, or postgres")
	flags.String("sqlite-path", "", "sqlite database path (store=sqlite)")
	flags.String("postgres-dsn", "", "postgres connection string (store=postgres)")
	flags.Bool("no-color", false, "disable colorized output")

	cfg.BindPFlag("store", flags.Lookup("store"))
	cfg.BindPFlag("sqlite-path", flags.Lookup("sqlite-path"))
	cfg.BindPFlag("postgres-dsn", flags.Lookup("postgres-dsn"))
	cfg.BindPFlag("no-color", flags.Lookup("no-color"))
	cfg.SetEnvPrefix("TRAINCTL")
	cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	cfg.AutomaticEnv()

	root.PersistentPreRun = func(*cobra.Command, []string) {
		if cfg.GetBool("no-color") {
			noColor = true
		}
	}

	root.AddCommand(newSessionCommand())
	root.AddCommand(newOrdersCommand())
	root.AddCommand(newTrainsCommand())

	return root
}
