package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/todos/internal/config"
)

// DatabaseOptions holds flags for commands that open the database directly.
type DatabaseOptions struct {
	*RootOptions
	Database string
}

// BootstrapResult is the payload of the bootstrap command.
type BootstrapResult struct {
	Dialect string `json:"dialect"`
}

// NewBootstrapCommand creates the bootstrap command.
func NewBootstrapCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DatabaseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the database schema if missing",
		Long: `Open the database and create the lists and todos tables if they do not
exist. Safe to run against an existing database; rows are never touched.

Example:
  todos bootstrap
  todos bootstrap --db ./todos.db
  todos bootstrap --db postgres://todos@localhost/todos?sslmode=disable`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBootstrap(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "database DSN or SQLite path (overrides DATABASE_URL)")

	return cmd
}

func runBootstrap(opts *DatabaseOptions, cmd *cobra.Command) error {
	cfg, err := opts.databaseConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	result := BootstrapResult{Dialect: string(st.Dialect())}
	return opts.formatter(cmd).Success(result, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Schema ready (%s)\n", result.Dialect)
		return err
	})
}

// databaseConfig resolves config for commands that need the database
// regardless of the configured backend.
func (o *DatabaseOptions) databaseConfig() (config.Config, error) {
	cfg, err := o.loadConfig(map[string]string{
		config.EnvVarDatabaseURL: o.Database,
		config.EnvVarBackend:     string(config.BackendDatabase),
	})
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
