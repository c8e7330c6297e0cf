package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/sessions"
	"github.com/spf13/cobra"

	"github.com/roach88/todos/internal/config"
	"github.com/roach88/todos/internal/ident"
	"github.com/roach88/todos/internal/store/sqlstore"
	"github.com/roach88/todos/internal/web"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr    string
	Backend string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web interface",
		Long: `Serve the todo lists over HTTP until interrupted.

The backend is chosen once at startup. The session backend keeps each
visitor's lists in server-side session files under TODOS_SESSION_DIR; the
database backend opens DATABASE_URL
(bootstrapping the schema) and shares it between visitors.

Example:
  todos serve
  todos serve --addr :8000 --backend database
  TODOS_ENV=production DATABASE_URL=postgres://... todos serve`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides TODOS_ADDR)")
	cmd.Flags().StringVar(&opts.Backend, "backend", "", "storage backend: session|database (overrides TODOS_BACKEND)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig(map[string]string{
		config.EnvVarAddr:    opts.Addr,
		config.EnvVarBackend: opts.Backend,
	})
	if err != nil {
		return err
	}
	if cfg.GeneratedSecret {
		slog.Warn("SESSION_SECRET not set; using a random secret, sessions end on restart")
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeBackend(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	sessionStore, err := openSessionStore(cfg)
	if err != nil {
		return err
	}

	srv, err := web.NewServer(backend, sessionStore)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create server", err)
	}

	slog.Info("server starting", "addr", cfg.Addr, "env", cfg.Env, "backend", cfg.Backend)
	fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s (%s backend). Press Ctrl-C to stop.\n", cfg.Addr, cfg.Backend)

	if err := web.ListenAndServe(ctx, cfg.Addr, srv); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// openBackend builds the configured web backend. The returned func releases
// it.
func openBackend(ctx context.Context, cfg config.Config) (web.Backend, func() error, error) {
	if cfg.Backend == config.BackendSession {
		return web.SessionBackend{}, func() error { return nil }, nil
	}

	st, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return web.DatabaseBackend{Store: st}, st.Close, nil
}

// openSessionStore keeps session values on disk for the session backend,
// whose state outgrows a cookie. The database backend's sessions hold only
// flashes and live in the cookie.
func openSessionStore(cfg config.Config) (sessions.Store, error) {
	if cfg.Backend != config.BackendSession {
		return web.NewCookieStore(cfg.SessionSecret, cfg.IsProduction()), nil
	}
	fs, err := web.NewFilesystemStore(cfg.SessionDir, cfg.SessionSecret, cfg.IsProduction())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open session store", err)
	}
	slog.Info("session files", "dir", cfg.SessionDir)
	return fs, nil
}

// openDatabase opens and bootstraps the database store.
func openDatabase(ctx context.Context, dsn string) (*sqlstore.Store, error) {
	dialect, _, _ := sqlstore.ParseDSN(dsn)
	slog.Info("opening database", "dialect", dialect)

	st, err := sqlstore.Open(ctx, dsn, ident.UUIDv7Generator{})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	slog.Info("database ready", "dialect", st.Dialect())
	return st, nil
}
