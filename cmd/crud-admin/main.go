package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-crud-admin/internal/config"
	"github.com/goliatone/go-crud-admin/internal/logging"
	"github.com/goliatone/go-crud-admin/pkg/di"
)

// app carries the state shared by every subcommand once flags are parsed.
type app struct {
	configPath string
	verbose    bool

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "crud-admin",
		Short: "Generic CRUD admin backend for categories, products, clots and users",
		Long: `crud-admin serves list, create, update, delete and bulk endpoints for the
admin entities over a SQL store, with a read-through cache for list pages.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if a.verbose {
				cfg.Log.Level = "debug"
			}

			logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Development: cfg.Log.Development})
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", os.Getenv("CRUD_ADMIN_CONFIG"), "path to a TOML configuration file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(a.serveCmd(), a.migrateCmd(), a.configCmd())
	return root
}

func (a *app) serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	container, err := di.NewContainer(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer container.Close()

	srv := &http.Server{
		Addr:         a.cfg.Server.Addr,
		Handler:      container.Router(),
		ReadTimeout:  a.cfg.Server.ReadTimeout.Duration,
		WriteTimeout: a.cfg.Server.WriteTimeout.Duration,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", zap.String("addr", srv.Addr), zap.String("driver", a.cfg.Database.Driver))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down", zap.Duration("timeout", a.cfg.Server.ShutdownTimeout.Duration))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout.Duration)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the entity tables and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			cfg.Database.AutoMigrate = false

			container, err := di.NewContainer(cmd.Context(), cfg, a.logger)
			if err != nil {
				return err
			}
			defer container.Close()

			if err := container.Migrate(cmd.Context()); err != nil {
				return err
			}
			a.logger.Info("migration complete", zap.String("driver", cfg.Database.Driver))
			fmt.Fprintln(cmd.OutOrStdout(), "migration complete")
			return nil
		},
	}
}

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Validate the configuration and print the effective values",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := config.Encode(a.cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
