// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/danielhkuo/hive-decide/cliparse"
	"github.com/danielhkuo/hive-decide/db"
	"github.com/danielhkuo/hive-decide/decision"
	"github.com/danielhkuo/hive-decide/middleware"
	"github.com/danielhkuo/hive-decide/router"
	"github.com/danielhkuo/hive-decide/sweeper"
)

const shutdownTimeout = 10 * time.Second

var (
	// flagCfg holds raw flag values; cfg is the resolved configuration.
	flagCfg *cliparse.Config
	cfg     cliparse.Config

	rootCmd = &cobra.Command{
		Use:   "hive-decide",
		Short: "Quadratic-voting decision rounds for hives",
		Long: `hive-decide runs the decision phase of a hive conversation: admins
turn analysed statements into proposals, members spend a credit budget
on quadratic votes, and closed rounds publish ranked results.`,
		SilenceUsage:      true,
		PersistentPreRunE: resolveConfig,
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the deadline sweeper",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		Args:  cobra.NoArgs,
		RunE:  runMigrate,
	}
	finalizeCmd = &cobra.Command{
		Use:   "finalize [round-id]",
		Short: "Close a round and print its result",
		Long:  `Closes the round if it is still open and prints the result snapshot, generating it if a previous close never finished.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runFinalize,
	}
	sweepCmd = &cobra.Command{
		Use:   "sweep",
		Short: "Finalize overdue and stuck rounds once and exit",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
)

func init() {
	flagCfg = cliparse.BindFlags(rootCmd.PersistentFlags())
	rootCmd.AddCommand(serveCmd, migrateCmd, finalizeCmd, sweepCmd)
}

func resolveConfig(cmd *cobra.Command, args []string) error {
	resolved, err := cliparse.Resolve(cmd.Flags(), *flagCfg)
	if err != nil {
		return err
	}
	cfg = resolved

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

// newLogger writes text to a terminal and JSON otherwise.
func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
}

// openDB connects, verifies the connection and ensures the schema exists.
func openDB(ctx context.Context) (*sql.DB, db.Dialect, error) {
	dialect, err := db.ParseDialect(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return nil, "", err
	}

	conn, err := db.Open(dialect, cfg.DatabaseURL)
	if err != nil {
		return nil, "", fmt.Errorf("database connection failed: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, "", fmt.Errorf("database ping failed: %w", err)
	}

	if err := db.CreateSchema(ctx, conn, dialect); err != nil {
		conn.Close()
		return nil, "", fmt.Errorf("schema creation failed: %w", err)
	}
	slog.Info("Database schema ready", "dialect", dialect)

	return conn, dialect, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.RequireUserSecret(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, dialect, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	svc, machine := decision.Wire(conn, dialect, cfg, slog.Default())
	mux := router.NewRouter(conn, svc, cfg)

	server := http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go sweeper.New(conn, machine, cfg.SweepInterval, cfg.ResultWait, slog.Default()).Run(ctx)

	go func() {
		// Wait for Ctrl-C or SIGTERM
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
			server.Close()
		}
	}()

	slog.Info("Listening", "port", cfg.Port, "credits", cfg.CreditBudget)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server closed", "error", err)
		return err
	}
	slog.Info("Server closed")
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	conn, _, err := openDB(cmd.Context())
	if err != nil {
		return err
	}
	return conn.Close()
}

func runFinalize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	conn, dialect, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, machine := decision.Wire(conn, dialect, cfg, slog.Default())
	result, err := machine.Finalize(ctx, args[0])
	if err != nil {
		return fmt.Errorf("finalize %s: %w", args[0], err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	conn, dialect, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, machine := decision.Wire(conn, dialect, cfg, slog.Default())
	n, err := sweeper.New(conn, machine, 0, cfg.ResultWait, slog.Default()).Sweep(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "finalized %d rounds\n", n)
	return nil
}
