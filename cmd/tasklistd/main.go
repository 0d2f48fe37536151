// Tasklistd serves the tasklist web application.
//
// This binary starts the HTTP server together with the weekly backup
// scheduler. Configuration is read from an optional YAML file and then from
// environment variables. See internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	SESSION_SECRET=... tasklistd
//
//	# Run one backup now and exit
//	MAIL_USERNAME=... MAIL_PASSWORD=... MAIL_DESTINATION=... tasklistd backup
//
//	# Show version information
//	tasklistd version
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/tasklist/internal/backup"
	"github.com/fyrsmithlabs/tasklist/internal/config"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// configPath is the --config flag value.
var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tasklistd",
		Short: "Per-user task list web server",
		Long: `tasklistd serves a multi-user task list over HTTP and mails a weekly
backup of its SQLite database.

Running tasklistd without a subcommand is the same as "tasklistd serve".`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/tasklist/config.yaml)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server and backup scheduler",
		RunE:  runServe,
	})
	root.AddCommand(&cobra.Command{
		Use:   "backup",
		Short: "Run one backup and exit",
		Long: `Archive the database, mail it to MAIL_DESTINATION and exit.

The command exits non-zero when the backup did not succeed.`,
		RunE: runBackup,
	})
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			printVersion(cmd.OutOrStdout())
		},
	})

	return root
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "tasklistd by Fyrsmith Labs\n")
	fmt.Fprintf(w, "Version:    %s\n", version)
	fmt.Fprintf(w, "Commit:     %s\n", gitCommit)
	fmt.Fprintf(w, "Build Date: %s\n", buildDate)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	a, err := newApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(context.Background()); err != nil {
			a.logger.Warn(context.Background(), "shutdown incomplete", zap.Error(err))
		}
	}()

	if err := a.initServer(ctx); err != nil {
		return err
	}
	return a.serve(ctx)
}

func runBackup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	a, err := newApp(cmd.Context(), cfg, nil)
	if err != nil {
		return err
	}
	defer func() { _ = a.close(context.Background()) }()

	out := a.job.Run(cmd.Context(), backup.TriggerManual)
	fmt.Fprintln(cmd.OutOrStdout(), out.String())
	if !out.OK() {
		return fmt.Errorf("backup %s: %s", out.Status, out.Reason)
	}
	return nil
}
