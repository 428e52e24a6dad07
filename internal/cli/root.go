// Package cli wires the contact book's commands: serve runs the HTTP adapter,
// inspect dumps the persisted key-value store.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/msomdec/contact-book/internal/domain"
	"github.com/msomdec/contact-book/internal/repository/sqlite"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	// DatabasePath overrides DATABASE_PATH when set.
	DatabasePath string
}

// NewRootCommand creates the root command for the contact book CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "contact-book",
		Short: "Contact book server",
		Long:  "A per-user contact book with dense ordering, backed by a SQLite key-value store.",
	}

	cmd.PersistentFlags().StringVar(&opts.DatabasePath, "db", "", "SQLite database path (overrides DATABASE_PATH)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))

	return cmd
}

// setupLogger installs the default logger: text on stdout, JSON on stderr.
func setupLogger(level slog.Level) {
	logOpts := &slog.HandlerOptions{Level: level}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)
}

// openDatabase opens the SQLite file at path and brings its schema up to date.
func openDatabase(ctx context.Context, path string) (domain.Database, error) {
	db, err := sqlite.New(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}
