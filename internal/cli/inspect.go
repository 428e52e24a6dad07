package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/msomdec/contact-book/internal/domain"
)

const defaultDatabasePath = "contact-book.db"

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the persisted state",
		Long: `Print the keys held in the store, or the JSON value of one key.

Without --key every key is listed. With --key the value is pretty-printed.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, databasePath(rootOpts), key)
		},
	}

	cmd.Flags().StringVarP(&key, "key", "k", "", "print the value stored under this key")

	return cmd
}

// databasePath resolves --db, then DATABASE_PATH, then the default file.
func databasePath(opts *RootOptions) string {
	if opts.DatabasePath != "" {
		return opts.DatabasePath
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		return v
	}
	return defaultDatabasePath
}

func runInspect(cmd *cobra.Command, path, key string) error {
	db, err := openDatabase(cmd.Context(), path)
	if err != nil {
		return err
	}
	defer db.Close()

	store := db.Store()
	out := cmd.OutOrStdout()

	if key == "" {
		keys, err := store.Keys(cmd.Context())
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Fprintln(out, k)
		}
		return nil
	}

	raw, err := store.Get(cmd.Context(), key)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("key %q not found", key)
	}
	if err != nil {
		return err
	}
	return writeIndented(out, raw)
}

// writeIndented pretty-prints JSON values and writes anything else verbatim.
func writeIndented(w io.Writer, raw []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		buf.Reset()
		buf.Write(raw)
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}
