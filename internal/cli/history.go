package cli

import (
	"fmt"
	"io"
	"strings"

	"conclave/internal/criteria"
	"conclave/internal/store"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [kind]",
	Short: "List archived rounds, newest first",
	Long: `List the rounds whose non-selected candidates were archived.

Kind is one of design, feat or dev; without it every kind is listed.

Examples:
  conclave history
  conclave history feat --limit 5
`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := ""
		if len(args) == 1 {
			kind = strings.ToLower(args[0])
			if !knownKind(kind) {
				return fmt.Errorf("unknown kind %q (must be one of: design, feat, dev)", args[0])
			}
		}
		entries, err := store.New(cfg.Storage.Base, nil).ArchiveHistory(kind)
		if err != nil {
			return fmt.Errorf("read archive: %w", err)
		}
		if historyLimit > 0 && len(entries) > historyLimit {
			entries = entries[:historyLimit]
		}
		printHistory(cmd.OutOrStdout(), entries)
		return nil
	},
}

func knownKind(kind string) bool {
	for _, k := range criteria.Kinds() {
		if string(k) == kind {
			return true
		}
	}
	return false
}

func printHistory(w io.Writer, entries []store.ArchiveEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No archived rounds.")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %-6s  %2d candidates  %s\n", e.Timestamp, e.Kind, e.CandidateCount, e.Path)
	}
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Show at most this many rounds (0 = all)")
}
