package cli

import (
	"fmt"
	"io"

	"conclave/internal/criteria"
	"conclave/internal/scoring"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var criteriaListQuiet bool
var criteriaCmd = &cobra.Command{
	Use:   "criteria",
	Short: "List the scoring criteria",
	Long: `Inspect the heuristics candidates are scored with.

Every round kind (design, feat, dev) has its own weighted criteria. Scores
are deterministic: the same candidate always receives the same score.

Examples:
  # List all criteria
  conclave criteria list

  # Show one criterion with its weight
  conclave criteria show feat.structural_integrity
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var criteriaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available criteria",
	Long: `List all criteria registered in this build.

Criteria are sorted by ID ("<kind>.<name>").

Examples:
  conclave criteria list

Output:
  A vertical list of criteria:
    ----------------------------------------
    CRITERION: {ID} (weight {WEIGHT})
    ----------------------------------------
    {TITLE}
    {DESCRIPTION}
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, c := range criteria.List() {
			if criteriaListQuiet {
				fmt.Fprintln(cmd.OutOrStdout(), c.ID())
			} else {
				printCriterion(cmd.OutOrStdout(), c)
			}
		}
		return nil
	},
}

var criteriaShowCmd = &cobra.Command{
	Use:   "show [criterion-id]",
	Short: "Show details of a specific criterion",
	Long: `Show details of a specific criterion by its ID.

Examples:
  conclave criteria show dev.code_quality
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cs, err := criteria.Resolve(args[0])
		if err != nil {
			return err
		}
		if len(cs) == 0 {
			return fmt.Errorf("criterion not found: %s", args[0])
		}
		printCriterion(cmd.OutOrStdout(), cs[0])
		return nil
	},
}

func printCriterion(w io.Writer, c criteria.Criterion) {
	bold := color.New(color.Bold)
	fmt.Fprintln(w, "----------------------------------------")
	if weight, ok := weightOf(c); ok {
		bold.Fprintf(w, "CRITERION: %s (weight %.2f)\n", c.ID(), weight)
	} else {
		bold.Fprintf(w, "CRITERION: %s\n", c.ID())
	}
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintln(w, c.Title())
	fmt.Fprintln(w, c.Description())
	fmt.Fprintln(w)
}

func weightOf(c criteria.Criterion) (float64, bool) {
	table, ok := scoring.Weights(c.Kind())
	if !ok {
		return 0, false
	}
	for _, w := range table {
		if w.Criterion == c.Name() {
			return w.Weight, true
		}
	}
	return 0, false
}

func init() {
	rootCmd.AddCommand(criteriaCmd)
	criteriaCmd.AddCommand(criteriaListCmd)
	criteriaListCmd.Flags().BoolVarP(&criteriaListQuiet, "quiet", "q", false, "Only print criterion IDs")
	criteriaCmd.AddCommand(criteriaShowCmd)
}
