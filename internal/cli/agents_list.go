package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"conclave/internal/registry"
	"conclave/internal/store"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	agentsListQuiet      bool
	agentsListCapability string
	agentsListLanguage   string
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Inspect the agent registry",
	Long: `Inspect the agents found in --agents-dir.

Agents are markdown files with optional YAML frontmatter (name, description,
model, tools, capabilities, language). Capabilities and language affinity are
inferred from the description when not declared.

Examples:
  conclave agents list
  conclave agents list --capability implementation --language go
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var agentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered agents with their health",
	Long: `List registered agents.

Without --capability agents are sorted by name. With --capability they are
listed in selection order: success rate descending, then average latency.
--language narrows the list to agents with that affinity when any exist.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st := store.New(cfg.Storage.Base, nil)
		health, err := registry.LoadHealth(filepath.Join(st.StateDir(), healthFile))
		if err != nil {
			return err
		}
		reg := registry.New(cfg.Orchestration.AgentsDir, health, nil)
		if err := reg.Scan(true); err != nil {
			return err
		}

		agents := reg.Agents()
		if agentsListCapability != "" {
			agents = reg.BestAgents(agentsListCapability, agentsListLanguage, 0)
		}

		w := cmd.OutOrStdout()
		for _, a := range agents {
			if agentsListQuiet {
				fmt.Fprintln(w, a.Name)
				continue
			}
			h, ok := health.Get(a.Name)
			printAgent(w, a, h, ok)
		}
		if !agentsListQuiet {
			printStats(w, reg.Stats())
		}
		return nil
	},
}

func printAgent(w io.Writer, a registry.Agent, h registry.AgentHealth, known bool) {
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)

	bold.Fprintf(w, "%s", a.Name)
	if a.Language != "" {
		fmt.Fprintf(w, " [%s]", a.Language)
	}
	fmt.Fprintln(w)
	if a.Description != "" {
		fmt.Fprintf(w, "  %s\n", a.Description)
	}
	caps := "none"
	if len(a.Capabilities) > 0 {
		caps = strings.Join(a.Capabilities, ", ")
	}
	fmt.Fprintf(w, "  Capabilities: %s\n", caps)
	if known {
		fmt.Fprintf(w, "  Health:       %.0f%% of %d runs, %.1fs avg\n", h.SuccessRate*100, h.Total, h.AvgLatency)
		if n := len(h.RecentFailures); n > 0 {
			faint.Fprintf(w, "  Last failure: %s\n", h.RecentFailures[n-1])
		}
	} else {
		faint.Fprintln(w, "  Health:       no runs yet")
	}
	fmt.Fprintln(w)
}

func printStats(w io.Writer, s registry.Stats) {
	fmt.Fprintf(w, "%d agents", s.Total)
	if len(s.ByCapability) > 0 {
		fmt.Fprintf(w, " (%s)", countList(s.ByCapability))
	}
	fmt.Fprintln(w)
}

func countList(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %d", k, m[k])
	}
	return strings.Join(parts, ", ")
}

func init() {
	rootCmd.AddCommand(agentsCmd)
	agentsCmd.AddCommand(agentsListCmd)
	agentsListCmd.Flags().BoolVarP(&agentsListQuiet, "quiet", "q", false, "Only print agent names")
	agentsListCmd.Flags().StringVar(&agentsListCapability, "capability", "", "Only agents with this capability, in selection order")
	agentsListCmd.Flags().StringVar(&agentsListLanguage, "language", "", "Prefer agents with this language affinity (with --capability)")
}
