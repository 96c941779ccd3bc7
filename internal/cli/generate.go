package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"conclave/internal/command"
	"conclave/internal/config"
	"conclave/internal/criteria"
	"conclave/internal/engine"
	"conclave/internal/logging"
	"conclave/internal/output"
	"conclave/internal/registry"
	"conclave/internal/store"
	"conclave/internal/workflow"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// healthFile is the health store name under the storage state directory.
const healthFile = "health.json"

const roundOutputHelp = `
Output:
	The console sink prints one line per finished worker and one per ranked
	candidate. Structured outputs can be written via:
	- --out / --out-format: write an aggregate JSON array or NDJSON stream to a file
	- --emit: write an additional structured stream to stdout (json or ndjson)
	- --report: write a Markdown ranking report
	- --no-console: suppress the console sink (use with --emit/--out for machine output)

	NDJSON mode emits one JSON object per line. Objects are lifecycle Events with a
	"type" field (round.started, task.finished, candidate.ranked, round.finished).

	On success a summary of the selected candidate is printed (to stderr when
	--emit is set).

Exit codes:
	0 = a candidate was selected and saved
	1 = the round failed (no successful candidate, invalid input or configuration)
`

var designCmd = &cobra.Command{
	Use:   "design [language] <description>",
	Short: "Generate the application design",
	Long: `Generate the application design from a short description.

Agents with the architecture capability compete; the best document is saved
to <storage>/plan/app.md with its metadata. A leading language argument
(go, python, rust, javascript, typescript, java, csharp, cpp, c) steers the
agents and is recorded for later feat and dev rounds.

Examples:
	conclave design go pomodoro timer with a REST API
	conclave design "note taking app with offline sync"
` + roundOutputHelp,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := command.ParseDesign(splitArgs(args))
		if err != nil {
			return err
		}
		return runRound(cmd, c)
	},
}

var featCmd = &cobra.Command{
	Use:   "feat <section_id>",
	Short: "Generate the feature specification for one design section",
	Long: `Generate the feature specification for one section of app.md.

The section is matched by number ("2", "2.1") or by title. Its direct
subsections become the required structure of the specification; a candidate
that drops one ranks below every candidate that keeps them all.

Examples:
	conclave feat 2
	conclave feat "user authentication"
` + roundOutputHelp,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := command.ParseFeat(args)
		if err != nil {
			return err
		}
		return runRound(cmd, c)
	},
}

var devCmd = &cobra.Command{
	Use:   "dev [language] feat <section_id[,section_id...]>",
	Short: "Generate code from feature specifications",
	Long: `Generate code from one or more feature specifications.

The specifications are copied into every worker's sandbox; files the worker
creates there form its candidate. The best bundle is saved under
<storage>/src/generated_<YYYYMMDD_HHMMSS>/.

Without a language argument the language recorded with the first feature
specification is used, then the one recorded with the design.

Examples:
	conclave dev go feat 2,3
	conclave dev feat 2.1
` + roundOutputHelp,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := command.ParseDev(splitArgs(args))
		if err != nil {
			return err
		}
		return runRound(cmd, c)
	},
}

var runCmd = &cobra.Command{
	Use:   "run <command line>",
	Short: "Run a slash command line such as \"/design go pomodoro timer\"",
	Long: `Parse and run a command line in chat form.

Supported lines:
	/design [language] <description>
	/feat <section_id>
	/dev [language] feat <section_id[,section_id...]>

Examples:
	conclave run "/feat 2"
	conclave run /dev go feat 1,2
` + roundOutputHelp,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := command.Parse(strings.Join(args, " "))
		if err != nil {
			return err
		}
		return runRound(cmd, c)
	},
}

// splitArgs re-splits arguments so a quoted description behaves like
// separate words.
func splitArgs(args []string) []string {
	var out []string
	for _, a := range args {
		out = append(out, strings.Fields(a)...)
	}
	return out
}

// runRound wires the pipeline for one command and prints the selection.
func runRound(cmd *cobra.Command, c command.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, err := logging.NewZapLogger(cfg.Runtime.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	st := store.New(cfg.Storage.Base, log)
	health, err := registry.LoadHealth(filepath.Join(st.StateDir(), healthFile))
	if err != nil {
		return err
	}
	reg := registry.New(cfg.Orchestration.AgentsDir, health, log)

	planner, err := workflow.NewPlanner(st, reg, workflow.Options{
		Parallel: cfg.Orchestration.Parallel(),
		Timeout:  cfg.Worker.Timeout,
		Agents:   cfg.Orchestration.Agents,
		Logger:   log,
	})
	if err != nil {
		return err
	}
	round, err := planner.Plan(c)
	if err != nil {
		return err
	}

	ctrl, sinks, err := newController(cfg, st, health, log, cmd.ErrOrStderr(), cmd.OutOrStdout())
	if err != nil {
		return err
	}

	sel, runErr := ctrl.Run(ctx, round)
	if err := health.Save(); err != nil {
		log.Warn("saving agent health failed", "error", err)
	}
	if err := sinks.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to close output sinks: %w", err)
	}
	if runErr != nil {
		return runErr
	}

	w := cmd.OutOrStdout()
	if len(cfg.Output.Emit) > 0 {
		w = cmd.ErrOrStderr()
	}
	printSummary(w, round, sel)
	return nil
}

func newController(c *config.Config, st *store.Store, health *registry.Health, log logging.Logger, console, stream io.Writer) (*engine.Controller, *output.Manager, error) {
	runner := engine.NewProcessRunner(c.Worker.Command, c.Worker.Stdin)
	runner.KillGrace = c.Worker.KillGrace
	sandbox, err := engine.NewSandbox(runner, "", log)
	if err != nil {
		return nil, nil, err
	}
	dispatcher, err := engine.NewDispatcher(sandbox, c.Orchestration.MaxConcurrency)
	if err != nil {
		return nil, nil, err
	}

	sinks, err := output.Build(output.Options{
		NoConsole:           c.Output.NoConsole,
		ConsoleFormat:       c.Output.ConsoleFormat,
		ConsoleFilterStatus: c.Output.ConsoleFilterStatus,
		Emit:                c.Output.Emit,
		Out:                 c.Output.Out,
		OutFormat:           c.Output.OutFormat,
		Report:              c.Output.Report,
		Console:             console,
		Stream:              stream,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize output: %w", err)
	}

	ctrl, err := engine.NewController(dispatcher, engine.ControllerOptions{
		Store:         st,
		Archive:       st,
		Health:        health,
		Events:        sinks,
		Logger:        log,
		MinimumAgents: c.Orchestration.MinimumAgents,
	})
	if err != nil {
		_ = sinks.Close()
		return nil, nil, err
	}
	return ctrl, sinks, nil
}

func printSummary(w io.Writer, r engine.Round, sel *engine.Selection) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	yellow := color.New(color.FgYellow)

	win := sel.Winner
	language := r.Language
	if language == "" {
		language = "unspecified"
	}

	green.Fprintf(w, "%s saved: %s\n", summaryTitle(r.Kind), sel.Path)
	fmt.Fprintf(w, "  Agent:      %s\n", win.Outcome.WorkerID)
	fmt.Fprintf(w, "  Language:   %s\n", language)
	fmt.Fprintf(w, "  Time:       %.2fs\n", win.Outcome.Elapsed.Seconds())
	bold.Fprintf(w, "  Score:      %.2f", win.Score.Overall)
	fmt.Fprintf(w, " (%s)\n", win.Score.Feedback)

	switch r.Kind {
	case criteria.KindFeature:
		if v := win.Score.Structure; v != nil {
			fmt.Fprintf(w, "  Structure:  %.2f\n", v.Score)
			if !v.Valid {
				yellow.Fprintf(w, "  Warning: missing required sections: %s\n", strings.Join(v.Missing, ", "))
			}
		}
	case criteria.KindCode:
		fmt.Fprintf(w, "  Files:      %d\n", len(win.Outcome.OutputFiles))
		fmt.Fprintf(w, "  Quality:    %.2f\n", win.Score.Criteria["code_quality"])
	}
	fmt.Fprintf(w, "  Candidates: %d of %d succeeded, %d archived\n", sel.Succeeded(), len(sel.Outcomes), len(sel.Archived))
}

func summaryTitle(kind criteria.Kind) string {
	switch kind {
	case criteria.KindDesign:
		return "Design"
	case criteria.KindFeature:
		return "Feature specification"
	default:
		return "Code"
	}
}

func init() {
	rootCmd.AddCommand(designCmd, featCmd, devCmd, runCmd)
}
