package cli

import (
	"fmt"
	"os"
	"strings"

	"conclave/internal/config"
	"conclave/internal/flags"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var cfg = config.New()

// Flags that do not map onto a single config field.
var (
	configPath    string
	envFile       string
	parallel      int
	workerCommand string
)

var rootCmd = &cobra.Command{
	Use:   "conclave",
	Short: "Run competing AI agents and keep the best design, feature spec or code",
	Long: `Conclave runs several AI agents on the same request, scores every candidate
with deterministic heuristics and keeps the best one.

Three round kinds build on each other:
	design  writes the application design   (.docs/plan/app.md)
	feat    expands one section of it       (.docs/plan/feat_<id>.md)
	dev     implements feature specs        (.docs/src/generated_<stamp>/)

Non-selected candidates are archived under .docs/archive for inspection.

Examples:
	# Design a service in Go with the five healthiest architecture agents
	conclave design go pomodoro timer with a REST API

	# Expand section 2 of the design
	conclave feat 2

	# Implement two feature specs
	conclave dev go feat 2,3

	# Run a slash command line as typed in a chat
	conclave run "/dev feat 2.1"

Configuration:
	Defaults are overridden, in order, by conclave.yaml (or --config), a .env
	file, CONCLAVE_* environment variables and command-line flags.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd, cfg)
	},
}

func init() {
	bindFlags(rootCmd.PersistentFlags(), cfg)
}

// bindFlags registers the global flags on fs.
//
// MAINTAINER NOTE: If you add/change/remove flags here, keep config.applyEnv
// and the YAML keys in internal/config in sync.
func bindFlags(fs *pflag.FlagSet, c *config.Config) {
	// Sources
	fs.StringVar(&configPath, flags.FlagConfig, config.DefaultFile, "Configuration file (default: conclave.yaml when present)")
	fs.StringVar(&envFile, flags.FlagEnvFile, ".env", "Dotenv file loaded before CONCLAVE_* variables are read")

	// Orchestration
	fs.StringVar(&c.Orchestration.AgentsDir, flags.FlagAgentsDir, c.Orchestration.AgentsDir, "Directory holding agent definitions (*.md)")
	fs.StringSliceVar(&c.Orchestration.Agents, flags.FlagAgents, nil, "Use exactly these agents instead of the registry (repeatable; comma-separated accepted)")
	fs.IntVar(&parallel, flags.FlagParallel, 0, "Agents per round for every kind (default: 5)")
	fs.IntVar(&c.Orchestration.MinimumAgents, flags.FlagMinAgents, c.Orchestration.MinimumAgents, "Warn when fewer candidates succeed")
	fs.IntVar(&c.Orchestration.MaxConcurrency, flags.FlagMaxConcurrency, c.Orchestration.MaxConcurrency, "Workers running at once (0 = all tasks of a round)")

	// Worker
	fs.StringVar(&workerCommand, flags.FlagWorkerCommand, "", "Worker command template; placeholders {agent}, {prompt}, {prompt_file}, {dir}")
	fs.BoolVar(&c.Worker.Stdin, flags.FlagStdin, c.Worker.Stdin, "Pipe the prompt to the worker's standard input")
	fs.DurationVar(&c.Worker.Timeout, flags.FlagTimeout, c.Worker.Timeout, "Per-worker timeout")

	// Storage
	fs.StringVar(&c.Storage.Base, flags.FlagStorage, c.Storage.Base, "Storage root for plans, generated code, archives and state")

	// Output
	fs.StringVar(&c.Output.ConsoleFormat, flags.FlagConsoleFormat, c.Output.ConsoleFormat, "Console output format: text|json|ndjson")
	fs.StringSliceVar(&c.Output.ConsoleFilterStatus, flags.FlagConsoleFilterStatus, nil, "Filter console task lines by status (OK, FAIL, TIMEOUT, CANCELED). Comma-separated.")
	fs.StringVar(&c.Output.Report, flags.FlagReport, "", "Write a Markdown ranking report to this path")
	fs.StringVar(&c.Output.Out, flags.FlagOut, "", "Write structured output to this path")
	fs.StringVar(&c.Output.OutFormat, flags.FlagOutFormat, "", "Structured output format for --out: json|ndjson (default: inferred from file extension)")
	fs.StringSliceVar(&c.Output.Emit, flags.FlagEmit, nil, "Emit an additional structured stream to stdout: json|ndjson")
	fs.BoolVar(&c.Output.NoConsole, flags.FlagNoConsole, false, "Suppress console output (use with --emit/--out/--report)")

	// Runtime
	fs.BoolVar(&c.Runtime.Verbose, flags.FlagVerbose, false, "Enable debug logging")
	fs.StringVar(&c.Runtime.LogLevel, flags.FlagLogLevel, c.Runtime.LogLevel, "Log level: debug|info|warn|error")
}

// loadConfig rebuilds c from its sources. Flags were already parsed into c,
// so the explicitly set ones are captured first and applied again last.
func loadConfig(cmd *cobra.Command, c *config.Config) error {
	type setting struct {
		flag   *pflag.Flag
		raw    string
		values []string
	}
	var set []setting
	cmd.Flags().Visit(func(f *pflag.Flag) {
		s := setting{flag: f, raw: f.Value.String()}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			s.values = append([]string(nil), sv.GetSlice()...)
		}
		set = append(set, s)
	})

	*c = *config.New()
	path, explicit := config.DefaultFile, false
	if cmd.Flags().Changed(flags.FlagConfig) {
		path, explicit = configPath, true
	}
	if err := c.LoadFile(path, explicit); err != nil {
		return err
	}
	if err := c.LoadEnv(envFile); err != nil {
		return err
	}

	for _, s := range set {
		var err error
		if sv, ok := s.flag.Value.(pflag.SliceValue); ok {
			err = sv.Replace(s.values)
		} else {
			err = s.flag.Value.Set(s.raw)
		}
		if err != nil {
			return fmt.Errorf("invalid --%s: %w", s.flag.Name, err)
		}
	}
	applyDerivedFlags(cmd, c)
	return c.Validate()
}

// applyDerivedFlags maps flags that fan out to several config fields.
func applyDerivedFlags(cmd *cobra.Command, c *config.Config) {
	if cmd.Flags().Changed(flags.FlagParallel) {
		c.Orchestration.SetParallel(parallel)
	}
	if cmd.Flags().Changed(flags.FlagWorkerCommand) {
		c.Worker.Command = strings.Fields(workerCommand)
	}
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
