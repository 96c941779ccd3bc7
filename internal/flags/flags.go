package flags

// Package flags defines canonical CLI flag names shared across the CLI and the
// config layer. Keeping these as constants helps avoid drift between Cobra flag
// wiring and other code paths that need to reference flags (e.g. re-applying
// explicitly set flags over file and environment configuration).
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&cfg.Storage.Base, flags.FlagStorage, ".docs", "...")
//	arg := "--" + flags.FlagStorage
const (
	// Sources
	FlagConfig  = "config"
	FlagEnvFile = "env-file"

	// Orchestration
	FlagAgentsDir      = "agents-dir"
	FlagAgents         = "agents"
	FlagParallel       = "parallel"
	FlagMinAgents      = "min-agents"
	FlagMaxConcurrency = "max-concurrency"

	// Worker
	FlagWorkerCommand = "worker-command"
	FlagStdin         = "stdin"
	FlagTimeout       = "timeout"

	// Storage
	FlagStorage = "storage"

	// Output
	FlagConsoleFormat       = "console-format"
	FlagConsoleFilterStatus = "console-filter-status"
	FlagReport              = "report"
	FlagOut                 = "out"
	FlagOutFormat           = "out-format"
	FlagEmit                = "emit"
	FlagNoConsole           = "no-console"

	// Runtime
	FlagVerbose  = "verbose"
	FlagLogLevel = "log-level"
)
