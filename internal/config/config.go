package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"conclave/internal/criteria"
	"conclave/internal/logging"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read from the working directory when --config is not given.
const DefaultFile = "conclave.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CONCLAVE_"

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields, keep these in
	// sync:
	// - CLI flags in internal/cli/root.go
	// - environment overrides in applyEnv
	Orchestration Orchestration `yaml:"orchestration"`
	Worker        Worker        `yaml:"worker"`
	Storage       Storage       `yaml:"storage"`
	Output        Output        `yaml:"output"`
	Runtime       Runtime       `yaml:"runtime"`
}

type Orchestration struct {
	// DesignParallel, FeatParallel and DevParallel are how many agents compete
	// per round (see --parallel).
	DesignParallel int `yaml:"design_parallel"`
	FeatParallel   int `yaml:"feat_parallel"`
	DevParallel    int `yaml:"dev_parallel"`

	// MinimumAgents is the success count below which a round logs a warning.
	MinimumAgents int `yaml:"minimum_agents"`

	// MaxConcurrency bounds simultaneously running workers. 0 runs every task
	// of a round at once (see --max-concurrency).
	MaxConcurrency int `yaml:"max_concurrency"`

	// AgentsDir holds the agent definitions (see --agents-dir).
	AgentsDir string `yaml:"agents_dir"`

	// Agents bypasses the registry with an explicit list (see --agents).
	Agents []string `yaml:"agents"`
}

type Worker struct {
	// Command is the argv template for a worker process. Placeholders:
	// {agent}, {prompt}, {prompt_file}, {dir}.
	Command []string `yaml:"command"`

	// Stdin pipes the prompt to the worker.
	Stdin bool `yaml:"stdin"`

	// Timeout bounds one worker (see --timeout). Must be > 0.
	Timeout time.Duration `yaml:"timeout"`

	// KillGrace is how long to wait for output after the process group is
	// killed.
	KillGrace time.Duration `yaml:"kill_grace"`
}

type Storage struct {
	// Base is the storage root (see --storage).
	Base string `yaml:"base"`
}

type Output struct {
	// ConsoleFormat controls the human-facing console sink format (see --console-format).
	// Allowed values: text, json, ndjson.
	ConsoleFormat string `yaml:"console_format"`

	// ConsoleFilterStatus filters task lines by status (see --console-filter-status).
	// Allowed values: OK, FAIL, TIMEOUT, CANCELED.
	ConsoleFilterStatus []string `yaml:"console_filter_status"`

	// Report writes a Markdown report to this path (see --report).
	Report string `yaml:"report"`

	// Out writes structured output to this path (see --out).
	Out string `yaml:"out"`

	// OutFormat selects the format for --out (see --out-format).
	// Allowed values: json, ndjson. If empty, it is inferred from the --out file extension.
	OutFormat string `yaml:"out_format"`

	// Emit writes an additional structured event stream to stdout (see --emit).
	Emit []string `yaml:"emit"`

	// NoConsole suppresses the console sink (see --no-console).
	NoConsole bool `yaml:"no_console"`
}

type Runtime struct {
	// Verbose switches logging to debug.
	Verbose bool `yaml:"verbose"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

func New() *Config {
	return &Config{
		Orchestration: Orchestration{
			DesignParallel: 5,
			FeatParallel:   5,
			DevParallel:    5,
			MinimumAgents:  3,
			AgentsDir:      filepath.Join("~", ".claude", "agents"),
		},
		Worker: Worker{
			Command:   []string{"claude-code", "--agent", "{agent}", "--input", "{prompt_file}"},
			Timeout:   300 * time.Second,
			KillGrace: 2 * time.Second,
		},
		Storage: Storage{
			Base: ".docs",
		},
		Output: Output{
			ConsoleFormat: "text",
		},
		Runtime: Runtime{
			LogLevel: "info",
		},
	}
}

// Parallel returns the per-kind agent counts.
func (o Orchestration) Parallel() map[criteria.Kind]int {
	return map[criteria.Kind]int{
		criteria.KindDesign:  o.DesignParallel,
		criteria.KindFeature: o.FeatParallel,
		criteria.KindCode:    o.DevParallel,
	}
}

// SetParallel sets the agent count for every kind.
func (o *Orchestration) SetParallel(n int) {
	o.DesignParallel, o.FeatParallel, o.DevParallel = n, n, n
}

// LoadFile overlays the YAML file at path. When explicit is false a missing
// file is ignored.
func (c *Config) LoadFile(path string, explicit bool) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// LoadEnv loads envFile (if present) into the process environment without
// overriding variables already set, then applies CONCLAVE_* overrides.
func (c *Config) LoadEnv(envFile string) error {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
		}
	}
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s%s: %q", EnvPrefix, key, v)
		}
		*dst = n
		return nil
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s%s: %q", EnvPrefix, key, v)
		}
		*dst = b
		return nil
	}

	str("AGENTS_DIR", &c.Orchestration.AgentsDir)
	str("STORAGE", &c.Storage.Base)
	str("LOG_LEVEL", &c.Runtime.LogLevel)
	if v, ok := lookup(EnvPrefix + "AGENTS"); ok && strings.TrimSpace(v) != "" {
		c.Orchestration.Agents = []string{v}
	}
	if v, ok := lookup(EnvPrefix + "WORKER_COMMAND"); ok && strings.TrimSpace(v) != "" {
		c.Worker.Command = strings.Fields(v)
	}
	if v, ok := lookup(EnvPrefix + "TIMEOUT"); ok && strings.TrimSpace(v) != "" {
		d, err := parseTimeout(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %sTIMEOUT: %q", EnvPrefix, v)
		}
		c.Worker.Timeout = d
	}

	var parallel int
	if err := num("PARALLEL", &parallel); err != nil {
		return err
	}
	if parallel != 0 {
		c.Orchestration.SetParallel(parallel)
	}
	for key, dst := range map[string]*int{
		"DESIGN_PARALLEL": &c.Orchestration.DesignParallel,
		"FEAT_PARALLEL":   &c.Orchestration.FeatParallel,
		"DEV_PARALLEL":    &c.Orchestration.DevParallel,
		"MIN_AGENTS":      &c.Orchestration.MinimumAgents,
		"MAX_CONCURRENCY": &c.Orchestration.MaxConcurrency,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}
	if err := boolean("WORKER_STDIN", &c.Worker.Stdin); err != nil {
		return err
	}
	return boolean("VERBOSE", &c.Runtime.Verbose)
}

// parseTimeout accepts a Go duration or a plain number of seconds.
func parseTimeout(v string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(v)
}

func (c *Config) Validate() error {
	// Normalize comma-delimited list inputs.
	c.Orchestration.Agents = splitCommaList(c.Orchestration.Agents)
	c.Output.Emit = splitCommaList(c.Output.Emit)
	c.Output.ConsoleFilterStatus = splitCommaList(c.Output.ConsoleFilterStatus)

	// Orchestration validation
	for _, p := range []struct {
		kind string
		n    int
	}{
		{"design", c.Orchestration.DesignParallel},
		{"feat", c.Orchestration.FeatParallel},
		{"dev", c.Orchestration.DevParallel},
	} {
		if p.n <= 0 {
			return fmt.Errorf("%s parallel count must be >= 1", p.kind)
		}
	}
	if c.Orchestration.MinimumAgents < 0 {
		return errors.New("--min-agents must be >= 0")
	}
	if c.Orchestration.MaxConcurrency < 0 {
		return errors.New("--max-concurrency must be >= 0")
	}
	dir, err := expandHome(strings.TrimSpace(c.Orchestration.AgentsDir))
	if err != nil {
		return fmt.Errorf("invalid --agents-dir value: %w", err)
	}
	c.Orchestration.AgentsDir = dir
	if c.Orchestration.AgentsDir == "" && len(c.Orchestration.Agents) == 0 {
		return errors.New("--agents-dir must not be empty")
	}

	// Worker validation
	if len(c.Worker.Command) == 0 || strings.TrimSpace(c.Worker.Command[0]) == "" {
		return errors.New("worker command must not be empty")
	}
	if c.Worker.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}
	if c.Worker.KillGrace < 0 {
		return errors.New("worker kill grace must be >= 0")
	}

	// Storage validation
	c.Storage.Base = strings.TrimSpace(c.Storage.Base)
	if c.Storage.Base == "" {
		return errors.New("--storage must not be empty")
	}

	// Output validation
	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		return errors.New("--console-format must be one of: text, json, ndjson")
	}
	if c.Output.ConsoleFormat != "text" && c.Output.ConsoleFormat != "json" && c.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, json, ndjson)", c.Output.ConsoleFormat)
	}

	for i, s := range c.Output.ConsoleFilterStatus {
		v := strings.ToUpper(strings.TrimSpace(s))
		switch v {
		case "OK", "FAIL", "TIMEOUT", "CANCELED":
			c.Output.ConsoleFilterStatus[i] = v
		default:
			return fmt.Errorf("unsupported --console-filter-status value: %s (must be one of: OK, FAIL, TIMEOUT, CANCELED)", s)
		}
	}

	for _, emit := range c.Output.Emit {
		v := normalizeEnumValue(emit)
		if v == "" {
			return errors.New("--emit must be one of: json, ndjson")
		}
		if v != "json" && v != "ndjson" {
			return fmt.Errorf("unsupported --emit value: %s (must be one of: json, ndjson)", v)
		}
	}

	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			ext := strings.ToLower(filepath.Ext(c.Output.Out))
			switch ext {
			case ".json":
				c.Output.OutFormat = "json"
			case ".ndjson":
				c.Output.OutFormat = "ndjson"
			default:
				if ext == "" {
					return errors.New("cannot infer output format from file extension (missing extension); use --out-format")
				}
				return fmt.Errorf("cannot infer output format from file extension %q; use --out-format", ext)
			}
		} else if c.Output.OutFormat != "json" && c.Output.OutFormat != "ndjson" {
			return fmt.Errorf("unsupported output format: %s", c.Output.OutFormat)
		}
	}

	// Runtime validation
	c.Runtime.LogLevel = normalizeEnumValue(c.Runtime.LogLevel)
	if c.Runtime.Verbose {
		c.Runtime.LogLevel = "debug"
	}
	if c.Runtime.LogLevel == "" {
		c.Runtime.LogLevel = "info"
	}
	if _, err := logging.ParseLevel(c.Runtime.LogLevel); err != nil {
		return fmt.Errorf("unsupported --log-level: %s (must be one of: debug, info, warn, error)", c.Runtime.LogLevel)
	}

	return nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
