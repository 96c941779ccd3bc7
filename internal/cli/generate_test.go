package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"conclave/internal/command"
	"conclave/internal/config"
	"conclave/internal/criteria"
	"conclave/internal/engine"
	"conclave/internal/outline"
	"conclave/internal/scoring"

	"github.com/spf13/cobra"
)

const designWorker = `case "$1" in
alpha)
	cat <<'DOC'
# Overview
A pomodoro timer service with a clear architecture.

## Architecture
Each component is a module behind an interface. The data model uses a schema
stored in a database. The API contract is documented with examples.

## Deployment
The environment is containerized. Performance and scalability are considered,
with error handling and testing throughout.
DOC
	;;
beta)
	echo "worker crashed" >&2
	exit 2
	;;
*)
	echo "short note"
	;;
esac
`

// useConfig replaces the package configuration for one test.
func useConfig(t *testing.T, c *config.Config) {
	t.Helper()
	saved := *cfg
	*cfg = *c
	t.Cleanup(func() { *cfg = saved })
}

func testConfig(t *testing.T, script string, agents ...string) *config.Config {
	t.Helper()
	c := config.New()
	c.Orchestration.Agents = agents
	c.Orchestration.AgentsDir = t.TempDir()
	c.Worker.Command = []string{"/bin/sh", "-c", script, "worker", "{agent}", "{prompt_file}"}
	c.Worker.Timeout = 10 * time.Second
	c.Worker.KillGrace = 500 * time.Millisecond
	c.Storage.Base = filepath.Join(t.TempDir(), ".docs")
	c.Runtime.LogLevel = "error"
	return c
}

func newTestCommand() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	cmd := &cobra.Command{Use: "test"}
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd, stdout, stderr
}

func TestRunRound_Design(t *testing.T) {
	c := testConfig(t, designWorker, "alpha", "beta", "gamma")
	useConfig(t, c)

	cmd, stdout, stderr := newTestCommand()
	err := runRound(cmd, command.Command{Kind: criteria.KindDesign, Language: "go", Description: "pomodoro timer"})
	if err != nil {
		t.Fatalf("runRound: %v", err)
	}

	summary := stdout.String()
	for _, want := range []string{
		"Design saved: " + filepath.Join(c.Storage.Base, "plan", "app.md"),
		"Agent:      alpha",
		"Language:   go",
		"Candidates: 2 of 3 succeeded, 2 archived",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}

	console := stderr.String()
	for _, want := range []string{"[FAIL] beta", "#1 alpha", "(selected)"} {
		if !strings.Contains(console, want) {
			t.Errorf("console missing %q:\n%s", want, console)
		}
	}

	b, err := os.ReadFile(filepath.Join(c.Storage.Base, "plan", "app.md"))
	if err != nil {
		t.Fatalf("read app.md: %v", err)
	}
	if !strings.HasPrefix(string(b), "# Overview") {
		t.Fatalf("app.md is not the winning candidate:\n%s", b)
	}

	raw, err := os.ReadFile(filepath.Join(c.Storage.Base, "state", healthFile))
	if err != nil {
		t.Fatalf("health store not saved: %v", err)
	}
	var health map[string]map[string]any
	if err := json.Unmarshal(raw, &health); err != nil {
		t.Fatalf("parse health store: %v", err)
	}
	if len(health) != 3 {
		t.Fatalf("want 3 health records, got %d", len(health))
	}
	if rate := health["beta"]["success_rate"]; rate != 0.0 {
		t.Fatalf("beta success_rate = %v, want 0", rate)
	}
}

func TestRunRound_AllWorkersFail(t *testing.T) {
	c := testConfig(t, `echo "no" >&2; exit 1`, "alpha", "beta")
	useConfig(t, c)

	cmd, stdout, _ := newTestCommand()
	err := runRound(cmd, command.Command{Kind: criteria.KindDesign, Description: "x"})
	if !errors.Is(err, engine.ErrNoSuccessfulCandidates) {
		t.Fatalf("want ErrNoSuccessfulCandidates, got %v", err)
	}
	if stdout.Len() != 0 {
		t.Fatalf("no summary expected on failure, got %q", stdout.String())
	}
	if _, err := os.Stat(filepath.Join(c.Storage.Base, "state", healthFile)); err != nil {
		t.Fatalf("health must be saved after a failed round: %v", err)
	}
}

func TestRunRound_EmitMovesSummaryToStderr(t *testing.T) {
	c := testConfig(t, designWorker, "alpha")
	c.Output.NoConsole = true
	c.Output.Emit = []string{"ndjson"}
	useConfig(t, c)

	cmd, stdout, stderr := newTestCommand()
	if err := runRound(cmd, command.Command{Kind: criteria.KindDesign, Description: "timer"}); err != nil {
		t.Fatalf("runRound: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	var types []string
	for _, l := range lines {
		var ev struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal([]byte(l), &ev); err != nil {
			t.Fatalf("stdout line is not JSON: %q", l)
		}
		types = append(types, ev.Type)
	}
	want := []string{"round.started", "task.finished", "candidate.ranked", "round.finished"}
	if !reflect.DeepEqual(types, want) {
		t.Fatalf("event types: want %v, got %v", want, types)
	}
	if !strings.Contains(stderr.String(), "Design saved:") {
		t.Fatalf("summary should go to stderr with --emit:\n%s", stderr.String())
	}
}

func TestRunRound_FeatWithoutDesignStillRuns(t *testing.T) {
	c := testConfig(t, `printf '# Feature\n## Scope\nDetails.\n'`, "alpha")
	useConfig(t, c)

	cmd, stdout, _ := newTestCommand()
	if err := runRound(cmd, command.Command{Kind: criteria.KindFeature, Sections: []string{"2"}}); err != nil {
		t.Fatalf("runRound: %v", err)
	}
	if !strings.Contains(stdout.String(), "Structure:  1.00") {
		t.Fatalf("feat summary should report the structural score:\n%s", stdout.String())
	}
	if _, err := os.Stat(filepath.Join(c.Storage.Base, "plan", "feat_2.md")); err != nil {
		t.Fatalf("feature spec not saved: %v", err)
	}
}

func TestRunRound_DevRequiresSpecs(t *testing.T) {
	c := testConfig(t, `true`, "alpha")
	useConfig(t, c)

	cmd, _, _ := newTestCommand()
	err := runRound(cmd, command.Command{Kind: criteria.KindCode, Language: "go", Sections: []string{"1"}})
	if err == nil || !strings.Contains(err.Error(), "no feature specifications found") {
		t.Fatalf("want missing specs error, got %v", err)
	}
}

func TestPrintSummary(t *testing.T) {
	tests := []struct {
		name     string
		round    engine.Round
		winner   engine.Candidate
		expected []string
		absent   []string
	}{
		{
			name:  "invalid feature",
			round: engine.Round{Kind: criteria.KindFeature, SectionID: "2"},
			winner: engine.Candidate{
				Outcome: engine.Outcome{WorkerID: "a1", Elapsed: 1500 * time.Millisecond},
				Score: scoring.CandidateScore{Overall: 0.42, Feedback: "Fair", Structure: &outline.Validation{
					Score: 0.7, Missing: []string{"alarms"},
				}},
			},
			expected: []string{
				"Feature specification saved: /p",
				"Language:   unspecified",
				"Time:       1.50s",
				"Score:      0.42 (Fair)",
				"Structure:  0.70",
				"missing required sections: alarms",
			},
			absent: []string{"Files:"},
		},
		{
			name:  "code",
			round: engine.Round{Kind: criteria.KindCode, Language: "go"},
			winner: engine.Candidate{
				Outcome: engine.Outcome{WorkerID: "a2", OutputFiles: map[string]string{"a.go": "", "b.go": ""}},
				Score:   scoring.CandidateScore{Overall: 0.8, Criteria: map[string]float64{"code_quality": 0.9}},
			},
			expected: []string{
				"Code saved: /p",
				"Agent:      a2",
				"Files:      2",
				"Quality:    0.90",
			},
			absent: []string{"Structure:", "Warning"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := &engine.Selection{
				Winner:   tt.winner,
				Ranked:   []engine.Candidate{tt.winner},
				Outcomes: []engine.Outcome{{Succeeded: true}, {}},
				Path:     "/p",
			}
			buf := new(bytes.Buffer)
			printSummary(buf, tt.round, sel)
			out := buf.String()
			for _, want := range tt.expected {
				if !strings.Contains(out, want) {
					t.Errorf("missing %q in:\n%s", want, out)
				}
			}
			for _, no := range tt.absent {
				if strings.Contains(out, no) {
					t.Errorf("unexpected %q in:\n%s", no, out)
				}
			}
			if !strings.Contains(out, "Candidates: 1 of 2 succeeded, 0 archived") {
				t.Errorf("candidate counts missing in:\n%s", out)
			}
		})
	}
}

func TestSplitArgs(t *testing.T) {
	got := splitArgs([]string{"go", "pomodoro  timer", "app"})
	want := []string{"go", "pomodoro", "timer", "app"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("want %v, got %v", want, got)
	}
}
