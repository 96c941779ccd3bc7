package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// Invocation is what a Runner needs to start one worker.
type Invocation struct {
	TaskID     string
	Agent      string
	Prompt     string
	PromptFile string
	Dir        string
}

// Execution is the raw result of a worker process.
type Execution struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner starts a worker and waits for it. A non-zero exit is reported in
// Execution, not as an error; errors mean the worker could not be run or was
// stopped by ctx.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (Execution, error)
}

// DefaultCommand is the argv template used when none is configured.
var DefaultCommand = []string{"claude-code", "--agent", "{agent}", "--input", "{prompt_file}"}

// ProcessRunner runs workers as child processes in their own process group.
type ProcessRunner struct {
	// Command is an argv template. {agent}, {prompt}, {prompt_file} and {dir}
	// are substituted in every element.
	Command []string
	// Stdin pipes the prompt to the worker's standard input.
	Stdin bool
	// Env is appended to the inherited environment.
	Env []string
	// KillGrace is how long to wait for output pipes after the group is killed.
	KillGrace time.Duration
}

func NewProcessRunner(command []string, stdin bool) *ProcessRunner {
	if len(command) == 0 {
		command = DefaultCommand
	}
	return &ProcessRunner{Command: command, Stdin: stdin, KillGrace: 2 * time.Second}
}

// Expand substitutes the invocation's values into the command template.
func (r *ProcessRunner) Expand(inv Invocation) []string {
	rep := strings.NewReplacer(
		"{agent}", inv.Agent,
		"{prompt_file}", inv.PromptFile,
		"{prompt}", inv.Prompt,
		"{dir}", inv.Dir,
	)
	argv := make([]string, len(r.Command))
	for i, a := range r.Command {
		argv[i] = rep.Replace(a)
	}
	return argv
}

func (r *ProcessRunner) Run(ctx context.Context, inv Invocation) (Execution, error) {
	argv := r.Expand(inv)
	if len(argv) == 0 || argv[0] == "" {
		return Execution{}, errors.New("worker command is empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = inv.Dir
	cmd.Env = workerEnv(os.Environ(), inv, r.Env)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		// Negative pid signals the whole group.
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = r.KillGrace

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if r.Stdin {
		cmd.Stdin = strings.NewReader(inv.Prompt)
	}

	err := cmd.Run()
	res := Execution{Stdout: stdout.String(), Stderr: stderr.String()}
	if ctx.Err() != nil {
		res.ExitCode = -1
		return res, ctx.Err()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("start worker %s: %w", argv[0], err)
	}
	return res, nil
}

func workerEnv(base []string, inv Invocation, extra []string) []string {
	env := make([]string, 0, len(base)+len(extra)+2)
	for _, kv := range base {
		if strings.HasPrefix(kv, "CLAUDECODE=") {
			continue
		}
		env = append(env, kv)
	}
	env = append(env, "CONCLAVE_TASK_ID="+inv.TaskID, "CONCLAVE_AGENT="+inv.Agent)
	return append(env, extra...)
}
