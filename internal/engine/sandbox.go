package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"conclave/internal/logging"
)

// PromptFile is the name the prompt is written under inside a sandbox.
const PromptFile = "prompt.txt"

// Executor runs one task to completion.
type Executor interface {
	Run(ctx context.Context, t Task) Outcome
}

// Sandbox runs each task in a private temporary directory that is removed
// afterwards.
type Sandbox struct {
	runner  Runner
	baseDir string
	log     logging.Logger
}

// NewSandbox returns a Sandbox creating task directories under baseDir
// (os.TempDir when empty).
func NewSandbox(runner Runner, baseDir string, log logging.Logger) (*Sandbox, error) {
	if runner == nil {
		return nil, errors.New("runner is nil")
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Sandbox{runner: runner, baseDir: baseDir, log: log}, nil
}

// Run never returns an error: every failure becomes a failed Outcome.
func (s *Sandbox) Run(ctx context.Context, t Task) Outcome {
	start := time.Now()
	if ctx.Err() != nil {
		return canceledOutcome(t)
	}

	dir, err := os.MkdirTemp(s.baseDir, "task-"+sanitizeID(t.ID)+"-")
	if err != nil {
		return failedOutcome(t, time.Since(start), fmt.Sprintf("create sandbox: %v", err))
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			s.log.Warn("sandbox cleanup failed", "task", t.ID, "dir", dir, "error", err)
		}
	}()

	if err := writeInputs(dir, t); err != nil {
		return failedOutcome(t, time.Since(start), err.Error())
	}

	timeout := t.timeout()
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.log.Debug("worker started", "task", t.ID, "agent", t.WorkerID, "dir", dir)
	res, runErr := s.runner.Run(runCtx, Invocation{
		TaskID:     t.ID,
		Agent:      t.WorkerID,
		Prompt:     t.Prompt,
		PromptFile: filepath.Join(dir, PromptFile),
		Dir:        dir,
	})
	elapsed := time.Since(start)
	if ctx.Err() != nil {
		o := canceledOutcome(t)
		o.Elapsed = elapsed
		return o
	}

	files := s.collectOutputs(dir, t)
	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		o := failedOutcome(t, elapsed, fmt.Sprintf("timed out after %gs", timeout.Seconds()))
		o.Exit.TimedOut = true
		o.Stdout = res.Stdout
		o.OutputFiles = files
		return o
	case runErr != nil:
		o := failedOutcome(t, elapsed, runErr.Error())
		o.OutputFiles = files
		return o
	case res.ExitCode != 0:
		msg := strings.TrimSpace(res.Stderr)
		if msg == "" {
			msg = fmt.Sprintf("process exited with code %d", res.ExitCode)
		}
		o := failedOutcome(t, elapsed, msg)
		o.Exit.Code = res.ExitCode
		o.Stdout = res.Stdout
		o.OutputFiles = files
		return o
	}

	return Outcome{
		WorkerID:    t.WorkerID,
		TaskID:      t.ID,
		Succeeded:   true,
		Stdout:      res.Stdout,
		Elapsed:     elapsed,
		OutputFiles: files,
	}
}

func canceledOutcome(t Task) Outcome {
	o := failedOutcome(t, 0, "canceled")
	o.Exit.Canceled = true
	return o
}

func writeInputs(dir string, t Task) error {
	for rel, content := range t.InputFiles {
		p, err := scopedPath(dir, rel)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("write input %s: %w", rel, err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write input %s: %w", rel, err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, PromptFile), []byte(t.Prompt), 0o644); err != nil {
		return fmt.Errorf("write prompt: %w", err)
	}
	return nil
}

// scopedPath resolves rel inside dir and rejects paths that escape it.
func scopedPath(dir, rel string) (string, error) {
	if rel == "" || filepath.IsAbs(rel) {
		return "", fmt.Errorf("input path %q escapes sandbox", rel)
	}
	p := filepath.Join(dir, filepath.FromSlash(rel))
	r, err := filepath.Rel(dir, p)
	if err != nil || r == "." || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("input path %q escapes sandbox", rel)
	}
	return p, nil
}

// collectOutputs reads back every regular UTF-8 file except the prompt and
// inputs the worker left unchanged. Entries that cannot be read are skipped.
func (s *Sandbox) collectOutputs(dir string, t Task) map[string]string {
	files := make(map[string]string)
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			s.log.Debug("output skipped", "task", t.ID, "path", p, "error", err)
			if d != nil && d.IsDir() && p != dir {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if rel == PromptFile {
			return nil
		}
		b, err := os.ReadFile(p)
		if err != nil {
			s.log.Debug("output skipped", "task", t.ID, "path", rel, "error", err)
			return nil
		}
		if in, ok := t.InputFiles[rel]; ok && in == string(b) {
			return nil
		}
		if !utf8.Valid(b) {
			return nil
		}
		files[rel] = string(b)
		return nil
	})
	return files
}

func sanitizeID(id string) string {
	id = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, id)
	if id == "" {
		return "anon"
	}
	return id
}
