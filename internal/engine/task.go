package engine

import "time"

// DefaultTimeout bounds a task whose Timeout is not positive.
const DefaultTimeout = 300 * time.Second

// Task is one unit of work for one worker. It is not modified after it is
// handed to the dispatcher.
type Task struct {
	WorkerID string
	Prompt   string
	ID       string
	Timeout  time.Duration
	// InputFiles are written into the sandbox before the worker starts,
	// relative path -> content.
	InputFiles map[string]string
}

func (t Task) timeout() time.Duration {
	if t.Timeout <= 0 {
		return DefaultTimeout
	}
	return t.Timeout
}

// ExitMetadata describes how the worker process ended.
type ExitMetadata struct {
	Code     int  `json:"code"`
	TimedOut bool `json:"timed_out,omitempty"`
	Canceled bool `json:"canceled,omitempty"`
}

// Outcome is the result of running one Task. Every submitted task yields
// exactly one Outcome.
type Outcome struct {
	WorkerID  string        `json:"worker_id"`
	TaskID    string        `json:"task_id"`
	Succeeded bool          `json:"succeeded"`
	Stdout    string        `json:"-"`
	Error     string        `json:"error,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
	// OutputFiles are files the worker created or changed, relative path ->
	// content.
	OutputFiles map[string]string `json:"-"`
	Exit        ExitMetadata      `json:"exit"`
}

func failedOutcome(t Task, elapsed time.Duration, msg string) Outcome {
	return Outcome{
		WorkerID: t.WorkerID,
		TaskID:   t.ID,
		Error:    msg,
		Elapsed:  elapsed,
		Exit:     ExitMetadata{Code: -1},
	}
}
