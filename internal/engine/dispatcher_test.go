package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"conclave/internal/logging"
)

type fakeExecutor struct {
	delay   time.Duration
	active  atomic.Int32
	maxSeen atomic.Int32
	results map[string]Outcome
}

func (f *fakeExecutor) Run(ctx context.Context, t Task) Outcome {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return canceledOutcome(t)
		}
	}
	if o, ok := f.results[t.ID]; ok {
		o.WorkerID, o.TaskID = t.WorkerID, t.ID
		return o
	}
	return Outcome{WorkerID: t.WorkerID, TaskID: t.ID, Succeeded: true, Stdout: "out-" + t.ID}
}

func makeTasks(n int) []Task {
	tasks := make([]Task, n)
	for i := range tasks {
		tasks[i] = Task{WorkerID: fmt.Sprintf("agent%d", i), ID: fmt.Sprintf("task%d", i)}
	}
	return tasks
}

func TestDispatcher_OrderAndCount(t *testing.T) {
	exec := &fakeExecutor{
		delay:   100 * time.Millisecond,
		results: map[string]Outcome{"task2": {Error: "boom"}},
	}
	d, err := NewDispatcher(exec, 0)
	if err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var seen []string
	d.OnOutcome = func(o Outcome) {
		mu.Lock()
		seen = append(seen, o.TaskID)
		mu.Unlock()
	}

	tasks := makeTasks(5)
	outcomes := d.Dispatch(context.Background(), tasks)
	if len(outcomes) != len(tasks) {
		t.Fatalf("want %d outcomes, got %d", len(tasks), len(outcomes))
	}
	for i, o := range outcomes {
		if o.TaskID != tasks[i].ID {
			t.Fatalf("outcome %d: want task %s, got %s", i, tasks[i].ID, o.TaskID)
		}
	}
	if outcomes[2].Succeeded || outcomes[2].Error != "boom" {
		t.Fatalf("task2 should fail, got %+v", outcomes[2])
	}
	if len(seen) != len(tasks) {
		t.Fatalf("OnOutcome called %d times, want %d", len(seen), len(tasks))
	}
	if got := exec.maxSeen.Load(); got != 5 {
		t.Fatalf("want all 5 tasks in flight together, saw %d", got)
	}
}

func TestDispatcher_Limit(t *testing.T) {
	exec := &fakeExecutor{delay: 20 * time.Millisecond}
	d, err := NewDispatcher(exec, 2)
	if err != nil {
		t.Fatal(err)
	}
	outcomes := d.Dispatch(context.Background(), makeTasks(6))
	if len(outcomes) != 6 {
		t.Fatalf("want 6 outcomes, got %d", len(outcomes))
	}
	if got := exec.maxSeen.Load(); got > 2 {
		t.Fatalf("concurrency limit exceeded: %d", got)
	}
}

func TestDispatcher_Empty(t *testing.T) {
	d, _ := NewDispatcher(&fakeExecutor{}, 0)
	if got := d.Dispatch(context.Background(), nil); len(got) != 0 {
		t.Fatalf("want no outcomes, got %d", len(got))
	}
}

func TestDispatcher_Canceled(t *testing.T) {
	exec := &fakeExecutor{delay: time.Minute}
	d, _ := NewDispatcher(exec, 1)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	outcomes := d.Dispatch(ctx, makeTasks(3))
	if time.Since(start) > 5*time.Second {
		t.Fatal("dispatch did not stop on cancel")
	}
	if len(outcomes) != 3 {
		t.Fatalf("want 3 outcomes, got %d", len(outcomes))
	}
	for i, o := range outcomes {
		if o.Succeeded || !o.Exit.Canceled || o.Error != "canceled" {
			t.Fatalf("outcome %d: want canceled, got %+v", i, o)
		}
	}
}

func TestDispatcher_NewErrors(t *testing.T) {
	if _, err := NewDispatcher(nil, 0); err == nil {
		t.Fatal("expected error for nil executor")
	}
	if _, err := NewDispatcher(&fakeExecutor{}, -1); err == nil {
		t.Fatal("expected error for negative limit")
	}
}

func TestDispatcher_WithProcesses(t *testing.T) {
	base := t.TempDir()
	s, err := NewSandbox(shRunner(`case "$1" in bad) exit 1;; slow) sleep 30;; *) printf '%s' "$1";; esac`), base, logging.Nop())
	if err != nil {
		t.Fatal(err)
	}
	d, _ := NewDispatcher(s, 0)

	tasks := []Task{
		{WorkerID: "one", ID: "t0"},
		{WorkerID: "bad", ID: "t1"},
		{WorkerID: "slow", ID: "t2", Timeout: 200 * time.Millisecond},
		{WorkerID: "two", ID: "t3"},
	}
	outcomes := d.Dispatch(context.Background(), tasks)

	if len(outcomes) != 4 {
		t.Fatalf("want 4 outcomes, got %d", len(outcomes))
	}
	if !outcomes[0].Succeeded || outcomes[0].Stdout != "one" {
		t.Fatalf("t0: %+v", outcomes[0])
	}
	if outcomes[1].Succeeded || outcomes[1].Error != "process exited with code 1" {
		t.Fatalf("t1: %+v", outcomes[1])
	}
	if !outcomes[2].Exit.TimedOut {
		t.Fatalf("t2 should time out: %+v", outcomes[2])
	}
	if !outcomes[3].Succeeded || outcomes[3].Stdout != "two" {
		t.Fatalf("t3: %+v", outcomes[3])
	}
	assertEmptyDir(t, base)
}
