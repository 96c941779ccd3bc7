package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"conclave/internal/criteria"
	_ "conclave/internal/criteria/checks"
	"conclave/internal/logging"
	"conclave/internal/output"
	"conclave/internal/store"
)

const richDesign = `# Overview
## Architecture
The system is split into a service layer and a data model with a clear API contract.
Each component is a module behind an interface; the design is modular and extensible.
## Implementation
Implement each function with a simple algorithm, step by step, phase by phase.
The technology stack uses a database and a web framework; every dependency is listed.
## Scalability
Horizontal scaling with a load balancer and a cache; performance and security are covered.
## Deployment
Deployed to a container environment, with a diagram and an example use case.
`

type savedCall struct {
	kind      string
	sectionID string
	content   string
	files     map[string]string
	featSpecs []string
	meta      store.Metadata
}

type fakeStore struct {
	saves []savedCall
	err   error
}

func (f *fakeStore) SaveDesign(content string, meta store.Metadata) (string, error) {
	f.saves = append(f.saves, savedCall{kind: "design", content: content, meta: meta})
	return "plan/app.md", f.err
}

func (f *fakeStore) SaveFeature(sectionID, content string, meta store.Metadata) (string, error) {
	f.saves = append(f.saves, savedCall{kind: "feat", sectionID: sectionID, content: content, meta: meta})
	return "plan/feat.md", f.err
}

func (f *fakeStore) SaveCode(featSpecs []string, files map[string]string, meta store.Metadata) (string, error) {
	f.saves = append(f.saves, savedCall{kind: "code", featSpecs: featSpecs, files: files, meta: meta})
	return "src/generated", f.err
}

type fakeArchive struct {
	calls      int
	kind       string
	candidates []store.Candidate
	err        error
}

func (f *fakeArchive) ArchiveCandidates(kind string, candidates []store.Candidate) ([]string, error) {
	f.calls++
	f.kind = kind
	f.candidates = candidates
	if f.err != nil {
		return nil, f.err
	}
	paths := make([]string, len(candidates))
	for i, c := range candidates {
		paths[i] = "archive/" + c.Agent
	}
	return paths, nil
}

type healthCall struct {
	agent   string
	success bool
}

type fakeHealth struct {
	calls []healthCall
}

func (f *fakeHealth) Record(agent string, success bool, _ time.Duration, _ string) {
	f.calls = append(f.calls, healthCall{agent, success})
}

type eventLog struct {
	mu     sync.Mutex
	events []any
}

func (l *eventLog) Write(v any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, v)
	return nil
}

type harness struct {
	ctrl    *Controller
	store   *fakeStore
	archive *fakeArchive
	health  *fakeHealth
	events  *eventLog
}

func newHarness(t *testing.T, results map[string]Outcome) *harness {
	t.Helper()
	d, err := NewDispatcher(&fakeExecutor{results: results}, 0)
	if err != nil {
		t.Fatal(err)
	}
	h := &harness{store: &fakeStore{}, archive: &fakeArchive{}, health: &fakeHealth{}, events: &eventLog{}}
	h.ctrl, err = NewController(d, ControllerOptions{
		Store:         h.store,
		Archive:       h.archive,
		Health:        h.health,
		Events:        h.events,
		Logger:        logging.Nop(),
		MinimumAgents: 3,
	})
	if err != nil {
		t.Fatal(err)
	}
	h.ctrl.newID = func() string { return "round-1" }
	return h
}

func tasksFor(ids ...string) []Task {
	tasks := make([]Task, len(ids))
	for i, id := range ids {
		tasks[i] = Task{WorkerID: "agent-" + id, ID: id, Prompt: "p"}
	}
	return tasks
}

func TestController_DesignRound(t *testing.T) {
	h := newHarness(t, map[string]Outcome{
		"t0": {Succeeded: true, Stdout: "A plain note."},
		"t1": {Error: "boom", Exit: ExitMetadata{Code: 2}},
		"t2": {Succeeded: true, Stdout: richDesign},
		"t3": {Error: "timed out after 300s", Exit: ExitMetadata{Code: -1, TimedOut: true}},
		"t4": {Succeeded: true, Stdout: "Short design with an api."},
	})

	sel, err := h.ctrl.Run(context.Background(), Round{
		Kind: criteria.KindDesign, Tasks: tasksFor("t0", "t1", "t2", "t3", "t4"),
		Language: "go", Command: "design",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if sel.RoundID != "round-1" || sel.Path != "plan/app.md" {
		t.Fatalf("unexpected selection %+v", sel)
	}
	if sel.Succeeded() != 3 || len(sel.Ranked) != 3 {
		t.Fatalf("want 3 succeeded and ranked, got %d/%d", sel.Succeeded(), len(sel.Ranked))
	}
	if sel.Winner.Outcome.TaskID != "t2" {
		t.Fatalf("want t2 to win, got %s", sel.Winner.Outcome.TaskID)
	}
	for i := 1; i < len(sel.Ranked); i++ {
		if sel.Ranked[i].Score.Overall > sel.Ranked[i-1].Score.Overall {
			t.Fatalf("ranking not descending at %d", i)
		}
	}

	if len(h.store.saves) != 1 {
		t.Fatalf("want 1 save, got %d", len(h.store.saves))
	}
	saved := h.store.saves[0]
	if saved.content != richDesign {
		t.Fatal("saved content is not the winner's stdout")
	}
	for _, key := range []string{"command", "round_id", "agent_name", "evaluation_score", "criteria", "feedback", "candidates"} {
		if _, ok := saved.meta[key]; !ok {
			t.Errorf("metadata missing %q", key)
		}
	}
	if saved.meta["agent_name"] != "agent-t2" || saved.meta["candidates"] != 3 {
		t.Errorf("unexpected metadata %v", saved.meta)
	}

	if h.archive.calls != 1 || h.archive.kind != "design" {
		t.Fatalf("archive calls=%d kind=%q", h.archive.calls, h.archive.kind)
	}
	if len(h.archive.candidates) != 4 || len(sel.Archived) != 4 {
		t.Fatalf("want 4 archived candidates, got %d", len(h.archive.candidates))
	}
	var failed int
	for _, c := range h.archive.candidates {
		if c.Agent == "agent-t2" {
			t.Fatal("winner must not be archived")
		}
		if c.Metadata["succeeded"] == false {
			failed++
		}
	}
	if failed != 2 {
		t.Fatalf("want 2 failed archived, got %d", failed)
	}

	if len(h.health.calls) != 5 {
		t.Fatalf("want 5 health records, got %d", len(h.health.calls))
	}
}

func TestController_Events(t *testing.T) {
	h := newHarness(t, map[string]Outcome{
		"t1": {Error: "boom"},
	})
	if _, err := h.ctrl.Run(context.Background(), Round{
		Kind: criteria.KindDesign, Tasks: tasksFor("t0", "t1"),
	}); err != nil {
		t.Fatal(err)
	}

	ev := h.events.events
	if len(ev) != 5 {
		t.Fatalf("want 5 events, got %d: %v", len(ev), ev)
	}
	if e, ok := ev[0].(output.Event); !ok || e.Type != "round.started" || e.Tasks != 2 {
		t.Fatalf("first event = %#v", ev[0])
	}
	statuses := map[string]string{}
	for _, v := range ev[1:3] {
		r, ok := v.(output.TaskResult)
		if !ok {
			t.Fatalf("want TaskResult, got %#v", v)
		}
		statuses[r.TaskID] = r.Status
	}
	if statuses["t0"] != output.StatusOK || statuses["t1"] != output.StatusFail {
		t.Fatalf("statuses = %v", statuses)
	}
	if c, ok := ev[3].(output.CandidateResult); !ok || c.Rank != 1 || !c.Selected || c.Round != "round-1" {
		t.Fatalf("candidate event = %#v", ev[3])
	}
	if e, ok := ev[4].(output.Event); !ok || e.Type != "round.finished" || e.Winner != "agent-t0" || e.Succeeded != 1 {
		t.Fatalf("last event = %#v", ev[4])
	}
}

func TestController_NoSuccessfulCandidates(t *testing.T) {
	h := newHarness(t, map[string]Outcome{
		"t0": {Error: "a"},
		"t1": {Error: "b"},
		"t2": {Error: "c"},
	})
	sel, err := h.ctrl.Run(context.Background(), Round{Kind: criteria.KindDesign, Tasks: tasksFor("t0", "t1", "t2")})
	if !errors.Is(err, ErrNoSuccessfulCandidates) {
		t.Fatalf("want ErrNoSuccessfulCandidates, got %v", err)
	}
	if sel != nil {
		t.Fatal("want nil selection")
	}
	if len(h.store.saves) != 0 || h.archive.calls != 0 {
		t.Fatalf("nothing should be persisted: saves=%d archives=%d", len(h.store.saves), h.archive.calls)
	}
	if len(h.health.calls) != 3 {
		t.Fatalf("want 3 health records, got %d", len(h.health.calls))
	}
	last := h.events.events[len(h.events.events)-1].(output.Event)
	if last.Type != "round.finished" || last.Error == "" {
		t.Fatalf("last event = %#v", last)
	}
}

func TestController_PersistErrorIsReturned(t *testing.T) {
	h := newHarness(t, nil)
	h.store.err = errors.New("disk full")
	_, err := h.ctrl.Run(context.Background(), Round{Kind: criteria.KindDesign, Tasks: tasksFor("t0")})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("want persist error, got %v", err)
	}
	if h.archive.calls != 0 {
		t.Fatal("archive should not run after a failed save")
	}
}

func TestController_ArchiveErrorIsTolerated(t *testing.T) {
	h := newHarness(t, nil)
	h.archive.err = errors.New("read-only")
	sel, err := h.ctrl.Run(context.Background(), Round{Kind: criteria.KindDesign, Tasks: tasksFor("t0", "t1")})
	if err != nil {
		t.Fatalf("archive failure must not fail the round: %v", err)
	}
	if sel.Path == "" || len(sel.Archived) != 0 {
		t.Fatalf("unexpected selection %+v", sel)
	}
}

func TestController_FeatureRoundPrefersValidStructure(t *testing.T) {
	valid := "## 2.1 Alpha\nshort\n## 2.2 Beta\nshort\n"
	invalid := "## 2.1 Alpha\n" + strings.Repeat("Implement the interface with a struct, a goroutine and a channel; handle error paths, test it, and document the algorithm. ", 20)
	h := newHarness(t, map[string]Outcome{
		"t0": {Succeeded: true, Stdout: invalid},
		"t1": {Succeeded: true, Stdout: valid},
	})

	sel, err := h.ctrl.Run(context.Background(), Round{
		Kind: criteria.KindFeature, Tasks: tasksFor("t0", "t1"),
		Language: "go", SectionID: "2", Expected: []string{"alpha", "beta"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if sel.Winner.Outcome.TaskID != "t1" {
		t.Fatalf("want structurally valid t1 to win, got %s", sel.Winner.Outcome.TaskID)
	}

	meta := h.store.saves[0].meta
	if h.store.saves[0].sectionID != "2" || meta["section_id"] != "2" {
		t.Fatalf("section not passed through: %v", meta)
	}
	if meta["is_valid"] != true || meta["structural_score"] != 1.0 {
		t.Fatalf("structure metadata = %v", meta)
	}
	if got := h.archive.candidates[0].SectionID; got != "2" {
		t.Fatalf("archived section = %q", got)
	}
}

func TestController_CodeRoundSkipsEmptyOutputs(t *testing.T) {
	h := newHarness(t, map[string]Outcome{
		"t0": {Succeeded: true, Stdout: "done"},
		"t1": {Succeeded: true, OutputFiles: map[string]string{"main.go": "package main\n\nfunc main() {}\n"}},
	})

	sel, err := h.ctrl.Run(context.Background(), Round{
		Kind: criteria.KindCode, Tasks: tasksFor("t0", "t1"),
		Language: "go", FeatSpecs: []string{"feat_1.md"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(sel.Ranked) != 1 || sel.Winner.Outcome.TaskID != "t1" {
		t.Fatalf("want only t1 ranked, got %+v", sel.Ranked)
	}
	saved := h.store.saves[0]
	if saved.kind != "code" || saved.files["main.go"] == "" || saved.featSpecs[0] != "feat_1.md" {
		t.Fatalf("unexpected save %+v", saved)
	}
	if _, ok := saved.meta["code_quality"]; !ok {
		t.Fatal("code_quality missing from metadata")
	}
	if len(h.archive.candidates) != 1 {
		t.Fatalf("want the empty candidate archived, got %d", len(h.archive.candidates))
	}
	empty := h.archive.candidates[0]
	if empty.Agent != "agent-t0" || empty.Metadata["no_files"] != true || empty.Metadata["succeeded"] != true {
		t.Fatalf("unexpected archived candidate %+v", empty)
	}
}

func TestController_ConcurrentRunsKeepRoundIDs(t *testing.T) {
	h := newHarness(t, nil)
	var n atomic.Int32
	h.ctrl.newID = func() string { return fmt.Sprintf("round-%d", n.Add(1)) }

	var wg sync.WaitGroup
	sels := make([]*Selection, 2)
	for i := range sels {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tasks := tasksFor(fmt.Sprintf("r%d-a", i), fmt.Sprintf("r%d-b", i))
			sel, err := h.ctrl.Run(context.Background(), Round{Kind: criteria.KindDesign, Tasks: tasks})
			if err != nil {
				t.Errorf("Run: %v", err)
				return
			}
			sels[i] = sel
		}(i)
	}
	wg.Wait()

	roundOf := make(map[string]string)
	for _, sel := range sels {
		if sel == nil {
			t.FailNow()
		}
		for _, o := range sel.Outcomes {
			roundOf[o.TaskID] = sel.RoundID
		}
	}
	if sels[0].RoundID == sels[1].RoundID {
		t.Fatalf("rounds share id %s", sels[0].RoundID)
	}
	seen := 0
	for _, ev := range h.events.events {
		tr, ok := ev.(output.TaskResult)
		if !ok {
			continue
		}
		seen++
		if tr.Round != roundOf[tr.TaskID] {
			t.Fatalf("task %s reported under %s, want %s", tr.TaskID, tr.Round, roundOf[tr.TaskID])
		}
	}
	if seen != 4 {
		t.Fatalf("want 4 task results, got %d", seen)
	}
}

func TestController_Canceled(t *testing.T) {
	h := newHarness(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.ctrl.Run(ctx, Round{Kind: criteria.KindDesign, Tasks: tasksFor("t0", "t1")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if len(h.store.saves) != 0 || h.archive.calls != 0 {
		t.Fatal("canceled round must not persist")
	}
}

func TestController_RejectsEmptyRound(t *testing.T) {
	h := newHarness(t, nil)
	if _, err := h.ctrl.Run(context.Background(), Round{Kind: criteria.KindDesign}); err == nil {
		t.Fatal("expected error for a round without tasks")
	}
}

func TestNewController_Validation(t *testing.T) {
	d, _ := NewDispatcher(&fakeExecutor{}, 0)
	if _, err := NewController(nil, ControllerOptions{Store: &fakeStore{}}); err == nil {
		t.Fatal("expected error for nil dispatcher")
	}
	if _, err := NewController(d, ControllerOptions{}); err == nil {
		t.Fatal("expected error for nil store")
	}
}
