package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"conclave/internal/criteria"
	"conclave/internal/logging"
	"conclave/internal/output"
	"conclave/internal/scoring"
	"conclave/internal/store"

	"github.com/google/uuid"
)

// ErrNoSuccessfulCandidates is returned when every task in a round failed.
var ErrNoSuccessfulCandidates = errors.New("no successful candidates")

// Persistence stores the selected candidate.
type Persistence interface {
	SaveDesign(content string, meta store.Metadata) (string, error)
	SaveFeature(sectionID, content string, meta store.Metadata) (string, error)
	SaveCode(featSpecs []string, files map[string]string, meta store.Metadata) (string, error)
}

// Archival keeps the candidates that were not selected.
type Archival interface {
	ArchiveCandidates(kind string, candidates []store.Candidate) ([]string, error)
}

// HealthRecorder observes every worker outcome.
type HealthRecorder interface {
	Record(agent string, success bool, latency time.Duration, errMsg string)
}

// EventWriter receives task results, candidate results and lifecycle events.
type EventWriter interface {
	Write(v any) error
}

// Round is one competitive generation request.
type Round struct {
	Kind      criteria.Kind
	Tasks     []Task
	Language  string
	SectionID string
	FeatSpecs []string
	// Expected is the subsection outline a feature spec must keep.
	Expected []string
	Command  string
}

// Candidate is a scored successful outcome.
type Candidate struct {
	Outcome Outcome
	Score   scoring.CandidateScore
}

// Selection is the result of a round.
type Selection struct {
	RoundID  string
	Kind     criteria.Kind
	Winner   Candidate
	Ranked   []Candidate
	Outcomes []Outcome
	Path     string
	Archived []string
	Elapsed  time.Duration
}

// Succeeded counts the successful outcomes of the round.
func (s *Selection) Succeeded() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Succeeded {
			n++
		}
	}
	return n
}

type ControllerOptions struct {
	Store   Persistence
	Archive Archival
	Health  HealthRecorder
	Events  EventWriter
	Logger  logging.Logger
	// MinimumAgents is the success count below which a warning is logged.
	MinimumAgents int
}

// Controller runs rounds: dispatch, rank, persist the winner, archive the
// rest. Concurrent Run calls are serialized.
type Controller struct {
	dispatcher *Dispatcher
	store      Persistence
	archive    Archival
	health     HealthRecorder
	events     EventWriter
	log        logging.Logger
	minAgents  int

	mu    sync.Mutex
	round string
	now   func() time.Time
	newID func() string
}

// NewController takes ownership of d's OnOutcome hook.
func NewController(d *Dispatcher, opts ControllerOptions) (*Controller, error) {
	if d == nil {
		return nil, errors.New("dispatcher is nil")
	}
	if opts.Store == nil {
		return nil, errors.New("persistence is nil")
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	c := &Controller{
		dispatcher: d,
		store:      opts.Store,
		archive:    opts.Archive,
		health:     opts.Health,
		events:     opts.Events,
		log:        log,
		minAgents:  opts.MinimumAgents,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	d.OnOutcome = c.observe
	return c, nil
}

// Run executes one round. A round in which no task succeeded returns
// ErrNoSuccessfulCandidates and persists nothing.
func (c *Controller) Run(ctx context.Context, r Round) (*Selection, error) {
	if len(r.Tasks) == 0 {
		return nil, fmt.Errorf("%s round has no tasks", r.Kind)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	start := c.now()
	c.round = c.newID()
	sel := &Selection{RoundID: c.round, Kind: r.Kind}

	c.emit(output.Event{Type: "round.started", Round: c.round, Kind: string(r.Kind), Tasks: len(r.Tasks)})
	c.log.Info("round started", "round", c.round, "kind", r.Kind, "tasks", len(r.Tasks))

	sel.Outcomes = c.dispatcher.Dispatch(ctx, r.Tasks)
	sel.Elapsed = c.now().Sub(start)

	finish := func(err error) (*Selection, error) {
		ev := output.Event{Type: "round.finished", Round: c.round, Kind: string(r.Kind),
			Tasks: len(r.Tasks), Succeeded: sel.Succeeded(), Path: sel.Path}
		if err != nil {
			ev.Error = err.Error()
		} else {
			ev.Winner = sel.Winner.Outcome.WorkerID
		}
		c.emit(ev)
		if err != nil {
			return nil, err
		}
		return sel, nil
	}

	if err := ctx.Err(); err != nil {
		return finish(fmt.Errorf("%s round canceled: %w", r.Kind, err))
	}

	var outcomes, empty []Outcome
	var artifacts []*criteria.Artifact
	for _, o := range sel.Outcomes {
		if !o.Succeeded {
			continue
		}
		if r.Kind == criteria.KindCode && len(o.OutputFiles) == 0 {
			c.log.Warn("candidate produced no files", "agent", o.WorkerID, "task", o.TaskID)
			empty = append(empty, o)
			continue
		}
		outcomes = append(outcomes, o)
		artifacts = append(artifacts, artifactFor(r, o))
	}

	succeeded := sel.Succeeded()
	if len(outcomes) == 0 {
		c.log.Error("round produced no candidates", "round", c.round, "kind", r.Kind, "tasks", len(r.Tasks))
		return finish(fmt.Errorf("%s round: %w", r.Kind, ErrNoSuccessfulCandidates))
	}
	if succeeded < c.minAgents {
		c.log.Warn("fewer successful candidates than required",
			"kind", r.Kind, "succeeded", succeeded, "minimum", c.minAgents)
	}

	ranked, err := scoring.Rank(r.Kind, artifacts)
	if err != nil {
		return finish(err)
	}
	for i, rk := range ranked {
		cand := Candidate{Outcome: outcomes[rk.Index], Score: rk.Score}
		sel.Ranked = append(sel.Ranked, cand)
		c.emit(candidateResult(c.round, r.Kind, i+1, cand))
	}
	sel.Winner = sel.Ranked[0]

	if r.Kind == criteria.KindFeature && sel.Winner.Score.Structure != nil && !sel.Winner.Score.Structure.Valid {
		c.log.Warn("selected feature spec is missing required sections",
			"section", r.SectionID, "missing", strings.Join(sel.Winner.Score.Structure.Missing, ", "))
	}

	path, err := c.persist(r, sel)
	if err != nil {
		return finish(err)
	}
	sel.Path = path

	if c.archive != nil {
		archived, err := c.archive.ArchiveCandidates(string(r.Kind), losers(r, sel, empty))
		if err != nil {
			c.log.Warn("archiving candidates failed", "kind", r.Kind, "error", err)
		}
		sel.Archived = archived
	}

	c.log.Info("round finished", "round", c.round, "winner", sel.Winner.Outcome.WorkerID,
		"score", sel.Winner.Score.Overall, "path", sel.Path)
	return finish(nil)
}

func artifactFor(r Round, o Outcome) *criteria.Artifact {
	a := &criteria.Artifact{Kind: r.Kind, Language: r.Language}
	switch r.Kind {
	case criteria.KindCode:
		a.Files = o.OutputFiles
	case criteria.KindFeature:
		a.Content = o.Stdout
		a.Expected = r.Expected
	default:
		a.Content = o.Stdout
	}
	return a
}

func (c *Controller) persist(r Round, sel *Selection) (string, error) {
	w := sel.Winner
	meta := store.Metadata{
		"command":          r.Command,
		"round_id":         sel.RoundID,
		"language":         r.Language,
		"agent_name":       w.Outcome.WorkerID,
		"task_id":          w.Outcome.TaskID,
		"execution_time":   w.Outcome.Elapsed.Seconds(),
		"evaluation_score": w.Score.Overall,
		"criteria":         w.Score.Criteria,
		"feedback":         w.Score.Feedback,
		"candidates":       len(sel.Ranked),
	}

	var (
		path string
		err  error
	)
	switch r.Kind {
	case criteria.KindDesign:
		path, err = c.store.SaveDesign(w.Outcome.Stdout, meta)
	case criteria.KindFeature:
		meta["section_id"] = r.SectionID
		if v := w.Score.Structure; v != nil {
			meta["structural_score"] = v.Score
			meta["is_valid"] = v.Valid
			meta["expected_structure"] = v.Expected
			meta["missing_sections"] = v.Missing
		}
		path, err = c.store.SaveFeature(r.SectionID, w.Outcome.Stdout, meta)
	case criteria.KindCode:
		meta["code_quality"] = w.Score.Criteria["code_quality"]
		path, err = c.store.SaveCode(r.FeatSpecs, w.Outcome.OutputFiles, meta)
	default:
		return "", fmt.Errorf("unknown artifact kind: %s", r.Kind)
	}
	if err != nil {
		return "", fmt.Errorf("persist %s: %w", r.Kind, err)
	}
	return path, nil
}

// losers are the non-selected ranked candidates, then the unranked successful
// outcomes, then the failed ones.
func losers(r Round, sel *Selection, unranked []Outcome) []store.Candidate {
	var out []store.Candidate
	for i, cand := range sel.Ranked[1:] {
		sc := cand.Score
		out = append(out, archived(r, cand.Outcome, store.Metadata{
			"rank":             i + 2,
			"succeeded":        true,
			"evaluation_score": sc.Overall,
			"criteria":         sc.Criteria,
			"feedback":         sc.Feedback,
			"strengths":        sc.Strengths,
			"weaknesses":       sc.Weaknesses,
		}))
	}
	for _, o := range unranked {
		out = append(out, archived(r, o, store.Metadata{
			"succeeded": true,
			"no_files":  true,
		}))
	}
	for _, o := range sel.Outcomes {
		if o.Succeeded {
			continue
		}
		out = append(out, archived(r, o, store.Metadata{
			"succeeded": false,
			"error":     o.Error,
			"exit":      o.Exit,
		}))
	}
	return out
}

func archived(r Round, o Outcome, meta store.Metadata) store.Candidate {
	meta["agent_name"] = o.WorkerID
	meta["task_id"] = o.TaskID
	meta["execution_time"] = o.Elapsed.Seconds()
	c := store.Candidate{Agent: o.WorkerID, SectionID: r.SectionID, Metadata: meta}
	if r.Kind == criteria.KindCode {
		c.Files = o.OutputFiles
	} else {
		c.Content = o.Stdout
	}
	return c
}

func (c *Controller) observe(o Outcome) {
	if c.health != nil {
		c.health.Record(o.WorkerID, o.Succeeded, o.Elapsed, o.Error)
	}
	c.emit(taskResult(c.round, o))
	if !o.Succeeded {
		c.log.Warn("worker failed", "agent", o.WorkerID, "task", o.TaskID, "error", o.Error)
	}
}

func (c *Controller) emit(v any) {
	if c.events == nil {
		return
	}
	if err := c.events.Write(v); err != nil {
		c.log.Warn("event sink write failed", "error", err)
	}
}

func taskResult(round string, o Outcome) output.TaskResult {
	status := output.StatusOK
	switch {
	case o.Exit.TimedOut:
		status = output.StatusTimeout
	case o.Exit.Canceled:
		status = output.StatusCanceled
	case !o.Succeeded:
		status = output.StatusFail
	}
	return output.TaskResult{
		Round:     round,
		Agent:     o.WorkerID,
		TaskID:    o.TaskID,
		Status:    status,
		Message:   o.Error,
		ElapsedMS: o.Elapsed.Milliseconds(),
		ExitCode:  o.Exit.Code,
	}
}

func candidateResult(round string, kind criteria.Kind, rank int, c Candidate) output.CandidateResult {
	r := output.CandidateResult{
		Round:      round,
		Kind:       string(kind),
		Rank:       rank,
		Agent:      c.Outcome.WorkerID,
		TaskID:     c.Outcome.TaskID,
		Overall:    c.Score.Overall,
		Criteria:   c.Score.Criteria,
		Feedback:   c.Score.Feedback,
		Selected:   rank == 1,
		Strengths:  c.Score.Strengths,
		Weaknesses: c.Score.Weaknesses,
	}
	if c.Score.Structure != nil {
		valid := c.Score.Structure.Valid
		r.Valid = &valid
	}
	return r
}
