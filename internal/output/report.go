package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// ReportSink writes a Markdown summary of every round on Close.
type ReportSink struct {
	path   string
	file   *os.File
	mu     sync.Mutex
	order  []string
	rounds map[string]*roundReport
}

type roundReport struct {
	id         string
	kind       string
	tasks      []TaskResult
	candidates []CandidateResult
	winner     string
	path       string
	err        string
	finished   bool
}

func NewReportSink(path string) (*ReportSink, error) {
	if path == "" {
		return nil, fmt.Errorf("report path required")
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}

	return &ReportSink{
		path:   path,
		file:   f,
		rounds: make(map[string]*roundReport),
	}, nil
}

func (s *ReportSink) round(id string) *roundReport {
	r, ok := s.rounds[id]
	if !ok {
		r = &roundReport{id: id}
		s.rounds[id] = r
		s.order = append(s.order, id)
	}
	return r
}

func (s *ReportSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch t := v.(type) {
	case TaskResult:
		r := s.round(t.Round)
		r.tasks = append(r.tasks, t)
	case CandidateResult:
		r := s.round(t.Round)
		if r.kind == "" {
			r.kind = t.Kind
		}
		r.candidates = append(r.candidates, t)
	case Event:
		r := s.round(t.Round)
		if t.Kind != "" {
			r.kind = t.Kind
		}
		if t.Type == "round.finished" {
			r.finished = true
			r.winner = t.Winner
			r.path = t.Path
			r.err = t.Error
		}
	}
	return nil
}

func (s *ReportSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	b.WriteString("# Conclave Report\n\n")
	if len(s.order) == 0 {
		b.WriteString("No rounds were run.\n")
	}
	for _, id := range s.order {
		writeRound(&b, s.rounds[id])
	}

	if _, err := s.file.WriteString(b.String()); err != nil {
		_ = s.file.Close()
		return err
	}
	return s.file.Close()
}

func writeRound(b *strings.Builder, r *roundReport) {
	title := r.kind
	if title == "" {
		title = "round"
	}
	fmt.Fprintf(b, "## %s round `%s`\n\n", title, r.id)

	ok := 0
	for _, t := range r.tasks {
		if t.Status == StatusOK {
			ok++
		}
	}
	fmt.Fprintf(b, "- Tasks: %d (%d succeeded)\n", len(r.tasks), ok)
	switch {
	case r.err != "":
		fmt.Fprintf(b, "- Result: failed (%s)\n", r.err)
	case r.winner != "":
		fmt.Fprintf(b, "- Winner: %s\n", r.winner)
		if r.path != "" {
			fmt.Fprintf(b, "- Saved to: `%s`\n", r.path)
		}
	case !r.finished:
		b.WriteString("- Result: incomplete\n")
	}
	b.WriteString("\n")

	if len(r.tasks) > 0 {
		b.WriteString("### Tasks\n\n")
		b.WriteString("| Agent | Task | Status | Elapsed | Message |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, t := range r.tasks {
			elapsed := time.Duration(t.ElapsedMS) * time.Millisecond
			fmt.Fprintf(b, "| %s | %s | %s | %.1fs | %s |\n",
				escapeCell(t.Agent), escapeCell(t.TaskID), t.Status, elapsed.Seconds(), escapeCell(firstLine(t.Message)))
		}
		b.WriteString("\n")
	}

	if len(r.candidates) == 0 {
		return
	}

	names := criterionNames(r.candidates)
	b.WriteString("### Ranking\n\n")
	b.WriteString("| Rank | Agent | Overall |")
	for _, n := range names {
		fmt.Fprintf(b, " %s |", n)
	}
	b.WriteString(" Structure |\n|---|---|---|")
	for range names {
		b.WriteString("---|")
	}
	b.WriteString("---|\n")

	for _, c := range r.candidates {
		agent := escapeCell(c.Agent)
		if c.Selected {
			agent = "**" + agent + "**"
		}
		fmt.Fprintf(b, "| %d | %s | %.3f |", c.Rank, agent, c.Overall)
		for _, n := range names {
			fmt.Fprintf(b, " %.2f |", c.Criteria[n])
		}
		switch {
		case c.Valid == nil:
			b.WriteString(" - |\n")
		case *c.Valid:
			b.WriteString(" valid |\n")
		default:
			b.WriteString(" invalid |\n")
		}
	}
	b.WriteString("\n")

	for _, c := range r.candidates {
		if !c.Selected {
			continue
		}
		fmt.Fprintf(b, "### Selected: %s\n\n%s\n\n", c.Agent, c.Feedback)
		writeList(b, "Strengths", c.Strengths)
		writeList(b, "Weaknesses", c.Weaknesses)
	}
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s**\n\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}

func criterionNames(cs []CandidateResult) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, c := range cs {
		for n := range c.Criteria {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
