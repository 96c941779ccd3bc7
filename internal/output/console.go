package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

type ConsoleSink struct {
	writer          io.Writer
	format          string // "text", "json", "ndjson"
	mu              sync.Mutex
	results         []CandidateResult // For JSON array output
	allowedStatuses map[string]bool
}

func NewConsoleSink(w io.Writer, format string, filterStatuses []string) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}

	s := &ConsoleSink{
		writer: w,
		format: format,
	}

	if len(filterStatuses) > 0 {
		s.allowedStatuses = make(map[string]bool)
		for _, st := range filterStatuses {
			s.allowedStatuses[strings.ToUpper(st)] = true
		}
	}

	return s
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(v)
}

func (s *ConsoleSink) writeLocked(v any) error {
	if len(s.allowedStatuses) > 0 {
		if r, ok := v.(TaskResult); ok {
			if !s.allowedStatuses[r.Status] {
				return nil
			}
		}
	}

	switch s.format {
	case "json":
		if r, ok := v.(CandidateResult); ok {
			s.results = append(s.results, r)
		}
		return nil
	case "ndjson":
		return encodeEvent(s.writer, v)
	case "text":
		var err error
		switch r := v.(type) {
		case TaskResult:
			err = writeTaskLine(s.writer, r)
		case CandidateResult:
			err = writeCandidateLine(s.writer, r)
		default:
			// Ignore lifecycle events in text mode.
			return nil
		}
		if err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}

func writeTaskLine(w io.Writer, r TaskResult) error {
	elapsed := time.Duration(r.ElapsedMS) * time.Millisecond
	line := fmt.Sprintf("[%s] %s: %s (%.1fs)", r.Status, r.Agent, r.TaskID, elapsed.Seconds())
	if r.Message != "" {
		line += " - " + firstLine(r.Message)
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

func writeCandidateLine(w io.Writer, r CandidateResult) error {
	line := fmt.Sprintf("#%d %s: %.3f", r.Rank, r.Agent, r.Overall)
	if r.Valid != nil && !*r.Valid {
		line += " (structure invalid)"
	}
	if r.Selected {
		line += " (selected)"
	}
	if r.Feedback != "" {
		line += " - " + r.Feedback
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// encodeEvent writes v as one NDJSON event. Unknown values are ignored.
func encodeEvent(w io.Writer, v any) error {
	var e Event
	switch t := v.(type) {
	case Event:
		e = t
	case TaskResult:
		e = eventFromTask(t)
	case CandidateResult:
		e = eventFromCandidate(t)
	default:
		return nil
	}
	if err := json.NewEncoder(w).Encode(e); err != nil {
		return err
	}
	return flushIfPossible(w)
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == "json" {
		encoder := json.NewEncoder(s.writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(s.resultsOrEmpty()); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	}
	if s.format != "text" && s.format != "ndjson" {
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
	return nil
}

func (s *ConsoleSink) resultsOrEmpty() []CandidateResult {
	if s.results == nil {
		return []CandidateResult{}
	}
	return s.results
}
