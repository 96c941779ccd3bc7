package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestConsoleSink_Filtering(t *testing.T) {
	tests := []struct {
		name           string
		format         string
		filterStatuses []string
		input          TaskResult
		shouldWrite    bool
	}{
		{
			name:        "text - no filter - ok",
			format:      "text",
			input:       TaskResult{Status: StatusOK, Agent: "a", TaskID: "t"},
			shouldWrite: true,
		},
		{
			name:           "text - filter FAIL - input OK",
			format:         "text",
			filterStatuses: []string{"FAIL"},
			input:          TaskResult{Status: StatusOK, Agent: "a", TaskID: "t"},
			shouldWrite:    false,
		},
		{
			name:           "text - filter FAIL - input FAIL",
			format:         "text",
			filterStatuses: []string{"FAIL"},
			input:          TaskResult{Status: StatusFail, Agent: "a", TaskID: "t"},
			shouldWrite:    true,
		},
		{
			name:           "text - filter FAIL,TIMEOUT - input TIMEOUT",
			format:         "text",
			filterStatuses: []string{"FAIL", "TIMEOUT"},
			input:          TaskResult{Status: StatusTimeout, Agent: "a", TaskID: "t"},
			shouldWrite:    true,
		},
		{
			name:           "ndjson - filter FAIL - input OK",
			format:         "ndjson",
			filterStatuses: []string{"FAIL"},
			input:          TaskResult{Status: StatusOK, Agent: "a", TaskID: "t"},
			shouldWrite:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			sink := NewConsoleSink(&buf, tt.format, tt.filterStatuses)
			if err := sink.Write(tt.input); err != nil {
				t.Fatalf("Write error: %v", err)
			}
			wroteSomething := buf.Len() > 0
			if tt.shouldWrite && !wroteSomething {
				t.Errorf("expected output, got none")
			}
			if !tt.shouldWrite && wroteSomething {
				t.Errorf("expected no output, got: %q", buf.String())
			}
		})
	}
}

func TestConsoleSink_Filtering_CaseInsensitive(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, "text", []string{"fail"})

	if err := sink.Write(TaskResult{Status: StatusFail, Agent: "a", TaskID: "t"}); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("expected output for case-insensitive match, got none")
	}
}

func TestConsoleSink_TextLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, "text", nil)

	valid := false
	inputs := []any{
		Event{Type: "round.started", Round: "r1"},
		TaskResult{Status: StatusFail, Agent: "architect", TaskID: "design_0_1", ElapsedMS: 1500, Message: "boom\nmore"},
		CandidateResult{Rank: 1, Agent: "planner", Overall: 0.8123, Feedback: "Good", Selected: true, Valid: &valid},
	}
	for _, in := range inputs {
		if err := sink.Write(in); err != nil {
			t.Fatalf("Write error: %v", err)
		}
	}

	got := buf.String()
	for _, want := range []string{
		"[FAIL] architect: design_0_1 (1.5s) - boom\n",
		"#1 planner: 0.812 (structure invalid) (selected) - Good\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q; got:\n%s", want, got)
		}
	}
	if strings.Contains(got, "round.started") {
		t.Errorf("text mode should ignore lifecycle events; got:\n%s", got)
	}
}

func TestConsoleSink_JSONAggregatesCandidates(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, "json", nil)

	_ = sink.Write(TaskResult{Status: StatusOK, Agent: "a", TaskID: "t"})
	_ = sink.Write(CandidateResult{Rank: 1, Agent: "a", Overall: 0.5})
	if buf.Len() != 0 {
		t.Fatalf("json mode should buffer until Close; got %q", buf.String())
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	var got []CandidateResult
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if len(got) != 1 || got[0].Agent != "a" {
		t.Fatalf("want one candidate, got %+v", got)
	}
}

func TestConsoleSink_JSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, "json", nil)
	if err := sink.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("want [], got %q", buf.String())
	}
}

func TestConsoleSink_UnsupportedFormat(t *testing.T) {
	sink := NewConsoleSink(&bytes.Buffer{}, "yaml", nil)
	if err := sink.Write(TaskResult{}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
