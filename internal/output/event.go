package output

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line):
// - round.started
// - task.finished
// - candidate.ranked
// - round.finished
//
// JSON mode remains an aggregate of CandidateResult values.
type Event struct {
	Type  string `json:"type"`
	Round string `json:"round,omitempty"`
	Kind  string `json:"kind,omitempty"`
	*TaskResult
	*CandidateResult `json:"candidate,omitempty"`
	Tasks            int    `json:"tasks,omitempty"`
	Succeeded        int    `json:"succeeded,omitempty"`
	Winner           string `json:"winner,omitempty"`
	Path             string `json:"path,omitempty"`
	Error            string `json:"error,omitempty"`
}

// Task statuses.
const (
	StatusOK       = "OK"
	StatusFail     = "FAIL"
	StatusTimeout  = "TIMEOUT"
	StatusCanceled = "CANCELED"
)

// TaskResult reports one finished worker task.
type TaskResult struct {
	Round     string `json:"-"`
	Agent     string `json:"agent"`
	TaskID    string `json:"task_id"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms"`
	ExitCode  int    `json:"exit_code"`
}

// CandidateResult reports one scored candidate in rank order.
type CandidateResult struct {
	Round      string             `json:"round"`
	Kind       string             `json:"kind"`
	Rank       int                `json:"rank"`
	Agent      string             `json:"agent"`
	TaskID     string             `json:"task_id"`
	Overall    float64            `json:"overall_score"`
	Criteria   map[string]float64 `json:"criteria"`
	Feedback   string             `json:"feedback"`
	Valid      *bool              `json:"structurally_valid,omitempty"`
	Selected   bool               `json:"selected"`
	Strengths  []string           `json:"strengths,omitempty"`
	Weaknesses []string           `json:"weaknesses,omitempty"`
}

func eventFromTask(r TaskResult) Event {
	return Event{Type: "task.finished", Round: r.Round, TaskResult: &r}
}

func eventFromCandidate(r CandidateResult) Event {
	return Event{Type: "candidate.ranked", Round: r.Round, Kind: r.Kind, CandidateResult: &r}
}
