package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const (
	latencyDecay   = 0.8
	recentFailures = 5
)

// AgentHealth is the running record of one agent's invocations.
type AgentHealth struct {
	Agent       string  `json:"agent_name"`
	SuccessRate float64 `json:"success_rate"`
	// AvgLatency is an exponential moving average in seconds.
	AvgLatency     float64    `json:"avg_latency"`
	Total          int        `json:"total_invocations"`
	Successes      int        `json:"successes"`
	LastSuccess    *time.Time `json:"last_success,omitempty"`
	LastFailure    *time.Time `json:"last_failure,omitempty"`
	RecentFailures []string   `json:"recent_failures,omitempty"`
}

// Health tracks agent outcomes across runs. It is safe for concurrent use.
type Health struct {
	path string
	now  func() time.Time

	mu      sync.Mutex
	records map[string]*AgentHealth
}

// NewHealth returns an empty in-memory store; Save writes it to path.
func NewHealth(path string) *Health {
	return &Health{path: path, now: time.Now, records: map[string]*AgentHealth{}}
}

// LoadHealth reads the store at path. A missing file yields an empty store.
func LoadHealth(path string) (*Health, error) {
	h := NewHealth(path)
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return h, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read health store: %w", err)
	}
	var records map[string]*AgentHealth
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("parse health store %s: %w", path, err)
	}
	for name, r := range records {
		if r == nil {
			continue
		}
		r.Agent = name
		h.records[name] = r
	}
	return h, nil
}

// Record adds one invocation. The first latency sample is taken as-is.
func (h *Health) Record(agent string, success bool, latency time.Duration, errMsg string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.records[agent]
	if !ok {
		r = &AgentHealth{Agent: agent}
		h.records[agent] = r
	}
	secs := latency.Seconds()
	if r.Total == 0 || r.AvgLatency == 0 {
		r.AvgLatency = secs
	} else {
		r.AvgLatency = r.AvgLatency*latencyDecay + secs*(1-latencyDecay)
	}
	r.Total++

	now := h.now()
	if success {
		r.Successes++
		r.LastSuccess = &now
	} else {
		r.LastFailure = &now
		if errMsg != "" {
			r.RecentFailures = append(r.RecentFailures, errMsg)
			if n := len(r.RecentFailures); n > recentFailures {
				r.RecentFailures = append([]string(nil), r.RecentFailures[n-recentFailures:]...)
			}
		}
	}
	r.SuccessRate = float64(r.Successes) / float64(r.Total)
}

// Get returns a copy of the agent's record.
func (h *Health) Get(agent string) (AgentHealth, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.records[agent]
	if !ok {
		return AgentHealth{}, false
	}
	return copyHealth(r), true
}

// Snapshot returns every record sorted by agent name.
func (h *Health) Snapshot() []AgentHealth {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]AgentHealth, 0, len(h.records))
	for _, r := range h.records {
		out = append(out, copyHealth(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Agent < out[j].Agent })
	return out
}

// rank is the sort key used by BestAgents. Unknown agents rank as perfectly
// healthy.
func (h *Health) rank(agent string) (rate, latency float64) {
	if h == nil {
		return 1, 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.records[agent]; ok {
		return r.SuccessRate, r.AvgLatency
	}
	return 1, 0
}

// Save writes the store atomically. A store without a path is not saved.
func (h *Health) Save() error {
	if h.path == "" {
		return nil
	}
	h.mu.Lock()
	b, err := json.MarshalIndent(h.records, "", "  ")
	h.mu.Unlock()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return fmt.Errorf("save health store: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(h.path), ".health-*.json")
	if err != nil {
		return fmt.Errorf("save health store: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(b, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("save health store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save health store: %w", err)
	}
	if err := os.Rename(tmp.Name(), h.path); err != nil {
		return fmt.Errorf("save health store: %w", err)
	}
	return nil
}

func copyHealth(r *AgentHealth) AgentHealth {
	c := *r
	c.RecentFailures = append([]string(nil), r.RecentFailures...)
	return c
}
