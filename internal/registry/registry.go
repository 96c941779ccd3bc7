// Package registry discovers worker agents from markdown definitions and
// picks the healthiest ones for a round.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"conclave/internal/logging"

	"golang.org/x/sync/singleflight"
)

// ErrNoAgents is returned when no agent offers the requested capability.
var ErrNoAgents = errors.New("no agents available")

// RescanInterval is how long a scan stays fresh.
const RescanInterval = 5 * time.Minute

type Registry struct {
	dir    string
	health *Health
	log    logging.Logger
	now    func() time.Time
	group  singleflight.Group

	mu       sync.RWMutex
	agents   map[string]Agent
	lastScan time.Time
}

// New returns a registry over dir. health may be nil, in which case every
// agent ranks as unknown.
func New(dir string, health *Health, log logging.Logger) *Registry {
	if log == nil {
		log = logging.Nop()
	}
	return &Registry{
		dir:    dir,
		health: health,
		log:    log,
		now:    time.Now,
		agents: map[string]Agent{},
	}
}

func (r *Registry) Dir() string { return r.dir }

// Scan reloads agent definitions unless the last scan is younger than
// RescanInterval. Concurrent callers share one scan. A missing directory
// leaves the registry empty and is not an error; unparsable files are
// skipped with a warning.
func (r *Registry) Scan(force bool) error {
	r.mu.RLock()
	fresh := !r.lastScan.IsZero() && r.now().Sub(r.lastScan) < RescanInterval
	r.mu.RUnlock()
	if fresh && !force {
		return nil
	}

	_, err, _ := r.group.Do("scan", func() (any, error) {
		agents, err := r.load()
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.agents = agents
		r.lastScan = r.now()
		r.mu.Unlock()
		return nil, nil
	})
	return err
}

func (r *Registry) load() (map[string]Agent, error) {
	agents := map[string]Agent{}
	if _, err := os.Stat(r.dir); os.IsNotExist(err) {
		r.log.Warn("agents directory not found", "dir", r.dir)
		return agents, nil
	}
	paths, err := filepath.Glob(filepath.Join(r.dir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("scan agents: %w", err)
	}
	sort.Strings(paths)
	for _, p := range paths {
		a, err := ParseAgentFile(p)
		if err != nil {
			r.log.Warn("skipping agent file", "path", p, "error", err)
			continue
		}
		agents[a.Name] = a
	}
	r.log.Debug("agents scanned", "dir", r.dir, "count", len(agents))
	return agents, nil
}

// Agents returns every known agent sorted by name.
func (r *Registry) Agents() []Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Agent, 0, len(r.agents))
	for _, a := range r.agents {
		out = append(out, a)
	}
	sortByName(out)
	return out
}

func (r *Registry) Lookup(name string) (Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[name]
	return a, ok
}

func (r *Registry) Stats() Stats {
	return statsOf(r.Agents())
}

// BestAgents returns up to n agents with capability, best health first
// (success rate descending, then latency ascending, then name). When
// language is set and at least one candidate has that affinity, only those
// are considered. n <= 0 returns every candidate.
func (r *Registry) BestAgents(capability, language string, n int) []Agent {
	var candidates []Agent
	for _, a := range r.Agents() {
		if a.Has(capability) {
			candidates = append(candidates, a)
		}
	}
	if language = strings.ToLower(language); language != "" {
		var matched []Agent
		for _, a := range candidates {
			if a.Language == language {
				matched = append(matched, a)
			}
		}
		if len(matched) > 0 {
			candidates = matched
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ri, li := r.health.rank(candidates[i].Name)
		rj, lj := r.health.rank(candidates[j].Name)
		if ri != rj {
			return ri > rj
		}
		return li < lj
	})
	if n > 0 && len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}

// Select scans if needed and returns the best n agents, or ErrNoAgents.
func (r *Registry) Select(capability, language string, n int) ([]Agent, error) {
	if err := r.Scan(false); err != nil {
		return nil, err
	}
	agents := r.BestAgents(capability, language, n)
	if len(agents) == 0 {
		return nil, fmt.Errorf("%w with capability %q in %s", ErrNoAgents, capability, r.dir)
	}
	return agents, nil
}
