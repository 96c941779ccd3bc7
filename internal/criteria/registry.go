package criteria

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	registry = make(map[string]Criterion)
	mu       sync.RWMutex
)

func Register(c Criterion) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[c.ID()]; exists {
		panic(fmt.Sprintf("criterion %s already registered", c.ID()))
	}
	registry[c.ID()] = c
}

func List() []Criterion {
	mu.RLock()
	defer mu.RUnlock()
	return listLocked()
}

func listLocked() []Criterion {
	var out []Criterion
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID() < out[j].ID()
	})
	return out
}

// Lookup returns the criterion registered for kind under name.
func Lookup(kind Kind, name string) (Criterion, bool) {
	mu.RLock()
	defer mu.RUnlock()
	c, ok := registry[string(kind)+"."+name]
	return c, ok
}

// Resolve selects criteria by a comma-separated list of IDs. An empty selector
// returns every criterion.
func Resolve(selector string) ([]Criterion, error) {
	mu.RLock()
	defer mu.RUnlock()

	if strings.TrimSpace(selector) == "" {
		return listLocked(), nil
	}

	var selected []Criterion
	for _, id := range strings.Split(selector, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		c, ok := registry[id]
		if !ok {
			return nil, fmt.Errorf("criterion not found: %s", id)
		}
		selected = append(selected, c)
	}
	return selected, nil
}
