package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Candidate is one non-selected (or failed) result to keep for diagnostics.
type Candidate struct {
	Agent     string
	SectionID string
	// Content is the document text (design, feat).
	Content string
	// Files is the code bundle (dev).
	Files    map[string]string
	Metadata Metadata
}

// ArchiveEntry describes one archived round.
type ArchiveEntry struct {
	Timestamp      string   `json:"timestamp"`
	Kind           string   `json:"task_type"`
	CandidateCount int      `json:"candidate_count"`
	ArchivedFiles  []string `json:"archived_files"`
	Path           string   `json:"-"`
}

// ArchiveCandidates writes candidates under archive/<kind>/<stamp> with one
// metadata file each and an archive_index.json. It returns the archived paths.
func (s *Store) ArchiveCandidates(kind string, candidates []Candidate) ([]string, error) {
	stamp := s.now().Format(stampLayout)
	dir, err := freshDir(filepath.Join(s.ArchiveDir(), kind, stamp))
	if err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}

	var paths, names []string
	used := make(map[string]bool, len(candidates))
	for i, c := range candidates {
		agent := safeName(c.Agent)
		if agent == "" {
			agent = fmt.Sprintf("agent_%d", i)
		}

		var name string
		switch kind {
		case "design":
			name = "app_" + agent + ".md"
		case "feat":
			sid := safeName(c.SectionID)
			if sid == "" {
				sid = "unknown"
			}
			name = "feat_" + sid + "_" + agent + ".md"
		default:
			name = "code_" + agent
		}
		name = uniqueName(name, used)

		p := filepath.Join(dir, name)
		if kind == "dev" && c.Files != nil {
			if err := writeTree(p, c.Files); err != nil {
				return paths, fmt.Errorf("archive %s: %w", name, err)
			}
		} else if err := writeFile(p, c.Content); err != nil {
			return paths, fmt.Errorf("archive %s: %w", name, err)
		}
		if err := s.writeMetadata(p+".metadata.json", c.Metadata); err != nil {
			return paths, fmt.Errorf("archive %s metadata: %w", name, err)
		}
		paths = append(paths, p)
		names = append(names, name)
	}

	index := ArchiveEntry{
		Timestamp:      stamp,
		Kind:           kind,
		CandidateCount: len(candidates),
		ArchivedFiles:  names,
	}
	if index.ArchivedFiles == nil {
		index.ArchivedFiles = []string{}
	}
	b, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return paths, err
	}
	if err := writeFile(filepath.Join(dir, "archive_index.json"), string(b)+"\n"); err != nil {
		return paths, fmt.Errorf("write archive index: %w", err)
	}
	s.log.Info("candidates archived", "kind", kind, "count", len(candidates), "dir", dir)
	return paths, nil
}

// ArchiveHistory lists archived rounds newest first. An empty kind covers
// every kind. Unreadable indexes are skipped.
func (s *Store) ArchiveHistory(kind string) ([]ArchiveEntry, error) {
	kinds := []string{kind}
	if kind == "" {
		dirs, err := os.ReadDir(s.ArchiveDir())
		if os.IsNotExist(err) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		kinds = kinds[:0]
		for _, d := range dirs {
			if d.IsDir() {
				kinds = append(kinds, d.Name())
			}
		}
	}

	var entries []ArchiveEntry
	for _, k := range kinds {
		root := filepath.Join(s.ArchiveDir(), k)
		dirs, err := os.ReadDir(root)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, d := range dirs {
			if !d.IsDir() {
				continue
			}
			p := filepath.Join(root, d.Name())
			b, err := os.ReadFile(filepath.Join(p, "archive_index.json"))
			if err != nil {
				continue
			}
			var e ArchiveEntry
			if err := json.Unmarshal(b, &e); err != nil || e.Timestamp == "" {
				continue
			}
			e.Path = p
			entries = append(entries, e)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})
	return entries, nil
}

func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ' ' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
}

// uniqueName suffixes name with _2, _3, ... (before any extension) until it
// is not in used, then records it.
func uniqueName(name string, used map[string]bool) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	p := name
	for i := 2; used[p]; i++ {
		p = fmt.Sprintf("%s_%d%s", stem, i, ext)
	}
	used[p] = true
	return p
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
