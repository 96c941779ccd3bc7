// Package store persists selected artifacts and archived candidates under a
// storage root (".docs" by default):
//
//	plan/app.md, plan/app.metadata.json
//	plan/feat_<id>.md, plan/feat_<id>.md.metadata.json
//	src/generated_<stamp>/..., generation.metadata.json
//	archive/<kind>/<stamp>/..., archive_index.json
//	state/
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"conclave/internal/logging"
)

const stampLayout = "20060102_150405"

// Metadata is the free-form JSON object stored next to every artifact.
type Metadata map[string]any

type Store struct {
	base string
	log  logging.Logger
	now  func() time.Time
}

func New(base string, log logging.Logger) *Store {
	if base == "" {
		base = ".docs"
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Store{base: base, log: log, now: time.Now}
}

func (s *Store) Base() string       { return s.base }
func (s *Store) PlanDir() string    { return filepath.Join(s.base, "plan") }
func (s *Store) ArchiveDir() string { return filepath.Join(s.base, "archive") }
func (s *Store) StateDir() string   { return filepath.Join(s.base, "state") }

// SaveDesign writes plan/app.md and its metadata, replacing earlier versions.
func (s *Store) SaveDesign(content string, meta Metadata) (string, error) {
	p := filepath.Join(s.PlanDir(), "app.md")
	if err := writeFile(p, content); err != nil {
		return "", fmt.Errorf("save design: %w", err)
	}
	if err := s.writeMetadata(filepath.Join(s.PlanDir(), "app.metadata.json"), meta); err != nil {
		return "", fmt.Errorf("save design metadata: %w", err)
	}
	s.log.Info("design saved", "path", p)
	return p, nil
}

// SaveFeature writes plan/feat_<id>.md and its metadata.
func (s *Store) SaveFeature(sectionID, content string, meta Metadata) (string, error) {
	name := FeatureFileName(sectionID)
	p := filepath.Join(s.PlanDir(), name)
	if err := writeFile(p, content); err != nil {
		return "", fmt.Errorf("save feature %s: %w", sectionID, err)
	}
	if err := s.writeMetadata(p+".metadata.json", meta); err != nil {
		return "", fmt.Errorf("save feature %s metadata: %w", sectionID, err)
	}
	s.log.Info("feature spec saved", "section", sectionID, "path", p)
	return p, nil
}

// SaveCode writes a code bundle into a new src/generated_<stamp> directory.
func (s *Store) SaveCode(featSpecs []string, files map[string]string, meta Metadata) (string, error) {
	dir, err := freshDir(filepath.Join(s.base, "src", "generated_"+s.now().Format(stampLayout)))
	if err != nil {
		return "", fmt.Errorf("save code: %w", err)
	}
	if err := writeTree(dir, files); err != nil {
		return "", fmt.Errorf("save code: %w", err)
	}

	m := copyMetadata(meta)
	m["feat_specs"] = featSpecs
	m["generated_files"] = sortedKeys(files)
	if err := s.writeMetadata(filepath.Join(dir, "generation.metadata.json"), m); err != nil {
		return "", fmt.Errorf("save code metadata: %w", err)
	}
	s.log.Info("code saved", "path", dir, "files", len(files))
	return dir, nil
}

// FeatureFileName maps a section id to its plan file name: numeric ids
// replace dots with underscores, named ids are lower-cased with spaces and
// hyphens replaced.
func FeatureFileName(sectionID string) string {
	if isNumericID(sectionID) {
		return "feat_" + strings.ReplaceAll(sectionID, ".", "_") + ".md"
	}
	r := strings.NewReplacer(" ", "_", "-", "_")
	return "feat_" + strings.ToLower(r.Replace(sectionID)) + ".md"
}

func isNumericID(id string) bool {
	digits := strings.ReplaceAll(id, ".", "")
	if digits == "" {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// LoadAppMD returns plan/app.md. ok is false when it does not exist.
func (s *Store) LoadAppMD() (content string, ok bool, err error) {
	return readOptional(filepath.Join(s.PlanDir(), "app.md"))
}

// LoadAppMetadata returns the metadata of the current design, or nil.
func (s *Store) LoadAppMetadata() (Metadata, error) {
	return readMetadata(filepath.Join(s.PlanDir(), "app.metadata.json"))
}

// LoadFeatureSpec finds the spec for sectionID by exact file name, then by any
// feat_*.md whose stem contains the id.
func (s *Store) LoadFeatureSpec(sectionID string) (content string, ok bool, err error) {
	p, err := s.featurePath(sectionID)
	if err != nil || p == "" {
		return "", false, err
	}
	return readOptional(p)
}

// LoadFeatureMetadata returns the metadata stored next to a feature spec, or
// nil.
func (s *Store) LoadFeatureMetadata(sectionID string) (Metadata, error) {
	p, err := s.featurePath(sectionID)
	if err != nil || p == "" {
		return nil, err
	}
	return readMetadata(p + ".metadata.json")
}

func (s *Store) featurePath(sectionID string) (string, error) {
	p := filepath.Join(s.PlanDir(), FeatureFileName(sectionID))
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}
	matches, err := filepath.Glob(filepath.Join(s.PlanDir(), "feat_*.md"))
	if err != nil {
		return "", err
	}
	want := strings.ToLower(sectionID)
	for _, m := range matches {
		stem := strings.TrimSuffix(filepath.Base(m), ".md")
		if strings.Contains(strings.ToLower(stem), want) {
			return m, nil
		}
	}
	return "", nil
}

// ListFeatureSpecs returns the ids of all stored feature specs, sorted.
func (s *Store) ListFeatureSpecs() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.PlanDir(), "feat_*.md"))
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), "feat_"), ".md"))
	}
	return ids, nil
}

func (s *Store) writeMetadata(p string, meta Metadata) error {
	m := copyMetadata(meta)
	if _, ok := m["timestamp"]; !ok {
		m["timestamp"] = s.now().Format(time.RFC3339)
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(p, string(b)+"\n")
}

func copyMetadata(meta Metadata) Metadata {
	m := make(Metadata, len(meta)+2)
	for k, v := range meta {
		m[k] = v
	}
	return m
}

func writeFile(p, content string) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, []byte(content), 0o644)
}

// writeTree writes files below dir, rejecting paths that leave it.
func writeTree(dir string, files map[string]string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for rel, content := range files {
		clean := filepath.Clean(filepath.FromSlash(rel))
		if filepath.IsAbs(clean) || clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			return fmt.Errorf("file path %q escapes %s", rel, dir)
		}
		if err := writeFile(filepath.Join(dir, clean), content); err != nil {
			return err
		}
	}
	return nil
}

// freshDir creates dir, or dir_N when an earlier run in the same second
// already took it.
func freshDir(dir string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return "", err
	}
	p := dir
	for i := 1; ; i++ {
		err := os.Mkdir(p, 0o755)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", err
		}
		p = fmt.Sprintf("%s_%d", dir, i)
	}
}

func readOptional(p string) (string, bool, error) {
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(b), true, nil
}

func readMetadata(p string) (Metadata, error) {
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var m Metadata
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", p, err)
	}
	return m, nil
}
