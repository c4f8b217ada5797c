package run

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/wlmr-rk/proj-nexus/internal/errors"
)

// Provider outcome statuses recorded in meta.json.
const (
	StatusPublished  = "published"
	StatusNoop       = "noop"
	StatusDryRun     = "dry-run"
	StatusFailed     = "failed"
	StatusSyncFailed = "sync-failed"
)

// Run represents a single sync invocation.
type Run struct {
	ID   string
	Dir  string
	Meta Meta
}

// Meta holds metadata about a run, persisted to meta.json.
type Meta struct {
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
	Providers  []string         `json:"providers"`
	DryRun     bool             `json:"dry_run"`
	Status     string           `json:"status"` // "running" | "completed" | "failed"
	Results    []ProviderResult `json:"results"`
	Error      string           `json:"error,omitempty"`
	GitBranch  string           `json:"git_branch"`
	GitCommit  string           `json:"git_commit"`
}

// ProviderResult records the outcome for a single provider.
type ProviderResult struct {
	Provider   string `json:"provider"`
	Status     string `json:"status"`
	File       string `json:"file,omitempty"`
	Step       string `json:"step,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// New creates a new run directory under baseDir (normally .statsync/runs).
func New(baseDir string, providers []string, dryRun bool, gitBranch, gitCommit string) (*Run, error) {
	now := time.Now()
	ms := now.UnixMilli() % 1000
	slug := "all"
	if len(providers) > 0 {
		slug = strings.Join(providers, "-")
	}
	id := fmt.Sprintf("%s-%03d-%s",
		now.Format("20060102-150405"),
		ms,
		sanitizeSlug(slug),
	)

	dir := filepath.Join(baseDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "creating run dir")
	}

	r := &Run{
		ID:  id,
		Dir: dir,
		Meta: Meta{
			StartedAt: now,
			Providers: providers,
			DryRun:    dryRun,
			Status:    "running",
			GitBranch: gitBranch,
			GitCommit: gitCommit,
		},
	}

	if err := r.SaveMeta(); err != nil {
		return nil, err
	}

	if err := updateLatestLink(baseDir, id); err != nil {
		return nil, err
	}

	return r, nil
}

// SaveMeta writes meta.json to the run directory.
func (r *Run) SaveMeta() error {
	data, err := json.MarshalIndent(r.Meta, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling meta")
	}
	return os.WriteFile(r.FilePath("meta.json"), data, 0644)
}

// AddResult appends a provider result.
func (r *Run) AddResult(pr ProviderResult) error {
	r.Meta.Results = append(r.Meta.Results, pr)
	return r.SaveMeta()
}

// Complete marks the run as completed.
func (r *Run) Complete() error {
	r.finish("completed")
	return r.SaveMeta()
}

// Fail marks the run as failed with an error message.
func (r *Run) Fail(msg string) error {
	r.finish("failed")
	r.Meta.Error = msg
	return r.SaveMeta()
}

func (r *Run) finish(status string) {
	now := time.Now()
	r.Meta.Status = status
	r.Meta.FinishedAt = &now
}

// FilePath returns the path to a file within this run directory.
func (r *Run) FilePath(name string) string {
	return filepath.Join(r.Dir, name)
}

// WriteFile writes content to a named file in the run directory.
func (r *Run) WriteFile(name string, content []byte) error {
	return os.WriteFile(r.FilePath(name), content, 0644)
}

// Latest loads the run the "latest" link under baseDir points at.
func Latest(baseDir string) (*Run, error) {
	target, err := os.Readlink(filepath.Join(baseDir, "latest"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WithHint(errors.New("no runs recorded yet"), "run `statsync run` first")
		}
		return nil, errors.Wrap(err, "reading latest run link")
	}
	dir := filepath.Join(baseDir, target)
	data, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	if err != nil {
		return nil, errors.Wrapf(err, "reading meta for run %s", target)
	}
	r := &Run{ID: target, Dir: dir}
	if err := json.Unmarshal(data, &r.Meta); err != nil {
		return nil, errors.Wrapf(err, "parsing meta for run %s", target)
	}
	return r, nil
}

// List loads every recorded run under baseDir, newest first. Runs whose
// meta.json is missing or unreadable are skipped.
func List(baseDir string) ([]*Run, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "reading runs dir")
	}

	var runs []*Run
	for _, e := range entries {
		if !e.IsDir() || e.Name() == "latest" {
			continue
		}
		dir := filepath.Join(baseDir, e.Name())
		data, err := os.ReadFile(filepath.Join(dir, "meta.json"))
		if err != nil {
			continue
		}
		r := &Run{ID: e.Name(), Dir: dir}
		if err := json.Unmarshal(data, &r.Meta); err != nil {
			continue
		}
		runs = append(runs, r)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Meta.StartedAt.After(runs[j].Meta.StartedAt)
	})
	return runs, nil
}

// Count returns how many provider results have the given status.
func (m *Meta) Count(status string) int {
	n := 0
	for _, r := range m.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}

// updateLatestLink atomically updates the "latest" symlink.
func updateLatestLink(baseDir, id string) error {
	latestPath := filepath.Join(baseDir, "latest")
	tmpPath := latestPath + ".tmp"

	// Remove any stale tmp link
	os.Remove(tmpPath)

	if err := os.Symlink(id, tmpPath); err != nil {
		return errors.Wrap(err, "creating temp symlink")
	}
	if err := os.Rename(tmpPath, latestPath); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "updating latest symlink")
	}
	return nil
}

var nonAlphanumRe = regexp.MustCompile(`[^a-z0-9]+`)

// sanitizeSlug converts a string to a file-name-friendly slug.
func sanitizeSlug(s string) string {
	s = strings.ToLower(s)
	s = nonAlphanumRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 40 {
		s = s[:40]
		s = strings.TrimRight(s, "-")
	}
	if s == "" {
		s = "run"
	}
	return s
}
