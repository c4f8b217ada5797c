// Package publish writes summary records into the website repository and
// synchronizes them to its remote with git.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wlmr-rk/proj-nexus/internal/config"
	"github.com/wlmr-rk/proj-nexus/internal/errors"
	vlog "github.com/wlmr-rk/proj-nexus/internal/log"
)

// Step names one git operation in the publish sequence.
type Step string

const (
	StepStage  Step = "stage"
	StepCommit Step = "commit"
	StepSync   Step = "sync"
	StepPush   Step = "push"
	stepDone   Step = ""
)

// next is the transition table: stage → commit → sync → push → done.
func (s Step) next() Step {
	switch s {
	case StepStage:
		return StepCommit
	case StepCommit:
		return StepSync
	case StepSync:
		return StepPush
	}
	return stepDone
}

// SyncError reports a git step that failed for a reason other than "nothing to do".
type SyncError struct {
	Step     Step
	ExitCode int
	Output   string
	Err      error
}

func (e *SyncError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("git %s failed: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("git %s failed with exit code %d", e.Step, e.ExitCode)
}

func (e *SyncError) Unwrap() error { return e.Err }

// Result describes what Publish did.
type Result struct {
	Name string
	Path string
	// Changed reports whether the file on disk was rewritten with different
	// bytes. It is informational; Outcome compares against HEAD instead.
	Changed bool
	// Staged reports whether the staged snapshot differed from HEAD.
	Staged  bool
	Outcome Outcome
	// Step is where the sequence stopped early; empty when all steps ran.
	Step   Step
	Output string
}

// Published reports whether a new commit reached the remote.
func (r *Result) Published() bool {
	return r.Outcome == Success
}

// Publisher persists records under a repository's public directory and pushes them.
type Publisher struct {
	RepoPath       string
	PublicDir      string
	Git            string
	CommitTemplate string
	AllowEmpty     bool
	Runner         Runner
}

// New builds a Publisher from config. A nil runner means ExecRunner.
func New(cfg *config.Config, runner Runner) (*Publisher, error) {
	if runner == nil {
		timeout, err := cfg.CommandTimeout()
		if err != nil {
			return nil, errors.Wrap(err, "publish.command_timeout")
		}
		runner = &ExecRunner{Timeout: timeout}
	}
	git := cfg.Publish.GitCommand
	if git == "" {
		git = "git"
	}
	return &Publisher{
		RepoPath:       cfg.Site.RepoPath,
		PublicDir:      cfg.PublicPath(),
		Git:            git,
		CommitTemplate: cfg.Publish.CommitTemplate,
		AllowEmpty:     cfg.Publish.AllowEmpty,
		Runner:         runner,
	}, nil
}

// Publish writes record as <PublicDir>/<name> and runs stage, commit, sync and push.
//
// A persist failure returns (nil, err) and no git command runs. A failed git
// step returns the partial Result together with a *SyncError marked
// errors.ErrSync; the written file is left in place.
func (p *Publisher) Publish(ctx context.Context, name string, record any) (*Result, error) {
	path, changed, err := Persist(p.PublicDir, name, record)
	if err != nil {
		return nil, err
	}

	res := &Result{Name: name, Path: path, Changed: changed, Outcome: Success}
	vlog.Info("publish: wrote snapshot", "file", p.repoRelative(path), "changed", changed)

	for step := StepStage; step != stepDone; step = step.next() {
		cmd := p.Runner.Run(ctx, p.RepoPath, p.Git, p.args(step, path, name)...)
		switch Classify(step, cmd) {
		case Success:
			vlog.Debug("publish: git step ok", "step", step)
			if step == StepStage {
				res.Staged = p.stagedDiffers(ctx, path)
			}
			continue
		case BenignNoop:
			res.Outcome = BenignNoop
			res.Step = step
			res.Output = cmd.Output()
			vlog.Info("publish: no changes, nothing to push", "file", name, "step", step)
			return res, nil
		default:
			res.Outcome = Failed
			res.Step = step
			res.Output = cmd.Output()
			vlog.Info("publish: git error", "file", name, "step", step,
				"exit_code", cmd.ExitCode, "stdout", cmd.Stdout, "stderr", cmd.Stderr)
			return res, errors.Mark(&SyncError{
				Step:     step,
				ExitCode: cmd.ExitCode,
				Output:   res.Output,
				Err:      cmd.Err,
			}, errors.ErrSync)
		}
	}

	if !res.Staged {
		res.Outcome = BenignNoop
		vlog.Info("publish: content matches HEAD, nothing new to publish", "file", name)
		return res, nil
	}
	vlog.Info("publish: pushed", "file", name)
	return res, nil
}

// stagedDiffers reports whether the staged file differs from its committed
// version at HEAD. When git cannot answer, the content counts as new.
func (p *Publisher) stagedDiffers(ctx context.Context, path string) bool {
	cmd := p.Runner.Run(ctx, p.RepoPath, p.Git, "diff", "--cached", "--quiet", "--", p.repoRelative(path))
	switch {
	case cmd.Success():
		return false
	case cmd.Err == nil && cmd.ExitCode == 1:
		return true
	}
	vlog.Debug("publish: staged diff inconclusive", "exit_code", cmd.ExitCode, "err", cmd.Err)
	return true
}

func (p *Publisher) args(step Step, path, name string) []string {
	switch step {
	case StepStage:
		return []string{"add", "--", p.repoRelative(path)}
	case StepCommit:
		args := []string{"commit"}
		if p.AllowEmpty {
			args = append(args, "--allow-empty")
		}
		return append(args, "-m", p.commitMessage(name))
	case StepSync:
		return []string{"pull", "--rebase", "--autostash"}
	case StepPush:
		return []string{"push"}
	}
	return nil
}

func (p *Publisher) commitMessage(name string) string {
	tmpl := p.CommitTemplate
	if tmpl == "" {
		tmpl = "chore: update %s"
	}
	return fmt.Sprintf(tmpl, name)
}

// repoRelative keeps the git pathspec inside the repository when possible.
func (p *Publisher) repoRelative(path string) string {
	if p.RepoPath == "" {
		return path
	}
	rel, err := filepath.Rel(p.RepoPath, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// Persist writes record as pretty JSON to dir/name via a temp file and rename.
// changed is false when the previous file held identical bytes.
func Persist(dir, name string, record any) (path string, changed bool, err error) {
	if err := validateName(name); err != nil {
		return "", false, err
	}

	data, err := Encode(record)
	if err != nil {
		return "", false, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", false, errors.Wrapf(err, "creating %s", dir)
	}

	path = filepath.Join(dir, name)
	prev, readErr := os.ReadFile(path)
	changed = readErr != nil || !bytes.Equal(prev, data)

	if err := writeAtomic(path, data); err != nil {
		return "", false, err
	}
	return path, changed, nil
}

// Encode renders record as UTF-8 JSON with 2-space indentation, without
// escaping HTML characters, terminated by a newline.
func Encode(record any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(record); err != nil {
		return nil, errors.Wrap(err, "encoding record")
	}
	return buf.Bytes(), nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "creating temp file in %s", dir)
	}
	tmpName := tmp.Name()
	cleanup := func() { os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return errors.Wrapf(err, "writing %s", tmpName)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return errors.Wrapf(err, "syncing %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.Wrapf(err, "closing %s", tmpName)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		cleanup()
		return errors.Wrapf(err, "chmod %s", tmpName)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return errors.Wrapf(err, "renaming into %s", path)
	}
	return nil
}

func validateName(name string) error {
	switch {
	case name == "":
		return errors.InvalidRequestf("file name is required")
	case name == "." || name == "..":
		return errors.InvalidRequestf("invalid file name %q", name)
	case strings.ContainsAny(name, `/\`):
		return errors.InvalidRequestf("file name %q must not contain path separators", name)
	}
	return nil
}
