// Package pipeline drives one sync run: each provider is collected, then its
// summary record is published (or printed, for a dry run).
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/wlmr-rk/proj-nexus/internal/errors"
	vlog "github.com/wlmr-rk/proj-nexus/internal/log"
	"github.com/wlmr-rk/proj-nexus/internal/publish"
	"github.com/wlmr-rk/proj-nexus/internal/run"
	"github.com/wlmr-rk/proj-nexus/internal/source"
)

// Publisher persists and synchronizes one record.
type Publisher interface {
	Publish(ctx context.Context, name string, record any) (*publish.Result, error)
}

// Outcome is the per-provider result of a run.
type Outcome string

const (
	OutcomePublished  Outcome = run.StatusPublished
	OutcomeNoop       Outcome = run.StatusNoop
	OutcomeDryRun     Outcome = run.StatusDryRun
	OutcomeSyncFailed Outcome = run.StatusSyncFailed
	OutcomeFailed     Outcome = run.StatusFailed
)

// ProviderReport is what happened to a single provider.
type ProviderReport struct {
	Provider string
	File     string
	Outcome  Outcome
	// Path is the written snapshot; empty when nothing was written.
	Path     string
	Step     publish.Step
	Err      error
	Duration time.Duration

	snapshot []byte
}

// Report collects the provider reports of one run in execution order.
type Report struct {
	Providers []ProviderReport
}

// Failed counts adapter and persist failures. Sync failures are not counted:
// the snapshot was written and the next run retries the push.
func (r *Report) Failed() int {
	return r.count(OutcomeFailed)
}

// Err summarizes the failures, or returns nil when every provider succeeded.
func (r *Report) Err() error {
	n := r.Failed()
	if n == 0 {
		return nil
	}
	var first error
	for _, p := range r.Providers {
		if p.Outcome == OutcomeFailed {
			first = p.Err
			break
		}
	}
	return errors.Wrapf(first, "%d of %d providers failed", n, len(r.Providers))
}

func (r *Report) count(o Outcome) int {
	n := 0
	for _, p := range r.Providers {
		if p.Outcome == o {
			n++
		}
	}
	return n
}

// Engine orchestrates collection and publishing.
type Engine struct {
	Publisher Publisher
	// DryRun prints records to Out instead of publishing them.
	DryRun bool
	Out    io.Writer
	// Display and History are optional.
	Display *Display
	History *run.Run
}

// Run collects one source and publishes its record. Errors are carried in the
// returned report; nothing is written when collection fails.
func (e *Engine) Run(ctx context.Context, src source.Source) ProviderReport {
	rep := ProviderReport{Provider: src.Name(), File: src.FileName()}
	start := time.Now()
	if e.Display != nil {
		e.Display.StepStart(rep.Provider, rep.File)
	}

	e.execute(ctx, src, &rep)
	rep.Duration = time.Since(start)

	// The progress line must be finished before anything else reaches stderr.
	e.show(rep)
	e.logOutcome(rep)
	e.record(rep)
	return rep
}

func (e *Engine) execute(ctx context.Context, src source.Source, rep *ProviderReport) {
	record, err := src.Collect(ctx)
	if err != nil {
		rep.Outcome, rep.Err = OutcomeFailed, err
		return
	}
	vlog.Debug("collected", "provider", rep.Provider, "record", record)

	data, err := publish.Encode(record)
	if err != nil {
		rep.Outcome, rep.Err = OutcomeFailed, err
		return
	}
	rep.snapshot = data

	if e.DryRun {
		if e.Out != nil {
			fmt.Fprintf(e.Out, "# %s\n%s", rep.File, data)
		}
		rep.Outcome = OutcomeDryRun
		return
	}

	if e.Publisher == nil {
		rep.Outcome, rep.Err = OutcomeFailed, errors.New("no publisher configured")
		return
	}
	res, err := e.Publisher.Publish(ctx, rep.File, record)
	if res != nil {
		rep.Path = res.Path
		rep.Step = res.Step
	}
	switch {
	case err == nil && res != nil && res.Outcome == publish.BenignNoop:
		rep.Outcome = OutcomeNoop
	case err == nil:
		rep.Outcome = OutcomePublished
	case errors.Is(err, errors.ErrSync):
		rep.Outcome, rep.Err = OutcomeSyncFailed, err
	default:
		rep.Outcome, rep.Err = OutcomeFailed, err
	}
}

func (e *Engine) logOutcome(rep ProviderReport) {
	logger := vlog.Logger().With("provider", rep.Provider)
	switch rep.Outcome {
	case OutcomeFailed:
		logger.Error("provider failed", "kind", errors.Kind(rep.Err), "err", rep.Err)
		if hints := errors.FlattenHints(rep.Err); hints != "" {
			logger.Info("hint", "hint", hints)
		}
	case OutcomeSyncFailed:
		args := []any{"step", rep.Step, "err", rep.Err}
		var se *publish.SyncError
		if errors.As(rep.Err, &se) {
			args = append(args, "exit_code", se.ExitCode, "output", se.Output)
		}
		logger.Warn("snapshot written but not synced", args...)
	}
}

func (e *Engine) show(rep ProviderReport) {
	if e.Display == nil {
		return
	}
	switch rep.Outcome {
	case OutcomeFailed:
		e.Display.StepFailed(rep.Provider, rep.File, rep.Err)
	case OutcomeSyncFailed:
		var output string
		var se *publish.SyncError
		if errors.As(rep.Err, &se) {
			output = se.Output
		}
		e.Display.StepWarn(rep.Provider, rep.File, rep.Err, output)
	default:
		e.Display.StepDone(rep.Provider, rep.File, rep.Outcome, rep.Duration)
	}
}

func (e *Engine) record(rep ProviderReport) {
	if e.History == nil {
		return
	}
	pr := run.ProviderResult{
		Provider:   rep.Provider,
		Status:     string(rep.Outcome),
		File:       rep.File,
		Step:       string(rep.Step),
		DurationMS: rep.Duration.Milliseconds(),
	}
	if rep.Err != nil {
		pr.Error = rep.Err.Error()
	}
	if err := e.History.AddResult(pr); err != nil {
		vlog.Warn("failed to save provider result", "provider", rep.Provider, "err", err)
	}

	// Keep what was collected and, for sync failures, what git said.
	if len(rep.snapshot) > 0 {
		if err := e.History.WriteFile(rep.File, rep.snapshot); err != nil {
			vlog.Warn("failed to save snapshot", "provider", rep.Provider, "err", err)
		}
	}
	var se *publish.SyncError
	if errors.As(rep.Err, &se) && se.Output != "" {
		if err := e.History.WriteFile(rep.Provider+"-git.log", []byte(se.Output+"\n")); err != nil {
			vlog.Warn("failed to save git output", "provider", rep.Provider, "err", err)
		}
	}
}

// RunAll runs the sources one after another and reports on each. Returned
// errors come only from cancellation; provider failures are in the Report.
func (e *Engine) RunAll(ctx context.Context, sources []source.Source) (*Report, error) {
	startTime := time.Now()
	if e.Display != nil {
		e.Display.Header()
	}

	report := &Report{}
	for _, src := range sources {
		select {
		case <-ctx.Done():
			e.finish(ctx.Err())
			return report, ctx.Err()
		default:
		}
		report.Providers = append(report.Providers, e.Run(ctx, src))
	}

	e.finish(report.Err())
	if e.Display != nil {
		e.Display.Summary(report, time.Since(startTime))
	}
	return report, nil
}

func (e *Engine) finish(err error) {
	if e.History == nil {
		return
	}
	var saveErr error
	if err != nil {
		saveErr = e.History.Fail(err.Error())
	} else {
		saveErr = e.History.Complete()
	}
	if saveErr != nil {
		vlog.Warn("failed to update run meta", "err", saveErr)
	}
}
