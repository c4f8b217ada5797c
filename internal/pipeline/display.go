package pipeline

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Display handles terminal progress output for a sync run.
type Display struct {
	w       io.Writer
	title   string
	verbose bool
	stop    chan struct{}
	done    chan struct{}
}

// NewDisplay creates a display writing to w, or stderr when w is nil.
func NewDisplay(w io.Writer, title string, verbose bool) *Display {
	if w == nil {
		w = os.Stderr
	}
	return &Display{w: w, title: title, verbose: verbose}
}

// fileColumnWidth is the fixed display width reserved for the snapshot file column.
var fileColumnWidth = 22

// ansiEscapeRe matches ANSI terminal escape sequences and C0/DEL control characters.
var ansiEscapeRe = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]|[\x00-\x1f\x7f]`)

// sanitize strips ANSI escape sequences and control characters.
func sanitize(s string) string {
	return ansiEscapeRe.ReplaceAllString(s, "")
}

// truncateColumn sanitizes and truncates s to fit within fileColumnWidth runes,
// appending an ellipsis if truncation occurs.
func truncateColumn(s string) string {
	s = sanitize(s)
	if utf8.RuneCountInString(s) <= fileColumnWidth {
		return s
	}
	runes := []rune(s)
	return string(runes[:fileColumnWidth-1]) + "…"
}

// Header prints the run header.
func (d *Display) Header() {
	fmt.Fprintf(d.w, "\n📡 statsync · %s\n", d.title)
	fmt.Fprintln(d.w, strings.Repeat("─", 72))
}

// StepStart prints a provider-in-progress line and starts an elapsed time ticker.
// In non-verbose mode, the line is updated in place every second with elapsed time.
// In verbose mode, a plain line is printed (log output follows on subsequent lines).
func (d *Display) StepStart(provider, file string) {
	file = truncateColumn(file)
	if d.verbose {
		fmt.Fprintf(d.w, "⏳ %-10s %-22s running...\n", provider, file)
		return
	}
	// Print without trailing newline so the ticker can overwrite in place.
	fmt.Fprintf(d.w, "⏳ %-10s %-22s running...", provider, file)

	stop := make(chan struct{})
	done := make(chan struct{})
	d.stop = stop
	d.done = done
	start := time.Now()

	go func() {
		defer close(done)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fmt.Fprintf(d.w, "\r⏳ %-10s %-22s running... %.0fs",
					provider, file, time.Since(start).Seconds())
			}
		}
	}()
}

// stopTicker stops the elapsed time goroutine and waits for it to finish.
func (d *Display) stopTicker() {
	if d.stop != nil {
		close(d.stop)
		<-d.done
		d.stop = nil
		d.done = nil
	}
}

func (d *Display) linePrefix() string {
	if d.verbose {
		return ""
	}
	return "\r"
}

// maxPreviewLines is the default number of output lines shown under a warning.
const maxPreviewLines = 10

// StepDone prints a completed provider line, overwriting the running line in
// non-verbose mode.
func (d *Display) StepDone(provider, file string, outcome Outcome, duration time.Duration) {
	d.stopTicker()
	icon := "✅"
	if outcome == OutcomeNoop {
		icon = "➖"
	}
	fmt.Fprintf(d.w, "%s%s %-10s %-22s %-12s %.1fs\n",
		d.linePrefix(), icon, provider, truncateColumn(file), outcome, duration.Seconds())
}

// StepWarn prints a provider whose snapshot was written but not synced,
// followed by a preview of the command output (first maxPreviewLines lines).
func (d *Display) StepWarn(provider, file string, err error, output string) {
	d.stopTicker()
	fmt.Fprintf(d.w, "%s⚠️  %-10s %-22s %s\n", d.linePrefix(), provider, truncateColumn(file), sanitize(err.Error()))

	output = strings.TrimRight(output, "\n")
	if output == "" {
		return
	}
	lines := strings.Split(output, "\n")
	shown := lines
	if len(lines) > maxPreviewLines {
		shown = lines[:maxPreviewLines]
	}
	for _, l := range shown {
		fmt.Fprintf(d.w, "  │ %s\n", sanitize(l))
	}
	if len(lines) > maxPreviewLines {
		fmt.Fprintf(d.w, "  │ ... (%d more lines)\n", len(lines)-maxPreviewLines)
	}
}

// StepFailed prints a failed provider line, overwriting the running line in non-verbose mode.
func (d *Display) StepFailed(provider, file string, err error) {
	d.stopTicker()
	fmt.Fprintf(d.w, "%s❌ %-10s %-22s %s\n", d.linePrefix(), provider, truncateColumn(file), sanitize(err.Error()))
}

// Summary prints the final run summary.
func (d *Display) Summary(r *Report, totalDuration time.Duration) {
	fmt.Fprintln(d.w, strings.Repeat("─", 72))
	icon := "✅"
	if r.Failed() > 0 {
		icon = "❌"
	}
	fmt.Fprintf(d.w, "%s %d published  %d unchanged  %d not synced  %d failed  %.0fs\n",
		icon, r.count(OutcomePublished), r.count(OutcomeNoop), r.count(OutcomeSyncFailed), r.Failed(),
		totalDuration.Seconds())
	fmt.Fprintln(d.w)
}
