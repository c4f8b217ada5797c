package publish

import "strings"

// Outcome tags the result of one git step.
type Outcome int

const (
	Success Outcome = iota
	BenignNoop
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case BenignNoop:
		return "noop"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// benignPatterns lists, per step, the substrings git prints when that step
// had nothing to act on. Matching text is fragile across git versions; keep
// every such rule in this table.
var benignPatterns = map[Step][]string{
	StepCommit: {"nothing to commit", "nothing added to commit"},
	StepSync:   {"up to date", "up-to-date"},
	StepPush:   {"up to date", "up-to-date"},
}

// Classify maps a finished command to an Outcome. It is the only place that
// interprets command output.
func Classify(step Step, res CommandResult) Outcome {
	if res.Success() {
		return Success
	}
	// A command that never ran cannot have had nothing to do.
	if res.Err != nil {
		return Failed
	}
	out := strings.ToLower(res.Stdout + "\n" + res.Stderr)
	for _, p := range benignPatterns[step] {
		if strings.Contains(out, p) {
			return BenignNoop
		}
	}
	return Failed
}
