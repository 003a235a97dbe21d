package workflow

import "time"

// Outcome classifies what happened to one month during a run.
type Outcome string

const (
	// OutcomeAlreadyPosted means the month carried a marker and was skipped.
	OutcomeAlreadyPosted Outcome = "already_posted"
	// OutcomeInsufficientContent means the month lacked an image or a caption.
	OutcomeInsufficientContent Outcome = "insufficient_content"
	// OutcomePublished means a post went out and the marker was written.
	OutcomePublished Outcome = "published"
	// OutcomeFailed means publishing was attempted and did not succeed.
	OutcomeFailed Outcome = "failed"
)

// MonthResult captures the outcome of processing a single month.
type MonthResult struct {
	Month   int
	Outcome Outcome
	Image   string
	Caption string
	MediaID string
	Err     error
}

// RunReport summarizes a full run across one or more months.
type RunReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []MonthResult
}

// Published counts months that resulted in a new post.
func (r *RunReport) Published() int {
	return r.count(OutcomePublished)
}

// Failed counts months where publishing was attempted and failed.
func (r *RunReport) Failed() int {
	return r.count(OutcomeFailed)
}

// Skipped counts months passed over without a publish attempt.
func (r *RunReport) Skipped() int {
	return r.count(OutcomeAlreadyPosted) + r.count(OutcomeInsufficientContent)
}

func (r *RunReport) count(outcome Outcome) int {
	n := 0
	for _, result := range r.Results {
		if result.Outcome == outcome {
			n++
		}
	}
	return n
}
