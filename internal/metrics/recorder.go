package metrics

import "time"

// Outcome labels mutation and export results.
type Outcome string

const (
	OutcomeApplied  Outcome = "applied"
	OutcomeRejected Outcome = "rejected"
	OutcomeNoop     Outcome = "noop"
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Recorder receives editor and export observations. Components default to
// NoopRecorder when none is injected.
type Recorder interface {
	IncMutation(action string, outcome Outcome)
	IncExport(outcome Outcome)
	ObserveExportDuration(d time.Duration)
	IncSectionRenderFailure(sectionType string)
	SetOpenSessions(n int)
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

func (NoopRecorder) IncMutation(string, Outcome) {}
func (NoopRecorder) IncExport(Outcome) {}
func (NoopRecorder) ObserveExportDuration(time.Duration) {}
func (NoopRecorder) IncSectionRenderFailure(string) {}
func (NoopRecorder) SetOpenSessions(int) {}

// OrNoop returns r, or NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
