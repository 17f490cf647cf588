package pipeline

import "fmt"

// ProgressStatus is the state of a stage within a run.
type ProgressStatus string

const (
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressSkipped  ProgressStatus = "skipped"
	ProgressFailed   ProgressStatus = "failed"
)

// ProgressEvent is emitted to the user during pipeline execution.
type ProgressEvent struct {
	Stage   StageID
	Status  ProgressStatus
	Message string
}

// Reporter emits progress events through a buffered channel.
type Reporter struct {
	ch chan ProgressEvent
}

// NewReporter creates a Reporter with a buffered channel of size 64.
func NewReporter() *Reporter {
	return &Reporter{ch: make(chan ProgressEvent, 64)}
}

// Emit sends a progress event in a non-blocking fashion.
// If the channel is full, the event is silently dropped.
func (r *Reporter) Emit(event ProgressEvent) {
	select {
	case r.ch <- event:
	default:
	}
}

// Subscribe returns a read-only channel for consuming progress events.
func (r *Reporter) Subscribe() <-chan ProgressEvent {
	return r.ch
}

// Close closes the progress event channel.
func (r *Reporter) Close() {
	close(r.ch)
}

// FormatProgress formats a ProgressEvent as a human-readable status line.
func FormatProgress(event ProgressEvent) string {
	switch event.Status {
	case ProgressWorking:
		return fmt.Sprintf("  ● %s...", event.Stage)
	case ProgressComplete:
		return fmt.Sprintf("  ✓ %s complete", event.Stage)
	case ProgressSkipped:
		return fmt.Sprintf("  - %s skipped: %s", event.Stage, event.Message)
	case ProgressFailed:
		return fmt.Sprintf("  ✗ %s failed: %s", event.Stage, event.Message)
	default:
		return fmt.Sprintf("  ? %s (unknown status)", event.Stage)
	}
}
