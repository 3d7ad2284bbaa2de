// Package metrics records export and upload observations.
package metrics

import "time"

// Outcome labels the final state of an export.
type Outcome string

// Outcome values.
const (
	OutcomeSuccess         Outcome = "success"
	OutcomeProjectNotFound Outcome = "project_not_found"
	OutcomeTocFetch        Outcome = "toc_fetch"
	OutcomeDocumentFetch   Outcome = "document_fetch"
	OutcomeRenderFailure   Outcome = "render_failure"
	OutcomeError           Outcome = "error"
)

// Recorder defines observability hooks for the gateway.
// Implementations may forward to Prometheus; NoopRecorder discards everything.
type Recorder interface {
	ObserveExportDuration(d time.Duration)
	IncExportOutcome(outcome Outcome)
	IncDocumentFetch(success bool)
	ObserveRenderDuration(d time.Duration)
	IncUploadResult(success bool)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveExportDuration(time.Duration) {}
func (NoopRecorder) IncExportOutcome(Outcome)            {}
func (NoopRecorder) IncDocumentFetch(bool)               {}
func (NoopRecorder) ObserveRenderDuration(time.Duration) {}
func (NoopRecorder) IncUploadResult(bool)                {}
