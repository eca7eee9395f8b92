package metrics

import "time"

// Outcome labels a finished rebuild.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Recorder defines the observability hooks of author mode.
type Recorder interface {
	ObserveRebuildDuration(d time.Duration)
	IncRebuild(outcome Outcome)
	IncReload(strategy string)
	AddSourceChanges(n int)
	SetReloadClients(n int)
	IncThemeSync()
}

// NoopRecorder is a Recorder that does nothing (default when metrics are off).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRebuildDuration(time.Duration) {}
func (NoopRecorder) IncRebuild(Outcome)                   {}
func (NoopRecorder) IncReload(string)                     {}
func (NoopRecorder) AddSourceChanges(int)                 {}
func (NoopRecorder) SetReloadClients(int)                 {}
func (NoopRecorder) IncThemeSync()                        {}
