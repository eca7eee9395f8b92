package metrics

import (
	"testing"
	"time"
)

func TestNoopRecorderSatisfiesRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveRebuildDuration(time.Second)
	r.IncRebuild(OutcomeCanceled)
	r.IncReload("browser")
	r.AddSourceChanges(1)
	r.SetReloadClients(0)
	r.IncThemeSync()
}

var (
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
)
