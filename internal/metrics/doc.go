// Package metrics records author mode activity.
//
// Components receive a Recorder and default to NoopRecorder, so call sites
// never check for nil. PrometheusRecorder is swapped in when metrics are
// enabled and its registry is served with HTTPHandler.
package metrics
