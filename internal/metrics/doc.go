// Package metrics provides the observability hooks for tagindex passes.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics cost nothing unless configured. When the metrics
// endpoint is enabled, a PrometheusRecorder registered on a private registry
// replaces the noop and HTTPHandler serves the scrape endpoint in watch mode.
package metrics
