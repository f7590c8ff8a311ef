package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for pass and stage metrics.
// Implementations must tolerate nil receivers so injection stays optional.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObservePassDuration(d time.Duration, outcome string)
	IncStageResult(stage string, result ResultLabel)
	IncPassOutcome(outcome string) // outcome: success|partial|failed|canceled
	AddDocumentsScanned(n int)
	AddPagesWritten(n int)
	AddPagesUnchanged(n int)
	AddParseFailures(n int)
	SetTagCount(n int)
}

// NoopRecorder is a Recorder that does nothing, the default when metrics
// are not configured.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObservePassDuration(time.Duration, string)  {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncPassOutcome(string)                      {}
func (NoopRecorder) AddDocumentsScanned(int)                    {}
func (NoopRecorder) AddPagesWritten(int)                        {}
func (NoopRecorder) AddPagesUnchanged(int)                      {}
func (NoopRecorder) AddParseFailures(int)                       {}
func (NoopRecorder) SetTagCount(int)                            {}
