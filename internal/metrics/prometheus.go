package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration *prom.HistogramVec
	passDuration  *prom.HistogramVec
	stageResults  *prom.CounterVec
	passOutcomes  *prom.CounterVec
	documents     prom.Counter
	pagesWritten  prom.Counter
	pagesSame     prom.Counter
	parseFailures prom.Counter
	tagCount      prom.Gauge
}

// NewPrometheusRecorder constructs and registers the tagindex metrics on the
// given registry. A nil registry gets a fresh private one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "tagindex",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pass stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		passDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "tagindex",
			Name:      "pass_duration_seconds",
			Help:      "Total pass duration by outcome",
			Buckets:   prom.DefBuckets,
		}, []string{"outcome"}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "tagindex",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		passOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "tagindex",
			Name:      "pass_outcomes_total",
			Help:      "Pass outcomes by final status",
		}, []string{"outcome"}),
		documents: prom.NewCounter(prom.CounterOpts{
			Namespace: "tagindex",
			Name:      "documents_scanned_total",
			Help:      "Documents scanned across all passes",
		}),
		pagesWritten: prom.NewCounter(prom.CounterOpts{
			Namespace: "tagindex",
			Name:      "pages_written_total",
			Help:      "Generated pages written to disk",
		}),
		pagesSame: prom.NewCounter(prom.CounterOpts{
			Namespace: "tagindex",
			Name:      "pages_unchanged_total",
			Help:      "Generated pages skipped because content was unchanged",
		}),
		parseFailures: prom.NewCounter(prom.CounterOpts{
			Namespace: "tagindex",
			Name:      "parse_failures_total",
			Help:      "Documents whose metadata block failed to parse",
		}),
		tagCount: prom.NewGauge(prom.GaugeOpts{
			Namespace: "tagindex",
			Name:      "tags",
			Help:      "Distinct tags in the last aggregated index",
		}),
	}
	reg.MustRegister(
		pr.stageDuration, pr.passDuration, pr.stageResults, pr.passOutcomes,
		pr.documents, pr.pagesWritten, pr.pagesSame, pr.parseFailures, pr.tagCount,
	)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObservePassDuration(d time.Duration, outcome string) {
	if p == nil || p.passDuration == nil {
		return
	}
	p.passDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncPassOutcome(outcome string) {
	if p == nil || p.passOutcomes == nil {
		return
	}
	p.passOutcomes.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) AddDocumentsScanned(n int) {
	if p == nil || p.documents == nil {
		return
	}
	p.documents.Add(float64(n))
}

func (p *PrometheusRecorder) AddPagesWritten(n int) {
	if p == nil || p.pagesWritten == nil {
		return
	}
	p.pagesWritten.Add(float64(n))
}

func (p *PrometheusRecorder) AddPagesUnchanged(n int) {
	if p == nil || p.pagesSame == nil {
		return
	}
	p.pagesSame.Add(float64(n))
}

func (p *PrometheusRecorder) AddParseFailures(n int) {
	if p == nil || p.parseFailures == nil {
		return
	}
	p.parseFailures.Add(float64(n))
}

func (p *PrometheusRecorder) SetTagCount(n int) {
	if p == nil || p.tagCount == nil {
		return
	}
	p.tagCount.Set(float64(n))
}
