// Package metrics exposes Prometheus collectors for the review workflow.
// A nil *Collector is valid and records nothing.
package metrics

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "txshield"

// Collector groups the workflow collectors.
type Collector struct {
	sessionsTotal      *prometheus.CounterVec
	promptsOutstanding prometheus.Gauge
	promptsTotal       prometheus.Counter
	anomaliesTotal     *prometheus.CounterVec
	evaluationFailures prometheus.Counter
	reviewLatency      prometheus.Histogram
}

// New creates the collectors and registers them with reg. A nil reg skips
// registration, which suits tests that read values directly.
func New(reg prometheus.Registerer) (*Collector, error) {
	ret := &Collector{
		sessionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_total",
				Help:      "Sessions resolved, by final status and reason",
			},
			[]string{"status", "reason"},
		),
		promptsOutstanding: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "prompts_outstanding",
				Help:      "Prompts waiting for a reviewer response",
			},
		),
		promptsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "prompts_total",
				Help:      "Prompts sent to reviewers",
			},
		),
		anomaliesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "response_anomalies_total",
				Help:      "Responses dropped without effect, by kind",
			},
			[]string{"kind"},
		),
		evaluationFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evaluation_failures_total",
				Help:      "Risk evaluations that failed and routed to manual triage",
			},
		),
		reviewLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "review_latency_seconds",
				Help:      "Time from prompt to matched response",
				Buckets:   []float64{1, 5, 15, 60, 300, 900, 1800},
			},
		),
	}
	if reg == nil {
		return ret, nil
	}
	for _, c := range ret.collectors() {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "failed to register collector")
		}
	}
	return ret, nil
}

func (c *Collector) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.sessionsTotal,
		c.promptsOutstanding,
		c.promptsTotal,
		c.anomaliesTotal,
		c.evaluationFailures,
		c.reviewLatency,
	}
}

// SessionResolved counts a terminal disposition.
func (c *Collector) SessionResolved(status, reason string) {
	if c == nil {
		return
	}
	c.sessionsTotal.WithLabelValues(status, reason).Inc()
}

// PromptSent records a newly outstanding prompt.
func (c *Collector) PromptSent() {
	if c == nil {
		return
	}
	c.promptsTotal.Inc()
	c.promptsOutstanding.Inc()
}

// PromptClosed records a prompt leaving the outstanding set, by response,
// timeout or retraction.
func (c *Collector) PromptClosed() {
	if c == nil {
		return
	}
	c.promptsOutstanding.Dec()
}

// Anomaly counts a dropped response.
func (c *Collector) Anomaly(kind string) {
	if c == nil {
		return
	}
	c.anomaliesTotal.WithLabelValues(kind).Inc()
}

// EvaluationFailed counts an evaluator failure.
func (c *Collector) EvaluationFailed() {
	if c == nil {
		return
	}
	c.evaluationFailures.Inc()
}

// ObserveReviewLatency records how long a reviewer took to answer.
func (c *Collector) ObserveReviewLatency(d time.Duration) {
	if c == nil {
		return
	}
	c.reviewLatency.Observe(d.Seconds())
}
