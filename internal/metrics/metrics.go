// Package metrics exports analysis and reminder telemetry to Prometheus.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
	"github.com/prometheus/client_golang/prometheus"
)

// Observer captures telemetry for engine runs.
type Observer interface {
	RecordStage(stage string, duration time.Duration, err error)
	RecordPatterns(byFrequency map[model.Frequency]int)
	RecordMissing(detected, overdue int)
	RecordRemindersGenerated(byType map[model.ReminderType]int)
	RecordDispatch(sent, failed map[model.Channel]int)
}

// PrometheusObserver exports engine metrics to Prometheus.
type PrometheusObserver struct {
	stageDuration      *prometheus.HistogramVec
	stageErrors        *prometheus.CounterVec
	patterns           *prometheus.GaugeVec
	missingDetected    prometheus.Gauge
	missingOverdue     prometheus.Gauge
	remindersGenerated *prometheus.CounterVec
	remindersSent      *prometheus.CounterVec
	remindersFailed    *prometheus.CounterVec
}

// NewPrometheusObserver registers the engine metrics with reg, or the default
// registerer when reg is nil.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "paperwork"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	o := &PrometheusObserver{
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Latency of analysis, detection and reminder stages.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		stageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_errors_total",
			Help:      "Count of failed engine stages.",
		}, []string{"stage"}),
		patterns: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "patterns",
			Help:      "Detected upload patterns by frequency.",
		}, []string{"frequency"}),
		missingDetected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "missing_documents",
			Help:      "Documents expected but not yet uploaded in the last detection pass.",
		}),
		missingOverdue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "missing_documents_overdue",
			Help:      "Missing documents past their grace period in the last detection pass.",
		}),
		remindersGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_generated_total",
			Help:      "Reminders generated by type.",
		}, []string{"type"}),
		remindersSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_sent_total",
			Help:      "Reminders delivered by channel.",
		}, []string{"channel"}),
		remindersFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_failed_total",
			Help:      "Reminder deliveries that failed by channel.",
		}, []string{"channel"}),
	}

	r := &registrar{reg: reg}
	o.stageDuration = register(r, o.stageDuration)
	o.stageErrors = register(r, o.stageErrors)
	o.patterns = register(r, o.patterns)
	o.missingDetected = register(r, o.missingDetected)
	o.missingOverdue = register(r, o.missingOverdue)
	o.remindersGenerated = register(r, o.remindersGenerated)
	o.remindersSent = register(r, o.remindersSent)
	o.remindersFailed = register(r, o.remindersFailed)
	if r.err != nil {
		return nil, r.err
	}
	return o, nil
}

type registrar struct {
	reg prometheus.Registerer
	err error
}

// register adds c to the registry, reusing an already registered collector of
// the same type so repeated construction against one registry is harmless.
func register[C prometheus.Collector](r *registrar, c C) C {
	if err := r.reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		if r.err == nil {
			r.err = fmt.Errorf("register metric: %w", err)
		}
	}
	return c
}

// RecordStage tracks stage latency and failures.
func (o *PrometheusObserver) RecordStage(stage string, duration time.Duration, err error) {
	if o == nil {
		return
	}
	o.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	if err != nil {
		o.stageErrors.WithLabelValues(stage).Inc()
	}
}

// RecordPatterns replaces the pattern gauges with the latest counts.
func (o *PrometheusObserver) RecordPatterns(byFrequency map[model.Frequency]int) {
	if o == nil {
		return
	}
	o.patterns.Reset()
	for freq, n := range byFrequency {
		o.patterns.WithLabelValues(string(freq)).Set(float64(n))
	}
}

// RecordMissing sets the missing document gauges.
func (o *PrometheusObserver) RecordMissing(detected, overdue int) {
	if o == nil {
		return
	}
	o.missingDetected.Set(float64(detected))
	o.missingOverdue.Set(float64(overdue))
}

// RecordRemindersGenerated counts generated reminders.
func (o *PrometheusObserver) RecordRemindersGenerated(byType map[model.ReminderType]int) {
	if o == nil {
		return
	}
	for t, n := range byType {
		o.remindersGenerated.WithLabelValues(string(t)).Add(float64(n))
	}
}

// RecordDispatch counts delivered and failed sends.
func (o *PrometheusObserver) RecordDispatch(sent, failed map[model.Channel]int) {
	if o == nil {
		return
	}
	for c, n := range sent {
		o.remindersSent.WithLabelValues(string(c)).Add(float64(n))
	}
	for c, n := range failed {
		o.remindersFailed.WithLabelValues(string(c)).Add(float64(n))
	}
}

// Nop discards all telemetry.
type Nop struct{}

// RecordStage does nothing.
func (Nop) RecordStage(string, time.Duration, error) {}

// RecordPatterns does nothing.
func (Nop) RecordPatterns(map[model.Frequency]int) {}

// RecordMissing does nothing.
func (Nop) RecordMissing(int, int) {}

// RecordRemindersGenerated does nothing.
func (Nop) RecordRemindersGenerated(map[model.ReminderType]int) {}

// RecordDispatch does nothing.
func (Nop) RecordDispatch(map[model.Channel]int, map[model.Channel]int) {}
