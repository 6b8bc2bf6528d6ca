// Package metrics exposes Prometheus counters for answers, tickets and card actions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the helpdesk collectors. A nil *Recorder is valid and records nothing.
type Recorder struct {
	answers           *prometheus.CounterVec
	tickets           *prometheus.CounterVec
	actions           *prometheus.CounterVec
	generatorFailures prometheus.Counter
	requestDuration   *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_answers_total",
			Help: "Answers served by source (kb, generated, fallback).",
		}, []string{"source"}),
		tickets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_tickets_total",
			Help: "Ticket writes by resulting status and outcome.",
		}, []string{"status", "outcome"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_actions_total",
			Help: "Card and button actions handled.",
		}, []string{"action"}),
		generatorFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "helpdesk_generator_failures_total",
			Help: "Generator calls that ended in the static fallback.",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "helpdesk_request_duration_seconds",
			Help:    "Webhook handling latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	if reg != nil {
		reg.MustRegister(r.answers, r.tickets, r.actions, r.generatorFailures, r.requestDuration)
	}
	return r
}

// AnswerServed counts an answer by its source tag.
func (r *Recorder) AnswerServed(source string) {
	if r == nil {
		return
	}
	r.answers.WithLabelValues(source).Inc()
}

// TicketRecorded counts a ticket write. outcome is "ok" or "error".
func (r *Recorder) TicketRecorded(status, outcome string) {
	if r == nil {
		return
	}
	r.tickets.WithLabelValues(status, outcome).Inc()
}

// ActionHandled counts a feedback action.
func (r *Recorder) ActionHandled(action string) {
	if r == nil {
		return
	}
	r.actions.WithLabelValues(action).Inc()
}

func (r *Recorder) GeneratorFailed() {
	if r == nil {
		return
	}
	r.generatorFailures.Inc()
}

// ObserveRequest records how long a route took.
func (r *Recorder) ObserveRequest(route string, d time.Duration) {
	if r == nil {
		return
	}
	r.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}
