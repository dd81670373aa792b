package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors exported on /metrics.
type Metrics struct {
	requestDuration *prometheus.HistogramVec
	completions     *prometheus.CounterVec
	planDenials     *prometheus.CounterVec
	billingActions  *prometheus.CounterVec
	webhookEvents   *prometheus.CounterVec
	gatherer        prometheus.Gatherer
}

// New registers the collectors on reg. A nil registry yields a no-op recorder.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	m := &Metrics{
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sommelier_completions_total",
			Help: "AI completion calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		planDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plan_limit_denials_total",
			Help: "Writes rejected by the free plan ceiling.",
		}, []string{"kind"}),
		billingActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billing_actions_total",
			Help: "Subscription lifecycle actions by outcome.",
		}, []string{"action", "outcome"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stripe_webhook_events_total",
			Help: "Stripe webhook deliveries by type and outcome.",
		}, []string{"type", "outcome"}),
		gatherer: reg,
	}
	reg.MustRegister(m.requestDuration, m.completions, m.planDenials, m.billingActions, m.webhookEvents)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil || m.requestDuration == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, normalizeLabel(route), strconv.Itoa(status)).Observe(d.Seconds())
}

// Completion outcomes are "ok", "error" or "fallback".
func (m *Metrics) Completion(operation, outcome string) {
	if m == nil || m.completions == nil {
		return
	}
	m.completions.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

func (m *Metrics) PlanLimitDenied(kind string) {
	if m == nil || m.planDenials == nil {
		return
	}
	m.planDenials.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *Metrics) BillingAction(action string, err error) {
	if m == nil || m.billingActions == nil {
		return
	}
	m.billingActions.WithLabelValues(normalizeLabel(action), outcomeOf(err)).Inc()
}

func (m *Metrics) WebhookEvent(eventType string, err error) {
	if m == nil || m.webhookEvents == nil {
		return
	}
	m.webhookEvents.WithLabelValues(normalizeLabel(eventType), outcomeOf(err)).Inc()
}

func outcomeOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
