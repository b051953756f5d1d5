package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 指标管理器
type Metrics struct {
	// HTTP请求指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 危机流程指标
	assessmentsTotal    *prometheus.CounterVec
	alertsTotal         *prometheus.CounterVec
	notificationsTotal  *prometheus.CounterVec
	escalationsTotal    prometheus.Counter
	acknowledgedTotal   prometheus.Counter
	capabilityFailTotal *prometheus.CounterVec
}

// NewMetrics 创建指标管理器
func NewMetrics() *Metrics {
	return &Metrics{
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		assessmentsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crisis_assessments_total",
				Help: "Risk assessments grouped by resulting level",
			},
			[]string{"level"},
		),
		alertsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crisis_alerts_total",
				Help: "Crisis alerts created, by risk level",
			},
			[]string{"level"},
		),
		notificationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crisis_contact_notifications_total",
				Help: "Per-contact notification attempts by channel and outcome",
			},
			[]string{"channel", "outcome"},
		),
		escalationsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "crisis_escalations_total",
				Help: "Alerts escalated to authorities after response timeout",
			},
		),
		acknowledgedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "crisis_acknowledgments_total",
				Help: "Alerts acknowledged before or after escalation",
			},
		),
		capabilityFailTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capability_failures_total",
				Help: "Capability provider failures by capability",
			},
			[]string{"capability"},
		),
	}
}

func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (m *Metrics) RecordAssessment(level string)        { m.assessmentsTotal.WithLabelValues(level).Inc() }
func (m *Metrics) RecordAlert(level string)             { m.alertsTotal.WithLabelValues(level).Inc() }
func (m *Metrics) RecordEscalation()                    { m.escalationsTotal.Inc() }
func (m *Metrics) RecordAcknowledgment()                { m.acknowledgedTotal.Inc() }
func (m *Metrics) RecordCapabilityFailure(name string)  { m.capabilityFailTotal.WithLabelValues(name).Inc() }
func (m *Metrics) RecordNotification(channel, outcome string) {
	m.notificationsTotal.WithLabelValues(channel, outcome).Inc()
}
