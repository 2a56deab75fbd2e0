// metrics — счётчики и гистограммы рукопожатий и исходящих запросов к вендору.
//
// Все методы безопасны для nil-приёмника: без метрик код работает так же.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "telematics_auth"

// Значения label result.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics — набор метрик модуля.
type Metrics struct {
	handshakes *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	requests   *prometheus.CounterVec
}

// New создаёт метрики и регистрирует их в reg.
// reg == nil — метрики создаются, но никуда не регистрируются.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		handshakes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshake_total",
			Help:      "Completed handshakes by terminal stage and result.",
		}, []string{"stage", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handshake_duration_seconds",
			Help:      "Wall time of a handshake from start to terminal state.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"result"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vendor_requests_total",
			Help:      "Outbound requests to the vendor API by endpoint and HTTP status.",
		}, []string{"endpoint", "code"}),
	}

	if reg != nil {
		reg.MustRegister(m.handshakes, m.duration, m.requests)
	}

	return m
}

// ObserveHandshake учитывает завершённое рукопожатие.
// stage — стадия, на которой оно завершилось (для успеха — последняя).
func (m *Metrics) ObserveHandshake(stage string, err error, d time.Duration) {
	if m == nil {
		return
	}

	result := ResultOK
	if err != nil {
		result = ResultError
	}

	m.handshakes.WithLabelValues(stage, result).Inc()
	m.duration.WithLabelValues(result).Observe(d.Seconds())
}

// ObserveRequest учитывает исходящий запрос; code == 0 — транспортная ошибка.
func (m *Metrics) ObserveRequest(endpoint string, code int) {
	if m == nil {
		return
	}

	label := ResultError
	if code > 0 {
		label = strconv.Itoa(code)
	}

	m.requests.WithLabelValues(endpoint, label).Inc()
}
