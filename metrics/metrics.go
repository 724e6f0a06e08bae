// Package metrics registers the Prometheus collectors the bot updates
// during operation:
//   - algotrade_orders_total{instruction}    – fills recorded
//   - algotrade_rejections_total{code}       – trades blocked by the gate
//   - algotrade_errors_total                 – errors written to the logbook
//   - algotrade_open_positions               – strategies holding a position
//
// Served by the admin HTTP surface at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	orders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "algotrade_orders_total",
			Help: "Fills recorded, by order instruction",
		},
		[]string{"instruction"},
	)

	rejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "algotrade_rejections_total",
			Help: "Trade attempts blocked by the eligibility gate, by violation code",
		},
		[]string{"code"},
	)

	errorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "algotrade_errors_total",
			Help: "Errors appended to the error logbook",
		},
	)

	openPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "algotrade_open_positions",
			Help: "Strategies currently holding a directional position",
		},
	)
)

func init() {
	prometheus.MustRegister(orders, rejections, errorsTotal, openPositions)
}

func OrderRecorded(instruction string) { orders.WithLabelValues(instruction).Inc() }
func TradeRejected(code string)        { rejections.WithLabelValues(code).Inc() }
func ErrorRecorded()                   { errorsTotal.Inc() }
func SetOpenPositions(n int)           { openPositions.Set(float64(n)) }

// Handler serves the Prometheus text exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
