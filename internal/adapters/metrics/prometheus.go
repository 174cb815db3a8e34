// Package metrics exposes flip and exchange-call metrics to Prometheus:
//
//	flipbot_exchange_calls_total{exchange,op,status}  exchange calls by outcome
//	flipbot_exchange_call_seconds{exchange,op}        exchange call latency
//	flipbot_flips_total{direction,result}             flips by terminal state (ok or lowercased reason)
//	flipbot_flip_seconds{direction}                   flip duration
//	flipbot_close_fallbacks_total{exchange}           reduce-only fallbacks after a failed close-whole
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"signalFlipBot/internal/ports"
)

var _ ports.Metrics = (*Prometheus)(nil)

// Prometheus implements ports.Metrics on its own registry.
type Prometheus struct {
	registry      *prometheus.Registry
	exchangeCalls *prometheus.CounterVec
	exchangeTime  *prometheus.HistogramVec
	flips         *prometheus.CounterVec
	flipTime      *prometheus.HistogramVec
	fallbacks     *prometheus.CounterVec
}

// NewPrometheus creates the collectors and registers them, together with the
// Go runtime and process collectors, on a fresh registry.
func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		exchangeCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flipbot_exchange_calls_total",
				Help: "Exchange calls by operation and result status",
			},
			[]string{"exchange", "op", "status"},
		),
		exchangeTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flipbot_exchange_call_seconds",
				Help:    "Exchange call latency",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
			},
			[]string{"exchange", "op"},
		),
		flips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flipbot_flips_total",
				Help: "Flips by direction and terminal result",
			},
			[]string{"direction", "result"},
		),
		flipTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flipbot_flip_seconds",
				Help:    "Wall time of one flip, lock wait included",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
			},
			[]string{"direction"},
		),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flipbot_close_fallbacks_total",
				Help: "Reduce-only fallbacks issued after a failed close-whole",
			},
			[]string{"exchange"},
		),
	}
	p.registry.MustRegister(
		p.exchangeCalls, p.exchangeTime, p.flips, p.flipTime, p.fallbacks,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

// Handler serves the registry in the Prometheus text format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

func (p *Prometheus) ObserveExchangeCall(exchange, op string, status ports.Status, elapsed time.Duration) {
	p.exchangeCalls.WithLabelValues(exchange, op, string(status)).Inc()
	p.exchangeTime.WithLabelValues(exchange, op).Observe(elapsed.Seconds())
}

func (p *Prometheus) ObserveFlip(direction, result string, elapsed time.Duration) {
	p.flips.WithLabelValues(direction, result).Inc()
	p.flipTime.WithLabelValues(direction).Observe(elapsed.Seconds())
}

func (p *Prometheus) ObserveCloseFallback(exchange string) {
	p.fallbacks.WithLabelValues(exchange).Inc()
}
