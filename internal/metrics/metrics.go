// Package metrics exposes Prometheus counters and gauges the assistant
// updates during operation:
//   - pilot_signals_total{signal}        – classifier verdicts by kind
//   - pilot_orders_total{side,backend}   – orders submitted to the broker
//   - pilot_workflow_runs_total{state}   – workflow runs by terminal state
//   - pilot_autopilot_runs_total{outcome} – scheduled runs by terminal outcome
//   - pilot_account_equity_usd           – latest account equity snapshot
//
// Registered in init() and served at /metrics in Prometheus text format.
package metrics

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	signals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pilot_signals_total",
			Help: "Classifier verdicts by signal kind",
		},
		[]string{"signal"},
	)

	orders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pilot_orders_total",
			Help: "Orders submitted to the broker",
		},
		[]string{"side", "backend"},
	)

	workflowRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pilot_workflow_runs_total",
			Help: "Order workflow runs by terminal state",
		},
		[]string{"state"},
	)

	autopilotRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pilot_autopilot_runs_total",
			Help: "Scheduled autopilot runs by terminal outcome",
		},
		[]string{"outcome"},
	)

	equity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pilot_account_equity_usd",
			Help: "Latest account equity snapshot in USD",
		},
	)
)

func init() {
	prometheus.MustRegister(signals, orders, workflowRuns, autopilotRuns, equity)
}

func IncSignal(kind string)         { signals.WithLabelValues(kind).Inc() }
func IncOrder(side, backend string) { orders.WithLabelValues(side, backend).Inc() }
func IncWorkflowRun(state string)   { workflowRuns.WithLabelValues(state).Inc() }
func IncAutoPilotRun(outcome string) {
	autopilotRuns.WithLabelValues(outcome).Inc()
}
func SetEquity(v float64) { equity.Set(v) }

// Serve starts the /metrics endpoint on addr in a background goroutine.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("[ERROR] metrics server: %v", err)
		}
	}()
	log.Printf("[INFO] metrics served on %s/metrics", addr)
}
