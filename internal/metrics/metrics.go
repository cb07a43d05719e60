package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BarsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "argo_fx_bars_processed_total", Help: "Market bars replayed through strategies"},
		[]string{"symbol"},
	)
	OrdersFilled = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "argo_fx_orders_filled_total", Help: "Orders filled by the backtest broker"},
		[]string{"side", "reason"},
	)
	AccountEquity = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "argo_fx_account_equity", Help: "Mark to market equity of the active run"},
	)
	OpenPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "argo_fx_open_positions", Help: "Open positions held by the active run"},
	)
)

func init() {
	prometheus.MustRegister(BarsProcessed, OrdersFilled, AccountEquity, OpenPositions)
}

// Serve exposes the registered metrics on addr under /metrics and returns
// the server so the caller can shut it down.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() { _ = srv.ListenAndServe() }()

	return srv
}
