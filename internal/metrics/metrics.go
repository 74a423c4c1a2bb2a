package metrics

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tinkoff-invest-bot/internal/logger"
)

var (
	brokerRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "invest_bot_broker_requests_total",
		Help: "Broker API calls by method and outcome",
	}, []string{"method", "status"})

	brokerRequestSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "invest_bot_broker_request_seconds",
		Help:    "Broker API call latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	rebalanceRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "invest_bot_rebalance_runs_total",
		Help: "Rebalance runs by outcome",
	}, []string{"status"})

	ordersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "invest_bot_orders_total",
		Help: "Orders by direction and outcome",
	}, []string{"direction", "status"})

	scrapeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "invest_bot_scrape_total",
		Help: "Index page fetches by outcome",
	}, []string{"status"})
)

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveBrokerRequest records one broker call.
func ObserveBrokerRequest(method string, d time.Duration, err error) {
	brokerRequestsTotal.WithLabelValues(method, outcome(err)).Inc()
	brokerRequestSeconds.WithLabelValues(method).Observe(d.Seconds())
}

func IncRebalance(err error) {
	rebalanceRunsTotal.WithLabelValues(outcome(err)).Inc()
}

// IncOrder records an order; status is the broker status or "error".
func IncOrder(direction, status string) {
	ordersTotal.WithLabelValues(normalizeDirection(direction), normalizeOrderStatus(status)).Inc()
}

func IncScrape(err error) {
	scrapeTotal.WithLabelValues(outcome(err)).Inc()
}

func normalizeDirection(d string) string {
	switch strings.ToUpper(d) {
	case "BUY":
		return "buy"
	case "SELL":
		return "sell"
	default:
		return "unknown"
	}
}

// Broker statuses are an open set; keep label cardinality bounded.
func normalizeOrderStatus(s string) string {
	switch s {
	case "SIMULATED":
		return "simulated"
	case "EXECUTION_REPORT_STATUS_FILL":
		return "filled"
	case "EXECUTION_REPORT_STATUS_PARTIALLYFILL":
		return "partial"
	case "EXECUTION_REPORT_STATUS_NEW":
		return "new"
	case "EXECUTION_REPORT_STATUS_REJECTED":
		return "rejected"
	case "error":
		return "error"
	default:
		return "other"
	}
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "Metrics endpoint listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	}
}
