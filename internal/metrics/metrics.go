// Package metrics exposes search progress to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Collector records search events. It implements search.Observer.
type Collector struct {
	registry *prometheus.Registry

	Rounds      *prometheus.CounterVec
	Evaluations prometheus.Histogram
	BestScore   prometheus.Gauge
}

// NewCollector creates a collector with its own registry. Ranks sharing a
// process each get a rank label value.
func NewCollector(namespace string, rank int) *Collector {
	registry := prometheus.NewRegistry()
	labels := prometheus.Labels{"rank": strconv.Itoa(rank)}

	rounds := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "search_rounds_total",
			Help:        "Search rounds by outcome",
			ConstLabels: labels,
		},
		[]string{"outcome"},
	)
	evaluations := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "candidate_evaluation_seconds",
			Help:        "Time spent aligning one candidate bipartition",
			Buckets:     prometheus.ExponentialBuckets(0.0001, 4, 10),
			ConstLabels: labels,
		},
	)
	best := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "best_score",
			Help:        "Score of the most recently accepted merge",
			ConstLabels: labels,
		},
	)
	registry.MustRegister(rounds, evaluations, best)

	return &Collector{registry: registry, Rounds: rounds, Evaluations: evaluations, BestScore: best}
}

func (c *Collector) ObserveEvaluation(elapsed time.Duration) {
	c.Evaluations.Observe(elapsed.Seconds())
}

func (c *Collector) ObserveRound(accepted bool, bestScore int) {
	if accepted {
		c.Rounds.WithLabelValues("accepted").Inc()
		c.BestScore.Set(float64(bestScore))
		return
	}
	c.Rounds.WithLabelValues("rejected").Inc()
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Router serves /metrics and /health.
func (c *Collector) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})
	r.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
	return r
}

// Serve runs the metrics server on addr until ctx is done.
func Serve(ctx context.Context, addr string, h http.Handler, logger *zap.Logger) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()
	logger.Info("metrics listening", zap.String("addr", lis.Addr().String()))
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
