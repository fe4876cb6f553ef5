// Package metrics exposes console activity in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vmrepl"

// Registry holds all host metrics.
type Registry struct {
	registry *prometheus.Registry

	Executions    *prometheus.CounterVec
	ExecutionTime *prometheus.HistogramVec
	CharsReceived prometheus.Counter
	Sessions      prometheus.Counter
}

// New creates a registry with the host metrics and the Go runtime and
// process collectors.
func New() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		Executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "executions_total",
			Help:      "Source units executed, by input kind and outcome.",
		}, []string{"kind", "outcome"}),
		ExecutionTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "execution_seconds",
			Help:      "Time spent executing source units.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"kind"}),
		CharsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chars_received_total",
			Help:      "Characters delivered to the console.",
		}),
		Sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Console sessions started.",
		}),
	}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.Executions,
		r.ExecutionTime,
		r.CharsReceived,
		r.Sessions,
	)
	return r
}

// ObserveExecution records one executed unit.
func (r *Registry) ObserveExecution(kind, outcome string, took time.Duration) {
	r.Executions.WithLabelValues(kind, outcome).Inc()
	r.ExecutionTime.WithLabelValues(kind).Observe(took.Seconds())
}

// CharReceived counts one character delivered to the console.
func (r *Registry) CharReceived() {
	r.CharsReceived.Inc()
}

// SessionStarted counts a new console session.
func (r *Registry) SessionStarted() {
	r.Sessions.Inc()
}

// Handler returns the /metrics handler.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (r *Registry) Serve(ctx context.Context, addr string, log *slog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return r.serve(ctx, ln, log)
}

func (r *Registry) serve(ctx context.Context, ln net.Listener, log *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", r.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("metrics listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
