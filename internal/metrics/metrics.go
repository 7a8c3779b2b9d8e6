// Package metrics exposes Prometheus counters for the segmentation engine.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	defaultNamespace = "freqlog"
	shutdownTimeout  = 5 * time.Second
)

// Flush reasons recorded by the engine.
const (
	ReasonWhitespace = "whitespace"
	ReasonKey        = "key"
	ReasonTimeout    = "timeout"
	ReasonGap        = "gap"
	ReasonStop       = "stop"
)

// Option applies a configuration option to Metrics.
type Option func(*Metrics)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Metrics) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithRegistry registers metrics on reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(m *Metrics) {
		if reg != nil {
			m.registry = reg
		}
	}
}

// Metrics holds engine and queue instruments. A nil *Metrics records nothing.
type Metrics struct {
	namespace string
	registry  *prometheus.Registry

	entries       *prometheus.CounterVec
	flushes       *prometheus.CounterVec
	discarded     prometheus.Counter
	banned        prometheus.Counter
	persistErrors prometheus.Counter
	queueDepth    prometheus.Gauge
}

// New creates and registers the instruments.
func New(opts ...Option) *Metrics {
	m := &Metrics{namespace: defaultNamespace}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.entries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "entries_total",
		Help:      "Entries handed to the store, by kind.",
	}, []string{"kind"})
	m.flushes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "flushes_total",
		Help:      "Pending entry flushes, by reason.",
	}, []string{"reason"})
	m.discarded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "discarded_total",
		Help:      "Flushed entries shorter than the minimum length.",
	})
	m.banned = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "banned_total",
		Help:      "Entries rejected because they are banned.",
	})
	m.persistErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "persist_errors_total",
		Help:      "Entries lost because the store returned an error.",
	})
	m.queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "queue_depth",
		Help:      "Events waiting in the input queue.",
	})
	m.registry.MustRegister(m.entries, m.flushes, m.discarded, m.banned, m.persistErrors, m.queueDepth)
	return m
}

// Registry returns the registry holding the instruments.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// EntryLogged counts an entry accepted by the store.
func (m *Metrics) EntryLogged(kind string) {
	if m == nil {
		return
	}
	m.entries.WithLabelValues(kind).Inc()
}

// Flushed counts a flush of a non-empty pending entry.
func (m *Metrics) Flushed(reason string) {
	if m == nil {
		return
	}
	m.flushes.WithLabelValues(reason).Inc()
}

// Discarded counts an entry dropped for being too short.
func (m *Metrics) Discarded() {
	if m == nil {
		return
	}
	m.discarded.Inc()
}

// Banned counts an entry the store refused.
func (m *Metrics) Banned() {
	if m == nil {
		return
	}
	m.banned.Inc()
}

// PersistError counts a failed store write.
func (m *Metrics) PersistError() {
	if m == nil {
		return
	}
	m.persistErrors.Inc()
}

// QueueDepth records the current queue length.
func (m *Metrics) QueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *zap.SugaredLogger) error {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("metrics server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logger.Infow("metrics server stopped")
		return nil
	}
}
