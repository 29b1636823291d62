package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"
)

// Prometheus metric names.
const (
	MetricPagesOpenedTotal    = "trafficsim_pages_opened_total"
	MetricLinkRejectionsTotal = "trafficsim_link_rejections_total"
	MetricDeadEndsTotal       = "trafficsim_dead_ends_total"
	MetricSessionResetsTotal  = "trafficsim_session_resets_total"
	MetricUsersTotal          = "trafficsim_users_total"
	MetricActiveUsers         = "trafficsim_active_users"
	MetricDwellSeconds        = "trafficsim_dwell_seconds"
)

// dwellBuckets cover the default 0-9s read time with one bucket per second.
var dwellBuckets = []float64{0.5, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 15, 30}

// PrometheusRecorder is a Recorder backed by a private Prometheus registry,
// optionally served over HTTP.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type PrometheusRecorder struct {
	registry *prometheus.Registry
	logger   *zap.Logger

	pagesOpened    prometheus.Counter
	linkRejections *prometheus.CounterVec
	deadEnds       prometheus.Counter
	sessionResets  prometheus.Counter
	users          *prometheus.CounterVec
	activeUsers    prometheus.Gauge
	dwellSeconds   prometheus.Histogram

	mu     sync.Mutex
	server *http.Server
	ln     net.Listener
}

var _ Recorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder creates a recorder with every metric registered.
func NewPrometheusRecorder(logger *zap.Logger) *PrometheusRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		logger:   logger.Named("metrics"),
		pagesOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricPagesOpenedTotal,
			Help: "Page loads by virtual users, entry re-opens after dead ends included.",
		}),
		linkRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricLinkRejectionsTotal,
			Help: "Drawn links rejected by the link filter, by reason.",
		}, []string{"reason"}),
		deadEnds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricDeadEndsTotal,
			Help: "Pages abandoned for the entry page (no anchors or no eligible link).",
		}),
		sessionResets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricSessionResetsTotal,
			Help: "Session resets between viewing rounds.",
		}),
		users: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricUsersTotal,
			Help: "Finished virtual users, by outcome.",
		}, []string{"outcome"}),
		activeUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricActiveUsers,
			Help: "Virtual users currently running.",
		}),
		dwellSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricDwellSeconds,
			Help:    "Drawn read time per opened page.",
			Buckets: dwellBuckets,
		}),
	}

	r.registry.MustRegister(
		r.pagesOpened,
		r.linkRejections,
		r.deadEnds,
		r.sessionResets,
		r.users,
		r.activeUsers,
		r.dwellSeconds,
	)
	return r
}

func (r *PrometheusRecorder) PageOpened(dwell time.Duration) {
	r.pagesOpened.Inc()
	r.dwellSeconds.Observe(dwell.Seconds())
}

func (r *PrometheusRecorder) LinkRejected(reason string) {
	r.linkRejections.WithLabelValues(reason).Inc()
}

func (r *PrometheusRecorder) DeadEnd()      { r.deadEnds.Inc() }
func (r *PrometheusRecorder) SessionReset() { r.sessionResets.Inc() }
func (r *PrometheusRecorder) UserStarted()  { r.activeUsers.Inc() }

func (r *PrometheusRecorder) UserFinished(outcome string) {
	r.activeUsers.Dec()
	r.users.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Serve starts the metrics endpoint on listen at path. It returns once the
// listener is bound; Shutdown stops it.
func (r *PrometheusRecorder) Serve(listen, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.server != nil {
		return nil
	}
	if path == "" {
		path = "/metrics"
	}

	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return fmt.Errorf("starting metrics endpoint: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle(path, r.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.ln = ln
	r.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	srv := r.server
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("Metrics endpoint stopped.", zap.Error(err))
		}
	}()

	r.logger.Info("Serving metrics.", zap.String("address", ln.Addr().String()), zap.String("path", path))
	return nil
}

// Addr returns the bound address of the metrics endpoint, or "" when not serving.
func (r *PrometheusRecorder) Addr() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ln == nil {
		return ""
	}
	return r.ln.Addr().String()
}

// Shutdown stops the metrics endpoint if it is running.
func (r *PrometheusRecorder) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	srv := r.server
	r.server = nil
	r.ln = nil
	r.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Gather collects all metric families from the registry.
func (r *PrometheusRecorder) Gather() ([]*dto.MetricFamily, error) {
	return r.registry.Gather()
}
