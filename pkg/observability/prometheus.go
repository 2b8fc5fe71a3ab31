package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/lineage/pkg/errors"
)

// Prometheus implements every hook interface on top of Prometheus
// collectors. Create one per registry with [NewPrometheus].
type Prometheus struct {
	queries       *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	queryResults  *prometheus.HistogramVec
	unknownCodes  *prometheus.CounterVec
	graphLoads    *prometheus.CounterVec
	graphNodes    prometheus.Gauge
	graphEdges    prometheus.Gauge
	cacheEvents   *prometheus.CounterVec
	cacheBytes    *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	httpInFlight  prometheus.Gauge
}

var (
	_ QueryHooks = (*Prometheus)(nil)
	_ CacheHooks = (*Prometheus)(nil)
	_ HTTPHooks  = (*Prometheus)(nil)
)

// NewPrometheus registers the lineage collectors with reg. Registering twice
// on the same registry panics, as with any promauto collector.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	f := promauto.With(reg)
	return &Prometheus{
		queries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lineage_queries_total",
			Help: "Total genealogy queries by operation and result",
		}, []string{"op", "result"}),
		queryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lineage_query_duration_seconds",
			Help:    "Genealogy query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~1.6s
		}, []string{"op"}),
		queryResults: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lineage_query_result_codes",
			Help:    "Number of codes returned per query",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000, 10000},
		}, []string{"op"}),
		unknownCodes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lineage_unknown_codes_total",
			Help: "Codes dropped from queries because they are not in the graph",
		}, []string{"op"}),
		graphLoads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lineage_graph_loads_total",
			Help: "Unified graph constructions by result",
		}, []string{"result"}),
		graphNodes: f.NewGauge(prometheus.GaugeOpts{
			Name: "lineage_graph_nodes",
			Help: "Node count of the most recently loaded unified graph",
		}),
		graphEdges: f.NewGauge(prometheus.GaugeOpts{
			Name: "lineage_graph_edges",
			Help: "Edge count of the most recently loaded unified graph",
		}),
		cacheEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lineage_cache_events_total",
			Help: "Cache hits, misses and writes by key type",
		}, []string{"key_type", "event"}),
		cacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lineage_cache_written_bytes_total",
			Help: "Bytes written to the cache by key type",
		}, []string{"key_type"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lineage_http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lineage_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		httpInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "lineage_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		}),
	}
}

func (p *Prometheus) OnQueryStart(context.Context, string, int) {}

func (p *Prometheus) OnQueryComplete(_ context.Context, op string, results, unknown int, d time.Duration, err error) {
	p.queries.WithLabelValues(op, resultLabel(err)).Inc()
	p.queryDuration.WithLabelValues(op).Observe(d.Seconds())
	if err == nil {
		p.queryResults.WithLabelValues(op).Observe(float64(results))
	}
	if unknown > 0 {
		p.unknownCodes.WithLabelValues(op).Add(float64(unknown))
	}
}

func (p *Prometheus) OnGraphLoad(_ context.Context, _ int, nodes, edges int, _ time.Duration, err error) {
	p.graphLoads.WithLabelValues(resultLabel(err)).Inc()
	if err == nil {
		p.graphNodes.Set(float64(nodes))
		p.graphEdges.Set(float64(edges))
	}
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	p.cacheEvents.WithLabelValues(keyType, "set").Inc()
	p.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (p *Prometheus) OnRequest(context.Context, string, string) {
	p.httpInFlight.Inc()
}

func (p *Prometheus) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	p.httpInFlight.Dec()
	p.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// resultLabel maps an error to a low-cardinality label: "ok", or the error
// code ("INVALID_DEPTH", "LIMIT_EXCEEDED", ...), or "error".
func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if code := errors.GetCode(err); code != "" {
		return string(code)
	}
	return "error"
}
