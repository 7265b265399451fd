package metrics

import (
    "bufio"
    "fmt"
    "net"
    "net/http"
    "strconv"
    "sync"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/collectors"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
    // Registry is the dedicated Prometheus registry for the API
    Registry = prometheus.NewRegistry()
    // HTTPRequests counts requests by method, path, and status
    HTTPRequests = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
        []string{"method", "path", "status"},
    )
    // HTTPDuration records request durations in seconds
    HTTPDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
        []string{"method", "path", "status"},
    )

    // Solves counts finished solves by outcome status
    Solves = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "solves_total", Help: "Allocation solves by outcome status."},
        []string{"status"},
    )
    SolveDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "solve_duration_seconds", Help: "Allocation solve wall time in seconds.", Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30}},
        []string{"status"},
    )
    SolveNodes = prometheus.NewHistogram(
        prometheus.HistogramOpts{Name: "solve_search_nodes", Help: "Search nodes explored per solve.", Buckets: prometheus.ExponentialBuckets(1, 4, 10)},
    )
    // WebhookDeliveries counts notification attempts by result (ok, retry, failed)
    WebhookDeliveries = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "webhook_deliveries_total", Help: "Solve notification delivery attempts by result."},
        []string{"result"},
    )
    WorkersUsed = prometheus.NewHistogram(
        prometheus.HistogramOpts{Name: "solve_workers_used", Help: "Workers in the returned allocation.", Buckets: prometheus.LinearBuckets(1, 2, 15)},
    )
)

// RegisterDefault registers collectors to the default registry.
func RegisterDefault() {
    regOnce.Do(func(){
        Registry.MustRegister(HTTPRequests)
        Registry.MustRegister(HTTPDuration)
        Registry.MustRegister(Solves)
        Registry.MustRegister(SolveDuration)
        Registry.MustRegister(SolveNodes)
        Registry.MustRegister(WorkersUsed)
        Registry.MustRegister(WebhookDeliveries)
        // Go/process collectors on our registry
        Registry.MustRegister(collectors.NewGoCollector())
        Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
    })
}

var regOnce sync.Once

// Handler serves the dedicated registry.
func Handler() http.Handler {
    return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveSolve records one finished solve. workers is ignored when negative.
func ObserveSolve(status string, elapsed time.Duration, nodes, workers int) {
    Solves.WithLabelValues(status).Inc()
    SolveDuration.WithLabelValues(status).Observe(elapsed.Seconds())
    SolveNodes.Observe(float64(nodes))
    if workers >= 0 { WorkersUsed.Observe(float64(workers)) }
}

type statusRecorder struct {
    http.ResponseWriter
    status int
}

func (r *statusRecorder) WriteHeader(code int) {
    r.status = code
    r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE streaming working through the recorder.
func (r *statusRecorder) Flush() {
    if f, ok := r.ResponseWriter.(http.Flusher); ok { f.Flush() }
}

// Hijack lets WebSocket upgrades pass through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
    h, ok := r.ResponseWriter.(http.Hijacker)
    if !ok { return nil, nil, fmt.Errorf("metrics: %T does not support hijacking", r.ResponseWriter) }
    r.status = http.StatusSwitchingProtocols
    return h.Hijack()
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Instrument counts and times requests. route maps a request to a low
// cardinality path label.
func Instrument(next http.Handler, route func(*http.Request) string) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        start := time.Now()
        rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
        next.ServeHTTP(rec, r)
        labels := []string{r.Method, route(r), strconv.Itoa(rec.status)}
        HTTPRequests.WithLabelValues(labels...).Inc()
        HTTPDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
    })
}
