package metrics

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultReadHeaderTimeout = 10 * time.Second

// Exporter отдаёт метрики по HTTP.
type Exporter struct {
	addr     string
	server   *http.Server
	registry *prometheus.Registry
	mu       sync.Mutex
	started  bool
	closed   bool
}

// NewExporter создаёт экспортер на адресе addr.
func NewExporter(addr string) *Exporter {
	reg := prometheus.NewRegistry()

	for _, c := range allMetrics {
		reg.MustRegister(c)
	}

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Exporter{
		addr:     addr,
		registry: reg,
	}
}

// Registry возвращает реестр экспортера.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler возвращает mux с /metrics и /health.
func (e *Exporter) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Start блокируется, пока сервер не остановлен.
// После Shutdown возвращает http.ErrServerClosed.
func (e *Exporter) Start() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return http.ErrServerClosed
	}
	if e.started {
		e.mu.Unlock()
		return nil
	}

	e.server = &http.Server{
		Addr:              e.addr,
		Handler:           e.Handler(),
		ReadHeaderTimeout: defaultReadHeaderTimeout,
	}
	e.started = true
	e.mu.Unlock()

	return e.server.ListenAndServe()
}

// Shutdown останавливает сервер. Start после Shutdown сразу возвращает ошибку.
func (e *Exporter) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true

	if e.server != nil && e.started {
		e.started = false
		return e.server.Shutdown(ctx)
	}
	return nil
}
