package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes dispatch and sampling counters. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	reg *prometheus.Registry

	records   *prometheus.CounterVec
	bytes     *prometheus.CounterVec
	errors    *prometheus.CounterVec
	ticks     *prometheus.CounterVec
	cpu       prometheus.Gauge
	rss       prometheus.Gauge
	sampleErr prometheus.Counter
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loadwriter",
			Name:      "records_total",
			Help:      "Records fully transferred, per sink.",
		}, []string{"sink"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loadwriter",
			Name:      "bytes_total",
			Help:      "Bytes transferred, per sink.",
		}, []string{"sink"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loadwriter",
			Name:      "transfer_errors_total",
			Help:      "Failed or short transfers, per sink.",
		}, []string{"sink"}),
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loadwriter",
			Name:      "ticks_total",
			Help:      "Completed ticks by phase.",
		}, []string{"phase"}),
		cpu: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "loadwriter",
			Name:      "target_cpu_percent",
			Help:      "CPU usage of the monitored process during the last tick.",
		}),
		rss: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "loadwriter",
			Name:      "target_rss_bytes",
			Help:      "Resident memory of the monitored process at the last sample.",
		}),
		sampleErr: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "loadwriter",
			Name:      "sample_errors_total",
			Help:      "Failed samples of the monitored process.",
		}),
	}
	reg.MustRegister(m.records, m.bytes, m.errors, m.ticks, m.cpu, m.rss, m.sampleErr)
	return m
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Transfer records one transfer to sink: bytes written and, when complete,
// the records it carried.
func (m *Metrics) Transfer(sink string, records int, bytes int64, err error) {
	if m == nil {
		return
	}
	if bytes > 0 {
		m.bytes.WithLabelValues(sink).Add(float64(bytes))
	}
	if err != nil {
		m.errors.WithLabelValues(sink).Inc()
		return
	}
	m.records.WithLabelValues(sink).Add(float64(records))
}

// Tick counts a finished tick in phase ("run" or "drain").
func (m *Metrics) Tick(phase string) {
	if m == nil {
		return
	}
	m.ticks.WithLabelValues(phase).Inc()
}

// Sample publishes the latest CPU percent and resident memory.
func (m *Metrics) Sample(cpu float64, rss uint64) {
	if m == nil {
		return
	}
	m.cpu.Set(cpu)
	m.rss.Set(float64(rss))
}

// SampleError counts a failed sample.
func (m *Metrics) SampleError() {
	if m == nil {
		return
	}
	m.sampleErr.Inc()
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
