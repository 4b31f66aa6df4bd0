package metrics

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PacketsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aprsnoop_packets_total",
		Help: "Total number of decoded packets received",
	})
	HandledTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "aprsnoop_handled_total",
		Help: "Packets dispatched, by handler",
	}, []string{"handler"})
	UnhandledTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aprsnoop_unhandled_total",
		Help: "Packets no handler was registered for",
	})
	GeoCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aprsnoop_geocache_hits_total",
		Help: "Reverse geocode lookups served from the cache",
	})
	GeoCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aprsnoop_geocache_misses_total",
		Help: "Reverse geocode lookups that needed the geocoder",
	})
	GeocoderFailTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aprsnoop_geocoder_fail_total",
		Help: "Failed reverse geocode calls",
	})
	GeocoderDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "aprsnoop_geocoder_duration_ms",
		Help:    "Reverse geocode call duration in milliseconds",
		Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000},
	})
	TelemetryEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "aprsnoop_telemetry_entries",
		Help: "Telemetry definitions currently being reassembled",
	})
	TelemetryEmittedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aprsnoop_telemetry_emitted_total",
		Help: "Telemetry lines written for complete definitions",
	})
	TelemetryEvictedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aprsnoop_telemetry_evicted_total",
		Help: "Stale telemetry definitions removed by the sweep",
	})
)

func init() {
	prometheus.MustRegister(PacketsTotal)
	prometheus.MustRegister(HandledTotal)
	prometheus.MustRegister(UnhandledTotal)
	prometheus.MustRegister(GeoCacheHitsTotal)
	prometheus.MustRegister(GeoCacheMissesTotal)
	prometheus.MustRegister(GeocoderFailTotal)
	prometheus.MustRegister(GeocoderDurationMs)
	prometheus.MustRegister(TelemetryEntries)
	prometheus.MustRegister(TelemetryEmittedTotal)
	prometheus.MustRegister(TelemetryEvictedTotal)
}

// Handler exposes the default registry.
func Handler() http.Handler { return promhttp.Handler() }

// Serve runs a /metrics endpoint on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Serving metrics on %s/metrics", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
