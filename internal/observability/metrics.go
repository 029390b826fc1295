// Package observability exposes Prometheus metrics and a localhost-only
// debug server, grounded on the teacher's internal/api/observability.go,
// narrowed from the arena-brawler's player/particle/render counters to
// the rollback-netcode counters this engine actually produces: kernel
// step timing, rollback frequency/span, transport health, and desync
// detections. Bounded-cardinality labels only — no per-player or
// per-peer-address labels, for the same DoS-prevention reason the
// teacher calls out.
package observability

import (
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	stepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fightnet_kernel_step_duration_seconds",
		Help:    "Time spent in a single kernel.Step call",
		Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.005},
	})

	rollbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fightnet_rollbacks_total",
		Help: "Total rollback events executed by the controller",
	})

	rollbackSpanFrames = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fightnet_rollback_span_frames",
		Help:    "Distribution of rewind spans (frames) per rollback",
		Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128},
	})

	frameDelayFrames = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fightnet_frame_delay_frames",
		Help: "Current adaptive local input frame delay",
	})

	transportRTT = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fightnet_transport_rtt_ms",
		Help: "Smoothed round-trip time to the remote peer",
	})

	transportJitter = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fightnet_transport_jitter_ms",
		Help: "Smoothed jitter of the remote peer's round trips",
	})

	packetsLostTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fightnet_transport_packets_lost_total",
		Help: "Inbound messages that failed to decode or were never delivered",
	})

	// bounded: "origin", "rate_limit", "ip_limit", "total_limit"
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fightnet_connection_rejected_total",
		Help: "LocalWS connections rejected before upgrade",
	}, []string{"reason"})

	desyncDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fightnet_desync_detected_total",
		Help: "Diagnostic desync events observed (see spec error taxonomy)",
	})

	sessionsLostTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fightnet_sessions_lost_total",
		Help: "Sessions that ended with SessionLost",
	})
)

// RecordStep records one kernel.Step's wall-clock duration.
func RecordStep(d time.Duration) {
	stepDuration.Observe(d.Seconds())
}

// RecordRollback records one rollback's rewind span in frames.
func RecordRollback(spanFrames int) {
	rollbacksTotal.Inc()
	rollbackSpanFrames.Observe(float64(spanFrames))
}

// SetFrameDelay updates the current adaptive frame delay gauge.
func SetFrameDelay(frames int) {
	frameDelayFrames.Set(float64(frames))
}

// SetTransportHealth updates the RTT/jitter gauges for the active peer.
func SetTransportHealth(rttMillis, jitterMillis float64) {
	transportRTT.Set(rttMillis)
	transportJitter.Set(jitterMillis)
}

// RecordPacketLost increments the lost-packet counter.
func RecordPacketLost() {
	packetsLostTotal.Inc()
}

// RecordConnectionRejected increments the rejection counter for reason,
// which must be one of: "origin", "rate_limit", "ip_limit", "total_limit".
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordDesyncDetected increments the desync diagnostic counter.
func RecordDesyncDetected() {
	desyncDetectedTotal.Inc()
}

// RecordSessionLost increments the terminal session-loss counter.
func RecordSessionLost() {
	sessionsLostTotal.Inc()
}

// Config configures the debug server.
type Config struct {
	Enabled       bool
	ListenAddr    string // should be "127.0.0.1:<port>"; forced there unless overridden
	BasicAuthUser string
	BasicAuthPass string
}

// DefaultConfig returns a localhost-only, enabled configuration.
func DefaultConfig() Config {
	return Config{Enabled: true, ListenAddr: "127.0.0.1:9360"}
}

// StartDebugServer starts the metrics/pprof/health server. It forces a
// localhost bind address unless ALLOW_DEBUG_EXTERNAL=true is set,
// matching the teacher's DoS-prevention stance.
func StartDebugServer(cfg Config) error {
	if !cfg.Enabled {
		log.Println("observability: debug server disabled")
		return nil
	}

	if !isLocalhost(cfg.ListenAddr) && os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
		log.Printf("observability: forcing debug server to localhost (was %q)", cfg.ListenAddr)
		cfg.ListenAddr = "127.0.0.1:9360"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	var handler http.Handler = mux
	if cfg.BasicAuthUser != "" {
		handler = basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass, mux)
	}

	go func() {
		log.Printf("observability: debug server listening on %s", cfg.ListenAddr)
		if err := http.ListenAndServe(cfg.ListenAddr, handler); err != nil {
			log.Printf("observability: debug server error: %v", err)
		}
	}()

	return nil
}

func isLocalhost(addr string) bool {
	return len(addr) >= 10 && (addr[:10] == "127.0.0.1:" || addr[:10] == "localhost:")
}

func basicAuthMiddleware(user, pass string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
