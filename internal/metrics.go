package internal

import (
	"context"
	"log"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Define Prometheus metrics
var (
	// Mutex for thread-safe metrics operations
	metricsMutex sync.RWMutex

	// Server reference for proper shutdown
	metricsServer *http.Server

	// System metrics
	goroutinesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sfu_goroutines",
		Help: "Current number of goroutines",
	})

	memoryUsage = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sfu_memory_bytes",
		Help: "Current memory usage in bytes",
	})

	// Latency histograms
	operationDurations = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sfu_operation_duration_seconds",
			Help:    "Time taken to complete operations",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10), // 1ms to ~1s
		},
		[]string{"operation"},
	)

	// Classifier metrics
	classifierRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sfu_classifier_rejected_total",
		Help: "Total number of datagrams the classifier could not identify",
	})

	classifierByKind = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sfu_classifier_packets_total",
			Help: "Total datagrams classified, by kind",
		},
		[]string{"kind"},
	)

	// DTLS handshake metrics
	handshakesStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sfu_dtls_handshakes_started_total",
		Help: "Total number of DTLS handshakes started",
	})

	handshakesCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sfu_dtls_handshakes_completed_total",
		Help: "Total number of DTLS handshakes that completed successfully",
	})

	handshakeOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sfu_dtls_handshake_outcomes_total",
			Help: "DTLS handshake outcomes by result",
		},
		[]string{"result"},
	)

	// RTP/SRTP metrics
	rtpPacketsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sfu_rtp_packets_total",
		Help: "Total number of RTP/RTCP packets processed",
	})

	rtpPacketsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sfu_rtp_packets_dropped",
		Help: "Total number of RTP/RTCP packets dropped",
	})

	srtpErrorsByKind = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sfu_srtp_errors_total",
			Help: "SRTP unprotect/protect failures by kind",
		},
		[]string{"kind"},
	)

	rtcpByType = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sfu_rtcp_packets_total",
			Help: "RTCP packets observed at ingress, by contained packet type",
		},
		[]string{"type"},
	)

	// Fan-out / routing metrics
	fanoutDeliveries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sfu_fanout_deliveries_total",
		Help: "Total number of per-destination packets delivered by the fan-out coordinator",
	})

	activeClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sfu_active_clients",
		Help: "Current number of registered clients",
	})

	groupSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sfu_group_size",
			Help: "Current member count per group",
		},
		[]string{"group_id"},
	)

	// Error metrics
	rtpErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sfu_errors_total",
			Help: "Total number of errors by type",
		},
		[]string{"type"},
	)

	// Success metrics
	rtpSuccesses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sfu_successes_total",
			Help: "Total number of successful operations by type",
		},
		[]string{"type"},
	)
)

// Initialize and register metrics with Prometheus
func InitMetrics() {
	// Register all metrics with Prometheus
	prometheus.MustRegister(classifierRejected)
	prometheus.MustRegister(classifierByKind)
	prometheus.MustRegister(handshakesStarted)
	prometheus.MustRegister(handshakesCompleted)
	prometheus.MustRegister(handshakeOutcomes)
	prometheus.MustRegister(rtpPacketsTotal)
	prometheus.MustRegister(rtpPacketsDropped)
	prometheus.MustRegister(srtpErrorsByKind)
	prometheus.MustRegister(rtcpByType)
	prometheus.MustRegister(fanoutDeliveries)
	prometheus.MustRegister(activeClients)
	prometheus.MustRegister(groupSize)
	prometheus.MustRegister(rtpErrors)
	prometheus.MustRegister(rtpSuccesses)

	// Register system metrics
	prometheus.MustRegister(goroutinesGauge)
	prometheus.MustRegister(memoryUsage)
	prometheus.MustRegister(operationDurations)

	// Start system metrics collection
	go collectSystemMetrics()

	// Log metrics initialization
	log.Println("✅ Metrics system initialized")
}

// StartMetricsServer starts the metrics HTTP server with proper timeouts and error handling
func StartMetricsServer(address string) error {
	if address == "" {
		address = ":9091" // Default metrics port
	}

	// Create a dedicated mux for metrics
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	// Add a health endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Create server with proper timeouts
	server := &http.Server{
		Addr:         address,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	metricsMutex.Lock()
	metricsServer = server
	metricsMutex.Unlock()

	// Start server in a goroutine
	go func() {
		log.Printf("🔍 Starting metrics server on %s", address)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ Metrics server error: %v", err)
		}
	}()

	return nil
}

// Update metrics dynamically

func RecordClassified(kind PacketKind) {
	classifierByKind.WithLabelValues(kind.String()).Inc()
}

func RecordHandshakeStarted() {
	handshakesStarted.Inc()
}

func RecordHandshakeOutcome(result string) {
	handshakeOutcomes.WithLabelValues(result).Inc()
	if result == "success" {
		handshakesCompleted.Inc()
	}
}

func IncrementRTPPackets() {
	rtpPacketsTotal.Inc()
}

func IncrementDroppedPackets() {
	rtpPacketsDropped.Inc()
}

func RecordSRTPError(kind string) {
	srtpErrorsByKind.WithLabelValues(kind).Inc()
}

// RecordRTCPKind records one ingress RTCP packet's classified type.
func RecordRTCPKind(kind string) {
	rtcpByType.WithLabelValues(kind).Inc()
}

func IncrementFanoutDeliveries(n int) {
	fanoutDeliveries.Add(float64(n))
}

func SetActiveClients(count int) {
	activeClients.Set(float64(count))
}

func SetGroupSize(groupID string, size int) {
	groupSize.WithLabelValues(groupID).Set(float64(size))
}

func DeleteGroupSize(groupID string) {
	groupSize.DeleteLabelValues(groupID)
}

// IncrementErrorMetric increments an error counter for specific error types
func IncrementErrorMetric(errorType string) {
	rtpErrors.WithLabelValues(errorType).Inc()

	// Per-packet SRTP drops are counted but only logged at debug level, so
	// a burst of auth/replay failures never floods the log (§7).
	switch errorType {
	case ErrCodeSrtpAuth, ErrCodeSrtpReplay, ErrCodeSrtpFormat:
		if LogLevel < LogLevelDebug {
			return
		}
	}

	// Log the error based on the log level
	if LogLevel >= LogLevelError {
		log.Printf("ERROR [%s]: Recorded error metric", errorType)
	}
}

// IncrementCounter increments a success counter for specific operation types
func IncrementCounter(operationType string) {
	rtpSuccesses.WithLabelValues(operationType).Inc()

	// Log for debug level
	if LogLevel >= LogLevelDebug {
		log.Printf("DEBUG [%s]: Recorded success metric", operationType)
	}
}

// StopMetricsServer gracefully stops the metrics server
func StopMetricsServer() error {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()

	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		log.Println("🛑 Shutting down metrics server...")
		return metricsServer.Shutdown(ctx)
	}
	return nil
}

// MeasureOperation records the duration of an operation
func MeasureOperation(operation string, start time.Time) {
	duration := time.Since(start).Seconds()
	operationDurations.WithLabelValues(operation).Observe(duration)
}

// collectSystemMetrics periodically updates system metrics
func collectSystemMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		// Update goroutine count
		goroutinesGauge.Set(float64(runtime.NumGoroutine()))

		// Update memory usage
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)
		memoryUsage.Set(float64(memStats.Alloc))
	}
}
