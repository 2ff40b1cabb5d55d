package internal

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"
)

// SessionAlert represents an SRTP-error-rate or handshake-failure-rate
// issue detected in real-time, surfaced alongside the health/metrics
// endpoints (§9 supplemented features). Per-packet SrtpAuth/SrtpReplay
// drops are never logged individually at warn level (§7); this is the
// aggregate signal operators actually want.
type SessionAlert struct {
	Timestamp   time.Time `json:"timestamp"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Value       float64   `json:"value"`
	Threshold   float64   `json:"threshold"`
}

var (
	alertsMu     sync.RWMutex
	activeAlerts []SessionAlert

	srtpErrorCount   uint64
	srtpPacketCount  uint64
	handshakeFailCnt uint64
	handshakeTotal   uint64
	rateMu           sync.Mutex
)

// RecordSRTPOutcome feeds the rolling SRTP error-rate counter used by
// MonitorAlerts. ok=false for any ignorable per-packet failure.
func RecordSRTPOutcome(ok bool) {
	rateMu.Lock()
	defer rateMu.Unlock()
	srtpPacketCount++
	if !ok {
		srtpErrorCount++
	}
}

// RecordHandshakeCompletion feeds the rolling handshake failure-rate
// counter used by MonitorAlerts.
func RecordHandshakeCompletion(ok bool) {
	rateMu.Lock()
	defer rateMu.Unlock()
	handshakeTotal++
	if !ok {
		handshakeFailCnt++
	}
}

// SRTPErrorRate returns the rolling SRTP unprotect failure rate and the
// sample size it was computed over, for the health endpoint.
func SRTPErrorRate() (rate float64, total uint64) {
	rateMu.Lock()
	defer rateMu.Unlock()
	if srtpPacketCount == 0 {
		return 0, 0
	}
	return float64(srtpErrorCount) / float64(srtpPacketCount), srtpPacketCount
}

// HandshakeFailureRate returns the rolling DTLS handshake failure rate and
// the sample size it was computed over, for the health endpoint.
func HandshakeFailureRate() (rate float64, total uint64) {
	rateMu.Lock()
	defer rateMu.Unlock()
	if handshakeTotal == 0 {
		return 0, 0
	}
	return float64(handshakeFailCnt) / float64(handshakeTotal), handshakeTotal
}

// AlertThresholds configures when MonitorAlerts fires.
type AlertThresholds struct {
	SRTPErrorRate     float64 // fraction, e.g. 0.1 for 10%
	HandshakeFailRate float64
	MinSampleSize     uint64
}

var (
	thresholdsMu   sync.RWMutex
	liveThresholds = AlertThresholds{SRTPErrorRate: 0.1, HandshakeFailRate: 0.2, MinSampleSize: 50}
)

// UpdateAlertThresholds replaces the live thresholds MonitorAlerts checks
// against, so a config reload takes effect without restarting the monitor
// goroutine.
func UpdateAlertThresholds(s AlertSettings) {
	thresholdsMu.Lock()
	liveThresholds = AlertThresholds{
		SRTPErrorRate:     s.SRTPErrorRate,
		HandshakeFailRate: s.HandshakeFailRate,
		MinSampleSize:     s.MinSampleSize,
	}
	thresholdsMu.Unlock()
	log.Printf("alert thresholds updated: srtp_error_rate=%.2f handshake_fail_rate=%.2f min_sample=%d",
		s.SRTPErrorRate, s.HandshakeFailRate, s.MinSampleSize)
}

func currentAlertThresholds() AlertThresholds {
	thresholdsMu.RLock()
	defer thresholdsMu.RUnlock()
	return liveThresholds
}

// MonitorAlerts periodically checks the rolling error rates against the
// live thresholds and appends an alert when one is exceeded. Intended to
// run as a background goroutine for the life of the process.
func MonitorAlerts(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		thresholds := currentAlertThresholds()

		rateMu.Lock()
		srtpErr, srtpTotal := srtpErrorCount, srtpPacketCount
		hsErr, hsTotal := handshakeFailCnt, handshakeTotal
		rateMu.Unlock()

		if srtpTotal >= thresholds.MinSampleSize && srtpTotal > 0 {
			rate := float64(srtpErr) / float64(srtpTotal)
			if rate > thresholds.SRTPErrorRate {
				triggerAlert("srtp_error_rate", "elevated SRTP unprotect failure rate", rate, thresholds.SRTPErrorRate)
			}
		}

		if hsTotal >= thresholds.MinSampleSize && hsTotal > 0 {
			rate := float64(hsErr) / float64(hsTotal)
			if rate > thresholds.HandshakeFailRate {
				triggerAlert("handshake_failure_rate", "elevated DTLS handshake failure rate", rate, thresholds.HandshakeFailRate)
			}
		}
	}
}

func triggerAlert(kind, description string, value, threshold float64) {
	alert := SessionAlert{
		Timestamp:   time.Now(),
		Type:        kind,
		Description: description,
		Value:       value,
		Threshold:   threshold,
	}

	alertsMu.Lock()
	activeAlerts = append(activeAlerts, alert)
	if len(activeAlerts) > 50 {
		activeAlerts = activeAlerts[1:]
	}
	alertsMu.Unlock()

	log.Printf("⚠️ ALERT: %s - %s (value: %.3f, threshold: %.3f)", kind, description, value, threshold)
}

// ActiveAlertsHandler serves the current alert backlog as JSON.
func ActiveAlertsHandler(w http.ResponseWriter, r *http.Request) {
	alertsMu.RLock()
	defer alertsMu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(activeAlerts)
}
