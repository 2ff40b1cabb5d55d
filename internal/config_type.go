package internal

import "time"

// ConfigVersion is the default config schema version stamped onto a
// freshly loaded configuration that doesn't specify one.
const ConfigVersion = "1.0.0"

// DatabaseConfig configures the optional, diagnostic-only audit store and
// group-cache mirror (§9 supplemented features). Neither is consulted by
// the hot packet path.
type DatabaseConfig struct {
	MySQLDSN             string `json:"mysql_dsn"`
	RedisEnabled         bool   `json:"redis_enabled"`
	RedisAddr            string `json:"redis_addr"`
	RedisCleanupInterval int    `json:"redis_cleanup_interval"`
}

// TransportConfig holds the one public UDP media socket and the HTTP
// control-plane address the CLI collaborator binds (§6).
type TransportConfig struct {
	UDPAddr  string `json:"udp_addr"`
	HTTPAddr string `json:"http_addr"`
	MTU      int    `json:"mtu"`
}

// DTLSConfig points at the server's long-lived certificate/key pair used
// for every client's handshake. HandshakeTimeout is defaulted to 10s on
// load, but the handshake driver does not read it: it always applies its
// own fixed 10s deadline (§4.2).
type DTLSConfig struct {
	CertFile         string        `json:"cert_file"`
	KeyFile          string        `json:"key_file"`
	HandshakeTimeout time.Duration `json:"handshake_timeout"`
}

// SignallingConfig points at the Unix domain socket the signalling
// collaborator uses to post AttachMedia/JoinGroup commands (§6).
type SignallingConfig struct {
	SocketPath string `json:"socket_path"`
}

// AlertSettings configures the rolling error-rate thresholds monitored in
// alerts.go (§9 supplemented features).
type AlertSettings struct {
	SRTPErrorRate     float64       `json:"srtp_error_rate"`
	HandshakeFailRate float64       `json:"handshake_fail_rate"`
	MinSampleSize     uint64        `json:"min_sample_size"`
	CheckInterval     time.Duration `json:"check_interval"`
}

// Config holds every externally configurable setting for the process.
type Config struct {
	Version       string           `json:"version"`
	LastUpdated   time.Time        `json:"last_updated"`
	Environment   string           `json:"environment"` // prod, staging, dev
	Transport     TransportConfig  `json:"transport"`
	DTLS          DTLSConfig       `json:"dtls"`
	Signalling    SignallingConfig `json:"signalling"`
	AlertSettings AlertSettings    `json:"alert_settings"`
	Database      DatabaseConfig   `json:"database"`
}
