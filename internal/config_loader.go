package internal

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

var (
	config      *Config
	configMutex sync.RWMutex
)

// LoadConfig reads, defaults, and validates the configuration file.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var newConfig Config
	if err := json.Unmarshal(data, &newConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	newConfig.LastUpdated = time.Now()
	if newConfig.Version == "" {
		newConfig.Version = ConfigVersion
	}
	if newConfig.DTLS.HandshakeTimeout == 0 {
		newConfig.DTLS.HandshakeTimeout = handshakeTimeout
	}
	if newConfig.AlertSettings.CheckInterval == 0 {
		newConfig.AlertSettings.CheckInterval = 30 * time.Second
	}

	if err := ValidateConfig(&newConfig); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	configMutex.Lock()
	config = &newConfig
	configMutex.Unlock()

	return &newConfig, nil
}

// ValidateConfig performs basic sanity checks on a loaded configuration.
func ValidateConfig(cfg *Config) error {
	if cfg.Version == "" {
		cfg.Version = ConfigVersion
	}

	if cfg.Transport.UDPAddr == "" {
		return fmt.Errorf("transport.udp_addr must be set")
	}

	if _, err := os.Stat(cfg.DTLS.CertFile); err != nil {
		return fmt.Errorf("DTLS cert file not found: %s", cfg.DTLS.CertFile)
	}
	if _, err := os.Stat(cfg.DTLS.KeyFile); err != nil {
		return fmt.Errorf("DTLS key file not found: %s", cfg.DTLS.KeyFile)
	}

	if cfg.Database.RedisEnabled && cfg.Database.RedisAddr == "" {
		return fmt.Errorf("redis enabled but address not specified")
	}

	return nil
}

// CurrentConfig returns the most recently loaded configuration.
func CurrentConfig() *Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return config
}

// WatchConfig polls filePath for modifications and applies live-reloadable
// settings as they change. Certificate and socket-binding settings are
// intentionally not hot-applied; those require a process restart.
func WatchConfig(filePath string) {
	lastMod := time.Now()

	for {
		time.Sleep(5 * time.Second)

		info, err := os.Stat(filePath)
		if err != nil {
			log.Printf("❌ error checking config file: %v", err)
			continue
		}

		if info.ModTime().After(lastMod) {
			log.Println("📝 configuration file changed, reloading...")

			newConfig, err := LoadConfig(filePath)
			if err != nil {
				log.Printf("❌ failed to reload config: %v", err)
				continue
			}

			ApplyNewConfig(*newConfig)
			lastMod = info.ModTime()
			log.Println("✅ configuration updated successfully")
		}
	}
}

// ApplyNewConfig applies the subset of configuration that can safely be
// changed without restarting the process: alert thresholds today.
func ApplyNewConfig(newConfig Config) error {
	UpdateAlertThresholds(newConfig.AlertSettings)
	return nil
}
