package internal

import (
	"encoding/json"
	"net/http"
	"os"
)

// GetConfigHandler serves the current configuration as JSON.
func GetConfigHandler(w http.ResponseWriter, r *http.Request) {
	configMutex.RLock()
	defer configMutex.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(config); err != nil {
		http.Error(w, "failed to encode configuration", http.StatusInternalServerError)
	}
}

// UpdateConfigHandler accepts a full configuration replacement, persists
// it, and applies the live-reloadable subset.
func UpdateConfigHandler(w http.ResponseWriter, r *http.Request) {
	var newConfig Config
	if err := json.NewDecoder(r.Body).Decode(&newConfig); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if err := ValidateConfig(&newConfig); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	configMutex.Lock()
	config = &newConfig
	configMutex.Unlock()

	if err := SaveConfig("config/config.json", newConfig); err != nil {
		http.Error(w, "failed to save configuration", http.StatusInternalServerError)
		return
	}

	ApplyNewConfig(newConfig)

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "configuration updated successfully"}`))
}

// SaveConfig writes the configuration to disk as indented JSON.
func SaveConfig(filePath string, newConfig Config) error {
	data, err := json.MarshalIndent(newConfig, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}

// SetupRoutes registers the configuration management HTTP endpoints.
func SetupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/config", GetConfigHandler)
	mux.HandleFunc("/config/update", UpdateConfigHandler)
	return mux
}
