package main

import (
	"log"
	"os"
)

// ensureRunDir ensures the runtime directory used for the Unix signalling
// socket exists with correct permissions.
func ensureRunDir() error {
	runDir := "/var/run/sfu"
	if _, err := os.Stat(runDir); os.IsNotExist(err) {
		log.Printf("📂 Directory %s does not exist, creating...", runDir)
		if err := os.MkdirAll(runDir, 0775); err != nil {
			return err
		}
		log.Printf("✅ Created directory: %s", runDir)
	}
	return nil
}

func main() {
	log.Println("🚀 Starting SFU media relay...")

	if err := ensureRunDir(); err != nil {
		log.Fatalf("❌ Failed to create /var/run/sfu/: %v", err)
	}

	server := NewSFUServer()

	if err := server.Start(); err != nil {
		log.Fatalf("❌ Error starting server: %v", err)
	}

	server.setupSignalHandler()
	server.WaitForShutdown()

	log.Println("🛑 SFU media relay has been shut down.")
}
