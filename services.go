package main

import (
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"karlsfu/internal"
)

// loadConfig loads and validates the configuration file and starts the
// background watcher that applies live-reloadable settings.
func (k *SFUServer) loadConfig() error {
	log.Println("🛠 loading configuration...")

	cfg, err := internal.LoadConfig("config/config.json")
	if err != nil {
		return fmt.Errorf("❌ failed to load configuration: %w", err)
	}

	k.mu.Lock()
	k.config = cfg
	k.mu.Unlock()

	go internal.WatchConfig("config/config.json")

	log.Println("✅ configuration loaded successfully")
	return nil
}

// initializeServices wires every domain collaborator together: the client
// registry, group router, fan-out coordinator, UDP transport, signalling
// socket, and the optional audit/cache mirrors (§4-§6, §9).
func (k *SFUServer) initializeServices() error {
	k.mu.RLock()
	cfg := k.config
	k.mu.RUnlock()

	if cfg == nil {
		return fmt.Errorf("❌ configuration not loaded")
	}

	cert, err := tls.LoadX509KeyPair(cfg.DTLS.CertFile, cfg.DTLS.KeyFile)
	if err != nil {
		return fmt.Errorf("❌ failed to load DTLS certificate: %w", err)
	}
	k.certs = []tls.Certificate{cert}

	creds, err := internal.HarvestCredentials(cert)
	if err != nil {
		return fmt.Errorf("❌ failed to harvest server credentials: %w", err)
	}
	log.Printf("🔑 server fingerprint: %s", creds.Fingerprint)

	udpAddr, err := net.ResolveUDPAddr("udp", cfg.Transport.UDPAddr)
	if err != nil {
		return fmt.Errorf("❌ invalid transport.udp_addr %q: %w", cfg.Transport.UDPAddr, err)
	}

	k.registry = internal.NewClientRegistry(udpAddr)
	k.router = internal.NewGroupRouter(k.registry)
	k.stun = internal.NewStunCollaborator()

	sink := &transportSink{}
	k.fanout = internal.NewFanoutCoordinator(k.registry, k.router, sink)

	transport, err := internal.NewUDPTransport(cfg.Transport.UDPAddr, k.registry, k.router, k.fanout, k.stun, k.certs)
	if err != nil {
		return fmt.Errorf("❌ failed to start UDP transport: %w", err)
	}
	k.transport = transport
	sink.transport = transport
	k.resources.Add(transport)

	go func() {
		if err := transport.Run(); err != nil {
			log.Printf("❌ UDP transport run loop exited: %v", err)
		}
	}()
	log.Printf("✅ UDP transport listening on %s", cfg.Transport.UDPAddr)

	if err := k.initializeDatabases(); err != nil {
		log.Printf("⚠️ audit/cache mirrors unavailable: %v", err)
	}

	k.signalling = internal.NewSignallingSocket(cfg.Signalling.SocketPath, k.registry, k.router, k.auditStore)
	if err := k.signalling.Start(); err != nil {
		return fmt.Errorf("❌ failed to start signalling socket: %w", err)
	}
	k.resources.Add(k.signalling)
	log.Printf("✅ signalling socket listening at %s", cfg.Signalling.SocketPath)

	k.initializeAPIServer()

	checkInterval := cfg.AlertSettings.CheckInterval
	if checkInterval <= 0 {
		checkInterval = 30 * time.Second
	}
	internal.UpdateAlertThresholds(cfg.AlertSettings)
	go internal.MonitorAlerts(checkInterval)

	log.Println("✅ all services initialized successfully")
	return nil
}

// initializeDatabases connects the optional audit store and group-cache
// mirror. Neither failure is fatal: both collaborators are nil-safe no-ops
// when unavailable (§9 supplemented features).
func (k *SFUServer) initializeDatabases() error {
	k.mu.RLock()
	cfg := k.config
	k.mu.RUnlock()

	if cfg.Database.MySQLDSN != "" {
		store, err := internal.NewAuditStore(cfg.Database.MySQLDSN)
		if err != nil {
			log.Printf("⚠️ audit store unavailable: %v", err)
		} else {
			k.auditStore = store
			k.registry.SetAuditStore(store)
			k.transport.SetAuditStore(store)
		}
	}

	k.groupCache = internal.NewGroupCache(cfg)
	if k.groupCache != nil {
		k.router.SetCache(k.groupCache)
		go k.groupCache.CheckHealth(30 * time.Second)
	}

	return nil
}

// initializeAPIServer starts the HTTP control-plane server exposing the
// configuration management endpoints (§9).
func (k *SFUServer) initializeAPIServer() {
	k.mu.RLock()
	addr := k.config.Transport.HTTPAddr
	k.mu.RUnlock()
	if addr == "" {
		addr = ":8080"
	}

	mux := internal.SetupRoutes()
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🌐 starting API server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ API server error: %v", err)
		}
	}()
	k.resources.Add(&internal.HttpServerResource{Server: server})
}
