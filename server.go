package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"karlsfu/internal"
)

// SFUServer owns every long-lived collaborator described in §4-§6: the
// client registry, group router, fan-out coordinator, UDP transport, the
// signalling socket, and the optional audit/cache mirrors.
type SFUServer struct {
	config *internal.Config
	certs  []tls.Certificate

	registry   *internal.ClientRegistry
	router     *internal.GroupRouter
	fanout     *internal.FanoutCoordinator
	transport  *internal.UDPTransport
	stun       *internal.StunCollaborator
	signalling *internal.SignallingSocket
	groupCache *internal.GroupCache
	auditStore *internal.AuditStore

	wg             sync.WaitGroup
	ctx            context.Context
	cancel         context.CancelFunc
	mu             sync.RWMutex
	isShuttingDown bool
	resources      *internal.ResourceGroup
	healthServer   *http.Server
}

// NewSFUServer creates an unstarted server instance.
func NewSFUServer() *SFUServer {
	ctx, cancel := context.WithCancel(context.Background())
	return &SFUServer{
		ctx:    ctx,
		cancel: cancel,
	}
}

// transportSink defers PacketSink resolution until the UDP transport
// exists, breaking the construction cycle between the fan-out coordinator
// (needs a sink) and the transport (needs the fan-out coordinator).
type transportSink struct {
	transport *internal.UDPTransport
}

func (s *transportSink) Send(addr net.Addr, data []byte) {
	if s.transport != nil {
		s.transport.Send(addr, data)
	}
}

// Start loads configuration, wires every collaborator, and begins serving.
func (k *SFUServer) Start() error {
	startTime := time.Now()

	if err := k.loadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	internal.InitMetrics()
	if err := internal.StartMetricsServer(":9091"); err != nil {
		log.Printf("❌ failed to start metrics server: %v", err)
	}
	internal.InitPCAPCapture()

	k.resources = internal.NewResourceGroup()

	if err := k.initializeServices(); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	internal.RegisterDefaultHealthChecks()
	internal.RegisterRegistryHealthCheck(k.registry)
	internal.StartHealthChecker(30 * time.Second)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", internal.SimpleHealthHandler())
	mux.HandleFunc("/health/detail", internal.HealthHandler())
	mux.HandleFunc("/alerts", internal.ActiveAlertsHandler)

	k.healthServer = &http.Server{
		Addr:         ":8086",
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Printf("🩺 starting health check server on %s", k.healthServer.Addr)
		if err := k.healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ health check server error: %v", err)
		}
	}()
	k.resources.Add(&internal.HttpServerResource{Server: k.healthServer})

	log.Printf("✅ SFU started successfully in %s", time.Since(startTime))
	return nil
}

// setupSignalHandler installs SIGINT/SIGTERM handling for graceful shutdown.
func (k *SFUServer) setupSignalHandler() {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-signalChan
		log.Println("🛑 shutdown signal received")
		k.Shutdown()
	}()
}

// Shutdown performs a graceful shutdown of every owned collaborator.
func (k *SFUServer) Shutdown() {
	k.mu.Lock()
	if k.isShuttingDown {
		k.mu.Unlock()
		return
	}
	k.isShuttingDown = true
	k.mu.Unlock()

	log.Println("🔄 starting graceful shutdown...")
	k.cancel()

	if k.signalling != nil {
		k.signalling.Stop()
	}
	if k.transport != nil {
		k.transport.Close()
	}
	if k.resources != nil {
		k.resources.Close()
	}
	if k.auditStore != nil {
		k.auditStore.Close()
	}
	if k.groupCache != nil {
		k.groupCache.Close()
	}
	internal.ClosePCAPCapture()

	done := make(chan struct{})
	go func() {
		k.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("✅ all goroutines completed successfully")
	case <-time.After(5 * time.Second):
		log.Println("⚠️ shutdown timed out waiting for goroutines")
	}

	log.Println("✅ graceful shutdown completed")
	os.Exit(0)
}

// GetConfig returns the current configuration.
func (k *SFUServer) GetConfig() *internal.Config {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.config
}

// IsShuttingDown returns the current shutdown state.
func (k *SFUServer) IsShuttingDown() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.isShuttingDown
}

// WaitForShutdown blocks until the server's context is cancelled.
func (k *SFUServer) WaitForShutdown() {
	<-k.ctx.Done()
}

// AddWorker adds a worker to the wait group.
func (k *SFUServer) AddWorker() {
	k.wg.Add(1)
}

// WorkerDone marks a worker as done.
func (k *SFUServer) WorkerDone() {
	k.wg.Done()
}
