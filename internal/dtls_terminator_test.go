package internal

import (
	"testing"
	"time"
)

func TestClientPushAndPopOutgoing(t *testing.T) {
	c := newClient(addr("127.0.0.1:5000"), addr("127.0.0.1:6000"))
	defer c.shutdown()

	if err := c.Push([]byte{0x14, 0xfe, 0xfd}); err != nil {
		t.Fatalf("Push: %v", err)
	}

	// popOutgoing should have nothing queued yet; Push only feeds the
	// incoming side that a DTLS driver task would read from.
	if out, err := c.popOutgoing(time.Now().Add(5 * time.Millisecond)); err == nil {
		t.Fatalf("popOutgoing() = %q, want a deadline error with nothing queued", out)
	}
}

func TestClientPushAfterShutdownFails(t *testing.T) {
	c := newClient(addr("127.0.0.1:5000"), addr("127.0.0.1:6000"))
	c.shutdown()

	if err := c.Push([]byte{0x14}); err == nil {
		t.Fatal("expected Push after shutdown to fail")
	}
}

func TestDriveHandshakeSkipsWhenAlreadyStarted(t *testing.T) {
	c := newClient(addr("127.0.0.1:5000"), addr("127.0.0.1:6000"))
	defer c.shutdown()

	c.mu.Lock()
	c.driverStarted = true
	c.mu.Unlock()

	if err := c.DriveHandshake(nil); err != nil {
		t.Fatalf("expected no-op DriveHandshake to return nil, got %v", err)
	}
	if c.State() != StateNew {
		t.Fatalf("state = %s, want unchanged StateNew", c.State())
	}
}

func TestExtractPostHandshakeWithoutConnIsNoop(t *testing.T) {
	c := newClient(addr("127.0.0.1:5000"), addr("127.0.0.1:6000"))
	defer c.shutdown()

	if err := c.ExtractPostHandshake(make([]byte, 16)); err != nil {
		t.Fatalf("expected nil error with no DTLS connection yet, got %v", err)
	}
}
