package internal

import (
	"net"
	"sync"
	"testing"

	"github.com/pion/rtp"
)

type recordingSink struct {
	mu   sync.Mutex
	sent map[string][][]byte
}

func newRecordingSink() *recordingSink {
	return &recordingSink{sent: make(map[string][][]byte)}
}

func (s *recordingSink) Send(addr net.Addr, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent[addr.String()] = append(s.sent[addr.String()], append([]byte(nil), data...))
}

func (s *recordingSink) count(addr net.Addr) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent[addr.String()])
}

func connectClient(t *testing.T, registry *ClientRegistry, a net.Addr, codec string, pt uint8) (*Client, *SRTPSession) {
	t.Helper()
	c, _ := registry.GetOrCreate(a)
	key, salt := testSRTPKeys()
	session, err := NewSRTPSession(key, salt)
	if err != nil {
		t.Fatalf("NewSRTPSession: %v", err)
	}

	c.mu.Lock()
	c.state = StateConnected
	c.inbound = session
	c.outbound = session
	c.media = NewMediaTable([]MediaPair{{PayloadType: pt, CodecName: codec}})
	c.mu.Unlock()

	return c, session
}

func TestFanoutCoordinatorDeliversToGroupMembers(t *testing.T) {
	local := addr("127.0.0.1:5000")
	registry := NewClientRegistry(local)
	router := NewGroupRouter(registry)
	sink := newRecordingSink()
	fanout := NewFanoutCoordinator(registry, router, sink)

	srcAddr := addr("127.0.0.1:6001")
	dstAddr := addr("127.0.0.1:6002")

	srcClient, srcSession := connectClient(t, registry, srcAddr, "opus", 111)
	_ = srcClient
	connectClient(t, registry, dstAddr, "opus", 100)

	router.Insert("room1", srcAddr)
	router.Insert("room1", dstAddr)

	header := &rtp.Header{Version: 2, PayloadType: 111, SequenceNumber: 1, Timestamp: 1, SSRC: 1}
	protected, err := srcSession.Protect(header, []byte("hello"))
	if err != nil {
		t.Fatalf("Protect: %v", err)
	}

	fanout.HandlePacket(srcAddr, protected, false)

	if sink.count(dstAddr) != 1 {
		t.Fatalf("expected 1 delivery to destination, got %d", sink.count(dstAddr))
	}
	if sink.count(srcAddr) != 0 {
		t.Fatal("fan-out must not deliver a packet back to its source")
	}
}

func TestFanoutCoordinatorDropsWhenNoMediaTable(t *testing.T) {
	local := addr("127.0.0.1:5000")
	registry := NewClientRegistry(local)
	router := NewGroupRouter(registry)
	sink := newRecordingSink()
	fanout := NewFanoutCoordinator(registry, router, sink)

	srcAddr := addr("127.0.0.1:6001")
	dstAddr := addr("127.0.0.1:6002")

	_, srcSession := connectClient(t, registry, srcAddr, "opus", 111)
	dstClient, _ := registry.GetOrCreate(dstAddr)
	key, salt := testSRTPKeys()
	dstSession, _ := NewSRTPSession(key, salt)
	dstClient.mu.Lock()
	dstClient.state = StateConnected
	dstClient.inbound = dstSession
	dstClient.outbound = dstSession
	// No media table attached to dst.
	dstClient.mu.Unlock()

	router.Insert("room1", srcAddr)
	router.Insert("room1", dstAddr)

	header := &rtp.Header{Version: 2, PayloadType: 111, SequenceNumber: 1, Timestamp: 1, SSRC: 1}
	protected, _ := srcSession.Protect(header, []byte("hello"))

	fanout.HandlePacket(srcAddr, protected, false)

	if sink.count(dstAddr) != 0 {
		t.Fatal("expected no delivery when the destination has no media table")
	}
}

func TestFanoutCoordinatorIgnoresUnknownSource(t *testing.T) {
	local := addr("127.0.0.1:5000")
	registry := NewClientRegistry(local)
	router := NewGroupRouter(registry)
	sink := newRecordingSink()
	fanout := NewFanoutCoordinator(registry, router, sink)

	// Should not panic even though the source is unregistered.
	fanout.HandlePacket(addr("127.0.0.1:9999"), []byte{0x80, 0x00, 0x00, 0x01}, false)
}
