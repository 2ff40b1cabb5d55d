package internal

import (
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/anacrolix/torrent/bencode"
)

func sendSignallingCommand(t *testing.T, socketPath string, cmd signallingCommand) signallingResponse {
	t.Helper()
	conn, err := net.DialTimeout("unix", socketPath, time.Second)
	if err != nil {
		t.Fatalf("dial signalling socket: %v", err)
	}
	defer conn.Close()

	if err := bencode.NewEncoder(conn).Encode(cmd); err != nil {
		t.Fatalf("encode command: %v", err)
	}

	var resp signallingResponse
	if err := bencode.NewDecoder(conn).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestSignallingSocketAttachMedia(t *testing.T) {
	registry := NewClientRegistry(addr("127.0.0.1:5000"))
	clientAddr := addr("127.0.0.1:6001")
	registry.GetOrCreate(clientAddr)

	router := NewGroupRouter(registry)
	socketPath := filepath.Join(t.TempDir(), "signalling.sock")

	s := NewSignallingSocket(socketPath, registry, router, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	resp := sendSignallingCommand(t, socketPath, signallingCommand{
		Command: "attach_media",
		Addr:    clientAddr.String(),
		Pairs:   []mediaPairWire{{PT: 111, Codec: "OPUS"}},
	})
	if resp.Status != "ok" {
		t.Fatalf("response status = %q, want ok", resp.Status)
	}

	client, ok := registry.Lookup(clientAddr)
	if !ok {
		t.Fatal("expected client to remain registered")
	}
	table := client.MediaTable()
	if table == nil {
		t.Fatal("expected a media table to be attached")
	}
	pt, ok := table.PTForCodec("opus")
	if !ok || pt != 111 {
		t.Fatalf("PTForCodec(opus) = (%d, %v), want (111, true)", pt, ok)
	}
}

func TestSignallingSocketAttachMediaUnknownAddrIsIgnored(t *testing.T) {
	registry := NewClientRegistry(addr("127.0.0.1:5000"))
	router := NewGroupRouter(registry)
	socketPath := filepath.Join(t.TempDir(), "signalling.sock")

	s := NewSignallingSocket(socketPath, registry, router, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	resp := sendSignallingCommand(t, socketPath, signallingCommand{
		Command: "attach_media",
		Addr:    "127.0.0.1:9999",
		Pairs:   []mediaPairWire{{PT: 0, Codec: "pcmu"}},
	})
	if resp.Status != "ok" {
		t.Fatalf("expected ok (silently ignored) for unknown address, got %q", resp.Status)
	}
}

func TestSignallingSocketJoinGroup(t *testing.T) {
	registry := NewClientRegistry(addr("127.0.0.1:5000"))
	a1 := addr("127.0.0.1:6001")
	a2 := addr("127.0.0.1:6002")
	registry.GetOrCreate(a1)
	registry.GetOrCreate(a2)

	router := NewGroupRouter(registry)
	socketPath := filepath.Join(t.TempDir(), "signalling.sock")

	s := NewSignallingSocket(socketPath, registry, router, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	for _, a := range []net.Addr{a1, a2} {
		resp := sendSignallingCommand(t, socketPath, signallingCommand{
			Command: "join_group",
			Addr:    a.String(),
			GroupID: "room1",
		})
		if resp.Status != "ok" {
			t.Fatalf("join_group response = %q, want ok", resp.Status)
		}
	}

	members, ok := router.Members(a1)
	if !ok || len(members) != 1 {
		t.Fatalf("expected a1 grouped with exactly 1 other member, got %v ok=%v", members, ok)
	}
}

func TestSignallingSocketUnknownCommand(t *testing.T) {
	registry := NewClientRegistry(addr("127.0.0.1:5000"))
	router := NewGroupRouter(registry)
	socketPath := filepath.Join(t.TempDir(), "signalling.sock")

	s := NewSignallingSocket(socketPath, registry, router, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	resp := sendSignallingCommand(t, socketPath, signallingCommand{Command: "bogus"})
	if resp.Status != "error" {
		t.Fatalf("expected error status for unknown command, got %q", resp.Status)
	}
}
