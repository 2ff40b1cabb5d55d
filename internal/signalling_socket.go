package internal

import (
	"log"
	"net"
	"os"

	"github.com/anacrolix/torrent/bencode"
	"github.com/google/uuid"
)

// signallingCommand is the bencoded envelope the signalling collaborator
// posts over the Unix socket: AttachMedia or JoinGroup (§6).
type signallingCommand struct {
	Command string          `bencode:"command"`
	Addr    string          `bencode:"addr"`
	GroupID string          `bencode:"group_id,omitempty"`
	Pairs   []mediaPairWire `bencode:"pairs,omitempty"`
}

type mediaPairWire struct {
	PT    int    `bencode:"pt"`
	Codec string `bencode:"codec"`
}

type signallingResponse struct {
	Status string `bencode:"status"`
	Detail string `bencode:"detail,omitempty"`
}

// SignallingSocket listens on a Unix domain socket for AttachMedia and
// JoinGroup commands and applies them against the shared client registry
// and group router (§6). Every connection is stamped with a correlation
// id that threads into the audit log.
type SignallingSocket struct {
	socketPath string
	listener   net.Listener
	registry   *ClientRegistry
	router     *GroupRouter
	audit      *AuditStore
}

// NewSignallingSocket wires a signalling listener to the shared registry,
// router, and (optional) audit store.
func NewSignallingSocket(socketPath string, registry *ClientRegistry, router *GroupRouter, audit *AuditStore) *SignallingSocket {
	return &SignallingSocket{
		socketPath: socketPath,
		registry:   registry,
		router:     router,
		audit:      audit,
	}
}

// Start removes any stale socket file and begins accepting connections.
func (s *SignallingSocket) Start() error {
	if _, err := os.Stat(s.socketPath); err == nil {
		os.Remove(s.socketPath)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return NewError(err, ErrCodeNetwork, "signalling_socket", "listen")
	}
	s.listener = listener
	log.Printf("✅ signalling socket listening at %s", s.socketPath)

	go s.acceptLoop()
	return nil
}

// Stop closes the listener; in-flight connections finish on their own.
func (s *SignallingSocket) Stop() {
	if s.listener != nil {
		s.listener.Close()
		log.Println("🛑 signalling socket stopped")
	}
}

// Close implements Resource, so the socket can live in a ResourceGroup.
func (s *SignallingSocket) Close() error {
	s.Stop()
	return nil
}

func (s *SignallingSocket) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

func (s *SignallingSocket) handleConn(conn net.Conn) {
	defer conn.Close()
	correlationID := uuid.NewString()

	var cmd signallingCommand
	if err := bencode.NewDecoder(conn).Decode(&cmd); err != nil {
		s.respond(conn, signallingResponse{Status: "error", Detail: "malformed command"})
		return
	}

	switch cmd.Command {
	case "attach_media":
		s.handleAttachMedia(conn, correlationID, cmd)
	case "join_group":
		s.handleJoinGroup(conn, correlationID, cmd)
	default:
		s.respond(conn, signallingResponse{Status: "error", Detail: "unknown command"})
	}
}

// handleAttachMedia associates a negotiated media table with a known
// client. An unknown address is SignallingInvalid (§7) — silently ignored,
// acknowledged as ok so the collaborator does not retry needlessly.
func (s *SignallingSocket) handleAttachMedia(conn net.Conn, correlationID string, cmd signallingCommand) {
	addr, err := net.ResolveUDPAddr("udp", cmd.Addr)
	if err != nil {
		s.respond(conn, signallingResponse{Status: "error", Detail: "invalid address"})
		return
	}

	client, ok := s.registry.Lookup(addr)
	if !ok {
		log.Printf("attach_media for unknown address %s ignored", cmd.Addr)
		s.respond(conn, signallingResponse{Status: "ok"})
		return
	}

	pairs := make([]MediaPair, 0, len(cmd.Pairs))
	for _, p := range cmd.Pairs {
		pairs = append(pairs, MediaPair{PayloadType: uint8(p.PT), CodecName: p.Codec})
	}
	client.AttachMedia(NewMediaTable(pairs))
	client.SetCorrelationID(correlationID)

	s.respond(conn, signallingResponse{Status: "ok"})
}

// handleJoinGroup adds a client to a group. GroupRouter.Insert is already
// a no-op for an unknown address (§4.6), so no separate check is needed
// here.
func (s *SignallingSocket) handleJoinGroup(conn net.Conn, correlationID string, cmd signallingCommand) {
	addr, err := net.ResolveUDPAddr("udp", cmd.Addr)
	if err != nil {
		s.respond(conn, signallingResponse{Status: "error", Detail: "invalid address"})
		return
	}

	s.router.Insert(cmd.GroupID, addr)
	s.audit.RecordJoin(correlationID, cmd.Addr, cmd.GroupID)

	s.respond(conn, signallingResponse{Status: "ok"})
}

func (s *SignallingSocket) respond(conn net.Conn, resp signallingResponse) {
	if err := bencode.NewEncoder(conn).Encode(resp); err != nil {
		log.Printf("❌ signalling socket: failed to encode response: %v", err)
	}
}
