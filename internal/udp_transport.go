package internal

import (
	"crypto/tls"
	"log"
	"net"
	"sync/atomic"
	"time"
)

// maxDatagramSize is the largest UDP datagram the transport pump will
// read; practical SRTP payloads fit well within socket MTU, but the
// classifier/DTLS engine contract requires a buffer of at least 64 KiB
// (§4.2) so a whole DTLS record is never truncated.
const maxDatagramSize = 65535

// UDPTransport owns the one public UDP socket (§6) and pumps datagrams
// between it and the dispatcher. It holds no cryptographic or routing
// state of its own.
type UDPTransport struct {
	conn     *net.UDPConn
	registry *ClientRegistry
	router   *GroupRouter
	fanout   *FanoutCoordinator
	stun     *StunCollaborator
	certs    []tls.Certificate
	pool     *PacketPool
	closing  chan struct{}
	audit    atomic.Pointer[AuditStore]
}

// NewUDPTransport binds a UDP socket on addr and wires it to the shared
// registry, router, fan-out coordinator, and DTLS certificates needed to
// run the full receive/dispatch/send loop. registry must be the same
// instance passed to NewGroupRouter and NewFanoutCoordinator, so that the
// dispatcher's client lookups and the fan-out coordinator's destination
// lookups always agree.
func NewUDPTransport(addr string, registry *ClientRegistry, router *GroupRouter, fanout *FanoutCoordinator, stun *StunCollaborator, certs []tls.Certificate) (*UDPTransport, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, NewError(err, ErrCodeNetwork, "udp_transport", "resolve_addr")
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, NewError(err, ErrCodeNetwork, "udp_transport", "listen")
	}

	pool := NewPacketPool(0)
	pool.Start()

	t := &UDPTransport{
		conn:     conn,
		registry: registry,
		router:   router,
		fanout:   fanout,
		stun:     stun,
		certs:    certs,
		pool:     pool,
		closing:  make(chan struct{}),
	}
	return t, nil
}

// Registry exposes the client registry this transport dispatches against,
// so the signalling collaborator can attach media tables and group
// memberships.
func (t *UDPTransport) Registry() *ClientRegistry { return t.registry }

// SetAuditStore wires an optional audit log so handshake outcomes observed
// by the dispatch loop are recorded; nil disables logging. Safe to call
// concurrently with an already-running dispatch loop.
func (t *UDPTransport) SetAuditStore(audit *AuditStore) {
	t.audit.Store(audit)
}

// Send implements PacketSink: it is the UDP send sink the fan-out
// coordinator submits outbound datagrams to.
func (t *UDPTransport) Send(addr net.Addr, data []byte) {
	udpAddr, ok := addr.(*net.UDPAddr)
	if !ok {
		return
	}
	if _, err := t.conn.WriteToUDP(data, udpAddr); err != nil {
		log.Printf("❌ udp send error to %s: %v", addr, err)
	}
}

// Run is the dispatcher task: it owns the classifier and registry and
// never performs blocking crypto work itself. For each datagram it spawns
// a packet task and returns to the socket immediately (§5).
func (t *UDPTransport) Run() error {
	buf := make([]byte, maxDatagramSize)
	for {
		n, addr, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-t.closing:
				return nil
			default:
			}
			return NewError(err, ErrCodeNetwork, "udp_transport", "read")
		}

		datagram := append([]byte(nil), buf[:n]...)
		kind := Classify(datagram)

		switch kind {
		case KindUnknown:
			IncrementDroppedPackets()
			continue
		case KindSTUN:
			if t.stun != nil {
				t.pool.Submit(func() { t.stun.Handle(addr, datagram) })
			}
			continue
		case KindDTLS:
			t.pool.Submit(func() { t.handleDTLS(addr, datagram) })
		case KindRTP:
			t.pool.Submit(func() { t.handleMedia(addr, datagram, false) })
		case KindRTCP:
			t.pool.Submit(func() { t.handleMedia(addr, datagram, true) })
		}
	}
}

func (t *UDPTransport) handleDTLS(addr *net.UDPAddr, datagram []byte) {
	c, created := t.registry.GetOrCreate(addr)
	if created {
		go t.runEgressPump(c)
	}

	if err := c.Push(datagram); err != nil {
		t.registry.Delete(addr, t.router, "push_failed")
		return
	}

	if c.State() == StateNew {
		go func() {
			err := c.DriveHandshake(t.certs)
			if err == nil && c.State() != StateConnected {
				// Another driver already owns this handshake; it records the outcome.
				return
			}
			outcome := "success"
			if err != nil {
				outcome = "failure"
			}
			t.audit.Load().RecordHandshakeOutcome(c.GetCorrelationID(), addr.String(), outcome)
			if err != nil {
				t.registry.Delete(addr, t.router, "handshake_failed")
			}
		}()
	}
}

func (t *UDPTransport) handleMedia(addr *net.UDPAddr, datagram []byte, isRTCP bool) {
	c, created := t.registry.GetOrCreate(addr)
	if created {
		go t.runEgressPump(c)
	}
	if c.State() != StateConnected {
		IncrementDroppedPackets()
		return
	}
	IncrementRTPPackets()
	t.fanout.HandlePacket(addr, datagram, isRTCP)
}

// runEgressPump drains one client's outgoing byte channel, writing every
// datagram the DTLS engine produces to the shared UDP socket. Exits when
// the client's duplex channel closes (i.e. on deletion).
func (t *UDPTransport) runEgressPump(c *Client) {
	for {
		data, err := c.popOutgoing(time.Time{})
		if err != nil {
			return
		}
		t.Send(c.Addr, data)
	}
}

// Close stops the transport's receive loop, drains the packet pool, and
// releases the socket. Calling it again after the first call is a no-op.
func (t *UDPTransport) Close() error {
	select {
	case <-t.closing:
		return nil
	default:
	}
	close(t.closing)
	err := t.conn.Close()
	t.pool.Stop()
	return err
}
