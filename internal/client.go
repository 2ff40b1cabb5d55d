package internal

import (
	"net"
	"sync"

	"github.com/pion/dtls/v2"
)

// ClientState is the per-client DTLS/SRTP dispatch state (§4.8).
type ClientState int

const (
	// StateNew has no handshake yet.
	StateNew ClientState = iota
	// StateConnected has both SRTP sessions established.
	StateConnected
	// StateShutdown is terminal; subsequent packets are dropped.
	StateShutdown
)

func (s ClientState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateShutdown:
		return "shutdown"
	default:
		return "new"
	}
}

// Client is the per-remote-address record described in §3. All mutations —
// DTLS push, SRTP protect/unprotect, media-table attach — happen while
// holding mu. The registry and group router never hold their own locks
// across an operation that touches a client's mu.
type Client struct {
	mu sync.Mutex

	Addr  net.Addr
	state ClientState

	// conn is the duplex byte channel feeding the DTLS record engine:
	// incoming is pushed by the classifier, outgoing is drained by the
	// UDP sender pump.
	conn *duplexChannel

	dtlsConn *dtls.Conn

	inbound  *SRTPSession
	outbound *SRTPSession

	media *MediaTable

	// driverStarted guards against more than one DTLS driver task per
	// client (§3 invariant: exactly one driver active at a time).
	driverStarted bool

	// CorrelationID is the signalling connection id of the last
	// AttachMedia command for this client (join_group does not set it). It
	// is written into the audit log's handshake-outcome and deletion rows;
	// log lines do not include it.
	CorrelationID string
}

// newClient creates a New client record for addr. local is the SFU's own
// UDP socket address, used as the duplex channel's LocalAddr.
func newClient(local, addr net.Addr) *Client {
	return &Client{
		Addr:  addr,
		state: StateNew,
		conn:  newDuplexChannel(local, addr),
	}
}

// State returns the client's current dispatch state.
func (c *Client) State() ClientState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// AttachMedia associates a negotiated media table with this client,
// per the signalling collaborator's AttachMedia message (§6).
func (c *Client) AttachMedia(table *MediaTable) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.media = table
}

// SetCorrelationID records the signalling-assigned correlation id under
// the client lock, so concurrent log lines never observe a torn write.
func (c *Client) SetCorrelationID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CorrelationID = id
}

// GetCorrelationID reads the correlation id under the client lock.
func (c *Client) GetCorrelationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.CorrelationID
}

// MediaTable returns the client's negotiation table, or nil if none has
// been attached yet.
func (c *Client) MediaTable() *MediaTable {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.media
}

// Connected reports whether both SRTP sessions exist.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateConnected
}

// shutdown transitions the client to Shutdown, closing its duplex channel
// and dropping SRTP sessions. Idempotent.
func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateShutdown {
		return
	}
	c.state = StateShutdown
	c.conn.Close()
	c.inbound = nil
	c.outbound = nil
}
