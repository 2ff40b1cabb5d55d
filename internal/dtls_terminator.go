package internal

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"log"
	"time"

	"github.com/pion/dtls/v2"
)

const (
	handshakeTimeout        = 10 * time.Second
	postHandshakeReadWindow = 10 * time.Millisecond

	srtpKeyLen  = 16 // AES-128
	srtpSaltLen = 14 // 112 bits
	srtpHalf    = srtpKeyLen + srtpSaltLen
)

// Push enqueues a DTLS datagram observed by the classifier for this
// client, per §4.2's push operation. Fails with ChannelClosed if the
// incoming channel has already been closed.
func (c *Client) Push(buf []byte) error {
	if err := c.conn.pushIncoming(buf); err != nil {
		return NewError(err, ErrCodeChannelClosed, "dtls_terminator", "push")
	}
	return nil
}

// popOutgoing drains the next datagram the DTLS engine produced, for the
// UDP sender pump to transmit to this client's address.
func (c *Client) popOutgoing(deadline time.Time) ([]byte, error) {
	return c.conn.popOutgoing(deadline)
}

// DriveHandshake runs the DTLS server handshake for a New client with a
// hard 10s deadline, guaranteeing exactly one driver task per client (§3).
// A second call while one is already in flight is a no-op. On success the
// client transitions to Connected with both SRTP sessions constructed
// under one critical section (§5: partial SRTP state is forbidden). On
// failure or timeout the client transitions to Shutdown and the caller is
// expected to delete it from the registry.
func (c *Client) DriveHandshake(certs []tls.Certificate) error {
	c.mu.Lock()
	if c.state != StateNew || c.driverStarted {
		c.mu.Unlock()
		return nil
	}
	c.driverStarted = true
	c.mu.Unlock()

	RecordHandshakeStarted()

	cfg := &dtls.Config{
		Certificates:           certs,
		ExtendedMasterSecret:   dtls.RequireExtendedMasterSecret,
		SRTPProtectionProfiles: []dtls.SRTPProtectionProfile{dtls.SRTP_AES128_CM_HMAC_SHA1_80},
	}

	ctx, cancel := context.WithTimeout(context.Background(), handshakeTimeout)
	defer cancel()

	conn, err := dtls.ServerWithContext(ctx, c.conn, cfg)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			RecordHandshakeOutcome("timeout")
			RecordHandshakeCompletion(false)
			log.Printf("⚠️ DTLS handshake timeout for %s", c.Addr)
			c.shutdown()
			return NewError(err, ErrCodeHandshakeTimeout, "dtls_terminator", "drive_handshake")
		}
		RecordHandshakeOutcome("failure")
		RecordHandshakeCompletion(false)
		log.Printf("❌ DTLS handshake failed for %s: %v", c.Addr, err)
		c.shutdown()
		return NewError(err, ErrCodeHandshakeFailure, "dtls_terminator", "drive_handshake")
	}

	inbound, outbound, err := deriveSRTPSessions(conn)
	if err != nil {
		RecordHandshakeOutcome("failure")
		RecordHandshakeCompletion(false)
		conn.Close()
		c.shutdown()
		return err
	}

	c.mu.Lock()
	c.dtlsConn = conn
	c.inbound = inbound
	c.outbound = outbound
	c.state = StateConnected
	c.mu.Unlock()

	RecordHandshakeOutcome("success")
	RecordHandshakeCompletion(true)
	log.Printf("✅ DTLS handshake complete for %s", c.Addr)
	return nil
}

// ExtractPostHandshake attempts a bounded-deadline read from the DTLS
// engine for out-of-band bytes (alerts, key updates) on a Connected
// client. A read returning zero bytes is orderly peer shutdown and the
// caller should delete the client; a deadline expiry is benign and leaves
// state unchanged.
func (c *Client) ExtractPostHandshake(buf []byte) error {
	c.mu.Lock()
	conn := c.dtlsConn
	c.mu.Unlock()
	if conn == nil {
		return nil
	}

	conn.SetReadDeadline(time.Now().Add(postHandshakeReadWindow))
	n, err := conn.Read(buf)
	if err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil
		}
		if errors.Is(err, io.EOF) {
			return NewError(err, ErrCodeChannelClosed, "dtls_terminator", "extract_post_handshake")
		}
		return NewError(err, ErrCodeDTLS, "dtls_terminator", "extract_post_handshake")
	}
	if n == 0 {
		return NewError(io.EOF, ErrCodeChannelClosed, "dtls_terminator", "extract_post_handshake")
	}
	return nil
}

// deriveSRTPSessions exports keying material per RFC 5764 §4.2 using the
// standard exporter label and splits it into client/server halves: the
// client half seeds the inbound session (decrypting what the peer sends
// us), the server half seeds the outbound session (encrypting what we
// send to the peer).
func deriveSRTPSessions(conn *dtls.Conn) (inbound, outbound *SRTPSession, err error) {
	state := conn.ConnectionState()
	material, exportErr := state.ExportKeyingMaterial("EXTRACTOR-dtls_srtp", nil, 2*srtpHalf)
	if exportErr != nil {
		return nil, nil, NewError(exportErr, ErrCodeDTLS, "dtls_terminator", "export_keying_material")
	}
	if len(material) < 2*srtpHalf {
		return nil, nil, NewError(errors.New("short keying material"), ErrCodeDTLS, "dtls_terminator", "export_keying_material")
	}

	clientKey := material[0:srtpKeyLen]
	serverKey := material[srtpKeyLen : 2*srtpKeyLen]
	clientSalt := material[2*srtpKeyLen : 2*srtpKeyLen+srtpSaltLen]
	serverSalt := material[2*srtpKeyLen+srtpSaltLen : 2*srtpKeyLen+2*srtpSaltLen]

	inbound, err = NewSRTPSession(append([]byte(nil), clientKey...), append([]byte(nil), clientSalt...))
	if err != nil {
		return nil, nil, err
	}
	outbound, err = NewSRTPSession(append([]byte(nil), serverKey...), append([]byte(nil), serverSalt...))
	if err != nil {
		return nil, nil, err
	}
	return inbound, outbound, nil
}
