package internal

import (
	"testing"

	"github.com/pion/rtp"
	"github.com/stretchr/testify/require"
)

func testSRTPKeys() ([]byte, []byte) {
	key := make([]byte, 16)
	salt := make([]byte, 14)
	for i := range key {
		key[i] = byte(i)
	}
	for i := range salt {
		salt[i] = byte(i + 1)
	}
	return key, salt
}

func TestSRTPRoundTripRTP(t *testing.T) {
	key, salt := testSRTPKeys()

	encSession, err := NewSRTPSession(key, salt)
	require.NoError(t, err)
	decSession, err := NewSRTPSession(key, salt)
	require.NoError(t, err)

	header := &rtp.Header{
		Version:        2,
		PayloadType:    111,
		SequenceNumber: 1,
		Timestamp:      1000,
		SSRC:           12345,
	}
	payload := []byte("test media payload")

	protected, err := encSession.Protect(header, payload)
	require.NoError(t, err)

	plain, err := decSession.Unprotect(protected, false)
	require.NoError(t, err)

	pkt, err := DecodeRTPPacket(plain)
	require.NoError(t, err)
	if string(pkt.Payload) != string(payload) {
		t.Fatalf("round-tripped payload = %q, want %q", pkt.Payload, payload)
	}
	if pkt.Header.SequenceNumber != 1 || pkt.Header.SSRC != 12345 {
		t.Fatalf("round-tripped header mismatch: %+v", pkt.Header)
	}
}

func TestSRTPUnprotectWithWrongKeyFails(t *testing.T) {
	key, salt := testSRTPKeys()
	encSession, _ := NewSRTPSession(key, salt)

	wrongKey := make([]byte, 16)
	copy(wrongKey, key)
	wrongKey[0] ^= 0xFF
	decSession, _ := NewSRTPSession(wrongKey, salt)

	header := &rtp.Header{Version: 2, PayloadType: 0, SequenceNumber: 1, Timestamp: 1, SSRC: 1}
	protected, err := encSession.Protect(header, []byte("payload"))
	if err != nil {
		t.Fatalf("Protect: %v", err)
	}

	if _, err := decSession.Unprotect(protected, false); err == nil {
		t.Fatal("expected Unprotect with mismatched key to fail")
	}
}

func TestSRTPSessionNilReceiverIsSafe(t *testing.T) {
	var s *SRTPSession
	if _, err := s.Unprotect([]byte{0x80}, false); err == nil {
		t.Fatal("expected nil session Unprotect to return an error")
	}
	if _, err := s.Protect(&rtp.Header{}, nil); err == nil {
		t.Fatal("expected nil session Protect to return an error")
	}
}
