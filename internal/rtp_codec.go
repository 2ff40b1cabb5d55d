package internal

import (
	"fmt"

	"github.com/pion/rtp"
)

// minRTPHeaderSize is the fixed portion of an RTP header (RFC 3550 §5.1);
// anything shorter cannot carry a valid header and is a parse failure.
const minRTPHeaderSize = RTPHeaderSize

// RTPHeaderInfo holds the fields the fan-out coordinator needs from an
// RTP packet without fully decoding extensions or CSRC lists.
type RTPHeaderInfo struct {
	Marker      bool
	PayloadType uint8
}

// ParseRTPHeaderInfo extracts the marker bit and payload-type byte from a
// raw RTP packet. It intentionally looks at only the first two bytes,
// matching the codec's scope in the component design: this is not a full
// RTP parse, just enough to route and rewrite.
func ParseRTPHeaderInfo(buf []byte) (RTPHeaderInfo, error) {
	if len(buf) < minRTPHeaderSize {
		return RTPHeaderInfo{}, NewError(fmt.Errorf("packet too short: %d bytes", len(buf)), ErrCodeRTP, "rtp_codec", "parse_header")
	}
	return RTPHeaderInfo{
		Marker:      buf[1]&0x80 != 0,
		PayloadType: buf[1] & 0x7F,
	}, nil
}

// RewritePayloadType overwrites byte 1 of an RTP header in place with a new
// payload-type number and the given marker bit. The fan-out egress path
// does not call this: it sets the payload type on the header returned by
// DecodeRTPPacket and re-encrypts from that header.
func RewritePayloadType(buf []byte, marker bool, newPT uint8) error {
	if len(buf) < minRTPHeaderSize {
		return NewError(fmt.Errorf("packet too short: %d bytes", len(buf)), ErrCodeRTP, "rtp_codec", "rewrite_pt")
	}
	var m uint8
	if marker {
		m = 0x80
	}
	buf[1] = m | (newPT & 0x7F)
	return nil
}

// DecodeRTPPacket fully unmarshals an RTP packet using pion/rtp, used by the
// fan-out coordinator once a packet has cleared SRTP unprotect and needs its
// header split from its payload for re-encryption under a new payload type.
func DecodeRTPPacket(buf []byte) (*rtp.Packet, error) {
	pkt := &rtp.Packet{}
	if err := pkt.Unmarshal(buf); err != nil {
		return nil, NewError(err, ErrCodeRTP, "rtp_codec", "unmarshal")
	}
	return pkt, nil
}

// isRTCPPayloadType reports whether a second RTP/RTCP header byte identifies
// an RTCP packet type, per the classifier's detection rule (§4.1): RTCP
// packet types occupy 64-95 in the second byte's low 7 bits.
func isRTCPPayloadType(b byte) bool {
	pt := b & 0x7F
	return pt >= 64 && pt <= 95
}

// IsRTCP reports whether a raw datagram already known to be RTP/RTCP
// (leading byte 128-191) is RTCP rather than RTP.
func IsRTCP(buf []byte) bool {
	if len(buf) < 2 {
		return false
	}
	return isRTCPPayloadType(buf[1])
}
