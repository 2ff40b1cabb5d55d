package internal

import "log"

// PacketKind is the classification the packet classifier assigns to a raw
// UDP datagram based on its leading byte(s), before any decryption happens.
type PacketKind int

const (
	KindUnknown PacketKind = iota
	KindSTUN
	KindDTLS
	KindRTP
	KindRTCP
)

func (k PacketKind) String() string {
	switch k {
	case KindSTUN:
		return "stun"
	case KindDTLS:
		return "dtls"
	case KindRTP:
		return "rtp"
	case KindRTCP:
		return "rtcp"
	default:
		return "unknown"
	}
}

// Classify demultiplexes a raw UDP datagram by inspecting its first byte
// (and, for the RTP/RTCP range, its second byte) per §4.1. It never
// inspects payload content and never allocates.
func Classify(buf []byte) PacketKind {
	if len(buf) == 0 {
		return KindUnknown
	}

	b0 := buf[0]
	var kind PacketKind
	switch {
	case b0 <= 3:
		kind = KindSTUN
	case b0 >= 20 && b0 <= 63:
		kind = KindDTLS
	case b0 >= 128 && b0 <= 191:
		if IsRTCP(buf) {
			kind = KindRTCP
		} else {
			kind = KindRTP
		}
	default:
		classifierRejected.Inc()
		log.Printf("classifier: dropping datagram with unrecognized leading byte 0x%02x", b0)
		return KindUnknown
	}
	RecordClassified(kind)
	return kind
}
