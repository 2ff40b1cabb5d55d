package internal

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		buf  []byte
		want PacketKind
	}{
		{"empty", nil, KindUnknown},
		{"stun", []byte{0x00, 0x01, 0x00, 0x00}, KindSTUN},
		{"stun_boundary", []byte{0x03}, KindSTUN},
		{"dtls_lower", []byte{20}, KindDTLS},
		{"dtls_upper", []byte{63}, KindDTLS},
		{"rtp", []byte{0x80, 0x00}, KindRTP},
		{"rtcp", []byte{0x80, 200}, KindRTCP},
		{"unrecognized", []byte{0x05}, KindUnknown},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Classify(c.buf); got != c.want {
				t.Errorf("Classify(%v) = %s, want %s", c.buf, got, c.want)
			}
		})
	}
}

func TestPacketKindString(t *testing.T) {
	if KindRTCP.String() != "rtcp" {
		t.Errorf("unexpected String() for KindRTCP: %s", KindRTCP.String())
	}
	if KindUnknown.String() != "unknown" {
		t.Errorf("unexpected String() for KindUnknown: %s", KindUnknown.String())
	}
}
