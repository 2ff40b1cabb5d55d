package internal

import (
	"strings"
	"sync"
)

// MediaPair is one negotiated (payload_type, codec_name) association for a
// single peer, as offered/answered in that peer's SDP.
type MediaPair struct {
	PayloadType uint8
	CodecName   string
}

// MediaTable is a per-client bidirectional mapping between codec name and
// that peer's negotiated payload-type number. Codec names are normalised to
// lowercase ASCII on insertion and lookup per §9's open question on case
// sensitivity.
type MediaTable struct {
	mu       sync.RWMutex
	pairs    []MediaPair
	nameToPT map[string]uint8
	ptToName map[uint8]string
}

// NewMediaTable builds a MediaTable from an ordered list of pairs, as
// received from the signalling collaborator's AttachMedia message.
func NewMediaTable(pairs []MediaPair) *MediaTable {
	t := &MediaTable{
		nameToPT: make(map[string]uint8, len(pairs)),
		ptToName: make(map[uint8]string, len(pairs)),
	}
	for _, p := range pairs {
		t.insert(p.PayloadType, p.CodecName)
	}
	return t
}

func (t *MediaTable) insert(pt uint8, name string) {
	name = strings.ToLower(name)
	t.pairs = append(t.pairs, MediaPair{PayloadType: pt, CodecName: name})
	t.nameToPT[name] = pt
	t.ptToName[pt] = name
}

// CodecForPT returns the lowercase codec name bound to a payload type, and
// whether one exists.
func (t *MediaTable) CodecForPT(pt uint8) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	name, ok := t.ptToName[pt]
	return name, ok
}

// PTForCodec returns the payload type bound to a codec name (case
// insensitive), and whether one exists.
func (t *MediaTable) PTForCodec(name string) (uint8, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	pt, ok := t.nameToPT[strings.ToLower(name)]
	return pt, ok
}

// Pairs returns a copy of the ordered (payload_type, codec_name) list.
func (t *MediaTable) Pairs() []MediaPair {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]MediaPair, len(t.pairs))
	copy(out, t.pairs)
	return out
}
