package internal

import (
	"log"
	"net"
	"sync"
)

// PacketSink is the UDP send side the fan-out coordinator submits
// outbound datagrams to. The dispatcher's UDP transport pump implements
// this; tests can substitute a recording fake.
type PacketSink interface {
	Send(addr net.Addr, data []byte)
}

// FanoutCoordinator orchestrates per-packet routing: decrypt once at the
// source, then for each group member re-encrypt and submit independently
// (§4.7). Ordering per (source, destination) pair is preserved with a
// ticket gate; cross-source interleaving is unspecified.
type FanoutCoordinator struct {
	registry *ClientRegistry
	router   *GroupRouter
	sink     PacketSink

	gatesMu sync.Mutex
	gates   map[string]*ticketGate
}

// NewFanoutCoordinator wires the coordinator to the registry, router, and
// send sink it needs for every ingress RTP/RTCP packet.
func NewFanoutCoordinator(registry *ClientRegistry, router *GroupRouter, sink PacketSink) *FanoutCoordinator {
	return &FanoutCoordinator{
		registry: registry,
		router:   router,
		sink:     sink,
		gates:    make(map[string]*ticketGate),
	}
}

// ticketGate serializes scatter submissions for one (source, destination)
// pair so that packet k's egress submission completes before packet k+1's
// begins, without holding any client lock across the wait. Tickets are
// handed out by take(), which this gate also owns, so a packet dropped
// before it ever reaches the scatter path (replay/auth/format failure,
// an empty group) never takes a ticket and so never has to be waited for —
// the issued and served counters stay in lockstep by construction.
type ticketGate struct {
	mu     sync.Mutex
	cond   *sync.Cond
	next   uint64
	issued uint64
}

func newTicketGate() *ticketGate {
	g := &ticketGate{}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// take hands out the next ticket for this (source, destination) pair. Call
// it only once a packet is actually about to be scattered to this
// destination, never speculatively.
func (g *ticketGate) take() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	t := g.issued
	g.issued++
	return t
}

func (g *ticketGate) wait(ticket uint64) {
	g.mu.Lock()
	for g.next != ticket {
		g.cond.Wait()
	}
}

// release must be called with g.mu held (i.e. immediately after wait).
func (g *ticketGate) release() {
	g.next++
	g.cond.Broadcast()
	g.mu.Unlock()
}

func (f *FanoutCoordinator) gateFor(src, dst net.Addr) *ticketGate {
	key := src.String() + "|" + dst.String()
	f.gatesMu.Lock()
	defer f.gatesMu.Unlock()
	g, ok := f.gates[key]
	if !ok {
		g = newTicketGate()
		f.gates[key] = g
	}
	return g
}

// HandlePacket processes one ingress datagram already classified as RTP or
// RTCP, from source. It decrypts once under the source's lock, then scatters
// independently-encrypted copies to every other member of source's group.
func (f *FanoutCoordinator) HandlePacket(source net.Addr, buf []byte, isRTCP bool) {
	if IsPCAPEnabled() {
		CapturePacket(buf)
	}

	src, ok := f.registry.Lookup(source)
	if !ok {
		return
	}

	src.mu.Lock()
	if src.state != StateConnected {
		src.mu.Unlock()
		return
	}
	inbound := src.inbound
	plain, err := inbound.Unprotect(buf, isRTCP)
	var marker bool
	var srcPT uint8
	var codec string
	var haveCodec bool
	if err == nil && !isRTCP {
		if hdr, hdrErr := ParseRTPHeaderInfo(plain); hdrErr == nil {
			marker = hdr.Marker
			srcPT = hdr.PayloadType
			if src.media != nil {
				codec, haveCodec = src.media.CodecForPT(srcPT)
			}
		} else {
			err = hdrErr
		}
	}
	src.mu.Unlock()

	if err == nil && isRTCP {
		RecordRTCPKind(ClassifyRTCP(plain))
	}

	if err != nil {
		if IsMediaError(err) {
			return
		}
		log.Printf("❌ fan-out unprotect error from %s: %v", source, err)
		return
	}

	destinations, ok := f.router.Members(source)
	if !ok || len(destinations) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, dst := range destinations {
		gate := f.gateFor(source, dst)
		ticket := gate.take()
		wg.Add(1)
		go func(dst net.Addr, ticket uint64, gate *ticketGate) {
			defer wg.Done()
			f.deliver(source, dst, ticket, gate, plain, isRTCP, marker, codec, haveCodec)
		}(dst, ticket, gate)
	}
	wg.Wait()
}

func (f *FanoutCoordinator) deliver(source, dst net.Addr, ticket uint64, gate *ticketGate, plain []byte, isRTCP, marker bool, codec string, haveCodec bool) {
	gate.wait(ticket)
	defer gate.release()

	destClient, ok := f.registry.Lookup(dst)
	if !ok {
		return
	}

	destClient.mu.Lock()
	defer destClient.mu.Unlock()

	if destClient.state != StateConnected {
		return
	}

	if isRTCP {
		out, err := destClient.outbound.ProtectRTCP(append([]byte(nil), plain...))
		if err != nil {
			return
		}
		f.sink.Send(dst, out)
		IncrementFanoutDeliveries(1)
		return
	}

	if !haveCodec || destClient.media == nil {
		return
	}
	destPT, ok := destClient.media.PTForCodec(codec)
	if !ok {
		RecordSRTPError("unknown_payload")
		return
	}

	pkt, err := DecodeRTPPacket(plain)
	if err != nil {
		return
	}
	pkt.Header.Marker = marker
	pkt.Header.PayloadType = destPT

	out, err := destClient.outbound.Protect(&pkt.Header, pkt.Payload)
	if err != nil {
		return
	}
	f.sink.Send(dst, out)
	IncrementFanoutDeliveries(1)
}
