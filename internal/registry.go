package internal

import (
	"log"
	"net"
	"sync"
)

// ClientRegistry maps remote UDP address to client record (§4.5). Entries
// are created on demand by GetOrCreate; removal is idempotent. The registry
// lock is never held across an operation that touches a client's own mu.
type ClientRegistry struct {
	mu      sync.RWMutex
	clients map[string]*Client
	local   net.Addr
	audit   *AuditStore
}

// NewClientRegistry creates an empty registry. local is the SFU's bound
// UDP socket address, handed to every client record's duplex channel.
func NewClientRegistry(local net.Addr) *ClientRegistry {
	return &ClientRegistry{
		clients: make(map[string]*Client),
		local:   local,
	}
}

// SetAuditStore wires an optional audit log so Delete records client
// deletion reasons; nil disables logging (AuditStore's own methods are
// nil-safe, but this also lets an un-set store be a true no-op).
func (r *ClientRegistry) SetAuditStore(audit *AuditStore) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audit = audit
}

// Lookup returns the client record for addr, if any, without creating one.
func (r *ClientRegistry) Lookup(addr net.Addr) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[addr.String()]
	return c, ok
}

// GetOrCreate returns the existing client record for addr, or creates and
// registers a New one. This is the insertion-on-first-packet path (§3).
func (r *ClientRegistry) GetOrCreate(addr net.Addr) (*Client, bool) {
	r.mu.RLock()
	c, ok := r.clients[addr.String()]
	r.mu.RUnlock()
	if ok {
		return c, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.clients[addr.String()]; ok {
		return c, false
	}
	c = newClient(r.local, addr)
	r.clients[addr.String()] = c
	SetActiveClients(len(r.clients))
	return c, true
}

// Delete removes the client record for addr, closing its resources and
// recording reason in the audit log. Returns whether an entry existed.
// Idempotent per §3/§5.
func (r *ClientRegistry) Delete(addr net.Addr, router *GroupRouter, reason string) bool {
	r.mu.Lock()
	c, ok := r.clients[addr.String()]
	if ok {
		delete(r.clients, addr.String())
		SetActiveClients(len(r.clients))
	}
	audit := r.audit
	r.mu.Unlock()

	if !ok {
		return false
	}

	correlationID := c.GetCorrelationID()
	c.shutdown()
	if router != nil {
		router.Remove(addr)
	}
	audit.RecordDeletion(correlationID, addr.String(), reason)
	log.Printf("🗑️ client removed: %s (%s)", addr.String(), reason)
	return true
}

// Len returns the current number of registered clients, for health/metrics
// reporting.
func (r *ClientRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
