package internal

import (
	"fmt"
	"log"
	"net"
	"sync"
)

// GroupRouter maps group id to the set of member addresses, and addr to
// its single group id, kept in sync. §4.6 specifies the set-valued
// representation; the source's single-sender `insert_or_get_sender` path
// is dead code and is not reimplemented (§9 open question).
type GroupRouter struct {
	mu       sync.RWMutex
	groupOf  map[string]string                // addr.String() -> group id
	members  map[string]map[string]net.Addr   // group id -> set of addrs
	registry *ClientRegistry
	cache    *GroupCache
}

// NewGroupRouter builds a router backed by the given registry; insert is a
// no-op for any address the registry does not know about.
func NewGroupRouter(registry *ClientRegistry) *GroupRouter {
	return &GroupRouter{
		groupOf:  make(map[string]string),
		members:  make(map[string]map[string]net.Addr),
		registry: registry,
	}
}

// SetCache wires an optional Redis mirror so Insert/Remove write through
// to it; nil disables mirroring (GroupCache's own methods are nil-safe,
// but this also lets an un-set cache be a true zero-cost no-op).
func (r *GroupRouter) SetCache(cache *GroupCache) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = cache
}

// Insert adds addr to groupID. No-op if addr is not present in the
// registry, per §4.6.
func (r *GroupRouter) Insert(groupID string, addr net.Addr) {
	if _, ok := r.registry.Lookup(addr); !ok {
		return
	}

	r.mu.Lock()

	key := addr.String()
	previousGroup, hadPrevious := r.groupOf[key]
	if hadPrevious {
		prev := r.members[previousGroup]
		delete(prev, key)
		if len(prev) == 0 {
			delete(r.members, previousGroup)
			DeleteGroupSize(previousGroup)
		} else {
			SetGroupSize(previousGroup, len(prev))
		}
	}

	r.groupOf[key] = groupID
	set, ok := r.members[groupID]
	if !ok {
		set = make(map[string]net.Addr)
		r.members[groupID] = set
	}
	set[key] = addr

	SetGroupSize(groupID, len(set))
	cache := r.cache
	memberCount := len(set)
	r.mu.Unlock()

	if hadPrevious {
		cache.MirrorLeave(previousGroup, key)
	}
	cache.MirrorJoin(groupID, key)
	log.Printf("📡 joined group %s: %s (group now has %d members)", groupID, key, memberCount)
}

// Members returns the set of addresses sharing addr's group, excluding
// addr itself. The second return value is false if addr is ungrouped.
func (r *GroupRouter) Members(addr net.Addr) ([]net.Addr, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := addr.String()
	groupID, ok := r.groupOf[key]
	if !ok {
		return nil, false
	}

	set := r.members[groupID]
	out := make([]net.Addr, 0, len(set))
	for k, a := range set {
		if k == key {
			continue
		}
		out = append(out, a)
	}
	return out, true
}

// Remove deletes addr's group membership, returning whether it existed.
func (r *GroupRouter) Remove(addr net.Addr) bool {
	r.mu.Lock()

	key := addr.String()
	groupID, ok := r.groupOf[key]
	if !ok {
		r.mu.Unlock()
		return false
	}
	delete(r.groupOf, key)

	set := r.members[groupID]
	delete(set, key)
	if len(set) == 0 {
		delete(r.members, groupID)
		DeleteGroupSize(groupID)
	} else {
		SetGroupSize(groupID, len(set))
	}
	cache := r.cache
	r.mu.Unlock()

	cache.MirrorLeave(groupID, key)
	return true
}

// GroupIDString is a convenience formatter matching the signalling
// collaborator's numeric group ids.
func GroupIDString(groupID uint64) string {
	return fmt.Sprintf("%d", groupID)
}
