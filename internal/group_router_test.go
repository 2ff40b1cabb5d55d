package internal

import (
	"net"
	"testing"
)

func addr(s string) net.Addr {
	a, _ := net.ResolveUDPAddr("udp", s)
	return a
}

func TestGroupRouterInsertIgnoresUnknownAddr(t *testing.T) {
	registry := NewClientRegistry(addr("127.0.0.1:5000"))
	router := NewGroupRouter(registry)

	router.Insert("room1", addr("127.0.0.1:6000"))

	if _, ok := router.Members(addr("127.0.0.1:6000")); ok {
		t.Fatal("expected Insert to be a no-op for an address unknown to the registry")
	}
}

func TestGroupRouterMembersExcludesSelf(t *testing.T) {
	registry := NewClientRegistry(addr("127.0.0.1:5000"))
	a1 := addr("127.0.0.1:6001")
	a2 := addr("127.0.0.1:6002")
	a3 := addr("127.0.0.1:6003")
	registry.GetOrCreate(a1)
	registry.GetOrCreate(a2)
	registry.GetOrCreate(a3)

	router := NewGroupRouter(registry)
	router.Insert("room1", a1)
	router.Insert("room1", a2)
	router.Insert("room1", a3)

	members, ok := router.Members(a1)
	if !ok {
		t.Fatal("expected a1 to be grouped")
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 other members, got %d", len(members))
	}
	for _, m := range members {
		if m.String() == a1.String() {
			t.Fatal("Members() must exclude the querying address itself")
		}
	}
}

func TestGroupRouterRemove(t *testing.T) {
	registry := NewClientRegistry(addr("127.0.0.1:5000"))
	a1 := addr("127.0.0.1:6001")
	a2 := addr("127.0.0.1:6002")
	registry.GetOrCreate(a1)
	registry.GetOrCreate(a2)

	router := NewGroupRouter(registry)
	router.Insert("room1", a1)
	router.Insert("room1", a2)

	if !router.Remove(a1) {
		t.Fatal("expected Remove to report the address was grouped")
	}
	if router.Remove(a1) {
		t.Fatal("Remove should be idempotent and report false on second call")
	}

	members, ok := router.Members(a2)
	if !ok || len(members) != 0 {
		t.Fatalf("expected a2 alone in its group after a1 left, got %v ok=%v", members, ok)
	}
}

func TestGroupRouterReInsertMovesGroup(t *testing.T) {
	registry := NewClientRegistry(addr("127.0.0.1:5000"))
	a1 := addr("127.0.0.1:6001")
	registry.GetOrCreate(a1)

	router := NewGroupRouter(registry)
	router.Insert("room1", a1)
	router.Insert("room2", a1)

	if _, ok := router.Members(a1); !ok {
		t.Fatal("expected a1 still grouped after moving")
	}
	// room1 should no longer have any members since a1 moved out.
	registry.GetOrCreate(addr("127.0.0.1:6002"))
	router.Insert("room1", addr("127.0.0.1:6002"))
	members, _ := router.Members(addr("127.0.0.1:6002"))
	if len(members) != 0 {
		t.Fatalf("expected room1 to only contain the newly inserted member, got %d others", len(members))
	}
}
