package internal

import "testing"

func TestClientRegistryGetOrCreate(t *testing.T) {
	registry := NewClientRegistry(addr("127.0.0.1:5000"))
	a := addr("127.0.0.1:6001")

	c1, created := registry.GetOrCreate(a)
	if !created {
		t.Fatal("expected first GetOrCreate to report creation")
	}
	c2, created := registry.GetOrCreate(a)
	if created {
		t.Fatal("expected second GetOrCreate to report no creation")
	}
	if c1 != c2 {
		t.Fatal("expected GetOrCreate to return the same client record for the same address")
	}
}

func TestClientRegistryLookupMiss(t *testing.T) {
	registry := NewClientRegistry(addr("127.0.0.1:5000"))
	if _, ok := registry.Lookup(addr("127.0.0.1:9999")); ok {
		t.Fatal("expected Lookup miss for unregistered address")
	}
}

func TestClientRegistryDeleteIdempotent(t *testing.T) {
	registry := NewClientRegistry(addr("127.0.0.1:5000"))
	a := addr("127.0.0.1:6001")
	registry.GetOrCreate(a)

	if !registry.Delete(a, nil, "test") {
		t.Fatal("expected first Delete to report the entry existed")
	}
	if registry.Delete(a, nil, "test") {
		t.Fatal("expected second Delete to report false")
	}
	if _, ok := registry.Lookup(a); ok {
		t.Fatal("expected Lookup to miss after Delete")
	}
}

func TestClientRegistryLen(t *testing.T) {
	registry := NewClientRegistry(addr("127.0.0.1:5000"))
	if registry.Len() != 0 {
		t.Fatalf("expected empty registry, got Len()=%d", registry.Len())
	}
	registry.GetOrCreate(addr("127.0.0.1:6001"))
	registry.GetOrCreate(addr("127.0.0.1:6002"))
	if registry.Len() != 2 {
		t.Fatalf("expected Len()=2, got %d", registry.Len())
	}
}
