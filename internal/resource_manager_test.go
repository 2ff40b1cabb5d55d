package internal

import (
	"errors"
	"testing"
)

type fakeResource struct {
	closed bool
	err    error
}

func (f *fakeResource) Close() error {
	f.closed = true
	return f.err
}

func TestResourceGroupClosesAllResources(t *testing.T) {
	rg := NewResourceGroup()
	r1 := &fakeResource{}
	r2 := &fakeResource{}
	rg.Add(r1)
	rg.Add(r2)

	if err := rg.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r1.closed || !r2.closed {
		t.Fatal("expected both resources to be closed")
	}
}

func TestResourceGroupClosePropagatesError(t *testing.T) {
	rg := NewResourceGroup()
	wantErr := errors.New("boom")
	rg.Add(&fakeResource{err: wantErr})

	if err := rg.Close(); err != wantErr {
		t.Fatalf("Close() error = %v, want %v", err, wantErr)
	}
}

func TestResourceGroupAddAfterCloseClosesImmediately(t *testing.T) {
	rg := NewResourceGroup()
	rg.Close()

	r := &fakeResource{}
	rg.Add(r)
	if !r.closed {
		t.Fatal("expected resource added after Close to be closed immediately")
	}
}

func TestResourceGroupCloseIsIdempotent(t *testing.T) {
	rg := NewResourceGroup()
	r := &fakeResource{}
	rg.Add(r)

	rg.Close()
	rg.Close()
}
