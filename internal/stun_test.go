package internal

import "testing"

func TestStunCollaboratorHandleDoesNotPanic(t *testing.T) {
	s := NewStunCollaborator()
	s.Handle(addr("127.0.0.1:6000"), []byte{0x00, 0x01, 0x00, 0x00})
}
