package ratelimit

import "testing"

func TestAllowConsumesTokens(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		if !l.Allow("a", 3, 0) {
			t.Fatalf("expected token %d to be available", i)
		}
	}
	if l.Allow("a", 3, 0) {
		t.Fatalf("expected bucket to be drained")
	}
}

func TestAllowKeysIndependent(t *testing.T) {
	l := New()
	if !l.Allow("a", 1, 0) {
		t.Fatalf("expected first token for a")
	}
	if l.Allow("a", 1, 0) {
		t.Fatalf("expected a drained")
	}
	if !l.Allow("b", 1, 0) {
		t.Fatalf("expected b unaffected by a")
	}
}
