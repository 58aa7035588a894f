package runtimeenv

import "testing"

func TestNextStreamIDIsMonotonicAndUnique(t *testing.T) {
	env := New(nil)
	seen := map[uint64]bool{}
	prev := uint64(0)
	for i := 0; i < 5; i++ {
		id := env.NextStreamID()
		if id <= prev {
			t.Fatalf("id %d not greater than previous %d", id, prev)
		}
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
		prev = id
	}
}

func TestNewDefaultsLogger(t *testing.T) {
	env := New(nil)
	if env.Log == nil {
		t.Fatal("expected default logger")
	}
}
