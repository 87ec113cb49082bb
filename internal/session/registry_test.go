package session

import (
	"sync"
	"testing"
)

func TestRegistryRegister(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register(&Session{AccountID: "acc-1", Email: "a@example.com"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if registry.Count() != 1 {
		t.Errorf("Count = %d, want 1", registry.Count())
	}

	err := registry.Register(&Session{AccountID: "acc-1", Email: "a@example.com"})
	if err != ErrAlreadyActive {
		t.Errorf("second Register error = %v, want ErrAlreadyActive", err)
	}
	if registry.Count() != 1 {
		t.Errorf("Count after rejected register = %d, want 1", registry.Count())
	}
}

func TestRegistryUnregister(t *testing.T) {
	registry := NewRegistry()

	s := &Session{AccountID: "acc-1", Email: "a@example.com"}
	if err := registry.Register(s); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got := registry.Unregister("acc-1")
	if got != s {
		t.Errorf("Unregister returned %+v, want the registered session", got)
	}
	if registry.Count() != 0 {
		t.Errorf("Count = %d, want 0", registry.Count())
	}

	// Unknown accounts are a no-op.
	if got := registry.Unregister("acc-1"); got != nil {
		t.Errorf("repeat Unregister returned %+v, want nil", got)
	}
	if got := registry.Unregister("never-seen"); got != nil {
		t.Errorf("Unregister of unknown account returned %+v, want nil", got)
	}
}

func TestRegistryUnregisterIf(t *testing.T) {
	registry := NewRegistry()

	winner := &Session{AccountID: "acc-1", Email: "a@example.com"}
	if err := registry.Register(winner); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// A different session for the same account cannot evict the holder.
	loser := &Session{AccountID: "acc-1", Email: "a@example.com"}
	if registry.UnregisterIf("acc-1", loser) {
		t.Error("UnregisterIf removed the entry for a session that never held it")
	}
	if registry.Get("acc-1") != winner {
		t.Error("registered session was displaced")
	}

	if !registry.UnregisterIf("acc-1", winner) {
		t.Error("UnregisterIf refused the holding session")
	}
	if registry.Count() != 0 {
		t.Errorf("Count = %d, want 0", registry.Count())
	}

	// Repeat removal is a no-op.
	if registry.UnregisterIf("acc-1", winner) {
		t.Error("repeat UnregisterIf reported a removal")
	}
}

func TestRegistryGet(t *testing.T) {
	registry := NewRegistry()

	if got := registry.Get("acc-1"); got != nil {
		t.Errorf("Get on empty registry = %+v, want nil", got)
	}

	s := &Session{AccountID: "acc-1"}
	_ = registry.Register(s)

	if got := registry.Get("acc-1"); got != s {
		t.Errorf("Get = %+v, want registered session", got)
	}
}

func TestRegistryAllSnapshot(t *testing.T) {
	registry := NewRegistry()
	_ = registry.Register(&Session{AccountID: "acc-1"})
	_ = registry.Register(&Session{AccountID: "acc-2"})

	all := registry.All()
	if len(all) != 2 {
		t.Fatalf("All returned %d sessions, want 2", len(all))
	}

	// Mutating the registry does not affect the snapshot.
	registry.Unregister("acc-1")
	if len(all) != 2 {
		t.Errorf("snapshot shrank to %d after Unregister", len(all))
	}
}

func TestRegistryConcurrentUnregister(t *testing.T) {
	registry := NewRegistry()
	_ = registry.Register(&Session{AccountID: "acc-1"})

	// An explicit close and a disconnect callback may both unregister;
	// exactly one wins and neither errors.
	var wg sync.WaitGroup
	wins := make(chan *Session, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s := registry.Unregister("acc-1"); s != nil {
				wins <- s
			}
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	if count != 1 {
		t.Errorf("expected exactly one winner, got %d", count)
	}
	if registry.Count() != 0 {
		t.Errorf("Count = %d, want 0", registry.Count())
	}
}
