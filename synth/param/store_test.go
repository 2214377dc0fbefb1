package param

import (
	"sync"
	"testing"
)

func TestStoreSetGet(t *testing.T) {
	s := NewStore()

	if _, ok := s.Get(FilterCutoff); ok {
		t.Fatal("empty store reported a value")
	}

	s.Set(FilterCutoff, 0.4)
	s.Set(FilterCutoff, 0.6)

	v, ok := s.Get(FilterCutoff)
	if !ok || v != 0.6 {
		t.Fatalf("Get = %v, %v; want 0.6, true", v, ok)
	}

	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
}

func TestStoreRetargetsSmoother(t *testing.T) {
	s := NewStore()
	sm := NewSmoother(0.75, 20, 48000)
	s.Register(MasterVolume, sm)

	s.Set(MasterVolume, 0.2)

	if sm.Target() != 0.2 {
		t.Fatalf("smoother target = %v, want 0.2", sm.Target())
	}

	if sm.Current() != 0.75 {
		t.Fatalf("Set must not move the current value, got %v", sm.Current())
	}
}

func TestStoreSnapshotIsCopy(t *testing.T) {
	s := NewStore()
	s.Set(ReverbMix, 0.3)

	snap := s.Snapshot()
	snap[ReverbMix] = 1

	if v, _ := s.Get(ReverbMix); v != 0.3 {
		t.Fatalf("snapshot aliased the store: %v", v)
	}

	s.Clear()

	if s.Len() != 0 {
		t.Fatalf("Len after Clear = %d", s.Len())
	}
}

func TestStoreConcurrentWriters(t *testing.T) {
	s := NewStore()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)

		go func(w int) {
			defer wg.Done()

			for i := 0; i < 1000; i++ {
				s.Set(ID(200+w), float64(i))
			}
		}(w)
	}
	wg.Wait()

	if s.Len() != 8 {
		t.Fatalf("Len = %d, want 8", s.Len())
	}
}
