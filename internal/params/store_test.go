package params

import (
	"errors"
	"sync"
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore([]string{"CADC0888", "CADC0894", "CADC1002"}, 42)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return s
}

func TestNewStore_Errors(t *testing.T) {
	tests := []struct {
		name    string
		names   []string
		wantErr error
	}{
		{"empty set", nil, ErrNoParameters},
		{"empty name", []string{"A", ""}, ErrInvalidParameter},
		{"duplicate name", []string{"A", "B", "A"}, ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStore(tt.names, 42)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewStore() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGet_DefaultBeforeFirstSample(t *testing.T) {
	s := testStore(t)

	v, err := s.Get("CADC0894")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if v != 42 {
		t.Errorf("Get() = %v, want default 42", v)
	}
}

func TestSetGet(t *testing.T) {
	s := testStore(t)

	s.Set("CADC0894", 1.23)

	v, err := s.Get("CADC0894")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if v != 1.23 {
		t.Errorf("Get() = %v, want 1.23", v)
	}
}

func TestSet_ZeroOverridesDefault(t *testing.T) {
	s := testStore(t)

	// An explicit zero is a real sample, not "never set".
	s.Set("CADC0888", 0)

	v, err := s.Get("CADC0888")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if v != 0 {
		t.Errorf("Get() = %v, want 0", v)
	}
}

func TestGet_UnknownParameter(t *testing.T) {
	s := testStore(t)

	_, err := s.Get("UNKNOWN")
	if !errors.Is(err, ErrUnknownParameter) {
		t.Errorf("Get() error = %v, want ErrUnknownParameter", err)
	}
}

func TestSet_UndeclaredDropped(t *testing.T) {
	s := testStore(t)

	s.Set("UNDECLARED", 99)

	// The declared set and values are unaffected.
	if s.Has("UNDECLARED") {
		t.Error("Has(UNDECLARED) = true, want false")
	}
	snap := s.Snapshot()
	for i, v := range snap.Values {
		if v != 42 {
			t.Errorf("Values[%d] = %v, want default 42", i, v)
		}
	}
}

func TestSnapshot_OrderAndDefaults(t *testing.T) {
	s := testStore(t)

	s.Set("CADC0894", 1.5)
	s.Set("CADC1002", -0.25)

	snap := s.Snapshot()
	want := []float64{42, 1.5, -0.25}
	if len(snap.Values) != len(want) {
		t.Fatalf("len(Values) = %d, want %d", len(snap.Values), len(want))
	}
	for i := range want {
		if snap.Values[i] != want[i] {
			t.Errorf("Values[%d] = %v, want %v", i, snap.Values[i], want[i])
		}
	}
	if snap.TakenAt.IsZero() {
		t.Error("TakenAt is zero")
	}
}

func TestSnapshot_IsCopy(t *testing.T) {
	s := testStore(t)

	snap := s.Snapshot()
	snap.Values[0] = 999

	v, _ := s.Get("CADC0888")
	if v != 42 {
		t.Errorf("store mutated through snapshot: Get() = %v, want 42", v)
	}
}

func TestNames(t *testing.T) {
	s := testStore(t)

	names := s.Names()
	want := []string{"CADC0888", "CADC0894", "CADC1002"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	// Mutating the returned slice must not affect the store.
	names[0] = "MUTATED"
	if !s.Has("CADC0888") {
		t.Error("store mutated through Names() result")
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := testStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Set("CADC0894", float64(n*100+j))
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = s.Snapshot()
			}
		}()
	}
	wg.Wait()
}
