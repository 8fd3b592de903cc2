package ripple

import (
	"sync"
	"testing"
)

func TestSignalGetSet(t *testing.T) {
	s := NewSignal(42)

	if got := s.Get(); got != 42 {
		t.Errorf("expected initial value 42, got %d", got)
	}

	s.Set(100)
	if got := s.Get(); got != 100 {
		t.Errorf("expected 100 after Set, got %d", got)
	}
}

func TestSignalVersionIncrementsOncePerChange(t *testing.T) {
	s := NewSignal("a")

	v0 := s.Version()
	s.Set("b")
	if s.Version() != v0+1 {
		t.Errorf("expected version %d after one change, got %d", v0+1, s.Version())
	}

	s.Set("c")
	if s.Version() != v0+2 {
		t.Errorf("expected version %d after two changes, got %d", v0+2, s.Version())
	}
}

func TestSignalNoOpWriteSuppressed(t *testing.T) {
	s := NewSignal(5)

	runs := 0
	e := CreateEffect(func() Cleanup {
		_ = s.Get()
		runs++
		return nil
	})
	defer e.Dispose()

	v := s.Version()

	// Writing the current value must not bump the version or run dependents.
	s.Set(5)

	if s.Version() != v {
		t.Errorf("no-op write bumped version from %d to %d", v, s.Version())
	}
	if runs != 1 {
		t.Errorf("expected 1 effect run after no-op write, got %d", runs)
	}

	s.Set(6)
	if runs != 2 {
		t.Errorf("expected 2 effect runs after real write, got %d", runs)
	}
}

func TestSignalPeekDoesNotSubscribe(t *testing.T) {
	s := NewSignal(1)

	runs := 0
	e := CreateEffect(func() Cleanup {
		_ = s.Peek()
		runs++
		return nil
	})
	defer e.Dispose()

	s.Set(2)

	if runs != 1 {
		t.Errorf("Peek created a subscription: expected 1 run, got %d", runs)
	}
}

func TestSignalUpdate(t *testing.T) {
	s := NewSignal(10)

	s.Update(func(n int) int { return n * 2 })
	if got := s.Get(); got != 20 {
		t.Errorf("expected 20 after Update, got %d", got)
	}

	// Update to the same value is a no-op.
	v := s.Version()
	s.Update(func(n int) int { return n })
	if s.Version() != v {
		t.Errorf("no-op Update bumped version")
	}
}

func TestSignalWithEquals(t *testing.T) {
	// Treat values within 0.5 of each other as equal.
	s := NewSignal(1.0).WithEquals(func(a, b float64) bool {
		d := a - b
		return d > -0.5 && d < 0.5
	})

	runs := 0
	e := CreateEffect(func() Cleanup {
		_ = s.Get()
		runs++
		return nil
	})
	defer e.Dispose()

	s.Set(1.2) // within tolerance, suppressed
	if runs != 1 {
		t.Errorf("expected write within tolerance to be suppressed, got %d runs", runs)
	}

	s.Set(3.0)
	if runs != 2 {
		t.Errorf("expected write outside tolerance to propagate, got %d runs", runs)
	}
}

func TestSignalCompoundValueEquality(t *testing.T) {
	type point struct{ X, Y int }
	s := NewSignal(point{1, 2})

	v := s.Version()
	s.Set(point{1, 2})
	if s.Version() != v {
		t.Errorf("structurally equal write bumped version")
	}

	s.Set(point{3, 4})
	if s.Version() != v+1 {
		t.Errorf("expected version bump for changed struct")
	}
}

func TestUntrackedReadDoesNotSubscribe(t *testing.T) {
	tracked := NewSignal(1)
	untracked := NewSignal(1)

	runs := 0
	e := CreateEffect(func() Cleanup {
		_ = tracked.Get()
		Untracked(func() {
			_ = untracked.Get()
		})
		runs++
		return nil
	})
	defer e.Dispose()

	untracked.Set(2)
	if runs != 1 {
		t.Errorf("untracked read created a subscription: got %d runs", runs)
	}

	tracked.Set(2)
	if runs != 2 {
		t.Errorf("expected tracked read to propagate: got %d runs", runs)
	}
}

func TestSignalConcurrentWrites(t *testing.T) {
	s := NewSignal(0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Update(func(n int) int { return n + 1 })
			}
		}()
	}
	wg.Wait()

	if got := s.Get(); got != 800 {
		t.Errorf("expected 800 after concurrent updates, got %d", got)
	}
}

func TestIntSignalOperations(t *testing.T) {
	n := NewIntSignal(10)

	n.Inc()
	n.Add(5)
	n.Sub(2)
	n.Dec()

	if got := n.Get(); got != 13 {
		t.Errorf("expected 13, got %d", got)
	}
}

func TestBoolSignalToggle(t *testing.T) {
	b := NewBoolSignal(false)

	b.Toggle()
	if !b.Get() {
		t.Error("expected true after Toggle")
	}

	b.SetFalse()
	if b.Get() {
		t.Error("expected false after SetFalse")
	}
}

func TestStringSignalOperations(t *testing.T) {
	s := NewStringSignal("world")

	s.Prepend("hello ")
	s.Append("!")

	if got := s.Get(); got != "hello world!" {
		t.Errorf("expected %q, got %q", "hello world!", got)
	}
	if s.IsEmpty() {
		t.Error("expected non-empty")
	}

	s.Clear()
	if !s.IsEmpty() {
		t.Error("expected empty after Clear")
	}
}

func TestSliceSignalOperations(t *testing.T) {
	items := NewSliceSignal([]int{1, 2, 3})

	items.Append(4)
	items.Prepend(0)
	items.RemoveWhere(func(n int) bool { return n == 2 })

	got := items.Get()
	want := []int{0, 1, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestSliceSignalMutatorsDoNotAlias(t *testing.T) {
	items := NewSliceSignal([]int{1, 2, 3})

	before := items.Peek()
	items.SetAt(1, 99)

	if before[1] != 2 {
		t.Errorf("SetAt mutated a previously read slice: %v", before)
	}
	if items.Get()[1] != 99 {
		t.Errorf("SetAt did not apply")
	}
}

func TestMapSignalOperations(t *testing.T) {
	m := NewMapSignal(map[string]int{"a": 1})

	m.SetKey("b", 2)
	m.UpdateKey("a", func(n int) int { return n + 10 })
	m.RemoveKey("missing")

	if v, ok := m.GetKey("a"); !ok || v != 11 {
		t.Errorf("expected a=11, got %d (ok=%v)", v, ok)
	}
	if !m.HasKey("b") {
		t.Error("expected key b")
	}
	if m.Len() != 2 {
		t.Errorf("expected 2 keys, got %d", m.Len())
	}

	m.RemoveKey("a")
	if m.HasKey("a") {
		t.Error("expected key a removed")
	}
}
