package ripple

import (
	"testing"
)

func TestBatchCollapsesToSingleRun(t *testing.T) {
	first := NewSignal("John")
	last := NewSignal("Doe")

	runs := 0
	var full string
	e := CreateEffect(func() Cleanup {
		full = first.Get() + " " + last.Get()
		runs++
		return nil
	})
	defer e.Dispose()

	Batch(func() {
		first.Set("Jane")
		last.Set("Smith")
	})

	if runs != 2 {
		t.Errorf("expected 2 runs (initial + one batched), got %d", runs)
	}
	if full != "Jane Smith" {
		t.Errorf("expected %q, got %q", "Jane Smith", full)
	}
}

func TestBatchReadsObserveWrites(t *testing.T) {
	s := NewSignal(1)

	var inside int
	Batch(func() {
		s.Set(10)
		inside = s.Get()
	})

	if inside != 10 {
		t.Errorf("expected read inside batch to observe 10, got %d", inside)
	}
}

func TestBatchRoundTripIsNoOp(t *testing.T) {
	s := NewSignal(5)

	runs := 0
	e := CreateEffect(func() Cleanup {
		_ = s.Get()
		runs++
		return nil
	})
	defer e.Dispose()

	v := s.Version()

	Batch(func() {
		s.Set(99)
		s.Set(5)
	})

	if s.Version() != v {
		t.Errorf("round-trip batch bumped version from %d to %d", v, s.Version())
	}
	if runs != 1 {
		t.Errorf("round-trip batch ran dependents: %d runs", runs)
	}
}

func TestBatchSingleVersionBumpPerSignal(t *testing.T) {
	s := NewSignal(0)
	v := s.Version()

	Batch(func() {
		s.Set(1)
		s.Set(2)
		s.Set(3)
	})

	if s.Version() != v+1 {
		t.Errorf("expected one version bump for three writes, got %d", s.Version()-v)
	}
	if got := s.Get(); got != 3 {
		t.Errorf("expected final value 3, got %d", got)
	}
}

func TestNestedBatchesFlushOnce(t *testing.T) {
	x := NewSignal(0)
	y := NewSignal(0)

	runs := 0
	e := CreateEffect(func() Cleanup {
		_ = x.Get() + y.Get()
		runs++
		return nil
	})
	defer e.Dispose()

	Batch(func() {
		x.Set(1)
		Batch(func() {
			y.Set(2)
		})
		// Inner batch exit must not flush while the outer is open.
		if runs != 1 {
			t.Errorf("inner batch exit flushed early: %d runs", runs)
		}
		x.Set(3)
	})

	if runs != 2 {
		t.Errorf("expected one flush at outermost exit, got %d runs", runs)
	}
}

func TestBatchWithMemoAndEffect(t *testing.T) {
	x := NewSignal(1)
	y := NewSignal(2)

	computes := 0
	sum := NewMemo(func() int {
		computes++
		return x.Get() + y.Get()
	})

	var seen []int
	e := CreateEffect(func() Cleanup {
		seen = append(seen, sum.Get())
		return nil
	})
	defer e.Dispose()

	Batch(func() {
		x.Set(10)
		y.Set(20)
	})

	want := []int{3, 30}
	if len(seen) != len(want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("run %d: expected %d, got %d", i, want[i], seen[i])
		}
	}
	if computes != 2 {
		t.Errorf("expected 2 memo computes (initial + batched), got %d", computes)
	}
}

func TestBatchUpdateCollapses(t *testing.T) {
	s := NewSignal(10)

	runs := 0
	e := CreateEffect(func() Cleanup {
		_ = s.Get()
		runs++
		return nil
	})
	defer e.Dispose()

	Batch(func() {
		s.Update(func(n int) int { return n + 1 })
		s.Update(func(n int) int { return n + 1 })
	})

	if got := s.Get(); got != 12 {
		t.Errorf("expected 12, got %d", got)
	}
	if runs != 2 {
		t.Errorf("expected one flush for two updates, got %d runs", runs)
	}
}

func TestTxAliasesBatch(t *testing.T) {
	s := NewSignal(0)

	runs := 0
	e := CreateEffect(func() Cleanup {
		_ = s.Get()
		runs++
		return nil
	})
	defer e.Dispose()

	Tx(func() {
		s.Set(1)
		s.Set(2)
	})
	TxNamed("second", func() {
		s.Set(3)
	})

	if runs != 3 {
		t.Errorf("expected 3 runs (initial + two transactions), got %d", runs)
	}
	if got := s.Get(); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
}

func TestUntrackedGet(t *testing.T) {
	s := NewSignal(4)

	runs := 0
	e := CreateEffect(func() Cleanup {
		_ = UntrackedGet(s)
		runs++
		return nil
	})
	defer e.Dispose()

	s.Set(5)
	if runs != 1 {
		t.Errorf("UntrackedGet created a subscription: %d runs", runs)
	}
}
