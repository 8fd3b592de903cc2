package ripple

import (
	"testing"
)

func TestEffectRunsImmediately(t *testing.T) {
	s := NewSignal(7)

	var seen int
	e := CreateEffect(func() Cleanup {
		seen = s.Get()
		return nil
	})
	defer e.Dispose()

	if seen != 7 {
		t.Errorf("expected initial run to observe 7, got %d", seen)
	}
}

func TestEffectReRunsOnChange(t *testing.T) {
	s := NewSignal(0)

	var seen []int
	e := CreateEffect(func() Cleanup {
		seen = append(seen, s.Get())
		return nil
	})
	defer e.Dispose()

	s.Set(1)
	s.Set(2)

	want := []int{0, 1, 2}
	if len(seen) != len(want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("run %d: expected %d, got %d", i, want[i], seen[i])
		}
	}
}

func TestEffectCleanupRunsBeforeRerun(t *testing.T) {
	s := NewSignal(0)

	var order []string
	e := CreateEffect(func() Cleanup {
		v := s.Get()
		order = append(order, "run")
		return func() {
			order = append(order, "cleanup")
			_ = v
		}
	})

	s.Set(1)
	e.Dispose()

	want := []string{"run", "cleanup", "run", "cleanup"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("step %d: expected %q, got %q", i, want[i], order[i])
		}
	}
}

func TestEffectCleanupsRunInReverseOrder(t *testing.T) {
	s := NewSignal(0)

	var order []int
	e := CreateEffect(func() Cleanup {
		_ = s.Get()
		OnCleanup(func() { order = append(order, 1) })
		OnCleanup(func() { order = append(order, 2) })
		return func() { order = append(order, 3) }
	})

	e.Dispose()

	// Returned cleanup registers last, so it runs first.
	want := []int{3, 2, 1}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("step %d: expected %d, got %d", i, want[i], order[i])
		}
	}
}

func TestEffectDisposeStopsRuns(t *testing.T) {
	s := NewSignal(0)

	runs := 0
	e := CreateEffect(func() Cleanup {
		_ = s.Get()
		runs++
		return nil
	})

	e.Dispose()
	s.Set(1)

	if runs != 1 {
		t.Errorf("disposed effect re-ran: %d runs", runs)
	}
}

func TestEffectDisposeIsIdempotent(t *testing.T) {
	cleanups := 0
	e := CreateEffect(func() Cleanup {
		return func() { cleanups++ }
	})

	e.Dispose()
	e.Dispose()

	if cleanups != 1 {
		t.Errorf("expected 1 cleanup, got %d", cleanups)
	}
}

func TestEffectDynamicDependencies(t *testing.T) {
	useFirst := NewSignal(true)
	first := NewSignal("a")
	second := NewSignal("b")

	runs := 0
	e := CreateEffect(func() Cleanup {
		runs++
		if useFirst.Get() {
			_ = first.Get()
		} else {
			_ = second.Get()
		}
		return nil
	})
	defer e.Dispose()

	// Initially depends on useFirst and first only.
	second.Set("x")
	if runs != 1 {
		t.Errorf("write to untracked branch re-ran the effect: %d runs", runs)
	}

	useFirst.Set(false)
	if runs != 2 {
		t.Fatalf("expected branch switch to re-run the effect, got %d runs", runs)
	}

	// After the switch the dependency on first must be gone.
	first.Set("y")
	if runs != 2 {
		t.Errorf("write to dropped dependency re-ran the effect: %d runs", runs)
	}

	second.Set("z")
	if runs != 3 {
		t.Errorf("expected write to active branch to re-run, got %d runs", runs)
	}
}

func TestEffectName(t *testing.T) {
	e := CreateEffect(func() Cleanup { return nil }, EffectName("sync-loop"))
	defer e.Dispose()

	if e.Name() != "sync-loop" {
		t.Errorf("expected name %q, got %q", "sync-loop", e.Name())
	}
}

func TestOnMountRunsOnce(t *testing.T) {
	s := NewSignal(0)

	runs := 0
	OnMount(func() {
		_ = s.Get()
		runs++
	})

	s.Set(1)

	if runs != 1 {
		t.Errorf("OnMount re-ran on signal change: %d runs", runs)
	}
}

func TestOnUpdateSkipsFirstRun(t *testing.T) {
	s := NewSignal(0)

	calls := 0
	OnUpdate(
		func() { _ = s.Get() },
		func() { calls++ },
	)

	if calls != 0 {
		t.Errorf("OnUpdate callback fired on first run")
	}

	s.Set(1)
	if calls != 1 {
		t.Errorf("expected 1 callback after change, got %d", calls)
	}
}

func TestWatchReportsNewAndPrevious(t *testing.T) {
	s := NewSignal(1)

	type change struct{ value, prev int }
	var changes []change

	e := Watch(func() int {
		return s.Get() * 10
	}, func(value, prev int) {
		changes = append(changes, change{value, prev})
	})
	defer e.Dispose()

	if len(changes) != 0 {
		t.Errorf("Watch fired for the initial value: %v", changes)
	}

	s.Set(2)
	s.Set(5)

	want := []change{{20, 10}, {50, 20}}
	if len(changes) != len(want) {
		t.Fatalf("expected %v, got %v", want, changes)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("change %d: expected %+v, got %+v", i, want[i], changes[i])
		}
	}
}

func TestWatchIgnoresEqualDerivedValues(t *testing.T) {
	s := NewSignal(1)

	calls := 0
	e := Watch(func() int {
		return s.Get() % 2
	}, func(value, prev int) {
		calls++
	})
	defer e.Dispose()

	s.Set(3) // parity unchanged
	if calls != 0 {
		t.Errorf("Watch fired for an equal derived value")
	}

	s.Set(4)
	if calls != 1 {
		t.Errorf("expected 1 call after parity flip, got %d", calls)
	}
}
