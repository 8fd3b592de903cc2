package ripple

import (
	"errors"
	"testing"
)

func TestDiamondPropagationIsGlitchFree(t *testing.T) {
	//         a
	//        / \
	//    left   right
	//        \ /
	//       effect
	a := NewSignal(1)
	left := NewMemo(func() int { return a.Get() + 1 })
	right := NewMemo(func() int { return a.Get() * 2 })

	runs := 0
	inconsistent := 0
	e := CreateEffect(func() Cleanup {
		l := left.Get()
		r := right.Get()
		// Both branches must reflect the same value of a.
		if (l-1)*2 != r {
			inconsistent++
		}
		runs++
		return nil
	})
	defer e.Dispose()

	a.Set(5)
	a.Set(9)

	if inconsistent != 0 {
		t.Errorf("observed %d inconsistent (glitched) states", inconsistent)
	}
	if runs != 3 {
		t.Errorf("expected 3 runs (initial + one per write), got %d", runs)
	}
}

func TestDiamondWithSiblingMemosRunsEffectOnce(t *testing.T) {
	a := NewSignal(1)

	bComputes := 0
	b := NewMemo(func() int {
		bComputes++
		return a.Get() * 2
	})

	cComputes := 0
	c := NewMemo(func() int {
		cComputes++
		return a.Get() * 3
	})

	runs := 0
	var lastSum int
	e := CreateEffect(func() Cleanup {
		lastSum = b.Get() + c.Get()
		runs++
		return nil
	})
	defer e.Dispose()

	a.Set(2)

	if lastSum != 10 {
		t.Errorf("expected sum 10, got %d", lastSum)
	}
	if runs != 2 {
		t.Errorf("expected 2 effect runs, got %d", runs)
	}
	if bComputes != 2 || cComputes != 2 {
		t.Errorf("expected each memo to compute twice, got b=%d c=%d", bComputes, cComputes)
	}
}

func TestDeepChainObservesConsistentValue(t *testing.T) {
	s := NewSignal(1)
	m1 := NewMemo(func() int { return s.Get() + 1 })
	m2 := NewMemo(func() int { return m1.Get() + 1 })
	m3 := NewMemo(func() int { return m2.Get() + 1 })

	var seen []int
	e := CreateEffect(func() Cleanup {
		seen = append(seen, m3.Get())
		return nil
	})
	defer e.Dispose()

	s.Set(10)

	want := []int{4, 13}
	if len(seen) != len(want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("run %d: expected %d, got %d", i, want[i], seen[i])
		}
	}
}

func TestReentrantWriteRunsAsFollowUpPass(t *testing.T) {
	celsius := NewSignal(0)
	fahrenheit := NewSignal(32)

	e1 := CreateEffect(func() Cleanup {
		fahrenheit.Set(celsius.Get()*9/5 + 32)
		return nil
	})
	defer e1.Dispose()

	var seen []int
	e2 := CreateEffect(func() Cleanup {
		seen = append(seen, fahrenheit.Get())
		return nil
	})
	defer e2.Dispose()

	celsius.Set(100)

	// The write inside e1 lands in a follow-up pass; by the time Set
	// returns, e2 has observed the final converted value.
	if got := fahrenheit.Get(); got != 212 {
		t.Errorf("expected 212, got %d", got)
	}
	if len(seen) == 0 || seen[len(seen)-1] != 212 {
		t.Errorf("expected dependent effect to observe 212, got %v", seen)
	}
}

func TestPassBudgetStopsFeedbackLoop(t *testing.T) {
	oldBudget := MaxPassesPerFlush
	MaxPassesPerFlush = 10
	defer func() { MaxPassesPerFlush = oldBudget }()

	var reported error
	OnPassError = func(err error) { reported = err }
	defer func() { OnPassError = nil }()

	ping := NewSignal(0)
	pong := NewSignal(0)

	var e1, e2 *Effect

	// The batch stages the initial writes so the feedback loop starts from
	// a top-level flush rather than inside an effect body.
	Batch(func() {
		e1 = CreateEffect(func() Cleanup {
			pong.Set(ping.Get() + 1)
			return nil
		})
		e2 = CreateEffect(func() Cleanup {
			ping.Set(pong.Get() + 1)
			return nil
		})
	})
	defer e1.Dispose()
	defer e2.Dispose()

	if reported == nil {
		t.Fatal("expected the pass budget to trip on a feedback loop")
	}
	if !errors.Is(reported, ErrBudgetExceeded) {
		t.Errorf("expected ErrBudgetExceeded, got %v", reported)
	}

	var perr *PassError
	if !errors.As(reported, &perr) {
		t.Fatalf("expected *PassError, got %T", reported)
	}
	if perr.Passes != 10 {
		t.Errorf("expected 10 passes before tripping, got %d", perr.Passes)
	}
}

func TestEffectsRespondAfterBudgetTrip(t *testing.T) {
	oldBudget := MaxPassesPerFlush
	MaxPassesPerFlush = 10
	defer func() { MaxPassesPerFlush = oldBudget }()

	var reported error
	OnPassError = func(err error) { reported = err }
	defer func() { OnPassError = nil }()

	ping := NewSignal(0)
	pong := NewSignal(0)

	feedback := true
	pingRuns := 0
	pongRuns := 0

	var e1, e2 *Effect
	Batch(func() {
		e1 = CreateEffect(func() Cleanup {
			v := ping.Get()
			pingRuns++
			if feedback {
				pong.Set(v + 1)
			}
			return nil
		})
		e2 = CreateEffect(func() Cleanup {
			v := pong.Get()
			pongRuns++
			if feedback {
				ping.Set(v + 1)
			}
			return nil
		})
	})
	defer e1.Dispose()
	defer e2.Dispose()

	if !errors.Is(reported, ErrBudgetExceeded) {
		t.Fatalf("expected ErrBudgetExceeded, got %v", reported)
	}

	// One of the two effects was still queued when the budget tripped. Both
	// must remain responsive to later writes.
	feedback = false
	before1, before2 := pingRuns, pongRuns

	ping.Set(1000)
	if pingRuns != before1+1 {
		t.Errorf("expected ping effect to run once after the trip, got %d extra runs", pingRuns-before1)
	}

	pong.Set(2000)
	if pongRuns != before2+1 {
		t.Errorf("expected pong effect to run once after the trip, got %d extra runs", pongRuns-before2)
	}
}

func TestEffectPanicIsIsolated(t *testing.T) {
	var reported error
	OnPassError = func(err error) { reported = err }
	defer func() { OnPassError = nil }()

	s := NewSignal(0)
	boom := errors.New("boom")

	eBad := CreateEffect(func() Cleanup {
		if s.Get() > 0 {
			panic(boom)
		}
		return nil
	})
	defer eBad.Dispose()

	var seen int
	eGood := CreateEffect(func() Cleanup {
		seen = s.Get()
		return nil
	})
	defer eGood.Dispose()

	s.Set(5)

	// The healthy effect still observed the write.
	if seen != 5 {
		t.Errorf("expected unaffected effect to observe 5, got %d", seen)
	}

	if reported == nil {
		t.Fatal("expected the failing effect's panic to be reported")
	}
	if !errors.Is(reported, boom) {
		t.Errorf("expected reported error to wrap the panic value, got %v", reported)
	}
}

func TestFlushPanicsWithoutErrorHandler(t *testing.T) {
	s := NewSignal(0)

	e := CreateEffect(func() Cleanup {
		if s.Get() > 0 {
			panic(errors.New("unhandled"))
		}
		return nil
	})
	defer e.Dispose()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected Set to panic with the aggregated pass error")
		}
		perr, ok := r.(*PassError)
		if !ok {
			t.Fatalf("expected *PassError, got %T", r)
		}
		if len(perr.Errs) != 1 {
			t.Errorf("expected 1 collected error, got %d", len(perr.Errs))
		}
	}()
	s.Set(1)
}

func TestEagerMemosRefreshDuringPropagation(t *testing.T) {
	EagerMemos = true
	defer func() { EagerMemos = false }()

	s := NewSignal(1)

	computes := 0
	m := NewMemo(func() int {
		computes++
		return s.Get() * 2
	})

	m.Get()
	if computes != 1 {
		t.Fatalf("expected 1 compute after first read, got %d", computes)
	}

	// In eager mode the write itself refreshes the memo.
	s.Set(5)
	if computes != 2 {
		t.Errorf("expected eager recompute on write, got %d computes", computes)
	}
	if got := m.Peek(); got != 10 {
		t.Errorf("expected 10, got %d", got)
	}
}

func TestHeightQueueDrainsAscending(t *testing.T) {
	q := newHeightQueue()

	var order []int
	mk := func(h int) scheduled {
		return &fakeScheduled{height: h, run: func() { order = append(order, h) }}
	}

	q.insert(mk(3))
	q.insert(mk(0))
	q.insert(mk(5))
	q.insert(mk(0))
	q.insert(mk(2))

	q.drain(func(s scheduled) { s.runScheduled() })

	want := []int{0, 0, 2, 3, 5}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("position %d: expected height %d, got %d", i, want[i], order[i])
		}
	}
	if !q.empty() {
		t.Error("expected queue to be empty after drain")
	}
}

type fakeScheduled struct {
	height int
	run    func()
}

func (f *fakeScheduled) graphHeight() int  { return f.height }
func (f *fakeScheduled) runScheduled()     { f.run() }
func (f *fakeScheduled) abandonScheduled() {}
