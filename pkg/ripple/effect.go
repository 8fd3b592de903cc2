package ripple

import (
	"sync"
	"sync/atomic"
)

// Effect is a reactive side effect that re-runs when its dependencies
// change. Effects run immediately when created to establish their initial
// dependency set, and re-run whenever any signal or memo they read during
// execution commits a change. The function may return a Cleanup that runs
// before the next re-run and on disposal.
type Effect struct {
	id uint64

	// fn is the effect function to run.
	fn func() Cleanup

	// cleanups holds the cleanup returned by the last run plus anything
	// registered through OnCleanup during the run. Run in reverse order.
	cleanups   []Cleanup
	cleanupsMu sync.Mutex

	// sources are the signals/memos this effect read on its last run.
	sources   []sourceRecord
	sourcesMu sync.Mutex

	// height orders this effect within a propagation pass: strictly after
	// every memo it depends on.
	height atomic.Int64

	// owner is the scope that owns this effect.
	owner *Owner

	// pending indicates the effect is on a pass queue awaiting a re-run.
	pending atomic.Bool

	// running guards against re-entrant execution (an effect reading a
	// memo that writes back into the effect's own dependencies).
	running atomic.Bool

	// disposed indicates the effect has been disposed.
	disposed atomic.Bool

	// name is an optional label for diagnostics and inspector output.
	name string
}

// EffectOption configures an Effect at creation.
type EffectOption interface {
	applyEffect(e *Effect)
}

type effectOptionFunc func(*Effect)

func (f effectOptionFunc) applyEffect(e *Effect) { f(e) }

// EffectName labels the effect for debug logging and inspector output.
func EffectName(name string) EffectOption {
	return effectOptionFunc(func(e *Effect) {
		e.name = name
	})
}

// CreateEffect creates and immediately runs a new effect within the current
// owner scope. The effect re-runs when any signal or memo it reads changes;
// the Cleanup it returns (if any) runs before each re-run and once on
// disposal. Creating an effect under a disposed owner panics with
// ErrScopeDisposed.
//
// Example:
//
//	CreateEffect(func() Cleanup {
//	    fmt.Println("Count is:", count.Get())
//	    return func() { fmt.Println("Cleanup") }
//	})
func CreateEffect(fn func() Cleanup, opts ...EffectOption) *Effect {
	owner := getCurrentOwner()
	if owner != nil && owner.IsDisposed() {
		panic(ErrScopeDisposed)
	}

	e := &Effect{
		id:    nextID(),
		fn:    fn,
		owner: owner,
	}

	for _, opt := range opts {
		opt.applyEffect(e)
	}

	if owner != nil {
		owner.register(e)
	}

	emitEffectCreated(e.id, e.name)

	// Initial synchronous run establishes the dependency set.
	e.run()

	return e
}

// MarkDirty schedules the effect onto the current propagation pass.
// Implements the Listener interface.
func (e *Effect) MarkDirty() {
	if e.disposed.Load() {
		return
	}

	// CAS ensures one queue entry per invalidation.
	if e.pending.CompareAndSwap(false, true) {
		getTrackingContext().enqueue(e)
	}
}

// ID returns the unique identifier for this effect.
// Implements the Listener interface.
func (e *Effect) ID() uint64 {
	return e.id
}

// Name returns the diagnostic label set via EffectName, if any.
func (e *Effect) Name() string {
	return e.name
}

// graphHeight implements the scheduled interface.
func (e *Effect) graphHeight() int {
	return int(e.height.Load())
}

// runScheduled re-runs the effect if it is still pending when the pass
// reaches it. A pending effect whose sources all revalidate to their
// recorded versions (a dirty memo upstream recomputed to an equal value)
// clears its flag and skips the run. Implements the scheduled interface.
func (e *Effect) runScheduled() {
	if !e.pending.Load() {
		return
	}
	if e.sourcesUnchanged() {
		e.pending.Store(false)
		return
	}
	e.run()
}

// abandonScheduled clears the pending flag when the scheduler discards the
// effect without running it, so later writes can enqueue it again.
// Implements the scheduled interface.
func (e *Effect) abandonScheduled() {
	e.pending.Store(false)
}

// sourcesUnchanged pulls lazy sources current and reports whether every
// source still carries the version recorded during the last run.
func (e *Effect) sourcesUnchanged() bool {
	e.sourcesMu.Lock()
	sources := make([]sourceRecord, len(e.sources))
	copy(sources, e.sources)
	e.sourcesMu.Unlock()

	for _, rec := range sources {
		if rec.refresh != nil {
			rec.refresh()
		}
		if rec.base.version.Load() != rec.version {
			return false
		}
	}
	return true
}

// run executes the effect function: prior cleanups first, then a fresh
// tracked run that rebuilds the dependency set from scratch.
func (e *Effect) run() {
	if e.disposed.Load() {
		return
	}
	if e.running.Swap(true) {
		panic(cycleError("effect", e.id))
	}
	defer e.running.Store(false)

	e.pending.Store(false)

	e.runCleanups()
	e.clearSources()
	e.height.Store(0)

	if Debug.LogEffectRuns {
		println("ripple: effect run", e.id, e.name)
	}
	emitEffectRun(e.id, e.name)

	oldListener := setCurrentListener(e)
	oldEffect := setCurrentEffect(e)
	defer func() {
		setCurrentEffect(oldEffect)
		setCurrentListener(oldListener)
	}()

	cleanup := e.fn()
	if cleanup != nil {
		e.addCleanup(cleanup)
	}
}

// addCleanup appends a cleanup to run before the next re-run or disposal.
func (e *Effect) addCleanup(fn Cleanup) {
	e.cleanupsMu.Lock()
	e.cleanups = append(e.cleanups, fn)
	e.cleanupsMu.Unlock()
}

// runCleanups runs and clears the accumulated cleanups in reverse order.
func (e *Effect) runCleanups() {
	e.cleanupsMu.Lock()
	cleanups := e.cleanups
	e.cleanups = nil
	e.cleanupsMu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

// addSource records a dependency edge.
// Implements the sourceTracker interface.
func (e *Effect) addSource(src *signalBase, refresh func()) {
	e.sourcesMu.Lock()
	defer e.sourcesMu.Unlock()

	for _, rec := range e.sources {
		if rec.base == src {
			return
		}
	}
	e.sources = append(e.sources, sourceRecord{base: src, version: src.version.Load(), refresh: refresh})

	if h := src.height.Load() + 1; h > e.height.Load() {
		e.height.Store(h)
	}
}

// clearSources unsubscribes from and forgets every recorded source.
func (e *Effect) clearSources() {
	e.sourcesMu.Lock()
	sources := e.sources
	e.sources = nil
	e.sourcesMu.Unlock()

	for _, rec := range sources {
		rec.base.unsubscribe(e)
	}
}

// Dispose runs the latest cleanup exactly once and removes the effect from
// the graph and its owning scope. After disposal the effect never runs
// again, even if stale subscriber entries still reach it.
func (e *Effect) Dispose() {
	e.dispose()
	if e.owner != nil {
		e.owner.unregister(e)
	}
}

// dispose tears the effect down without touching the owner registry; the
// owner calls this directly during scope disposal.
func (e *Effect) dispose() {
	if e.disposed.Swap(true) {
		return
	}

	e.runCleanups()
	e.clearSources()

	emitEffectDisposed(e.id, e.name)
}

// OnCleanup registers fn to run when the currently-running effect next
// re-runs or is disposed. Outside an effect body it attaches to the current
// owner and runs at scope disposal. A no-op when neither is present.
func OnCleanup(fn Cleanup) {
	tc := getTrackingContext()
	if tc.currentEffect != nil {
		tc.currentEffect.addCleanup(fn)
		return
	}
	if tc.currentOwner != nil {
		tc.currentOwner.OnCleanup(fn)
	}
}

// OnMount creates an effect that runs only once.
// Equivalent to CreateEffect with no reactive dependencies.
func OnMount(fn func()) {
	CreateEffect(func() Cleanup {
		Untracked(fn)
		return nil
	})
}

// OnUpdate creates an effect that skips the callback on the first run.
// The deps function establishes dependencies; the callback fires only on
// subsequent runs when those dependencies change.
//
//	OnUpdate(
//	    func() { _ = count.Get() },           // deps: read signals to track
//	    func() { fmt.Println("Updated!") },   // callback: only on changes
//	)
func OnUpdate(deps func(), callback func()) {
	first := true
	CreateEffect(func() Cleanup {
		deps()
		if first {
			first = false
			return nil
		}
		callback()
		return nil
	})
}

// Watch observes a derived value and invokes callback with the new and
// previous values whenever it changes per defaultEquals. The callback is
// not invoked for the initial value.
func Watch[T any](source func() T, callback func(value T, prev T)) *Effect {
	var prev T
	first := true
	return CreateEffect(func() Cleanup {
		value := source()
		if first {
			first = false
			prev = value
			return nil
		}
		if !defaultEquals(prev, value) {
			old := prev
			prev = value
			Untracked(func() { callback(value, old) })
		}
		return nil
	})
}

// Ensure Effect implements the tracking interfaces.
var (
	_ sourceTracker = (*Effect)(nil)
	_ scheduled     = (*Effect)(nil)
)
