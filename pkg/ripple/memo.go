package ripple

import (
	"sync"
	"sync/atomic"
)

// sourceRecord is one edge of a computation's dependency set: the source
// node plus the version observed when the edge was created. An unchanged
// version later means the source did not commit a new value in between.
// refresh is non-nil for lazy sources and must be called before the version
// comparison, so a dirty-but-unread memo gets pulled current first.
type sourceRecord struct {
	base    *signalBase
	version uint64
	refresh func()
}

// Memo is a cached computation that automatically tracks its dependencies.
// When any dependency changes, the memo is invalidated and recomputes on
// the next read.
//
// Memos are lazy: the computation does not run until Get() is called, and
// an invalidated memo whose recorded source versions are all unchanged
// revalidates without recomputing. The dependency set is rebuilt from
// scratch on every run, so a memo whose control flow stops reading a source
// stops reacting to it.
//
// Memos can be subscribed to like signals, enabling chains of derived
// values. A memo's version only advances when the recomputed value differs
// per its equality predicate, which stops no-op cascades downstream.
type Memo[T any] struct {
	base signalBase

	// compute is the function that computes the memo's value.
	compute func() T

	// value is the cached computed value; hasValue records whether any
	// run has succeeded yet.
	value    T
	hasValue atomic.Bool

	// valueMu protects value access.
	valueMu sync.RWMutex

	// valid indicates whether the cached value is current.
	// When false, the next Get() revalidates or recomputes.
	valid atomic.Bool

	// sources is the dependency set captured by the last run.
	sources   []sourceRecord
	sourcesMu sync.Mutex

	// equal is the equality function for determining value changes.
	equal func(T, T) bool

	// computing guards against re-entrant evaluation (cycles).
	computing atomic.Bool

	// disposed memos stop tracking and recomputing; reads return the last
	// cached value.
	disposed atomic.Bool
}

// NewMemo creates a new memo with the given computation function.
// The computation is not run immediately; it runs lazily on first Get().
// The memo is owned by the current owner, if any, and is disposed with it;
// creating a memo under a disposed owner panics with ErrScopeDisposed.
func NewMemo[T any](compute func() T) *Memo[T] {
	owner := getCurrentOwner()
	if owner != nil && owner.IsDisposed() {
		panic(ErrScopeDisposed)
	}

	m := &Memo[T]{
		base: signalBase{
			id: nextID(),
		},
		compute: compute,
	}

	if owner != nil {
		owner.register(m)
	}

	return m
}

// Get returns the memo's value, recomputing if necessary.
// Creates a dependency on this memo for the current listener.
// A cyclic read (this memo read again during its own computation) panics
// with ErrCyclicDependency.
func (m *Memo[T]) Get() T {
	if m.computing.Load() {
		panic(cycleError("memo", m.base.id))
	}

	if !m.disposed.Load() {
		// Refresh before recording the edge: the dependent must observe
		// the post-recompute version, or its next revalidation sees a
		// spurious change.
		m.refreshIfNeeded()
		m.base.track(m.refreshIfNeeded)
	}

	m.valueMu.RLock()
	value := m.value
	m.valueMu.RUnlock()
	return value
}

// Peek returns the memo's value without subscribing.
// Still recomputes if the cached value is stale.
func (m *Memo[T]) Peek() T {
	if m.computing.Load() {
		panic(cycleError("memo", m.base.id))
	}

	if !m.disposed.Load() {
		m.refreshIfNeeded()
	}

	m.valueMu.RLock()
	value := m.value
	m.valueMu.RUnlock()
	return value
}

// refreshIfNeeded brings the cached value current: a dirty memo whose
// sources are all at their recorded versions flips back to clean for free,
// anything else recomputes.
func (m *Memo[T]) refreshIfNeeded() {
	if m.valid.Load() {
		return
	}
	if m.hasValue.Load() && m.sourcesUnchanged() {
		m.valid.Store(true)
		return
	}
	m.recompute()
}

// sourcesUnchanged reports whether every source still carries the version
// recorded when the dependency set was built. Lazy sources are pulled
// current first; a dirty upstream memo may revalidate or recompute here.
func (m *Memo[T]) sourcesUnchanged() bool {
	m.sourcesMu.Lock()
	sources := make([]sourceRecord, len(m.sources))
	copy(sources, m.sources)
	m.sourcesMu.Unlock()

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

// MarkDirty invalidates the memo and cascades to subscribers.
// Implements the Listener interface.
func (m *Memo[T]) MarkDirty() {
	if m.disposed.Load() {
		return
	}

	// CAS keeps the cascade idempotent: subscribers are notified once per
	// invalidation, not once per upstream write.
	if m.valid.CompareAndSwap(true, false) {
		m.base.notifySubscribers()
		if EagerMemos {
			getTrackingContext().enqueue(m)
		}
	}
}

// ID returns the unique identifier for this memo.
// Implements the Listener interface.
func (m *Memo[T]) ID() uint64 {
	return m.base.id
}

// Version returns the memo's commit version; it advances only when a
// recomputation produced a different value.
func (m *Memo[T]) Version() uint64 {
	return m.base.version.Load()
}

// addSource records a dependency edge with the source's current version.
// Implements the sourceTracker interface.
func (m *Memo[T]) addSource(src *signalBase, refresh func()) {
	m.sourcesMu.Lock()
	defer m.sourcesMu.Unlock()

	for _, rec := range m.sources {
		if rec.base == src {
			return
		}
	}
	m.sources = append(m.sources, sourceRecord{base: src, version: src.version.Load(), refresh: refresh})

	if h := src.height.Load() + 1; h > m.base.height.Load() {
		m.base.height.Store(h)
	}
}

// WithEquals configures the memo with a custom equality function.
func (m *Memo[T]) WithEquals(fn func(T, T) bool) *Memo[T] {
	m.equal = fn
	return m
}

// graphHeight implements scheduled for eager memo refresh.
func (m *Memo[T]) graphHeight() int {
	return int(m.base.height.Load())
}

// runScheduled refreshes the memo during an eager-mode pass.
// Implements the scheduled interface.
func (m *Memo[T]) runScheduled() {
	if m.disposed.Load() {
		return
	}
	m.refreshIfNeeded()
}

// abandonScheduled implements the scheduled interface. The memo stays
// invalid and recovers lazily on the next read.
func (m *Memo[T]) abandonScheduled() {}

// recompute runs the computation and updates the cached value.
func (m *Memo[T]) recompute() {
	if m.computing.Swap(true) {
		panic(cycleError("memo", m.base.id))
	}
	defer m.computing.Store(false)

	// Discard the previous dependency set; the run rebuilds it from the
	// reads it actually performs. Stale conditional edges drop here.
	m.clearSources()
	m.base.height.Store(0)

	old := setCurrentListener(m)
	defer setCurrentListener(old)

	// A panic in compute leaves valid false, so the next read retries
	// instead of serving a poisoned cache.
	newValue := m.compute()

	emitMemoRecompute(m.base.id)

	m.valueMu.Lock()
	changed := !m.hasValue.Load() || !m.equals(m.value, newValue)
	m.value = newValue
	m.valueMu.Unlock()
	m.hasValue.Store(true)

	if changed {
		m.base.version.Add(1)
	}
	m.valid.Store(true)
}

// clearSources unsubscribes from and forgets every recorded source.
func (m *Memo[T]) clearSources() {
	m.sourcesMu.Lock()
	sources := m.sources
	m.sources = nil
	m.sourcesMu.Unlock()

	for _, rec := range sources {
		rec.base.unsubscribe(m)
	}
}

// dispose removes the memo from the graph. Called by the owning scope.
func (m *Memo[T]) dispose() {
	if m.disposed.Swap(true) {
		return
	}

	m.clearSources()

	m.base.subMu.Lock()
	m.base.subs = nil
	m.base.subMu.Unlock()
}

// equals checks two values with the configured equality function.
func (m *Memo[T]) equals(a, b T) bool {
	if m.equal != nil {
		return m.equal(a, b)
	}
	return defaultEquals(a, b)
}

// Ensure Memo implements the tracking interfaces.
var (
	_ sourceTracker = (*Memo[int])(nil)
	_ scheduled     = (*Memo[int])(nil)
)
