package ripple

import (
	"sync"
	"sync/atomic"
)

// signalBase provides type-erased subscriber management, versioning, and
// graph position. It is embedded in Signal[T] and Memo[T] to share the
// dependency-edge bookkeeping.
type signalBase struct {
	id uint64

	// version increments on every committed change to the node's value.
	// Dependents record the version they observed; an unchanged version
	// means the dependent can skip recomputation even when marked dirty.
	version atomic.Uint64

	// height is this node's position in the dependency graph: signals sit
	// at 0, memos at 1 + max(source heights). Effects scheduled from this
	// node run after every lower node has settled.
	height atomic.Int64

	// subs are the listeners subscribed to this node.
	subs []Listener

	// subMu protects the subs slice.
	subMu sync.RWMutex
}

// subscribe adds a listener to this node's subscribers.
// Deduplicates by listener ID to prevent double-subscription.
func (s *signalBase) subscribe(l Listener) {
	if l == nil {
		return
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()

	lid := l.ID()
	for _, existing := range s.subs {
		if existing.ID() == lid {
			return
		}
	}

	s.subs = append(s.subs, l)
}

// unsubscribe removes a listener from this node's subscribers.
func (s *signalBase) unsubscribe(l Listener) {
	if l == nil {
		return
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()

	lid := l.ID()
	for i, existing := range s.subs {
		if existing.ID() == lid {
			// Remove by swapping with last element (order doesn't matter)
			s.subs[i] = s.subs[len(s.subs)-1]
			s.subs = s.subs[:len(s.subs)-1]
			return
		}
	}
}

// notifySubscribers marks every subscriber dirty. Memos cascade the mark to
// their own subscribers; effects land on the current goroutine's pass
// queue. Uses copy-before-notify to avoid holding locks during callbacks.
func (s *signalBase) notifySubscribers() {
	s.subMu.RLock()
	subs := make([]Listener, len(s.subs))
	copy(subs, s.subs)
	s.subMu.RUnlock()

	for _, sub := range subs {
		sub.MarkDirty()
	}
}

// commit records a committed change: one version bump, then the dirty
// cascade.
func (s *signalBase) commit() {
	s.version.Add(1)
	s.notifySubscribers()
}

// track registers the edge between this node and the currently-running
// computation, if any. refresh is passed through to the tracker: nil for
// signals (their versions advance at write time), a pull function for memos.
func (s *signalBase) track(refresh func()) {
	listener := getCurrentListener()
	if listener == nil {
		return
	}
	s.subscribe(listener)
	if st, ok := listener.(sourceTracker); ok {
		st.addSource(s, refresh)
	}
}

// getID returns the unique identifier for this node.
func (s *signalBase) getID() uint64 {
	return s.id
}

// Signal is a reactive value container.
// Reading a Signal's value during a tracked context (memo computation or
// effect execution) automatically subscribes the current listener to
// receive notifications when the value changes.
type Signal[T any] struct {
	base signalBase

	// value is the current signal value.
	value T

	// mu protects the value.
	mu sync.RWMutex

	// equal is the equality function used to determine if the value
	// changed. If nil, uses defaultEquals.
	equal func(T, T) bool

	// owner is the scope that created this signal, used for stale-read
	// detection in strict mode. nil when created outside any scope.
	owner *Owner
}

// NewSignal creates a new signal with the given initial value.
// The signal is owned by the current owner, if any; creating a signal under
// a disposed owner panics with ErrScopeDisposed.
func NewSignal[T any](initial T) *Signal[T] {
	owner := getCurrentOwner()
	if owner != nil && owner.IsDisposed() {
		panic(ErrScopeDisposed)
	}

	return &Signal[T]{
		base: signalBase{
			id: nextID(),
		},
		value: initial,
		owner: owner,
	}
}

// Get returns the current value and subscribes the current listener.
// If called during a tracked context (memo computation or effect execution),
// the current listener will be notified when this signal's value changes.
func (s *Signal[T]) Get() T {
	if StrictReads && s.owner != nil && s.owner.IsDisposed() {
		panic(ErrStaleRead)
	}

	s.mu.RLock()
	value := s.value
	s.mu.RUnlock()

	// Track after releasing the value lock to prevent deadlock.
	s.base.track(nil)

	return value
}

// Peek returns the current value without subscribing.
// Use it when a computation must read a value but not react to its changes.
func (s *Signal[T]) Peek() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set updates the signal's value and propagates to dependents if the value
// changed per the configured equality predicate. Outside a batch the write
// opens an implicit one-write transaction: dependents are marked and
// affected effects run before Set returns. Inside a batch the value is
// applied immediately (reads within the batch observe it) but the commit,
// the version bump and propagation, is staged until the outermost batch
// exits.
func (s *Signal[T]) Set(value T) {
	tc := getTrackingContext()

	if tc.batchDepth > 0 {
		s.setStaged(tc, value)
		return
	}

	s.mu.Lock()
	changed := !s.equals(s.value, value)
	if changed {
		s.value = value
	}
	s.mu.Unlock()

	emitSignalWrite(s.base.id, !changed)

	if changed {
		s.base.commit()
		flushCurrent(tc)
	}
}

// Update atomically reads and updates the signal's value.
// The function receives the current value and returns the new value.
func (s *Signal[T]) Update(fn func(T) T) {
	tc := getTrackingContext()

	if tc.batchDepth > 0 {
		s.mu.Lock()
		s.stageLocked(tc)
		s.value = fn(s.value)
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	oldValue := s.value
	newValue := fn(oldValue)
	changed := !s.equals(oldValue, newValue)
	if changed {
		s.value = newValue
	}
	s.mu.Unlock()

	emitSignalWrite(s.base.id, !changed)

	if changed {
		s.base.commit()
		flushCurrent(tc)
	}
}

// setStaged applies a write inside an open batch.
func (s *Signal[T]) setStaged(tc *TrackingContext, value T) {
	s.mu.Lock()
	s.stageLocked(tc)
	s.value = value
	s.mu.Unlock()
}

// stageLocked records the pre-batch baseline once per batch. The commit
// closure compares the final value against that baseline, so any number of
// writes inside the batch collapse to at most one version bump.
// Caller holds s.mu.
func (s *Signal[T]) stageLocked(tc *TrackingContext) {
	baseline := s.value
	tc.stageWrite(s.base.id, func() {
		s.commitStaged(baseline)
	})
}

// commitStaged finishes a batched write: if the final value differs from
// the pre-batch baseline, commit one version bump and notify; otherwise the
// whole batch was a no-op for this signal.
func (s *Signal[T]) commitStaged(baseline T) {
	s.mu.RLock()
	final := s.value
	s.mu.RUnlock()

	changed := !s.equals(baseline, final)
	emitSignalWrite(s.base.id, !changed)
	if changed {
		s.base.commit()
	}
}

// WithEquals returns the signal configured with a custom equality function.
// Useful for types where reflect.DeepEqual is too expensive or has the
// wrong semantics.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.equal = fn
	return s
}

// ID returns the unique identifier for this signal.
func (s *Signal[T]) ID() uint64 {
	return s.base.id
}

// Version returns the signal's commit version. The version increments
// exactly once per committed change; no-op writes leave it untouched.
func (s *Signal[T]) Version() uint64 {
	return s.base.version.Load()
}

// equals checks two values with the configured equality function.
func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return defaultEquals(a, b)
}
