package ripple

import (
	"sync"

	"github.com/petermattis/goid"
)

// TrackingContext holds the reactive state for a goroutine: the observer
// stack, batch state, and the pass queues of an in-flight flush. Keeping it
// per-goroutine (rather than process-global) means independent engine users
// on different goroutines never interfere; each write propagates on the
// goroutine that performed it.
type TrackingContext struct {
	// currentOwner is the Owner that will own newly created signals,
	// memos, and effects.
	currentOwner *Owner

	// currentListener is what's currently tracking dependencies.
	// When a signal is read, it subscribes this listener.
	// nil means no tracking (reads don't create subscriptions).
	currentListener Listener

	// currentEffect is the effect whose body is currently executing, if
	// any. Used by OnCleanup to attach cleanups to the running effect.
	currentEffect *Effect

	// batchDepth tracks nested Batch() calls.
	// When > 0, signal writes stage their commit instead of propagating.
	batchDepth int

	// staged holds one commit record per signal written during the open
	// batch, in first-write order. stagedIDs deduplicates by signal ID so
	// repeated writes collapse onto the first record.
	staged    []func()
	stagedIDs map[uint64]struct{}

	// queue accumulates the effects (and, in eager mode, memos) dirtied
	// by the current transaction. While a flush is running, new entries
	// land here and form the next pass.
	queue *heightQueue

	// flushing is true while a propagation pass loop is draining queues
	// on this goroutine. Writes made during that window enqueue only;
	// the active loop picks them up as a follow-up pass.
	flushing bool

	// passErrs collects isolated effect failures across the passes of the
	// current flush.
	passErrs []error
}

// trackingContexts stores per-goroutine tracking contexts.
// Using sync.Map for concurrent access from multiple goroutines.
var trackingContexts sync.Map

// getTrackingContext returns the tracking context for the current goroutine,
// creating one on first use.
func getTrackingContext() *TrackingContext {
	gid := goid.Get()

	if ctx, ok := trackingContexts.Load(gid); ok {
		return ctx.(*TrackingContext)
	}

	ctx := &TrackingContext{queue: newHeightQueue()}
	trackingContexts.Store(gid, ctx)
	return ctx
}

// getCurrentListener returns the current listener being tracked.
// Returns nil if no tracking is active.
func getCurrentListener() Listener {
	return getTrackingContext().currentListener
}

// setCurrentListener sets the current listener for dependency tracking.
// Returns the previous listener so it can be restored.
func setCurrentListener(l Listener) Listener {
	ctx := getTrackingContext()
	old := ctx.currentListener
	ctx.currentListener = l
	return old
}

// getCurrentOwner returns the current owner for the goroutine.
// Returns nil if no owner context is set.
func getCurrentOwner() *Owner {
	return getTrackingContext().currentOwner
}

// setCurrentOwner sets the current owner for signal/memo/effect creation.
// Returns the previous owner so it can be restored.
func setCurrentOwner(o *Owner) *Owner {
	ctx := getTrackingContext()
	old := ctx.currentOwner
	ctx.currentOwner = o
	return old
}

// setCurrentEffect marks the effect whose body is running on this goroutine.
// Returns the previous value so nested runs restore correctly.
func setCurrentEffect(e *Effect) *Effect {
	ctx := getTrackingContext()
	old := ctx.currentEffect
	ctx.currentEffect = e
	return old
}

// stageWrite records a batch commit for the given signal ID. Returns false
// if the signal already has a staged commit in the open batch (so the
// caller must not record a second baseline).
func (tc *TrackingContext) stageWrite(id uint64, commit func()) bool {
	if tc.stagedIDs == nil {
		tc.stagedIDs = make(map[uint64]struct{})
	}
	if _, ok := tc.stagedIDs[id]; ok {
		return false
	}
	tc.stagedIDs[id] = struct{}{}
	tc.staged = append(tc.staged, commit)
	return true
}

// drainStaged returns and clears the staged commit records.
func (tc *TrackingContext) drainStaged() []func() {
	staged := tc.staged
	tc.staged = nil
	tc.stagedIDs = nil
	return staged
}

// enqueue places a dirtied node on the goroutine's pass queue.
func (tc *TrackingContext) enqueue(s scheduled) {
	tc.queue.insert(s)
}

// WithOwner runs fn with the specified owner as the current owner. Use it
// when spawning goroutines that need to create effects or memos owned by an
// existing scope:
//
//	go func() {
//	    WithOwner(parentOwner, func() {
//	        signal := NewSignal(0)
//	    })
//	}()
func WithOwner(owner *Owner, fn func()) {
	old := setCurrentOwner(owner)
	defer setCurrentOwner(old)
	fn()
}

// WithListener runs fn with the specified listener for tracking.
// This is used internally to set up dependency tracking during memo and
// effect runs; exposed for integrations that implement their own listeners.
func WithListener(l Listener, fn func()) {
	old := setCurrentListener(l)
	defer setCurrentListener(old)
	fn()
}

// cleanupGoroutineContext removes the tracking context for the current
// goroutine. Optional: contexts are lightweight and reused, but a
// goroutine-pooled host can call this before returning a worker.
func cleanupGoroutineContext() {
	trackingContexts.Delete(goid.Get())
}
