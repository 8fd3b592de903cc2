package ripple

// Listener is anything that can be notified when a dependency changes.
// This interface is implemented by memos and effects.
type Listener interface {
	// MarkDirty notifies the listener that one of its dependencies has changed.
	// For memos, this invalidates the cached value and cascades to their own
	// subscribers. For effects, this schedules the effect onto the current
	// propagation pass.
	MarkDirty()

	// ID returns a unique identifier for this listener.
	// Used for deduplication in subscriber lists and pass queues.
	ID() uint64
}

// Cleanup is a function returned by effects to clean up resources.
// It is called before the effect re-runs and when the effect is disposed.
type Cleanup func()

// scheduled is a node that can be placed on a pass queue and run when the
// queue drains. Implemented by Effect always, and by memos when eager memo
// refresh is enabled. abandonScheduled clears the node's queued state when
// the scheduler discards a queue without running it.
type scheduled interface {
	graphHeight() int
	runScheduled()
	abandonScheduled()
}

// sourceTracker is implemented by listeners that rebuild a dependency set
// during their run. Signals call addSource when read under tracking.
// refresh is non-nil for lazy sources (memos): calling it brings the source
// current so its version can be compared meaningfully.
type sourceTracker interface {
	Listener
	addSource(src *signalBase, refresh func())
}
