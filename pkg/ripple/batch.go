package ripple

import "fmt"

// DebugMode enables debug logging throughout the ripple package.
// When true, TxNamed logs transaction boundaries.
// This should be set at startup and not changed during runtime.
var DebugMode bool

// Batch groups multiple signal writes into a single propagation pass.
// Writes inside fn apply their values immediately, so reads within the
// batch observe them, but commits are staged: when the outermost batch exits,
// each written signal compares its final value against its pre-batch value
// and commits at most one version bump and one notification. An effect
// depending on two signals updated together therefore runs once, not twice,
// and a signal written back to its original value propagates nothing.
//
// Batches nest; only the outermost exit flushes.
//
// Example:
//
//	Batch(func() {
//	    firstName.Set("John")
//	    lastName.Set("Doe")
//	    age.Set(30)
//	})
//	// Dependents run once with all three changes
func Batch(fn func()) {
	tc := getTrackingContext()
	tc.batchDepth++

	defer func() {
		tc.batchDepth--
		if tc.batchDepth == 0 {
			commitStagedWrites(tc)
		}
	}()

	fn()
}

// commitStagedWrites finishes the outermost batch: each staged signal
// commits (or suppresses) its write, then the accumulated dirty closure
// flushes as one propagation pass.
func commitStagedWrites(tc *TrackingContext) {
	staged := tc.drainStaged()
	if len(staged) == 0 {
		return
	}

	for _, commit := range staged {
		commit()
	}

	flushCurrent(tc)
}

// Untracked runs fn without tracking signal reads as dependencies.
// Useful when a computation needs a value without reacting to its changes.
// For single reads, signal.Peek() is clearer and cheaper.
//
// Example:
//
//	Untracked(func() {
//	    // Reading count here won't subscribe the current computation
//	    value := count.Get()
//	    fmt.Println("Current value:", value)
//	})
func Untracked(fn func()) {
	old := setCurrentListener(nil)
	defer setCurrentListener(old)
	fn()
}

// UntrackedGet reads a signal's value without creating a dependency.
// This is a convenience function equivalent to signal.Peek().
func UntrackedGet[T any](s *Signal[T]) T {
	return s.Peek()
}

// Tx runs fn as a transaction, grouping all signal writes.
// This is an alias for Batch() using transaction terminology.
func Tx(fn func()) {
	Batch(fn)
}

// TxNamed runs fn as a named transaction for debugging and tracing.
// The transaction name is logged in debug mode.
//
// Example:
//
//	TxNamed("profile-update", func() {
//	    user.Set(newUser)
//	    profile.Set(newProfile)
//	})
func TxNamed(name string, fn func()) {
	if DebugMode {
		fmt.Printf("[TX] %s start\n", name)
		defer fmt.Printf("[TX] %s end\n", name)
	}
	Batch(fn)
}
