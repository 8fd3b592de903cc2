package ripple

import (
	"errors"
	"fmt"
)

// ErrCyclicDependency is raised (via panic, wrapped with node details) when a
// memo transitively reads itself during its own evaluation. The engine
// detects the cycle at the re-entrant read rather than looping.
//
// Use errors.Is to identify it when recovering:
//
//	defer func() {
//	    if r := recover(); r != nil {
//	        if err, ok := r.(error); ok && errors.Is(err, ripple.ErrCyclicDependency) {
//	            // handle cycle
//	        }
//	    }
//	}()
var ErrCyclicDependency = errors.New("ripple: cyclic dependency")

// ErrScopeDisposed is raised when creating a signal, memo, effect, or child
// owner under an owner that has already been disposed. Disposal is final;
// late creations indicate a lifecycle bug in the caller.
var ErrScopeDisposed = errors.New("ripple: scope disposed")

// ErrStaleRead is raised in strict mode (StrictReads) when a signal is read
// after its owning scope was disposed. Outside strict mode such reads return
// the last committed value.
var ErrStaleRead = errors.New("ripple: stale read of disposed signal")

// ErrBudgetExceeded is returned when a flush exceeds MaxPassesPerFlush:
// effects kept writing signals that re-dirtied other effects, pass after
// pass, which almost always means a feedback loop between two effects.
// The remaining queue is discarded so the process can make progress.
var ErrBudgetExceeded = errors.New("ripple: propagation pass budget exceeded")

// PassError aggregates the errors raised by effect runs during a single
// flush. The scheduler isolates each effect, continues the topological walk
// for independent branches, and reports everything here after the final
// pass completes.
type PassError struct {
	// Errs holds one entry per failed effect run, in run order.
	Errs []error

	// Passes is the number of passes the flush executed before reporting.
	Passes int
}

// Error implements the error interface.
func (e *PassError) Error() string {
	return fmt.Sprintf("ripple: %d error(s) during propagation (%d passes): %v",
		len(e.Errs), e.Passes, errors.Join(e.Errs...))
}

// Unwrap exposes the collected errors for errors.Is/As support.
func (e *PassError) Unwrap() []error {
	return e.Errs
}

// cycleError builds the panic value for a detected cycle.
func cycleError(kind string, id uint64) error {
	return fmt.Errorf("%w: %s %d read during its own evaluation", ErrCyclicDependency, kind, id)
}
