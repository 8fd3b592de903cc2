package ripple

// EagerMemos switches memo refresh from lazy (recompute on next read) to
// eager (recompute during propagation, in topological order, as soon as the
// pass reaches them). Lazy is the default and the recommended policy; eager
// mode exists for diagnostics, where observing intermediate memo values in
// pass order is more useful than avoiding work.
//
// Set at startup; flipping mid-propagation is not supported.
var EagerMemos = false

// StrictReads enables stale-read detection: reading a signal whose owning
// scope was disposed panics with ErrStaleRead instead of returning the last
// committed value. Intended for tests and development builds.
var StrictReads = false

// MaxPassesPerFlush bounds the number of propagation passes a single flush
// may execute. Each pass drains the effects dirtied by the previous one;
// reentrant writes from effect bodies feed the next pass. Exceeding the
// budget reports ErrBudgetExceeded through the pass error path and discards
// the remaining queue. Zero means no limit.
var MaxPassesPerFlush = 1000

// OnPassError receives the aggregated *PassError when one or more effects
// fail (or the pass budget trips) during a flush. When nil, the flush
// panics with the PassError at the call site that triggered the
// propagation: the writer for direct writes, the outermost Batch for
// batched writes.
var OnPassError func(error)

// DebugConfig controls debugging output for development.
type DebugConfig struct {
	// LogEffectRuns logs each effect run. Useful when tracking down
	// amplification bugs (one write fanning out into many runs).
	LogEffectRuns bool

	// LogPasses logs propagation pass boundaries with queue sizes.
	LogPasses bool
}

// DefaultDebugConfig returns a DebugConfig with all debugging disabled.
func DefaultDebugConfig() DebugConfig {
	return DebugConfig{}
}

// Debug is the global debug configuration.
// Modify this at application startup to enable debugging features.
var Debug = DefaultDebugConfig()
