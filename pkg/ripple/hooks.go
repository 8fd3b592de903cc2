package ripple

import (
	"sync/atomic"
	"time"
)

// Hooks receives engine events for observability integrations (metrics,
// tracing, inspectors). All methods are invoked synchronously on the
// goroutine performing the work, so implementations must be fast and must
// not call back into the reactive API.
type Hooks interface {
	// SignalWrite fires once per write attempt; noop is true when the
	// equality predicate suppressed the write.
	SignalWrite(id uint64, noop bool)

	// MemoRecompute fires after a memo's computation function ran.
	MemoRecompute(id uint64)

	// EffectCreated, EffectRun, and EffectDisposed track effect lifecycle.
	EffectCreated(id uint64, name string)
	EffectRun(id uint64, name string)
	EffectDisposed(id uint64, name string)

	// PassStart and PassEnd bracket each propagation pass within a flush;
	// pass numbering restarts at 1 per flush.
	PassStart(pass int)
	PassEnd(pass int, duration time.Duration, runs int)
}

type hooksHolder struct {
	h Hooks
}

var installedHooks atomic.Pointer[hooksHolder]

// SetHooks installs the process-wide hooks sink. Pass nil to remove it.
// Installing hooks mid-propagation is safe; in-flight events may go to
// either sink.
func SetHooks(h Hooks) {
	if h == nil {
		installedHooks.Store(nil)
		return
	}
	installedHooks.Store(&hooksHolder{h: h})
}

func currentHooks() Hooks {
	if p := installedHooks.Load(); p != nil {
		return p.h
	}
	return nil
}

func emitSignalWrite(id uint64, noop bool) {
	if h := currentHooks(); h != nil {
		h.SignalWrite(id, noop)
	}
}

func emitMemoRecompute(id uint64) {
	if h := currentHooks(); h != nil {
		h.MemoRecompute(id)
	}
}

func emitEffectCreated(id uint64, name string) {
	if h := currentHooks(); h != nil {
		h.EffectCreated(id, name)
	}
}

func emitEffectRun(id uint64, name string) {
	if h := currentHooks(); h != nil {
		h.EffectRun(id, name)
	}
}

func emitEffectDisposed(id uint64, name string) {
	if h := currentHooks(); h != nil {
		h.EffectDisposed(id, name)
	}
}

func emitPassStart(pass int) {
	if h := currentHooks(); h != nil {
		h.PassStart(pass)
	}
}

func emitPassEnd(pass int, d time.Duration, runs int) {
	if h := currentHooks(); h != nil {
		h.PassEnd(pass, d, runs)
	}
}
