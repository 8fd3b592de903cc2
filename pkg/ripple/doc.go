// Package ripple is a fine-grained reactive dependency engine.
//
// The engine implements automatic dependency tracking: reading a signal
// during a memo computation or an effect run subscribes that computation to
// the signal, and writing the signal later re-runs exactly the computations
// that read it, no more and no less, and never against a half-updated graph.
//
// # Core Types
//
// Signal[T] is a reactive value container:
//
//	count := NewSignal(0)
//	value := count.Get()  // Read (subscribes current listener)
//	count.Set(5)          // Write (propagates to dependents)
//	count.Update(func(n int) int { return n + 1 })
//
// Memo[T] is a cached derived computation, evaluated lazily on read:
//
//	doubled := NewMemo(func() int { return count.Get() * 2 })
//	value := doubled.Get()  // Recomputes only if dependencies changed
//
// Effect runs side effects when dependencies change:
//
//	CreateEffect(func() Cleanup {
//	    fmt.Println("Count is:", count.Get())
//	    return func() { /* cleanup */ }
//	})
//
// # Propagation
//
// A write outside a batch propagates synchronously before Set returns:
// the dirty closure is marked first, then affected effects run in
// topological (height) order, so an effect that depends on two memos
// derived from the same signal runs once, after both memos have settled.
// Writes performed from inside an effect are queued and drained as a
// follow-up pass, bounded by MaxPassesPerFlush.
//
// # Batching
//
// Multiple signal updates can be batched into a single propagation pass:
//
//	Batch(func() {
//	    a.Set(1)
//	    b.Set(2)
//	    c.Set(3)
//	})  // Single pass after all updates
//
// Writes to the same signal inside one batch collapse to a single version
// bump using the final value only.
//
// # Ownership
//
// Owners form a disposal tree. Effects and memos created while an owner is
// current are torn down, children first, when the owner is disposed.
//
// # Thread Safety
//
// All primitives are safe for concurrent use. The tracking context (current
// owner, current listener, batch state) is per-goroutine, so independent
// goroutines never observe each other's observer stack; use WithOwner to
// propagate ownership into spawned goroutines.
package ripple
