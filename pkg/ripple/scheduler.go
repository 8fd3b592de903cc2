package ripple

import (
	"fmt"
	"time"
)

// heightQueue is the per-pass work queue: nodes bucketed by graph height
// and drained in ascending order. Height order is a valid topological order
// over the dirty closure, since a node's transitive dependencies all sit at
// strictly lower heights, so draining the buckets bottom-up yields
// glitch-free propagation.
type heightQueue struct {
	buckets [][]scheduled
	max     int
	size    int
}

func newHeightQueue() *heightQueue {
	return &heightQueue{}
}

func (q *heightQueue) empty() bool {
	return q.size == 0
}

// insert places a node in the bucket for its current height. Callers
// deduplicate before enqueueing (effects via their pending flag, memos via
// their valid flag), so the queue itself stores entries verbatim.
func (q *heightQueue) insert(s scheduled) {
	h := s.graphHeight()
	if h < 0 {
		h = 0
	}
	for len(q.buckets) <= h {
		q.buckets = append(q.buckets, nil)
	}
	q.buckets[h] = append(q.buckets[h], s)
	if h > q.max {
		q.max = h
	}
	q.size++
}

// drain processes every entry in ascending height order, leaving the queue
// empty. The queue is frozen during a drain: concurrent inserts always go
// to the goroutine's fresh next-pass queue.
func (q *heightQueue) drain(process func(scheduled)) {
	for h := 0; h <= q.max && h < len(q.buckets); h++ {
		bucket := q.buckets[h]
		q.buckets[h] = nil
		for _, s := range bucket {
			process(s)
		}
	}
	q.max = 0
	q.size = 0
}

// flushCurrent drains the goroutine's pass queues until the graph is
// quiescent. Each pass runs the effects dirtied by the previous one in
// height order; writes performed inside effect bodies enqueue onto a fresh
// queue and are drained as the next pass, keeping passes strictly
// sequential. Re-entrant calls (a write inside an effect body) return
// immediately; the active loop picks the work up.
//
// Effect failures are isolated: a panicking effect does not stop unrelated
// nodes in the same pass. All collected errors are reported once the final
// pass completes, through OnPassError or, by default, a panic with the
// aggregated PassError at the call site that triggered the propagation.
func flushCurrent(tc *TrackingContext) {
	if tc.flushing || tc.batchDepth > 0 || tc.queue.empty() {
		return
	}
	tc.flushing = true
	defer func() { tc.flushing = false }()

	passes := 0
	for !tc.queue.empty() {
		if MaxPassesPerFlush > 0 && passes >= MaxPassesPerFlush {
			tc.passErrs = append(tc.passErrs, ErrBudgetExceeded)
			abandoned := tc.queue
			tc.queue = newHeightQueue()
			// Clear queued state so the discarded nodes still respond to
			// future writes.
			abandoned.drain(func(s scheduled) { s.abandonScheduled() })
			break
		}

		pass := tc.queue
		tc.queue = newHeightQueue()
		passes++

		if Debug.LogPasses {
			println("ripple: pass", passes, "queue", pass.size)
		}
		emitPassStart(passes)

		start := time.Now()
		runs := 0
		pass.drain(func(s scheduled) {
			runs++
			runIsolated(tc, s)
		})
		emitPassEnd(passes, time.Since(start), runs)
	}

	if len(tc.passErrs) > 0 {
		perr := &PassError{Errs: tc.passErrs, Passes: passes}
		tc.passErrs = nil
		if OnPassError != nil {
			OnPassError(perr)
			return
		}
		panic(perr)
	}
}

// runIsolated executes one scheduled node, converting a panic into a
// collected pass error so independent branches keep propagating.
func runIsolated(tc *TrackingContext, s scheduled) {
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok {
				tc.passErrs = append(tc.passErrs, err)
				return
			}
			tc.passErrs = append(tc.passErrs, fmt.Errorf("ripple: panic during propagation: %v", r))
		}
	}()
	s.runScheduled()
}
