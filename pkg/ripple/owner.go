package ripple

import (
	"sync"
	"sync/atomic"
)

// disposable is anything an Owner tears down on disposal: effects and memos.
type disposable interface {
	dispose()
}

// Owner represents a disposal scope that owns reactive primitives.
// When an Owner is disposed, all effects, memos, and child owners it
// contains are also disposed. This ensures proper cleanup and prevents
// leaked subscriptions.
//
// Owners form a hierarchy: each scope creates an Owner that is a child of
// the enclosing scope's Owner. Disposing a parent disposes the whole
// subtree, children first.
type Owner struct {
	id uint64

	// parent is the parent Owner in the hierarchy.
	// nil for a root Owner.
	parent *Owner

	// children are nested scopes.
	children   []*Owner
	childrenMu sync.Mutex

	// owned holds the effects and memos created under this scope, in
	// creation order.
	owned   []disposable
	ownedMu sync.Mutex

	// cleanups are manual cleanup functions registered via OnCleanup.
	cleanups   []Cleanup
	cleanupsMu sync.Mutex

	// values stores scope-local context values.
	values   map[any]any
	valuesMu sync.RWMutex

	// disposed indicates whether this Owner has been disposed.
	disposed atomic.Bool
}

// NewOwner creates a new Owner with the given parent.
// The new Owner is automatically registered as a child of the parent.
// If parent is nil, creates a root Owner. Creating a child under a
// disposed parent panics with ErrScopeDisposed.
func NewOwner(parent *Owner) *Owner {
	if parent != nil && parent.disposed.Load() {
		panic(ErrScopeDisposed)
	}

	o := &Owner{
		id:     nextID(),
		parent: parent,
	}

	if parent != nil {
		parent.addChild(o)
	}

	return o
}

// CreateRoot runs fn under a fresh root Owner and returns it. The caller
// is responsible for disposing the returned Owner.
//
//	root := CreateRoot(func() {
//	    CreateEffect(func() Cleanup { ... })
//	})
//	defer root.Dispose()
func CreateRoot(fn func()) *Owner {
	o := NewOwner(nil)
	WithOwner(o, fn)
	return o
}

// ID returns the unique identifier for this Owner.
func (o *Owner) ID() uint64 {
	return o.id
}

// Parent returns the parent Owner, or nil if this is a root Owner.
func (o *Owner) Parent() *Owner {
	return o.parent
}

// IsDisposed returns true if this Owner has been disposed.
func (o *Owner) IsDisposed() bool {
	return o.disposed.Load()
}

// addChild registers a child Owner.
func (o *Owner) addChild(child *Owner) {
	o.childrenMu.Lock()
	defer o.childrenMu.Unlock()
	o.children = append(o.children, child)
}

// removeChild removes a child Owner from this Owner's children.
func (o *Owner) removeChild(child *Owner) {
	o.childrenMu.Lock()
	defer o.childrenMu.Unlock()

	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i], o.children[i+1:]...)
			return
		}
	}
}

// register adds an effect or memo to this Owner. It will be disposed when
// the Owner is disposed.
func (o *Owner) register(d disposable) {
	if o.disposed.Load() {
		return
	}

	o.ownedMu.Lock()
	defer o.ownedMu.Unlock()
	o.owned = append(o.owned, d)
}

// unregister removes a disposable that tore itself down early, so scope
// disposal does not revisit it.
func (o *Owner) unregister(d disposable) {
	o.ownedMu.Lock()
	defer o.ownedMu.Unlock()

	for i, x := range o.owned {
		if x == d {
			o.owned = append(o.owned[:i], o.owned[i+1:]...)
			return
		}
	}
}

// OnCleanup registers a cleanup function to run when this Owner is disposed.
// If the Owner is already disposed, the cleanup runs immediately.
func (o *Owner) OnCleanup(fn Cleanup) {
	if o.disposed.Load() {
		fn()
		return
	}

	o.cleanupsMu.Lock()
	defer o.cleanupsMu.Unlock()
	o.cleanups = append(o.cleanups, fn)
}

// SetValue stores a context value on this scope, visible to this Owner and
// its descendants through GetValue.
func (o *Owner) SetValue(key, value any) {
	o.valuesMu.Lock()
	defer o.valuesMu.Unlock()

	if o.values == nil {
		o.values = make(map[any]any)
	}
	o.values[key] = value
}

// GetValue looks up a context value, walking up the owner chain until a
// scope carries the key. Returns (nil, false) when no ancestor has it.
func (o *Owner) GetValue(key any) (any, bool) {
	for cur := o; cur != nil; cur = cur.parent {
		cur.valuesMu.RLock()
		v, ok := cur.values[key]
		cur.valuesMu.RUnlock()
		if ok {
			return v, true
		}
	}
	return nil, false
}

// Dispose disposes this Owner and all its children, owned primitives, and
// cleanups. Children are disposed first, in reverse creation order, then
// owned effects and memos, then manual cleanups in reverse order.
// Disposal is idempotent.
func (o *Owner) Dispose() {
	if o.disposed.Swap(true) {
		return
	}

	if o.parent != nil {
		o.parent.removeChild(o)
	}

	o.childrenMu.Lock()
	children := make([]*Owner, len(o.children))
	copy(children, o.children)
	o.children = nil
	o.childrenMu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}

	o.ownedMu.Lock()
	owned := o.owned
	o.owned = nil
	o.ownedMu.Unlock()

	for _, d := range owned {
		d.dispose()
	}

	o.cleanupsMu.Lock()
	cleanups := o.cleanups
	o.cleanups = nil
	o.cleanupsMu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}

	o.valuesMu.Lock()
	o.values = nil
	o.valuesMu.Unlock()
}
