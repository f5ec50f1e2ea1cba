package storage

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/classbridge/abi"
	"github.com/wippyai/classbridge/errors"
)

// Table owns every live instance record of a library.
type Table struct {
	slots     []slot
	freeList  []uint32
	observers []Observer
	mu        sync.RWMutex
	log       *zap.Logger
	obsMu     sync.RWMutex
	live      int
}

type slot struct {
	inst *Instance
	gen  uint32
}

// TableOption configures a Table.
type TableOption func(*Table)

// WithLogger sets the logger for record lifecycle events.
func WithLogger(l *zap.Logger) TableOption {
	return func(t *Table) { t.log = l }
}

// NewTable creates an empty table.
func NewTable(opts ...TableOption) *Table {
	t := &Table{
		slots:    make([]slot, 0, 64),
		freeList: make([]uint32, 0, 16),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Record describes a new instance record.
type Record struct {
	Value      any
	Class      string
	Object     abi.ObjectPtr
	RefCounted bool
}

// Insert stores a new record in state Created and returns it.
func (t *Table) Insert(r Record) *Instance {
	inst := &Instance{
		value:      r.Value,
		table:      t,
		class:      r.Class,
		object:     r.Object,
		refCounted: r.RefCounted,
		state:      StateCreated,
	}

	t.mu.Lock()
	if n := len(t.freeList); n > 0 {
		idx := t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
		s := &t.slots[idx-1]
		s.inst = inst
		inst.handle = makeHandle(idx, s.gen)
	} else {
		t.slots = append(t.slots, slot{inst: inst})
		inst.handle = makeHandle(uint32(len(t.slots)), 0)
	}
	t.live++
	t.mu.Unlock()

	t.log.Debug("instance created",
		zap.String("class", r.Class),
		zap.Uint64("handle", uint64(inst.handle)),
		zap.Uintptr("object", uintptr(r.Object)))

	t.notify(Event{Type: EventCreated, Handle: inst.handle, Class: r.Class, Value: r.Value})
	return inst
}

// Lookup resolves a handle. It returns false for unknown or stale handles.
func (t *Table) Lookup(h Handle) (*Instance, bool) {
	if h == 0 {
		return nil, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	idx := h.slot()
	if idx == 0 || int(idx) > len(t.slots) {
		return nil, false
	}
	s := t.slots[idx-1]
	if s.inst == nil || s.gen != h.gen() {
		return nil, false
	}
	return s.inst, true
}

// Get resolves a handle the host passed in. An unknown or stale handle means
// the host is using an instance after free and panics with a contract
// violation.
func (t *Table) Get(h Handle) *Instance {
	inst, ok := t.Lookup(h)
	if !ok {
		panic(errors.New(errors.PhaseBorrow, errors.KindDestroyed).
			Value(uint64(h)).
			Detail("instance handle %#x is not live", uint64(h)).
			Build())
	}
	return inst
}

// Free tears down a record: it is marked destroyed, teardown (if non-nil)
// runs with the boxed value, then the value is released and the slot
// recycled. Freeing a record twice is a contract violation.
func (t *Table) Free(h Handle, teardown func(v any)) {
	inst := t.Get(h)
	inst.MarkDestroyed()

	defer t.release(inst)
	if teardown != nil {
		teardown(inst.value)
	}
}

func (t *Table) release(inst *Instance) {
	inst.mu.Lock()
	value := inst.value
	inst.state = StateFreed
	inst.value = nil
	inst.table = nil
	inst.mu.Unlock()

	h := inst.handle
	t.mu.Lock()
	s := &t.slots[h.slot()-1]
	s.inst = nil
	s.gen++
	t.freeList = append(t.freeList, h.slot())
	t.live--
	t.mu.Unlock()

	t.log.Debug("instance freed",
		zap.String("class", inst.class),
		zap.Uint64("handle", uint64(h)))

	t.notify(Event{Type: EventFreed, Handle: h, Class: inst.class, Value: value})
}

// Len returns the number of records that are not yet freed.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.live
}

// Each calls fn for every live record in slot order until fn returns false.
func (t *Table) Each(fn func(*Instance) bool) {
	t.mu.RLock()
	insts := make([]*Instance, 0, t.live)
	for _, s := range t.slots {
		if s.inst != nil {
			insts = append(insts, s.inst)
		}
	}
	t.mu.RUnlock()

	for _, inst := range insts {
		if !fn(inst) {
			return
		}
	}
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnInstanceEvent(e)
	}
}
