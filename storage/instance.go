package storage

import (
	"sync"

	"github.com/wippyai/classbridge/abi"
	"github.com/wippyai/classbridge/errors"
)

// Instance pairs a host object with a boxed extension value.
//
// Access goes through Borrow and BorrowMut. Overlapping borrows that would
// alias a mutable view, and any borrow once destruction has begun, panic with
// a fatal *errors.Error. The mutex only protects the bookkeeping fields; it
// is not held while user code runs.
type Instance struct {
	value      any
	table      *Table
	class      string
	object     abi.ObjectPtr
	handle     Handle
	refs       int64
	shared     int32
	mu         sync.Mutex
	exclusive  bool
	refCounted bool
	state      State
}

// Handle returns the record's handle.
func (i *Instance) Handle() Handle { return i.handle }

// Class returns the extension class name.
func (i *Instance) Class() string { return i.class }

// Object returns the host object this record is linked to.
func (i *Instance) Object() abi.ObjectPtr { return i.object }

// State returns the current lifecycle state.
func (i *Instance) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Borrow runs fn with shared access to the boxed value.
func (i *Instance) Borrow(fn func(v any)) {
	v := i.acquire(false)
	defer i.release(false)
	fn(v)
}

// BorrowMut runs fn with exclusive access to the boxed value.
func (i *Instance) BorrowMut(fn func(v any)) {
	v := i.acquire(true)
	defer i.release(true)
	fn(v)
}

// Borrowed reports the number of active shared borrows and whether an
// exclusive borrow is active.
func (i *Instance) Borrowed() (shared int, exclusive bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return int(i.shared), i.exclusive
}

func (i *Instance) acquire(exclusive bool) any {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state != StateCreated {
		panic(errors.Destroyed(i.class, i.state.String()))
	}
	if i.exclusive {
		panic(errors.BorrowConflict(i.class, "instance is already borrowed mutably"))
	}
	if exclusive {
		if i.shared > 0 {
			panic(errors.BorrowConflict(i.class, "cannot borrow mutably while shared borrows are active"))
		}
		i.exclusive = true
	} else {
		i.shared++
	}
	return i.value
}

func (i *Instance) release(exclusive bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if exclusive {
		i.exclusive = false
	} else if i.shared > 0 {
		i.shared--
	}
}

// MarkDestroyed moves a Created record to MarkedDestroyed. No borrow can
// start afterwards. Calling it in any other state, or while a borrow is
// active, is a contract violation.
func (i *Instance) MarkDestroyed() {
	i.mu.Lock()
	if i.state != StateCreated {
		st := i.state
		i.mu.Unlock()
		panic(errors.New(errors.PhaseLifecycle, errors.KindContractViolation).
			Class(i.class).
			Detail("free called on instance in state %s", st).
			Build())
	}
	if i.exclusive || i.shared > 0 {
		i.mu.Unlock()
		panic(errors.BorrowConflict(i.class, "instance freed while borrowed"))
	}
	i.state = StateMarkedDestroyed
	i.mu.Unlock()

	if i.table != nil {
		i.table.notify(Event{Type: EventMarkedDestroyed, Handle: i.handle, Class: i.class, Value: i.value})
	}
}

// RefCount returns the external reference count.
func (i *Instance) RefCount() int64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.refs
}

// IncRef increments the external reference count of a reference-counted
// record. It is a no-op for other records.
func (i *Instance) IncRef() {
	i.mu.Lock()
	if !i.refCounted {
		i.mu.Unlock()
		return
	}
	if i.state != StateCreated {
		st := i.state
		i.mu.Unlock()
		panic(errors.Destroyed(i.class, st.String()))
	}
	i.refs++
	n := i.refs
	i.mu.Unlock()

	if i.table != nil {
		i.table.notify(Event{Type: EventRefInc, Handle: i.handle, Class: i.class, RefCount: n})
	}
}

// DecRef decrements the external reference count. Dropping below zero is a
// contract violation.
func (i *Instance) DecRef() {
	i.mu.Lock()
	if !i.refCounted {
		i.mu.Unlock()
		return
	}
	if i.state != StateCreated {
		st := i.state
		i.mu.Unlock()
		panic(errors.Destroyed(i.class, st.String()))
	}
	if i.refs == 0 {
		i.mu.Unlock()
		panic(errors.New(errors.PhaseLifecycle, errors.KindContractViolation).
			Class(i.class).
			Detail("unreference without matching reference").
			Build())
	}
	i.refs--
	n := i.refs
	i.mu.Unlock()

	if i.table != nil {
		i.table.notify(Event{Type: EventRefDec, Handle: i.handle, Class: i.class, RefCount: n})
	}
}
