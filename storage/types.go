package storage

import "github.com/wippyai/classbridge/abi"

// Handle identifies an instance record. The low 32 bits hold the slot number
// (1-based), the high 32 bits the slot generation, so a handle kept after its
// record was freed never resolves to the slot's next occupant.
// Handle 0 is reserved and always invalid.
type Handle uint64

func makeHandle(slot, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(slot))
}

func (h Handle) slot() uint32 { return uint32(h) }
func (h Handle) gen() uint32  { return uint32(h >> 32) }

// Ptr converts the handle into the opaque value given to the host.
func (h Handle) Ptr() abi.InstancePtr { return abi.InstancePtr(h) }

// FromPtr recovers a handle from a host-supplied instance pointer.
func FromPtr(p abi.InstancePtr) Handle { return Handle(p) }

// State is the lifecycle state of an instance record.
type State uint8

const (
	StateCreated State = iota
	StateMarkedDestroyed
	StateFreed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateMarkedDestroyed:
		return "marked_destroyed"
	case StateFreed:
		return "freed"
	}
	return "unknown"
}

// EventType identifies an instance lifecycle notification.
type EventType uint8

const (
	EventCreated EventType = iota
	EventMarkedDestroyed
	EventFreed
	EventRefInc
	EventRefDec
)

// Event describes an instance lifecycle change.
type Event struct {
	Value    any
	Class    string
	Handle   Handle
	RefCount int64
	Type     EventType
}

// Observer receives instance lifecycle events.
type Observer interface {
	OnInstanceEvent(Event)
}
