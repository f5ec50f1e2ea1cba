package bridge

import "github.com/wippyai/classbridge/abi"

// Base is a non-owning reference from an extension value to the host object
// it is bound to. Embed it in a class struct to have it filled in at
// creation. Holding a Base never keeps the host object alive.
type Base struct {
	object    abi.ObjectPtr
	class     string
	baseClass string
}

// Object returns the host object handle.
func (b Base) Object() abi.ObjectPtr { return b.object }

// Class returns the extension class name.
func (b Base) Class() string { return b.class }

// BaseClass returns the host class the extension class derives from.
func (b Base) BaseClass() string { return b.baseClass }

// IsZero reports whether the base was never bound.
func (b Base) IsZero() bool { return b.object == 0 }

func (b *Base) bindBase(o Base) { *b = o }

type baseBinder interface {
	bindBase(Base)
}
