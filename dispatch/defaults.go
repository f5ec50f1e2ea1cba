package dispatch

import (
	"github.com/wippyai/classbridge/abi"
	"github.com/wippyai/classbridge/variant"
)

// DefaultTable builds the table served by default_get_virtual for a class
// deriving from base. Every virtual known on base resolves to Noop; _ready
// additionally carries before when base may be a Node. before must not
// reach user code.
func DefaultTable(class, base string, before Hook) *Table {
	t := NewTable(class, before)
	for _, name := range abi.KnownVirtuals(base) {
		if name == ReadyMethod {
			continue
		}
		hash, _ := abi.KnownVirtualHash(base, name)
		t.entries[variant.Name(name)] = Entry{
			Name: variant.Name(name),
			Hash: hash,
			Call: Noop,
		}
	}
	if abi.IsPossiblyNodeClass(base) {
		t.InjectReady(ReadyHash())
	}
	return t
}

// ReadyHash returns the signature hash of Node._ready.
func ReadyHash() uint32 {
	h, _ := abi.KnownVirtualHash("Node", ReadyMethod)
	return h
}
