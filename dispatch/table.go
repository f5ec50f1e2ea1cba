package dispatch

import (
	"sort"
	"strings"

	"github.com/wippyai/classbridge/abi"
	"github.com/wippyai/classbridge/errors"
	"github.com/wippyai/classbridge/variant"
)

// BeforeKind controls how the before-hook is sequenced with an entry's body.
type BeforeKind uint8

const (
	// Without runs only the body.
	Without BeforeKind = iota
	// WithBefore runs the hook, then the body.
	WithBefore
	// OnlyBefore runs only the hook. Used for synthetic entries that exist
	// solely so the hook fires.
	OnlyBefore
)

func (k BeforeKind) String() string {
	switch k {
	case Without:
		return "without"
	case WithBefore:
		return "with_before"
	case OnlyBefore:
		return "only_before"
	}
	return "unknown"
}

// Hook runs ahead of an entry's body for one instance.
type Hook func(instance abi.InstancePtr)

// Entry is one resolvable virtual method.
type Entry struct {
	Call   abi.CallVirtual
	Name   variant.StringName
	Hash   uint32
	Before BeforeKind
}

// Table resolves virtual method names to call thunks for one class. It is
// assembled once at registration and read-only afterwards.
type Table struct {
	entries map[variant.StringName]Entry
	before  Hook
	class   string
}

// NewTable creates an empty table. before is sequenced into entries whose
// BeforeKind asks for it.
func NewTable(class string, before Hook) *Table {
	return &Table{
		entries: make(map[variant.StringName]Entry),
		before:  before,
		class:   class,
	}
}

// Class returns the class the table belongs to.
func (t *Table) Class() string { return t.class }

// Add registers an entry. Each method name may appear once.
func (t *Table) Add(e Entry) error {
	if e.Name.IsEmpty() {
		return errors.Registration(t.class, "virtual method with empty name")
	}
	if _, dup := t.entries[e.Name]; dup {
		return errors.Registration(t.class, "virtual method %s registered twice", e.Name)
	}
	if e.Call == nil && e.Before != OnlyBefore {
		return errors.Registration(t.class, "virtual method %s has no body", e.Name)
	}
	e.Call = Compose(t.before, e.Call, e.Before)
	t.entries[e.Name] = e
	return nil
}

// InjectReady adds a synthetic OnlyBefore entry for _ready unless the table
// already has one. It reports whether an entry was added.
func (t *Table) InjectReady(hash uint32) bool {
	name := variant.Name(ReadyMethod)
	if _, ok := t.entries[name]; ok {
		return false
	}
	t.entries[name] = Entry{
		Name:   name,
		Hash:   hash,
		Before: OnlyBefore,
		Call:   Compose(t.before, nil, OnlyBefore),
	}
	return true
}

// Lookup resolves (name, hash) using the build's match policy.
func (t *Table) Lookup(name variant.StringName, hash uint32) (Entry, bool) {
	e, ok := t.entries[name]
	if !ok || !matches(e, hash) {
		return Entry{}, false
	}
	return e, true
}

// Declared returns the entry registered under name regardless of hash.
func (t *Table) Declared(name variant.StringName) (Entry, bool) {
	e, ok := t.entries[name]
	return e, ok
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// Entries returns all entries sorted by name.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name.String() < out[j].Name.String()
	})
	return out
}

// Compose sequences hook and body according to kind. A nil hook is a no-op.
func Compose(hook Hook, body abi.CallVirtual, kind BeforeKind) abi.CallVirtual {
	if hook == nil || kind == Without {
		if body == nil {
			return Noop
		}
		return body
	}
	if kind == OnlyBefore || body == nil {
		return func(inst abi.InstancePtr, _ []variant.Variant, _ *variant.Variant) {
			hook(inst)
		}
	}
	return func(inst abi.InstancePtr, args []variant.Variant, ret *variant.Variant) {
		hook(inst)
		body(inst, args, ret)
	}
}

// Noop is the built-in virtual body that does nothing.
func Noop(abi.InstancePtr, []variant.Variant, *variant.Variant) {}

// Method names with special handling.
const (
	ReadyMethod = "_ready"
	InitMethod  = "_init"
)

// VirtualName maps a Go-side override name to the host's virtual method
// name: "ready" is "_ready", "init_ext" is "_init", anything else gains a
// leading underscore unless it already has one.
func VirtualName(name string) string {
	switch name {
	case "ready":
		return ReadyMethod
	case "init_ext":
		return InitMethod
	}
	if strings.HasPrefix(name, "_") {
		return name
	}
	return "_" + name
}
