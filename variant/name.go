package variant

import "sync"

// StringName is an interned, immutable name. Two names are equal iff their
// text is equal, so StringName is usable as a map key and compares in O(1).
// The zero value is the empty name.
type StringName struct {
	s *string
}

var interned = struct {
	names map[string]*string
	mu    sync.Mutex
}{
	names: make(map[string]*string, 256),
}

// Name interns s.
func Name(s string) StringName {
	if s == "" {
		return StringName{}
	}
	interned.mu.Lock()
	defer interned.mu.Unlock()
	if p, ok := interned.names[s]; ok {
		return StringName{s: p}
	}
	p := new(string)
	*p = s
	interned.names[s] = p
	return StringName{s: p}
}

// String returns the name's text.
func (n StringName) String() string {
	if n.s == nil {
		return ""
	}
	return *n.s
}

// IsEmpty reports whether n is the empty name.
func (n StringName) IsEmpty() bool { return n.s == nil }
