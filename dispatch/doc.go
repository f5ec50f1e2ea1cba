// Package dispatch holds per-class virtual method tables.
//
// A Table maps a host virtual method name to a call thunk. Whether the
// host's signature hash takes part in the match is fixed per build: the
// default build requires an exact (name, hash) match, the gdext_legacy build
// matches on name alone. A lookup miss means the host falls back to its own
// behavior.
//
// Entries can be sequenced with a before-hook (BeforeKind). The ready hook is
// modelled as an always-present _ready entry: a class that overrides ready
// gets WithBefore, a class that doesn't gets a synthetic OnlyBefore entry.
package dispatch
