package abi

import "sort"

// Host notification codes the bridge cares about.
const (
	NotificationPostinitialize int32 = 0
	NotificationPredelete      int32 = 1
	NotificationEnterTree      int32 = 10
	NotificationExitTree       int32 = 11
	NotificationReady          int32 = 13
	NotificationPhysicsProcess int32 = 16
	NotificationProcess        int32 = 17
)

// Compatibility hashes of virtual method signatures as published by the host
// for API 4.4. A hash changes whenever the method's signature changes.
const (
	hashVoidNoArgs   uint32 = 3218959716
	hashVoidDelta    uint32 = 373806689
	hashVoidEvent    uint32 = 3754044979
	hashWarnings     uint32 = 1139954409
	hashBoolPoint    uint32 = 556197845
	hashMinimumSize  uint32 = 3341600327
	hashMainLoopStep uint32 = 330693286
)

var engineParents = map[string]string{
	"RefCounted":      "Object",
	"Resource":        "RefCounted",
	"Script":          "Resource",
	"ScriptExtension": "Script",
	"ResourceLoader":  "Object",
	"ResourceSaver":   "Object",
	"MainLoop":        "Object",
	"SceneTree":       "MainLoop",
	"Node":            "Object",
	"CanvasItem":      "Node",
	"Node2D":          "CanvasItem",
	"Control":         "CanvasItem",
	"Node3D":          "Node",
}

var engineVirtuals = map[string]map[string]uint32{
	"Object": {
		"_init": hashVoidNoArgs,
	},
	"Node": {
		"_ready":                      hashVoidNoArgs,
		"_enter_tree":                 hashVoidNoArgs,
		"_exit_tree":                  hashVoidNoArgs,
		"_process":                    hashVoidDelta,
		"_physics_process":            hashVoidDelta,
		"_input":                      hashVoidEvent,
		"_unhandled_input":            hashVoidEvent,
		"_get_configuration_warnings": hashWarnings,
	},
	"CanvasItem": {
		"_draw": hashVoidNoArgs,
	},
	"Control": {
		"_gui_input":        hashVoidEvent,
		"_has_point":        hashBoolPoint,
		"_get_minimum_size": hashMinimumSize,
	},
	"Resource": {
		"_setup_local_to_scene": hashVoidNoArgs,
	},
	"MainLoop": {
		"_initialize":      hashVoidNoArgs,
		"_process":         hashMainLoopStep,
		"_physics_process": hashMainLoopStep,
		"_finalize":        hashVoidNoArgs,
	},
}

// IsEngineClass reports whether name is a host class known to this build.
func IsEngineClass(name string) bool {
	if name == "Object" {
		return true
	}
	_, ok := engineParents[name]
	return ok
}

// EngineParent returns the direct host superclass of an engine class.
func EngineParent(name string) (string, bool) {
	p, ok := engineParents[name]
	return p, ok
}

// Inherits reports whether class equals ancestor or derives from it.
func Inherits(class, ancestor string) bool {
	for c := class; c != ""; c = engineParents[c] {
		if c == ancestor {
			return true
		}
	}
	return false
}

// KnownVirtualHash returns the hash of method as declared on class or its
// nearest ancestor.
func KnownVirtualHash(class, method string) (uint32, bool) {
	for c := class; c != ""; c = engineParents[c] {
		if h, ok := engineVirtuals[c][method]; ok {
			return h, true
		}
	}
	return 0, false
}

// KnownVirtuals lists every virtual method visible on class, sorted.
func KnownVirtuals(class string) []string {
	seen := make(map[string]bool)
	for c := class; c != ""; c = engineParents[c] {
		for name := range engineVirtuals[c] {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// nonNodeBases are common bases that certainly do not inherit Node.
var nonNodeBases = map[string]bool{
	"Object":          true,
	"MainLoop":        true,
	"RefCounted":      true,
	"Resource":        true,
	"ResourceLoader":  true,
	"ResourceSaver":   true,
	"SceneTree":       true,
	"Script":          true,
	"ScriptExtension": true,
}

// IsPossiblyNodeClass returns false if base definitely does not inherit
// Node. Unknown bases count as possible nodes.
func IsPossiblyNodeClass(base string) bool {
	return !nonNodeBases[base]
}
