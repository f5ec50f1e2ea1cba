package abi

import (
	"github.com/wippyai/classbridge/variant"
)

// ObjectPtr is the host's opaque handle for a native object. The bridge never
// dereferences it; it only passes it back into host functions.
type ObjectPtr uintptr

// InstancePtr is the opaque value the bridge hands to the host for an
// extension-side instance record. Only the bridge interprets it.
type InstancePtr uintptr

// LibraryPtr identifies the extension library to the host.
type LibraryPtr uintptr

// ClassUserdata is the per-class pointer echoed back by the host on
// class-level callbacks.
type ClassUserdata uintptr

// InitLevel is the host initialization stage at which a class is registered.
type InitLevel uint8

const (
	InitCore InitLevel = iota
	InitServers
	InitScene
	InitEditor
)

var initLevelNames = [...]string{"core", "servers", "scene", "editor"}

func (l InitLevel) String() string {
	if int(l) < len(initLevelNames) {
		return initLevelNames[l]
	}
	return "unknown"
}

// ParseInitLevel maps a level name back to its value.
func ParseInitLevel(s string) (InitLevel, bool) {
	for i, n := range initLevelNames {
		if n == s {
			return InitLevel(i), true
		}
	}
	return 0, false
}

// CallVirtual is the thunk the host invokes for a resolved virtual method.
// Arguments and return slot use the host's value representation; ret may be
// nil for methods without a result.
type CallVirtual func(instance InstancePtr, args []variant.Variant, ret *variant.Variant)

// Callback signatures that are identical in every supported ABI version.
type (
	RecreateFunc          func(userdata ClassUserdata, object ObjectPtr) InstancePtr
	FreeFunc              func(userdata ClassUserdata, instance InstancePtr)
	RefFunc               func(instance InstancePtr)
	ToStringFunc          func(instance InstancePtr, isValid *bool, out *string)
	GetPropertyFunc       func(instance InstancePtr, name variant.StringName, ret *variant.Variant) bool
	SetPropertyFunc       func(instance InstancePtr, name variant.StringName, value variant.Variant) bool
	GetPropertyListFunc   func(instance InstancePtr, count *uint32) *PropertyInfoSys
	FreePropertyListFunc  func(instance InstancePtr, list *PropertyInfoSys, count uint32)
	PropertyCanRevertFunc func(instance InstancePtr, name variant.StringName) bool
	PropertyGetRevertFunc func(instance InstancePtr, name variant.StringName, ret *variant.Variant) bool
)

// PropertyInfoSys is the host-facing property descriptor. Name, ClassName
// and HintString point at allocations owned by whoever produced the struct.
type PropertyInfoSys struct {
	Name       *variant.StringName
	ClassName  *variant.StringName
	HintString *string
	Hint       uint32
	Usage      uint32
	Type       variant.Type
}

// PropertyAccessor registers a typed property with the host. The host falls
// back to it when the dynamic property callbacks decline a name.
type PropertyAccessor struct {
	Get        func(instance InstancePtr) variant.Variant
	Set        func(instance InstancePtr, value variant.Variant)
	Name       variant.StringName
	ClassName  variant.StringName
	HintString string
	Hint       uint32
	Usage      uint32
	Type       variant.Type
}

// InstanceBindingCallbacks are handed to the host alongside the instance
// binding. All fields may be nil.
type InstanceBindingCallbacks struct {
	Create    func(token LibraryPtr, object ObjectPtr) uintptr
	Free      func(token LibraryPtr, object ObjectPtr, binding uintptr)
	Reference func(token LibraryPtr, binding uintptr, reference bool) bool
}

// NopBindingCallbacks is the binding vtable used for extension instances:
// the instance pointer itself is the binding, so nothing needs managing.
var NopBindingCallbacks = InstanceBindingCallbacks{}

// HostInterface is the set of host-provided functions the bridge calls.
// ObjectDestroy and the class registration functions are optional.
type HostInterface struct {
	ClassDBConstructObject          func(baseClass variant.StringName) ObjectPtr
	ObjectDestroy                   func(object ObjectPtr)
	ObjectSetInstance               func(object ObjectPtr, className variant.StringName, instance InstancePtr)
	ObjectSetInstanceBinding        func(object ObjectPtr, library LibraryPtr, instance InstancePtr, callbacks *InstanceBindingCallbacks)
	ClassDBRegisterExtensionClass   func(library LibraryPtr, className, parentName variant.StringName, info *ClassCreationInfo)
	ClassDBUnregisterExtensionClass func(library LibraryPtr, className variant.StringName)
}

// Validate reports which mandatory host functions are missing.
func (h *HostInterface) Validate() []string {
	var missing []string
	if h.ClassDBConstructObject == nil {
		missing = append(missing, "classdb_construct_object")
	}
	if h.ObjectSetInstance == nil {
		missing = append(missing, "object_set_instance")
	}
	if h.ObjectSetInstanceBinding == nil {
		missing = append(missing, "object_set_instance_binding")
	}
	return missing
}
