//go:build !gdext_legacy

package abi

import "github.com/wippyai/classbridge/variant"

// Version is the host API this build targets.
var Version = APIVersion{Major: 4, Minor: 4}

// HashedVirtuals is true when virtual lookups carry a method hash.
const HashedVirtuals = true

type (
	CreateFunc       func(userdata ClassUserdata, notifyPostinitialize bool) ObjectPtr
	GetVirtualFunc   func(userdata ClassUserdata, name variant.StringName, hash uint32) CallVirtual
	NotificationFunc func(instance InstancePtr, what int32, reversed bool)
)

// Create invokes the create callback the way the host does.
func (c *ClassCreationInfo) Create() ObjectPtr {
	return c.CreateInstanceFunc(c.ClassUserdata, true)
}

// ResolveVirtual invokes the virtual lookup callback.
func (c *ClassCreationInfo) ResolveVirtual(name variant.StringName, hash uint32) CallVirtual {
	return c.GetVirtualFunc(c.ClassUserdata, name, hash)
}

// Notify invokes the notification callback if the class has one.
func (c *ClassCreationInfo) Notify(instance InstancePtr, what int32, reversed bool) {
	if c.NotificationFunc != nil {
		c.NotificationFunc(instance, what, reversed)
	}
}
