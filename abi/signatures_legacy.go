//go:build gdext_legacy

package abi

import "github.com/wippyai/classbridge/variant"

// Version is the host API this build targets.
var Version = APIVersion{Major: 4, Minor: 1}

// HashedVirtuals is true when virtual lookups carry a method hash.
const HashedVirtuals = false

type (
	CreateFunc       func(userdata ClassUserdata) ObjectPtr
	GetVirtualFunc   func(userdata ClassUserdata, name variant.StringName) CallVirtual
	NotificationFunc func(instance InstancePtr, what int32)
)

// Create invokes the create callback the way the host does.
func (c *ClassCreationInfo) Create() ObjectPtr {
	return c.CreateInstanceFunc(c.ClassUserdata)
}

// ResolveVirtual invokes the virtual lookup callback. Hosts of this API
// generation do not send a hash, so hash is dropped here.
func (c *ClassCreationInfo) ResolveVirtual(name variant.StringName, _ uint32) CallVirtual {
	return c.GetVirtualFunc(c.ClassUserdata, name)
}

// Notify invokes the notification callback if the class has one.
func (c *ClassCreationInfo) Notify(instance InstancePtr, what int32, _ bool) {
	if c.NotificationFunc != nil {
		c.NotificationFunc(instance, what)
	}
}
