package abi

import "github.com/wippyai/classbridge/variant"

// ClassCreationInfo is the per-class registration descriptor handed to the
// host. Optional callbacks are nil when the class does not provide them; the
// host then applies its default behavior.
type ClassCreationInfo struct {
	CreateInstanceFunc    CreateFunc
	RecreateInstanceFunc  RecreateFunc
	FreeInstanceFunc      FreeFunc
	ReferenceFunc         RefFunc
	UnreferenceFunc       RefFunc
	GetVirtualFunc        GetVirtualFunc
	ToStringFunc          ToStringFunc
	NotificationFunc      NotificationFunc
	GetFunc               GetPropertyFunc
	SetFunc               SetPropertyFunc
	GetPropertyListFunc   GetPropertyListFunc
	FreePropertyListFunc  FreePropertyListFunc
	PropertyCanRevertFunc PropertyCanRevertFunc
	PropertyGetRevertFunc PropertyGetRevertFunc

	// Properties lists typed properties registered alongside the class.
	Properties []PropertyAccessor

	ClassName     variant.StringName
	ParentName    variant.StringName
	ClassUserdata ClassUserdata
	InitLevel     InitLevel
	IsVirtual     bool
	IsAbstract    bool
	IsExposed     bool
	IsRefCounted  bool
}

// Property returns the registered typed property with the given name.
func (c *ClassCreationInfo) Property(name variant.StringName) (*PropertyAccessor, bool) {
	for i := range c.Properties {
		if c.Properties[i].Name == name {
			return &c.Properties[i], true
		}
	}
	return nil, false
}
