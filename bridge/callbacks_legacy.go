//go:build gdext_legacy

package bridge

import (
	"github.com/wippyai/classbridge/abi"
	"github.com/wippyai/classbridge/variant"
)

func (c *class) wireVersioned(info *abi.ClassCreationInfo) {
	info.CreateInstanceFunc = c.create
	info.GetVirtualFunc = func(ud abi.ClassUserdata, name variant.StringName) abi.CallVirtual {
		return c.getVirtual(ud, name, 0)
	}
	if c.onNotification != nil {
		info.NotificationFunc = c.notification
	}
}

func (c *class) create(ud abi.ClassUserdata) abi.ObjectPtr {
	obj, _ := c.createObject(ud)
	return obj
}

func (c *class) defaultVirtualFunc() abi.GetVirtualFunc {
	return func(ud abi.ClassUserdata, name variant.StringName) abi.CallVirtual {
		return c.defaultGetVirtual(ud, name, 0)
	}
}
