//go:build !gdext_legacy

package bridge

import "github.com/wippyai/classbridge/abi"

func (c *class) wireVersioned(info *abi.ClassCreationInfo) {
	info.CreateInstanceFunc = c.create
	info.GetVirtualFunc = c.getVirtual
	if c.onNotification != nil {
		info.NotificationFunc = func(ptr abi.InstancePtr, what int32, _ bool) {
			c.notification(ptr, what)
		}
	}
}

// create constructs and binds a new instance. When the host asks for it,
// the postinitialize notification is delivered before returning.
func (c *class) create(ud abi.ClassUserdata, notifyPostinitialize bool) abi.ObjectPtr {
	obj, inst := c.createObject(ud)
	if inst != nil && notifyPostinitialize && c.onNotification != nil {
		c.notification(inst.Handle().Ptr(), abi.NotificationPostinitialize)
	}
	return obj
}

func (c *class) defaultVirtualFunc() abi.GetVirtualFunc {
	return c.defaultGetVirtual
}
