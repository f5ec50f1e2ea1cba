package bridge

import (
	"go.uber.org/zap"

	"github.com/wippyai/classbridge/abi"
	"github.com/wippyai/classbridge/errors"
	"github.com/wippyai/classbridge/storage"
	"github.com/wippyai/classbridge/variant"
)

// descriptor builds, once, the class's registration descriptor. Optional
// callbacks are wired only when the class provides the feature.
func (c *class) descriptor() *abi.ClassCreationInfo {
	c.lib.mu.Lock()
	defer c.lib.mu.Unlock()
	if c.info != nil {
		return c.info
	}

	info := &abi.ClassCreationInfo{
		RecreateInstanceFunc: c.recreate,
		FreeInstanceFunc:     c.free,
		ReferenceFunc:        c.reference,
		UnreferenceFunc:      c.unreference,
		ClassName:            variant.Name(c.name),
		ParentName:           variant.Name(c.base),
		ClassUserdata:        c.userdata,
		InitLevel:            c.level,
		IsAbstract:           c.abstract,
		IsExposed:            true,
		IsRefCounted:         c.refCounted,
	}
	c.wireVersioned(info)

	if c.toString != nil {
		info.ToStringFunc = c.toStringCallback
	}
	if c.getProperty != nil {
		info.GetFunc = c.getPropertyCallback
	}
	if c.setProperty != nil {
		info.SetFunc = c.setPropertyCallback
	}
	if c.propertyList != nil {
		info.GetPropertyListFunc = c.getPropertyList
		info.FreePropertyListFunc = c.freePropertyList
	}
	if c.hasRevert() {
		info.PropertyCanRevertFunc = c.propertyCanRevert
		info.PropertyGetRevertFunc = c.propertyGetRevert
	}
	for _, bv := range c.vars {
		info.Properties = append(info.Properties, bv.accessor(c))
	}
	c.info = info
	return info
}

// createObject constructs the host object for a new instance, then binds a
// fresh value to it. It returns a zero object if either step fails.
func (c *class) createObject(ud abi.ClassUserdata) (abi.ObjectPtr, *storage.Instance) {
	var obj, constructed abi.ObjectPtr
	var inst *storage.Instance
	ok := c.lib.invoke(c.name, "create", func() error {
		c.checkUserdata(ud)
		if c.abstract {
			return errors.New(errors.PhaseLifecycle, errors.KindUnsupported).
				Class(c.name).
				Detail("cannot instantiate abstract class").
				Build()
		}
		o := c.lib.host.ClassDBConstructObject(variant.Name(c.base))
		if o == 0 {
			return errors.New(errors.PhaseHost, errors.KindNotFound).
				Class(c.name).
				Detail("host could not construct base %s", c.base).
				Build()
		}
		constructed = o
		inst = c.bind(o)
		obj = o
		return nil
	})
	if !ok && constructed != 0 {
		c.lib.discard(c.name, constructed)
	}
	return obj, inst
}

// recreate binds a freshly built value to an existing host object. The host
// object itself is never constructed here.
func (c *class) recreate(ud abi.ClassUserdata, obj abi.ObjectPtr) abi.InstancePtr {
	var ptr abi.InstancePtr
	c.lib.invoke(c.name, "recreate", func() error {
		c.checkUserdata(ud)
		ptr = c.bind(obj).Handle().Ptr()
		return nil
	})
	return ptr
}

// bind runs the factory, stores the value and links it to obj. Linking
// happens only after the value is stored; the record is freed again if
// linking does not complete.
func (c *class) bind(obj abi.ObjectPtr) *storage.Instance {
	base := Base{object: obj, class: c.name, baseClass: c.base}
	value := c.factory(base)
	inst := c.lib.store.Insert(storage.Record{
		Value:      value,
		Class:      c.name,
		Object:     obj,
		RefCounted: c.refCounted,
	})
	linked := false
	defer func() {
		if !linked {
			c.lib.store.Free(inst.Handle(), nil)
		}
	}()
	ptr := inst.Handle().Ptr()
	c.lib.host.ObjectSetInstance(obj, variant.Name(c.name), ptr)
	c.lib.host.ObjectSetInstanceBinding(obj, c.lib.ptr, ptr, &abi.NopBindingCallbacks)
	linked = true
	return inst
}

func (c *class) free(ud abi.ClassUserdata, ptr abi.InstancePtr) {
	c.lib.invoke(c.name, "free", func() error {
		c.checkUserdata(ud)
		c.lib.store.Free(storageHandle(ptr), func(v any) {
			c.value(v)
			if c.destroy != nil {
				c.destroy(v)
			}
		})
		return nil
	})
}

func (c *class) reference(ptr abi.InstancePtr) {
	c.lib.invoke(c.name, "reference", func() error {
		c.lib.store.Get(storageHandle(ptr)).IncRef()
		return nil
	})
}

func (c *class) unreference(ptr abi.InstancePtr) {
	c.lib.invoke(c.name, "unreference", func() error {
		c.lib.store.Get(storageHandle(ptr)).DecRef()
		return nil
	})
}

func (c *class) checkUserdata(ud abi.ClassUserdata) {
	if owner := c.lib.classFor(ud); owner != c {
		panic(errors.New(errors.PhaseLifecycle, errors.KindContractViolation).
			Class(c.name).
			Detail("class userdata %d belongs to %s", ud, owner.name).
			Build())
	}
}

func (c *class) getVirtual(ud abi.ClassUserdata, name variant.StringName, hash uint32) abi.CallVirtual {
	var call abi.CallVirtual
	c.lib.invoke(c.name, "get_virtual", func() error {
		c.checkUserdata(ud)
		e, ok := c.virtuals.Lookup(name, hash)
		if !ok {
			if d, declared := c.virtuals.Declared(name); declared {
				Logger().Warn("virtual hash mismatch, falling back to host default",
					zap.String("class", c.name),
					zap.Stringer("method", name),
					zap.Uint32("want", d.Hash),
					zap.Uint32("got", hash))
			}
			return nil
		}
		call = e.Call
		return nil
	})
	return call
}

func (c *class) defaultGetVirtual(ud abi.ClassUserdata, name variant.StringName, hash uint32) abi.CallVirtual {
	var call abi.CallVirtual
	c.lib.invoke(c.name, "default_get_virtual", func() error {
		c.checkUserdata(ud)
		if e, ok := c.defaults.Lookup(name, hash); ok {
			call = e.Call
		}
		return nil
	})
	return call
}

func (c *class) notification(ptr abi.InstancePtr, what int32) {
	c.lib.invoke(c.name, "on_notification", func() error {
		c.lib.store.Get(storageHandle(ptr)).BorrowMut(func(v any) {
			c.value(v)
			c.onNotification(v, what)
		})
		return nil
	})
}

func (c *class) toStringCallback(ptr abi.InstancePtr, isValid *bool, out *string) {
	var s string
	ok := c.lib.invoke(c.name, "to_string", func() error {
		c.lib.store.Get(storageHandle(ptr)).Borrow(func(v any) {
			c.value(v)
			s = c.toString(v)
		})
		return nil
	})
	if ok {
		*out = s
	}
	*isValid = ok
}

func (c *class) getPropertyCallback(ptr abi.InstancePtr, name variant.StringName, ret *variant.Variant) bool {
	var val variant.Variant
	var found bool
	ok := c.lib.invoke(c.name, "get_property", func() error {
		c.lib.store.Get(storageHandle(ptr)).Borrow(func(v any) {
			c.value(v)
			val, found = c.getProperty(v, name.String())
		})
		return nil
	})
	if !ok || !found {
		return false
	}
	*ret = val
	return true
}

func (c *class) setPropertyCallback(ptr abi.InstancePtr, name variant.StringName, value variant.Variant) bool {
	var applied bool
	ok := c.lib.invoke(c.name, "set_property", func() error {
		c.lib.store.Get(storageHandle(ptr)).BorrowMut(func(v any) {
			c.value(v)
			applied = c.setProperty(v, name.String(), value)
		})
		return nil
	})
	return ok && applied
}

func (c *class) getPropertyList(ptr abi.InstancePtr, count *uint32) *abi.PropertyInfoSys {
	var head *abi.PropertyInfoSys
	var n uint32
	c.lib.invoke(c.name, "get_property_list", func() error {
		c.lib.store.Get(storageHandle(ptr)).BorrowMut(func(v any) {
			c.value(v)
			infos := c.propertyList(v)
			head, n = c.lib.ledger.Lend(infos)
		})
		return nil
	})
	*count = n
	return head
}

func (c *class) freePropertyList(_ abi.InstancePtr, list *abi.PropertyInfoSys, count uint32) {
	c.lib.invoke(c.name, "free_property_list", func() error {
		c.lib.ledger.Reclaim(list, count)
		return nil
	})
}

func (c *class) propertyGetRevert(ptr abi.InstancePtr, name variant.StringName, ret *variant.Variant) bool {
	var val variant.Variant
	var found bool
	ok := c.lib.invoke(c.name, "property_get_revert", func() error {
		c.lib.store.Get(storageHandle(ptr)).Borrow(func(v any) {
			c.value(v)
			val, found = c.revert(v, name.String())
		})
		return nil
	})
	if !ok || !found {
		return false
	}
	*ret = val
	return true
}

// propertyCanRevert is exactly "propertyGetRevert would return a value".
func (c *class) propertyCanRevert(ptr abi.InstancePtr, name variant.StringName) bool {
	var scratch variant.Variant
	return c.propertyGetRevert(ptr, name, &scratch)
}
