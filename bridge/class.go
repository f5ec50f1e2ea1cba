package bridge

import (
	"reflect"
	"sort"

	"github.com/wippyai/classbridge/abi"
	"github.com/wippyai/classbridge/dispatch"
	"github.com/wippyai/classbridge/errors"
	"github.com/wippyai/classbridge/property"
	"github.com/wippyai/classbridge/variant"
)

// ClassDef declares an extension class backed by Go struct T. Only Name and
// Base are required; every optional callback left nil stays unwired in the
// descriptor so the host applies its own default.
type ClassDef[T any] struct {
	// Name is the class name as seen by the host.
	Name string
	// Base is the host class this class derives from.
	Base string
	// Level is the initialization stage the class registers at.
	Level abi.InitLevel
	// Abstract classes cannot be instantiated by the host.
	Abstract bool

	// Init builds the value for a new host object. When nil, new(T) is
	// used. If T embeds Base it is bound before Init's result is stored.
	Init func(base Base) *T

	// Virtuals maps override names ("ready", "process", "_draw") to
	// functions taking *T first, then the method's arguments. A function
	// may return nothing, a value, an error, or a value and an error.
	Virtuals map[string]any

	// Vars are typed properties registered with the host.
	Vars []Var

	ToString          func(self *T) string
	OnNotification    func(self *T, what int32)
	GetProperty       func(self *T, name string) (variant.Variant, bool)
	SetProperty       func(self *T, name string, value variant.Variant) bool
	GetPropertyList   func(self *T) []property.Info
	PropertyGetRevert func(self *T, name string) (variant.Variant, bool)

	// BeforeReady runs after OnReady fields are initialized and before the
	// ready override, on every ready delivery.
	BeforeReady func(self *T)
	// Destroy runs while the instance is being freed.
	Destroy func(self *T)
}

// class is the type-erased form of a ClassDef held by the library.
type class struct {
	lib        *Library
	goType     reflect.Type
	virtuals   *dispatch.Table
	defaults   *dispatch.Table
	info       *abi.ClassCreationInfo
	name       string
	base       string
	readyIdx   [][]int
	vars       []*boundVar
	userdata   abi.ClassUserdata
	level      abi.InitLevel
	abstract   bool
	refCounted bool

	factory        func(Base) any
	toString       func(any) string
	onNotification func(any, int32)
	getProperty    func(any, string) (variant.Variant, bool)
	setProperty    func(any, string, variant.Variant) bool
	propertyList   func(any) []property.Info
	getRevert      func(any, string) (variant.Variant, bool)
	beforeReady    func(any)
	destroy        func(any)
}

// Define validates def and adds the class to lib.
func Define[T any](lib *Library, def ClassDef[T]) error {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		return errors.Registration(def.Name, "class type %s must be a struct", t)
	}
	if def.Name == "" {
		return errors.Registration(t.Name(), "class name is empty")
	}
	if def.Base == "" {
		return errors.Registration(def.Name, "base class is empty")
	}
	if abi.IsEngineClass(def.Name) {
		return errors.Registration(def.Name, "class name collides with a host class")
	}

	c := &class{
		lib:        lib,
		goType:     t,
		name:       def.Name,
		base:       def.Base,
		level:      def.Level,
		abstract:   def.Abstract,
		refCounted: abi.Inherits(def.Base, "RefCounted"),
	}

	idx, err := readyFields(t)
	if err != nil {
		return err
	}
	c.readyIdx = idx

	init := def.Init
	c.factory = func(b Base) any {
		var v *T
		if init != nil {
			v = init(b)
		}
		if v == nil {
			v = new(T)
		}
		if bb, ok := any(v).(baseBinder); ok {
			bb.bindBase(b)
		}
		return v
	}
	if f := def.ToString; f != nil {
		c.toString = func(v any) string { return f(v.(*T)) }
	}
	if f := def.OnNotification; f != nil {
		c.onNotification = func(v any, what int32) { f(v.(*T), what) }
	}
	if f := def.GetProperty; f != nil {
		c.getProperty = func(v any, name string) (variant.Variant, bool) { return f(v.(*T), name) }
	}
	if f := def.SetProperty; f != nil {
		c.setProperty = func(v any, name string, val variant.Variant) bool { return f(v.(*T), name, val) }
	}
	if f := def.GetPropertyList; f != nil {
		c.propertyList = func(v any) []property.Info { return f(v.(*T)) }
	}
	if f := def.PropertyGetRevert; f != nil {
		c.getRevert = func(v any, name string) (variant.Variant, bool) { return f(v.(*T), name) }
	}
	if f := def.BeforeReady; f != nil {
		c.beforeReady = func(v any) { f(v.(*T)) }
	}
	if f := def.Destroy; f != nil {
		c.destroy = func(v any) { f(v.(*T)) }
	}

	for i := range def.Vars {
		bv, err := bindVar(c, &def.Vars[i])
		if err != nil {
			return err
		}
		c.vars = append(c.vars, bv)
	}

	if err := c.buildVirtuals(def.Virtuals); err != nil {
		return err
	}
	return lib.addClass(c)
}

// hashBase is the host class whose virtual signatures apply to c. Bases the
// bridge has no metadata for are treated as nodes when they may be one.
func (c *class) hashBase() string {
	if !abi.IsEngineClass(c.base) && abi.IsPossiblyNodeClass(c.base) {
		return "Node"
	}
	return c.base
}

func (c *class) buildVirtuals(overrides map[string]any) error {
	var hook, builtin dispatch.Hook
	nodeLike := abi.IsPossiblyNodeClass(c.base)
	if nodeLike {
		hook = c.runBeforeReady
		builtin = c.runInitReady
	}
	c.virtuals = dispatch.NewTable(c.name, hook)
	c.defaults = dispatch.DefaultTable(c.name, c.hashBase(), builtin)

	names := make([]string, 0, len(overrides))
	for n := range overrides {
		names = append(names, n)
	}
	sort.Strings(names)

	seen := make(map[string]string, len(names))
	for _, goName := range names {
		vname := dispatch.VirtualName(goName)
		if prev, dup := seen[vname]; dup {
			return errors.Registration(c.name, "overrides %q and %q both map to %s", prev, goName, vname)
		}
		seen[vname] = goName

		hash, known := abi.KnownVirtualHash(c.hashBase(), vname)
		if !known {
			return errors.Registration(c.name, "%s is not a virtual method of %s", vname, c.base)
		}
		call, err := c.thunk(vname, overrides[goName])
		if err != nil {
			return err
		}
		kind := dispatch.Without
		if vname == dispatch.ReadyMethod && nodeLike {
			kind = dispatch.WithBefore
		}
		if err := c.virtuals.Add(dispatch.Entry{
			Name:   variant.Name(vname),
			Hash:   hash,
			Before: kind,
			Call:   call,
		}); err != nil {
			return err
		}
	}
	if nodeLike {
		c.virtuals.InjectReady(dispatch.ReadyHash())
	}
	return nil
}

// runBeforeReady initializes OnReady fields and runs the user hook.
func (c *class) runBeforeReady(ptr abi.InstancePtr) {
	c.readyHook(ptr, true)
}

// runInitReady initializes OnReady fields only. default_get_virtual serves
// it so that no user code runs there.
func (c *class) runInitReady(ptr abi.InstancePtr) {
	c.readyHook(ptr, false)
}

func (c *class) readyHook(ptr abi.InstancePtr, user bool) {
	c.lib.invoke(c.name, "before_ready", func() error {
		inst := c.lib.store.Get(storageHandle(ptr))
		inst.BorrowMut(func(v any) {
			rv := c.value(v).Elem()
			for _, idx := range c.readyIdx {
				rv.FieldByIndex(idx).Addr().Interface().(readyInitializer).initReady()
			}
			if user && c.beforeReady != nil {
				c.beforeReady(v)
			}
		})
		return nil
	})
}

// value checks that a stored value belongs to this class.
func (c *class) value(v any) reflect.Value {
	rv := reflect.ValueOf(v)
	if rv.Type() != reflect.PointerTo(c.goType) {
		panic(errors.New(errors.PhaseBorrow, errors.KindContractViolation).
			Class(c.name).
			GoType(rv.Type().String()).
			Detail("instance does not belong to class").
			Build())
	}
	return rv
}

// revert returns the default value of a property, if it has one.
func (c *class) revert(v any, name string) (variant.Variant, bool) {
	if c.getRevert != nil {
		if val, ok := c.getRevert(v, name); ok {
			return val, true
		}
	}
	for _, bv := range c.vars {
		if bv.info.Name == name && bv.hasDefault {
			return bv.def, true
		}
	}
	return variant.Nil(), false
}

func (c *class) hasRevert() bool {
	if c.getRevert != nil {
		return true
	}
	for _, bv := range c.vars {
		if bv.hasDefault {
			return true
		}
	}
	return false
}
