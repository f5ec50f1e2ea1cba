package bridge

import (
	"reflect"

	"github.com/wippyai/classbridge/abi"
	"github.com/wippyai/classbridge/errors"
	"github.com/wippyai/classbridge/property"
	"github.com/wippyai/classbridge/variant"
)

// Access selects which accessors of a Var are exposed.
type Access uint8

const (
	ReadWrite Access = iota
	ReadOnly         // setter omitted
	WriteOnly        // getter omitted
)

// Var declares a typed property.
//
// By default the getter and setter are generated from the struct field
// named Field (or Name when Field is empty). Get and Set replace them with
// custom functions of shape func(*T) V and func(*T, V).
type Var struct {
	Name  string
	Field string
	Get   any
	Set   any
	// Default, when non-nil, is the value the property reverts to.
	Default    any
	HintString string
	Hint       property.Hint
	Usage      property.Usage
	Access     Access
}

type boundVar struct {
	get        func(v any) (variant.Variant, error)
	set        func(v any, val variant.Variant) error
	def        variant.Variant
	info       property.Info
	hasDefault bool
}

func bindVar(c *class, v *Var) (*boundVar, error) {
	if v.Name == "" {
		return nil, errors.Registration(c.name, "var with empty name")
	}
	ptrType := reflect.PointerTo(c.goType)
	bv := &boundVar{}
	var valueType reflect.Type

	field := v.Field
	if field == "" {
		field = v.Name
	}
	sf, hasField := c.goType.FieldByName(field)
	if hasField && !sf.IsExported() {
		hasField = false
	}

	if v.Access != WriteOnly {
		switch {
		case v.Get != nil:
			fn := reflect.ValueOf(v.Get)
			ft := fn.Type()
			if ft.Kind() != reflect.Func || ft.NumIn() != 1 || ft.In(0) != ptrType || ft.NumOut() != 1 {
				return nil, errors.Registration(c.name, "var %s: getter must be func(%s) V", v.Name, ptrType)
			}
			valueType = ft.Out(0)
			bv.get = func(self any) (variant.Variant, error) {
				return variant.From(fn.Call([]reflect.Value{reflect.ValueOf(self)})[0].Interface())
			}
		case hasField:
			idx := sf.Index
			valueType = sf.Type
			bv.get = func(self any) (variant.Variant, error) {
				return variant.From(reflect.ValueOf(self).Elem().FieldByIndex(idx).Interface())
			}
		default:
			return nil, errors.Registration(c.name, "var %s: no field %s and no getter", v.Name, field)
		}
	}

	if v.Access != ReadOnly {
		switch {
		case v.Set != nil:
			fn := reflect.ValueOf(v.Set)
			ft := fn.Type()
			if ft.Kind() != reflect.Func || ft.NumIn() != 2 || ft.In(0) != ptrType || ft.NumOut() != 0 {
				return nil, errors.Registration(c.name, "var %s: setter must be func(%s, V)", v.Name, ptrType)
			}
			in := ft.In(1)
			if valueType != nil && valueType != in {
				return nil, errors.Registration(c.name, "var %s: getter returns %s but setter takes %s", v.Name, valueType, in)
			}
			valueType = in
			bv.set = func(self any, val variant.Variant) error {
				arg, err := variant.To(val, in)
				if err != nil {
					return err
				}
				fn.Call([]reflect.Value{reflect.ValueOf(self), arg})
				return nil
			}
		case hasField:
			idx := sf.Index
			ftype := sf.Type
			if valueType != nil && valueType != ftype {
				return nil, errors.Registration(c.name, "var %s: getter returns %s but field is %s", v.Name, valueType, ftype)
			}
			valueType = ftype
			bv.set = func(self any, val variant.Variant) error {
				arg, err := variant.To(val, ftype)
				if err != nil {
					return err
				}
				reflect.ValueOf(self).Elem().FieldByIndex(idx).Set(arg)
				return nil
			}
		default:
			return nil, errors.Registration(c.name, "var %s: no field %s and no setter", v.Name, field)
		}
	}

	zero, err := variant.From(reflect.Zero(valueType).Interface())
	if err != nil {
		return nil, errors.Registration(c.name, "var %s: type %s has no host representation", v.Name, valueType)
	}

	if v.Default != nil {
		def, err := variant.From(v.Default)
		if err != nil {
			return nil, errors.Registration(c.name, "var %s: default: %v", v.Name, err)
		}
		if _, err := variant.To(def, valueType); err != nil {
			return nil, errors.Registration(c.name, "var %s: default %v does not fit %s", v.Name, def, valueType)
		}
		bv.def = def
		bv.hasDefault = true
	}

	usage := v.Usage
	if usage == property.UsageNone {
		usage = property.UsageDefault
	}
	bv.info = property.Info{
		Name:       v.Name,
		ClassName:  c.name,
		HintString: v.HintString,
		Hint:       v.Hint,
		Usage:      usage,
		Type:       zero.Type(),
	}
	return bv, nil
}

// accessor registers the var with the host as a typed property.
func (bv *boundVar) accessor(c *class) abi.PropertyAccessor {
	var get func(abi.InstancePtr) variant.Variant
	var set func(abi.InstancePtr, variant.Variant)
	name := bv.info.Name

	if bv.get != nil {
		get = func(ptr abi.InstancePtr) variant.Variant {
			out := variant.Nil()
			c.lib.invoke(c.name, "get "+name, func() error {
				var err error
				c.lib.store.Get(storageHandle(ptr)).Borrow(func(v any) {
					out, err = bv.get(c.value(v).Interface())
				})
				return err
			})
			return out
		}
	}
	if bv.set != nil {
		set = func(ptr abi.InstancePtr, val variant.Variant) {
			c.lib.invoke(c.name, "set "+name, func() error {
				var err error
				c.lib.store.Get(storageHandle(ptr)).BorrowMut(func(v any) {
					err = bv.set(c.value(v).Interface(), val)
				})
				return err
			})
		}
	}
	return bv.info.Accessor(get, set)
}
