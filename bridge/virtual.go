package bridge

import (
	"reflect"
	"strconv"

	"github.com/wippyai/classbridge/abi"
	"github.com/wippyai/classbridge/errors"
	"github.com/wippyai/classbridge/storage"
	"github.com/wippyai/classbridge/variant"
)

var errorType = reflect.TypeFor[error]()

func storageHandle(p abi.InstancePtr) storage.Handle { return storage.FromPtr(p) }

// thunk validates a user override and wraps it as a host call thunk.
func (c *class) thunk(vname string, fn any) (abi.CallVirtual, error) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		return nil, errors.Registration(c.name, "override %s is %T, not a function", vname, fn)
	}
	ft := fv.Type()
	if ft.IsVariadic() {
		return nil, errors.Registration(c.name, "override %s must not be variadic", vname)
	}
	self := reflect.PointerTo(c.goType)
	if ft.NumIn() == 0 || ft.In(0) != self {
		return nil, errors.Registration(c.name, "override %s must take %s as its first parameter", vname, self)
	}
	for i := 1; i < ft.NumIn(); i++ {
		zero := reflect.Zero(ft.In(i)).Interface()
		if _, err := variant.From(zero); err != nil && ft.In(i).Kind() != reflect.Interface {
			return nil, errors.Registration(c.name, "override %s: parameter %d type %s has no host representation", vname, i, ft.In(i))
		}
	}

	hasValue, hasErr := false, false
	switch ft.NumOut() {
	case 0:
	case 1:
		if ft.Out(0) == errorType {
			hasErr = true
		} else {
			hasValue = true
		}
	case 2:
		if ft.Out(1) != errorType {
			return nil, errors.Registration(c.name, "override %s: second result must be error", vname)
		}
		hasValue, hasErr = true, true
	default:
		return nil, errors.Registration(c.name, "override %s returns too many values", vname)
	}

	nargs := ft.NumIn() - 1
	return func(ptr abi.InstancePtr, args []variant.Variant, ret *variant.Variant) {
		c.lib.invoke(c.name, vname, func() error {
			if len(args) != nargs {
				return errors.New(errors.PhaseMarshal, errors.KindInvalidInput).
					Class(c.name).
					Path(vname).
					Detail("got %d arguments, want %d", len(args), nargs).
					Build()
			}
			in := make([]reflect.Value, 1, nargs+1)
			for i, a := range args {
				arg, err := variant.To(a, ft.In(i+1))
				if err != nil {
					var e *errors.Error
					if errors.As(err, &e) {
						e.Path = append([]string{vname, "arg" + strconv.Itoa(i)}, e.Path...)
					}
					return err
				}
				in = append(in, arg)
			}

			var out []reflect.Value
			c.lib.store.Get(storageHandle(ptr)).BorrowMut(func(v any) {
				in[0] = c.value(v)
				out = fv.Call(in)
			})

			if hasErr {
				if errv := out[len(out)-1]; !errv.IsNil() {
					return errv.Interface().(error)
				}
			}
			if hasValue && ret != nil {
				r, err := variant.From(out[0].Interface())
				if err != nil {
					return err
				}
				*ret = r
			}
			return nil
		})
	}, nil
}
