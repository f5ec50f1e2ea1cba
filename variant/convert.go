package variant

import (
	"math"
	"reflect"

	"github.com/wippyai/classbridge/errors"
)

var (
	variantType = reflect.TypeOf(Variant{})
	nameType    = reflect.TypeOf(StringName{})
	objectType  = reflect.TypeOf(ObjectID(0))
)

// From converts a Go value into a Variant.
//
// Supported: nil, Variant, bool, all integer kinds, float32/64, string,
// StringName, ObjectID, slices/arrays of supported values and string-keyed
// maps of supported values.
func From(x any) (Variant, error) {
	if x == nil {
		return Nil(), nil
	}
	switch v := x.(type) {
	case Variant:
		return v, nil
	case StringName:
		return FromName(v), nil
	case ObjectID:
		return Object(v), nil
	}
	return fromValue(reflect.ValueOf(x))
}

// MustFrom is From for values known to be convertible.
func MustFrom(x any) Variant {
	v, err := From(x)
	if err != nil {
		panic(err)
	}
	return v
}

func fromValue(rv reflect.Value) (Variant, error) {
	if !rv.IsValid() {
		return Nil(), nil
	}
	switch rv.Type() {
	case variantType:
		return rv.Interface().(Variant), nil
	case nameType:
		return FromName(rv.Interface().(StringName)), nil
	case objectType:
		return Object(rv.Interface().(ObjectID)), nil
	}

	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return Nil(), errors.Overflow(errors.PhaseMarshal, nil, u, "int")
		}
		return Int(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Array(), nil
		}
		items := make([]Variant, rv.Len())
		for i := range items {
			item, err := fromValue(rv.Index(i))
			if err != nil {
				return Nil(), err
			}
			items[i] = item
		}
		return Variant{t: TypeArray, v: items}, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		d := make(map[string]Variant, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			item, err := fromValue(iter.Value())
			if err != nil {
				return Nil(), err
			}
			d[iter.Key().String()] = item
		}
		return Variant{t: TypeDictionary, v: d}, nil
	case reflect.Interface, reflect.Pointer:
		if rv.IsNil() {
			return Nil(), nil
		}
		if rv.Kind() == reflect.Interface {
			return fromValue(rv.Elem())
		}
	}
	return Nil(), errors.New(errors.PhaseMarshal, errors.KindTypeMismatch).
		GoType(rv.Type().String()).
		Detail("no host representation").
		Build()
}

// Into converts v to T.
func Into[T any](v Variant) (T, error) {
	var zero T
	rv, err := To(v, reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}
	return rv.Interface().(T), nil
}

// To converts v into a value of type t.
func To(v Variant, t reflect.Type) (reflect.Value, error) {
	switch t {
	case variantType:
		return reflect.ValueOf(v), nil
	case nameType:
		if n, ok := v.AsName(); ok {
			return reflect.ValueOf(n), nil
		}
		return reflect.Value{}, mismatch(v, t)
	case objectType:
		if id, ok := v.AsObject(); ok {
			return reflect.ValueOf(id), nil
		}
		if v.IsNil() {
			return reflect.ValueOf(ObjectID(0)), nil
		}
		return reflect.Value{}, mismatch(v, t)
	}

	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Bool:
		b, ok := v.AsBool()
		if !ok {
			return reflect.Value{}, mismatch(v, t)
		}
		out.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, ok := v.AsInt()
		if !ok {
			return reflect.Value{}, mismatch(v, t)
		}
		if out.OverflowInt(i) {
			return reflect.Value{}, errors.Overflow(errors.PhaseMarshal, nil, i, t.String())
		}
		out.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		i, ok := v.AsInt()
		if !ok {
			return reflect.Value{}, mismatch(v, t)
		}
		if i < 0 || out.OverflowUint(uint64(i)) {
			return reflect.Value{}, errors.Overflow(errors.PhaseMarshal, nil, i, t.String())
		}
		out.SetUint(uint64(i))
	case reflect.Float32, reflect.Float64:
		f, ok := v.AsFloat()
		if !ok {
			return reflect.Value{}, mismatch(v, t)
		}
		out.SetFloat(f)
	case reflect.String:
		s, ok := v.AsString()
		if !ok {
			return reflect.Value{}, mismatch(v, t)
		}
		out.SetString(s)
	case reflect.Slice:
		items, ok := v.AsArray()
		if !ok {
			return reflect.Value{}, mismatch(v, t)
		}
		s := reflect.MakeSlice(t, len(items), len(items))
		for i, item := range items {
			ev, err := To(item, t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			s.Index(i).Set(ev)
		}
		out.Set(s)
	case reflect.Map:
		d, ok := v.AsDictionary()
		if !ok || t.Key().Kind() != reflect.String {
			return reflect.Value{}, mismatch(v, t)
		}
		m := reflect.MakeMapWithSize(t, len(d))
		for k, item := range d {
			ev, err := To(item, t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			m.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), ev)
		}
		out.Set(m)
	case reflect.Interface:
		if x := v.Interface(); x != nil {
			xv := reflect.ValueOf(x)
			if !xv.Type().AssignableTo(t) {
				return reflect.Value{}, mismatch(v, t)
			}
			out.Set(xv)
		}
	default:
		return reflect.Value{}, mismatch(v, t)
	}
	return out, nil
}

func mismatch(v Variant, t reflect.Type) *errors.Error {
	return errors.TypeMismatch(errors.PhaseMarshal, nil, t.String(), v.Type().String())
}
