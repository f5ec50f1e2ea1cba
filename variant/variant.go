package variant

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Type is the dynamic type tag of a Variant.
type Type uint8

const (
	TypeNil Type = iota
	TypeBool
	TypeInt
	TypeFloat
	TypeString
	TypeStringName
	TypeObject
	TypeArray
	TypeDictionary
)

var typeNames = [...]string{
	TypeNil:        "Nil",
	TypeBool:       "bool",
	TypeInt:        "int",
	TypeFloat:      "float",
	TypeString:     "String",
	TypeStringName: "StringName",
	TypeObject:     "Object",
	TypeArray:      "Array",
	TypeDictionary: "Dictionary",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Type(" + strconv.Itoa(int(t)) + ")"
}

// ObjectID identifies a host object inside a Variant. It is never dereferenced.
type ObjectID uint64

// Variant is the host's dynamically typed value. The zero value is Nil.
type Variant struct {
	v any
	t Type
}

// Nil returns the nil variant.
func Nil() Variant { return Variant{} }

// Bool wraps a bool.
func Bool(b bool) Variant { return Variant{t: TypeBool, v: b} }

// Int wraps a 64-bit integer.
func Int(i int64) Variant { return Variant{t: TypeInt, v: i} }

// Float wraps a 64-bit float.
func Float(f float64) Variant { return Variant{t: TypeFloat, v: f} }

// String wraps a string.
func String(s string) Variant { return Variant{t: TypeString, v: s} }

// FromName wraps an interned name.
func FromName(n StringName) Variant { return Variant{t: TypeStringName, v: n} }

// Object wraps a host object reference.
func Object(id ObjectID) Variant { return Variant{t: TypeObject, v: id} }

// Array wraps a list of variants. The slice is copied.
func Array(items ...Variant) Variant {
	cp := make([]Variant, len(items))
	copy(cp, items)
	return Variant{t: TypeArray, v: cp}
}

// Dictionary wraps a string-keyed map. The map is copied.
func Dictionary(m map[string]Variant) Variant {
	cp := make(map[string]Variant, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Variant{t: TypeDictionary, v: cp}
}

// Type returns the dynamic type.
func (v Variant) Type() Type { return v.t }

// IsNil reports whether v holds no value.
func (v Variant) IsNil() bool { return v.t == TypeNil }

func (v Variant) AsBool() (bool, bool) {
	b, ok := v.v.(bool)
	return b, ok && v.t == TypeBool
}

func (v Variant) AsInt() (int64, bool) {
	i, ok := v.v.(int64)
	return i, ok && v.t == TypeInt
}

// AsFloat also accepts integers, which the host widens implicitly.
func (v Variant) AsFloat() (float64, bool) {
	switch v.t {
	case TypeFloat:
		return v.v.(float64), true
	case TypeInt:
		return float64(v.v.(int64)), true
	}
	return 0, false
}

// AsString also accepts StringName.
func (v Variant) AsString() (string, bool) {
	switch v.t {
	case TypeString:
		return v.v.(string), true
	case TypeStringName:
		return v.v.(StringName).String(), true
	}
	return "", false
}

// AsName also accepts String, interning it.
func (v Variant) AsName() (StringName, bool) {
	switch v.t {
	case TypeStringName:
		return v.v.(StringName), true
	case TypeString:
		return Name(v.v.(string)), true
	}
	return StringName{}, false
}

func (v Variant) AsObject() (ObjectID, bool) {
	id, ok := v.v.(ObjectID)
	return id, ok && v.t == TypeObject
}

func (v Variant) AsArray() ([]Variant, bool) {
	a, ok := v.v.([]Variant)
	return a, ok && v.t == TypeArray
}

func (v Variant) AsDictionary() (map[string]Variant, bool) {
	d, ok := v.v.(map[string]Variant)
	return d, ok && v.t == TypeDictionary
}

// Interface returns the natural Go value held by v.
func (v Variant) Interface() any {
	switch v.t {
	case TypeNil:
		return nil
	case TypeArray:
		items := v.v.([]Variant)
		out := make([]any, len(items))
		for i, it := range items {
			out[i] = it.Interface()
		}
		return out
	case TypeDictionary:
		d := v.v.(map[string]Variant)
		out := make(map[string]any, len(d))
		for k, it := range d {
			out[k] = it.Interface()
		}
		return out
	}
	return v.v
}

// Equal reports deep equality. Floats compare by value, NaN equals NaN.
func Equal(a, b Variant) bool {
	if a.t != b.t {
		return false
	}
	switch a.t {
	case TypeNil:
		return true
	case TypeFloat:
		x, y := a.v.(float64), b.v.(float64)
		return x == y || (math.IsNaN(x) && math.IsNaN(y))
	case TypeArray:
		x, y := a.v.([]Variant), b.v.([]Variant)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case TypeDictionary:
		x, y := a.v.(map[string]Variant), b.v.(map[string]Variant)
		if len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	}
	return a.v == b.v
}

// String renders v the way the host prints values.
func (v Variant) String() string {
	switch v.t {
	case TypeNil:
		return "<null>"
	case TypeString:
		return v.v.(string)
	case TypeStringName:
		return "&" + strconv.Quote(v.v.(StringName).String())
	case TypeObject:
		return fmt.Sprintf("<Object#%d>", v.v.(ObjectID))
	case TypeFloat:
		return strconv.FormatFloat(v.v.(float64), 'g', -1, 64)
	case TypeArray:
		items := v.v.([]Variant)
		parts := make([]string, len(items))
		for i, it := range items {
			parts[i] = it.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case TypeDictionary:
		d := v.v.(map[string]Variant)
		keys := make([]string, 0, len(d))
		for k := range d {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = strconv.Quote(k) + ": " + d[k].String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return fmt.Sprint(v.v)
}
