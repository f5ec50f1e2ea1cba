package variant

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// wire is the CBOR shape of a Variant. Keys are small integers to keep
// payloads compact when they cross guest memory.
type wire struct {
	D map[string]wire `cbor:"6,keyasint,omitempty"`
	S string          `cbor:"4,keyasint,omitempty"`
	A []wire          `cbor:"5,keyasint,omitempty"`
	I int64           `cbor:"2,keyasint,omitempty"`
	F float64         `cbor:"3,keyasint,omitempty"`
	T Type            `cbor:"0,keyasint"`
	B bool            `cbor:"1,keyasint,omitempty"`
}

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("variant: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

// Marshal encodes v as deterministic CBOR.
func Marshal(v Variant) ([]byte, error) {
	return encMode.Marshal(toWire(v))
}

// Unmarshal decodes a Variant produced by Marshal.
func Unmarshal(data []byte) (Variant, error) {
	var w wire
	if err := cbor.Unmarshal(data, &w); err != nil {
		return Nil(), fmt.Errorf("variant: unmarshal: %w", err)
	}
	return fromWire(w)
}

func toWire(v Variant) wire {
	w := wire{T: v.t}
	switch v.t {
	case TypeBool:
		w.B = v.v.(bool)
	case TypeInt:
		w.I = v.v.(int64)
	case TypeFloat:
		w.F = v.v.(float64)
	case TypeString:
		w.S = v.v.(string)
	case TypeStringName:
		w.S = v.v.(StringName).String()
	case TypeObject:
		w.I = int64(v.v.(ObjectID))
	case TypeArray:
		items := v.v.([]Variant)
		w.A = make([]wire, len(items))
		for i, it := range items {
			w.A[i] = toWire(it)
		}
	case TypeDictionary:
		d := v.v.(map[string]Variant)
		w.D = make(map[string]wire, len(d))
		for k, it := range d {
			w.D[k] = toWire(it)
		}
	}
	return w
}

func fromWire(w wire) (Variant, error) {
	switch w.T {
	case TypeNil:
		return Nil(), nil
	case TypeBool:
		return Bool(w.B), nil
	case TypeInt:
		return Int(w.I), nil
	case TypeFloat:
		return Float(w.F), nil
	case TypeString:
		return String(w.S), nil
	case TypeStringName:
		return FromName(Name(w.S)), nil
	case TypeObject:
		return Object(ObjectID(w.I)), nil
	case TypeArray:
		items := make([]Variant, len(w.A))
		for i, it := range w.A {
			v, err := fromWire(it)
			if err != nil {
				return Nil(), err
			}
			items[i] = v
		}
		return Variant{t: TypeArray, v: items}, nil
	case TypeDictionary:
		d := make(map[string]Variant, len(w.D))
		for k, it := range w.D {
			v, err := fromWire(it)
			if err != nil {
				return Nil(), err
			}
			d[k] = v
		}
		return Variant{t: TypeDictionary, v: d}, nil
	}
	return Nil(), fmt.Errorf("variant: unknown type tag %d", w.T)
}
