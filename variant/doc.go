// Package variant implements the host's dynamically typed value
// representation.
//
// Every value that crosses the ABI boundary (virtual call arguments, property
// values, revert defaults) travels as a Variant. StringName is the host's
// interned name type used for class, method and property names.
//
// Conversion to and from Go values is reflection based:
//
//	v, err := variant.From(42)          // Int
//	n, err := variant.Into[int32](v)    // 42, range checked
//
// Marshal and Unmarshal give a deterministic CBOR encoding used when values
// travel through a WASM guest's linear memory.
package variant
