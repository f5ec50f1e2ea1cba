// Package wasmhost exposes a simulated engine to WebAssembly guests through
// a wazero host module named "gdext". A guest compiled to wasm can then act
// as the engine's driver: it creates objects of extension classes, resolves
// and calls virtuals, delivers notifications and reads or writes properties.
//
// Calling convention:
//
//	intern(ptr, len) -> id                    string -> id (0 on failure)
//	create_instance(class_id) -> object       0 on failure
//	free_instance / reference / unreference(object) -> status
//	get_virtual(object, method_id) -> status  -1 when not overridden
//	call_virtual(object, method_id, args_ptr, args_len, out_ptr, out_cap) -> len
//	notification(object, what) -> status
//	get_property / property_get_revert(object, name_id, out_ptr, out_cap) -> len
//	set_property(object, name_id, ptr, len) -> status
//	property_can_revert(object, name_id) -> 0 | 1
//	property_list_count(object) -> n
//	to_string(object, out_ptr, out_cap) -> len
//
// Values cross guest memory as CBOR-encoded variants (variant.Marshal).
// Negative results: -1 none, -2 failed, -3 buffer too small, -4 bad memory
// access.
package wasmhost
