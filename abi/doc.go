// Package abi defines the fixed boundary between the host engine and the
// extension: opaque pointer types, callback signatures, the host-provided
// function table and the per-class registration descriptor.
//
// # Build-time signature selection
//
// Some callback signatures changed between host API generations. Exactly one
// signature set is compiled into a build:
//
//	default              API 4.4: get_virtual carries a method hash,
//	                     create carries notify_postinitialize,
//	                     notification carries a reversed flag
//	-tags gdext_legacy   API 4.1: name-only virtual lookup, no extra flags
//
// Host-side adapters call callbacks through ClassCreationInfo.Create,
// ResolveVirtual and Notify, which are defined in the same build-tagged files
// as the signatures. Nothing branches on ABI shape at runtime.
//
// # Engine metadata
//
// The package carries the engine class hierarchy and the compatibility hashes
// of virtual methods the bridge can override (KnownVirtualHash).
package abi
