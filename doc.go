// Package classbridge lets Go types act as classes of a host game engine
// through the engine's C extension interface.
//
// The engine owns every native object. An extension registers class
// descriptors holding callback pointers; the engine later calls back to
// create and free instances, adjust reference counts, resolve virtual
// method overrides, deliver notifications, and read or write properties.
//
// # Architecture Overview
//
//	classbridge/
//	├── abi/         Boundary types, callback signatures, engine class metadata
//	├── storage/     Generational instance table with borrow tracking
//	├── dispatch/    Per-class virtual method tables and ready hook sequencing
//	├── property/    Property metadata and lent property-list bookkeeping
//	├── bridge/      Class definitions, descriptors and every host callback
//	├── variant/     Host dynamic values, Go conversions and CBOR codec
//	├── errors/      Structured error types
//	├── config/      Extension manifest (TOML) loading and validation
//	├── hostsim/     In-process engine used by tests and tools
//	├── wasmhost/    The engine's driving operations as a wazero host module
//	└── cmd/gdx/     Inspector CLI
//
// # Quick Start
//
//	lib, err := bridge.NewLibrary(host)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = bridge.Define(lib, bridge.ClassDef[Player]{
//	    Name:  "Player",
//	    Base:  "Node2D",
//	    Level: abi.InitScene,
//	    Virtuals: map[string]any{
//	        "ready":   (*Player).Ready,
//	        "process": (*Player).Process,
//	    },
//	    Vars: []bridge.Var{{Name: "health", Field: "Health", Default: 100}},
//	})
//
//	lib.Initialize(abi.InitScene)
//
// # ABI Generations
//
// The default build targets host API 4.4, where virtual lookups carry a
// method hash. Build with -tags gdext_legacy for API 4.1 hosts. See package
// abi.
package classbridge
