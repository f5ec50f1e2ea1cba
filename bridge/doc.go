// Package bridge installs Go-defined classes into a host object model.
//
// A Library owns instance storage, the property-list ledger and the set of
// defined classes. Define validates a ClassDef and prepares its dispatch
// tables; Initialize hands each class's abi.ClassCreationInfo to the host.
//
//	lib, _ := bridge.NewLibrary(host)
//	_ = bridge.Define(lib, bridge.ClassDef[Player]{
//		Name: "Player",
//		Base: "Node2D",
//		Virtuals: map[string]any{
//			"ready":   (*Player).Ready,
//			"process": (*Player).Process,
//		},
//		Vars: []bridge.Var{{Name: "health", Field: "Health", Default: 100}},
//	})
//	_ = lib.Initialize(abi.InitScene)
//
// # Failure handling
//
// Contract violations (use after free, overlapping mutable borrows, property
// list misuse) reach the library's abort handler, which by default logs at
// fatal level and exits. Panics and errors from extension code go through
// the UnwindPolicy: UnwindRecover logs them and reports the callback's
// negative outcome, UnwindAbort escalates them like a violation.
//
// # Ready hook
//
// For bases that may derive from Node, the _ready virtual always exists.
// Before any user ready body it initializes OnReady fields and runs
// ClassDef.BeforeReady, on every ready delivery.
package bridge
