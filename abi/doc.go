// Package abi describes the C ABI of the Lean 4 runtime as a Go interface.
//
// Everything in this module reaches the foreign runtime through ABI. Three
// backends implement it:
//
//	abi/heap    A pure-Go simulated runtime with reference counting,
//	            lifecycle checks and introspection; used by tests and demos
//	abi/native  cgo bindings against lean/lean.h (build tag "lean")
//	abi/wasm    A wasm-compiled Lean runtime hosted by wazero
//
// # Objects
//
// An Object is an opaque pointer. Small scalars are stored inline as tagged
// pointers (low bit set), exactly like lean_box:
//
//	o := abi.Box(42)
//	abi.IsScalar(o) // true
//	abi.Unbox(o)    // 42
//
// Heap objects carry a reference count that callers adjust with Inc and Dec.
// The ownership rules for each entry point are documented on the ABI
// methods; package object wraps them in borrowed and owned handle types so
// user code rarely calls them directly.
//
// # Lifecycle Contract
//
// The entry points must be called in this order:
//
//	SetupArgs
//	InitializeRuntimeModule or Initialize
//	module initializers
//	IOMarkEndInitialization
//	InitTaskManager
//	... user code, InitializeThread/FinalizeThread per extra thread ...
//	FinalizeTaskManager
//
// Package runtime enforces this sequence.
package abi
