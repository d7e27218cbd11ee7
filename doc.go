// Package leanruntime binds the Lean 4 runtime to Go.
//
// Lean compiles to C and links against a runtime that must be brought up in a
// fixed order: program arguments, the runtime or package initializer, each
// compiled module initializer, end of initialization, then the task manager.
// This module makes that order a Go type sequence and wraps Lean objects in
// handles with explicit ownership.
//
// # Architecture Overview
//
//	leanruntime/
//	├── abi/               Foreign entry points and pointer tagging
//	│   ├── heap/          Pure-Go simulated runtime with introspection
//	│   ├── native/        cgo against lean/lean.h (-tags lean)
//	│   └── wasm/          Lean compiled to WebAssembly, hosted by wazero
//	├── object/            Borrowed/owned handles and typed wrappers
//	├── runtime/           Components, modules, initialization, threads
//	├── errors/            Structured errors and the Lean error taxonomy
//	├── config/            YAML configuration for leanrun
//	├── examples/maparray/ Bindings for the MapArray Lean module
//	└── cmd/leanrun/       Demo CLI and interactive heap viewer
//
// # Quick Start
//
//	lib := maparray.New(maparray.Simulated())
//	_, err := runtime.Run(runtime.Config{
//	    ABI:     heap.New(),
//	    Modules: lib.Module(),
//	}, func(rt *runtime.Runtime) (struct{}, error) {
//	    s := object.NewString(rt, "Hello, world").Push('!')
//	    defer s.Release()
//	    fmt.Println(s) // Hello, world!
//	    return struct{}{}, nil
//	})
//
// # Ownership
//
// Lean objects are reference counted. An owned handle carries one count and
// must be released exactly once, or transferred with IntoRaw to a function
// that consumes it. Borrowed handles carry none and are valid only while
// their owner is. Releasing a spent handle panics.
//
// # Thread Safety
//
// The runtime is initialized once per process and its main thread is locked
// to the calling goroutine. Other goroutines must attach with runtime.Go,
// runtime.GoWith or runtime.Scoped before touching Lean objects. The wasm
// backend serializes guest calls.
package leanruntime
