package runtime

import (
	"fmt"

	"github.com/wippyai/lean-runtime/abi"
)

// Components selects which parts of the Lean runtime are brought up.
type Components interface {
	// Name identifies the component set in logs.
	Name() string
	// InitializeRuntime hands over args and initializes the runtime. It must
	// run before any other foreign call.
	InitializeRuntime(a abi.ABI, args []string) error
	// MarkEndInitialization ends the initialization phase and starts the
	// task manager.
	MarkEndInitialization(a abi.ABI)
	// FinalizeRuntime stops the task manager.
	FinalizeRuntime(a abi.ABI)
}

// Minimal initializes the core runtime only (lean_initialize_runtime_module).
type Minimal struct{}

func (Minimal) Name() string { return "minimal" }

func (Minimal) InitializeRuntime(a abi.ABI, args []string) error {
	if err := setupArgs(a, args); err != nil {
		return err
	}
	a.InitializeRuntimeModule()
	return nil
}

func (Minimal) MarkEndInitialization(a abi.ABI) { markEndInitialization(a) }
func (Minimal) FinalizeRuntime(a abi.ABI)       { a.FinalizeTaskManager() }

// Package initializes the runtime together with the Lean package
// (lean_initialize). Code that uses declarations from the Lean package needs
// this component set.
type Package struct{}

func (Package) Name() string { return "package" }

func (Package) InitializeRuntime(a abi.ABI, args []string) error {
	if err := setupArgs(a, args); err != nil {
		return err
	}
	a.Initialize()
	return nil
}

func (Package) MarkEndInitialization(a abi.ABI) { markEndInitialization(a) }
func (Package) FinalizeRuntime(a abi.ABI)       { a.FinalizeTaskManager() }

func markEndInitialization(a abi.ABI) {
	a.IOMarkEndInitialization()
	a.InitTaskManager()
}

// RequirePackage panics unless rt was initialized with Package components.
// Bindings to Lean package declarations call it before their first use.
func RequirePackage(rt *Runtime) {
	if _, ok := rt.Components().(Package); !ok {
		panic(fmt.Sprintf("runtime: Lean package required, runtime initialized with %s components", rt.Components().Name()))
	}
}
