// Package wasm implements abi.ABI over a Lean runtime compiled to
// WebAssembly and hosted by wazero.
//
// The guest is a wasm32 module that exports the lean.h entry points under
// their C names, static inline helpers included as exported shims, plus
// malloc, free and its linear memory:
//
//	b, err := wasm.New(ctx, guestBytes, &wasm.Config{Stdout: os.Stdout})
//	if err != nil {
//	    var missing *errors.MissingExportsError
//	    if errors.As(err, &missing) {
//	        // missing.Exports lists every absent entry point
//	    }
//	    return err
//	}
//	defer b.Close(ctx)
//
// WASI preview1 is instantiated before the guest, which is started with its
// _initialize export when present.
//
// # Objects
//
// Objects are guest pointers widened to abi.Object. Boxed scalars keep the
// lean_box encoding, so abi.Box and abi.IsScalar apply unchanged. Scalar
// array and string views alias guest memory and are invalidated when the
// guest grows its memory; ArrayData returns a copy.
//
// # Module Initializers and Lean Functions
//
// Compiled Lean modules linked into the guest are reached by export name:
//
//	initMapArray, err := b.Initializer("MapArray") // initialize_MapArray
//	mod := runtime.ModuleFunc("MapArrayModuleInitializer", initMapArray)
//
//	res, err := b.Call("my_map", opts, arr)
//
// # Errors
//
// abi.ABI methods have no error return. A trap inside one of them panics
// with *errors.Error of PhaseABI and KindTrap; Call returns the same error
// instead.
package wasm
