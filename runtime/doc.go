// Package runtime brings up the Lean runtime and hands it to Go code.
//
// # Quick Start
//
//	n, err := runtime.Run(runtime.Config{
//	    ABI:     heap.New(),
//	    Modules: maparray.Module,
//	}, func(rt *runtime.Runtime) (int, error) {
//	    s := object.NewString(rt, "Hello, world")
//	    defer s.Release()
//	    return len(s.Bytes()), nil
//	})
//
// Run may be called once per process; a second call panics. RunUnchecked
// skips that check for backends that can be initialized repeatedly, such
// as a fresh heap.Heap per test.
//
// # Initialization Phases
//
//	NewInitializer                       Uninitialized -> ComponentsInitialized
//	(*Initializer).InitializeModules           -> ModulesInitialized
//	(*ModulesInitializer).MarkEndInitialization -> Ready
//	(*Runtime).Close                           -> Finalized
//
// Each step consumes its receiver. Run performs all of them and closes the
// runtime after the user function returns.
//
// # Modules
//
// A Module wraps a Lean initialize_<Module> function. Combine registers
// several modules in order; initialization stops at the first failure:
//
//	all, err := runtime.Combine("AllModulesInitializer",
//	    runtime.Entry{Module: parsing},            // capability derived from the name
//	    runtime.Entry{Module: yaml, Capability: "YamlParser"},
//	)
//
// Bindings check for their module with (*Runtime).MustProvide.
//
// # Threads
//
// Lean attaches runtime state to OS threads. Go, GoWith and Scope.Go lock
// the new goroutine to its thread, call InitializeThread, run the function
// with a secondary Runtime and call FinalizeThread, even on panic:
//
//	t := runtime.Go(rt, func(rt *runtime.Runtime) int {
//	    arr := object.NewArray[uint32, object.U32](rt, []uint32{1, 2, 3})
//	    defer arr.Release()
//	    return arr.Len()
//	})
//	n := t.Join()
//
//	err := runtime.Scoped(rt, func(s *runtime.Scope) error {
//	    s.Go(runtime.ThreadOptions{Name: "worker"}, work)
//	    return nil
//	})
package runtime
