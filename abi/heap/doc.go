// Package heap provides a simulated Lean runtime implemented in Go.
//
// The heap satisfies abi.ABI without any foreign code, so everything above
// the ABI can be exercised in ordinary tests. Objects are stored in a handle
// table and encoded as even abi.Object values; odd values remain boxed
// scalars exactly as in the real runtime.
//
// # Object Lifecycle
//
// Every allocation starts with one reference count unit:
//
//	h := heap.New()
//	h.SetupArgs(0, nil)
//	h.InitializeRuntimeModule()
//
//	s := h.MkString([]byte("hello"))
//	h.Inc(s)  // rc 2
//	h.Dec(s)  // rc 1
//	h.Dec(s)  // freed
//
// Freeing a constructor or array releases its fields.
//
// # Contract Enforcement
//
// Undefined behavior in the real runtime is a panic here: allocating before
// initialization, initializing twice, marking end of initialization twice,
// starting the task manager early, detaching a thread that was never
// attached, touching a freed object or unboxing the wrong shape.
//
// # Introspection
//
//	rc, ok := h.RefCount(s)
//	h.Live()       // allocated objects
//	h.Lifecycle()  // lifecycle calls in order, e.g. "setup_args"
//	h.Threads()    // attached threads and the peak
//	h.Objects()    // snapshot of every live object
//
// Observers receive allocation, release and lifecycle events:
//
//	h.Subscribe(obs)
//	defer h.Unsubscribe(obs)
package heap
