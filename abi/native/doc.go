// Package native binds abi.ABI to the real Lean runtime through cgo.
//
// The backend is compiled only with the "lean" build tag and cgo enabled.
// Point the C toolchain at the Lean installation, for example:
//
//	LEAN_PREFIX=$(lean --print-prefix)
//	CGO_CFLAGS="-I$LEAN_PREFIX/include" \
//	CGO_LDFLAGS="-L$LEAN_PREFIX/lib/lean -Wl,-rpath,$LEAN_PREFIX/lib/lean" \
//	go build -tags lean ./...
//
// Module initializers generated by Lean (initialize_<Module>) are linked the
// same way and wrapped with runtime.ModuleFunc in a cgo file of the binding
// package.
//
// Array, scalar array and string views returned by the backend alias C
// memory and stay valid only while the caller holds a reference to the
// object. The argument strings passed to SetupArgs are never freed, since
// libuv may keep the argv pointer for the life of the process.
package native
