// Package object wraps foreign Lean objects in ownership-aware Go types.
//
// A Ref is a borrowed view: it never touches the reference count and is only
// valid while its lender keeps the object alive. An Owned handle holds one
// reference count unit and gives it back with exactly one Release:
//
//	s := object.NewString(rt, "Hello, world")
//	defer s.Release()
//
//	shared := s.Share()  // +1, independent handle
//	shared.Release()     // -1
//
//	raw := s.Share().IntoRaw()  // unit handed to a consuming foreign call
//
// Releasing or transferring a spent handle panics. Handles are not safe for
// concurrent use; share one handle per goroutine instead.
//
// # Typed Wrappers
//
// Arrays of boxed elements are parameterized by a Codec that converts
// between Go values and foreign slots:
//
//	arr := object.NewArray[uint32, object.U32](rt, []uint32{1, 2, 3})
//	for v := range arr.All() {
//	    ...
//	}
//
// ByteArray and FloatArray read their packed payload directly. String
// exposes the UTF-8 bytes of a Lean string without the trailing NUL.
package object
