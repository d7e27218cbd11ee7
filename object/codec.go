package object

import (
	"fmt"

	"github.com/wippyai/lean-runtime/abi"
)

// Codec converts between Go values and boxed foreign array slots.
// Box returns an owned object; Unbox borrows o, which must have been
// produced by Box of the same codec.
type Codec[E any] interface {
	Box(a abi.ABI, v E) abi.Object
	Unbox(a abi.ABI, o abi.Object) E
}

// U32 boxes uint32 values.
type U32 struct{}

func (U32) Box(a abi.ABI, v uint32) abi.Object   { return a.BoxUint32(v) }
func (U32) Unbox(a abi.ABI, o abi.Object) uint32 { return a.UnboxUint32(o) }

// Narrow lists the integer types that fit a boxed uint32.
type Narrow interface {
	~int8 | ~int16 | ~int32 | ~uint8 | ~uint16
}

// Int32 boxes narrow integers through uint32 reinterpretation. Unboxing a
// value outside T's range panics.
type Int32[T Narrow] struct{}

func (Int32[T]) Box(a abi.ABI, v T) abi.Object {
	return a.BoxUint32(uint32(int64(v)))
}

func (Int32[T]) Unbox(a abi.ABI, o abi.Object) T {
	wide := int32(a.UnboxUint32(o))
	v := T(wide)
	if int64(v) != int64(wide) {
		panic(fmt.Sprintf("object: boxed value %d out of range for %T", wide, v))
	}
	return v
}

// U64 boxes uint64 values.
type U64 struct{}

func (U64) Box(a abi.ABI, v uint64) abi.Object   { return a.BoxUint64(v) }
func (U64) Unbox(a abi.ABI, o abi.Object) uint64 { return a.UnboxUint64(o) }

// Int64 boxes int64 values as their uint64 bit pattern.
type Int64 struct{}

func (Int64) Box(a abi.ABI, v int64) abi.Object   { return a.BoxUint64(uint64(v)) }
func (Int64) Unbox(a abi.ABI, o abi.Object) int64 { return int64(a.UnboxUint64(o)) }

// Usize boxes pointer-sized unsigned values.
type Usize struct{}

func (Usize) Box(a abi.ABI, v uint) abi.Object   { return a.BoxUsize(v) }
func (Usize) Unbox(a abi.ABI, o abi.Object) uint { return a.UnboxUsize(o) }

// F32 boxes float32 values.
type F32 struct{}

func (F32) Box(a abi.ABI, v float32) abi.Object   { return a.BoxFloat32(v) }
func (F32) Unbox(a abi.ABI, o abi.Object) float32 { return a.UnboxFloat32(o) }

// F64 boxes float64 values.
type F64 struct{}

func (F64) Box(a abi.ABI, v float64) abi.Object   { return a.BoxFloat(v) }
func (F64) Unbox(a abi.ABI, o abi.Object) float64 { return a.UnboxFloat(o) }
