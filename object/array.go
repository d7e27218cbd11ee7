package object

import (
	"fmt"
	"iter"

	"github.com/wippyai/lean-runtime/abi"
)

// Array is an owned Lean Array whose slots are boxed with codec C.
type Array[E any, C Codec[E]] struct {
	Owned[ArrayShape]
}

// ArrayRef is a borrowed Lean Array.
type ArrayRef[E any, C Codec[E]] struct {
	Ref[ArrayShape]
}

// Arrays of the supported scalar element types.
type (
	U32Array             = Array[uint32, U32]
	Int32Array[T Narrow] = Array[T, Int32[T]]
	U64Array             = Array[uint64, U64]
	Int64Array           = Array[int64, Int64]
	UsizeArray           = Array[uint, Usize]
	F32Array             = Array[float32, F32]
	F64Array             = Array[float64, F64]
)

// NewArray allocates an array holding values in order.
func NewArray[E any, C Codec[E]](rt Runtime, values []E) *Array[E, C] {
	a := rt.ABI()
	var c C
	raw := a.AllocArray(len(values), len(values))
	for i, v := range values {
		a.ArraySet(raw, i, c.Box(a, v))
	}
	return AdoptArray[E, C](a, raw)
}

// NewArrayFromSeq allocates an array of exactly n elements drawn from seq.
// It panics if seq yields more or fewer than n elements.
func NewArrayFromSeq[E any, C Codec[E]](rt Runtime, n int, seq iter.Seq[E]) *Array[E, C] {
	a := rt.ABI()
	var c C
	raw := a.AllocArray(n, n)
	i := 0
	for v := range seq {
		if i == n {
			fill(a, raw, i, n)
			a.Dec(raw)
			panic(fmt.Sprintf("object: sequence yielded more than %d elements", n))
		}
		a.ArraySet(raw, i, c.Box(a, v))
		i++
	}
	if i != n {
		fill(a, raw, i, n)
		a.Dec(raw)
		panic(fmt.Sprintf("object: sequence yielded %d elements, want %d", i, n))
	}
	return AdoptArray[E, C](a, raw)
}

// fill writes unit into the unset slots [from, to) so the array can be freed.
func fill(a abi.ABI, raw abi.Object, from, to int) {
	for i := from; i < to; i++ {
		a.ArraySet(raw, i, abi.Unit)
	}
}

// AdoptArray wraps an owned array object.
func AdoptArray[E any, C Codec[E]](a abi.ABI, raw abi.Object) *Array[E, C] {
	return &Array[E, C]{Owned: Owned[ArrayShape]{a: a, raw: raw}}
}

// BorrowArray wraps a borrowed array object.
func BorrowArray[E any, C Codec[E]](a abi.ABI, raw abi.Object) ArrayRef[E, C] {
	return ArrayRef[E, C]{Ref: NewRef[ArrayShape](a, raw)}
}

// Borrow returns a view valid until the array is released.
func (arr *Array[E, C]) Borrow() ArrayRef[E, C] {
	return ArrayRef[E, C]{Ref: arr.Owned.Borrow()}
}

// Share increments the count and returns an independent array handle.
func (arr *Array[E, C]) Share() *Array[E, C] {
	return &Array[E, C]{Owned: *arr.Owned.Share()}
}

// Accessors delegate to the borrowed view.
func (arr *Array[E, C]) Len() int              { return arr.Borrow().Len() }
func (arr *Array[E, C]) At(i int) E            { return arr.Borrow().At(i) }
func (arr *Array[E, C]) All() iter.Seq[E]      { return arr.Borrow().All() }
func (arr *Array[E, C]) Backward() iter.Seq[E] { return arr.Borrow().Backward() }
func (arr *Array[E, C]) Values() []E           { return arr.Borrow().Values() }

// ToOwned takes a new reference count unit.
func (r ArrayRef[E, C]) ToOwned() *Array[E, C] {
	return &Array[E, C]{Owned: *r.Ref.ToOwned()}
}

// Len returns the element count.
func (r ArrayRef[E, C]) Len() int {
	return r.a.ArraySize(r.raw)
}

// At decodes element i. It reads a single slot.
func (r ArrayRef[E, C]) At(i int) E {
	if n := r.Len(); i < 0 || i >= n {
		panic(fmt.Sprintf("object: index %d out of range (len %d)", i, n))
	}
	var c C
	return c.Unbox(r.a, r.a.ArrayGet(r.raw, i))
}

// All yields every element in order. Each call starts a fresh pass.
func (r ArrayRef[E, C]) All() iter.Seq[E] {
	return func(yield func(E) bool) {
		var c C
		for _, o := range r.a.ArrayData(r.raw) {
			if !yield(c.Unbox(r.a, o)) {
				return
			}
		}
	}
}

// Backward yields every element from last to first.
func (r ArrayRef[E, C]) Backward() iter.Seq[E] {
	return func(yield func(E) bool) {
		var c C
		data := r.a.ArrayData(r.raw)
		for i := len(data) - 1; i >= 0; i-- {
			if !yield(c.Unbox(r.a, data[i])) {
				return
			}
		}
	}
}

// Values decodes every element into a new slice.
func (r ArrayRef[E, C]) Values() []E {
	data := r.a.ArrayData(r.raw)
	out := make([]E, len(data))
	var c C
	for i, o := range data {
		out[i] = c.Unbox(r.a, o)
	}
	return out
}
