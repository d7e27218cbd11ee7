package object

import (
	"fmt"
	"iter"

	"github.com/wippyai/lean-runtime/abi"
)

// FloatArray is an owned Lean FloatArray of packed float64 values.
type FloatArray struct {
	Owned[FloatArrayShape]
}

// FloatArrayRef is a borrowed Lean FloatArray.
type FloatArrayRef struct {
	Ref[FloatArrayShape]
}

const floatSize = 8

// NewFloatArray copies values into a new FloatArray.
func NewFloatArray(rt Runtime, values []float64) *FloatArray {
	a := rt.ABI()
	raw := a.AllocSArray(floatSize, len(values), len(values))
	copy(a.FloatArrayData(raw), values)
	return AdoptFloatArray(a, raw)
}

// NewFloatArrayFromSeq allocates a FloatArray of exactly n values drawn from
// seq. It panics if seq yields more or fewer than n values.
func NewFloatArrayFromSeq(rt Runtime, n int, seq iter.Seq[float64]) *FloatArray {
	a := rt.ABI()
	raw := a.AllocSArray(floatSize, n, n)
	data := a.FloatArrayData(raw)
	i := 0
	for v := range seq {
		if i == n {
			a.Dec(raw)
			panic(fmt.Sprintf("object: sequence yielded more than %d floats", n))
		}
		data[i] = v
		i++
	}
	if i != n {
		a.Dec(raw)
		panic(fmt.Sprintf("object: sequence yielded %d floats, want %d", i, n))
	}
	return AdoptFloatArray(a, raw)
}

// AdoptFloatArray wraps an owned FloatArray object.
func AdoptFloatArray(a abi.ABI, raw abi.Object) *FloatArray {
	return &FloatArray{Owned: Owned[FloatArrayShape]{a: a, raw: raw}}
}

// BorrowFloatArray wraps a borrowed FloatArray object.
func BorrowFloatArray(a abi.ABI, raw abi.Object) FloatArrayRef {
	return FloatArrayRef{Ref: NewRef[FloatArrayShape](a, raw)}
}

// Borrow returns a view valid until the array is released.
func (f *FloatArray) Borrow() FloatArrayRef {
	return FloatArrayRef{Ref: f.Owned.Borrow()}
}

// Share increments the count and returns an independent array handle.
func (f *FloatArray) Share() *FloatArray {
	return &FloatArray{Owned: *f.Owned.Share()}
}

// Accessors delegate to the borrowed view.
func (f *FloatArray) Floats() []float64           { return f.Borrow().Floats() }
func (f *FloatArray) Len() int                    { return f.Borrow().Len() }
func (f *FloatArray) At(i int) float64            { return f.Borrow().At(i) }
func (f *FloatArray) All() iter.Seq[float64]      { return f.Borrow().All() }
func (f *FloatArray) Backward() iter.Seq[float64] { return f.Borrow().Backward() }

// ToOwned takes a new reference count unit.
func (r FloatArrayRef) ToOwned() *FloatArray {
	return &FloatArray{Owned: *r.Ref.ToOwned()}
}

// Floats returns the payload as a view over foreign memory.
func (r FloatArrayRef) Floats() []float64 {
	return r.a.FloatArrayData(r.raw)
}

// Len returns the element count.
func (r FloatArrayRef) Len() int {
	return r.a.SArraySize(r.raw)
}

// At returns element i. It panics if i is out of range.
func (r FloatArrayRef) At(i int) float64 {
	return r.Floats()[i]
}

// All yields every element in order.
func (r FloatArrayRef) All() iter.Seq[float64] {
	return func(yield func(float64) bool) {
		for _, v := range r.Floats() {
			if !yield(v) {
				return
			}
		}
	}
}

// Backward yields every element from last to first.
func (r FloatArrayRef) Backward() iter.Seq[float64] {
	return func(yield func(float64) bool) {
		data := r.Floats()
		for i := len(data) - 1; i >= 0; i-- {
			if !yield(data[i]) {
				return
			}
		}
	}
}
