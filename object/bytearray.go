package object

import (
	"fmt"
	"iter"

	"github.com/wippyai/lean-runtime/abi"
)

// ByteArray is an owned Lean ByteArray.
type ByteArray struct {
	Owned[ByteArrayShape]
}

// ByteArrayRef is a borrowed Lean ByteArray.
type ByteArrayRef struct {
	Ref[ByteArrayShape]
}

// NewByteArray copies b into a new ByteArray.
func NewByteArray(rt Runtime, b []byte) *ByteArray {
	a := rt.ABI()
	raw := a.AllocSArray(1, len(b), len(b))
	copy(a.SArrayData(raw), b)
	return AdoptByteArray(a, raw)
}

// NewByteArrayFromSeq allocates a ByteArray of exactly n bytes drawn from seq.
// It panics if seq yields more or fewer than n bytes.
func NewByteArrayFromSeq(rt Runtime, n int, seq iter.Seq[byte]) *ByteArray {
	a := rt.ABI()
	raw := a.AllocSArray(1, n, n)
	data := a.SArrayData(raw)
	i := 0
	for b := range seq {
		if i == n {
			a.Dec(raw)
			panic(fmt.Sprintf("object: sequence yielded more than %d bytes", n))
		}
		data[i] = b
		i++
	}
	if i != n {
		a.Dec(raw)
		panic(fmt.Sprintf("object: sequence yielded %d bytes, want %d", i, n))
	}
	return AdoptByteArray(a, raw)
}

// AdoptByteArray wraps an owned ByteArray object.
func AdoptByteArray(a abi.ABI, raw abi.Object) *ByteArray {
	return &ByteArray{Owned: Owned[ByteArrayShape]{a: a, raw: raw}}
}

// BorrowByteArray wraps a borrowed ByteArray object.
func BorrowByteArray(a abi.ABI, raw abi.Object) ByteArrayRef {
	return ByteArrayRef{Ref: NewRef[ByteArrayShape](a, raw)}
}

// Borrow returns a view valid until the array is released.
func (b *ByteArray) Borrow() ByteArrayRef {
	return ByteArrayRef{Ref: b.Owned.Borrow()}
}

// Share increments the count and returns an independent array handle.
func (b *ByteArray) Share() *ByteArray {
	return &ByteArray{Owned: *b.Owned.Share()}
}

// Accessors delegate to the borrowed view.
func (b *ByteArray) Bytes() []byte            { return b.Borrow().Bytes() }
func (b *ByteArray) Len() int                 { return b.Borrow().Len() }
func (b *ByteArray) At(i int) byte            { return b.Borrow().At(i) }
func (b *ByteArray) All() iter.Seq[byte]      { return b.Borrow().All() }
func (b *ByteArray) Backward() iter.Seq[byte] { return b.Borrow().Backward() }

// ToOwned takes a new reference count unit.
func (r ByteArrayRef) ToOwned() *ByteArray {
	return &ByteArray{Owned: *r.Ref.ToOwned()}
}

// Bytes returns the payload. The slice aliases foreign memory and must not
// be written or kept past the lender's lifetime.
func (r ByteArrayRef) Bytes() []byte {
	return r.a.SArrayData(r.raw)
}

// Len returns the element count.
func (r ByteArrayRef) Len() int {
	return r.a.SArraySize(r.raw)
}

// At returns element i. It panics if i is out of range.
func (r ByteArrayRef) At(i int) byte {
	return r.Bytes()[i]
}

// All yields every element in order.
func (r ByteArrayRef) All() iter.Seq[byte] {
	return func(yield func(byte) bool) {
		for _, b := range r.Bytes() {
			if !yield(b) {
				return
			}
		}
	}
}

// Backward yields every element from last to first.
func (r ByteArrayRef) Backward() iter.Seq[byte] {
	return func(yield func(byte) bool) {
		data := r.Bytes()
		for i := len(data) - 1; i >= 0; i-- {
			if !yield(data[i]) {
				return
			}
		}
	}
}
