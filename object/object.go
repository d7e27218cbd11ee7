package object

import (
	"fmt"

	"github.com/wippyai/lean-runtime/abi"
)

// Runtime is anything that witnesses an initialized foreign runtime.
// *runtime.Runtime implements it.
type Runtime interface {
	ABI() abi.ABI
}

// Ref is a borrowed handle to a foreign object of shape T.
type Ref[T any] struct {
	a   abi.ABI
	raw abi.Object
}

// NewRef borrows raw. The caller guarantees raw is an object of shape T that
// stays alive for as long as the Ref is used.
func NewRef[T any](a abi.ABI, raw abi.Object) Ref[T] {
	return Ref[T]{a: a, raw: raw}
}

// Raw returns the underlying object without transferring ownership.
// It must not be used to mutate the object.
func (r Ref[T]) Raw() abi.Object { return r.raw }

// ABI returns the runtime the object belongs to.
func (r Ref[T]) ABI() abi.ABI { return r.a }

// ToOwned takes a new reference count unit.
func (r Ref[T]) ToOwned() *Owned[T] {
	r.a.Inc(r.raw)
	return &Owned[T]{a: r.a, raw: r.raw}
}

// Owned is a handle holding one reference count unit of a foreign object.
type Owned[T any] struct {
	a     abi.ABI
	raw   abi.Object
	spent bool
}

// NewOwned adopts raw, which must carry one unspent reference count unit.
func NewOwned[T any](a abi.ABI, raw abi.Object) *Owned[T] {
	return &Owned[T]{a: a, raw: raw}
}

func (o *Owned[T]) live(op string) {
	if o.spent {
		panic(fmt.Sprintf("object: %s on a released handle %#x", op, uintptr(o.raw)))
	}
}

// Raw returns the underlying object without transferring ownership.
func (o *Owned[T]) Raw() abi.Object {
	o.live("raw")
	return o.raw
}

// ABI returns the runtime the object belongs to.
func (o *Owned[T]) ABI() abi.ABI { return o.a }

// Borrow returns a view valid until the handle is released.
func (o *Owned[T]) Borrow() Ref[T] {
	o.live("borrow")
	return Ref[T]{a: o.a, raw: o.raw}
}

// Share increments the count and returns an independent handle.
func (o *Owned[T]) Share() *Owned[T] {
	o.live("share")
	o.a.Inc(o.raw)
	return &Owned[T]{a: o.a, raw: o.raw}
}

// IntoRaw gives up the handle without decrementing and returns the object
// with its unit intact.
func (o *Owned[T]) IntoRaw() abi.Object {
	o.live("into_raw")
	o.spent = true
	return o.raw
}

// Release gives back the handle's unit.
func (o *Owned[T]) Release() {
	o.live("release")
	o.spent = true
	o.a.Dec(o.raw)
}

// ReleaseRef is Release for objects known not to be boxed scalars.
func (o *Owned[T]) ReleaseRef() {
	o.live("release")
	o.spent = true
	o.a.DecRef(o.raw)
}

// Released reports whether the handle was released or transferred.
func (o *Owned[T]) Released() bool { return o.spent }

// Shape tags for the foreign objects wrapped by this package.
type (
	ArrayShape      struct{}
	ByteArrayShape  struct{}
	FloatArrayShape struct{}
	StringShape     struct{}
)
