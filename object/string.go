package object

import (
	"strings"

	"github.com/wippyai/lean-runtime/abi"
)

// String is an owned Lean String.
type String struct {
	Owned[StringShape]
}

// Str is a borrowed Lean String.
type Str struct {
	Ref[StringShape]
}

// NewString copies s into a new Lean String. It panics if s contains a NUL
// byte, which the foreign C string constructor cannot carry.
func NewString(rt Runtime, s string) *String {
	if strings.IndexByte(s, 0) >= 0 {
		panic("object: string contains a NUL byte")
	}
	a := rt.ABI()
	return AdoptString(a, a.MkString([]byte(s)))
}

// AdoptString wraps an owned string object.
func AdoptString(a abi.ABI, raw abi.Object) *String {
	return &String{Owned: Owned[StringShape]{a: a, raw: raw}}
}

// BorrowString wraps a borrowed string object.
func BorrowString(a abi.ABI, raw abi.Object) Str {
	return Str{Ref: NewRef[StringShape](a, raw)}
}

// Borrow returns a view valid until the string is released.
func (s *String) Borrow() Str {
	return Str{Ref: s.Owned.Borrow()}
}

// Share increments the count and returns an independent string handle.
func (s *String) Share() *String {
	return &String{Owned: *s.Owned.Share()}
}

// Accessors delegate to the borrowed view.
func (s *String) Bytes() []byte  { return s.Borrow().Bytes() }
func (s *String) String() string { return s.Borrow().String() }

// Push appends r and returns the resulting string. The receiver is consumed.
func (s *String) Push(r rune) *String {
	raw := s.IntoRaw()
	return AdoptString(s.a, s.a.StringPush(raw, uint32(r)))
}

// ToOwned takes a new reference count unit.
func (r Str) ToOwned() *String {
	return &String{Owned: *r.Ref.ToOwned()}
}

// Bytes returns the UTF-8 contents without the trailing NUL. The slice
// aliases foreign memory.
func (r Str) Bytes() []byte {
	return r.a.StringBytes(r.raw)
}

// String copies the contents into a Go string.
func (r Str) String() string {
	return string(r.Bytes())
}
