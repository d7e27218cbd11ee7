package heap

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
	"unsafe"

	"github.com/wippyai/lean-runtime/abi"
)

// Constructor tags of the IO result and IO.Error inductives.
const (
	ioOkTag      uint8 = 0
	ioErrorTag   uint8 = 1
	userErrorTag uint8 = 18
)

const usizeBytes = uint(unsafe.Sizeof(uint(0)))

// expect returns the live entry for o and checks its shape. Caller holds mu.
func (h *Heap) expect(o abi.Object, op string, k kind) *entry {
	e := h.get(o, op)
	if e.kind != k {
		panic(fmt.Sprintf("heap: %s on %s object %#x, want %s", op, e.kind, uintptr(o), k))
	}
	return e
}

// AllocCtor allocates a constructor object.
func (h *Heap) AllocCtor(tag uint8, numObjs uint, scalarSize uint) abi.Object {
	return h.allocObject(entry{
		kind:       kindCtor,
		tag:        tag,
		fields:     make([]abi.Object, numObjs),
		scalars:    make([]byte, scalarSize),
		scalarSize: scalarSize,
	})
}

// CtorTag returns the constructor tag. Scalars report their boxed value.
func (h *Heap) CtorTag(o abi.Object) uint8 {
	if abi.IsScalar(o) {
		return uint8(abi.Unbox(o))
	}
	var tag uint8
	h.locked(func() {
		tag = h.expect(o, "ctor_tag", kindCtor).tag
	})
	return tag
}

// CtorGet borrows object field i.
func (h *Heap) CtorGet(o abi.Object, i uint) abi.Object {
	var v abi.Object
	h.locked(func() {
		e := h.expect(o, "ctor_get", kindCtor)
		if i >= uint(len(e.fields)) {
			panic(fmt.Sprintf("heap: ctor_get field %d out of range (%d fields)", i, len(e.fields)))
		}
		v = e.fields[i]
	})
	return v
}

// CtorSet stores v (consumed) in object field i.
func (h *Heap) CtorSet(o abi.Object, i uint, v abi.Object) {
	h.locked(func() {
		e := h.expect(o, "ctor_set", kindCtor)
		if i >= uint(len(e.fields)) {
			panic(fmt.Sprintf("heap: ctor_set field %d out of range (%d fields)", i, len(e.fields)))
		}
		e.fields[i] = v
	})
}

// CtorGetUint32 reads a scalar field at offset bytes into the scalar area.
func (h *Heap) CtorGetUint32(o abi.Object, offset uint) uint32 {
	var v uint32
	h.locked(func() {
		e := h.expect(o, "ctor_get_uint32", kindCtor)
		checkScalarRange(e, offset, 4, "ctor_get_uint32")
		v = binary.LittleEndian.Uint32(e.scalars[offset:])
	})
	return v
}

// CtorSetUint32 writes a scalar field at offset bytes into the scalar area.
func (h *Heap) CtorSetUint32(o abi.Object, offset uint, v uint32) {
	h.locked(func() {
		e := h.expect(o, "ctor_set_uint32", kindCtor)
		checkScalarRange(e, offset, 4, "ctor_set_uint32")
		binary.LittleEndian.PutUint32(e.scalars[offset:], v)
	})
}

func checkScalarRange(e *entry, offset, width uint, op string) {
	if offset+width > e.scalarSize {
		panic(fmt.Sprintf("heap: %s at offset %d exceeds %d scalar bytes", op, offset, e.scalarSize))
	}
}

// AllocArray allocates an array with size unset slots.
func (h *Heap) AllocArray(size, capacity int) abi.Object {
	if size < 0 || capacity < size {
		panic(fmt.Sprintf("heap: alloc_array size %d capacity %d", size, capacity))
	}
	return h.allocObject(entry{
		kind:   kindArray,
		fields: make([]abi.Object, size, capacity),
	})
}

// ArraySize returns the element count.
func (h *Heap) ArraySize(o abi.Object) int {
	var n int
	h.locked(func() {
		n = len(h.expect(o, "array_size", kindArray).fields)
	})
	return n
}

// ArrayData returns the element slots. The slice aliases heap storage.
func (h *Heap) ArrayData(o abi.Object) []abi.Object {
	var data []abi.Object
	h.locked(func() {
		data = h.expect(o, "array_cptr", kindArray).fields
	})
	return data
}

// ArrayGet returns slot i, borrowed.
func (h *Heap) ArrayGet(o abi.Object, i int) abi.Object {
	var v abi.Object
	h.locked(func() {
		e := h.expect(o, "array_get", kindArray)
		if i < 0 || i >= len(e.fields) {
			panic(fmt.Sprintf("heap: array_get index %d out of range (size %d)", i, len(e.fields)))
		}
		v = e.fields[i]
	})
	return v
}

// ArraySet stores v (consumed) in slot i.
func (h *Heap) ArraySet(o abi.Object, i int, v abi.Object) {
	h.locked(func() {
		e := h.expect(o, "array_set", kindArray)
		if i < 0 || i >= len(e.fields) {
			panic(fmt.Sprintf("heap: array_set index %d out of range (size %d)", i, len(e.fields)))
		}
		e.fields[i] = v
	})
}

// AllocSArray allocates a scalar array. The payload is word aligned.
func (h *Heap) AllocSArray(elemSize uint32, size, capacity int) abi.Object {
	if elemSize == 0 || size < 0 || capacity < size {
		panic(fmt.Sprintf("heap: alloc_sarray elem %d size %d capacity %d", elemSize, size, capacity))
	}
	nbytes := uint64(capacity) * uint64(elemSize)
	return h.allocObject(entry{
		kind:     kindSArray,
		elemSize: elemSize,
		size:     size,
		words:    make([]uint64, (nbytes+7)/8),
	})
}

// SArraySize returns the element count.
func (h *Heap) SArraySize(o abi.Object) int {
	var n int
	h.locked(func() {
		n = h.expect(o, "sarray_size", kindSArray).size
	})
	return n
}

// SArrayData returns the payload bytes. The slice aliases heap storage.
func (h *Heap) SArrayData(o abi.Object) []byte {
	var data []byte
	h.locked(func() {
		e := h.expect(o, "sarray_cptr", kindSArray)
		data = payload(e)
	})
	return data
}

// FloatArrayData returns the payload of an 8-byte scalar array as float64.
func (h *Heap) FloatArrayData(o abi.Object) []float64 {
	var data []float64
	h.locked(func() {
		e := h.expect(o, "float_array_cptr", kindSArray)
		if e.elemSize != 8 {
			panic(fmt.Sprintf("heap: float_array_cptr on %d-byte elements", e.elemSize))
		}
		if e.size == 0 {
			data = []float64{}
			return
		}
		data = unsafe.Slice((*float64)(unsafe.Pointer(&e.words[0])), e.size)
	})
	return data
}

func payload(e *entry) []byte {
	n := e.size * int(e.elemSize)
	if n == 0 {
		return []byte{}
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&e.words[0])), n)
}

// MkString copies s into a new string object.
func (h *Heap) MkString(s []byte) abi.Object {
	str := make([]byte, len(s))
	copy(str, s)
	return h.allocObject(entry{kind: kindString, str: str})
}

// StringBytes returns the string's bytes. The slice aliases heap storage.
func (h *Heap) StringBytes(o abi.Object) []byte {
	var b []byte
	h.locked(func() {
		b = h.expect(o, "string_cstr", kindString).str
	})
	return b
}

// StringPush appends c to s (consumed). An exclusive s is updated in place,
// a shared one is copied and released.
func (h *Heap) StringPush(s abi.Object, c uint32) abi.Object {
	r := rune(c)
	if !utf8.ValidRune(r) {
		r = utf8.RuneError
	}

	var (
		shared bool
		rest   int32
		str    []byte
	)
	h.locked(func() {
		e := h.expect(s, "string_push", kindString)
		if e.rc == 1 {
			e.str = utf8.AppendRune(e.str, r)
			return
		}
		shared = true
		e.rc--
		rest = e.rc
		str = utf8.AppendRune(append(make([]byte, 0, len(e.str)+utf8.UTFMax), e.str...), r)
	})
	if !shared {
		return s
	}

	h.notify(Event{Type: EventReleased, Object: s, RefCount: int(rest)})
	return h.allocObject(entry{kind: kindString, str: str})
}

// IOResultIsOk reports whether r is a successful result.
func (h *Heap) IOResultIsOk(r abi.Object) bool {
	var ok bool
	h.locked(func() {
		ok = h.expect(r, "io_result_is_ok", kindCtor).tag == ioOkTag
	})
	return ok
}

// IOResultGetError borrows the error held by a failed result.
func (h *Heap) IOResultGetError(r abi.Object) abi.Object {
	var v abi.Object
	h.locked(func() {
		e := h.expect(r, "io_result_get_error", kindCtor)
		if e.tag != ioErrorTag {
			panic("heap: io_result_get_error on a successful result")
		}
		v = e.fields[0]
	})
	return v
}

// IOResultMkOk wraps v (consumed) in a successful result.
func (h *Heap) IOResultMkOk(v abi.Object) abi.Object {
	r := h.AllocCtor(ioOkTag, 2, 0)
	h.CtorSet(r, 0, v)
	h.CtorSet(r, 1, h.IOMkWorld())
	return r
}

// IOResultMkError wraps e (consumed) in a failed result.
func (h *Heap) IOResultMkError(e abi.Object) abi.Object {
	r := h.AllocCtor(ioErrorTag, 2, 0)
	h.CtorSet(r, 0, e)
	h.CtorSet(r, 1, h.IOMkWorld())
	return r
}

// MkIOUserError builds IO.Error.userError from str (consumed).
func (h *Heap) MkIOUserError(str abi.Object) abi.Object {
	e := h.AllocCtor(userErrorTag, 1, 0)
	h.CtorSet(e, 0, str)
	return e
}

// IOErrorToString renders e (consumed). User errors yield their message,
// other constructors a generic description.
func (h *Heap) IOErrorToString(e abi.Object) abi.Object {
	var (
		tag uint8
		msg abi.Object
	)
	h.locked(func() {
		ent := h.expect(e, "io_error_to_string", kindCtor)
		tag = ent.tag
		if tag == userErrorTag {
			msg = ent.fields[0]
		}
	})

	if tag == userErrorTag {
		h.Inc(msg)
		h.Dec(e)
		return msg
	}
	h.Dec(e)
	return h.MkString(fmt.Appendf(nil, "IO error (constructor %d)", tag))
}

// BoxUint32 boxes v as a scalar.
func (h *Heap) BoxUint32(v uint32) abi.Object {
	return abi.Box(uintptr(v))
}

// UnboxUint32 unboxes a scalar produced by BoxUint32.
func (h *Heap) UnboxUint32(o abi.Object) uint32 {
	if !abi.IsScalar(o) {
		panic(fmt.Sprintf("heap: unbox_uint32 on heap object %#x", uintptr(o)))
	}
	return uint32(abi.Unbox(o))
}

// BoxUint64 boxes v in an 8-byte scalar constructor.
func (h *Heap) BoxUint64(v uint64) abi.Object {
	o := h.AllocCtor(0, 0, 8)
	h.putScalar(o, v)
	return o
}

// UnboxUint64 reads a value produced by BoxUint64.
func (h *Heap) UnboxUint64(o abi.Object) uint64 {
	return h.scalar(o, "unbox_uint64", 8)
}

// BoxUsize boxes v in a pointer-sized scalar constructor.
func (h *Heap) BoxUsize(v uint) abi.Object {
	o := h.AllocCtor(0, 0, usizeBytes)
	h.putScalar(o, uint64(v))
	return o
}

// UnboxUsize reads a value produced by BoxUsize.
func (h *Heap) UnboxUsize(o abi.Object) uint {
	return uint(h.scalar(o, "unbox_usize", usizeBytes))
}

// BoxFloat boxes v in an 8-byte scalar constructor.
func (h *Heap) BoxFloat(v float64) abi.Object {
	o := h.AllocCtor(0, 0, 8)
	h.putScalar(o, math.Float64bits(v))
	return o
}

// UnboxFloat reads a value produced by BoxFloat.
func (h *Heap) UnboxFloat(o abi.Object) float64 {
	return math.Float64frombits(h.scalar(o, "unbox_float", 8))
}

// BoxFloat32 boxes v in a 4-byte scalar constructor.
func (h *Heap) BoxFloat32(v float32) abi.Object {
	o := h.AllocCtor(0, 0, 4)
	h.putScalar(o, uint64(math.Float32bits(v)))
	return o
}

// UnboxFloat32 reads a value produced by BoxFloat32.
func (h *Heap) UnboxFloat32(o abi.Object) float32 {
	return math.Float32frombits(uint32(h.scalar(o, "unbox_float32", 4)))
}

func (h *Heap) putScalar(o abi.Object, v uint64) {
	h.locked(func() {
		e := h.get(o, "box")
		switch e.scalarSize {
		case 4:
			binary.LittleEndian.PutUint32(e.scalars, uint32(v))
		default:
			binary.LittleEndian.PutUint64(e.scalars, v)
		}
	})
}

func (h *Heap) scalar(o abi.Object, op string, width uint) uint64 {
	if abi.IsScalar(o) {
		panic(fmt.Sprintf("heap: %s on scalar %#x", op, uintptr(o)))
	}
	var v uint64
	h.locked(func() {
		e := h.expect(o, op, kindCtor)
		if len(e.fields) != 0 || e.scalarSize != width {
			panic(fmt.Sprintf("heap: %s on ctor with %d fields and %d scalar bytes", op, len(e.fields), e.scalarSize))
		}
		if width == 4 {
			v = uint64(binary.LittleEndian.Uint32(e.scalars))
			return
		}
		v = binary.LittleEndian.Uint64(e.scalars)
	})
	return v
}
