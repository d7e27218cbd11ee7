//go:build lean && cgo

package native

/*
#cgo LDFLAGS: -lleanshared
#include <stdlib.h>
#include <lean/lean.h>

static size_t lean_go_ctor_scalar_offset(b_lean_obj_arg o, unsigned offset) {
	return lean_ctor_num_objs(o) * sizeof(void*) + offset;
}
*/
import "C"

import (
	"unsafe"

	"github.com/wippyai/lean-runtime/abi"
)

// Backend calls the Lean runtime linked into the process.
type Backend struct{}

var _ abi.ABI = (*Backend)(nil)

// New returns the native backend. The runtime itself is process-global;
// every Backend refers to the same one.
func New() *Backend {
	return &Backend{}
}

func ptr(o abi.Object) *C.lean_object {
	return (*C.lean_object)(unsafe.Pointer(uintptr(o)))
}

func obj(p *C.lean_object) abi.Object {
	return abi.Object(uintptr(unsafe.Pointer(p)))
}

// SetupArgs copies argv to C memory and hands it to lean_setup_args. The
// copies are intentionally leaked.
func (*Backend) SetupArgs(argc int32, argv []string) {
	n := len(argv)
	cargv := (**C.char)(C.malloc(C.size_t(n+1) * C.size_t(unsafe.Sizeof(uintptr(0)))))
	slots := unsafe.Slice(cargv, n+1)
	for i, arg := range argv {
		slots[i] = C.CString(arg)
	}
	slots[n] = nil
	C.lean_setup_args(C.int(argc), cargv)
}

func (*Backend) InitializeRuntimeModule() { C.lean_initialize_runtime_module() }
func (*Backend) Initialize()              { C.lean_initialize() }
func (*Backend) IOMarkEndInitialization() { C.lean_io_mark_end_initialization() }
func (*Backend) InitTaskManager()         { C.lean_init_task_manager() }
func (*Backend) FinalizeTaskManager()     { C.lean_finalize_task_manager() }
func (*Backend) InitializeThread()        { C.lean_initialize_thread() }
func (*Backend) FinalizeThread()          { C.lean_finalize_thread() }

func (*Backend) Inc(o abi.Object)    { C.lean_inc(ptr(o)) }
func (*Backend) Dec(o abi.Object)    { C.lean_dec(ptr(o)) }
func (*Backend) DecRef(o abi.Object) { C.lean_dec_ref(ptr(o)) }

func (*Backend) IOMkWorld() abi.Object {
	return obj(C.lean_io_mk_world())
}

func (*Backend) IOResultIsOk(r abi.Object) bool {
	return bool(C.lean_io_result_is_ok(ptr(r)))
}

func (*Backend) IOResultGetError(r abi.Object) abi.Object {
	return obj(C.lean_io_result_get_error(ptr(r)))
}

func (*Backend) IOResultMkOk(v abi.Object) abi.Object {
	return obj(C.lean_io_result_mk_ok(ptr(v)))
}

func (*Backend) IOResultMkError(e abi.Object) abi.Object {
	return obj(C.lean_io_result_mk_error(ptr(e)))
}

func (*Backend) MkIOUserError(str abi.Object) abi.Object {
	return obj(C.lean_mk_io_user_error(ptr(str)))
}

func (*Backend) IOErrorToString(e abi.Object) abi.Object {
	return obj(C.lean_io_error_to_string(ptr(e)))
}

func (*Backend) AllocCtor(tag uint8, numObjs uint, scalarSize uint) abi.Object {
	return obj(C.lean_alloc_ctor(C.uint(tag), C.uint(numObjs), C.uint(scalarSize)))
}

func (*Backend) CtorTag(o abi.Object) uint8 {
	return uint8(C.lean_obj_tag(ptr(o)))
}

func (*Backend) CtorGet(o abi.Object, i uint) abi.Object {
	return obj(C.lean_ctor_get(ptr(o), C.uint(i)))
}

func (*Backend) CtorSet(o abi.Object, i uint, v abi.Object) {
	C.lean_ctor_set(ptr(o), C.uint(i), ptr(v))
}

// CtorGetUint32 takes offset relative to the scalar area, like the other
// backends, and adds the object field prefix lean.h expects.
func (*Backend) CtorGetUint32(o abi.Object, offset uint) uint32 {
	off := C.lean_go_ctor_scalar_offset(ptr(o), C.uint(offset))
	return uint32(C.lean_ctor_get_uint32(ptr(o), C.uint(off)))
}

func (*Backend) CtorSetUint32(o abi.Object, offset uint, v uint32) {
	off := C.lean_go_ctor_scalar_offset(ptr(o), C.uint(offset))
	C.lean_ctor_set_uint32(ptr(o), C.uint(off), C.uint32_t(v))
}

func (*Backend) AllocArray(size, capacity int) abi.Object {
	return obj(C.lean_alloc_array(C.size_t(size), C.size_t(capacity)))
}

func (*Backend) ArraySize(o abi.Object) int {
	return int(C.lean_array_size(ptr(o)))
}

func (b *Backend) ArrayData(o abi.Object) []abi.Object {
	n := b.ArraySize(o)
	if n == 0 {
		return []abi.Object{}
	}
	return unsafe.Slice((*abi.Object)(unsafe.Pointer(C.lean_array_cptr(ptr(o)))), n)
}

func (*Backend) ArrayGet(o abi.Object, i int) abi.Object {
	return obj(C.lean_array_get_core(ptr(o), C.size_t(i)))
}

func (*Backend) ArraySet(o abi.Object, i int, v abi.Object) {
	C.lean_array_set_core(ptr(o), C.size_t(i), ptr(v))
}

func (*Backend) AllocSArray(elemSize uint32, size, capacity int) abi.Object {
	return obj(C.lean_alloc_sarray(C.uint(elemSize), C.size_t(size), C.size_t(capacity)))
}

func (*Backend) SArraySize(o abi.Object) int {
	return int(C.lean_sarray_size(ptr(o)))
}

func (b *Backend) SArrayData(o abi.Object) []byte {
	n := b.SArraySize(o) * int(C.lean_sarray_elem_size(ptr(o)))
	if n == 0 {
		return []byte{}
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(C.lean_sarray_cptr(ptr(o)))), n)
}

func (b *Backend) FloatArrayData(o abi.Object) []float64 {
	n := b.SArraySize(o)
	if n == 0 {
		return []float64{}
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(C.lean_float_array_cptr(ptr(o)))), n)
}

func (*Backend) MkString(s []byte) abi.Object {
	if len(s) == 0 {
		empty := C.CString("")
		defer C.free(unsafe.Pointer(empty))
		return obj(C.lean_mk_string_from_bytes(empty, 0))
	}
	return obj(C.lean_mk_string_from_bytes((*C.char)(unsafe.Pointer(&s[0])), C.size_t(len(s))))
}

func (*Backend) StringBytes(o abi.Object) []byte {
	n := int(C.lean_string_size(ptr(o))) - 1
	if n <= 0 {
		return []byte{}
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(C.lean_string_cstr(ptr(o)))), n)
}

func (*Backend) StringPush(s abi.Object, c uint32) abi.Object {
	return obj(C.lean_string_push(ptr(s), C.uint32_t(c)))
}

func (*Backend) BoxUint32(v uint32) abi.Object   { return obj(C.lean_box_uint32(C.uint32_t(v))) }
func (*Backend) UnboxUint32(o abi.Object) uint32 { return uint32(C.lean_unbox_uint32(ptr(o))) }
func (*Backend) BoxUint64(v uint64) abi.Object   { return obj(C.lean_box_uint64(C.uint64_t(v))) }
func (*Backend) UnboxUint64(o abi.Object) uint64 { return uint64(C.lean_unbox_uint64(ptr(o))) }
func (*Backend) BoxUsize(v uint) abi.Object      { return obj(C.lean_box_usize(C.size_t(v))) }
func (*Backend) UnboxUsize(o abi.Object) uint    { return uint(C.lean_unbox_usize(ptr(o))) }
func (*Backend) BoxFloat(v float64) abi.Object   { return obj(C.lean_box_float(C.double(v))) }
func (*Backend) UnboxFloat(o abi.Object) float64 { return float64(C.lean_unbox_float(ptr(o))) }

func (*Backend) BoxFloat32(v float32) abi.Object   { return obj(C.lean_box_float32(C.float(v))) }
func (*Backend) UnboxFloat32(o abi.Object) float32 { return float32(C.lean_unbox_float32(ptr(o))) }
