package wasm

import (
	"encoding/binary"
	"fmt"
	"slices"
	"strings"
	"unsafe"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/lean-runtime/abi"
	"github.com/wippyai/lean-runtime/errors"
)

const memoryExport = "memory"

const (
	i32 = api.ValueTypeI32
	i64 = api.ValueTypeI64
	f32 = api.ValueTypeF32
	f64 = api.ValueTypeF64
)

type signature struct {
	params  []api.ValueType
	results []api.ValueType
}

func sig(params []api.ValueType, results ...api.ValueType) signature {
	return signature{params: params, results: results}
}

func (s signature) String() string {
	names := func(ts []api.ValueType) string {
		parts := make([]string, len(ts))
		for i, t := range ts {
			parts[i] = api.ValueTypeName(t)
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprintf("(%s) -> (%s)", names(s.params), names(s.results))
}

var (
	none  []api.ValueType
	one   = []api.ValueType{i32}
	two   = []api.ValueType{i32, i32}
	three = []api.ValueType{i32, i32, i32}
)

var initializerSignature = sig(two, i32)

// requiredExports are the lean.h entry points the guest must export, with
// their wasm32 signatures. Static inline functions of lean.h are expected as
// exported shims of the same name.
var requiredExports = []struct {
	name string
	sig  signature
}{
	{"lean_setup_args", sig(two, i32)},
	{"lean_initialize_runtime_module", sig(none)},
	{"lean_initialize", sig(none)},
	{"lean_io_mark_end_initialization", sig(none)},
	{"lean_init_task_manager", sig(none)},
	{"lean_finalize_task_manager", sig(none)},
	{"lean_initialize_thread", sig(none)},
	{"lean_finalize_thread", sig(none)},

	{"lean_inc", sig(one)},
	{"lean_dec", sig(one)},
	{"lean_dec_ref", sig(one)},

	{"lean_io_mk_world", sig(none, i32)},
	{"lean_io_result_is_ok", sig(one, i32)},
	{"lean_io_result_get_error", sig(one, i32)},
	{"lean_io_result_mk_ok", sig(one, i32)},
	{"lean_io_result_mk_error", sig(one, i32)},
	{"lean_mk_io_user_error", sig(one, i32)},
	{"lean_io_error_to_string", sig(one, i32)},

	{"lean_alloc_ctor", sig(three, i32)},
	{"lean_obj_tag", sig(one, i32)},
	{"lean_ctor_num_objs", sig(one, i32)},
	{"lean_ctor_get", sig(two, i32)},
	{"lean_ctor_set", sig(three)},
	{"lean_ctor_get_uint32", sig(two, i32)},
	{"lean_ctor_set_uint32", sig(three)},

	{"lean_alloc_array", sig(two, i32)},
	{"lean_array_size", sig(one, i32)},
	{"lean_array_cptr", sig(one, i32)},
	{"lean_array_set_core", sig(three)},

	{"lean_alloc_sarray", sig(three, i32)},
	{"lean_sarray_size", sig(one, i32)},
	{"lean_sarray_elem_size", sig(one, i32)},
	{"lean_sarray_cptr", sig(one, i32)},
	{"lean_float_array_cptr", sig(one, i32)},

	{"lean_mk_string_from_bytes", sig(two, i32)},
	{"lean_string_cstr", sig(one, i32)},
	{"lean_string_size", sig(one, i32)},
	{"lean_string_push", sig(two, i32)},

	{"lean_box_uint32", sig(one, i32)},
	{"lean_unbox_uint32", sig(one, i32)},
	{"lean_box_uint64", sig([]api.ValueType{i64}, i32)},
	{"lean_unbox_uint64", sig(one, i64)},
	{"lean_box_usize", sig(one, i32)},
	{"lean_unbox_usize", sig(one, i32)},
	{"lean_box_float", sig([]api.ValueType{f64}, i32)},
	{"lean_unbox_float", sig(one, f64)},
	{"lean_box_float32", sig([]api.ValueType{f32}, i32)},
	{"lean_unbox_float32", sig(one, f32)},

	{"malloc", sig(one, i32)},
	{"free", sig(one)},
}

// RequiredExports returns the export names a guest must provide, the
// linear memory included.
func RequiredExports() []string {
	names := make([]string, 0, len(requiredExports)+1)
	for _, e := range requiredExports {
		names = append(names, e.name)
	}
	return append(names, memoryExport)
}

func checkSignature(name string, def api.FunctionDefinition, want signature) error {
	if slices.Equal(def.ParamTypes(), want.params) && slices.Equal(def.ResultTypes(), want.results) {
		return nil
	}
	got := signature{params: def.ParamTypes(), results: def.ResultTypes()}
	return errors.New(errors.PhaseLoad, errors.KindInvalidData).
		Name(name).
		Detail("export has signature %s, want %s", got, want).
		Build()
}

// checkExports reports every missing export at once, then the first export
// with a wrong signature.
func checkExports(module string, compiled wazero.CompiledModule) error {
	funcs := compiled.ExportedFunctions()

	var missing []string
	for _, e := range requiredExports {
		if _, ok := funcs[e.name]; !ok {
			missing = append(missing, e.name)
		}
	}
	if _, ok := compiled.ExportedMemories()[memoryExport]; !ok {
		missing = append(missing, memoryExport)
	}
	if len(missing) > 0 {
		return errors.NewMissingExportsError(module, missing)
	}

	for _, e := range requiredExports {
		if err := checkSignature(e.name, funcs[e.name], e.sig); err != nil {
			return err
		}
	}
	return nil
}

// malloc allocates n bytes of guest memory.
func (b *Backend) malloc(n int) uint32 {
	p := b.u32("malloc", uint64(n))
	if p == 0 {
		panic(errors.New(errors.PhaseABI, errors.KindTrap).
			Name("malloc").
			Detail("guest allocation of %d bytes failed", n).
			Build())
	}
	return p
}

// cstring copies s and a NUL terminator to fresh guest memory.
func (b *Backend) cstring(s []byte) uint32 {
	p := b.malloc(len(s) + 1)
	b.mem.write(p, s)
	b.mem.writeByte(p+uint32(len(s)), 0)
	return p
}

// SetupArgs copies argv to guest memory. The copies are never freed.
func (b *Backend) SetupArgs(argc int32, argv []string) {
	table := b.malloc(4 * (len(argv) + 1))
	for i, arg := range argv {
		b.mem.writeU32(table+uint32(4*i), b.cstring([]byte(arg)))
	}
	b.mem.writeU32(table+uint32(4*len(argv)), 0)
	b.invoke("lean_setup_args", uint64(uint32(argc)), uint64(table))
}

func (b *Backend) InitializeRuntimeModule() { b.invoke("lean_initialize_runtime_module") }
func (b *Backend) Initialize()              { b.invoke("lean_initialize") }
func (b *Backend) IOMarkEndInitialization() { b.invoke("lean_io_mark_end_initialization") }
func (b *Backend) InitTaskManager()         { b.invoke("lean_init_task_manager") }
func (b *Backend) FinalizeTaskManager()     { b.invoke("lean_finalize_task_manager") }
func (b *Backend) InitializeThread()        { b.invoke("lean_initialize_thread") }
func (b *Backend) FinalizeThread()          { b.invoke("lean_finalize_thread") }

func (b *Backend) Inc(o abi.Object)    { b.invoke("lean_inc", ptr(o)) }
func (b *Backend) Dec(o abi.Object)    { b.invoke("lean_dec", ptr(o)) }
func (b *Backend) DecRef(o abi.Object) { b.invoke("lean_dec_ref", ptr(o)) }

func (b *Backend) IOMkWorld() abi.Object {
	return b.object("lean_io_mk_world")
}

func (b *Backend) IOResultIsOk(r abi.Object) bool {
	return b.u32("lean_io_result_is_ok", ptr(r)) != 0
}

func (b *Backend) IOResultGetError(r abi.Object) abi.Object {
	return b.object("lean_io_result_get_error", ptr(r))
}

func (b *Backend) IOResultMkOk(v abi.Object) abi.Object {
	return b.object("lean_io_result_mk_ok", ptr(v))
}

func (b *Backend) IOResultMkError(e abi.Object) abi.Object {
	return b.object("lean_io_result_mk_error", ptr(e))
}

func (b *Backend) MkIOUserError(str abi.Object) abi.Object {
	return b.object("lean_mk_io_user_error", ptr(str))
}

func (b *Backend) IOErrorToString(e abi.Object) abi.Object {
	return b.object("lean_io_error_to_string", ptr(e))
}

func (b *Backend) AllocCtor(tag uint8, numObjs uint, scalarSize uint) abi.Object {
	return b.object("lean_alloc_ctor", uint64(tag), uint64(uint32(numObjs)), uint64(uint32(scalarSize)))
}

func (b *Backend) CtorTag(o abi.Object) uint8 {
	return uint8(b.u32("lean_obj_tag", ptr(o)))
}

func (b *Backend) CtorGet(o abi.Object, i uint) abi.Object {
	return b.object("lean_ctor_get", ptr(o), uint64(uint32(i)))
}

func (b *Backend) CtorSet(o abi.Object, i uint, v abi.Object) {
	b.invoke("lean_ctor_set", ptr(o), uint64(uint32(i)), ptr(v))
}

// scalarOffset converts an offset into the scalar area to the lean.h
// offset, which counts the object fields.
func (b *Backend) scalarOffset(o abi.Object, offset uint) uint64 {
	return uint64(4*b.u32("lean_ctor_num_objs", ptr(o)) + uint32(offset))
}

func (b *Backend) CtorGetUint32(o abi.Object, offset uint) uint32 {
	return b.u32("lean_ctor_get_uint32", ptr(o), b.scalarOffset(o, offset))
}

func (b *Backend) CtorSetUint32(o abi.Object, offset uint, v uint32) {
	b.invoke("lean_ctor_set_uint32", ptr(o), b.scalarOffset(o, offset), uint64(v))
}

func (b *Backend) AllocArray(size, capacity int) abi.Object {
	return b.object("lean_alloc_array", uint64(uint32(size)), uint64(uint32(capacity)))
}

func (b *Backend) ArraySize(o abi.Object) int {
	return int(b.u32("lean_array_size", ptr(o)))
}

// ArrayData returns a snapshot of the element slots; Go cannot view 32-bit
// guest pointers as abi.Object values in place.
func (b *Backend) ArrayData(o abi.Object) []abi.Object {
	n := b.ArraySize(o)
	out := make([]abi.Object, n)
	if n == 0 {
		return out
	}
	data := b.mem.read(b.u32("lean_array_cptr", ptr(o)), uint32(4*n))
	for i := range out {
		out[i] = abi.Object(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return out
}

// ArrayGet reads one element slot.
func (b *Backend) ArrayGet(o abi.Object, i int) abi.Object {
	base := b.u32("lean_array_cptr", ptr(o))
	return abi.Object(b.mem.readU32(base + 4*uint32(i)))
}

func (b *Backend) ArraySet(o abi.Object, i int, v abi.Object) {
	b.invoke("lean_array_set_core", ptr(o), uint64(uint32(i)), ptr(v))
}

func (b *Backend) AllocSArray(elemSize uint32, size, capacity int) abi.Object {
	return b.object("lean_alloc_sarray", uint64(elemSize), uint64(uint32(size)), uint64(uint32(capacity)))
}

func (b *Backend) SArraySize(o abi.Object) int {
	return int(b.u32("lean_sarray_size", ptr(o)))
}

func (b *Backend) SArrayData(o abi.Object) []byte {
	n := uint32(b.SArraySize(o)) * b.u32("lean_sarray_elem_size", ptr(o))
	if n == 0 {
		return []byte{}
	}
	return b.mem.read(b.u32("lean_sarray_cptr", ptr(o)), n)
}

func (b *Backend) FloatArrayData(o abi.Object) []float64 {
	n := b.SArraySize(o)
	if n == 0 {
		return []float64{}
	}
	data := b.mem.read(b.u32("lean_float_array_cptr", ptr(o)), uint32(8*n))
	return unsafe.Slice((*float64)(unsafe.Pointer(&data[0])), n)
}

func (b *Backend) MkString(s []byte) abi.Object {
	p := b.cstring(s)
	defer b.invoke("free", uint64(p))
	return b.object("lean_mk_string_from_bytes", uint64(p), uint64(len(s)))
}

func (b *Backend) StringBytes(o abi.Object) []byte {
	size := b.u32("lean_string_size", ptr(o))
	if size <= 1 {
		return []byte{}
	}
	return b.mem.read(b.u32("lean_string_cstr", ptr(o)), size-1)
}

func (b *Backend) StringPush(s abi.Object, c uint32) abi.Object {
	return b.object("lean_string_push", ptr(s), uint64(c))
}

func (b *Backend) BoxUint32(v uint32) abi.Object {
	return b.object("lean_box_uint32", uint64(v))
}

func (b *Backend) UnboxUint32(o abi.Object) uint32 {
	return b.u32("lean_unbox_uint32", ptr(o))
}

func (b *Backend) BoxUint64(v uint64) abi.Object {
	return b.object("lean_box_uint64", v)
}

func (b *Backend) UnboxUint64(o abi.Object) uint64 {
	return b.call("lean_unbox_uint64", ptr(o))
}

// BoxUsize truncates v to the guest's 32-bit size_t.
func (b *Backend) BoxUsize(v uint) abi.Object {
	return b.object("lean_box_usize", uint64(uint32(v)))
}

func (b *Backend) UnboxUsize(o abi.Object) uint {
	return uint(b.u32("lean_unbox_usize", ptr(o)))
}

func (b *Backend) BoxFloat(v float64) abi.Object {
	return b.object("lean_box_float", api.EncodeF64(v))
}

func (b *Backend) UnboxFloat(o abi.Object) float64 {
	return api.DecodeF64(b.call("lean_unbox_float", ptr(o)))
}

func (b *Backend) BoxFloat32(v float32) abi.Object {
	return b.object("lean_box_float32", api.EncodeF32(v))
}

func (b *Backend) UnboxFloat32(o abi.Object) float32 {
	return api.DecodeF32(b.call("lean_unbox_float32", ptr(o)))
}
