package abi

// Object is an opaque pointer into the foreign runtime's heap.
//
// Values with the low bit set are boxed scalars and carry no reference count.
// The zero Object is never a valid object.
type Object uintptr

// Unit is the boxed unit value returned by successful IO actions.
const Unit = Object(1)

// Box encodes a small scalar as a tagged pointer (lean_box).
func Box(n uintptr) Object {
	return Object(n<<1 | 1)
}

// Unbox decodes a tagged pointer produced by Box (lean_unbox).
func Unbox(o Object) uintptr {
	return uintptr(o) >> 1
}

// IsScalar reports whether o is a boxed scalar rather than a heap object.
func IsScalar(o Object) bool {
	return o&1 == 1
}

// ABI is the C entry point surface of the Lean runtime.
//
// Ownership follows Lean's conventions: arguments documented as consumed
// take one reference count unit from the caller, results carry one unit the
// caller owns, and borrowed arguments are neither incremented nor
// decremented. Implementations never report errors; calling an entry point
// out of order or on the wrong object shape is undefined behavior in the
// real runtime and a panic in the simulated one.
type ABI interface {
	// SetupArgs hands the process arguments to the runtime (lean_setup_args).
	// The strings may be retained for the life of the process.
	SetupArgs(argc int32, argv []string)
	// InitializeRuntimeModule initializes the core runtime only.
	InitializeRuntimeModule()
	// Initialize initializes the runtime together with the Lean package.
	Initialize()
	// IOMarkEndInitialization ends the initialization phase. At most once.
	IOMarkEndInitialization()
	// InitTaskManager starts the runtime's worker threads. At most once,
	// after IOMarkEndInitialization.
	InitTaskManager()
	// FinalizeTaskManager stops the worker threads before process exit.
	FinalizeTaskManager()
	// InitializeThread attaches the calling OS thread to the runtime.
	InitializeThread()
	// FinalizeThread detaches the calling OS thread.
	FinalizeThread()

	// Inc adds one reference count unit. Scalars are ignored.
	Inc(o Object)
	// Dec removes one unit, freeing the object when none remain.
	Dec(o Object)
	// DecRef is Dec for objects known not to be scalars.
	DecRef(o Object)

	// IOMkWorld creates the world token passed to IO actions.
	IOMkWorld() Object
	// IOResultIsOk reports whether the borrowed IO result is a success.
	IOResultIsOk(r Object) bool
	// IOResultGetError borrows the error stored in a failed IO result.
	IOResultGetError(r Object) Object
	// IOResultMkOk wraps v (consumed) in a successful IO result.
	IOResultMkOk(v Object) Object
	// IOResultMkError wraps e (consumed) in a failed IO result.
	IOResultMkError(e Object) Object
	// MkIOUserError builds an IO.Error.userError from str (consumed).
	MkIOUserError(str Object) Object
	// IOErrorToString renders e (consumed) as a string object.
	IOErrorToString(e Object) Object

	// AllocCtor allocates a constructor object with numObjs object fields
	// followed by scalarSize bytes of scalar fields.
	AllocCtor(tag uint8, numObjs uint, scalarSize uint) Object
	// CtorTag returns the constructor tag of o (borrowed).
	CtorTag(o Object) uint8
	// CtorGet borrows object field i.
	CtorGet(o Object, i uint) Object
	// CtorSet stores v (consumed) in object field i of a fresh constructor.
	CtorSet(o Object, i uint, v Object)
	// CtorGetUint32 reads a scalar field at byte offset past the object fields.
	CtorGetUint32(o Object, offset uint) uint32
	// CtorSetUint32 writes a scalar field of a fresh constructor.
	CtorSetUint32(o Object, offset uint, v uint32)

	// AllocArray allocates an array of size boxed elements. The slots must
	// all be written with ArraySet before the array is shared.
	AllocArray(size, capacity int) Object
	// ArraySize returns the element count of a borrowed array.
	ArraySize(o Object) int
	// ArrayData returns a read-only view of the array's element slots.
	ArrayData(o Object) []Object
	// ArrayGet returns slot i of a borrowed array without taking a reference.
	// i must be in range.
	ArrayGet(o Object, i int) Object
	// ArraySet stores v (consumed) in slot i of a fresh array.
	ArraySet(o Object, i int, v Object)

	// AllocSArray allocates a scalar array of size elements of elemSize bytes.
	AllocSArray(elemSize uint32, size, capacity int) Object
	// SArraySize returns the element count of a borrowed scalar array.
	SArraySize(o Object) int
	// SArrayData returns the raw contiguous payload of a scalar array.
	// Writing is permitted only while the array is fresh.
	SArrayData(o Object) []byte
	// FloatArrayData returns the payload of a FloatArray as float64 values.
	FloatArrayData(o Object) []float64

	// MkString builds a string object from UTF-8 bytes without a NUL.
	MkString(s []byte) Object
	// StringBytes returns a view of the string's bytes, excluding the NUL.
	StringBytes(o Object) []byte
	// StringPush appends code point c to s (consumed) and returns the result.
	StringPush(s Object, c uint32) Object

	BoxUint32(v uint32) Object
	UnboxUint32(o Object) uint32
	BoxUint64(v uint64) Object
	UnboxUint64(o Object) uint64
	BoxUsize(v uint) Object
	UnboxUsize(o Object) uint
	BoxFloat(v float64) Object
	UnboxFloat(o Object) float64
	BoxFloat32(v float32) Object
	UnboxFloat32(o Object) float32
}

// Builtin is the module initializer flag used by Lean executables.
const Builtin uint8 = 1
