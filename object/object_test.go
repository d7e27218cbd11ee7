package object

import (
	"iter"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/wippyai/lean-runtime/abi"
	"github.com/wippyai/lean-runtime/abi/heap"
)

type testRuntime struct {
	h *heap.Heap
}

func (r testRuntime) ABI() abi.ABI { return r.h }

func newRuntime(t *testing.T) testRuntime {
	t.Helper()
	h := heap.New()
	h.SetupArgs(0, nil)
	h.InitializeRuntimeModule()
	return testRuntime{h: h}
}

func mustPanic(t *testing.T, want string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("expected panic containing %q", want)
		}
		if msg, _ := r.(string); !strings.Contains(msg, want) {
			t.Fatalf("panic %v does not contain %q", r, want)
		}
	}()
	fn()
}

func TestOwned_ShareRelease(t *testing.T) {
	rt := newRuntime(t)
	s := NewString(rt, "shared")
	raw := s.Raw()

	before, _ := rt.h.RefCount(raw)
	handles := []*String{s.Share(), s.Share(), s.Share()}
	if rc, _ := rt.h.RefCount(raw); rc != before+len(handles) {
		t.Fatalf("rc = %d, want %d", rc, before+len(handles))
	}
	for _, h := range handles {
		h.Release()
	}
	if rc, _ := rt.h.RefCount(raw); rc != before {
		t.Fatalf("rc after release = %d, want %d", rc, before)
	}

	s.Release()
	if rt.h.Live() != 0 {
		t.Fatalf("Live() = %d, want 0", rt.h.Live())
	}
}

func TestOwned_SpentHandle(t *testing.T) {
	rt := newRuntime(t)

	s := NewString(rt, "x")
	s.Release()
	if !s.Released() {
		t.Fatal("Released() = false after Release")
	}
	mustPanic(t, "released handle", func() { s.Release() })
	mustPanic(t, "released handle", func() { s.IntoRaw() })
	mustPanic(t, "released handle", func() { s.Share() })

	b := NewByteArray(rt, []byte{1})
	raw := b.IntoRaw()
	if rc, ok := rt.h.RefCount(raw); !ok || rc != 1 {
		t.Fatalf("IntoRaw must keep the unit, rc = %d, %v", rc, ok)
	}
	mustPanic(t, "released handle", func() { b.ReleaseRef() })
	rt.h.Dec(raw)
}

func TestRef_ToOwned(t *testing.T) {
	rt := newRuntime(t)
	raw := rt.h.MkString([]byte("borrowed"))

	ref := BorrowString(rt.h, raw)
	if ref.Raw() != raw || ref.ABI() != abi.ABI(rt.h) {
		t.Fatal("Ref does not expose its object")
	}
	owned := ref.ToOwned()
	if rc, _ := rt.h.RefCount(raw); rc != 2 {
		t.Fatalf("rc = %d, want 2", rc)
	}
	if owned.String() != "borrowed" {
		t.Fatalf("String() = %q", owned.String())
	}
	owned.ReleaseRef()
	rt.h.Dec(raw)
	if rt.h.Live() != 0 {
		t.Fatalf("Live() = %d, want 0", rt.h.Live())
	}
}

func roundTrip[E comparable, C Codec[E]](t *testing.T, rt testRuntime, values ...E) {
	t.Helper()
	var c C
	for _, v := range values {
		o := c.Box(rt.h, v)
		if got := c.Unbox(rt.h, o); got != v {
			t.Errorf("%T: unbox(box(%v)) = %v", c, v, got)
		}
		rt.h.Dec(o)
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	rt := newRuntime(t)

	t.Run("u32", func(t *testing.T) { roundTrip[uint32, U32](t, rt, 0, 1, math.MaxUint32) })
	t.Run("i32", func(t *testing.T) { roundTrip[int32, Int32[int32]](t, rt, math.MinInt32, -1, 0, math.MaxInt32) })
	t.Run("i16", func(t *testing.T) { roundTrip[int16, Int32[int16]](t, rt, math.MinInt16, 0, math.MaxInt16) })
	t.Run("i8", func(t *testing.T) { roundTrip[int8, Int32[int8]](t, rt, math.MinInt8, 7, math.MaxInt8) })
	t.Run("u8", func(t *testing.T) { roundTrip[uint8, Int32[uint8]](t, rt, 0, math.MaxUint8) })
	t.Run("u16", func(t *testing.T) { roundTrip[uint16, Int32[uint16]](t, rt, 0, math.MaxUint16) })
	t.Run("u64", func(t *testing.T) { roundTrip[uint64, U64](t, rt, 0, 1<<40, math.MaxUint64) })
	t.Run("i64", func(t *testing.T) { roundTrip[int64, Int64](t, rt, math.MinInt64, -1, 0, math.MaxInt64) })
	t.Run("usize", func(t *testing.T) { roundTrip[uint, Usize](t, rt, 0, 42, math.MaxUint) })
	t.Run("f32", func(t *testing.T) { roundTrip[float32, F32](t, rt, 0, -1.5, math.MaxFloat32) })
	t.Run("f64", func(t *testing.T) { roundTrip[float64, F64](t, rt, 0, math.Pi, -math.MaxFloat64) })

	if rt.h.Live() != 0 {
		t.Fatalf("Live() = %d after round trips", rt.h.Live())
	}
}

func TestCodec_NarrowOutOfRange(t *testing.T) {
	rt := newRuntime(t)
	o := Int32[int32]{}.Box(rt.h, 300)
	mustPanic(t, "out of range", func() { Int32[int8]{}.Unbox(rt.h, o) })
}

func TestArray_FromSeq(t *testing.T) {
	rt := newRuntime(t)

	tests := []struct {
		name   string
		values []int64
	}{
		{"empty", nil},
		{"single", []int64{-7}},
		{"several", []int64{math.MinInt64, -1, 0, 1, math.MaxInt64}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arr := NewArrayFromSeq[int64, Int64](rt, len(tt.values), slices.Values(tt.values))
			defer arr.Release()

			if arr.Len() != len(tt.values) {
				t.Fatalf("Len() = %d, want %d", arr.Len(), len(tt.values))
			}
			// All is restartable.
			for range 2 {
				if got := slices.Collect(arr.All()); !slices.Equal(got, tt.values) {
					t.Fatalf("All() = %v, want %v", got, tt.values)
				}
			}
			want := slices.Clone(tt.values)
			slices.Reverse(want)
			if got := slices.Collect(arr.Backward()); !slices.Equal(got, want) {
				t.Fatalf("Backward() = %v, want %v", got, want)
			}
			if got := arr.Values(); len(got) != len(tt.values) {
				t.Fatalf("Values() = %v", got)
			}
		})
	}

	if rt.h.Live() != 0 {
		t.Fatalf("Live() = %d, want 0", rt.h.Live())
	}
}

func TestArray_InexactLength(t *testing.T) {
	rt := newRuntime(t)

	mustPanic(t, "want 3", func() {
		NewArrayFromSeq[uint32, U32](rt, 3, slices.Values([]uint32{1, 2}))
	})
	mustPanic(t, "more than 1", func() {
		NewArrayFromSeq[uint64, U64](rt, 1, slices.Values([]uint64{1, 2}))
	})
	if rt.h.Live() != 0 {
		t.Fatalf("Live() = %d after failed constructions", rt.h.Live())
	}
}

func TestArray_Aliases(t *testing.T) {
	rt := newRuntime(t)

	var u32 *U32Array = NewArray[uint32, U32](rt, []uint32{1, 2, 3})
	var i32 *Int32Array[int32] = NewArray[int32, Int32[int32]](rt, []int32{-1, 2})
	var f64 *F64Array = NewArray[float64, F64](rt, []float64{0.5})
	var us *UsizeArray = NewArray[uint, Usize](rt, []uint{9})

	if u32.At(2) != 3 || i32.At(0) != -1 || f64.At(0) != 0.5 || us.At(0) != 9 {
		t.Fatal("element mismatch")
	}
	mustPanic(t, "out of range", func() { u32.At(3) })

	shared := i32.Share()
	ref := shared.Borrow()
	if ref.Len() != 2 || ref.At(1) != 2 {
		t.Fatal("shared view mismatch")
	}
	shared.Release()

	for _, r := range []interface{ Release() }{u32, i32, f64, us} {
		r.Release()
	}
	if rt.h.Live() != 0 {
		t.Fatalf("Live() = %d, want 0", rt.h.Live())
	}
}

func TestArray_EarlyBreak(t *testing.T) {
	rt := newRuntime(t)
	arr := NewArray[uint32, U32](rt, []uint32{1, 2, 3, 4})
	defer arr.Release()

	var got []uint32
	for v := range arr.All() {
		if v == 3 {
			break
		}
		got = append(got, v)
	}
	if !slices.Equal(got, []uint32{1, 2}) {
		t.Fatalf("got %v", got)
	}
}

func TestByteArray(t *testing.T) {
	rt := newRuntime(t)

	gen := func(yield func(byte) bool) {
		for i := range 6 {
			if !yield(byte(i * 5)) {
				return
			}
		}
	}
	b := NewByteArrayFromSeq(rt, 6, iter.Seq[byte](gen))
	want := []byte{0, 5, 10, 15, 20, 25}
	if !slices.Equal(b.Bytes(), want) || b.Len() != 6 {
		t.Fatalf("Bytes() = %v", b.Bytes())
	}
	if got := slices.Collect(b.Backward()); got[0] != 25 || got[5] != 0 {
		t.Fatalf("Backward() = %v", got)
	}
	if b.At(1) != 5 {
		t.Fatalf("At(1) = %d", b.At(1))
	}

	empty := NewByteArray(rt, nil)
	if empty.Len() != 0 || len(slices.Collect(empty.All())) != 0 {
		t.Fatal("empty byte array should yield nothing")
	}

	mustPanic(t, "want 2", func() { NewByteArrayFromSeq(rt, 2, slices.Values([]byte{1})) })

	b.Share().Release()
	b.Release()
	empty.Release()
	if rt.h.Live() != 0 {
		t.Fatalf("Live() = %d, want 0", rt.h.Live())
	}
}

func TestFloatArray(t *testing.T) {
	rt := newRuntime(t)

	values := []float64{1.5, -0.25, math.Inf(1)}
	f := NewFloatArray(rt, values)
	if !slices.Equal(f.Floats(), values) || f.Len() != 3 {
		t.Fatalf("Floats() = %v", f.Floats())
	}
	if got := slices.Collect(f.All()); !slices.Equal(got, values) {
		t.Fatalf("All() = %v", got)
	}
	if f.At(2) != math.Inf(1) {
		t.Fatal("At(2) mismatch")
	}

	g := NewFloatArrayFromSeq(rt, 0, slices.Values([]float64(nil)))
	if g.Len() != 0 {
		t.Fatal("empty float array should have no elements")
	}

	f.Release()
	g.Release()
	if rt.h.Live() != 0 {
		t.Fatalf("Live() = %d, want 0", rt.h.Live())
	}
}

func TestString_Push(t *testing.T) {
	rt := newRuntime(t)

	s := NewString(rt, "Hello, world")
	pushed := s.Push('!')
	if !s.Released() {
		t.Fatal("Push must consume its receiver")
	}
	if got := string(pushed.Bytes()); got != "Hello, world!" {
		t.Fatalf("got %q", got)
	}
	pushed.Release()

	mustPanic(t, "NUL", func() { NewString(rt, "a\x00b") })
	if rt.h.Live() != 0 {
		t.Fatalf("Live() = %d, want 0", rt.h.Live())
	}
}

// slotCounter counts full slot reads.
type slotCounter struct {
	abi.ABI
	fullReads int
}

func (c *slotCounter) ArrayData(o abi.Object) []abi.Object {
	c.fullReads++
	return c.ABI.ArrayData(o)
}

type counterRuntime struct{ c *slotCounter }

func (r counterRuntime) ABI() abi.ABI { return r.c }

func TestArrayRef_AtReadsOneSlot(t *testing.T) {
	rt := newRuntime(t)
	c := &slotCounter{ABI: rt.h}
	crt := counterRuntime{c: c}

	arr := NewArray[uint32, U32](crt, []uint32{4, 5, 6, 7})
	for i := range arr.Len() {
		if got := arr.At(i); got != uint32(4+i) {
			t.Errorf("At(%d) = %d", i, got)
		}
	}
	if c.fullReads != 0 {
		t.Errorf("At read the whole array %d times", c.fullReads)
	}
	mustPanic(t, "out of range", func() { arr.At(4) })

	if got := arr.Values(); !slices.Equal(got, []uint32{4, 5, 6, 7}) {
		t.Errorf("Values() = %v", got)
	}
	arr.Release()
	if rt.h.Live() != 0 {
		t.Fatalf("Live() = %d, want 0", rt.h.Live())
	}
}
