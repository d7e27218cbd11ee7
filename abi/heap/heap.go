package heap

import (
	"fmt"
	"sync"

	"github.com/wippyai/lean-runtime/abi"
)

// Heap is an in-memory Lean runtime with reference counting.
// Implements abi.ABI.
type Heap struct {
	entries   []entry
	freeList  []uint32
	observers []Observer
	life      lifecycle
	live      int
	mu        sync.Mutex
	obsMu     sync.RWMutex
}

var _ abi.ABI = (*Heap)(nil)

type kind uint8

const (
	kindCtor kind = iota + 1
	kindArray
	kindSArray
	kindString
)

func (k kind) String() string {
	switch k {
	case kindCtor:
		return "ctor"
	case kindArray:
		return "array"
	case kindSArray:
		return "sarray"
	case kindString:
		return "string"
	default:
		return "invalid"
	}
}

type entry struct {
	fields     []abi.Object
	words      []uint64
	scalars    []byte
	str        []byte
	size       int
	scalarSize uint
	elemSize   uint32
	rc         int32
	tag        uint8
	kind       kind
	valid      bool
}

// New creates an uninitialized heap.
func New() *Heap {
	return &Heap{
		entries:  make([]entry, 0, 64),
		freeList: make([]uint32, 0, 16),
	}
}

func encode(index uint32) abi.Object {
	return abi.Object(uintptr(index+1) << 1)
}

func decode(o abi.Object) (uint32, bool) {
	if o == 0 || abi.IsScalar(o) {
		return 0, false
	}
	return uint32(uintptr(o)>>1) - 1, true
}

// alloc stores e and returns its object. Caller holds mu.
func (h *Heap) alloc(e entry) abi.Object {
	if !h.life.initialized() {
		panic("heap: allocation before runtime initialization")
	}
	e.valid = true
	e.rc = 1
	h.live++

	if len(h.freeList) > 0 {
		idx := h.freeList[len(h.freeList)-1]
		h.freeList = h.freeList[:len(h.freeList)-1]
		h.entries[idx] = e
		return encode(idx)
	}

	h.entries = append(h.entries, e)
	return encode(uint32(len(h.entries) - 1))
}

// allocObject allocates e and reports it to observers.
func (h *Heap) allocObject(e entry) abi.Object {
	var o abi.Object
	h.locked(func() {
		o = h.alloc(e)
	})
	h.notify(Event{Type: EventAllocated, Object: o, Kind: e.kind.String(), RefCount: 1})
	return o
}

// get returns the live entry for o. Caller holds mu.
func (h *Heap) get(o abi.Object, op string) *entry {
	idx, ok := decode(o)
	if !ok {
		panic(fmt.Sprintf("heap: %s on non-object %#x", op, uintptr(o)))
	}
	if int(idx) >= len(h.entries) || !h.entries[idx].valid {
		panic(fmt.Sprintf("heap: %s on freed object %#x", op, uintptr(o)))
	}
	return &h.entries[idx]
}

// lookup is get under the lock for read-only accessors.
func (h *Heap) lookup(o abi.Object, op string) *entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.get(o, op)
}

// locked runs fn with mu held, releasing it even if fn panics.
func (h *Heap) locked(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn()
}

// Inc adds one reference count unit.
func (h *Heap) Inc(o abi.Object) {
	if abi.IsScalar(o) {
		return
	}
	var rc int32
	h.locked(func() {
		e := h.get(o, "inc")
		e.rc++
		rc = e.rc
	})

	h.notify(Event{Type: EventRetained, Object: o, RefCount: int(rc)})
}

// Dec removes one reference count unit and frees the object at zero.
func (h *Heap) Dec(o abi.Object) {
	if abi.IsScalar(o) {
		return
	}
	h.release(o)
}

// DecRef is Dec for objects known not to be scalars.
func (h *Heap) DecRef(o abi.Object) {
	if abi.IsScalar(o) {
		panic(fmt.Sprintf("heap: dec_ref on scalar %#x", uintptr(o)))
	}
	h.release(o)
}

func (h *Heap) release(o abi.Object) {
	var events []Event

	h.locked(func() {
		events = h.releaseLocked(o)
	})

	for _, ev := range events {
		h.notify(ev)
	}
}

func (h *Heap) releaseLocked(o abi.Object) []Event {
	var events []Event
	pending := []abi.Object{o}
	for len(pending) > 0 {
		cur := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if cur == 0 || abi.IsScalar(cur) {
			continue
		}

		e := h.get(cur, "dec")
		e.rc--
		if e.rc > 0 {
			events = append(events, Event{Type: EventReleased, Object: cur, RefCount: int(e.rc)})
			continue
		}

		pending = append(pending, e.fields...)
		events = append(events, Event{Type: EventFreed, Object: cur, Kind: e.kind.String()})

		idx, _ := decode(cur)
		h.entries[idx] = entry{}
		h.freeList = append(h.freeList, idx)
		h.live--
	}
	return events
}

// RefCount returns the reference count of a live object.
func (h *Heap) RefCount(o abi.Object) (int, bool) {
	idx, ok := decode(o)
	if !ok {
		return 0, false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if int(idx) >= len(h.entries) || !h.entries[idx].valid {
		return 0, false
	}
	return int(h.entries[idx].rc), true
}

// Live returns the number of allocated objects.
func (h *Heap) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.live
}

// ObjectInfo describes one live object.
type ObjectInfo struct {
	Object   abi.Object
	Kind     string
	Summary  string
	RefCount int
	Tag      uint8
}

// Objects returns every live object in allocation slot order.
func (h *Heap) Objects() []ObjectInfo {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]ObjectInfo, 0, h.live)
	for i := range h.entries {
		e := &h.entries[i]
		if !e.valid {
			continue
		}
		out = append(out, ObjectInfo{
			Object:   encode(uint32(i)),
			Kind:     e.kind.String(),
			Tag:      e.tag,
			RefCount: int(e.rc),
			Summary:  summarize(e),
		})
	}
	return out
}

func summarize(e *entry) string {
	switch e.kind {
	case kindString:
		if len(e.str) > 24 {
			return fmt.Sprintf("%q...", e.str[:24])
		}
		return fmt.Sprintf("%q", e.str)
	case kindArray:
		return fmt.Sprintf("len=%d", len(e.fields))
	case kindSArray:
		return fmt.Sprintf("len=%d elem=%dB", e.size, e.elemSize)
	case kindCtor:
		return fmt.Sprintf("objs=%d scalars=%dB", len(e.fields), e.scalarSize)
	}
	return ""
}

// Subscribe adds an observer for heap events.
func (h *Heap) Subscribe(o Observer) {
	h.obsMu.Lock()
	defer h.obsMu.Unlock()
	h.observers = append(h.observers, o)
}

// Unsubscribe removes an observer.
func (h *Heap) Unsubscribe(o Observer) {
	h.obsMu.Lock()
	defer h.obsMu.Unlock()
	for i, obs := range h.observers {
		if obs == o {
			h.observers = append(h.observers[:i], h.observers[i+1:]...)
			return
		}
	}
}

func (h *Heap) notify(e Event) {
	h.obsMu.RLock()
	defer h.obsMu.RUnlock()
	for _, o := range h.observers {
		o.OnHeapEvent(e)
	}
}
