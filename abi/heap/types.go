package heap

import "github.com/wippyai/lean-runtime/abi"

// EventType identifies a heap notification.
type EventType uint8

const (
	EventAllocated EventType = iota
	EventRetained
	EventReleased
	EventFreed
	EventLifecycle
)

func (t EventType) String() string {
	switch t {
	case EventAllocated:
		return "allocated"
	case EventRetained:
		return "retained"
	case EventReleased:
		return "released"
	case EventFreed:
		return "freed"
	case EventLifecycle:
		return "lifecycle"
	default:
		return "unknown"
	}
}

// Event describes an object or lifecycle change.
// Call is set for EventLifecycle, Object and RefCount for object events.
type Event struct {
	Kind     string
	Call     string
	Object   abi.Object
	RefCount int
	Type     EventType
}

// Observer receives heap events. Observers run after the heap lock is
// released and may call back into the heap.
type Observer interface {
	OnHeapEvent(Event)
}

// Lifecycle call names recorded by the heap, in ABI order.
const (
	CallSetupArgs               = "setup_args"
	CallInitializeRuntimeModule = "initialize_runtime_module"
	CallInitialize              = "initialize"
	CallMarkEndInitialization   = "io_mark_end_initialization"
	CallInitTaskManager         = "init_task_manager"
	CallFinalizeTaskManager     = "finalize_task_manager"
	CallInitializeThread        = "initialize_thread"
	CallFinalizeThread          = "finalize_thread"
)
