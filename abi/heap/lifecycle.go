package heap

import "github.com/wippyai/lean-runtime/abi"

type lifecycle struct {
	args        []string
	calls       []string
	threads     int
	peakThreads int
	runtime     bool
	pkg         bool
	endInit     bool
	taskManager bool
	finalized   bool
}

func (l *lifecycle) initialized() bool {
	return l.runtime || l.pkg
}

// record appends a lifecycle call and notifies observers.
func (h *Heap) record(call string, check func(l *lifecycle)) {
	h.locked(func() {
		check(&h.life)
		h.life.calls = append(h.life.calls, call)
	})

	h.notify(Event{Type: EventLifecycle, Call: call})
}

// SetupArgs records the process arguments.
func (h *Heap) SetupArgs(argc int32, argv []string) {
	h.record(CallSetupArgs, func(l *lifecycle) {
		if int(argc) != len(argv) {
			panic("heap: setup_args argc does not match argv")
		}
		l.args = append([]string(nil), argv...)
	})
}

// InitializeRuntimeModule initializes the core runtime.
func (h *Heap) InitializeRuntimeModule() {
	h.record(CallInitializeRuntimeModule, func(l *lifecycle) {
		if l.initialized() {
			panic("heap: runtime initialized twice")
		}
		l.runtime = true
	})
}

// Initialize initializes the runtime with the Lean package.
func (h *Heap) Initialize() {
	h.record(CallInitialize, func(l *lifecycle) {
		if l.initialized() {
			panic("heap: runtime initialized twice")
		}
		l.runtime = true
		l.pkg = true
	})
}

// IOMarkEndInitialization ends the initialization phase.
func (h *Heap) IOMarkEndInitialization() {
	h.record(CallMarkEndInitialization, func(l *lifecycle) {
		if !l.initialized() {
			panic("heap: end of initialization before runtime initialization")
		}
		if l.endInit {
			panic("heap: end of initialization marked twice")
		}
		l.endInit = true
	})
}

// InitTaskManager starts the simulated task manager.
func (h *Heap) InitTaskManager() {
	h.record(CallInitTaskManager, func(l *lifecycle) {
		if !l.endInit {
			panic("heap: task manager started before end of initialization")
		}
		if l.taskManager || l.finalized {
			panic("heap: task manager started twice")
		}
		l.taskManager = true
	})
}

// FinalizeTaskManager stops the simulated task manager.
func (h *Heap) FinalizeTaskManager() {
	h.record(CallFinalizeTaskManager, func(l *lifecycle) {
		if !l.taskManager {
			panic("heap: task manager finalized without being started")
		}
		l.taskManager = false
		l.finalized = true
	})
}

// InitializeThread attaches a thread.
func (h *Heap) InitializeThread() {
	h.record(CallInitializeThread, func(l *lifecycle) {
		if !l.initialized() {
			panic("heap: thread initialized before runtime initialization")
		}
		l.threads++
		if l.threads > l.peakThreads {
			l.peakThreads = l.threads
		}
	})
}

// FinalizeThread detaches a thread.
func (h *Heap) FinalizeThread() {
	h.record(CallFinalizeThread, func(l *lifecycle) {
		if l.threads == 0 {
			panic("heap: thread finalized without being initialized")
		}
		l.threads--
	})
}

// Lifecycle returns the lifecycle calls made so far, in order.
func (h *Heap) Lifecycle() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.life.calls...)
}

// Args returns the arguments passed to SetupArgs.
func (h *Heap) Args() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.life.args...)
}

// Threads returns the number of currently attached threads and the peak.
func (h *Heap) Threads() (attached, peak int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.life.threads, h.life.peakThreads
}

// TaskManagerRunning reports whether the task manager is started.
func (h *Heap) TaskManagerRunning() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.life.taskManager
}

// IOMkWorld returns the world token.
func (h *Heap) IOMkWorld() abi.Object {
	return abi.Box(0)
}
