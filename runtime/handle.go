package runtime

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/wippyai/lean-runtime/abi"
	"github.com/wippyai/lean-runtime/errors"
)

// Runtime is a handle to a Ready Lean runtime on one goroutine.
//
// The main runtime is returned by MarkEndInitialization and finalizes the
// task manager on Close. Secondary runtimes are handed to functions run with
// Go, GoWith or Scope.Go; they are only valid inside that function and
// Close on them does nothing.
type Runtime struct {
	s         *state
	closeOnce sync.Once
	main      bool
	ctx       context.Context
}

// Close finalizes the runtime. Only the first call on the main runtime has
// an effect.
func (r *Runtime) Close() {
	if !r.main {
		return
	}
	r.closeOnce.Do(func() {
		r.s.components.FinalizeRuntime(r.s.a)
		r.s.setPhase(PhaseFinalized)
	})
}

// Phase returns the current phase of the shared runtime.
func (r *Runtime) Phase() Phase {
	return Phase(r.s.phase.Load())
}

// ABI returns the backend.
func (r *Runtime) ABI() abi.ABI { return r.s.a }

// Components returns the component set the runtime was initialized with.
func (r *Runtime) Components() Components { return r.s.components }

// IsMainThread reports whether r is the main thread runtime.
func (r *Runtime) IsMainThread() bool { return r.main }

// Provides reports whether the initialized modules include capability.
func (r *Runtime) Provides(capability string) bool {
	return slices.Contains(r.s.caps, capability)
}

// MustProvide panics unless the initialized modules include capability.
// Bindings call it to check that their Lean module was initialized.
func (r *Runtime) MustProvide(capability string) {
	if !r.Provides(capability) {
		panic(fmt.Sprintf("runtime: module capability %q was not initialized (have %v)", capability, r.s.caps))
	}
}

// Context returns the context of the goroutine r belongs to. For a labeled
// secondary thread it carries the profiler labels.
func (r *Runtime) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

func (r *Runtime) ready() error {
	if p := r.Phase(); p != PhaseReady {
		return errors.New(errors.PhaseThread, errors.KindNotInitialized).
			Name(p.String()).
			Detail("runtime is not ready").
			Build()
	}
	return nil
}

func (r *Runtime) secondary(ctx context.Context) *Runtime {
	return &Runtime{s: r.s, ctx: ctx}
}
