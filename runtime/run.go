package runtime

import (
	goruntime "runtime"
	"sync"

	"github.com/wippyai/lean-runtime/errors"
)

const reuseMessage = "attempt to reuse the Lean runtime. The runtime is single-use " +
	"to eliminate overhead from repeatedly checking whether it has already been initialized"

var runOnce sync.Once

// Run initializes the runtime described by cfg, passes it to fn and closes
// it once fn returns.
//
// Run may be called once per process. Any later call panics, from any
// goroutine; use RunUnchecked with a backend that tolerates repeated
// initialization to opt out of the check.
//
// Errors returned by fn are wrapped in *errors.RuntimeError with StageRun.
// Module initialization failures are *errors.RuntimeError with StageModules,
// and argument marshalling failures are *errors.ArgcError.
func Run[T any](cfg Config, fn func(rt *Runtime) (T, error)) (T, error) {
	var (
		value T
		err   error
		ran   bool
	)
	runOnce.Do(func() {
		ran = true
		value, err = RunUnchecked(cfg, fn)
	})
	if !ran {
		panic(reuseMessage)
	}
	return value, err
}

// RunUnchecked is Run without the single-use check. The calling goroutine is
// locked to its OS thread for the whole sequence.
func RunUnchecked[T any](cfg Config, fn func(rt *Runtime) (T, error)) (T, error) {
	goruntime.LockOSThread()
	defer goruntime.UnlockOSThread()

	var zero T
	initializer, err := NewInitializer(cfg)
	if err != nil {
		return zero, err
	}
	mods, err := initializer.InitializeModules()
	if err != nil {
		return zero, err
	}
	rt := mods.MarkEndInitialization()
	defer rt.Close()

	value, err := fn(rt)
	if err != nil {
		return zero, errors.Run(err)
	}
	return value, nil
}
