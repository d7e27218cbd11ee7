package runtime

import (
	"context"
	"maps"
	goruntime "runtime"
	"runtime/pprof"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/lean-runtime/errors"
)

// ThreadOptions configures a secondary thread.
type ThreadOptions struct {
	// Name is reported in logs and as the "lean.thread" profiler label.
	Name string
	// Labels are attached to the goroutine with pprof.Do.
	Labels map[string]string
}

func (o ThreadOptions) labels() []string {
	if o.Name == "" && len(o.Labels) == 0 {
		return nil
	}
	kv := make([]string, 0, 2*len(o.Labels)+2)
	if o.Name != "" {
		kv = append(kv, "lean.thread", o.Name)
	}
	for _, k := range slices.Sorted(maps.Keys(o.Labels)) {
		kv = append(kv, k, o.Labels[k])
	}
	return kv
}

// attach runs fn on a locked OS thread registered with the runtime. The
// thread is finalized even if fn panics.
func attach[T any](parent *Runtime, opts ThreadOptions, fn func(rt *Runtime) T) T {
	goruntime.LockOSThread()
	defer goruntime.UnlockOSThread()

	s := parent.s
	s.a.InitializeThread()
	defer func() {
		s.a.FinalizeThread()
		s.log.Debug("lean thread finalized", zap.String("thread", opts.Name))
	}()
	s.log.Debug("lean thread initialized", zap.String("thread", opts.Name))

	kv := opts.labels()
	if kv == nil {
		return fn(parent.secondary(parent.Context()))
	}

	var out T
	pprof.Do(parent.Context(), pprof.Labels(kv...), func(ctx context.Context) {
		out = fn(parent.secondary(ctx))
	})
	return out
}

// Thread is a detached secondary thread.
type Thread[T any] struct {
	done     chan struct{}
	value    T
	panicVal any
	panicked bool
}

// Join waits for the thread and returns fn's result. If fn panicked, Join
// panics with the same value.
func (t *Thread[T]) Join() T {
	<-t.done
	if t.panicked {
		panic(t.panicVal)
	}
	return t.value
}

// Done is closed once the thread has finished and detached.
func (t *Thread[T]) Done() <-chan struct{} {
	return t.done
}

func spawn[T any](parent *Runtime, opts ThreadOptions, fn func(rt *Runtime) T) *Thread[T] {
	t := &Thread[T]{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		defer func() {
			if r := recover(); r != nil {
				t.panicVal = r
				t.panicked = true
				parent.s.log.Error("lean thread panicked",
					zap.String("thread", opts.Name),
					zap.Any("panic", r))
			}
		}()
		t.value = attach(parent, opts, fn)
	}()
	return t
}

// Go runs fn on a new secondary thread attached to parent's runtime. It
// panics if parent is not Ready.
func Go[T any](parent *Runtime, fn func(rt *Runtime) T) *Thread[T] {
	if err := parent.ready(); err != nil {
		panic(err)
	}
	return spawn(parent, ThreadOptions{}, fn)
}

// GoWith is Go with thread options. It fails if parent is not Ready.
func GoWith[T any](parent *Runtime, opts ThreadOptions, fn func(rt *Runtime) T) (*Thread[T], error) {
	if err := parent.ready(); err != nil {
		return nil, err
	}
	return spawn(parent, opts, fn), nil
}

// Scope groups secondary threads that must finish before Scoped returns.
type Scope struct {
	parent *Runtime
	g      *errgroup.Group
}

// Scoped calls fn with a Scope and waits for every thread started on it.
// It returns fn's error, or else the first error returned by a thread.
// Panics in scoped threads become *errors.Error with KindPanic.
func Scoped(parent *Runtime, fn func(s *Scope) error) error {
	if err := parent.ready(); err != nil {
		return err
	}

	s := &Scope{parent: parent, g: new(errgroup.Group)}
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				_ = s.g.Wait()
				panic(r)
			}
		}()
		err = fn(s)
	}()

	if werr := s.g.Wait(); err == nil {
		err = werr
	}
	return err
}

// Go starts fn on a new secondary thread of the scope.
func (s *Scope) Go(opts ThreadOptions, fn func(rt *Runtime) error) {
	s.g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = errors.Panic(errors.PhaseThread, opts.Name, r)
			}
		}()
		return attach(s.parent, opts, fn)
	})
}
