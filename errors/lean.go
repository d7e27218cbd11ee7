package errors

import (
	"bytes"
	"fmt"

	"github.com/wippyai/lean-runtime/abi"
)

// ArgcError reports a process argument count the Lean ABI cannot represent.
type ArgcError struct {
	Argc int
}

func (e *ArgcError) Error() string {
	return fmt.Sprintf("failed to convert program arguments count %d to the type required by Lean", e.Argc)
}

// Is matches the generic components/argc error.
func (e *ArgcError) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return t.Phase == PhaseComponents && t.Kind == KindArgc
	}
	_, ok := target.(*ArgcError)
	return ok
}

// IOError is a Lean IO error rendered to bytes.
//
// The message is copied out of the foreign string, so it stays valid after
// the error object and the runtime are gone.
type IOError struct {
	Message []byte
}

// NewIOError converts a borrowed IO.Error object.
func NewIOError(a abi.ABI, ioError abi.Object) *IOError {
	a.Inc(ioError)
	str := a.IOErrorToString(ioError)
	msg := bytes.Clone(a.StringBytes(str))
	a.Dec(str)
	if msg == nil {
		msg = []byte{}
	}
	return &IOError{Message: msg}
}

// NewIOErrorFromResult converts the error held by a borrowed failed IO result.
func NewIOErrorFromResult(a abi.ABI, ioResult abi.Object) *IOError {
	return NewIOError(a, a.IOResultGetError(ioResult))
}

func (e *IOError) Error() string {
	return string(e.Message)
}

// Stage says whether the runtime reached Ready before failing.
type Stage uint8

const (
	// StageModules means a module initializer failed; the runtime never
	// reached Ready.
	StageModules Stage = iota + 1
	// StageRun means user code failed after Ready.
	StageRun
)

func (s Stage) String() string {
	switch s {
	case StageModules:
		return "modules"
	case StageRun:
		return "run"
	default:
		return fmt.Sprintf("stage(%d)", uint8(s))
	}
}

// Sentinels for errors.Is checks against RuntimeError stages.
var (
	ErrModulesInitialization = &RuntimeError{Stage: StageModules}
	ErrRun                   = &RuntimeError{Stage: StageRun}
)

// RuntimeError is returned by the runtime entry points.
type RuntimeError struct {
	Cause error
	Stage Stage
}

// ModulesInitialization wraps the converted module initialization failure.
func ModulesInitialization(cause error) *RuntimeError {
	return &RuntimeError{Stage: StageModules, Cause: cause}
}

// Run wraps an error returned by user code.
func Run(cause error) *RuntimeError {
	return &RuntimeError{Stage: StageRun, Cause: cause}
}

func (e *RuntimeError) Error() string {
	switch e.Stage {
	case StageModules:
		return "Lean modules initialization error"
	case StageRun:
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return "Lean run error"
	default:
		return "Lean runtime error"
	}
}

func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

// Is matches another RuntimeError of the same stage.
func (e *RuntimeError) Is(target error) bool {
	if t, ok := target.(*RuntimeError); ok {
		return e.Stage == t.Stage
	}
	return false
}
