package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the runtime lifecycle the error occurred
type Phase string

const (
	PhaseComponents Phase = "components" // runtime component initialization
	PhaseModules    Phase = "modules"    // module initialization
	PhaseRun        Phase = "run"        // user code after Ready
	PhaseThread     Phase = "thread"     // secondary thread attachment
	PhaseABI        Phase = "abi"        // foreign entry point calls
	PhaseCompose    Phase = "compose"    // module set composition
	PhaseLoad       Phase = "load"       // backend loading
	PhaseConfig     Phase = "config"     // configuration
)

// Kind categorizes the error
type Kind string

const (
	KindArgc           Kind = "argc"
	KindInitialization Kind = "initialization"
	KindDuplicate      Kind = "duplicate"
	KindEmpty          Kind = "empty"
	KindNaming         Kind = "naming"
	KindMissingExport  Kind = "missing_export"
	KindNotFound       Kind = "not_found"
	KindNotInitialized Kind = "not_initialized"
	KindInvalidInput   Kind = "invalid_input"
	KindInvalidData    Kind = "invalid_data"
	KindTrap           Kind = "trap"
	KindPanic          Kind = "panic"
	KindUnsupported    Kind = "unsupported"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Name   string
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Name != "" {
		b.WriteString(" ")
		b.WriteString(e.Name)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Name sets the name of the entity the error is about
func (b *Builder) Name(name string) *Builder {
	b.err.Name = name
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Duplicate reports a name registered twice in one module set
func Duplicate(what, name string) *Error {
	return &Error{
		Phase:  PhaseCompose,
		Kind:   KindDuplicate,
		Name:   name,
		Detail: fmt.Sprintf("duplicate %s %q", what, name),
		Value:  name,
	}
}

// NotInitialized creates a not-initialized error
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Name:   name,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Trap reports a foreign call that aborted
func Trap(name string, cause error) *Error {
	return &Error{
		Phase:  PhaseABI,
		Kind:   KindTrap,
		Name:   name,
		Detail: "foreign call aborted",
		Cause:  cause,
	}
}

// Panic wraps a recovered panic value
func Panic(phase Phase, name string, value any) *Error {
	e := &Error{
		Phase:  phase,
		Kind:   KindPanic,
		Name:   name,
		Detail: fmt.Sprintf("panic: %v", value),
		Value:  value,
	}
	if err, ok := value.(error); ok {
		e.Cause = err
	}
	return e
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Load creates a backend loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// Config creates a configuration error
func Config(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindInvalidInput,
		Detail: detail,
		Cause:  cause,
	}
}

// MissingExportsError is returned when a backend module lacks runtime entry points
type MissingExportsError struct {
	Module  string
	Exports []string
}

// NewMissingExportsError creates an error listing every missing export of module
func NewMissingExportsError(module string, exports []string) *MissingExportsError {
	return &MissingExportsError{
		Module:  module,
		Exports: append([]string(nil), exports...),
	}
}

func (e *MissingExportsError) Error() string {
	if len(e.Exports) == 0 {
		return "[load] missing_export: no exports specified"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "module %q is missing %d export(s):\n", e.Module, len(e.Exports))
	for _, name := range e.Exports {
		b.WriteString("  - ")
		b.WriteString(name)
		b.WriteByte('\n')
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Is reports whether target matches this error type
func (e *MissingExportsError) Is(target error) bool {
	switch t := target.(type) {
	case *MissingExportsError:
		return true
	case *Error:
		return t.Phase == PhaseLoad && t.Kind == KindMissingExport
	}
	return false
}
