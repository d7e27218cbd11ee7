package runtime

import (
	"fmt"
	"os"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/lean-runtime/abi"
	"github.com/wippyai/lean-runtime/errors"
)

// Phase is a step of the runtime initialization state machine.
type Phase uint32

const (
	PhaseUninitialized Phase = iota
	PhaseComponentsInitialized
	PhaseModulesInitialized
	PhaseReady
	PhaseFinalized
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseComponentsInitialized:
		return "components_initialized"
	case PhaseModulesInitialized:
		return "modules_initialized"
	case PhaseReady:
		return "ready"
	case PhaseFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("phase(%d)", uint32(p))
	}
}

// ErrorHandler converts the borrowed IO.Error of a failed module
// initialization into a Go error.
type ErrorHandler func(a abi.ABI, ioError abi.Object) error

// DefaultErrorHandler copies the error message into an *errors.IOError.
func DefaultErrorHandler(a abi.ABI, ioError abi.Object) error {
	return errors.NewIOError(a, ioError)
}

// Config selects the backend, components and modules of a runtime.
type Config struct {
	// ABI is the backend to initialize. Required.
	ABI abi.ABI

	// Components defaults to Minimal.
	Components Components

	// Modules defaults to NoModules.
	Modules Module

	// Args are handed to the runtime with SetupArgs. Nil means os.Args.
	Args []string

	// DisableBuiltin passes 0 as the builtin flag to module initializers.
	// Lean executables pass 1.
	DisableBuiltin bool

	// ErrorHandler defaults to DefaultErrorHandler.
	ErrorHandler ErrorHandler

	// Logger defaults to the package logger.
	Logger *zap.Logger
}

// state is shared by the main runtime and its secondary thread runtimes.
type state struct {
	a          abi.ABI
	components Components
	modules    Module
	handler    ErrorHandler
	log        *zap.Logger
	caps       []string
	builtin    uint8
	phase      atomic.Uint32
}

func (s *state) setPhase(p Phase) {
	s.phase.Store(uint32(p))
	s.log.Debug("lean runtime phase", zap.Stringer("phase", p))
}

// Initializer is a runtime whose components are initialized. It is consumed
// by InitializeModules.
type Initializer struct {
	s     *state
	spent bool
}

// NewInitializer initializes the runtime components. It fails with
// *errors.ArgcError if the arguments do not fit the ABI, before any foreign
// call.
func NewInitializer(cfg Config) (*Initializer, error) {
	if cfg.ABI == nil {
		return nil, errors.InvalidInput(errors.PhaseComponents, "no ABI backend configured")
	}

	s := &state{
		a:          cfg.ABI,
		components: cfg.Components,
		modules:    cfg.Modules,
		handler:    cfg.ErrorHandler,
		log:        cfg.Logger,
		builtin:    abi.Builtin,
	}
	if s.components == nil {
		s.components = Minimal{}
	}
	if s.modules == nil {
		s.modules = NoModules
	}
	if s.handler == nil {
		s.handler = DefaultErrorHandler
	}
	if s.log == nil {
		s.log = Logger()
	}
	if cfg.DisableBuiltin {
		s.builtin = 0
	}
	s.caps = CapabilitiesOf(s.modules)

	args := cfg.Args
	if args == nil {
		args = os.Args
	}

	s.log.Debug("initializing lean runtime components",
		zap.String("components", s.components.Name()),
		zap.Int("argc", len(args)))

	if err := s.components.InitializeRuntime(s.a, args); err != nil {
		return nil, err
	}
	s.setPhase(PhaseComponentsInitialized)
	return &Initializer{s: s}, nil
}

// InitializeModules runs the configured module initializers. A failure is
// returned as *errors.RuntimeError with StageModules wrapping the error
// produced by the configured ErrorHandler.
func (i *Initializer) InitializeModules() (*ModulesInitializer, error) {
	if i.spent {
		panic("runtime: Initializer used after InitializeModules")
	}
	i.spent = true

	s := i.s
	a := s.a
	s.log.Debug("initializing lean modules",
		zap.String("modules", s.modules.Name()),
		zap.Uint8("builtin", s.builtin))

	res := s.modules.Initialize(a, s.builtin, a.IOMkWorld())
	if !a.IOResultIsOk(res) {
		cause := s.handler(a, a.IOResultGetError(res))
		a.Dec(res)
		s.log.Debug("lean module initialization failed", zap.Error(cause))
		return nil, errors.ModulesInitialization(cause)
	}
	a.Dec(res)

	s.setPhase(PhaseModulesInitialized)
	return &ModulesInitializer{s: s}, nil
}

// ModulesInitializer is a runtime whose modules are initialized. It is
// consumed by MarkEndInitialization.
type ModulesInitializer struct {
	s     *state
	spent bool
}

// MarkEndInitialization ends the initialization phase, starts the task
// manager and returns the main thread runtime.
func (m *ModulesInitializer) MarkEndInitialization() *Runtime {
	if m.spent {
		panic("runtime: ModulesInitializer used after MarkEndInitialization")
	}
	m.spent = true

	m.s.components.MarkEndInitialization(m.s.a)
	m.s.setPhase(PhaseReady)
	return &Runtime{s: m.s, main: true}
}
