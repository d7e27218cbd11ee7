package wasm

import (
	"context"
	"io"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/wippyai/lean-runtime/abi"
	"github.com/wippyai/lean-runtime/errors"
)

// DefaultModuleName is the instance name of the guest when Config.Name is empty.
const DefaultModuleName = "lean"

// Config holds configuration for backend creation
type Config struct {
	// Stdout and Stderr receive the guest's WASI output. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer

	// HostModules instantiates extra host modules the guest imports. It runs
	// after WASI and before the guest is instantiated.
	HostModules func(ctx context.Context, r wazero.Runtime) error

	// Name is the guest instance name. Defaults to DefaultModuleName.
	Name string

	// MemoryLimitPages sets the maximum guest memory in pages (64KB each).
	// 0 means the wazero default.
	MemoryLimitPages uint32

	// EnableThreads enables the WebAssembly threads proposal (experimental).
	EnableThreads bool
}

// Backend implements abi.ABI over a wasm-compiled Lean runtime.
//
// Guest calls are serialized; the guest is single-threaded even when
// several Go threads are attached to the runtime.
type Backend struct {
	ctx     context.Context
	runtime wazero.Runtime
	module  api.Module
	mem     *memory
	fns     map[string]api.Function
	name    string
	mu      sync.Mutex
}

var _ abi.ABI = (*Backend)(nil)

// New compiles and instantiates a guest exporting the Lean runtime entry
// points listed by RequiredExports. A guest that lacks any of them fails
// with *errors.MissingExportsError naming all of them.
//
// ctx is retained and used for every guest call made through abi.ABI.
func New(ctx context.Context, wasmBytes []byte, cfg *Config) (*Backend, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	name := cfg.Name
	if name == "" {
		name = DefaultModuleName
	}

	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	if cfg.EnableThreads {
		runtimeCfg = runtimeCfg.WithCoreFeatures(api.CoreFeaturesV2 | experimental.CoreFeaturesThreads)
	}
	r := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	b, err := instantiate(ctx, r, name, wasmBytes, cfg)
	if err != nil {
		_ = r.Close(ctx)
		return nil, err
	}
	return b, nil
}

func instantiate(ctx context.Context, r wazero.Runtime, name string, wasmBytes []byte, cfg *Config) (*Backend, error) {
	log := Logger()

	compiled, err := r.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.Load("compile guest module "+name, err)
	}
	if err := checkExports(name, compiled); err != nil {
		return nil, err
	}
	log.Debug("guest compiled",
		zap.String("module", name),
		zap.Int("bytes", len(wasmBytes)))

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		return nil, errors.Load("instantiate WASI", err)
	}
	if cfg.HostModules != nil {
		if err := cfg.HostModules(ctx, r); err != nil {
			return nil, errors.Load("instantiate host modules", err)
		}
	}

	modCfg := wazero.NewModuleConfig().
		WithName(name).
		WithStartFunctions("_initialize")
	if cfg.Stdout != nil {
		modCfg = modCfg.WithStdout(cfg.Stdout)
	}
	if cfg.Stderr != nil {
		modCfg = modCfg.WithStderr(cfg.Stderr)
	}

	mod, err := r.InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		return nil, errors.Load("instantiate guest module "+name, err)
	}

	b := &Backend{
		ctx:     ctx,
		runtime: r,
		module:  mod,
		mem:     &memory{mem: mod.ExportedMemory(memoryExport)},
		fns:     make(map[string]api.Function, len(requiredExports)),
		name:    name,
	}
	for _, e := range requiredExports {
		b.fns[e.name] = mod.ExportedFunction(e.name)
	}
	log.Debug("guest instantiated", zap.String("module", name))
	return b, nil
}

// Close releases the guest and its wazero runtime.
func (b *Backend) Close(ctx context.Context) error {
	return b.runtime.Close(ctx)
}

// Name returns the guest instance name.
func (b *Backend) Name() string { return b.name }

// Call invokes any guest export, such as a compiled Lean function, with raw
// wasm values. Objects are passed as their uint32 guest pointers.
func (b *Backend) Call(name string, args ...uint64) ([]uint64, error) {
	fn := b.module.ExportedFunction(name)
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseABI, "export", name)
	}
	return b.callFn(fn, name, args...)
}

// Initializer returns the initialize_<leanModule> export as a function with
// the shape of runtime.Module's Initialize. Wrap it with runtime.ModuleFunc.
func (b *Backend) Initializer(leanModule string) (func(a abi.ABI, builtin uint8, world abi.Object) abi.Object, error) {
	name := "initialize_" + leanModule
	fn := b.module.ExportedFunction(name)
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseModules, "module initializer export", name)
	}
	if err := checkSignature(name, fn.Definition(), initializerSignature); err != nil {
		return nil, err
	}
	return func(_ abi.ABI, builtin uint8, world abi.Object) abi.Object {
		res, err := b.callFn(fn, name, uint64(builtin), ptr(world))
		if err != nil {
			panic(err)
		}
		return abi.Object(uint32(res[0]))
	}, nil
}

// callFn calls fn under the guest lock and converts a trap into an error.
func (b *Backend) callFn(fn api.Function, name string, args ...uint64) ([]uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	res, err := fn.Call(b.ctx, args...)
	if err != nil {
		return nil, errors.Trap(name, err)
	}
	return res, nil
}

// invoke calls a required export. Traps panic; see package doc.
func (b *Backend) invoke(name string, args ...uint64) []uint64 {
	res, err := b.callFn(b.fns[name], name, args...)
	if err != nil {
		panic(err)
	}
	return res
}

func (b *Backend) call(name string, args ...uint64) uint64 {
	return b.invoke(name, args...)[0]
}

func (b *Backend) u32(name string, args ...uint64) uint32 {
	return uint32(b.call(name, args...))
}

func (b *Backend) object(name string, args ...uint64) abi.Object {
	return abi.Object(b.u32(name, args...))
}

// ptr converts an object to its wasm32 guest pointer.
func ptr(o abi.Object) uint64 {
	return uint64(uint32(o))
}
