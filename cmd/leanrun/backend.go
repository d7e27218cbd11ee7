package main

import (
	"context"
	"fmt"
	"os"

	"github.com/wippyai/lean-runtime/abi"
	"github.com/wippyai/lean-runtime/abi/heap"
	"github.com/wippyai/lean-runtime/abi/wasm"
	"github.com/wippyai/lean-runtime/config"
	"github.com/wippyai/lean-runtime/examples/maparray"
	"github.com/wippyai/lean-runtime/runtime"
)

// mapArrayModule is the Lean module name served by package maparray.
const mapArrayModule = "MapArray"

type backend struct {
	abi     abi.ABI
	lib     *maparray.Library
	modules runtime.Module
	close   func()
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.Backend {
	case "heap":
		lib := maparray.New(maparray.Simulated())
		return &backend{
			abi:     heap.New(),
			lib:     lib,
			modules: lib.Module(),
			close:   func() {},
		}, nil
	case "wasm":
		return openWasm(ctx, cfg)
	case "native":
		return openNative(cfg)
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

func openWasm(ctx context.Context, cfg *config.Config) (*backend, error) {
	data, err := os.ReadFile(cfg.Wasm.Path)
	if err != nil {
		return nil, fmt.Errorf("read wasm: %w", err)
	}

	b, err := wasm.New(ctx, data, &wasm.Config{
		Stdout:           os.Stdout,
		Stderr:           os.Stderr,
		MemoryLimitPages: cfg.Wasm.MemoryLimitPages,
	})
	if err != nil {
		return nil, err
	}

	lib := maparray.New(maparray.FromExports(b))
	modules, err := guestModules(b, lib, cfg.Wasm.Modules)
	if err != nil {
		_ = b.Close(ctx)
		return nil, err
	}
	return &backend{
		abi:     b,
		lib:     lib,
		modules: modules,
		close:   func() { _ = b.Close(ctx) },
	}, nil
}

// guestModules combines the initializers of the named Lean modules.
func guestModules(b *wasm.Backend, lib *maparray.Library, names []string) (runtime.Module, error) {
	if len(names) == 0 {
		return runtime.NoModules, nil
	}

	entries := make([]runtime.Entry, 0, len(names))
	for _, name := range names {
		if name == mapArrayModule {
			entries = append(entries, runtime.Entry{Module: lib.Module()})
			continue
		}
		fn, err := b.Initializer(name)
		if err != nil {
			return nil, err
		}
		entries = append(entries, runtime.Entry{
			Module: runtime.ModuleFunc(name+"ModuleInitializer", fn),
		})
	}
	set, err := runtime.Combine("GuestModules", entries...)
	if err != nil {
		return nil, err
	}
	return set, nil
}
