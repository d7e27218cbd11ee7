package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/lean-runtime/abi/heap"
	"github.com/wippyai/lean-runtime/abi/wasm"
	"github.com/wippyai/lean-runtime/config"
	"github.com/wippyai/lean-runtime/runtime"
)

type overrides struct {
	backend string
	wasm    string
	demo    string
	verbose bool
}

func main() {
	var (
		configFile  = flag.String("config", "", "Path to a YAML configuration file")
		backend     = flag.String("backend", "", "Backend: heap, wasm or native")
		wasmFile    = flag.String("wasm", "", "Path to a wasm-compiled Lean runtime (implies -backend wasm)")
		demo        = flag.String("demo", "", "Demo to run: make-string, map-array or threads")
		verbose     = flag.Bool("v", false, "Debug logging")
		interactive = flag.Bool("i", false, "Interactive heap viewer (heap backend)")
	)
	flag.Parse()

	cfg, err := loadConfig(*configFile, overrides{
		backend: *backend,
		wasm:    *wasmFile,
		demo:    *demo,
		verbose: *verbose,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Usage: leanrun [-config file.yaml] [-backend heap|wasm|native] [-wasm lean.wasm] [-demo name] [-i]")
		os.Exit(1)
	}

	if err := run(cfg, *interactive); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string, o overrides) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}

	if o.wasm != "" {
		cfg.Wasm.Path = o.wasm
		if o.backend == "" {
			cfg.Backend = "wasm"
		}
	}
	if o.backend != "" {
		cfg.Backend = o.backend
	}
	if o.demo != "" {
		cfg.Demo.Name = o.demo
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, cfg.Validate()
}

func run(cfg config.Config, interactive bool) error {
	log, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	runtime.SetLogger(log.Named("runtime"))
	wasm.SetLogger(log.Named("wasm"))

	var h *heap.Heap
	if interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("-i requires a terminal")
		}
		if cfg.Backend != "heap" {
			return fmt.Errorf("-i requires the heap backend, have %s", cfg.Backend)
		}
	}

	ctx := context.Background()
	b, err := openBackend(ctx, &cfg)
	if err != nil {
		return err
	}
	defer b.close()
	if interactive {
		h = b.abi.(*heap.Heap)
	}

	log.Debug("starting lean runtime",
		zap.String("backend", cfg.Backend),
		zap.String("components", cfg.Components),
		zap.String("modules", b.modules.Name()),
		zap.String("demo", cfg.Demo.Name))

	fmt.Println("Program start")
	_, err = runtime.Run(runtime.Config{
		ABI:            b.abi,
		Components:     cfg.RuntimeComponents(),
		Modules:        b.modules,
		Args:           cfg.Args,
		DisableBuiltin: cfg.DisableBuiltin,
		Logger:         log.Named("runtime"),
	}, func(rt *runtime.Runtime) (struct{}, error) {
		if interactive {
			return struct{}{}, runInteractive(rt, h, b.lib, &cfg)
		}
		return struct{}{}, runDemo(os.Stdout, rt, b.lib, &cfg)
	})
	if err != nil {
		return err
	}
	fmt.Println("Program end")
	return nil
}
