package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/wippyai/lean-runtime/errors"
	"github.com/wippyai/lean-runtime/runtime"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Backend != "heap" || cfg.Components != "minimal" {
		t.Errorf("Backend, Components = %q, %q", cfg.Backend, cfg.Components)
	}
	if !slices.Equal(cfg.Input(), []uint8{0, 5, 10, 15, 20, 25}) {
		t.Errorf("Input() = %v", cfg.Input())
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
backend: wasm
components: package
wasm:
  path: build/lean.wasm
  modules: [MapArray, Greeting]
  memory_limit_pages: 256
log:
  level: debug
  encoding: json
demo:
  name: threads
  threads: 8
`))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Backend != "wasm" || cfg.Wasm.Path != "build/lean.wasm" || !slices.Equal(cfg.Wasm.Modules, []string{"MapArray", "Greeting"}) {
		t.Errorf("wasm fields = %+v", cfg.Wasm)
	}
	if cfg.Wasm.MemoryLimitPages != 256 {
		t.Errorf("MemoryLimitPages = %d", cfg.Wasm.MemoryLimitPages)
	}
	if cfg.Demo.Name != "threads" || cfg.Demo.Threads != 8 {
		t.Errorf("demo = %+v", cfg.Demo)
	}
	// Untouched fields keep their defaults.
	if cfg.Demo.Addend != 2 || cfg.Demo.Multiplicand != 3 {
		t.Errorf("addend, multiplicand = %d, %d", cfg.Demo.Addend, cfg.Demo.Multiplicand)
	}
	if _, ok := cfg.RuntimeComponents().(runtime.Package); !ok {
		t.Errorf("RuntimeComponents() = %T", cfg.RuntimeComponents())
	}
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend != Default().Backend {
		t.Errorf("Backend = %q", cfg.Backend)
	}
	if _, ok := cfg.RuntimeComponents().(runtime.Minimal); !ok {
		t.Errorf("RuntimeComponents() = %T", cfg.RuntimeComponents())
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name, yaml, want string
	}{
		{"unknown field", "bakend: heap", "decode yaml"},
		{"bad yaml", "backend: [", "decode yaml"},
		{"backend", "backend: jvm", `backend "jvm"`},
		{"components", "components: all", `components "all"`},
		{"wasm without path", "backend: wasm", "requires wasm.path"},
		{"repeated module", "wasm: {modules: [A, A]}", `wasm.modules[1] "A"`},
		{"demo", "demo: {name: fly}", `demo "fly"`},
		{"input range", "demo: {input: [1, 256]}", "demo.input[1] = 256"},
		{"threads", "demo: {threads: -1}", "demo.threads"},
		{"log level", "log: {level: loud}", "log.level"},
		{"log encoding", "log: {encoding: xml}", `log.encoding "xml"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindInvalidInput}) {
				t.Errorf("err = %v, want config/invalid_input", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leanrun.yaml")
	if err := os.WriteFile(path, []byte("demo:\n  name: make-string\n  text: hi\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Demo.Name != "make-string" || cfg.Demo.Text != "hi" {
		t.Errorf("demo = %+v", cfg.Demo)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Load of a missing file succeeded")
	}
}

func TestNewLogger(t *testing.T) {
	for _, enc := range []string{"console", "json"} {
		t.Run(enc, func(t *testing.T) {
			cfg := Default()
			cfg.Log.Encoding = enc
			cfg.Log.Level = "warn"
			l, err := cfg.NewLogger()
			if err != nil {
				t.Fatal(err)
			}
			if l.Core().Enabled(-1) {
				t.Error("debug enabled at warn level")
			}
			if !l.Core().Enabled(1) {
				t.Error("warn disabled at warn level")
			}
		})
	}
}
