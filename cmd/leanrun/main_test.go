package main

import (
	stderrors "errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wippyai/lean-runtime/abi/heap"
	"github.com/wippyai/lean-runtime/config"
	"github.com/wippyai/lean-runtime/errors"
	"github.com/wippyai/lean-runtime/examples/maparray"
	"github.com/wippyai/lean-runtime/runtime"
)

func withRuntime(t *testing.T, fn func(rt *runtime.Runtime, h *heap.Heap, lib *maparray.Library)) *heap.Heap {
	t.Helper()
	h := heap.New()
	lib := maparray.New(maparray.Simulated())
	_, err := runtime.RunUnchecked(runtime.Config{
		ABI:     h,
		Args:    []string{"leanrun-test"},
		Modules: lib.Module(),
	}, func(rt *runtime.Runtime) (struct{}, error) {
		fn(rt, h, lib)
		return struct{}{}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name        string
		o           overrides
		wantBackend string
		wantLevel   string
		wantErr     bool
	}{
		{name: "defaults", wantBackend: "heap", wantLevel: "info"},
		{name: "wasm implies backend", o: overrides{wasm: "lean.wasm"}, wantBackend: "wasm", wantLevel: "info"},
		{name: "explicit backend wins", o: overrides{wasm: "lean.wasm", backend: "heap"}, wantBackend: "heap", wantLevel: "info"},
		{name: "verbose", o: overrides{verbose: true}, wantBackend: "heap", wantLevel: "debug"},
		{name: "wasm without path", o: overrides{backend: "wasm"}, wantErr: true},
		{name: "unknown demo", o: overrides{demo: "nope"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := loadConfig("", tt.o)
			if tt.wantErr {
				var e *errors.Error
				if !stderrors.As(err, &e) || e.Phase != errors.PhaseConfig {
					t.Fatalf("loadConfig() error = %v, want config error", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if cfg.Backend != tt.wantBackend || cfg.Log.Level != tt.wantLevel {
				t.Errorf("Backend, Level = %q, %q", cfg.Backend, cfg.Log.Level)
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := loadConfig("/nonexistent/leanrun.yaml", overrides{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestRunDemo(t *testing.T) {
	tests := []struct {
		name string
		edit func(cfg *config.Config)
		want string
	}{
		{
			name: "map-array",
			want: "MapOptions instance: { addend := 2, multiplicand := 3 }\n" +
				"Input array: [0 5 10 15 20 25]\n" +
				"Output array: [2 17 32 47 62 77]\n",
		},
		{
			name: "make-string",
			edit: func(cfg *config.Config) { cfg.Demo.Name = "make-string" },
			want: "Hello, world!\n",
		},
		{
			name: "threads",
			edit: func(cfg *config.Config) {
				cfg.Demo.Name = "threads"
				cfg.Demo.Text = "hi"
				cfg.Demo.Threads = 3
			},
			want: "hi from thread 0!\nhi from thread 1!\nhi from thread 2!\n",
		},
		{
			name: "no threads",
			edit: func(cfg *config.Config) {
				cfg.Demo.Name = "threads"
				cfg.Demo.Threads = 0
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			if tt.edit != nil {
				tt.edit(&cfg)
			}
			var out strings.Builder
			h := withRuntime(t, func(rt *runtime.Runtime, _ *heap.Heap, lib *maparray.Library) {
				if err := runDemo(&out, rt, lib, &cfg); err != nil {
					t.Error(err)
				}
			})
			if out.String() != tt.want {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}
			if n := h.Live(); n != 0 {
				t.Errorf("%d objects leaked", n)
			}
		})
	}
}

func TestRunDemo_Unknown(t *testing.T) {
	cfg := config.Default()
	cfg.Demo.Name = "nope"
	withRuntime(t, func(rt *runtime.Runtime, _ *heap.Heap, lib *maparray.Library) {
		if err := runDemo(&strings.Builder{}, rt, lib, &cfg); err == nil {
			t.Error("expected error")
		}
	})
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestViewer_Demo(t *testing.T) {
	cfg := config.Default()
	withRuntime(t, func(rt *runtime.Runtime, h *heap.Heap, lib *maparray.Library) {
		m := newViewerModel(rt, h, lib, &cfg, newEventFeed())

		_, cmd := m.Update(key("s"))
		if cmd == nil || !m.running {
			t.Fatal("s must start the make-string demo")
		}
		if _, again := m.Update(key("m")); again != nil {
			t.Error("a second demo must not start while one is running")
		}

		raw := cmd()
		msg, ok := raw.(demoMsg)
		if !ok {
			t.Fatalf("cmd() = %T, want demoMsg", raw)
		}
		m.Update(msg)
		if m.running || m.err != nil || m.output != "Hello, world!" {
			t.Errorf("running=%v err=%v output=%q", m.running, m.err, m.output)
		}
		if !strings.Contains(m.View(), "Hello, world!") {
			t.Error("view must show the demo output")
		}
	})
}

func TestViewer_EditText(t *testing.T) {
	cfg := config.Default()
	withRuntime(t, func(rt *runtime.Runtime, h *heap.Heap, lib *maparray.Library) {
		m := newViewerModel(rt, h, lib, &cfg, newEventFeed())

		m.Update(key("e"))
		if !m.editing {
			t.Fatal("e must start editing")
		}
		m.input.SetValue("Lean")
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if m.editing || m.text != "Lean" {
			t.Fatalf("editing=%v text=%q", m.editing, m.text)
		}

		_, cmd := m.Update(key("s"))
		m.Update(cmd())
		if m.output != "Lean!" {
			t.Errorf("output = %q", m.output)
		}
		if cfg.Demo.Text != "Hello, world" {
			t.Error("editing must not change the configuration")
		}
	})
}

func TestViewer_Events(t *testing.T) {
	cfg := config.Default()
	withRuntime(t, func(rt *runtime.Runtime, h *heap.Heap, lib *maparray.Library) {
		feed := newEventFeed()
		h.Subscribe(feed)
		defer h.Unsubscribe(feed)
		m := newViewerModel(rt, h, lib, &cfg, feed)

		s := h.MkString([]byte("watched"))
		msg, ok := m.waitEvent().(eventMsg)
		if !ok || msg.Type != heap.EventAllocated || msg.Object != s {
			t.Fatalf("waitEvent() = %+v", msg)
		}
		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Error("an event must schedule the next wait")
		}
		if len(m.events) != 1 || !strings.HasPrefix(m.events[0], "allocated") {
			t.Errorf("events = %q", m.events)
		}
		if view := m.View(); !strings.Contains(view, "watched") {
			t.Error("view must list live objects")
		}

		h.Dec(s)
		feed.stop()
		for len(feed.ch) > 0 {
			<-feed.ch
		}
		if got := m.waitEvent(); got != nil {
			t.Errorf("waitEvent() after stop = %v", got)
		}
	})
}

func TestEventFeed_Drops(t *testing.T) {
	feed := newEventFeed()
	for range eventBuffer + 5 {
		feed.OnHeapEvent(heap.Event{Type: heap.EventLifecycle})
	}
	if got := feed.dropped.Load(); got != 5 {
		t.Errorf("dropped = %d, want 5", got)
	}
}
