// Package config loads leanrun configuration files.
//
// A configuration is YAML; every field is optional:
//
//	backend: wasm
//	components: minimal
//	wasm:
//	  path: build/lean.wasm
//	  modules: [MapArray]
//	log:
//	  level: debug
//	demo:
//	  name: map-array
//	  addend: 2
//	  multiplicand: 3
//	  input: [0, 5, 10, 15, 20, 25]
package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"slices"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/lean-runtime/errors"
	"github.com/wippyai/lean-runtime/runtime"
)

// Backends and demos accepted by Validate.
var (
	Backends   = []string{"heap", "wasm", "native"}
	Components = []string{"minimal", "package"}
	Demos      = []string{"make-string", "map-array", "threads"}
)

// Config is the leanrun configuration.
type Config struct {
	Backend        string     `yaml:"backend"`
	Components     string     `yaml:"components"`
	Args           []string   `yaml:"args"`
	Wasm           WasmConfig `yaml:"wasm"`
	Log            LogConfig  `yaml:"log"`
	Demo           DemoConfig `yaml:"demo"`
	DisableBuiltin bool       `yaml:"disable_builtin"`
}

// WasmConfig configures the wasm backend.
type WasmConfig struct {
	// Path of the guest module.
	Path string `yaml:"path"`
	// Modules are the Lean modules whose initialize_<Module> exports run at
	// startup, in order. Empty initializes no modules.
	Modules          []string `yaml:"modules"`
	MemoryLimitPages uint32   `yaml:"memory_limit_pages"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Encoding    string `yaml:"encoding"`
	Development bool   `yaml:"development"`
}

// DemoConfig holds the inputs of the built-in demos.
type DemoConfig struct {
	Name         string `yaml:"name"`
	Text         string `yaml:"text"`
	Input        []int  `yaml:"input"`
	Threads      int    `yaml:"threads"`
	Addend       int32  `yaml:"addend"`
	Multiplicand int32  `yaml:"multiplicand"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Backend:    "heap",
		Components: "minimal",
		Log: LogConfig{
			Level:    "info",
			Encoding: "console",
		},
		Demo: DemoConfig{
			Name:         "map-array",
			Text:         "Hello, world",
			Input:        []int{0, 5, 10, 15, 20, 25},
			Threads:      4,
			Addend:       2,
			Multiplicand: 3,
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Config("read "+path, err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// fields are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return Config{}, errors.Config("decode yaml", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if !slices.Contains(Backends, c.Backend) {
		return errors.Config(fmt.Sprintf("backend %q, want one of %v", c.Backend, Backends), nil)
	}
	if !slices.Contains(Components, c.Components) {
		return errors.Config(fmt.Sprintf("components %q, want one of %v", c.Components, Components), nil)
	}
	if c.Backend == "wasm" && c.Wasm.Path == "" {
		return errors.Config("wasm backend requires wasm.path", nil)
	}
	for i, m := range c.Wasm.Modules {
		if m == "" || slices.Contains(c.Wasm.Modules[:i], m) {
			return errors.Config(fmt.Sprintf("wasm.modules[%d] %q is empty or repeated", i, m), nil)
		}
	}
	if c.Demo.Name != "" && !slices.Contains(Demos, c.Demo.Name) {
		return errors.Config(fmt.Sprintf("demo %q, want one of %v", c.Demo.Name, Demos), nil)
	}
	for i, v := range c.Demo.Input {
		if v < 0 || v > 255 {
			return errors.Config(fmt.Sprintf("demo.input[%d] = %d is not a byte", i, v), nil)
		}
	}
	if c.Demo.Threads < 0 {
		return errors.Config("demo.threads must not be negative", nil)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return errors.Config("log.level", err)
	}
	if c.Log.Encoding != "console" && c.Log.Encoding != "json" {
		return errors.Config(fmt.Sprintf("log.encoding %q, want console or json", c.Log.Encoding), nil)
	}
	return nil
}

// Input returns the demo input as bytes. Validate guarantees the range.
func (c *Config) Input() []uint8 {
	out := make([]uint8, len(c.Demo.Input))
	for i, v := range c.Demo.Input {
		out[i] = uint8(v)
	}
	return out
}

// RuntimeComponents maps Components to the runtime component set.
func (c *Config) RuntimeComponents() runtime.Components {
	if c.Components == "package" {
		return runtime.Package{}
	}
	return runtime.Minimal{}
}

// NewLogger builds a zap logger for the log section.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, errors.Config("log.level", err)
	}

	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = c.Log.Encoding
	if c.Log.Encoding == "console" {
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	zc.OutputPaths = []string{"stderr"}

	l, err := zc.Build()
	if err != nil {
		return nil, errors.Config("build logger", err)
	}
	return l, nil
}
