package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseCompose,
				Kind:   KindDuplicate,
				Name:   "MapArrayModule",
				Detail: "duplicate capability",
			},
			contains: []string{"[compose]", "duplicate", "MapArrayModule", "duplicate capability"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseThread,
				Kind:  KindNotInitialized,
			},
			contains: []string{"[thread]", "not_initialized"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseABI,
				Kind:   KindTrap,
				Detail: "foreign call aborted",
				Cause:  errors.New("unreachable"),
			},
			contains: []string{"[abi]", "trap", "foreign call aborted", "caused by", "unreachable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !containsSubstring(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseLoad,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	// Test with errors.Unwrap
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseCompose,
		Kind:  KindDuplicate,
		Name:  "foo",
	}

	// Same phase and kind
	if !err.Is(&Error{Phase: PhaseCompose, Kind: KindDuplicate}) {
		t.Error("Is should match same phase and kind")
	}

	// Different phase
	if err.Is(&Error{Phase: PhaseModules, Kind: KindDuplicate}) {
		t.Error("Is should not match different phase")
	}

	// Different kind
	if err.Is(&Error{Phase: PhaseCompose, Kind: KindEmpty}) {
		t.Error("Is should not match different kind")
	}

	// Test with errors.Is through a wrapper
	wrapped := fmt.Errorf("compose: %w", err)
	if !errors.Is(wrapped, &Error{Phase: PhaseCompose, Kind: KindDuplicate}) {
		t.Error("errors.Is should match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseCompose, KindNaming).
		Name("MapArray").
		Value(42).
		Cause(cause).
		Detail("name must end in %q", "ModuleInitializer").
		Build()

	if err.Phase != PhaseCompose {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseCompose)
	}
	if err.Kind != KindNaming {
		t.Errorf("Kind = %v, want %v", err.Kind, KindNaming)
	}
	if err.Name != "MapArray" {
		t.Errorf("Name = %v, want 'MapArray'", err.Name)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != `name must end in "ModuleInitializer"` {
		t.Errorf("Detail = %v", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("Duplicate", func(t *testing.T) {
		err := Duplicate("module", "FooModuleInitializer")
		if err.Phase != PhaseCompose || err.Kind != KindDuplicate {
			t.Errorf("Phase=%v Kind=%v", err.Phase, err.Kind)
		}
		if !containsSubstring(err.Detail, `"FooModuleInitializer"`) {
			t.Errorf("Detail = %v, should contain name", err.Detail)
		}
	})

	t.Run("NotInitialized", func(t *testing.T) {
		err := NotInitialized(PhaseThread, "runtime")
		if err.Kind != KindNotInitialized {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNotInitialized)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseABI, "export", "my_map")
		if err.Kind != KindNotFound || err.Name != "my_map" {
			t.Errorf("Kind=%v Name=%v", err.Kind, err.Name)
		}
	})

	t.Run("InvalidInput", func(t *testing.T) {
		err := InvalidInput(PhaseConfig, "unknown backend")
		if err.Kind != KindInvalidInput {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidInput)
		}
	})

	t.Run("Trap", func(t *testing.T) {
		cause := errors.New("wasm error: unreachable")
		err := Trap("lean_alloc_ctor", cause)
		if err.Phase != PhaseABI || err.Kind != KindTrap || !errors.Is(err, cause) {
			t.Errorf("unexpected trap error %v", err)
		}
	})

	t.Run("Panic", func(t *testing.T) {
		cause := errors.New("boom")
		err := Panic(PhaseThread, "worker", cause)
		if err.Kind != KindPanic || !errors.Is(err, cause) {
			t.Errorf("unexpected panic error %v", err)
		}
		if err := Panic(PhaseThread, "worker", 7); err.Cause != nil || err.Value != 7 {
			t.Errorf("non-error panic value should only be recorded, got %v", err)
		}
	})

	t.Run("Load", func(t *testing.T) {
		err := Load("compile module", errors.New("bad magic"))
		if err.Phase != PhaseLoad || err.Cause == nil {
			t.Errorf("Phase=%v Cause=%v", err.Phase, err.Cause)
		}
	})

	t.Run("Config", func(t *testing.T) {
		err := Config("parse config", nil)
		if err.Phase != PhaseConfig || err.Kind != KindInvalidInput {
			t.Errorf("Phase=%v Kind=%v", err.Phase, err.Kind)
		}
	})
}

func TestMissingExportsError(t *testing.T) {
	t.Run("listing", func(t *testing.T) {
		err := NewMissingExportsError("lean.wasm", []string{"lean_alloc_ctor", "lean_dec_ref"})
		msg := err.Error()
		for _, s := range []string{`"lean.wasm"`, "2 export(s)", "- lean_alloc_ctor", "- lean_dec_ref"} {
			if !containsSubstring(msg, s) {
				t.Errorf("message %q does not contain %q", msg, s)
			}
		}
	})

	t.Run("copies input", func(t *testing.T) {
		exports := []string{"a"}
		err := NewMissingExportsError("m", exports)
		exports[0] = "b"
		if err.Exports[0] != "a" {
			t.Error("exports slice must be copied")
		}
	})

	t.Run("empty exports", func(t *testing.T) {
		err := NewMissingExportsError("m", nil)
		if !containsSubstring(err.Error(), "no exports specified") {
			t.Errorf("empty error should have specific message, got: %s", err.Error())
		}
	})

	t.Run("errors.Is", func(t *testing.T) {
		err := fmt.Errorf("load: %w", NewMissingExportsError("m", []string{"x"}))
		if !errors.Is(err, &MissingExportsError{}) {
			t.Error("errors.Is should match MissingExportsError")
		}
		if !errors.Is(err, &Error{Phase: PhaseLoad, Kind: KindMissingExport}) {
			t.Error("errors.Is should match the load/missing_export kind")
		}
		var target *MissingExportsError
		if !errors.As(err, &target) || target.Exports[0] != "x" {
			t.Error("errors.As should reach the export list")
		}
	})
}

func TestArgcError(t *testing.T) {
	err := &ArgcError{Argc: 1 << 40}
	want := "failed to convert program arguments count 1099511627776 to the type required by Lean"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, &Error{Phase: PhaseComponents, Kind: KindArgc}) {
		t.Error("ArgcError should match components/argc")
	}
	if !errors.Is(err, &ArgcError{}) {
		t.Error("ArgcError should match itself")
	}
}

func TestRuntimeError(t *testing.T) {
	tests := []struct {
		name    string
		err     *RuntimeError
		msg     string
		matches error
		other   error
	}{
		{
			name:    "modules",
			err:     ModulesInitialization(&IOError{Message: []byte("test user error message")}),
			msg:     "Lean modules initialization error",
			matches: ErrModulesInitialization,
			other:   ErrRun,
		},
		{
			name:    "run",
			err:     Run(errors.New("user failure")),
			msg:     "user failure",
			matches: ErrRun,
			other:   ErrModulesInitialization,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.msg {
				t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.msg)
			}
			if !errors.Is(tt.err, tt.matches) {
				t.Errorf("errors.Is(%v) = false", tt.matches)
			}
			if errors.Is(tt.err, tt.other) {
				t.Errorf("errors.Is(%v) = true", tt.other)
			}
			if errors.Unwrap(tt.err) == nil {
				t.Error("Unwrap should return the cause")
			}
		})
	}

	var ioErr *IOError
	if !errors.As(ModulesInitialization(&IOError{Message: []byte("m")}), &ioErr) || ioErr.Error() != "m" {
		t.Error("errors.As should reach the IOError cause")
	}
	if StageModules.String() != "modules" || StageRun.String() != "run" {
		t.Error("unexpected stage names")
	}
}

func containsSubstring(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(substr) == 0 ||
		(len(s) > 0 && containsSubstringHelper(s, substr)))
}

func containsSubstringHelper(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
