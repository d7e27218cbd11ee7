package errors_test

import (
	"testing"

	"github.com/wippyai/lean-runtime/abi/heap"
	"github.com/wippyai/lean-runtime/errors"
)

func TestNewIOError(t *testing.T) {
	h := heap.New()
	h.SetupArgs(0, nil)
	h.InitializeRuntimeModule()

	res := h.IOResultMkError(h.MkIOUserError(h.MkString([]byte("test user error message"))))

	err := errors.NewIOErrorFromResult(h, res)
	if err.Error() != "test user error message" {
		t.Fatalf("Error() = %q", err.Error())
	}

	// The result is borrowed and must survive the conversion.
	if rc, ok := h.RefCount(res); !ok || rc != 1 {
		t.Fatalf("result rc = %d, %v; want 1, true", rc, ok)
	}
	h.Dec(res)
	if h.Live() != 0 {
		t.Fatalf("Live() = %d, want 0", h.Live())
	}

	// The message is an owned copy.
	if string(err.Message) != "test user error message" {
		t.Fatalf("Message = %q after the runtime objects were freed", err.Message)
	}
}

func TestNewIOError_Empty(t *testing.T) {
	h := heap.New()
	h.SetupArgs(0, nil)
	h.InitializeRuntimeModule()

	ioErr := h.MkIOUserError(h.MkString(nil))
	err := errors.NewIOError(h, ioErr)
	if err.Message == nil || len(err.Message) != 0 {
		t.Fatalf("Message = %#v, want empty non-nil", err.Message)
	}
	h.Dec(ioErr)
	if h.Live() != 0 {
		t.Fatalf("Live() = %d, want 0", h.Live())
	}
}
