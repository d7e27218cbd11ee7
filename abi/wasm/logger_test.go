package wasm

import (
	"testing"

	"go.uber.org/zap"
)

func TestSetLogger(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	l := zap.NewExample()
	SetLogger(l)
	if Logger() != l {
		t.Fatal("SetLogger was not applied")
	}
	SetLogger(nil)
	if Logger() == nil {
		t.Fatal("SetLogger(nil) left a nil logger")
	}
}
