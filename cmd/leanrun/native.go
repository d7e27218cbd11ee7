//go:build lean && cgo

package main

import (
	"github.com/wippyai/lean-runtime/abi/native"
	"github.com/wippyai/lean-runtime/config"
	"github.com/wippyai/lean-runtime/examples/maparray"
)

// openNative runs against the Lean runtime linked into the binary. MapArray
// is not linked, so its functions are simulated on top of the native ABI.
func openNative(*config.Config) (*backend, error) {
	lib := maparray.New(maparray.Simulated())
	return &backend{
		abi:     native.New(),
		lib:     lib,
		modules: lib.Module(),
		close:   func() {},
	}, nil
}
