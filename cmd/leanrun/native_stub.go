//go:build !(lean && cgo)

package main

import (
	"github.com/wippyai/lean-runtime/config"
	"github.com/wippyai/lean-runtime/errors"
)

func openNative(*config.Config) (*backend, error) {
	return nil, errors.New(errors.PhaseLoad, errors.KindUnsupported).
		Name("native").
		Detail("leanrun was built without the lean build tag or without cgo").
		Build()
}
