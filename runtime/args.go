package runtime

import (
	"math"

	"github.com/wippyai/lean-runtime/abi"
	"github.com/wippyai/lean-runtime/errors"
)

// argcFor converts an argument count to the C int the runtime expects.
func argcFor(n int) (int32, error) {
	if n < 0 || int64(n) > math.MaxInt32 {
		return 0, &errors.ArgcError{Argc: n}
	}
	return int32(n), nil
}

// setupArgs hands args to the runtime. The backend may keep them for the
// life of the process, so callers must not reuse the slice.
func setupArgs(a abi.ABI, args []string) error {
	argc, err := argcFor(len(args))
	if err != nil {
		return err
	}
	a.SetupArgs(argc, args)
	return nil
}
