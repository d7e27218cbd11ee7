// Package errors provides structured error types for the Lean runtime bindings.
//
// Errors are categorized by Phase (where in the lifecycle the error occurred)
// and Kind (error category):
//
//	err := errors.New(errors.PhaseCompose, errors.KindDuplicate).
//		Name("MapArrayModule").
//		Detail("duplicate capability").
//		Build()
//
// The Lean-specific taxonomy sits on top:
//
//	ArgcError     process arguments do not fit the ABI's int
//	IOError       a foreign IO.Error copied out as bytes
//	RuntimeError  StageModules (Ready never reached) or StageRun (user code)
//
// Use errors.Is with ErrModulesInitialization or ErrRun to tell the two
// runtime stages apart, and errors.As to reach the wrapped cause.
package errors
