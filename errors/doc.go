// Package errors provides structured error types for the hmr-runtime library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes the module chain leading to the failure
// and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseUpdate, errors.KindInvariant).
//		Chain("app", "lib").
//		Detail("module has no parents and is not a root").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.MissingFactory("lib", "imported by app")
//	err := errors.FactoryFailed("lib", cause)
//
// Update rejections carry the full dependency chain from the changed module
// to the module that caused the rejection:
//
//	var rejected *errors.UpdateRejectedError
//	if stderrors.As(err, &rejected) {
//	    // rejected.Reason is unaccepted or self_declined
//	    // rejected.Chain is the path for diagnostics
//	}
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
