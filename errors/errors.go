package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDecode      Phase = "decode"      // chunk payload decoding
	PhaseInstantiate Phase = "instantiate" // factory execution
	PhaseInterop     Phase = "interop"     // export convention conversion
	PhaseAsync       Phase = "async"       // async dependency resolution
	PhaseUpdate      Phase = "update"      // hot update application
)

// Kind categorizes the error
type Kind string

const (
	KindMissingFactory  Kind = "missing_factory"
	KindFactoryFailed   Kind = "factory_failed"
	KindAlreadyDeclared Kind = "already_declared"
	KindSealed          Kind = "sealed"
	KindInvalidPayload  Kind = "invalid_payload"
	KindVersionMismatch Kind = "version_mismatch"
	KindUnaccepted      Kind = "unaccepted"
	KindSelfDeclined    Kind = "self_declined"
	KindInvariant       Kind = "invariant"
	KindNotFound        Kind = "not_found"
	KindInvalidInput    Kind = "invalid_input"
	KindCompile         Kind = "compile"
)

// Error is the structured error type used throughout the runtime
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Chain  []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Chain) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Chain, " -> "))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Chain sets the module chain leading to the error
func (b *Builder) Chain(chain ...string) *Builder {
	b.err.Chain = chain
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// MissingFactory creates a missing factory error. The reason string
// distinguishes how the module was demanded (entry, import, update) so a
// stale cache can be diagnosed from the message alone.
func MissingFactory(id, reason string) *Error {
	return &Error{
		Phase:  PhaseInstantiate,
		Kind:   KindMissingFactory,
		Chain:  []string{id},
		Detail: fmt.Sprintf("no factory installed for module %q (%s)", id, reason),
	}
}

// FactoryFailed wraps an error thrown by a module factory. The resulting
// error poisons the module record.
func FactoryFailed(id string, cause error) *Error {
	return &Error{
		Phase:  PhaseInstantiate,
		Kind:   KindFactoryFailed,
		Chain:  []string{id},
		Detail: "factory execution failed",
		Cause:  cause,
	}
}

// AlreadyDeclared creates an error for a second namespace declaration on
// the same exports object.
func AlreadyDeclared(id string) *Error {
	return &Error{
		Phase:  PhaseInterop,
		Kind:   KindAlreadyDeclared,
		Chain:  []string{id},
		Detail: "namespace already declared on exports object",
	}
}

// Sealed creates an error for a write to a sealed namespace property.
func Sealed(name string) *Error {
	return &Error{
		Phase:  PhaseInterop,
		Kind:   KindSealed,
		Detail: fmt.Sprintf("property %q is sealed", name),
	}
}

// InvalidPayload creates a chunk payload decoding error
func InvalidPayload(detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindInvalidPayload,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// VersionMismatch creates a manifest ABI version error
func VersionMismatch(manifest, runtime string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindVersionMismatch,
		Detail: fmt.Sprintf("manifest ABI version %s incompatible with runtime %s", manifest, runtime),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Invariant creates an internal invariant violation error. Invariant errors
// during an update abort it before any disposal.
func Invariant(detail string, chain []string) *Error {
	return &Error{
		Phase:  PhaseUpdate,
		Kind:   KindInvariant,
		Detail: detail,
		Chain:  chain,
	}
}

// Compile wraps a factory compilation error for source-carrying updates
func Compile(id string, cause error) *Error {
	return &Error{
		Phase:  PhaseUpdate,
		Kind:   KindCompile,
		Chain:  []string{id},
		Detail: "compile replacement factory",
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// RejectReason says why an update could not be applied.
type RejectReason string

const (
	// ReasonUnaccepted: the changed module has no accepting ancestor on
	// some path to a runtime root.
	ReasonUnaccepted RejectReason = "unaccepted"
	// ReasonSelfDeclined: a module on the bubble path declared that any
	// hot update through it is fatal.
	ReasonSelfDeclined RejectReason = "self_declined"
)

// UpdateRejectedError is returned when a hot update cannot be applied.
// The update is never partially applied; the caller is expected to fall
// back to a full reload of the host.
type UpdateRejectedError struct {
	Reason RejectReason
	// ModuleID is the changed module whose effect walk failed.
	ModuleID string
	// Chain is the dependency path from the changed module to the module
	// that caused the rejection (a root for unaccepted, the declining
	// module for self_declined).
	Chain []string
}

// NewUpdateRejectedError creates a rejection error for the given chain.
func NewUpdateRejectedError(reason RejectReason, moduleID string, chain []string) *UpdateRejectedError {
	return &UpdateRejectedError{
		Reason:   reason,
		ModuleID: moduleID,
		Chain:    chain,
	}
}

func (e *UpdateRejectedError) Error() string {
	var b strings.Builder
	b.WriteString("[update] ")
	b.WriteString(string(e.Reason))

	switch e.Reason {
	case ReasonSelfDeclined:
		b.WriteString(fmt.Sprintf(": update to %q declined", e.ModuleID))
	default:
		b.WriteString(fmt.Sprintf(": update to %q not accepted by any ancestor", e.ModuleID))
	}

	if len(e.Chain) > 0 {
		b.WriteString("\n  chain:\n")
		for _, id := range e.Chain {
			b.WriteString("    - ")
			b.WriteString(id)
			b.WriteByte('\n')
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Is reports whether target matches this error type
func (e *UpdateRejectedError) Is(target error) bool {
	if t, ok := target.(*UpdateRejectedError); ok {
		return t.Reason == "" || t.Reason == e.Reason
	}
	return false
}
