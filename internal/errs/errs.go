package errs

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Kind classifies failures so outer layers (CLI, HTTP) can map them without string matching.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindPayloadTooLarge
	KindPersistence
	KindConcurrency
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindPayloadTooLarge:
		return "payload_too_large"
	case KindPersistence:
		return "persistence"
	case KindConcurrency:
		return "concurrency"
	default:
		return "unknown"
	}
}

// Error carries a Kind through the wrap chain.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	switch {
	case e.msg == "" && e.err != nil:
		return e.err.Error()
	case e.err != nil:
		return e.msg + ": " + e.err.Error()
	default:
		return e.msg
	}
}

func (e *Error) Unwrap() error { return e.err }
func (e *Error) Kind() Kind    { return e.kind }

// E creates a new kinded error.
func E(kind Kind, msg string) error {
	return &Error{kind: kind, msg: msg}
}

// Ef creates a new kinded error with a formatted message.
func Ef(kind Kind, format string, args ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// WithKind tags err with kind while keeping the chain intact.
func WithKind(err error, kind Kind, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{kind: kind, msg: msg, err: err}
}

// Persistence marks a store failure. Errors that already carry a kind keep it.
func Persistence(err error, msg string) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindUnknown {
		return Wrap(err, msg)
	}
	return WithKind(err, KindPersistence, msg)
}

// KindOf returns the outermost kind found in the chain.
func KindOf(err error) Kind {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if ke, ok := e.(*Error); ok && ke.kind != KindUnknown {
			return ke.kind
		}
	}
	return KindUnknown
}

func IsValidation(err error) bool      { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool        { return KindOf(err) == KindNotFound }
func IsPayloadTooLarge(err error) bool { return KindOf(err) == KindPayloadTooLarge }
func IsPersistence(err error) bool     { return KindOf(err) == KindPersistence }
func IsConcurrency(err error) bool     { return KindOf(err) == KindConcurrency }

// Wrap adds context and preserves the error chain (errors.Is/As works).
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf adds formatted context and preserves the error chain.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	args = append(args, err)
	return fmt.Errorf(format+": %w", args...)
}

// WithStack captures a stack trace once, at the root cause boundary.
func WithStack(err error) error {
	if err == nil {
		return nil
	}

	var se *StackError
	if errors.As(err, &se) {
		return err
	}

	return &StackError{
		err:   err,
		stack: debug.Stack(),
	}
}

// StackError wraps an error and stores a stack trace.
type StackError struct {
	err   error
	stack []byte
}

func (e *StackError) Error() string { return e.err.Error() }
func (e *StackError) Unwrap() error { return e.err }
func (e *StackError) Stack() []byte { return e.stack }

type loggable struct{ err error }

// Loggable makes slog encode the error as structured fields.
// Usage: slog.Any("err", errs.Loggable(err))
func Loggable(err error) slog.LogValuer { return loggable{err: err} }

func (l loggable) LogValue() slog.Value {
	if l.err == nil {
		return slog.GroupValue()
	}

	attrs := []slog.Attr{
		slog.String("message", l.err.Error()),
		slog.String("kind", KindOf(l.err).String()),
		slog.Any("chain", ErrorChainStrings(l.err)),
	}

	var se *StackError
	if errors.As(l.err, &se) {
		attrs = append(attrs, slog.String("stack", string(se.Stack())))
	}

	return slog.GroupValue(attrs...)
}

// ErrorChainStrings returns the unwrap chain as strings (outer -> inner).
func ErrorChainStrings(err error) []string {
	if err == nil {
		return nil
	}

	out := make([]string, 0, 8)
	for e := err; e != nil; e = errors.Unwrap(e) {
		out = append(out, e.Error())
	}
	return out
}
