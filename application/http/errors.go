package http

import (
	"fmt"

	"github.com/pkg/errors"
)

type ErrorKind uint8

const (
	// KindInvalidArgument is malformed input from the caller.
	KindInvalidArgument ErrorKind = iota + 1
	// KindConnection is a socket, TLS or timeout failure.
	KindConnection
	// KindProtocol is a response that violates HTTP/1.x framing.
	KindProtocol
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindConnection:
		return "connection error"
	case KindProtocol:
		return "protocol error"
	}
	return "unknown error"
}

type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Sentinels to match any [Error] of the kind with errors.Is.
var (
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	ErrConnection      = &Error{Kind: KindConnection}
	ErrProtocol        = &Error{Kind: KindProtocol}
)

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is the bare sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Cause == nil
}

func newError(kind ErrorKind, cause error, format string, args []any) error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return errors.WithStack(&Error{Kind: kind, Message: msg, Cause: cause})
}

func InvalidArgument(format string, args ...any) error {
	return newError(KindInvalidArgument, nil, format, args)
}

func InvalidArgumentWrap(cause error, format string, args ...any) error {
	return newError(KindInvalidArgument, cause, format, args)
}

func ConnectionError(cause error, format string, args ...any) error {
	return newError(KindConnection, cause, format, args)
}

func ProtocolError(format string, args ...any) error {
	return newError(KindProtocol, nil, format, args)
}

func ProtocolErrorWrap(cause error, format string, args ...any) error {
	return newError(KindProtocol, cause, format, args)
}

// KindOf returns the kind of the first [Error] in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
