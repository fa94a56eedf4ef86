// Package census holds the types shared by every part of the push client:
// the error value, the environment identifiers and the world ids.
package census

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind int

const (
	// KindTransport covers connect, handshake, send and receive failures.
	KindTransport Kind = iota + 1
	// KindProtocol is an inbound frame the client cannot classify.
	KindProtocol
	// KindDecode is a service message with a missing or mistyped field.
	KindDecode
	// KindUnknownEvent is a service message whose event_name is not in the taxonomy.
	KindUnknownEvent
	// KindReconnectLimit means the reconnect ceiling was exceeded. It is fatal
	// for the client that returned it.
	KindReconnectLimit
	// KindClosed is returned by a client after Close.
	KindClosed
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindDecode:
		return "decode"
	case KindUnknownEvent:
		return "unknown_event"
	case KindReconnectLimit:
		return "reconnect_limit"
	case KindClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Error is the single error value returned by the push client. Parent is a
// human readable description of the nested cause, if there was one.
type Error struct {
	Kind   Kind
	Msg    string
	Parent string
	// Field names the payload field that failed to decode (KindDecode only).
	Field string

	cause error
}

// Sentinels for errors.Is. Matching is by Kind only.
var (
	ErrTransport         = &Error{Kind: KindTransport}
	ErrProtocol          = &Error{Kind: KindProtocol}
	ErrDecode            = &Error{Kind: KindDecode}
	ErrUnknownEvent      = &Error{Kind: KindUnknownEvent}
	ErrTooManyReconnects = &Error{Kind: KindReconnectLimit}
	ErrClosed            = &Error{Kind: KindClosed}
)

func (e *Error) Error() string {
	if e.Parent != "" {
		return fmt.Sprintf("census: %s: %s", e.Msg, e.Parent)
	}
	return "census: " + e.Msg
}

// Unwrap returns the transport error this Error was built from, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New returns an Error without a parent.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap returns an Error whose Parent describes err.
func Wrap(kind Kind, msg string, err error) *Error {
	e := &Error{Kind: kind, Msg: msg, cause: err}
	if err != nil {
		e.Parent = err.Error()
	}
	return e
}

// Transport wraps a network level failure.
func Transport(msg string, err error) *Error {
	return Wrap(KindTransport, msg, err)
}

// Protocol reports a frame that does not match any known shape.
func Protocol(msg string) *Error {
	return New(KindProtocol, msg)
}

// FieldError reports a payload field that is absent, mistyped or out of range.
func FieldError(field string) *Error {
	return &Error{
		Kind:  KindDecode,
		Msg:   fmt.Sprintf("could not parse field '%s'", field),
		Field: field,
	}
}

// UnknownEvent reports an event_name outside the taxonomy.
func UnknownEvent(name string) *Error {
	return New(KindUnknownEvent, "unknown event name: "+name)
}

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
