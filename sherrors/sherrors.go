// Package sherrors defines the status codes the storage core surfaces to
// its callers (the request dispatcher, the replication apply loop, and
// tests), and the constructors that attach them to a
// github.com/cockroachdb/errors error so that stack traces, wrapping and
// errors.Is/As all keep working the way the rest of the module expects.
package sherrors

import (
	"encoding/hex"

	"github.com/cockroachdb/errors"
)

// Code is one of the status codes exposed at the storage core's boundary.
type Code int

const (
	// OK is never attached to an error; the absence of an error means OK.
	OK Code = iota
	NotFound
	Duplicate
	IOError
	Corruption
	OutOfRange
	InvalidArgument
	RangeClosing
	Canceled
)

func (c Code) String() string {
	switch c {
	case OK:
		return "OK"
	case NotFound:
		return "NotFound"
	case Duplicate:
		return "Duplicate"
	case IOError:
		return "IOError"
	case Corruption:
		return "Corruption"
	case OutOfRange:
		return "OutOfRange"
	case InvalidArgument:
		return "InvalidArgument"
	case RangeClosing:
		return "RangeClosing"
	case Canceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// codedError pairs an error with the Code the boundary should report for
// it. It is deliberately unexported; callers interact with it through
// GetCode/Is only.
type codedError struct {
	code Code
	error
}

func (e *codedError) Unwrap() error { return e.error }

// newCode wraps err (built with errors.Newf/errors.Wrapf so it carries a
// stack trace) with the given Code.
func newCode(code Code, err error) error {
	return &codedError{code: code, error: err}
}

// GetCode extracts the Code attached to err. A nil error yields OK; a
// non-nil error that never went through this package yields IOError.
func GetCode(err error) Code {
	if err == nil {
		return OK
	}
	var ce *codedError
	if errors.As(err, &ce) {
		return ce.code
	}
	return IOError
}

// Is reports whether err carries the given Code.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// NotFoundf builds a NotFound error.
func NotFoundf(format string, args ...interface{}) error {
	return newCode(NotFound, errors.Newf(format, args...))
}

// Duplicatef builds a Duplicate error.
func Duplicatef(format string, args ...interface{}) error {
	return newCode(Duplicate, errors.Newf(format, args...))
}

// IOErrorf wraps a lower-level error (typically from the KV backend or
// the filesystem) as an IOError.
func IOErrorf(cause error, format string, args ...interface{}) error {
	return newCode(IOError, errors.Wrapf(cause, format, args...))
}

// Corruptionf builds a Corruption error. raw is the offending byte slice;
// it is hex-dumped into the message so a forensic dump doesn't need the
// original bytes, mirroring the C++ data-server's EncodeToHex convention.
func Corruptionf(raw []byte, format string, args ...interface{}) error {
	msg := errors.Newf(format, args...)
	return newCode(Corruption, errors.Wrapf(msg, "corrupt value (hex): %s", hex.EncodeToString(raw)))
}

// OutOfRangef builds an OutOfRange error.
func OutOfRangef(format string, args ...interface{}) error {
	return newCode(OutOfRange, errors.Newf(format, args...))
}

// InvalidArgumentf builds an InvalidArgument error.
func InvalidArgumentf(format string, args ...interface{}) error {
	return newCode(InvalidArgument, errors.Newf(format, args...))
}

// RangeClosingf builds a RangeClosing error.
func RangeClosingf(format string, args ...interface{}) error {
	return newCode(RangeClosing, errors.Newf(format, args...))
}

// Canceledf builds a Canceled error.
func Canceledf(format string, args ...interface{}) error {
	return newCode(Canceled, errors.Newf(format, args...))
}
