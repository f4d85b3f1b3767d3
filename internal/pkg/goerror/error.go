// Package goerror is the error taxonomy shared by usecases and the HTTP layer.
//
// Usecases return *Error values; the router maps Code to an HTTP status and Msg to the body.
// Store sentinels (ErrNotFound, ErrConflict) never reach a client directly.
package goerror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound = errors.New("resource not found")
	ErrConflict = errors.New("resource conflict")
)

// Code is a stable identifier mapped to an HTTP status.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeNotFound
	CodeConflict
	CodeTooManyRequest
	CodeUnauthorized
	CodeForbidden
	CodeTimeout
	CodeUnavailable
)

var codeStatus = [...]int{
	CodeInternal:       http.StatusInternalServerError,
	CodeInvalidFormat:  http.StatusBadRequest,
	CodeInvalidInput:   http.StatusUnprocessableEntity,
	CodeNotFound:       http.StatusNotFound,
	CodeConflict:       http.StatusConflict,
	CodeTooManyRequest: http.StatusTooManyRequests,
	CodeUnauthorized:   http.StatusUnauthorized,
	CodeForbidden:      http.StatusForbidden,
	CodeTimeout:        http.StatusRequestTimeout,
	CodeUnavailable:    http.StatusServiceUnavailable,
}

func (c Code) valid() bool { return c >= 0 && int(c) < len(codeStatus) }

// String is the upper snake form of the status text, e.g. NOT_FOUND.
func (c Code) String() string {
	if !c.valid() {
		c = CodeInternal
	}
	switch c {
	case CodeInternal:
		return "INTERNAL"
	case CodeInvalidFormat:
		return "INVALID_FORMAT"
	case CodeInvalidInput:
		return "INVALID_INPUT"
	case CodeNotFound:
		return "NOT_FOUND"
	case CodeConflict:
		return "CONFLICT"
	case CodeTooManyRequest:
		return "TOO_MANY_REQUESTS"
	case CodeUnauthorized:
		return "UNAUTHORIZED"
	case CodeForbidden:
		return "FORBIDDEN"
	case CodeTimeout:
		return "TIMEOUT"
	default:
		return "UNAVAILABLE"
	}
}

// Error carries a client-safe message and a code, optionally wrapping the cause.
type Error struct {
	cause  error
	msg    string
	code   Code
	fields map[string]string
}

// Error prefers the cause so logs keep the real failure; clients only see Msg.
func (e *Error) Error() string {
	if e.cause != nil {
		return e.cause.Error()
	}
	return e.msg
}

// GoString is the verbose form used by %#v in debug logs.
func (e *Error) GoString() string {
	return fmt.Sprintf("goerror.Error{code: %s, msg: %q, cause: %v}", e.code, e.msg, e.cause)
}

func (e *Error) Msg() string               { return e.msg }
func (e *Error) Code() Code                { return e.code }
func (e *Error) Fields() map[string]string { return e.fields }
func (e *Error) Unwrap() error             { return e.cause }

// Server reports whether the error is the service's fault rather than the caller's.
func (e *Error) Server() bool { return e.code == CodeInternal || e.code == CodeUnavailable }

func (e *Error) StatusCode() int {
	if !e.code.valid() {
		return http.StatusInternalServerError
	}
	return codeStatus[e.code]
}

// NewServer hides err behind a generic message.
func NewServer(err error) error {
	return &Error{cause: err, msg: "Internal server error", code: CodeInternal}
}

func NewBusiness(msg string, code Code) error {
	return &Error{msg: msg, code: code}
}

// NewInvalidInput wraps a validator error, or builds field errors from key/value pairs.
// An odd number of pairs is treated as a malformed body.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return &Error{cause: err, msg: "Validation error", code: CodeInvalidInput}
	}
	if len(kv)%2 != 0 {
		return NewInvalidFormat()
	}

	fields := make(map[string]string, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}
	return &Error{msg: "Validation error", code: CodeInvalidInput, fields: fields}
}

func NewInvalidFormat(msgs ...string) error {
	msg := "Invalid request body"
	if len(msgs) > 0 {
		msg = msgs[0]
	}
	return &Error{msg: msg, code: CodeInvalidFormat}
}
