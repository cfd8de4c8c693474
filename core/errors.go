/*
Package core holds types and functions shared by all packages of this module,
most notably application errors carrying an error code and a user message.

Decoders report malformed font data with code EFORMAT, missing fonts, files and
glyphs with EMISSING. Clients switch on Code(err) rather than on error types.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package core

import (
	"errors"
	"fmt"
	"os"
)

// Error codes
const (
	NOERROR     int = 0
	EMISSING    int = 122 // font, file or glyph does not exist
	EINVALID    int = 123 // invalid argument or configuration
	ECONNECTION int = 124 // remote font service not reachable
	EINTERNAL   int = 125 // internal error
	EFORMAT     int = 126 // malformed font data
)

var errorTexts = map[int]string{
	NOERROR:     "OK",
	EMISSING:    "not found",
	EINVALID:    "invalid",
	ECONNECTION: "transmission-error",
	EINTERNAL:   "internal error",
	EFORMAT:     "format error",
}

func errorText(ecode int) string {
	if text, ok := errorTexts[ecode]; ok {
		return text
	}
	return "undefined error"
}

// AppError is an error with an associated error code and a user-message.
type AppError interface {
	error
	ErrorCode() int
	UserMessage() string
}

// appError keeps the cause, if any, reachable by errors.Is and errors.As.
type appError struct {
	cause error
	code  int
	msg   string
}

var _ AppError = appError{}

func (e appError) Unwrap() error {
	return e.cause
}

// Error reports code, user message and cause, e.g.
//
//	[126] table 'hmtx' truncated: unexpected end of data
func (e appError) Error() string {
	switch {
	case e.cause == nil:
		return fmt.Sprintf("[%d] %s", e.code, e.msg)
	case e.msg == "" || e.msg == e.cause.Error():
		return fmt.Sprintf("[%d] %v", e.code, e.cause)
	}
	return fmt.Sprintf("[%d] %s: %v", e.code, e.msg, e.cause)
}

func (e appError) ErrorCode() int {
	return e.code
}

func (e appError) UserMessage() string {
	return e.msg
}

// ErrorWithCode adds an error code to err's error chain.
// Unlike pkg/errors, ErrorWithCode will wrap nil error.
func ErrorWithCode(err error, code int) error {
	if err == nil {
		return appError{code: code, msg: errorText(code)}
	}
	return appError{err, code, errorText(code)}
}

// WrapError wraps an error in an application error, featuring an error code
// and a user message. err may be nil.
func WrapError(err error, code int, format string, v ...interface{}) error {
	return appError{err, code, fmt.Sprintf(format, v...)}
}

// Error creates an error with an error code and a user-message.
func Error(code int, format string, v ...interface{}) error {
	return appError{code: code, msg: fmt.Sprintf(format, v...)}
}

// Code returns the status code associated with an error.
// If no status code is found, it returns EINTERNAL.
// If err is nil, NOERROR is returned.
func Code(err error) (code int) {
	if err == nil {
		return NOERROR
	}
	if e := AppError(nil); errors.As(err, &e) {
		return e.ErrorCode()
	}
	return EINTERNAL
}

// UserMessage returns the user message associated with an error.
// If no message is found, it checks StatusCode and returns that message.
// If err is nil, it returns "".
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if e := AppError(nil); errors.As(err, &e) {
		return e.UserMessage()
	}
	return errorText(Code(err))
}

// UserError prints the user message of err to stderr.
func UserError(err error) {
	if e := AppError(nil); errors.As(err, &e) {
		fmt.Fprintf(os.Stderr, "[%d] %s\n", e.ErrorCode(), e.UserMessage())
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
}
