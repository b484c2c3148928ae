// Package apierr carries an HTTP status and a stable machine code alongside
// a pipeline error, so services can say "no slides data yet" or "invalid
// arXiv URL" without importing gin. Handlers unwrap it in respondError; the
// Code field is what the frontend switches on.
package apierr

import (
	"fmt"
	"net/http"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// BadRequest marks a client mistake: bad URL, empty upload, wrong file type.
func BadRequest(code string, err error) *Error {
	return New(http.StatusBadRequest, code, err)
}

// NotFound marks a pipeline stage invoked before its prerequisite artifact
// exists, or a generated file that is gone.
func NotFound(code string, err error) *Error {
	return New(http.StatusNotFound, code, err)
}
