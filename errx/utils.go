package errx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Builders for the statuses the dispatcher and middleware raise. Message
// defaults follow the canonical status text; raise sites override it.
var (
	BadRequest       = S(http.StatusBadRequest)
	PermissionDenied = S(http.StatusForbidden)
	NotFound         = S(http.StatusNotFound)
	MethodNotAllowed = S(http.StatusMethodNotAllowed)
	NotAcceptable    = S(http.StatusNotAcceptable)
	Conflict         = S(http.StatusConflict)
	Unprocessable    = S(http.StatusUnprocessableEntity)
	Validation       = S(http.StatusBadRequest).WithMsg("Failed validation")
	NotImplemented   = S(http.StatusNotImplemented).WithMsg("The method has not been implemented")
	Internal         = S(http.StatusInternalServerError).WithMsg("An unhandled error has been caught.")
)

func Define() Builder {
	return rootError
}

// S starts a builder for an HTTP status with the canonical status text
// as message.
func S(status int) Builder {
	return Define().WithStatus(status).WithMsg(http.StatusText(status))
}

var rootError = &impl{
	cause: errors.New(""),
}

type emptyError struct{}

func (e *emptyError) WithMsg(s string) Builder {
	return rootError.WithMsg(s)
}

func (e *emptyError) WithMsgf(format string, a ...any) Builder {
	return rootError.WithMsgf(format, a...)
}

func (e *emptyError) AppendMsg(s string) Builder {
	return rootError.AppendMsg(s)
}

func (e *emptyError) AppendMsgf(format string, a ...any) Builder {
	return rootError.AppendMsgf(format, a...)
}

func (e *emptyError) WithStatus(status int) Builder {
	return rootError.WithStatus(status)
}

func (e *emptyError) WithCode(i int) Builder {
	return rootError.WithCode(i)
}

func (e *emptyError) WithDevMsg(s string) Builder {
	return rootError.WithDevMsg(s)
}

func (e *emptyError) WithDevMsgf(format string, a ...any) Builder {
	return rootError.WithDevMsgf(format, a...)
}

func (e *emptyError) WithMeta(meta any) Builder {
	return rootError.WithMeta(meta)
}

func (e *emptyError) Err() Error {
	return nil
}

var empty = &emptyError{}

// Wrap lifts any error into a Builder. Wrapping nil yields a builder
// whose Err() is nil, so `return errx.Wrap(err).Err()` is safe verbatim.
func Wrap(err error) Builder {
	if err == nil {
		return empty
	}
	if i, ok := err.(*impl); ok {
		return i
	}
	if e, ok := err.(Error); ok {
		return &impl{
			cause:  e,
			msg:    e.Error(),
			devMsg: e.DevMsg(),
			status: e.Status(),
			code:   e.Code(),
			meta:   e.Meta(),
			stack:  e.Stack(),
		}
	}
	status := 0
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}
	return &impl{
		cause:  err,
		status: status,
		msg:    err.Error(),
		stack:  parseStack(fmt.Sprintf("%+v", err)),
	}
}

func New(msg string) Error {
	return Define().WithMsg(msg).Err()
}

func Newf(format string, a ...any) Error {
	return Define().WithMsgf(format, a...).Err()
}

// C builds a status+code error in one call, the common shape for the
// 4xxNN sub-code family.
func C(status, code int, msg string) Error {
	return Define().WithStatus(status).WithCode(code).WithMsg(msg).Err()
}

// CB is C left open as a builder, for errors that gain per-call detail
// before the final Err().
func CB(status, code int, msg string) Builder {
	return Define().WithStatus(status).WithCode(code).WithMsg(msg)
}

func Cf(status, code int, format string, a ...any) Error {
	return Define().WithStatus(status).WithCode(code).WithMsgf(format, a...).Err()
}
