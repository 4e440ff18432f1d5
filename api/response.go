package api

import (
	"fmt"
	"net/http"

	"github.com/tencent-go/apix/errx"
)

// HttpResponse is the transport-level response handed to the host
// adapter. Before encoding Body holds the result value; after encoding
// it holds the wire bytes.
type HttpResponse struct {
	Status  int
	Body    any
	Headers http.Header
}

func NewHttpResponse(body any, status int) *HttpResponse {
	return &HttpResponse{
		Status:  status,
		Body:    body,
		Headers: http.Header{},
	}
}

// ResponseFromStatus builds a plain response whose body is the standard
// status text, used before content negotiation has produced a codec.
func ResponseFromStatus(status int) *HttpResponse {
	return NewHttpResponse(http.StatusText(status), status)
}

func (r *HttpResponse) SetHeader(key, value string) *HttpResponse {
	if r.Headers == nil {
		r.Headers = http.Header{}
	}
	r.Headers.Set(key, value)
	return r
}

func (r *HttpResponse) ContentType() string {
	return r.Headers.Get("Content-Type")
}

// Interrupt short-circuits dispatch with a ready response. Hooks and
// handlers return it through Immediate instead of raising; the
// dispatcher unwraps it and continues with the carried response.
type Interrupt struct {
	Response *HttpResponse
}

func (i *Interrupt) Error() string {
	return fmt.Sprintf("immediate response (%d)", i.Response.Status)
}

// Immediate wraps a response into an error value any hook can return.
func Immediate(resp *HttpResponse) errx.Error {
	return errx.Wrap(&Interrupt{Response: resp}).
		WithStatus(resp.Status).
		Err()
}
