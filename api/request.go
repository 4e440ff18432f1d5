package api

import (
	"io"
	"net/http"
	"net/url"

	"github.com/tencent-go/apix/codec"
	"github.com/tencent-go/apix/errx"
)

// Request wraps the incoming http.Request with the state dispatch
// accumulates: trace ID, converted path arguments, negotiated codecs
// and per-request storage shared between middleware.
type Request struct {
	*http.Request

	TraceID  ID
	PathArgs map[string]any

	RequestCodec  codec.Codec
	ResponseCodec codec.Codec

	body     []byte
	bodyErr  errx.Error
	bodyRead bool
	query    url.Values
	storage  map[string]any
}

func NewRequest(r *http.Request) *Request {
	return &Request{
		Request:  r,
		TraceID:  NewID(),
		PathArgs: map[string]any{},
	}
}

// BodyBytes reads and caches the request body; later calls return the
// same bytes.
func (r *Request) BodyBytes() ([]byte, errx.Error) {
	if !r.bodyRead {
		r.bodyRead = true
		if r.Request.Body != nil {
			data, err := io.ReadAll(r.Request.Body)
			if err != nil {
				r.bodyErr = errx.Wrap(err).AppendMsg("read request body").Err()
			} else {
				r.body = data
			}
		}
	}
	return r.body, r.bodyErr
}

// Query returns the parsed query values, cached across calls.
func (r *Request) Query() url.Values {
	if r.query == nil {
		r.query = r.URL.Query()
	}
	return r.query
}

// QueryParam returns the first query value for name, or def when absent
// or blank.
func (r *Request) QueryParam(name, def string) string {
	if v := r.Query().Get(name); v != "" {
		return v
	}
	return def
}

func (r *Request) PathArg(name string) (any, bool) {
	v, ok := r.PathArgs[name]
	return v, ok
}

func (r *Request) PathString(name string) string {
	if v, ok := r.PathArgs[name].(string); ok {
		return v
	}
	return ""
}

func (r *Request) PathInt(name string) int64 {
	if v, ok := r.PathArgs[name].(int64); ok {
		return v
	}
	return 0
}

// Origin returns the Origin header, "" when the request carries none.
func (r *Request) Origin() string {
	return r.Header.Get("Origin")
}

// Set stores a per-request value shared between middleware and the
// handler.
func (r *Request) Set(key string, value any) {
	if r.storage == nil {
		r.storage = map[string]any{}
	}
	r.storage[key] = value
}

func (r *Request) Get(key string) (any, bool) {
	v, ok := r.storage[key]
	return v, ok
}
