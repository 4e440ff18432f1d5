package api

import (
	"net/http/httptest"
	"strings"

	"github.com/tencent-go/apix/codec"
)

// NewTestRequest builds a Request for handler tests with JSON codecs
// already negotiated.
func NewTestRequest(method Method, target, body string) *Request {
	httpReq := httptest.NewRequest(string(method), target, strings.NewReader(body))
	if body != "" {
		httpReq.Header.Set("Content-Type", codec.ContentTypeJson)
	}
	r := NewRequest(httpReq)
	r.RequestCodec = codec.Json()
	r.ResponseCodec = codec.Json()
	return r
}
