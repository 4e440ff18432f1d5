package dispatch

import (
	"strings"

	"github.com/tencent-go/apix/api"
	"github.com/tencent-go/apix/codec"
)

// Resolver extracts a candidate content type from a request. An empty
// result passes resolution on to the next resolver in the chain.
type Resolver func(r *api.Request) string

// ContentTypeHeader resolves from the Content-Type request header.
func ContentTypeHeader() Resolver {
	return func(r *api.Request) string {
		return codec.ParseContentType(r.Header.Get("Content-Type"))
	}
}

// AcceptHeader resolves from the first range of the Accept request header.
// Wildcard ranges such as */* state no preference and resolve empty.
func AcceptHeader() Resolver {
	return func(r *api.Request) string {
		value := codec.ParseContentType(r.Header.Get("Accept"))
		if strings.Contains(value, "*") {
			return ""
		}
		return value
	}
}

// DefaultType resolves to a fixed content type regardless of the request.
// Chains usually end with it so resolution cannot come up empty.
func DefaultType(contentType string) Resolver {
	return func(*api.Request) string {
		return contentType
	}
}

// Resolve walks the chain and returns the first non-empty content type.
func Resolve(resolvers []Resolver, r *api.Request) string {
	for _, resolve := range resolvers {
		if value := codec.ParseContentType(resolve(r)); value != "" {
			return value
		}
	}
	return ""
}
