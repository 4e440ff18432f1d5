// Package cors adds Cross-Origin Resource Sharing support to a
// dispatch interface: a preflight OPTIONS operation for every path
// lacking one and access-control headers on ordinary responses.
package cors

import (
	"sort"
	"strconv"
	"strings"

	"github.com/tencent-go/apix/api"
	"github.com/tencent-go/apix/dispatch"
	"github.com/tencent-go/apix/errx"
	"github.com/tencent-go/apix/pathx"
)

// Origins is the set of origins the API grants access to. Use AnyOrigin
// for public APIs; a whitelist echoes the request origin only when it
// matches, never an untrusted value.
type Origins struct {
	any bool
	set map[string]struct{}
}

var AnyOrigin = Origins{any: true}

func Whitelist(origins ...string) Origins {
	set := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		set[o] = struct{}{}
	}
	return Origins{set: set}
}

type Option func(*Middleware)

// WithAllowCredentials emits the Access-Control-Allow-Credentials
// header with the given value; by default the header is omitted.
func WithAllowCredentials(allow bool) Option {
	return func(m *Middleware) { m.allowCredentials = &allow }
}

func WithExposeHeaders(headers ...string) Option {
	return func(m *Middleware) { m.exposeHeaders = headers }
}

func WithAllowHeaders(headers ...string) Option {
	return func(m *Middleware) { m.allowHeaders = headers }
}

// WithMaxAge lets clients cache access-control headers for the given
// number of seconds.
func WithMaxAge(seconds int) Option {
	return func(m *Middleware) { m.maxAge = seconds }
}

// Middleware holds the CORS configuration shared by the preflight
// operations and the post-request hook.
type Middleware struct {
	origins          Origins
	allowCredentials *bool
	exposeHeaders    []string
	allowHeaders     []string
	maxAge           int
}

// Apply wires CORS into the interface: registers the middleware and an
// OPTIONS operation on every collated path that lacks one. Call it
// after every resource has been mounted and before building the server,
// so the synthetic operations make it into the route table.
func Apply(iface *dispatch.Interface, origins Origins, opts ...Option) *dispatch.Interface {
	m := &Middleware{origins: origins}
	for _, opt := range opts {
		opt(m)
	}
	iface.WithMiddleware(m)

	prefix := iface.PathPrefix()
	for _, collated := range iface.CollatedRoutes() {
		if _, ok := collated.Methods[api.OPTIONS]; ok {
			continue
		}
		methods := collated.Methods.Sorted()
		path := collated.Path.TrimPrefix(prefix).Format(pathx.DefaultNodeFormat)
		op := api.NewOperation(path, m.preflight(methods), api.OPTIONS).
			WithOperationID(strings.ReplaceAll(strings.Trim(path, "/"), "/", ".") + ".cors_options").
			WithTags("cors")
		iface.Append(op)
	}
	return iface
}

func (m *Middleware) Priority() int {
	return api.PriorityCors
}

// preflight answers OPTIONS for a path serving the given methods.
func (m *Middleware) preflight(methods []api.Method) api.HandlerFunc {
	allow := joinMethods(append(methods, api.OPTIONS))
	allowMethods := joinMethods(methods)
	return func(r *api.Request) (any, errx.Error) {
		resp := api.NewHttpResponse(nil, 204).
			SetHeader("Allow", allow).
			SetHeader("Cache-Control", "no-cache, no-store")
		if origin := m.AllowOrigin(r); origin != "" {
			resp.SetHeader("Access-Control-Allow-Origin", origin)
			resp.SetHeader("Access-Control-Allow-Methods", allowMethods)
			m.applyOptional(resp, true)
		}
		return resp, nil
	}
}

// AllowOrigin resolves the Access-Control-Allow-Origin value for a
// request, "" when the origin is not granted access.
func (m *Middleware) AllowOrigin(r *api.Request) string {
	if m.origins.any {
		return "*"
	}
	origin := r.Origin()
	if _, ok := m.origins.set[origin]; ok {
		return origin
	}
	return ""
}

func (m *Middleware) applyOptional(resp *api.HttpResponse, preflightHeaders bool) {
	if m.allowCredentials != nil {
		resp.SetHeader("Access-Control-Allow-Credentials", strconv.FormatBool(*m.allowCredentials))
	}
	if len(m.exposeHeaders) > 0 {
		resp.SetHeader("Access-Control-Expose-Headers", strings.Join(m.exposeHeaders, ", "))
	}
	if !preflightHeaders {
		return
	}
	if len(m.allowHeaders) > 0 {
		resp.SetHeader("Access-Control-Allow-Headers", strings.Join(m.allowHeaders, ", "))
	}
	if m.maxAge != 0 {
		resp.SetHeader("Access-Control-Max-Age", strconv.Itoa(m.maxAge))
	}
}

// PostRequest adds the access-control headers to ordinary responses;
// preflight responses already carry their own.
func (m *Middleware) PostRequest(r *api.Request, resp *api.HttpResponse) *api.HttpResponse {
	if api.Method(r.Method) == api.OPTIONS {
		return resp
	}
	if origin := m.AllowOrigin(r); origin != "" {
		resp.SetHeader("Access-Control-Allow-Origin", origin)
		m.applyOptional(resp, false)
	}
	return resp
}

func joinMethods(methods []api.Method) string {
	parts := make([]string, len(methods))
	for i, m := range methods {
		parts[i] = string(m)
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
