package api

import (
	"reflect"
	"runtime"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tencent-go/apix/errx"
	"github.com/tencent-go/apix/pathx"
)

// HandlerFunc is the operation callback. The first return value is the
// result to encode; return a *HttpResponse to control status and
// headers, or nil with a nil error for an empty 204.
type HandlerFunc func(r *Request) (any, errx.Error)

// Operation ties a handler to a path template, HTTP methods and the
// metadata used for generated documents. Configure with the With*
// chain, then register it on a ResourceApi or mount it on a container.
type Operation struct {
	callback    HandlerFunc
	urlPath     pathx.UrlPath
	methods     []Method
	resource    *ResourceInfo
	tags        []string
	summary     string
	description string
	operationID string
	deprecated  bool
	parameters  []Param
	responses   []Response
	security    []Security
	consumes    []string
	produces    []string
	middleware  []any
	binding     *ResourceApi
	composed    *MiddlewareList
	sortKey     int
}

// NewOperation builds an operation for the given path template, e.g.
// "{key_field}/history". An empty path mounts the operation on the
// group root; methods default to GET.
func NewOperation(path string, callback HandlerFunc, methods ...Method) *Operation {
	urlPath := pathx.NoPath
	if path != "" {
		urlPath = pathx.MustParse(path)
	}
	return newOperation(urlPath, callback, methods)
}

func newOperation(urlPath pathx.UrlPath, callback HandlerFunc, methods []Method) *Operation {
	return &Operation{
		callback:    callback,
		urlPath:     urlPath,
		methods:     NormalizeMethods(methods),
		operationID: callbackName(callback),
	}
}

func callbackName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ""
	}
	name := f.Name()
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}

func (o *Operation) WithPath(path string) *Operation {
	o.urlPath = pathx.MustParse(path)
	return o
}

func (o *Operation) WithMethods(methods ...Method) *Operation {
	o.methods = NormalizeMethods(methods)
	return o
}

func (o *Operation) WithSummary(summary string) *Operation {
	o.summary = summary
	return o
}

// WithDescription sets the document description. A literal "{name}" is
// replaced with the resource name when documents are generated.
func (o *Operation) WithDescription(description string) *Operation {
	o.description = description
	return o
}

func (o *Operation) WithOperationID(id string) *Operation {
	o.operationID = id
	return o
}

func (o *Operation) WithTags(tags ...string) *Operation {
	o.tags = append(o.tags, tags...)
	return o
}

// WithResource overrides the resource the operation produces; by
// default it inherits the resource of the group it is bound to.
func (o *Operation) WithResource(resource *ResourceInfo) *Operation {
	o.resource = resource
	return o
}

func (o *Operation) WithParams(params ...Param) *Operation {
	o.parameters = append(o.parameters, params...)
	return o
}

func (o *Operation) WithResponses(responses ...Response) *Operation {
	o.responses = append(o.responses, responses...)
	return o
}

func (o *Operation) WithSecurity(name string, scopes ...string) *Operation {
	o.security = append(o.security, Security{name: scopes})
	return o
}

// WithConsumes restricts the content types the operation accepts in
// generated documents.
func (o *Operation) WithConsumes(contentTypes ...string) *Operation {
	o.consumes = append(o.consumes, contentTypes...)
	return o
}

// WithProduces restricts the content types the operation emits in
// generated documents.
func (o *Operation) WithProduces(contentTypes ...string) *Operation {
	o.produces = append(o.produces, contentTypes...)
	return o
}

func (o *Operation) WithMiddleware(middleware ...any) *Operation {
	o.middleware = append(o.middleware, middleware...)
	return o
}

func (o *Operation) WithDeprecated() *Operation {
	o.deprecated = true
	return o
}

func (o *Operation) bindTo(ra *ResourceApi) {
	if o.binding != nil {
		logrus.Panicf("operation %q is already bound to %q", o.OperationID(), o.binding.apiName)
	}
	o.binding = ra
	items := make([]any, 0, len(ra.middleware)+len(o.middleware))
	items = append(items, ra.middleware...)
	items = append(items, o.middleware...)
	o.composed = NewMiddlewareList(items...)
}

func (o *Operation) middlewareList() *MiddlewareList {
	if o.composed != nil {
		return o.composed
	}
	return NewMiddlewareList(o.middleware...)
}

// cloneUnbound copies the operation without its binding so it can be
// registered on another group.
func (o *Operation) cloneUnbound() *Operation {
	clone := *o
	clone.binding = nil
	clone.composed = nil
	clone.sortKey = 0
	clone.methods = slices.Clone(o.methods)
	clone.tags = slices.Clone(o.tags)
	clone.parameters = slices.Clone(o.parameters)
	clone.responses = slices.Clone(o.responses)
	clone.security = slices.Clone(o.security)
	clone.consumes = slices.Clone(o.consumes)
	clone.produces = slices.Clone(o.produces)
	clone.middleware = slices.Clone(o.middleware)
	return &clone
}

// Resource resolves the operation's resource: its own override first,
// then the bound group's.
func (o *Operation) Resource() *ResourceInfo {
	if o.resource != nil {
		return o.resource
	}
	if o.binding != nil {
		return o.binding.resource
	}
	return nil
}

// Path returns the path template with "{key_field}" replaced by the
// resource's key field name, and untyped occurrences of that parameter
// given the key field's type.
func (o *Operation) Path() pathx.UrlPath {
	resource := o.Resource()
	keyField := resource.KeyFieldName()
	path := o.urlPath.ApplyArgs(map[string]string{"key_field": keyField})
	keyType := pathx.Integer
	if resource != nil && resource.KeyFieldType != "" {
		keyType = resource.KeyFieldType
	}
	return path.WithParamType(keyField, keyType)
}

func (o *Operation) Methods() []Method {
	return o.methods
}

func (o *Operation) HasMethod(method Method) bool {
	return slices.Contains(o.methods, method)
}

// Tags merges the bound group's tags with the operation's own.
func (o *Operation) Tags() []string {
	var tags []string
	if o.binding != nil {
		tags = append(tags, o.binding.tags...)
	}
	for _, tag := range o.tags {
		if !slices.Contains(tags, tag) {
			tags = append(tags, tag)
		}
	}
	return tags
}

func (o *Operation) Summary() string {
	return o.summary
}

func (o *Operation) Description() string {
	return o.description
}

func (o *Operation) OperationID() string {
	return o.operationID
}

func (o *Operation) Deprecated() bool {
	return o.deprecated
}

func (o *Operation) Params() []Param {
	return o.parameters
}

func (o *Operation) Responses() []Response {
	return o.responses
}

func (o *Operation) Consumes() []string {
	return o.consumes
}

func (o *Operation) Produces() []string {
	return o.produces
}

func (o *Operation) SecurityRequirements() []Security {
	return o.security
}

// Equal reports whether two operations occupy the same slot: same
// resolved path and same method set, order ignored.
func (o *Operation) Equal(other *Operation) bool {
	if o == nil || other == nil {
		return o == other
	}
	if !o.Path().Equal(other.Path()) {
		return false
	}
	if len(o.methods) != len(other.methods) {
		return false
	}
	for _, m := range o.methods {
		if !slices.Contains(other.methods, m) {
			return false
		}
	}
	return true
}

// Invoke runs the operation's own middleware phases around the
// handler: pre-dispatch hooks in ascending priority, then the
// callback, then post-dispatch hooks in descending priority.
func (o *Operation) Invoke(r *Request) (any, errx.Error) {
	hooks := o.middlewareList()
	for _, hook := range hooks.PreDispatchHooks() {
		if err := hook.PreDispatch(r); err != nil {
			return nil, err
		}
	}
	result, err := o.callback(r)
	if err != nil {
		return nil, err
	}
	for _, hook := range hooks.PostDispatchHooks() {
		result, err = hook.PostDispatch(r, result)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Middleware exposes the composed middleware list for the dispatcher's
// request-level phases.
func (o *Operation) Middleware() *MiddlewareList {
	return o.middlewareList()
}
