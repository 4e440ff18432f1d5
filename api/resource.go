package api

import (
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/tencent-go/apix/errx"
	"github.com/tencent-go/apix/pathx"
	"github.com/tencent-go/apix/util"
)

// DefaultKeyFieldName names the identifier path argument for resources
// that declare no key field of their own.
const DefaultKeyFieldName = "resource_id"

// ResourceInfo carries what dispatch and document generation need to
// know about a resource struct: its reflected type, display name and
// key field. Build via ResourceOf.
type ResourceInfo struct {
	Type         reflect.Type
	Name         string
	KeyField     string
	KeyFieldType pathx.Type
	keyIndex     []int
}

// DefaultResource is the sentinel resolved to the operation's own
// resource at document time.
var DefaultResource = &ResourceInfo{Name: "__default__"}

// ErrorResource documents the error body every operation can produce.
var ErrorResource = NamedResourceOf[errx.Resource]("Error")

var resourceInfos util.LazyMap[reflect.Type, *ResourceInfo]

// ResourceOf reflects over T once and caches the result. The key field
// is the field tagged `apix:"key"`; its wire name comes from the json
// tag.
func ResourceOf[T any]() *ResourceInfo {
	t := reflect.TypeOf((*T)(nil)).Elem()
	info, _ := resourceInfos.LoadOrLazyStore(t, func() *ResourceInfo {
		return parseResource(t)
	})
	return info
}

// NamedResourceOf overrides the reflected name, for envelope types
// whose Go name does not match the documented one.
func NamedResourceOf[T any](name string) *ResourceInfo {
	info := *ResourceOf[T]()
	info.Name = name
	return &info
}

func parseResource(t reflect.Type) *ResourceInfo {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		logrus.Panicf("resource must be a struct, got %s", t)
	}
	info := &ResourceInfo{Type: t, Name: t.Name()}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if tagValue(f, "apix") == "key" {
			info.KeyField = wireName(f)
			info.KeyFieldType = ParamTypeFor(f.Type)
			info.keyIndex = f.Index
			break
		}
	}
	return info
}

func tagValue(f reflect.StructField, key string) string {
	return strings.Split(f.Tag.Get(key), ",")[0]
}

func wireName(f reflect.StructField) string {
	if name := tagValue(f, "json"); name != "" && name != "-" {
		return name
	}
	return strings.ToLower(f.Name)
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
	uuidType    = reflect.TypeOf(uuid.UUID{})
	idType      = reflect.TypeOf(ID(0))
)

// ParamTypeFor maps a Go type onto the parameter type used in paths and
// generated documents.
func ParamTypeFor(t reflect.Type) pathx.Type {
	switch t {
	case timeType:
		return pathx.DateTime
	case decimalType:
		return pathx.Decimal
	case uuidType:
		return pathx.UUID
	case idType:
		return pathx.Long
	}
	switch t.Kind() {
	case reflect.String:
		return pathx.String
	case reflect.Bool:
		return pathx.Boolean
	case reflect.Int64, reflect.Uint64:
		return pathx.Long
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return pathx.Integer
	case reflect.Float32:
		return pathx.Float
	case reflect.Float64:
		return pathx.Double
	default:
		return pathx.String
	}
}

// KeyFieldName returns the wire name of the key field, falling back to
// the shared default.
func (info *ResourceInfo) KeyFieldName() string {
	if info == nil || info.KeyField == "" {
		return DefaultKeyFieldName
	}
	return info.KeyField
}

// ClearKeyField zeroes the key field of a decoded resource, stopping
// clients smuggling identifiers through create bodies.
func (info *ResourceInfo) ClearKeyField(resource any) {
	if info == nil || len(info.keyIndex) == 0 {
		return
	}
	v := reflect.ValueOf(resource)
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct || !v.CanSet() {
		return
	}
	fv := v.FieldByIndex(info.keyIndex)
	if fv.CanSet() {
		fv.SetZero()
	}
}

// ResourceApi groups the operations of one resource under a shared
// path prefix, middleware set and tag list. It replaces subclass-style
// declaration with explicit registration; operation order is the
// registration order.
type ResourceApi struct {
	resource   *ResourceInfo
	apiName    string
	pathPrefix pathx.UrlPath
	prefixSet  bool
	tags       []string
	middleware []any
	operations []*Operation
	parent     *Container
	seq        int
}

// NewResourceApi starts a group for resource T. The api name defaults
// to the lower-cased resource name and doubles as the path prefix.
func NewResourceApi[T any]() *ResourceApi {
	info := ResourceOf[T]()
	name := strings.ToLower(info.Name)
	return &ResourceApi{
		resource:   info,
		apiName:    name,
		pathPrefix: pathx.MustParse(name),
	}
}

func (ra *ResourceApi) WithName(name string) *ResourceApi {
	ra.apiName = name
	if !ra.prefixSet {
		ra.pathPrefix = pathx.MustParse(name)
	}
	return ra
}

func (ra *ResourceApi) WithPathPrefix(path string) *ResourceApi {
	ra.pathPrefix = pathx.MustParse(path)
	ra.prefixSet = true
	return ra
}

func (ra *ResourceApi) WithTags(tags ...string) *ResourceApi {
	ra.tags = append(ra.tags, tags...)
	return ra
}

// WithMiddleware attaches middleware every registered operation will
// run, the group-level analogue of per-operation middleware.
func (ra *ResourceApi) WithMiddleware(middleware ...any) *ResourceApi {
	ra.middleware = append(ra.middleware, middleware...)
	return ra
}

// Register binds operations in declaration order. An operation equal to
// an already registered one (same path and methods) replaces it in
// place, keeping the original position.
func (ra *ResourceApi) Register(ops ...*Operation) *ResourceApi {
	for _, op := range ops {
		op.bindTo(ra)
		if i := ra.indexOf(op); i >= 0 {
			op.sortKey = ra.operations[i].sortKey
			ra.operations[i] = op
			continue
		}
		ra.seq++
		op.sortKey = ra.seq
		ra.operations = append(ra.operations, op)
	}
	return ra
}

func (ra *ResourceApi) indexOf(op *Operation) int {
	for i, existing := range ra.operations {
		if existing.Equal(op) {
			return i
		}
	}
	return -1
}

// Extend registers fresh copies of another group's operations, so a
// specialised group starts from a base group's surface and appends its
// own operations after.
func (ra *ResourceApi) Extend(base *ResourceApi) *ResourceApi {
	for _, op := range base.operations {
		ra.Register(op.cloneUnbound())
	}
	return ra
}

func (ra *ResourceApi) Resource() *ResourceInfo {
	return ra.resource
}

func (ra *ResourceApi) Name() string {
	return ra.apiName
}

func (ra *ResourceApi) Tags() []string {
	return ra.tags
}

func (ra *ResourceApi) PathPrefix() pathx.UrlPath {
	return ra.pathPrefix
}

func (ra *ResourceApi) Parent() *Container {
	return ra.parent
}

// Operations returns the registered operations in declaration order.
func (ra *ResourceApi) Operations() []*Operation {
	return ra.operations
}

func (ra *ResourceApi) OpPaths(base pathx.UrlPath) []OpPath {
	prefixed := base.MustConcat(ra.pathPrefix)
	paths := make([]OpPath, 0, len(ra.operations))
	for _, op := range ra.operations {
		paths = append(paths, OpPath{
			Path:      prefixed.MustConcat(op.Path()),
			Operation: op,
		})
	}
	return paths
}

func (ra *ResourceApi) setParent(c *Container) {
	ra.parent = c
}
