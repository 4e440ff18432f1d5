package dispatch

import (
	"github.com/sirupsen/logrus"

	"github.com/tencent-go/apix/api"
	"github.com/tencent-go/apix/codec"
	"github.com/tencent-go/apix/pathx"
)

const defaultName = "api"

// Interface is the root of an API tree. It owns content negotiation,
// the interface-level middleware list and the dispatch pipeline; a
// host such as Server routes requests into it.
type Interface struct {
	*api.Container

	codecs            *codec.Registry
	requestResolvers  []Resolver
	responseResolvers []Resolver
	middleware        *api.MiddlewareList
	debug             bool
	prefixSet         bool
	log               *logrus.Entry
}

// New builds an interface named "api" mounted at "/api" with the
// default codec registry and resolver chains.
func New(children ...api.Node) *Interface {
	root := api.NewContainer(children...).
		WithName(defaultName).
		WithPathPrefix("/" + defaultName)
	return &Interface{
		Container: root,
		codecs:    codec.Default(),
		requestResolvers: []Resolver{
			ContentTypeHeader(),
			AcceptHeader(),
			DefaultType(codec.ContentTypeJson),
		},
		responseResolvers: []Resolver{
			AcceptHeader(),
			ContentTypeHeader(),
			DefaultType(codec.ContentTypeJson),
		},
		middleware: api.NewMiddlewareList(),
		log:        logrus.WithField("component", "dispatch"),
	}
}

// WithName renames the interface. The path prefix follows as "/name"
// unless one was set explicitly.
func (i *Interface) WithName(name string) *Interface {
	i.Container.WithName(name)
	if !i.prefixSet {
		i.Container.WithPathPrefix("/" + name)
	}
	return i
}

// WithPathPrefix mounts the interface at an explicit absolute path.
func (i *Interface) WithPathPrefix(path string) *Interface {
	if !pathx.MustParse(path).IsAbsolute() {
		logrus.Panicf("path prefix must be an absolute path (eg start with a '/'): %s", path)
	}
	i.prefixSet = true
	i.Container.WithPathPrefix(path)
	return i
}

// WithCodecs replaces the codec registry.
func (i *Interface) WithCodecs(registry *codec.Registry) *Interface {
	i.codecs = registry
	return i
}

func (i *Interface) WithRequestResolvers(resolvers ...Resolver) *Interface {
	i.requestResolvers = resolvers
	return i
}

func (i *Interface) WithResponseResolvers(resolvers ...Resolver) *Interface {
	i.responseResolvers = resolvers
	return i
}

// WithMiddleware appends interface-level middleware. These run around
// every operation the interface serves, ordered by priority.
func (i *Interface) WithMiddleware(middleware ...any) *Interface {
	i.middleware.Append(middleware...)
	return i
}

// WithDebug turns on debug behaviour: handler panics and encode
// failures propagate instead of being folded into opaque 500s.
func (i *Interface) WithDebug(debug bool) *Interface {
	i.debug = debug
	return i
}

func (i *Interface) Codecs() *codec.Registry {
	return i.codecs
}

func (i *Interface) Middleware() *api.MiddlewareList {
	return i.middleware
}

func (i *Interface) Debug() bool {
	return i.debug
}

// Routes flattens the interface tree into resolved operation paths.
func (i *Interface) Routes() []api.OpPath {
	return i.Container.OpPaths(pathx.NoPath)
}

// CollatedRoutes regroups operations per path for hosts that route on
// path before method.
func (i *Interface) CollatedRoutes() []api.CollatedOpPath {
	return api.CollatedOpPaths(i.Container, pathx.NoPath)
}
