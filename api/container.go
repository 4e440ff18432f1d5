package api

import (
	"fmt"
	"slices"

	"github.com/tencent-go/apix/pathx"
)

// OpPath pairs an operation with its fully resolved path.
type OpPath struct {
	Path      pathx.UrlPath
	Operation *Operation
}

// Node is anything mountable in a container tree: a ResourceApi, a
// nested Container or a single operation.
type Node interface {
	OpPaths(base pathx.UrlPath) []OpPath
	setParent(c *Container)
}

// Container groups nodes under a shared path prefix, forming the
// version and collection tree a dispatcher serves.
type Container struct {
	name       string
	pathPrefix pathx.UrlPath
	children   []Node
	parent     *Container
}

// NewContainer groups children without any path prefix of its own.
func NewContainer(children ...Node) *Container {
	c := &Container{}
	return c.Append(children...)
}

// NewCollection groups children under a literal path segment.
func NewCollection(name string, children ...Node) *Container {
	c := &Container{name: name, pathPrefix: pathx.MustParse(name)}
	return c.Append(children...)
}

func (c *Container) WithName(name string) *Container {
	c.name = name
	return c
}

func (c *Container) WithPathPrefix(path string) *Container {
	c.pathPrefix = pathx.MustParse(path)
	return c
}

// NewVersion groups children under a version prefix, "v1" style.
func NewVersion(version int, children ...Node) *Container {
	return NewCollection(fmt.Sprintf("v%d", version), children...)
}

func (c *Container) Append(children ...Node) *Container {
	for _, child := range children {
		child.setParent(c)
		c.children = append(c.children, child)
	}
	return c
}

// Handle mounts a single operation directly on the container, for
// endpoints that do not belong to any resource.
func (c *Container) Handle(path string, callback HandlerFunc, methods ...Method) *Container {
	return c.Append(NewOperation(path, callback, methods...))
}

func (c *Container) Name() string {
	return c.name
}

func (c *Container) PathPrefix() pathx.UrlPath {
	return c.pathPrefix
}

func (c *Container) Parent() *Container {
	return c.parent
}

func (c *Container) Children() []Node {
	return c.children
}

// OpPaths flattens the subtree into resolved path and operation pairs,
// children in mount order.
func (c *Container) OpPaths(base pathx.UrlPath) []OpPath {
	prefixed := c.pathPrefix
	if base.Len() > 0 {
		prefixed = base.MustConcat(c.pathPrefix)
	}
	var paths []OpPath
	for _, child := range c.children {
		paths = append(paths, child.OpPaths(prefixed)...)
	}
	return paths
}

func (c *Container) setParent(p *Container) {
	c.parent = p
}

// A bare operation mounts as a leaf node.
func (o *Operation) OpPaths(base pathx.UrlPath) []OpPath {
	return []OpPath{{Path: base.MustConcat(o.Path()), Operation: o}}
}

func (o *Operation) setParent(*Container) {}

// MethodMap maps each HTTP method to the operation serving it.
type MethodMap map[Method]*Operation

// Sorted returns the methods in lexical order, for deterministic
// headers and docs.
func (m MethodMap) Sorted() []Method {
	methods := make([]Method, 0, len(m))
	for method := range m {
		methods = append(methods, method)
	}
	slices.Sort(methods)
	return methods
}

// CollatedOpPath groups every method mounted on one path.
type CollatedOpPath struct {
	Path    pathx.UrlPath
	Methods MethodMap
}

// CollatedOpPaths flattens the tree and regroups operations per path,
// keeping first-seen path order, for hosts that route on path before
// method.
func CollatedOpPaths(root Node, base pathx.UrlPath) []CollatedOpPath {
	var collated []CollatedOpPath
	index := make(map[string]int)
	for _, opPath := range root.OpPaths(base) {
		key := opPath.Path.String()
		i, ok := index[key]
		if !ok {
			i = len(collated)
			index[key] = i
			collated = append(collated, CollatedOpPath{Path: opPath.Path, Methods: MethodMap{}})
		}
		for _, m := range opPath.Operation.Methods() {
			collated[i].Methods[m] = opPath.Operation
		}
	}
	return collated
}
