package pathx

import (
	"regexp"
	"slices"
	"strings"

	"github.com/tencent-go/apix/errx"
)

// UrlPath is an immutable sequence of path nodes. A leading empty
// literal marks the path as absolute, mirroring the split form of
// "/users/{id}". All operations return new values.
type UrlPath struct {
	nodes []Node
}

// NoPath is the empty path used by operations mounted directly on their
// group root.
var NoPath = UrlPath{}

func New(nodes ...Node) UrlPath {
	return UrlPath{nodes: slices.Clone(nodes)}
}

// FromParam builds a single-node path from a parameter.
func FromParam(p PathParam) UrlPath {
	return UrlPath{nodes: []Node{ParamNode(p)}}
}

var paramPattern = regexp.MustCompile(`^\{(\w+)(?::(\w+))?\}$`)

// Parse splits a path template on "/" into literal and parameter nodes.
// Parameters use "{name}" or "{name:Type}" syntax; a leading "/" makes
// the path absolute and trailing slashes are ignored.
func Parse(path string) (UrlPath, errx.Error) {
	segments := strings.Split(strings.TrimRight(path, "/"), "/")
	nodes := make([]Node, 0, len(segments))
	for _, segment := range segments {
		node, err := parseNode(segment)
		if err != nil {
			return NoPath, err
		}
		nodes = append(nodes, node)
	}
	return UrlPath{nodes: nodes}, nil
}

func MustParse(path string) UrlPath {
	p, err := Parse(path)
	if err != nil {
		panic(err)
	}
	return p
}

func parseNode(segment string) (Node, errx.Error) {
	if m := paramPattern.FindStringSubmatch(segment); m != nil {
		// An untyped param keeps the zero Type so a binding can fill it
		// in later; it resolves to Integer everywhere else.
		var t Type
		if m[2] != "" {
			var ok bool
			if t, ok = TypeByName(m[2]); !ok {
				return Node{}, errx.Newf("unknown param type `%s` in: %s", m[2], segment)
			}
		}
		return ParamNode(PathParam{Name: m[1], Type: t}), nil
	}
	if strings.ContainsAny(segment, "{}") {
		return Node{}, errx.Newf("invalid path param: %s", segment)
	}
	return LiteralNode(segment), nil
}

// Concat appends other to p. The right hand side must be relative;
// concatenating an absolute path is always an error.
func (p UrlPath) Concat(other UrlPath) (UrlPath, errx.Error) {
	if other.IsAbsolute() {
		return NoPath, errx.New("right hand argument cannot be absolute")
	}
	nodes := make([]Node, 0, len(p.nodes)+len(other.nodes))
	nodes = append(nodes, p.nodes...)
	nodes = append(nodes, other.nodes...)
	return UrlPath{nodes: nodes}, nil
}

func (p UrlPath) MustConcat(other UrlPath) UrlPath {
	joined, err := p.Concat(other)
	if err != nil {
		panic(err)
	}
	return joined
}

func (p UrlPath) IsAbsolute() bool {
	return len(p.nodes) > 0 && !p.nodes[0].IsParam() && p.nodes[0].Literal == ""
}

func (p UrlPath) Len() int {
	return len(p.nodes)
}

func (p UrlPath) Nodes() []Node {
	return slices.Clone(p.nodes)
}

// PathParams returns the parameter nodes in order.
func (p UrlPath) PathParams() []PathParam {
	var params []PathParam
	for _, n := range p.nodes {
		if n.IsParam() {
			params = append(params, n.Param)
		}
	}
	return params
}

// Slice returns the sub-path [i, j), clamped to valid bounds.
func (p UrlPath) Slice(i, j int) UrlPath {
	if i < 0 {
		i = 0
	}
	if j > len(p.nodes) {
		j = len(p.nodes)
	}
	if i >= j {
		return NoPath
	}
	return UrlPath{nodes: slices.Clone(p.nodes[i:j])}
}

func (p UrlPath) StartsWith(prefix UrlPath) bool {
	if len(prefix.nodes) > len(p.nodes) {
		return false
	}
	return slices.Equal(p.nodes[:len(prefix.nodes)], prefix.nodes)
}

// TrimPrefix removes prefix when present, leaving a relative remainder.
func (p UrlPath) TrimPrefix(prefix UrlPath) UrlPath {
	if !p.StartsWith(prefix) {
		return p
	}
	return p.Slice(len(prefix.nodes), len(p.nodes))
}

// ApplyArgs substitutes "{key}" tokens inside parameter names, used to
// resolve placeholder params like the resource key field at bind time.
func (p UrlPath) ApplyArgs(args map[string]string) UrlPath {
	if len(args) == 0 {
		return p
	}
	nodes := slices.Clone(p.nodes)
	for i, n := range nodes {
		if !n.IsParam() {
			continue
		}
		name := n.Param.Name
		for k, v := range args {
			name = strings.ReplaceAll(name, "{"+k+"}", v)
		}
		nodes[i].Param.Name = name
	}
	return UrlPath{nodes: nodes}
}

// WithParamType assigns a type to every untyped parameter with the
// given name. Explicitly typed parameters are left alone.
func (p UrlPath) WithParamType(name string, t Type) UrlPath {
	nodes := slices.Clone(p.nodes)
	for i, n := range nodes {
		if n.IsParam() && n.Param.Name == name && n.Param.Type == "" {
			nodes[i].Param.Type = t
		}
	}
	return UrlPath{nodes: nodes}
}

// NodeFormatter renders a parameter node for one output flavour.
type NodeFormatter func(PathParam) string

// DefaultNodeFormat renders "{name:Type}".
func DefaultNodeFormat(p PathParam) string {
	return "{" + p.Name + ":" + string(p.ParamType()) + "}"
}

// BraceNodeFormat renders "{name}", the form used in generated documents.
func BraceNodeFormat(p PathParam) string {
	return "{" + p.Name + "}"
}

// Format renders the path, "/" for the bare absolute root and "" for the
// empty path.
func (p UrlPath) Format(f NodeFormatter) string {
	if len(p.nodes) == 0 {
		return ""
	}
	if len(p.nodes) == 1 && p.IsAbsolute() {
		return "/"
	}
	parts := make([]string, len(p.nodes))
	for i, n := range p.nodes {
		if n.IsParam() {
			parts[i] = f(n.Param)
		} else {
			parts[i] = n.Literal
		}
	}
	return strings.Join(parts, "/")
}

func (p UrlPath) String() string {
	return p.Format(DefaultNodeFormat)
}

// Equal compares node by node with parameter types resolved, so "{id}"
// equals "{id:Integer}".
func (p UrlPath) Equal(other UrlPath) bool {
	if len(p.nodes) != len(other.nodes) {
		return false
	}
	for i, n := range p.nodes {
		if !n.Equal(other.nodes[i]) {
			return false
		}
	}
	return true
}
