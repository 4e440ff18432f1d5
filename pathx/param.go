package pathx

// PathParam describes a single parameterised path segment. TypeArgs
// carries type-specific detail, e.g. the pattern for Regex params.
type PathParam struct {
	Name     string
	Type     Type
	TypeArgs string
}

// NewPathParam builds an Integer-typed param, the default for resource
// identifiers.
func NewPathParam(name string) PathParam {
	return PathParam{Name: name, Type: Integer}
}

func TypedParam(name string, t Type) PathParam {
	return PathParam{Name: name, Type: t}
}

// ParamType resolves the effective type, defaulting the zero value to
// Integer.
func (p PathParam) ParamType() Type {
	return p.Type.orDefault()
}

// Node is one segment of a UrlPath: either a literal or a parameter.
// The zero Node is the empty literal that marks an absolute path when
// leading.
type Node struct {
	Literal string
	Param   PathParam
}

func (n Node) IsParam() bool {
	return n.Param.Name != ""
}

// Equal compares nodes with parameter types resolved to their
// defaults.
func (n Node) Equal(other Node) bool {
	if n.IsParam() != other.IsParam() {
		return false
	}
	if !n.IsParam() {
		return n.Literal == other.Literal
	}
	return n.Param.Name == other.Param.Name &&
		n.Param.ParamType() == other.Param.ParamType() &&
		n.Param.TypeArgs == other.Param.TypeArgs
}

func LiteralNode(s string) Node {
	return Node{Literal: s}
}

func ParamNode(p PathParam) Node {
	return Node{Param: p}
}
