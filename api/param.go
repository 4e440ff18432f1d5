package api

import (
	"slices"

	"github.com/tencent-go/apix/pathx"
)

// Param documents one operation parameter for generated documents.
// Values are immutable; With* methods return modified copies.
type Param struct {
	Name        string
	In          In
	Type        pathx.Type
	Resource    *ResourceInfo
	Description string
	Required    bool
	Default     any
	Minimum     *float64
	Maximum     *float64
	Enum        []any
}

func PathParam(name string, t pathx.Type) Param {
	return Param{Name: name, In: InPath, Type: t, Required: true}
}

func QueryParam(name string, t pathx.Type) Param {
	return Param{Name: name, In: InQuery, Type: t}
}

func HeaderParam(name string, t pathx.Type) Param {
	return Param{Name: name, In: InHeader, Type: t}
}

func FormParam(name string, t pathx.Type) Param {
	return Param{Name: name, In: InForm, Type: t}
}

// BodyParam documents the request body; the resource is resolved from
// the operation binding when nil.
func BodyParam() Param {
	return Param{Name: "body", In: InBody, Required: true, Resource: DefaultResource}
}

func (p Param) WithDescription(description string) Param {
	p.Description = description
	return p
}

func (p Param) WithRequired(required bool) Param {
	p.Required = required
	return p
}

func (p Param) WithDefault(v any) Param {
	p.Default = v
	return p
}

func (p Param) WithMinimum(minimum float64) Param {
	p.Minimum = &minimum
	return p
}

func (p Param) WithMaximum(maximum float64) Param {
	p.Maximum = &maximum
	return p
}

func (p Param) WithEnum(values ...any) Param {
	p.Enum = slices.Clone(values)
	return p
}

func (p Param) WithResource(info *ResourceInfo) Param {
	p.Resource = info
	return p
}

// Response documents one response an operation can produce. Status 0 is
// the catch-all "default" entry. Resource DefaultResource resolves to
// the operation's own resource at document time.
type Response struct {
	Status      int
	Description string
	Resource    *ResourceInfo
}

func NewResponse(status int, description string) Response {
	return Response{Status: status, Description: description, Resource: DefaultResource}
}

// DefaultResponse documents the catch-all error entry every operation
// carries.
func DefaultResponse(description string) Response {
	return Response{Description: description, Resource: ErrorResource}
}

func (r Response) WithResource(info *ResourceInfo) Response {
	r.Resource = info
	return r
}

func (r Response) WithoutResource() Response {
	r.Resource = nil
	return r
}

// Security names the security schemes (and their scopes) an operation
// requires.
type Security map[string][]string
