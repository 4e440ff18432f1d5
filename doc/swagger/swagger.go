package swagger

import (
	"strconv"
	"strings"

	"github.com/tencent-go/apix/api"
	"github.com/tencent-go/apix/dispatch"
	"github.com/tencent-go/apix/errx"
	"github.com/tencent-go/apix/pathx"
)

// Tag marks documentation endpoints; operations carrying it are left
// out of the generated document.
const Tag = "swagger"

type Option func(*Spec)

func WithDescription(description string) Option {
	return func(s *Spec) { s.description = description }
}

func WithVersion(version string) Option {
	return func(s *Spec) { s.version = version }
}

// WithHost pins the advertised host; by default the document echoes the
// host the request arrived on.
func WithHost(host string) Option {
	return func(s *Spec) { s.host = host }
}

func WithSchemes(schemes ...string) Option {
	return func(s *Spec) { s.schemes = schemes }
}

func WithSecurityDefinition(name string, scheme SecurityScheme) Option {
	return func(s *Spec) {
		if s.securityDefs == nil {
			s.securityDefs = make(map[string]SecurityScheme)
		}
		s.securityDefs[name] = scheme
	}
}

// WithUI also serves a browser UI page under swagger/ui.
func WithUI() Option {
	return func(s *Spec) { s.ui = true }
}

// Spec generates the Swagger 2.0 document for the interface it is
// applied to.
type Spec struct {
	iface        *dispatch.Interface
	title        string
	description  string
	version      string
	host         string
	schemes      []string
	securityDefs map[string]SecurityScheme
	ui           bool
}

// Apply mounts the document endpoint as a swagger collection on the
// interface: GET <prefix>/swagger returns the generated document.
func Apply(iface *dispatch.Interface, title string, opts ...Option) *Spec {
	s := &Spec{iface: iface, title: title, version: "1.0"}
	for _, opt := range opts {
		opt(s)
	}
	col := api.NewCollection(Tag).Append(
		api.NewOperation("", s.document, api.GET).
			WithTags(Tag).
			WithOperationID("swagger.document").
			WithSummary("This document"),
	)
	if s.ui {
		col.Append(
			api.NewOperation("ui", s.uiPage, api.GET).
				WithTags(Tag).
				WithOperationID("swagger.ui").
				WithSummary("API browser"),
		)
	}
	iface.Append(col)
	return s
}

func (s *Spec) document(r *api.Request) (any, errx.Error) {
	prefix := s.iface.PathPrefix()
	host := s.host
	if host == "" {
		host = r.Host
	}
	contentTypes := s.iface.Codecs().ContentTypes()

	defs := definitions{}
	defs.addResource(api.ErrorResource)
	defs.addResource(api.ListingResource)

	doc := &Document{
		Swagger:             "2.0",
		Info:                Info{Title: s.title, Description: s.description, Version: s.version},
		Host:                host,
		BasePath:            prefix.String(),
		Schemes:             s.schemes,
		Consumes:            contentTypes,
		Produces:            contentTypes,
		Paths:               make(map[string]*PathItem),
		SecurityDefinitions: s.securityDefs,
	}
	for _, collated := range s.iface.CollatedRoutes() {
		path := collated.Path.TrimPrefix(prefix)
		item := &PathItem{Parameters: pathParameters(path)}
		include := false
		for _, method := range collated.Methods.Sorted() {
			op := collated.Methods[method]
			if hasTag(op, Tag) {
				continue
			}
			include = true
			item.setMethod(string(method), s.operationDoc(op, defs))
		}
		if include {
			doc.Paths["/"+path.Format(pathx.BraceNodeFormat)] = item
		}
	}
	doc.Definitions = defs
	return doc, nil
}

func hasTag(op *api.Operation, tag string) bool {
	for _, t := range op.Tags() {
		if t == tag {
			return true
		}
	}
	return false
}

func pathParameters(path pathx.UrlPath) []Parameter {
	params := path.PathParams()
	if len(params) == 0 {
		return nil
	}
	out := make([]Parameter, 0, len(params))
	for _, p := range params {
		t := p.ParamType()
		out = append(out, Parameter{
			Name:     p.Name,
			In:       string(api.InPath),
			Required: true,
			Type:     t.WireType(),
			Format:   t.WireFormat(),
		})
	}
	return out
}

func (s *Spec) operationDoc(op *api.Operation, defs definitions) *OperationDoc {
	doc := &OperationDoc{
		Tags:        op.Tags(),
		Summary:     op.Summary(),
		Description: replaceName(op.Description(), op),
		OperationID: op.OperationID(),
		Consumes:    op.Consumes(),
		Produces:    op.Produces(),
		Deprecated:  op.Deprecated(),
		Responses:   make(map[string]*ResponseDoc),
	}
	for _, p := range op.Params() {
		doc.Parameters = append(doc.Parameters, parameterDoc(p, op, defs))
	}
	for _, resp := range op.Responses() {
		key := "default"
		if resp.Status != 0 {
			key = strconv.Itoa(resp.Status)
		}
		rd := &ResponseDoc{Description: replaceName(resp.Description, op)}
		if res := resolveResource(resp.Resource, op); res != nil {
			rd.Schema = defs.addResource(res)
		}
		doc.Responses[key] = rd
	}
	// Every operation can fail; make sure a catch-all error entry is
	// documented even when the author declared none.
	if _, ok := doc.Responses["default"]; !ok {
		doc.Responses["default"] = &ResponseDoc{
			Description: "Error",
			Schema:      defs.addResource(api.ErrorResource),
		}
	}
	for _, sec := range op.SecurityRequirements() {
		doc.Security = append(doc.Security, map[string][]string(sec))
	}
	return doc
}

func parameterDoc(p api.Param, op *api.Operation, defs definitions) Parameter {
	out := Parameter{
		Name:        p.Name,
		In:          string(p.In),
		Description: replaceName(p.Description, op),
		Required:    p.Required,
		Default:     p.Default,
		Minimum:     p.Minimum,
		Maximum:     p.Maximum,
		Enum:        p.Enum,
	}
	if p.In == api.InBody {
		out.Schema = defs.addResource(resolveResource(p.Resource, op))
		return out
	}
	out.Type = p.Type.WireType()
	out.Format = p.Type.WireFormat()
	return out
}

// resolveResource maps the default-resource sentinel onto the
// operation's own resource.
func resolveResource(info *api.ResourceInfo, op *api.Operation) *api.ResourceInfo {
	if info == api.DefaultResource {
		return op.Resource()
	}
	return info
}

func replaceName(text string, op *api.Operation) string {
	if !strings.Contains(text, "{name}") {
		return text
	}
	resource := op.Resource()
	if resource == nil {
		return text
	}
	return strings.ReplaceAll(text, "{name}", resource.Name)
}

func (s *Spec) uiPage(r *api.Request) (any, errx.Error) {
	docPath := s.iface.PathPrefix().String() + "/" + Tag
	page := strings.ReplaceAll(uiTemplate, "{{SWAGGER_PATH}}", docPath)
	return api.NewHttpResponse(page, 200).
		SetHeader("Content-Type", "text/html; charset=utf-8"), nil
}

const uiTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8"/>
  <title>API Documentation</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@3/swagger-ui.css"/>
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@3/swagger-ui-bundle.js"></script>
<script>
window.onload = function () {
  window.ui = SwaggerUIBundle({
    url: "{{SWAGGER_PATH}}",
    dom_id: "#swagger-ui",
    deepLinking: true
  });
};
</script>
</body>
</html>
`
