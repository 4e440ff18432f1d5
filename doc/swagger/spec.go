// Package swagger generates a Swagger 2.0 document from a dispatch
// interface and serves it from a /swagger endpoint, optionally with a
// browser UI.
package swagger

// Document is the root of a Swagger 2.0 specification.
type Document struct {
	Swagger             string                    `json:"swagger"`
	Info                Info                      `json:"info"`
	Host                string                    `json:"host,omitempty"`
	BasePath            string                    `json:"basePath,omitempty"`
	Schemes             []string                  `json:"schemes,omitempty"`
	Consumes            []string                  `json:"consumes,omitempty"`
	Produces            []string                  `json:"produces,omitempty"`
	Paths               map[string]*PathItem      `json:"paths"`
	Definitions         map[string]*Schema        `json:"definitions,omitempty"`
	SecurityDefinitions map[string]SecurityScheme `json:"securityDefinitions,omitempty"`
}

type Info struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version"`
}

// PathItem holds the operations sharing one path plus the parameters
// common to all of them.
type PathItem struct {
	Parameters []Parameter   `json:"parameters,omitempty"`
	Get        *OperationDoc `json:"get,omitempty"`
	Put        *OperationDoc `json:"put,omitempty"`
	Post       *OperationDoc `json:"post,omitempty"`
	Delete     *OperationDoc `json:"delete,omitempty"`
	Options    *OperationDoc `json:"options,omitempty"`
	Head       *OperationDoc `json:"head,omitempty"`
	Patch      *OperationDoc `json:"patch,omitempty"`
}

// setMethod assigns doc to the slot for an HTTP method; unknown methods
// are ignored rather than corrupting the document.
func (p *PathItem) setMethod(method string, doc *OperationDoc) {
	switch method {
	case "GET":
		p.Get = doc
	case "PUT":
		p.Put = doc
	case "POST":
		p.Post = doc
	case "DELETE":
		p.Delete = doc
	case "OPTIONS":
		p.Options = doc
	case "HEAD":
		p.Head = doc
	case "PATCH":
		p.Patch = doc
	}
}

type OperationDoc struct {
	Tags        []string                 `json:"tags,omitempty"`
	Summary     string                   `json:"summary,omitempty"`
	Description string                   `json:"description,omitempty"`
	OperationID string                   `json:"operationId,omitempty"`
	Consumes    []string                 `json:"consumes,omitempty"`
	Produces    []string                 `json:"produces,omitempty"`
	Parameters  []Parameter              `json:"parameters,omitempty"`
	Responses   map[string]*ResponseDoc  `json:"responses"`
	Deprecated  bool                     `json:"deprecated,omitempty"`
	Security    []map[string][]string    `json:"security,omitempty"`
}

type Parameter struct {
	Name        string   `json:"name"`
	In          string   `json:"in"`
	Description string   `json:"description,omitempty"`
	Required    bool     `json:"required,omitempty"`
	Type        string   `json:"type,omitempty"`
	Format      string   `json:"format,omitempty"`
	Default     any      `json:"default,omitempty"`
	Minimum     *float64 `json:"minimum,omitempty"`
	Maximum     *float64 `json:"maximum,omitempty"`
	Enum        []any    `json:"enum,omitempty"`
	Schema      *Schema  `json:"schema,omitempty"`
}

type ResponseDoc struct {
	Description string  `json:"description"`
	Schema      *Schema `json:"schema,omitempty"`
}

type Schema struct {
	Ref                  string             `json:"$ref,omitempty"`
	Type                 string             `json:"type,omitempty"`
	Format               string             `json:"format,omitempty"`
	Description          string             `json:"description,omitempty"`
	ReadOnly             bool               `json:"readOnly,omitempty"`
	Enum                 []any              `json:"enum,omitempty"`
	Items                *Schema            `json:"items,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	AdditionalProperties *Schema            `json:"additionalProperties,omitempty"`
}

type SecurityScheme struct {
	Type             string            `json:"type"`
	Description      string            `json:"description,omitempty"`
	Name             string            `json:"name,omitempty"`
	In               string            `json:"in,omitempty"`
	Flow             string            `json:"flow,omitempty"`
	AuthorizationURL string            `json:"authorizationUrl,omitempty"`
	TokenURL         string            `json:"tokenUrl,omitempty"`
	Scopes           map[string]string `json:"scopes,omitempty"`
}

func refSchema(name string) *Schema {
	return &Schema{Ref: "#/definitions/" + name}
}
