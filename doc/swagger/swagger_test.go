package swagger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tencent-go/apix/api"
	"github.com/tencent-go/apix/codec"
	"github.com/tencent-go/apix/dispatch"
	"github.com/tencent-go/apix/errx"
)

type Book struct {
	ID     int64  `json:"id" apix:"key"`
	Title  string `json:"title" description:"Display title."`
	Author string `json:"author"`
}

func okHandler(result any) api.HandlerFunc {
	return func(r *api.Request) (any, errx.Error) {
		return result, nil
	}
}

func listBooks(r *api.Request, page api.Page) ([]Book, int64, errx.Error) {
	return nil, -1, nil
}

func testInterface() *dispatch.Interface {
	return dispatch.New(api.NewVersion(1,
		api.NewResourceApi[Book]().Register(
			api.NewListOperation(listBooks),
			api.NewDetailOperation(okHandler(Book{})).
				WithDescription("Fetch a single {name}."),
			api.NewOperation("", okHandler(Book{}), api.POST).
				WithParams(api.BodyParam()).
				WithResponses(api.NewResponse(201, "{name} created")),
		),
	))
}

func generate(t *testing.T, spec *Spec) *Document {
	t.Helper()
	result, err := spec.document(api.NewTestRequest(api.GET, "/api/swagger", ""))
	require.Nil(t, err)
	doc, ok := result.(*Document)
	require.True(t, ok)
	return doc
}

func TestDocumentEnvelope(t *testing.T) {
	iface := testInterface()
	spec := Apply(iface, "Library API", WithVersion("2.1"), WithSchemes("https"))

	doc := generate(t, spec)
	assert.Equal(t, "2.0", doc.Swagger)
	assert.Equal(t, "Library API", doc.Info.Title)
	assert.Equal(t, "2.1", doc.Info.Version)
	assert.Equal(t, "/api", doc.BasePath)
	assert.Equal(t, []string{"https"}, doc.Schemes)
	// host falls back to the request host when not pinned
	assert.Equal(t, "example.com", doc.Host)
	assert.Contains(t, doc.Consumes, codec.ContentTypeJson)
}

func TestDocumentPaths(t *testing.T) {
	spec := Apply(testInterface(), "Library API")
	doc := generate(t, spec)

	require.Contains(t, doc.Paths, "/v1/book")
	require.Contains(t, doc.Paths, "/v1/book/{id}")
	// the document endpoint never documents itself
	assert.NotContains(t, doc.Paths, "/swagger")

	collection := doc.Paths["/v1/book"]
	assert.NotNil(t, collection.Get)
	assert.NotNil(t, collection.Post)
	assert.Nil(t, collection.Delete)

	detail := doc.Paths["/v1/book/{id}"]
	require.Len(t, detail.Parameters, 1)
	assert.Equal(t, "id", detail.Parameters[0].Name)
	assert.Equal(t, "path", detail.Parameters[0].In)
	assert.Equal(t, "integer", detail.Parameters[0].Type)
	assert.Equal(t, "int64", detail.Parameters[0].Format)
	assert.True(t, detail.Parameters[0].Required)
}

func TestDocumentOperations(t *testing.T) {
	spec := Apply(testInterface(), "Library API")
	doc := generate(t, spec)

	t.Run("listing response references the envelope", func(t *testing.T) {
		listing := doc.Paths["/v1/book"].Get
		require.Contains(t, listing.Responses, "200")
		assert.Equal(t, "#/definitions/Listing", listing.Responses["200"].Schema.Ref)
	})

	t.Run("body parameter references the resource", func(t *testing.T) {
		create := doc.Paths["/v1/book"].Post
		require.Len(t, create.Parameters, 1)
		assert.Equal(t, "body", create.Parameters[0].In)
		assert.Equal(t, "#/definitions/Book", create.Parameters[0].Schema.Ref)
		require.Contains(t, create.Responses, "201")
		assert.Equal(t, "Book created", create.Responses["201"].Description)
	})

	t.Run("resource name substitution", func(t *testing.T) {
		detail := doc.Paths["/v1/book/{id}"].Get
		assert.Equal(t, "Fetch a single Book.", detail.Description)
	})

	t.Run("default error response is always present", func(t *testing.T) {
		detail := doc.Paths["/v1/book/{id}"].Get
		require.Contains(t, detail.Responses, "default")
		assert.Equal(t, "#/definitions/Error", detail.Responses["default"].Schema.Ref)
	})
}

func TestDocumentDefinitions(t *testing.T) {
	spec := Apply(testInterface(), "Library API")
	doc := generate(t, spec)

	require.Contains(t, doc.Definitions, "Book")
	require.Contains(t, doc.Definitions, "Error")
	require.Contains(t, doc.Definitions, "Listing")

	book := doc.Definitions["Book"]
	assert.Equal(t, "object", book.Type)
	require.Contains(t, book.Properties, "title")
	assert.Equal(t, "Display title.", book.Properties["title"].Description)
	assert.Equal(t, "string", book.Properties["title"].Type)
	assert.Equal(t, "integer", book.Properties["id"].Type)

	listing := doc.Definitions["Listing"]
	require.Contains(t, listing.Properties, "results")
	assert.Equal(t, "array", listing.Properties["results"].Type)
}

func TestSecurityDefinitions(t *testing.T) {
	iface := testInterface()
	spec := Apply(iface, "Library API",
		WithSecurityDefinition("api_key", SecurityScheme{Type: "apiKey", Name: "X-Api-Key", In: "header"}))
	doc := generate(t, spec)

	require.Contains(t, doc.SecurityDefinitions, "api_key")
	assert.Equal(t, "apiKey", doc.SecurityDefinitions["api_key"].Type)
}

func TestUIPage(t *testing.T) {
	iface := testInterface()
	spec := Apply(iface, "Library API", WithUI())

	var uiPath bool
	for _, route := range iface.Routes() {
		if route.Path.String() == "/api/swagger/ui" {
			uiPath = true
		}
	}
	assert.True(t, uiPath)

	result, err := spec.uiPage(api.NewTestRequest(api.GET, "/api/swagger/ui", ""))
	require.Nil(t, err)
	resp, ok := result.(*api.HttpResponse)
	require.True(t, ok)
	assert.Contains(t, resp.Headers.Get("Content-Type"), "text/html")
	assert.Contains(t, resp.Body.(string), `url: "/api/swagger"`)
}
