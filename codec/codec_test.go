package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type book struct {
	Title  string  `json:"title" form:"title"`
	Pages  int     `json:"pages" form:"pages"`
	Rating float64 `json:"rating,omitempty" form:"rating"`
}

func TestParseContentType(t *testing.T) {
	cases := map[string]string{
		"application/json":                       "application/json",
		"application/json; charset=utf-8":        "application/json",
		"text/html, application/json":            "text/html",
		"  application/x-msgpack ; q=0.9 ":       "application/x-msgpack",
		"":                                       "",
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseContentType(in), in)
	}
}

func TestJsonRoundTrip(t *testing.T) {
	data, err := Json().Marshal(book{Title: "Craft", Pages: 320})
	require.Nil(t, err)
	assert.JSONEq(t, `{"title":"Craft","pages":320}`, string(data))

	var out book
	require.Nil(t, Json().Unmarshal(data, &out))
	assert.Equal(t, "Craft", out.Title)
	assert.Equal(t, 320, out.Pages)
}

func TestJsonUnmarshalError(t *testing.T) {
	var out book
	err := Json().Unmarshal([]byte(`{"title":`), &out)
	require.NotNil(t, err)
	assert.Equal(t, "Failed to unmarshal JSON data", err.Error())
}

func TestMsgpackUsesJsonTags(t *testing.T) {
	data, err := Msgpack().Marshal(book{Title: "Craft", Pages: 12})
	require.Nil(t, err)

	var out map[string]any
	require.Nil(t, Msgpack().Unmarshal(data, &out))
	assert.Contains(t, out, "title")
	assert.Contains(t, out, "pages")
}

func TestYamlRoundTrip(t *testing.T) {
	data, err := Yaml().Marshal(map[string]any{"title": "Craft"})
	require.Nil(t, err)

	var out map[string]any
	require.Nil(t, Yaml().Unmarshal(data, &out))
	assert.Equal(t, "Craft", out["title"])
}

func TestFormBindAndMarshal(t *testing.T) {
	var out book
	require.Nil(t, Form().Bind(map[string][]string{
		"title":   {"Craft"},
		"pages":   {"99"},
		"unknown": {"ignored"},
	}, &out))
	assert.Equal(t, "Craft", out.Title)
	assert.Equal(t, 99, out.Pages)

	data, err := Form().Marshal(book{Title: "a b", Pages: 1})
	require.Nil(t, err)
	var back book
	require.Nil(t, Form().Unmarshal(data, &back))
	assert.Equal(t, "a b", back.Title)
}

func TestRegistry(t *testing.T) {
	r := Default()

	c, ok := r.Find("application/json; charset=utf-8")
	require.True(t, ok)
	assert.Equal(t, ContentTypeJson, c.ContentType())

	c, ok = r.Find("text/plain")
	require.True(t, ok)
	assert.Equal(t, ContentTypeJson, c.ContentType())

	_, ok = r.Find("application/xml")
	assert.False(t, ok)

	r.Register(Form())
	c, ok = r.Find(ContentTypeForm)
	require.True(t, ok)
	assert.Equal(t, ContentTypeForm, c.ContentType())

	assert.Equal(t, []string{
		ContentTypeJson,
		ContentTypeMsgpack,
		ContentTypeForm,
		ContentTypeYaml,
	}, r.ContentTypes())
}
