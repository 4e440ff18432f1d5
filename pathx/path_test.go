package pathx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormatRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		in   string
		out  string
	}{
		{"root", "/", "/"},
		{"empty", "", "/"},
		{"absolute", "/users/{id:Integer}/books", "/users/{id:Integer}/books"},
		{"relative", "users/{id:Integer}", "users/{id:Integer}"},
		{"default type", "/users/{id}", "/users/{id:Integer}"},
		{"trailing slash", "/users/", "/users"},
		{"typed string", "{name:String}", "{name:String}"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p, err := Parse(c.in)
			require.Nil(t, err)
			assert.Equal(t, c.out, p.String())
		})
	}
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("/users/{id:Nope}")
	require.NotNil(t, err)
	assert.Equal(t, "unknown param type `Nope` in: {id:Nope}", err.Error())

	_, err = Parse("/users/{id")
	require.NotNil(t, err)
	assert.Equal(t, "invalid path param: {id", err.Error())
}

func TestConcat(t *testing.T) {
	abs := MustParse("/api")
	rel := MustParse("users/{id}")

	joined, err := abs.Concat(rel)
	require.Nil(t, err)
	assert.Equal(t, "/api/users/{id:Integer}", joined.String())

	_, err = rel.Concat(abs)
	require.NotNil(t, err)
	assert.Equal(t, "right hand argument cannot be absolute", err.Error())

	assert.Panics(t, func() { rel.MustConcat(abs) })
}

func TestConcatDoesNotAliasReceiver(t *testing.T) {
	base := MustParse("/api")
	a := base.MustConcat(MustParse("users"))
	b := base.MustConcat(MustParse("books"))
	assert.Equal(t, "/api/users", a.String())
	assert.Equal(t, "/api/books", b.String())
	assert.Equal(t, "/api", base.String())
}

func TestIsAbsolute(t *testing.T) {
	assert.True(t, MustParse("/users").IsAbsolute())
	assert.False(t, MustParse("users").IsAbsolute())
	assert.False(t, NoPath.IsAbsolute())
	assert.False(t, FromParam(NewPathParam("id")).IsAbsolute())
}

func TestApplyArgs(t *testing.T) {
	p := MustParse("users").MustConcat(FromParam(PathParam{Name: "{key_field}"}))
	resolved := p.ApplyArgs(map[string]string{"key_field": "user_id"})
	assert.Equal(t, "users/{user_id:Integer}", resolved.String())
	// the original is untouched
	assert.Equal(t, "users/{{key_field}:Integer}", p.String())
}

func TestSliceAndTrim(t *testing.T) {
	p := MustParse("/api/v1/users/{id}")
	assert.Equal(t, "v1/users/{id:Integer}", p.Slice(2, p.Len()).String())
	assert.Equal(t, "", p.Slice(3, 2).String())

	prefix := MustParse("/api/v1")
	assert.True(t, p.StartsWith(prefix))
	assert.Equal(t, "users/{id:Integer}", p.TrimPrefix(prefix).String())
	assert.Equal(t, p.String(), p.TrimPrefix(MustParse("/other")).String())
}

func TestPathParams(t *testing.T) {
	p := MustParse("/users/{id}/books/{isbn:String}")
	params := p.PathParams()
	require.Len(t, params, 2)
	assert.Equal(t, "id", params[0].Name)
	assert.Equal(t, Integer, params[0].ParamType())
	assert.Equal(t, "isbn", params[1].Name)
	assert.Equal(t, String, params[1].Type)
}

func TestFormatBrace(t *testing.T) {
	p := MustParse("/users/{id}/books")
	assert.Equal(t, "/users/{id}/books", p.Format(BraceNodeFormat))
}

func TestEqual(t *testing.T) {
	assert.True(t, MustParse("/users/{id}").Equal(MustParse("/users/{id:Integer}")))
	assert.False(t, MustParse("/users/{id}").Equal(MustParse("/users/{id:String}")))
	assert.False(t, MustParse("users").Equal(MustParse("/users")))
}
