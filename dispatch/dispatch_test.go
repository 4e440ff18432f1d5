package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tencent-go/apix/api"
	"github.com/tencent-go/apix/codec"
	"github.com/tencent-go/apix/errx"
)

func okHandler(result any) api.HandlerFunc {
	return func(r *api.Request) (any, errx.Error) {
		return result, nil
	}
}

func errHandler(err errx.Error) api.HandlerFunc {
	return func(r *api.Request) (any, errx.Error) {
		return nil, err
	}
}

func decodeError(t *testing.T, resp *api.HttpResponse) *errx.Resource {
	t.Helper()
	data, ok := resp.Body.([]byte)
	require.True(t, ok)
	var resource errx.Resource
	require.Nil(t, codec.Json().Unmarshal(data, &resource))
	return &resource
}

func TestDispatchEncodesResult(t *testing.T) {
	iface := New()
	op := api.NewOperation("", okHandler(map[string]string{"title": "Dune"}), api.GET)

	resp := iface.Dispatch(op, api.NewTestRequest(api.GET, "/api/book", ""))
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, codec.ContentTypeJson, resp.ContentType())
	assert.JSONEq(t, `{"title":"Dune"}`, string(resp.Body.([]byte)))
}

func TestDispatchBodyShapes(t *testing.T) {
	iface := New()

	t.Run("nil body is an empty 204", func(t *testing.T) {
		resp := iface.Dispatch(api.NewOperation("", okHandler(nil), api.GET),
			api.NewTestRequest(api.GET, "/api/book", ""))
		assert.Equal(t, 204, resp.Status)
		assert.Nil(t, resp.Body)
	})

	t.Run("typed nil is an empty 204", func(t *testing.T) {
		var book *struct{ Title string }
		resp := iface.Dispatch(api.NewOperation("", okHandler(book), api.GET),
			api.NewTestRequest(api.GET, "/api/book", ""))
		assert.Equal(t, 204, resp.Status)
	})

	t.Run("empty slice is a 200 with an empty array", func(t *testing.T) {
		resp := iface.Dispatch(api.NewOperation("", okHandler([]string{}), api.GET),
			api.NewTestRequest(api.GET, "/api/book", ""))
		assert.Equal(t, 200, resp.Status)
		assert.Equal(t, "[]", string(resp.Body.([]byte)))
	})

	t.Run("string passes through unencoded", func(t *testing.T) {
		resp := iface.Dispatch(api.NewOperation("", okHandler("pong"), api.GET),
			api.NewTestRequest(api.GET, "/api/ping", ""))
		assert.Equal(t, 200, resp.Status)
		assert.Equal(t, "pong", resp.Body)
	})
}

func TestDispatchNegotiation(t *testing.T) {
	iface := New()
	op := api.NewOperation("", okHandler("ok"), api.GET)

	t.Run("unknown content type is unprocessable", func(t *testing.T) {
		r := api.NewTestRequest(api.GET, "/api/book", "")
		r.Header.Set("Content-Type", "application/xml")
		resp := iface.Dispatch(op, r)
		assert.Equal(t, 422, resp.Status)
	})

	t.Run("unknown accept type is not acceptable", func(t *testing.T) {
		r := api.NewTestRequest(api.GET, "/api/book", "")
		r.Header.Set("Accept", "application/xml")
		resp := iface.Dispatch(op, r)
		assert.Equal(t, 406, resp.Status)
	})

	t.Run("wildcard accept falls back to json", func(t *testing.T) {
		r := api.NewTestRequest(api.GET, "/api/book", "")
		r.Header.Set("Accept", "*/*")
		resp := iface.Dispatch(op, r)
		assert.Equal(t, 200, resp.Status)
	})

	t.Run("text plain remaps to json", func(t *testing.T) {
		r := api.NewTestRequest(api.GET, "/api/book", "")
		r.Header.Set("Content-Type", "text/plain")
		resp := iface.Dispatch(op, r)
		assert.Equal(t, 200, resp.Status)
	})
}

func TestDispatchMethodNotAllowed(t *testing.T) {
	iface := New()
	op := api.NewOperation("", okHandler("ok"), api.GET, api.POST)

	resp := iface.Dispatch(op, api.NewTestRequest(api.DELETE, "/api/book", ""))
	assert.Equal(t, 405, resp.Status)
	assert.Equal(t, "GET,POST", resp.Headers.Get("Allow"))
}

func TestDispatchErrorMapping(t *testing.T) {
	iface := New()

	t.Run("status errors render their payload", func(t *testing.T) {
		resp := iface.Dispatch(
			api.NewOperation("", errHandler(errx.NotFound.Err()), api.GET),
			api.NewTestRequest(api.GET, "/api/book/1", ""))
		assert.Equal(t, 404, resp.Status)
		resource := decodeError(t, resp)
		assert.Equal(t, 404, resource.Status)
		assert.Equal(t, 40400, resource.Code)
		assert.Equal(t, "Not Found", resource.Message)
	})

	t.Run("not implemented", func(t *testing.T) {
		resp := iface.Dispatch(
			api.NewOperation("", errHandler(errx.NotImplemented.Err()), api.GET),
			api.NewTestRequest(api.GET, "/api/book", ""))
		assert.Equal(t, 501, resp.Status)
	})

	t.Run("status-less errors render opaque", func(t *testing.T) {
		resp := iface.Dispatch(
			api.NewOperation("", errHandler(errx.New("connection refused")), api.GET),
			api.NewTestRequest(api.GET, "/api/book", ""))
		assert.Equal(t, 500, resp.Status)
		resource := decodeError(t, resp)
		assert.Equal(t, "An unhandled error has been caught.", resource.Message)
		assert.NotContains(t, resource.Message, "connection refused")
	})
}

func TestDispatchPanicHandling(t *testing.T) {
	panicking := api.NewOperation("", func(r *api.Request) (any, errx.Error) {
		panic("boom")
	}, api.GET)

	t.Run("folded into an opaque 500", func(t *testing.T) {
		resp := New().Dispatch(panicking, api.NewTestRequest(api.GET, "/api/book", ""))
		assert.Equal(t, 500, resp.Status)
		resource := decodeError(t, resp)
		assert.NotContains(t, resource.Message, "boom")
	})

	t.Run("propagates in debug mode", func(t *testing.T) {
		iface := New().WithDebug(true)
		assert.Panics(t, func() {
			iface.Dispatch(panicking, api.NewTestRequest(api.GET, "/api/book", ""))
		})
	})
}

func TestDispatchImmediate(t *testing.T) {
	seen := 0
	hook := postRequestCounter{&seen}
	iface := New().WithMiddleware(redirectHook{}, hook)
	op := api.NewOperation("", okHandler("never reached"), api.GET)

	resp := iface.Dispatch(op, api.NewTestRequest(api.GET, "/api/old", ""))
	assert.Equal(t, 302, resp.Status)
	assert.Equal(t, "/api/new", resp.Headers.Get("Location"))
	// post-request hooks still observe a short-circuited response
	assert.Equal(t, 1, seen)
}

type redirectHook struct{}

func (redirectHook) PreRequest(r *api.Request) errx.Error {
	return api.Immediate(api.NewHttpResponse(nil, 302).SetHeader("Location", "/api/new"))
}

type postRequestCounter struct {
	count *int
}

func (h postRequestCounter) PostRequest(r *api.Request, resp *api.HttpResponse) *api.HttpResponse {
	*h.count++
	return resp
}

type phaseHook struct {
	name     string
	priority int
	log      *[]string
}

func (h phaseHook) Priority() int {
	return h.priority
}

func (h phaseHook) PreRequest(r *api.Request) errx.Error {
	*h.log = append(*h.log, h.name+":preReq")
	return nil
}

func (h phaseHook) PreDispatch(r *api.Request) errx.Error {
	*h.log = append(*h.log, h.name+":preDis")
	return nil
}

func (h phaseHook) PostDispatch(r *api.Request, result any) (any, errx.Error) {
	*h.log = append(*h.log, h.name+":postDis")
	return result, nil
}

func (h phaseHook) PostRequest(r *api.Request, resp *api.HttpResponse) *api.HttpResponse {
	*h.log = append(*h.log, h.name+":postReq")
	return resp
}

func TestDispatchMiddlewarePhases(t *testing.T) {
	var log []string
	iface := New().WithMiddleware(
		phaseHook{"outer", 5, &log},
		phaseHook{"inner", api.PriorityDefault, &log},
	)
	op := api.NewOperation("", okHandler("done"), api.GET)

	resp := iface.Dispatch(op, api.NewTestRequest(api.GET, "/api/book", ""))
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, []string{
		"outer:preReq", "inner:preReq",
		"outer:preDis", "inner:preDis",
		"inner:postDis", "outer:postDis",
		"inner:postReq", "outer:postReq",
	}, log)
}

type custom500 struct{}

func (custom500) Handle500(r *api.Request, err error) any {
	return map[string]string{"error": "custom"}
}

func TestDispatchHandle500Hook(t *testing.T) {
	iface := New().WithMiddleware(custom500{})
	op := api.NewOperation("", errHandler(errx.New("boom")), api.GET)

	resp := iface.Dispatch(op, api.NewTestRequest(api.GET, "/api/book", ""))
	assert.Equal(t, 500, resp.Status)
	assert.JSONEq(t, `{"error":"custom"}`, string(resp.Body.([]byte)))
}
