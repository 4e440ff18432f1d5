package cors

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tencent-go/apix/api"
	"github.com/tencent-go/apix/dispatch"
	"github.com/tencent-go/apix/errx"
)

func pingHandler(r *api.Request) (any, errx.Error) {
	return "pong", nil
}

func corsServer(origins Origins, opts ...Option) *dispatch.Server {
	iface := dispatch.New(api.NewVersion(1,
		api.NewContainer().Handle("items", pingHandler, api.GET, api.HEAD),
	))
	return dispatch.NewServer(Apply(iface, origins, opts...))
}

func do(s *dispatch.Server, method, target, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func TestPreflightAnyOrigin(t *testing.T) {
	s := corsServer(AnyOrigin, WithMaxAge(3600), WithAllowHeaders("Content-Type"))

	w := do(s, "OPTIONS", "/api/v1/items", "https://example.org")
	require.Equal(t, 204, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, HEAD", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "GET, HEAD, OPTIONS", w.Header().Get("Allow"))
	assert.Equal(t, "no-cache, no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "3600", w.Header().Get("Access-Control-Max-Age"))
}

func TestPreflightWhitelist(t *testing.T) {
	s := corsServer(Whitelist("https://trusted.example"))

	t.Run("known origin echoed", func(t *testing.T) {
		w := do(s, "OPTIONS", "/api/v1/items", "https://trusted.example")
		require.Equal(t, 204, w.Code)
		assert.Equal(t, "https://trusted.example", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unknown origin gets no access-control headers", func(t *testing.T) {
		w := do(s, "OPTIONS", "/api/v1/items", "https://evil.example")
		require.Equal(t, 204, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Methods"))
		// plain OPTIONS metadata is still served
		assert.Equal(t, "GET, HEAD, OPTIONS", w.Header().Get("Allow"))
	})
}

func TestSimpleRequestHeaders(t *testing.T) {
	s := corsServer(AnyOrigin, WithExposeHeaders("X-Total-Count"))

	w := do(s, "GET", "/api/v1/items", "https://example.org")
	require.Equal(t, 200, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "X-Total-Count", w.Header().Get("Access-Control-Expose-Headers"))
	// preflight-only headers stay off ordinary responses
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Methods"))
}

func TestAllowCredentials(t *testing.T) {
	s := corsServer(Whitelist("https://trusted.example"), WithAllowCredentials(true))

	w := do(s, "GET", "/api/v1/items", "https://trusted.example")
	require.Equal(t, 200, w.Code)
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestExistingOptionsOperationKept(t *testing.T) {
	custom := func(r *api.Request) (any, errx.Error) {
		return api.NewHttpResponse(nil, 200).SetHeader("X-Custom", "yes"), nil
	}
	iface := dispatch.New(api.NewVersion(1,
		api.NewContainer().
			Handle("items", pingHandler, api.GET).
			Handle("items", custom, api.OPTIONS),
	))
	s := dispatch.NewServer(Apply(iface, AnyOrigin))

	w := do(s, "OPTIONS", "/api/v1/items", "https://example.org")
	require.Equal(t, 200, w.Code)
	assert.Equal(t, "yes", w.Header().Get("X-Custom"))
}

func TestSyntheticOperationsAreTagged(t *testing.T) {
	iface := dispatch.New(api.NewVersion(1,
		api.NewContainer().Handle("items", pingHandler, api.GET),
	))
	Apply(iface, AnyOrigin)

	found := false
	for _, route := range iface.Routes() {
		if route.Operation.HasMethod(api.OPTIONS) {
			found = true
			assert.Contains(t, route.Operation.Tags(), "cors")
			assert.Equal(t, "v1.items.cors_options", route.Operation.OperationID())
		}
	}
	assert.True(t, found)
}
