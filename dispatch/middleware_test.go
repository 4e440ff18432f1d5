package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tencent-go/apix/api"
	"github.com/tencent-go/apix/audit"
	"github.com/tencent-go/apix/errx"
)

func TestRequestLoggerTracksDuration(t *testing.T) {
	logger := NewRequestLogger()
	r := api.NewTestRequest(api.GET, "/api/v1/book", "")

	require.Nil(t, logger.PreRequest(r))
	assert.False(t, requestStart(r).IsZero())

	resp := logger.PostRequest(r, api.NewHttpResponse("ok", 200))
	assert.Equal(t, 200, resp.Status)
}

func TestRequestLoggerWrapsOtherMiddleware(t *testing.T) {
	logger := NewRequestLogger()
	assert.Less(t, logger.Priority(), api.PrioritySecurity)
}

type chanPublisher struct {
	ch chan *audit.Event
}

func (p chanPublisher) Publish(_ context.Context, event *audit.Event) errx.Error {
	p.ch <- event
	return nil
}

func TestAuditTapPublishesEvent(t *testing.T) {
	ch := make(chan *audit.Event, 1)
	tap := NewAuditTap(chanPublisher{ch})

	r := api.NewTestRequest(api.GET, "/api/v1/book?limit=5", "")
	r.Header.Set("Origin", "https://example.org")
	require.Nil(t, tap.PreRequest(r))

	resp := tap.PostRequest(r, api.NewHttpResponse("ok", 200))
	assert.Equal(t, 200, resp.Status)

	select {
	case event := <-ch:
		assert.Equal(t, "GET", event.Method)
		assert.Equal(t, "/api/v1/book", event.Path)
		assert.Equal(t, 200, event.Status)
		assert.Equal(t, "https://example.org", event.Origin)
		assert.Equal(t, r.TraceID, event.TraceID)
		assert.NotZero(t, event.ID)
		assert.False(t, event.At.IsZero())
	case <-time.After(time.Second):
		t.Fatal("audit event was not published")
	}
}
