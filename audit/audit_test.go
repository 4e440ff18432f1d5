package audit

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tencent-go/apix/errx"
)

type capture struct {
	mu     sync.Mutex
	events []*Event
	fail   errx.Error
}

func (c *capture) Publish(_ context.Context, event *Event) errx.Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return c.fail
	}
	c.events = append(c.events, event)
	return nil
}

func TestMultiFansOut(t *testing.T) {
	a, b := &capture{}, &capture{}
	multi := Multi{a, b}

	err := multi.Publish(context.Background(), &Event{Method: "GET", Path: "/api/v1/book"})
	require.Nil(t, err)
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}

func TestMultiReportsFirstFailureAfterAttemptingAll(t *testing.T) {
	failing := &capture{fail: errx.New("sink down")}
	healthy := &capture{}
	multi := Multi{failing, healthy}

	err := multi.Publish(context.Background(), &Event{})
	require.NotNil(t, err)
	assert.Equal(t, "sink down", err.Error())
	// the healthy sink still received the event
	assert.Len(t, healthy.events, 1)
}

func TestLogPublisherNeverFails(t *testing.T) {
	err := NewLogPublisher().Publish(context.Background(), &Event{
		Method: "GET",
		Path:   "/api/v1/book",
		Status: 200,
	})
	assert.Nil(t, err)
}
