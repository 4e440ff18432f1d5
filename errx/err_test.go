package errx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilderChain(t *testing.T) {
	err := Define().
		WithStatus(http.StatusBadRequest).
		WithCode(40097).
		WithMsg("Expected a single resource not a list.").
		WithDevMsg("payload was a JSON array").
		WithMeta(map[string]string{"field": "body"}).
		Err()

	assert.Equal(t, http.StatusBadRequest, err.Status())
	assert.Equal(t, 40097, err.Code())
	assert.Equal(t, "Expected a single resource not a list.", err.Error())
	assert.Equal(t, "payload was a JSON array", err.DevMsg())
	assert.NotNil(t, err.Meta())
	assert.NotEmpty(t, err.Stack())
}

func TestCodeDefaultsToStatusTimesHundred(t *testing.T) {
	assert.Equal(t, 40000, BadRequest.Err().Code())
	assert.Equal(t, 40300, PermissionDenied.Err().Code())
	assert.Equal(t, 50100, NotImplemented.Err().Code())
	assert.Equal(t, 50000, Internal.Err().Code())
	assert.Equal(t, 40096, C(400, 40096, "Unable to decode body.").Code())
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, 404, StatusOf(NotFound.Err()))
	assert.Equal(t, 500, StatusOf(New("plain")))
}

func TestWrap(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil).Err())
	})
	t.Run("stdlib error", func(t *testing.T) {
		cause := errors.New("boom")
		err := Wrap(cause).Err()
		assert.Equal(t, "boom", err.Error())
		assert.Equal(t, 0, err.Status())
		assert.True(t, errors.Is(err, cause))
	})
	t.Run("already coded", func(t *testing.T) {
		orig := NotFound.WithMsg("no such user").Err()
		err := Wrap(orig).AppendMsg("lookup").Err()
		assert.Equal(t, http.StatusNotFound, err.Status())
		assert.Equal(t, 40400, err.Code())
		assert.Equal(t, "lookup: no such user", err.Error())
	})
}

func TestPayload(t *testing.T) {
	p := Payload(Validation.WithMeta(map[string][]string{"name": {"required"}}).Err())
	assert.Equal(t, 400, p.Status)
	assert.Equal(t, 40000, p.Code)
	assert.Equal(t, "Failed validation", p.Message)
	assert.NotNil(t, p.Meta)

	p = Payload(New("oops"))
	assert.Equal(t, 500, p.Status)
	assert.Equal(t, 0, p.Code)
}

func TestFormat(t *testing.T) {
	err := NotFound.WithMsg("gone").Err()
	assert.Equal(t, "gone", fmt.Sprintf("%s", err))
	assert.Equal(t, `"gone"`, fmt.Sprintf("%q", err))
	assert.Contains(t, fmt.Sprintf("%+v", err), "testing.tRunner")
}
