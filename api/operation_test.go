package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tencent-go/apix/errx"
)

type Book struct {
	ID     int64  `json:"id" apix:"key"`
	Title  string `json:"title" validate:"required,min=1,max=64"`
	Author string `json:"author"`
}

func okHandler(result any) HandlerFunc {
	return func(r *Request) (any, errx.Error) {
		return result, nil
	}
}

func TestRegisterDeclarationOrder(t *testing.T) {
	ra := NewResourceApi[Book]().Register(
		NewOperation("", okHandler("list"), GET),
		NewDetailOperation(okHandler("detail")),
		NewOperation("", okHandler("create"), POST),
	)
	ops := ra.Operations()
	require.Len(t, ops, 3)
	assert.Equal(t, []Method{GET}, ops[0].Methods())
	assert.Equal(t, "{id:Long}", ops[1].Path().String())
	assert.Equal(t, []Method{POST}, ops[2].Methods())
}

func TestRegisterOverrideKeepsPosition(t *testing.T) {
	ra := NewResourceApi[Book]().Register(
		NewOperation("", okHandler("first"), GET),
		NewOperation("archive", okHandler("archive"), POST),
	)
	ra.Register(NewOperation("", okHandler("second"), GET))

	ops := ra.Operations()
	require.Len(t, ops, 2)

	result, err := ops[0].Invoke(NewTestRequest(GET, "/book", ""))
	require.Nil(t, err)
	assert.Equal(t, "second", result)
	assert.Equal(t, []Method{POST}, ops[1].Methods())
}

func TestRegisterBoundTwicePanics(t *testing.T) {
	op := NewOperation("", okHandler(nil), GET)
	NewResourceApi[Book]().Register(op)
	assert.Panics(t, func() {
		NewResourceApi[Book]().Register(op)
	})
}

func TestExtendCopiesOperations(t *testing.T) {
	base := NewResourceApi[Book]().Register(
		NewOperation("", okHandler("list"), GET),
		NewDetailOperation(okHandler("detail")),
	)
	extended := NewResourceApi[Book]().
		Extend(base).
		Register(NewOperation("featured", okHandler("featured"), GET))

	assert.Len(t, base.Operations(), 2)
	require.Len(t, extended.Operations(), 3)
	assert.Equal(t, "featured", extended.Operations()[2].Path().String())
}

func TestOperationEqual(t *testing.T) {
	a := NewOperation("archive", okHandler(nil), POST)
	b := NewOperation("archive", okHandler(nil), POST)
	c := NewOperation("archive", okHandler(nil), GET)
	d := NewOperation("restore", okHandler(nil), POST)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(d))

	// method order is ignored
	e := NewOperation("archive", okHandler(nil), POST, GET)
	f := NewOperation("archive", okHandler(nil), GET, POST)
	assert.True(t, e.Equal(f))
}

func TestOperationPathResolvesKeyField(t *testing.T) {
	op := NewDetailOperation(okHandler(nil))
	assert.Equal(t, "{resource_id:Integer}", op.Path().String())

	NewResourceApi[Book]().Register(op)
	assert.Equal(t, "{id:Long}", op.Path().String())
}

func TestOperationTagsMergeBinding(t *testing.T) {
	op := NewOperation("", okHandler(nil), GET).WithTags("featured", "library")
	NewResourceApi[Book]().WithTags("library").Register(op)
	assert.Equal(t, []string{"library", "featured"}, op.Tags())
}

type orderedHook struct {
	name     string
	priority int
	log      *[]string
}

func (h orderedHook) Priority() int {
	return h.priority
}

func (h orderedHook) PreDispatch(r *Request) errx.Error {
	*h.log = append(*h.log, h.name+":pre")
	return nil
}

func (h orderedHook) PostDispatch(r *Request, result any) (any, errx.Error) {
	*h.log = append(*h.log, h.name+":post")
	return result, nil
}

func TestMiddlewareOrdering(t *testing.T) {
	var log []string
	op := NewOperation("", okHandler("done"), GET).WithMiddleware(
		orderedHook{"a", 5, &log},
		orderedHook{"b", PriorityDefault, &log},
		orderedHook{"c", PriorityDefault, &log},
	)

	result, err := op.Invoke(NewTestRequest(GET, "/", ""))
	require.Nil(t, err)
	assert.Equal(t, "done", result)
	assert.Equal(t, []string{
		"a:pre", "b:pre", "c:pre",
		"c:post", "b:post", "a:post",
	}, log)
}

type rejectingHook struct{}

func (rejectingHook) PreDispatch(r *Request) errx.Error {
	return errx.PermissionDenied.Err()
}

func TestMiddlewareRejection(t *testing.T) {
	called := false
	op := NewOperation("", func(r *Request) (any, errx.Error) {
		called = true
		return nil, nil
	}, GET).WithMiddleware(rejectingHook{})

	_, err := op.Invoke(NewTestRequest(GET, "/", ""))
	require.NotNil(t, err)
	assert.Equal(t, 403, err.Status())
	assert.False(t, called)
}

func TestGroupMiddlewareAppliesToOperations(t *testing.T) {
	var log []string
	op := NewOperation("", okHandler(nil), GET).
		WithMiddleware(orderedHook{"op", PriorityDefault, &log})
	NewResourceApi[Book]().
		WithMiddleware(orderedHook{"group", 5, &log}).
		Register(op)

	_, err := op.Invoke(NewTestRequest(GET, "/book", ""))
	require.Nil(t, err)
	assert.Equal(t, []string{"group:pre", "op:pre", "op:post", "group:post"}, log)
}
