package dispatch

import (
	"errors"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tencent-go/apix/api"
	"github.com/tencent-go/apix/errx"
)

// Dispatch negotiates codecs, runs the middleware phases around the
// operation and renders whatever comes out as an HttpResponse. It never
// returns nil.
//
// Negotiation and method failures return plain status-text responses
// without touching any hooks; everything after that point flows through
// encoding and the post-request phase.
func (i *Interface) Dispatch(op *api.Operation, r *api.Request) *api.HttpResponse {
	reqCodec, ok := i.codecs.Find(Resolve(i.requestResolvers, r))
	if !ok {
		return api.ResponseFromStatus(http.StatusUnprocessableEntity)
	}
	r.RequestCodec = reqCodec

	respCodec, ok := i.codecs.Find(Resolve(i.responseResolvers, r))
	if !ok {
		return api.ResponseFromStatus(http.StatusNotAcceptable)
	}
	r.ResponseCodec = respCodec

	if !op.HasMethod(api.Method(r.Method)) {
		return api.ResponseFromStatus(http.StatusMethodNotAllowed).
			SetHeader("Allow", joinMethods(op.Methods(), ","))
	}

	result, err := i.invoke(op, r)

	status := 0
	if err != nil {
		var interrupt *api.Interrupt
		switch {
		case errors.As(err, &interrupt):
			return i.finalize(r, interrupt.Response)
		case err.Status() > 0:
			result = errx.Payload(err)
			status = err.Status()
		default:
			result = i.handle500(r, err)
			status = http.StatusInternalServerError
		}
	}

	resp, ok := result.(*api.HttpResponse)
	if !ok {
		resp = api.CreateResponse(result, status)
	}
	return i.finalize(r, resp)
}

// invoke runs the interface-level pre phases, the operation itself and
// the post-dispatch phase. Outside debug mode a panic anywhere in that
// span is folded into a status-less error so it renders as an opaque
// 500.
func (i *Interface) invoke(op *api.Operation, r *api.Request) (result any, err errx.Error) {
	if !i.debug {
		defer func() {
			if rec := recover(); rec != nil {
				result = nil
				err = errx.Define().
					WithMsgf("panic: %v", rec).
					WithDevMsg(string(debug.Stack())).
					Err()
			}
		}()
	}
	for _, hook := range i.middleware.PreRequestHooks() {
		if herr := hook.PreRequest(r); herr != nil {
			return nil, herr
		}
	}
	for _, hook := range i.middleware.PreDispatchHooks() {
		if herr := hook.PreDispatch(r); herr != nil {
			return nil, herr
		}
	}
	result, err = op.Invoke(r)
	if err != nil {
		return nil, err
	}
	for _, hook := range i.middleware.PostDispatchHooks() {
		result, err = hook.PostDispatch(r, result)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// handle500 logs the failure, lets Handle500 middleware shape the
// client resource and otherwise falls back to an opaque payload that
// leaks nothing about the cause.
func (i *Interface) handle500(r *api.Request, cause errx.Error) any {
	i.log.WithError(cause).WithFields(logrus.Fields{
		"endpoint": r.Method + " " + r.URL.Path,
		"traceID":  r.TraceID.String(),
	}).Error("Internal Server Error")

	result := i.runHandle500Hooks(r, cause)
	if result == nil {
		result = errx.Payload(errx.Internal.Err())
	}
	return result
}

// A panicking hook must not take down error handling, so the hook loop
// recovers and falls back to the default payload.
func (i *Interface) runHandle500Hooks(r *api.Request, cause errx.Error) (result any) {
	defer func() {
		if rec := recover(); rec != nil {
			i.log.WithField("panic", rec).Error("Handle500 hook failed")
			result = nil
		}
	}()
	for _, hook := range i.middleware.Handle500Hooks() {
		if res := hook.Handle500(r, cause); res != nil {
			result = res
		}
	}
	return result
}

// finalize encodes the body and runs post-request hooks, in that order,
// so hooks observe what will actually hit the wire.
func (i *Interface) finalize(r *api.Request, resp *api.HttpResponse) *api.HttpResponse {
	if resp == nil {
		resp = api.CreateResponse(nil, 0)
	}
	resp = i.encode(r, resp)
	for _, hook := range i.middleware.PostRequestHooks() {
		resp = hook.PostRequest(r, resp)
	}
	return resp
}

// encode renders a structured body through the negotiated response
// codec. nil, string and []byte bodies pass through untouched, and an
// existing Content-Type header is never overwritten.
func (i *Interface) encode(r *api.Request, resp *api.HttpResponse) *api.HttpResponse {
	switch resp.Body.(type) {
	case nil, string, []byte:
		return resp
	}
	data, err := r.ResponseCodec.Marshal(resp.Body)
	if err != nil {
		if i.debug {
			panic(err)
		}
		i.handle500(r, err)
		return api.NewHttpResponse("Error encoding response.", http.StatusInternalServerError)
	}
	resp.Body = data
	if resp.ContentType() == "" {
		resp.SetHeader("Content-Type", r.ResponseCodec.ContentType())
	}
	return resp
}

func joinMethods(methods []api.Method, sep string) string {
	parts := make([]string, len(methods))
	for i, m := range methods {
		parts[i] = string(m)
	}
	return strings.Join(parts, sep)
}
