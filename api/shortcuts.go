package api

import (
	"github.com/tencent-go/apix/errx"
	"github.com/tencent-go/apix/pathx"
)

// keyFieldPath is the detail route placeholder; the bound resource
// supplies the parameter's real name and type.
func keyFieldPath() pathx.UrlPath {
	return pathx.FromParam(pathx.PathParam{Name: "{key_field}"})
}

// ResourceHandler receives the decoded request body alongside the
// request.
type ResourceHandler[T any] func(r *Request, resource *T) (any, errx.Error)

// NewCreateOperation wraps fn in body handling: the payload is decoded
// as a T, fully validated and its key field cleared before fn runs.
// A plain result is wrapped in a 201.
func NewCreateOperation[T any](fn ResourceHandler[T]) *Operation {
	info := ResourceOf[T]()
	wrapper := func(r *Request) (any, errx.Error) {
		resource, err := DecodeBody[T](r, true)
		if err != nil {
			return nil, err
		}
		info.ClearKeyField(resource)
		result, err := fn(r, resource)
		if err != nil {
			return nil, err
		}
		if resp, ok := result.(*HttpResponse); ok {
			return resp, nil
		}
		return CreateResponse(result, 201), nil
	}
	op := newOperation(pathx.NoPath, wrapper, []Method{POST})
	op.operationID = callbackName(fn)
	return op.
		WithParams(BodyParam()).
		WithResponses(
			NewResponse(201, "{name} has been created"),
			NewResponse(400, "Validation failed.").WithResource(ErrorResource),
		)
}

// NewDetailOperation mounts fn on the detail route, GET {key_field}.
func NewDetailOperation(fn HandlerFunc) *Operation {
	return newOperation(keyFieldPath(), fn, []Method{GET}).
		WithResponses(
			NewResponse(200, "Get a {name}"),
			NewResponse(404, "Not found").WithResource(ErrorResource),
		)
}

// NewUpdateOperation decodes and fully validates the body as a T, then
// runs fn; PUT {key_field}.
func NewUpdateOperation[T any](fn ResourceHandler[T]) *Operation {
	wrapper := func(r *Request) (any, errx.Error) {
		resource, err := DecodeBody[T](r, true)
		if err != nil {
			return nil, err
		}
		return fn(r, resource)
	}
	op := newOperation(keyFieldPath(), wrapper, []Method{PUT})
	op.operationID = callbackName(fn)
	return op.
		WithParams(BodyParam()).
		WithResponses(
			NewResponse(204, "{name} has been updated.").WithoutResource(),
			NewResponse(400, "Validation failed.").WithResource(ErrorResource),
			NewResponse(404, "Not found").WithResource(ErrorResource),
		)
}

// NewPatchOperation decodes the body as a partial T; validation tags
// are skipped so absent fields stay zero, only a Validate hook runs.
// PATCH {key_field}.
func NewPatchOperation[T any](fn ResourceHandler[T]) *Operation {
	wrapper := func(r *Request) (any, errx.Error) {
		resource, err := DecodeBody[T](r, false)
		if err != nil {
			return nil, err
		}
		return fn(r, resource)
	}
	op := newOperation(keyFieldPath(), wrapper, []Method{PATCH})
	op.operationID = callbackName(fn)
	return op.
		WithParams(BodyParam()).
		WithResponses(
			NewResponse(200, "{name} has been patched."),
			NewResponse(400, "Validation failed.").WithResource(ErrorResource),
			NewResponse(404, "Not found").WithResource(ErrorResource),
		)
}

// NewDeleteOperation mounts fn on DELETE {key_field}.
func NewDeleteOperation(fn HandlerFunc) *Operation {
	return newOperation(keyFieldPath(), fn, []Method{DELETE}).
		WithResponses(
			NewResponse(204, "{name} has been deleted.").WithoutResource(),
			NewResponse(404, "Not found").WithResource(ErrorResource),
		)
}

// NewActionOperation mounts fn on a sub path of the detail route,
// "{key_field}/<path>". Methods default to POST.
func NewActionOperation(path string, fn HandlerFunc, methods ...Method) *Operation {
	if len(methods) == 0 {
		methods = []Method{POST}
	}
	return newOperation(keyFieldPath().MustConcat(pathx.MustParse(path)), fn, methods)
}

// NewCollectionActionOperation mounts fn on a sub path beside the
// listing route. Methods default to POST.
func NewCollectionActionOperation(path string, fn HandlerFunc, methods ...Method) *Operation {
	if len(methods) == 0 {
		methods = []Method{POST}
	}
	return newOperation(pathx.MustParse(path), fn, methods)
}
