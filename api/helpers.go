package api

import (
	"reflect"

	"github.com/tencent-go/apix/codec"
	"github.com/tencent-go/apix/errx"
	"github.com/tencent-go/apix/validation"
)

// Body decode failures share status 400 but carry distinct codes so
// clients can tell transport, syntax and shape problems apart.
var (
	errBodyRead      = errx.CB(400, 40099, "Unable to decode request body.")
	errBodyMalformed = errx.CB(400, 40096, "Unable to decode body.")
	errBodyShape     = errx.CB(400, 40098, "Unable to load resource.")
	errBodySingle    = errx.CB(400, 40097, "Expected a single resource not a list.")
)

// DecodeBody decodes the request body into a T using the negotiated
// request codec, then validates it. With fullClean the struct's
// validation tags are checked as well; otherwise only a Validate hook
// runs, which suits partial updates.
func DecodeBody[T any](r *Request, fullClean bool) (*T, errx.Error) {
	resource := new(T)
	if err := decodeInto(r, resource, false); err != nil {
		return nil, err
	}
	if err := validateResource(resource, fullClean); err != nil {
		return nil, err
	}
	return resource, nil
}

// DecodeBodyList decodes a list body; a single object is accepted and
// wrapped. Every element is validated.
func DecodeBodyList[T any](r *Request, fullClean bool) ([]T, errx.Error) {
	var resources []T
	err := decodeInto(r, &resources, true)
	if err != nil {
		single := new(T)
		if serr := decodeInto(r, single, false); serr != nil {
			return nil, err
		}
		resources = []T{*single}
	}
	for i := range resources {
		if err := validateResource(&resources[i], fullClean); err != nil {
			return nil, err
		}
	}
	return resources, nil
}

func decodeInto(r *Request, target any, wantList bool) errx.Error {
	data, err := r.BodyBytes()
	if err != nil {
		return errBodyRead.WithDevMsg(err.Error()).Err()
	}
	bodyCodec := r.RequestCodec
	if bodyCodec == nil {
		bodyCodec = codec.Json()
	}
	uerr := bodyCodec.Unmarshal(data, target)
	if uerr == nil {
		return nil
	}
	// Separate a syntactically broken payload from a well formed one of
	// the wrong shape.
	var probe any
	if perr := bodyCodec.Unmarshal(data, &probe); perr != nil {
		return errBodyMalformed.WithDevMsg(perr.Error()).Err()
	}
	if _, isList := probe.([]any); isList && !wantList {
		return errBodySingle.Err()
	}
	return errBodyShape.WithDevMsg(uerr.Error()).Err()
}

func validateResource(resource any, fullClean bool) errx.Error {
	if fullClean {
		if err := validation.ValidateStruct(resource); err != nil {
			return err
		}
	}
	if v, ok := resource.(validation.Validatable); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// CreateResponse normalises a handler result: a nil body (including a
// typed nil pointer or nil slice) becomes an empty 204, anything else
// is wrapped with the given status. An empty but non-nil slice is a
// deliberate 200 with an empty array body.
func CreateResponse(body any, status int) *HttpResponse {
	if isNilValue(body) {
		if status == 0 {
			status = 204
		}
		return NewHttpResponse(nil, status)
	}
	if status == 0 {
		status = 200
	}
	return NewHttpResponse(body, status)
}

func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
