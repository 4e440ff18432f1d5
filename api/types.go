package api

import (
	"slices"
	"strings"
)

// Method is an HTTP method an operation serves.
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodPatch   Method = "PATCH"
	MethodDelete  Method = "DELETE"
	MethodOptions Method = "OPTIONS"
	MethodHead    Method = "HEAD"
)

// Short spellings, the usual form at registration sites.
const (
	GET     = MethodGet
	POST    = MethodPost
	PUT     = MethodPut
	PATCH   = MethodPatch
	DELETE  = MethodDelete
	OPTIONS = MethodOptions
	HEAD    = MethodHead
)

// NormalizeMethods upper-cases and dedupes preserving order, defaulting
// to GET when empty.
func NormalizeMethods(methods []Method) []Method {
	if len(methods) == 0 {
		return []Method{MethodGet}
	}
	out := make([]Method, 0, len(methods))
	for _, m := range methods {
		u := Method(strings.ToUpper(string(m)))
		if !slices.Contains(out, u) {
			out = append(out, u)
		}
	}
	return out
}

// In locates a documented parameter within the request.
type In string

const (
	InPath   In = "path"
	InQuery  In = "query"
	InHeader In = "header"
	InBody   In = "body"
	InForm   In = "formData"
)
