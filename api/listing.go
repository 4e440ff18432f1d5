package api

import (
	"strconv"

	"github.com/tencent-go/apix/errx"
	"github.com/tencent-go/apix/pathx"
)

// Page is the pagination window extracted from the query string,
// already clamped to the operation's configured bounds.
type Page struct {
	Offset int64
	Limit  int64
	Bare   bool
}

// Listing is the envelope wrapped around paginated results.
// TotalCount is omitted when the handler reported it unknown.
type Listing[T any] struct {
	Results    []T    `json:"results"`
	Limit      int64  `json:"limit"`
	Offset     int64  `json:"offset"`
	TotalCount *int64 `json:"total_count,omitempty"`
}

// ListingResource documents the listing envelope.
var ListingResource = NamedResourceOf[Listing[any]]("Listing")

// Headers used instead of the envelope when header paging is enabled.
const (
	HeaderPageLimit  = "X-Page-Limit"
	HeaderPageOffset = "X-Page-Offset"
	HeaderTotalCount = "X-Total-Count"
)

const (
	defaultListOffset = 0
	defaultListLimit  = 50
)

type listConfig struct {
	defaultOffset int64
	defaultLimit  int64
	maxOffset     int64
	maxLimit      int64
	headerPaging  bool
}

type ListOption func(*listConfig)

func WithDefaultOffset(n int64) ListOption {
	return func(c *listConfig) { c.defaultOffset = n }
}

func WithDefaultLimit(n int64) ListOption {
	return func(c *listConfig) { c.defaultLimit = n }
}

func WithMaxOffset(n int64) ListOption {
	return func(c *listConfig) { c.maxOffset = n }
}

func WithMaxLimit(n int64) ListOption {
	return func(c *listConfig) { c.maxLimit = n }
}

// WithHeaderPaging reports limit, offset and total through X-Page-*
// headers and leaves the body a bare list.
func WithHeaderPaging() ListOption {
	return func(c *listConfig) { c.headerPaging = true }
}

func (c listConfig) page(r *Request) (Page, errx.Error) {
	offset, err := queryInt(r, "offset", c.defaultOffset)
	if err != nil {
		return Page{}, err
	}
	limit, err := queryInt(r, "limit", c.defaultLimit)
	if err != nil {
		return Page{}, err
	}
	if offset < 0 {
		offset = 0
	}
	if c.maxOffset > 0 && offset > c.maxOffset {
		offset = c.maxOffset
	}
	if limit < 1 {
		limit = 1
	}
	if c.maxLimit > 0 && limit > c.maxLimit {
		limit = c.maxLimit
	}
	return Page{
		Offset: offset,
		Limit:  limit,
		Bare:   pathx.ToBool(r.QueryParam("bare", "")),
	}, nil
}

func queryInt(r *Request, name string, def int64) (int64, errx.Error) {
	raw := r.QueryParam(name, "")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errx.BadRequest.
			WithMsgf("Invalid %s value", name).
			WithDevMsg(err.Error()).Err()
	}
	return n, nil
}

// ListHandler returns one page of results plus the total count across
// all pages; return a negative total when it is unknown.
type ListHandler[T any] func(r *Request, page Page) ([]T, int64, errx.Error)

// NewListOperation wraps a page handler into a GET operation on the
// group root. The result is wrapped in a Listing envelope unless the
// client asked for a bare list or header paging is configured; a nil
// result with unknown total passes through as no content.
func NewListOperation[T any](fn ListHandler[T], opts ...ListOption) *Operation {
	cfg := listConfig{defaultOffset: defaultListOffset, defaultLimit: defaultListLimit}
	for _, opt := range opts {
		opt(&cfg)
	}
	wrapper := func(r *Request) (any, errx.Error) {
		page, err := cfg.page(r)
		if err != nil {
			return nil, err
		}
		items, total, err := fn(r, page)
		if err != nil {
			return nil, err
		}
		return listResult(cfg, page, items, total), nil
	}
	op := newOperation(pathx.NoPath, wrapper, []Method{GET})
	op.operationID = callbackName(fn)
	return op.
		WithResource(ListingResource).
		WithResponses(NewResponse(200, "Listing of resources").WithResource(ListingResource)).
		WithParams(
			QueryParam("offset", pathx.Integer).
				WithDescription("Offset to start listing from.").
				WithDefault(cfg.defaultOffset),
			QueryParam("limit", pathx.Integer).
				WithDescription("Limit on the number of listings returned.").
				WithDefault(cfg.defaultLimit),
			QueryParam("bare", pathx.Boolean).
				WithDescription("Return a plain list of objects."),
		)
}

func listResult[T any](cfg listConfig, page Page, items []T, total int64) any {
	if items == nil && total < 0 {
		return nil
	}
	if items == nil {
		items = []T{}
	}
	if cfg.headerPaging {
		resp := NewHttpResponse(items, 200).
			SetHeader(HeaderPageLimit, strconv.FormatInt(page.Limit, 10)).
			SetHeader(HeaderPageOffset, strconv.FormatInt(page.Offset, 10))
		if total >= 0 {
			resp.SetHeader(HeaderTotalCount, strconv.FormatInt(total, 10))
		}
		return resp
	}
	if page.Bare {
		return items
	}
	listing := Listing[T]{Results: items, Limit: page.Limit, Offset: page.Offset}
	if total >= 0 {
		listing.TotalCount = &total
	}
	return listing
}
