package api

import (
	"slices"
	"sort"

	"github.com/tencent-go/apix/errx"
)

// Middleware hooks are declared as small capability interfaces; a
// middleware value implements whichever phases it cares about and is
// probed by type assertion. Any hook returning a non-nil error stops
// the request and the error is rendered like a handler error.

// PreRequestHook runs before decoding, early enough to reject a request
// outright (return an error built with Immediate to control the body).
type PreRequestHook interface {
	PreRequest(r *Request) errx.Error
}

// PreDispatchHook runs after decoding and path-argument binding, just
// before the handler.
type PreDispatchHook interface {
	PreDispatch(r *Request) errx.Error
}

// PostDispatchHook runs after a successful handler and may replace the
// result before encoding.
type PostDispatchHook interface {
	PostDispatch(r *Request, result any) (any, errx.Error)
}

// PostRequestHook runs last, after encoding, with the response that was
// (or will be) written. It may replace it.
type PostRequestHook interface {
	PostRequest(r *Request, resp *HttpResponse) *HttpResponse
}

// Handle500Hook is consulted when dispatch catches an unhandled error.
// A non-nil return replaces the resource rendered to the client; hooks
// run in ascending priority and the last non-nil result wins.
type Handle500Hook interface {
	Handle500(r *Request, err error) any
}

// Prioritized orders middleware; lower values run closer to the
// outside on the way in. Middleware without it gets PriorityDefault.
type Prioritized interface {
	Priority() int
}

const (
	PriorityCors      = 1
	PrioritySecurity  = 3
	PriorityDefault   = 10
	PriorityOperation = 100
)

func priorityOf(m any) int {
	if p, ok := m.(Prioritized); ok {
		return p.Priority()
	}
	return PriorityDefault
}

// MiddlewareList resolves hook order once: pre-phase hooks run in
// ascending priority, post-phase hooks in descending priority, equal
// priorities keeping insertion order.
type MiddlewareList struct {
	items []any
}

func NewMiddlewareList(items ...any) *MiddlewareList {
	return &MiddlewareList{items: items}
}

func (l *MiddlewareList) Append(items ...any) *MiddlewareList {
	l.items = append(l.items, items...)
	return l
}

func (l *MiddlewareList) Items() []any {
	return l.items
}

// sortedHooks picks the items implementing T in ascending priority
// order, ties keeping insertion order. descending returns the exact
// reverse, so post hooks unwind the pre order.
func sortedHooks[T any](items []any, descending bool) []T {
	type entry struct {
		hook     T
		priority int
	}
	var entries []entry
	for _, item := range items {
		if hook, ok := item.(T); ok {
			entries = append(entries, entry{hook, priorityOf(item)})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].priority < entries[j].priority
	})
	if descending {
		slices.Reverse(entries)
	}
	hooks := make([]T, 0, len(entries))
	for _, e := range entries {
		hooks = append(hooks, e.hook)
	}
	return hooks
}

func (l *MiddlewareList) PreRequestHooks() []PreRequestHook {
	return sortedHooks[PreRequestHook](l.items, false)
}

func (l *MiddlewareList) PreDispatchHooks() []PreDispatchHook {
	return sortedHooks[PreDispatchHook](l.items, false)
}

func (l *MiddlewareList) PostDispatchHooks() []PostDispatchHook {
	return sortedHooks[PostDispatchHook](l.items, true)
}

func (l *MiddlewareList) PostRequestHooks() []PostRequestHook {
	return sortedHooks[PostRequestHook](l.items, true)
}

func (l *MiddlewareList) Handle500Hooks() []Handle500Hook {
	return sortedHooks[Handle500Hook](l.items, false)
}
