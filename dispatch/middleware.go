package dispatch

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tencent-go/apix/api"
	"github.com/tencent-go/apix/audit"
	"github.com/tencent-go/apix/errx"
)

const startTimeKey = "dispatch.start_time"

func requestStart(r *api.Request) time.Time {
	if v, ok := r.Get(startTimeKey); ok {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}
	return time.Time{}
}

func requestDuration(r *api.Request) time.Duration {
	start := requestStart(r)
	if start.IsZero() {
		return 0
	}
	return time.Since(start)
}

// RequestLogger logs one line per served request: endpoint, status,
// duration and trace ID. At debug level the query string is included.
type RequestLogger struct {
	log *logrus.Entry
}

func NewRequestLogger() *RequestLogger {
	return &RequestLogger{log: logrus.WithField("component", "dispatch")}
}

// Low priority value so the logger wraps everything else: first in,
// last out.
func (l *RequestLogger) Priority() int {
	return api.PriorityCors + 1
}

func (l *RequestLogger) PreRequest(r *api.Request) errx.Error {
	r.Set(startTimeKey, time.Now())
	return nil
}

func (l *RequestLogger) PostRequest(r *api.Request, resp *api.HttpResponse) *api.HttpResponse {
	fields := logrus.Fields{
		"endpoint": r.Method + " " + r.URL.Path,
		"status":   resp.Status,
		"duration": requestDuration(r).String(),
		"traceID":  r.TraceID.String(),
	}
	if q := r.Query(); len(q) > 0 && logrus.GetLevel() > logrus.InfoLevel {
		fields["query"] = q
	}
	log := l.log.WithFields(fields)
	switch {
	case resp.Status >= 500:
		log.Error("handle request failed")
	case resp.Status >= 400:
		log.Warn("handle request failed")
	default:
		log.Info("handle request success")
	}
	return resp
}

// AuditTap emits one audit event per served request, after the
// response is final. Publishing runs on its own goroutine so a slow
// sink never holds up the response path.
type AuditTap struct {
	pub     audit.Publisher
	timeout time.Duration
	log     *logrus.Entry
}

func NewAuditTap(pub audit.Publisher) *AuditTap {
	return &AuditTap{
		pub:     pub,
		timeout: 5 * time.Second,
		log:     logrus.WithField("component", "audit"),
	}
}

func (t *AuditTap) PreRequest(r *api.Request) errx.Error {
	if _, ok := r.Get(startTimeKey); !ok {
		r.Set(startTimeKey, time.Now())
	}
	return nil
}

func (t *AuditTap) PostRequest(r *api.Request, resp *api.HttpResponse) *api.HttpResponse {
	event := &audit.Event{
		ID:         api.NewID(),
		TraceID:    r.TraceID,
		Method:     r.Method,
		Path:       r.URL.Path,
		Status:     resp.Status,
		DurationMs: requestDuration(r).Milliseconds(),
		Origin:     r.Origin(),
		RemoteAddr: r.RemoteAddr,
		At:         time.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()
		if err := t.pub.Publish(ctx, event); err != nil {
			t.log.WithError(err).Error("publish audit event failed")
		}
	}()
	return resp
}
