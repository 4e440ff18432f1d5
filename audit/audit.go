package audit

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tencent-go/apix/api"
	"github.com/tencent-go/apix/errx"
)

// Event is one served request, captured after the response was
// written.
type Event struct {
	ID         api.ID    `json:"id" bson:"_id"`
	TraceID    api.ID    `json:"trace_id" bson:"trace_id"`
	Method     string    `json:"method" bson:"method"`
	Path       string    `json:"path" bson:"path"`
	Status     int       `json:"status" bson:"status"`
	DurationMs int64     `json:"duration_ms" bson:"duration_ms"`
	Origin     string    `json:"origin,omitempty" bson:"origin,omitempty"`
	RemoteAddr string    `json:"remote_addr,omitempty" bson:"remote_addr,omitempty"`
	At         time.Time `json:"at" bson:"at"`
}

// Publisher delivers events to a sink. Implementations must be safe
// for concurrent use; a failure is reported once and never retried
// here.
type Publisher interface {
	Publish(ctx context.Context, event *Event) errx.Error
}

// Multi fans one event out to every sink, returning the first failure
// after attempting all of them.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event *Event) errx.Error {
	var first errx.Error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// LogPublisher writes events to the structured log, the sink of last
// resort when no broker is configured.
type LogPublisher struct {
	log *logrus.Entry
}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{log: logrus.WithField("component", "audit")}
}

func (p *LogPublisher) Publish(_ context.Context, event *Event) errx.Error {
	p.log.WithFields(logrus.Fields{
		"id":         event.ID.String(),
		"traceID":    event.TraceID.String(),
		"endpoint":   event.Method + " " + event.Path,
		"status":     event.Status,
		"durationMs": event.DurationMs,
	}).Info("audit event")
	return nil
}
