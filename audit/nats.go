package audit

import (
	"context"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/tencent-go/apix/codec"
	"github.com/tencent-go/apix/env"
	"github.com/tencent-go/apix/errx"
	"github.com/tencent-go/apix/shutdown"
)

type NatsConfig struct {
	Addresses string `env:"NATS_ADDRESSES" example:"nats://localhost:4222,nats://localhost:4223"`
}

var NatsConfigReaderBuilder = env.NewReaderBuilder[NatsConfig]()

var natsConfigReader = NatsConfigReaderBuilder.Build()

// DefaultNatsConn builds the shared connection from the environment on
// first use and registers its close with the shutdown drain.
func DefaultNatsConn() *nats.Conn {
	return getNatsConn()
}

var getNatsConn = sync.OnceValue(func() *nats.Conn {
	conn, err := ConnectNats(natsConfigReader.Read().Addresses)
	if err != nil {
		logrus.WithError(err).Panic("connect nats failed")
		return nil
	}
	shutdown.OnShutdown(func(ctx context.Context) error {
		conn.Close()
		logrus.Info("nats connection closed")
		return nil
	}, true)
	logrus.Info("nats connected")
	return conn
})

// ConnectNats dials with the timeouts suited to a long-lived audit
// stream; extra options override the defaults.
func ConnectNats(addresses string, options ...nats.Option) (*nats.Conn, errx.Error) {
	options = append([]nats.Option{
		func(options *nats.Options) error {
			options.Timeout = 30 * time.Second
			options.PingInterval = 3 * time.Second
			options.ReconnectWait = 30 * time.Second
			options.MaxPingsOut = 3
			options.AllowReconnect = true
			return nil
		},
	}, options...)
	c, err := nats.Connect(addresses, options...)
	if err != nil {
		return nil, errx.Wrap(err).Err()
	}
	return c, nil
}

const defaultNatsSubject = "audit.request"

// NatsPublisher delivers events as JSON messages on a fixed subject.
type NatsPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNatsPublisher builds a publisher over conn; pass nil to use the
// environment-configured default connection.
func NewNatsPublisher(conn *nats.Conn) *NatsPublisher {
	if conn == nil {
		conn = DefaultNatsConn()
	}
	return &NatsPublisher{conn: conn, subject: defaultNatsSubject}
}

func (p *NatsPublisher) WithSubject(subject string) *NatsPublisher {
	p.subject = subject
	return p
}

func (p *NatsPublisher) Publish(_ context.Context, event *Event) errx.Error {
	data, err := codec.Json().Marshal(event)
	if err != nil {
		return err
	}
	msg := &nats.Msg{
		Subject: p.subject,
		Data:    data,
		Header: nats.Header{
			"content-type": []string{codec.ContentTypeJson},
		},
	}
	// The event ID doubles as the message ID for stream deduplication.
	msg.Header.Set("Nats-Msg-Id", event.ID.String())
	if err := p.conn.PublishMsg(msg); err != nil {
		return errx.Wrap(err).AppendMsgf("subject %s publish event failed", p.subject).Err()
	}
	return nil
}
