package audit

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/tencent-go/apix/env"
	"github.com/tencent-go/apix/errx"
	"github.com/tencent-go/apix/shutdown"
)

type MongoConfig struct {
	URI    string `env:"MONGODB_URI" example:"mongodb://localhost:27017"`
	DBName string `env:"MONGODB_DB_NAME" default:"audit"`
}

var MongoConfigReaderBuilder = env.NewReaderBuilder[MongoConfig]()

var mongoConfigReader = MongoConfigReaderBuilder.Build()

// DefaultMongoCollection builds the shared client from the environment
// on first use, pings it and registers its disconnect with the shutdown
// drain.
func DefaultMongoCollection() *mongo.Collection {
	return getMongoCollection()
}

const defaultMongoCollection = "request_events"

var getMongoCollection = sync.OnceValue(func() *mongo.Collection {
	cfg := mongoConfigReader.Read()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		logrus.Fatalf("create mongodb connection failed: %v", err)
	}
	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		logrus.Fatalf("mongodb ping failed: %v", err)
	}
	shutdown.OnShutdown(func(ctx context.Context) error {
		defer logrus.Infoln("mongodb connection closed")
		return client.Disconnect(ctx)
	}, true)
	return client.Database(cfg.DBName).Collection(defaultMongoCollection)
})

// MongoRecorder stores events as documents, one per request.
type MongoRecorder struct {
	col *mongo.Collection
}

// NewMongoRecorder builds a recorder over col; pass nil to use the
// environment-configured default collection.
func NewMongoRecorder(col *mongo.Collection) *MongoRecorder {
	if col == nil {
		col = DefaultMongoCollection()
	}
	return &MongoRecorder{col: col}
}

func (r *MongoRecorder) Publish(ctx context.Context, event *Event) errx.Error {
	if _, err := r.col.InsertOne(ctx, event); err != nil {
		return errx.Wrap(err).AppendMsg("insert audit event").Err()
	}
	return nil
}
