package signing

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/tencent-go/apix/env"
	"github.com/tencent-go/apix/errx"
	"github.com/tencent-go/apix/shutdown"
)

type RedisConfig struct {
	Address  string `env:"REDIS_ADDRESS" example:"127.0.0.1:6379"`
	Password string `env:"REDIS_PASSWORD,omitempty" example:"123456"`
}

var RedisConfigReaderBuilder = env.NewReaderBuilder[RedisConfig]()

var redisConfigReader = RedisConfigReaderBuilder.Build()

// DefaultRedisClient builds the shared client from the environment on
// first use, pings it and registers its close with the shutdown drain.
func DefaultRedisClient() *redis.ClusterClient {
	return getRedisClient()
}

var getRedisClient = sync.OnceValue(func() *redis.ClusterClient {
	cfg := redisConfigReader.Read()
	cli := redis.NewClusterClient(&redis.ClusterOptions{
		Addrs:    []string{cfg.Address},
		Password: cfg.Password,
	})
	if _, err := cli.Ping(context.Background()).Result(); err != nil {
		logrus.WithError(err).Fatal("redis connection failed")
	}
	shutdown.OnShutdown(func(ctx context.Context) error {
		return cli.Close()
	}, true)
	logrus.Info("redis connected")
	return cli
})

const defaultRedisKeyPrefix = "signing:key:"

// RedisKeyStore reads secrets from redis under a key prefix.
type RedisKeyStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisKeyStore builds a store over client; pass nil to use the
// environment-configured default client.
func NewRedisKeyStore(client redis.Cmdable) *RedisKeyStore {
	if client == nil {
		client = DefaultRedisClient()
	}
	return &RedisKeyStore{client: client, prefix: defaultRedisKeyPrefix}
}

func (s *RedisKeyStore) WithPrefix(prefix string) *RedisKeyStore {
	s.prefix = prefix
	return s
}

func (s *RedisKeyStore) Get(ctx context.Context, id string) ([]byte, errx.Error) {
	secret, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, errx.Wrap(err).AppendMsg("signing key lookup").Err()
	}
	return secret, nil
}

// Put stores a secret; expire with the caller's own policy via the
// client when rotation is needed.
func (s *RedisKeyStore) Put(ctx context.Context, id string, secret []byte) errx.Error {
	if err := s.client.Set(ctx, s.prefix+id, secret, 0).Err(); err != nil {
		return errx.Wrap(err).AppendMsg("signing key store").Err()
	}
	return nil
}
