package signing

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/tencent-go/apix/env"
	"github.com/tencent-go/apix/errx"
	"github.com/tencent-go/apix/shutdown"
)

type EtcdConfig struct {
	Endpoints []string `env:"ETCD_ENDPOINTS"`
}

var EtcdConfigReaderBuilder = env.NewReaderBuilder[EtcdConfig]()

var etcdConfigReader = EtcdConfigReaderBuilder.Build()

// DefaultEtcdClient builds the shared client from the environment on
// first use and registers its close with the shutdown drain.
func DefaultEtcdClient() *clientv3.Client {
	return getEtcdClient()
}

var getEtcdClient = sync.OnceValue(func() *clientv3.Client {
	cfg := etcdConfigReader.Read()
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		logrus.WithError(err).
			WithField("endpoints", strings.Join(cfg.Endpoints, ",")).
			Panic("connect etcd failed")
	}
	shutdown.OnShutdown(func(ctx context.Context) error {
		defer logrus.Infoln("etcd connection closed")
		return cli.Close()
	}, true)
	logrus.Infoln("etcd connected")
	return cli
})

const defaultEtcdKeyPrefix = "/signing/keys/"

// EtcdKeyStore reads secrets from etcd under a key prefix, keeping a
// local cache that a prefix watch refreshes, so the per-request lookup
// is a map read once the key has been seen.
type EtcdKeyStore struct {
	client *clientv3.Client
	prefix string

	mu        sync.RWMutex
	cache     map[string][]byte
	listeners map[string]func(id string)
	onceWatch sync.Once
}

// NewEtcdKeyStore builds a store over client; pass nil to use the
// environment-configured default client.
func NewEtcdKeyStore(client *clientv3.Client) *EtcdKeyStore {
	if client == nil {
		client = DefaultEtcdClient()
	}
	return &EtcdKeyStore{
		client:    client,
		prefix:    defaultEtcdKeyPrefix,
		cache:     make(map[string][]byte),
		listeners: make(map[string]func(string)),
	}
}

// WithPrefix replaces the key prefix; set it before the first Get.
func (s *EtcdKeyStore) WithPrefix(prefix string) *EtcdKeyStore {
	s.prefix = prefix
	return s
}

func (s *EtcdKeyStore) Get(ctx context.Context, id string) ([]byte, errx.Error) {
	s.startWatch()

	s.mu.RLock()
	secret, cached := s.cache[id]
	s.mu.RUnlock()
	if cached {
		return secret, nil
	}

	resp, err := s.client.Get(ctx, s.prefix+id)
	if err != nil {
		return nil, errx.Wrap(err).AppendMsg("signing key lookup").Err()
	}
	if len(resp.Kvs) == 0 {
		return nil, nil
	}
	secret = resp.Kvs[0].Value

	s.mu.Lock()
	s.cache[id] = secret
	s.mu.Unlock()
	return secret, nil
}

// OnChange registers a listener called with the key id whenever the
// watch observes a change. The returned func removes the listener.
func (s *EtcdKeyStore) OnChange(f func(id string)) func() {
	s.startWatch()
	k := uuid.New().String()
	s.mu.Lock()
	s.listeners[k] = f
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, k)
		s.mu.Unlock()
	}
}

func (s *EtcdKeyStore) startWatch() {
	s.onceWatch.Do(func() {
		go func() {
			watchChan := s.client.Watch(context.Background(), s.prefix, clientv3.WithPrefix())
			log := logrus.WithField("prefix", s.prefix)
			for watchResp := range watchChan {
				for _, ev := range watchResp.Events {
					if ev.Kv == nil {
						log.Error("kv empty")
						continue
					}
					id := strings.TrimPrefix(string(ev.Kv.Key), s.prefix)
					s.mu.Lock()
					switch ev.Type {
					case mvccpb.PUT:
						s.cache[id] = ev.Kv.Value
					case mvccpb.DELETE:
						delete(s.cache, id)
					}
					listeners := make([]func(string), 0, len(s.listeners))
					for _, f := range s.listeners {
						listeners = append(listeners, f)
					}
					s.mu.Unlock()
					log.WithField("id", id).Info("signing key updated")
					for _, f := range listeners {
						f(id)
					}
				}
			}
		}()
	})
}
