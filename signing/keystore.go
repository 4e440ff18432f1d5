package signing

import (
	"context"

	"github.com/tencent-go/apix/errx"
	"github.com/tencent-go/apix/util"
)

// KeyStore resolves a key identifier to its secret. A missing key is
// (nil, nil), never an error, so lookups cannot leak existence through
// differing failure modes.
type KeyStore interface {
	Get(ctx context.Context, id string) ([]byte, errx.Error)
}

// LocalKeyStore is an in-memory store for tests and single-process
// deployments. Safe for concurrent use.
type LocalKeyStore struct {
	keys util.LazyMap[string, []byte]
}

func NewLocalKeyStore() *LocalKeyStore {
	return &LocalKeyStore{}
}

func (s *LocalKeyStore) Put(id string, secret []byte) *LocalKeyStore {
	s.keys.Store(id, secret)
	return s
}

func (s *LocalKeyStore) Delete(id string) {
	s.keys.Delete(id)
}

func (s *LocalKeyStore) Get(_ context.Context, id string) ([]byte, errx.Error) {
	secret, _ := s.keys.Load(id)
	return secret, nil
}
