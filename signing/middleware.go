package signing

import (
	"github.com/tencent-go/apix/api"
	"github.com/tencent-go/apix/errx"
)

// KeyProvider resolves the secret key for a request. Return an empty
// key for an unknown caller; the middleware folds that into the same
// generic rejection as a bad signature, so callers cannot probe which
// identifiers exist.
type KeyProvider func(r *api.Request) ([]byte, errx.Error)

// FixedKey always returns the same secret. A fixed key is only suitable
// for single-tenant deployments.
func FixedKey(secret []byte) KeyProvider {
	return func(*api.Request) ([]byte, errx.Error) {
		return secret, nil
	}
}

// StoreKey resolves the secret through a KeyStore, extracting the key
// identifier from the request with keyID.
func StoreKey(store KeyStore, keyID func(r *api.Request) string) KeyProvider {
	return func(r *api.Request) ([]byte, errx.Error) {
		id := keyID(r)
		if id == "" {
			return nil, nil
		}
		return store.Get(r.Context(), id)
	}
}

// SignedAuth rejects requests whose URL does not carry a valid
// signature. It runs in the pre-dispatch phase at security priority, so
// it sits between CORS and ordinary middleware.
type SignedAuth struct {
	provider KeyProvider
	opts     []Option
}

func NewSignedAuth(provider KeyProvider, opts ...Option) *SignedAuth {
	return &SignedAuth{provider: provider, opts: opts}
}

func (s *SignedAuth) Priority() int {
	return api.PrioritySecurity
}

func (s *SignedAuth) PreDispatch(r *api.Request) errx.Error {
	secret, err := s.provider(r)
	if err != nil {
		return err
	}
	if len(secret) == 0 {
		// Deliberately indistinguishable from a bad signature.
		return verifyFailed("Signature not valid.")
	}
	return VerifyQuery(r.URL.Path, r.Query(), secret, s.opts...)
}
