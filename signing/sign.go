// Package signing implements signed URLs: an HMAC over the path and
// sorted query string, carried as a query parameter, plus middleware
// that rejects requests whose signature does not verify.
package signing

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"hash"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	"github.com/tencent-go/apix/errx"
)

const (
	// SignatureParam carries the encoded HMAC and is excluded from the
	// signed payload.
	SignatureParam = "signature"
	// ExpiresParam carries the unix expiry timestamp. It is part of the
	// signed payload, so it cannot be extended after signing.
	ExpiresParam = "expires"

	defaultSaltParam = "_"
)

// Digest builds the hash used inside the HMAC, sha256 by default.
type Digest func() hash.Hash

// SHA3Digest selects SHA3-256.
func SHA3Digest() hash.Hash {
	return sha3.New256()
}

// Blake2bDigest selects BLAKE2b-256.
func Blake2bDigest() hash.Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err)
	}
	return h
}

type config struct {
	digest    Digest
	saltParam string
	expireIn  time.Duration
	maxExpiry time.Duration
	now       func() time.Time
}

func newConfig(opts []Option) config {
	c := config{
		digest:    sha256.New,
		saltParam: defaultSaltParam,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

type Option func(*config)

func WithDigest(d Digest) Option {
	return func(c *config) { c.digest = d }
}

// WithExpiry makes signed URLs expire after d; without it signatures
// never expire.
func WithExpiry(d time.Duration) Option {
	return func(c *config) { c.expireIn = d }
}

// WithMaxExpiry makes verification require an expires parameter no
// further than d in the future, bounding how long-lived a presented
// signature can be.
func WithMaxExpiry(d time.Duration) Option {
	return func(c *config) { c.maxExpiry = d }
}

// WithSaltParam renames the salt parameter, "_" by default.
func WithSaltParam(name string) Option {
	return func(c *config) { c.saltParam = name }
}

// WithoutSalt disables the salt requirement entirely.
func WithoutSalt() Option {
	return func(c *config) { c.saltParam = "" }
}

// withClock substitutes the time source, for expiry tests.
func withClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// Token returns a random 64-bit value, base32 encoded without padding,
// used to salt signed URLs.
func Token() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(err)
	}
	return b32.EncodeToString(buf[:])
}

// signature computes the encoded HMAC over "path?k=v&k2=v2" with the
// query pairs sorted by key then value, every value of a multi-valued
// key included, and the signature parameter excluded.
func signature(path string, query url.Values, secret []byte, digest Digest) string {
	type pair struct{ k, v string }
	pairs := make([]pair, 0, len(query))
	for k, vs := range query {
		if k == SignatureParam {
			continue
		}
		for _, v := range vs {
			pairs = append(pairs, pair{k, v})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].k != pairs[j].k {
			return pairs[i].k < pairs[j].k
		}
		return pairs[i].v < pairs[j].v
	})
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.k + "=" + p.v
	}
	mac := hmac.New(digest, secret)
	mac.Write([]byte(path + "?" + strings.Join(parts, "&")))
	return b32.EncodeToString(mac.Sum(nil))
}

// SignQuery signs path with the given query in place: adds the salt
// when missing, the expiry when configured and the signature parameter.
func SignQuery(path string, query url.Values, secret []byte, opts ...Option) url.Values {
	c := newConfig(opts)
	if c.saltParam != "" && query.Get(c.saltParam) == "" {
		query.Set(c.saltParam, Token())
	}
	if c.expireIn > 0 {
		query.Set(ExpiresParam, strconv.FormatInt(c.now().Add(c.expireIn).Unix(), 10))
	}
	query.Set(SignatureParam, signature(path, query, secret, c.digest))
	return query
}

// SignURLPath signs a URL (path and query only, scheme and host are
// never part of the signed payload) and returns the signed form.
func SignURLPath(rawURL string, secret []byte, opts ...Option) (string, errx.Error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errx.Wrap(err).AppendMsg("parse url").Err()
	}
	query := SignQuery(u.Path, u.Query(), secret, opts...)
	return u.Path + "?" + query.Encode(), nil
}

// VerifyQuery checks the signature carried by query over path. The
// returned error has status 403 and one of the fixed messages; callers
// can hand it to the client as is without leaking key material.
func VerifyQuery(path string, query url.Values, secret []byte, opts ...Option) errx.Error {
	c := newConfig(opts)

	supplied := query.Get(SignatureParam)
	if supplied == "" {
		return verifyFailed("Signature missing.")
	}
	if c.saltParam != "" && query.Get(c.saltParam) == "" {
		return verifyFailed("No salt used.")
	}
	rawExpires := query.Get(ExpiresParam)
	if c.maxExpiry > 0 && rawExpires == "" {
		return verifyFailed("Expiry time is required.")
	}

	expected := signature(path, query, secret, c.digest)
	if !hmac.Equal([]byte(expected), []byte(supplied)) {
		return verifyFailed("Signature not valid.")
	}

	if rawExpires != "" {
		expires, err := strconv.ParseInt(rawExpires, 10, 64)
		if err != nil {
			return verifyFailed("Invalid expiry value.")
		}
		delta := time.Unix(expires, 0).Sub(c.now())
		if delta < 0 {
			return verifyFailed("Signature has expired.")
		}
		if c.maxExpiry > 0 && delta > c.maxExpiry {
			return verifyFailed("Expiry time out of range.")
		}
	}
	return nil
}

// VerifyURLPath parses and verifies a signed URL produced by
// SignURLPath.
func VerifyURLPath(rawURL string, secret []byte, opts ...Option) errx.Error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return errx.Wrap(err).AppendMsg("parse url").Err()
	}
	return VerifyQuery(u.Path, u.Query(), secret, opts...)
}

func verifyFailed(msg string) errx.Error {
	return errx.PermissionDenied.WithMsg(msg).Err()
}
