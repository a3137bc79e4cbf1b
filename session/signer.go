package session

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // Play compatible session signatures are HMAC-SHA1.
	"encoding/hex"
	"hash"
)

// Signer computes and verifies message authentication signatures over encoded session data.
type Signer interface {
	Sign(data string) string
	Verify(data, signature string) bool
}

// HMACSigner signs with a keyed hash and encodes the digest as lowercase hex.
type HMACSigner struct {
	key     []byte
	newHash func() hash.Hash
}

// HMACOption configures the [HMACSigner].
type HMACOption func(*HMACSigner)

// WithHash replaces the default SHA-1 hash, e.g. with sha256.New. Only do this when every
// reader of the cookie uses the same hash.
func WithHash(h func() hash.Hash) HMACOption {
	return func(s *HMACSigner) { s.newHash = h }
}

// NewHMACSigner inits a signer for the application secret.
func NewHMACSigner(secret []byte, opts ...HMACOption) *HMACSigner {
	s := &HMACSigner{key: secret, newHash: sha1.New}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Sign returns the hex encoded HMAC of data.
func (s *HMACSigner) Sign(data string) string {
	mac := hmac.New(s.newHash, s.key)
	mac.Write([]byte(data))

	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the signature and compares it with [SafeEquals].
func (s *HMACSigner) Verify(data, signature string) bool {
	return SafeEquals(s.Sign(data), signature)
}

var _ Signer = &HMACSigner{}
