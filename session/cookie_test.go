package session_test

import (
	"crypto/sha256"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/advdv/bserve/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestWithCookie(c *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if c != nil {
		req.AddCookie(c)
	}

	return req
}

func TestHMACSigner(t *testing.T) {
	// HMAC-SHA1("key", "The quick brown fox jumps over the lazy dog")
	s := session.NewHMACSigner([]byte("key"))
	sig := s.Sign("The quick brown fox jumps over the lazy dog")
	require.Equal(t, "de7c9b85b8b78aa6bc8a7a36f70a90701c9db4d9", sig)
	require.True(t, s.Verify("The quick brown fox jumps over the lazy dog", sig))
	require.False(t, s.Verify("The quick brown fox jumps over the lazy cat", sig))

	s256 := session.NewHMACSigner([]byte("key"), session.WithHash(sha256.New))
	require.Len(t, s256.Sign("data"), 64)
}

func TestCodecSigned(t *testing.T) {
	codec := session.NewCodec(session.WithSigner(session.NewHMACSigner([]byte("secret"))))

	sess := session.New()
	sess.Set("user", "alice")
	sess.Set("role", "admin")

	ck, ok := codec.Cookie(sess)
	require.True(t, ok)
	require.Equal(t, session.DefaultCookieName, ck.Name)
	require.True(t, ck.HttpOnly)
	require.Equal(t, "/", ck.Path)

	sig, data, found := strings.Cut(ck.Value, "-")
	require.True(t, found)
	require.Equal(t, "user=alice&role=admin", data)
	require.Len(t, sig, 40)

	t.Run("should load a correctly signed cookie", func(t *testing.T) {
		loaded := codec.Load(requestWithCookie(ck))
		require.Equal(t, map[string]string{"user": "alice", "role": "admin"}, loaded.Map())
		require.False(t, loaded.Modified())
	})

	t.Run("should reset to empty on tampered data", func(t *testing.T) {
		tampered := *ck
		tampered.Value = sig + "-user=mallory&role=admin"
		require.Equal(t, 0, codec.Load(requestWithCookie(&tampered)).Len())
	})

	t.Run("should reset to empty on a missing signature", func(t *testing.T) {
		unsigned := *ck
		unsigned.Value = data
		require.Equal(t, 0, codec.Load(requestWithCookie(&unsigned)).Len())
	})

	t.Run("should reset to empty when the secret differs", func(t *testing.T) {
		other := session.NewCodec(session.WithSigner(session.NewHMACSigner([]byte("other"))))
		require.Equal(t, 0, other.Load(requestWithCookie(ck)).Len())
	})

	t.Run("should return an empty session without cookie", func(t *testing.T) {
		require.Equal(t, 0, codec.Load(requestWithCookie(nil)).Len())
	})
}

func TestCodecUnsigned(t *testing.T) {
	codec := session.NewCodec(
		session.WithCookieName("SID"),
		session.WithPath("/app"),
		session.WithDomain("example.com"),
		session.WithSecure(true),
		session.WithHTTPOnly(false),
		session.WithMaxAge(3600),
		session.WithSameSite(http.SameSiteLaxMode))
	require.Equal(t, "SID", codec.Name())

	sess := session.New()
	sess.Set("a", "1")

	ck, ok := codec.Cookie(sess)
	require.True(t, ok)
	assert.Equal(t, "a=1", ck.Value)
	assert.Equal(t, "/app", ck.Path)
	assert.Equal(t, "example.com", ck.Domain)
	assert.True(t, ck.Secure)
	assert.False(t, ck.HttpOnly)
	assert.Equal(t, 3600, ck.MaxAge)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)

	loaded := codec.Load(requestWithCookie(ck))
	require.Equal(t, map[string]string{"a": "1"}, loaded.Map())
}

func TestCodecCookieLifecycle(t *testing.T) {
	codec := session.NewCodec()

	t.Run("should not write an unmodified session", func(t *testing.T) {
		_, ok := codec.Cookie(session.Decode("a=1"))
		require.False(t, ok)

		_, ok = codec.Cookie(nil)
		require.False(t, ok)
	})

	t.Run("should write a deletion cookie for a cleared session", func(t *testing.T) {
		sess := session.Decode("a=1")
		sess.Clear()
		require.True(t, sess.Cleared())

		ck, ok := codec.Cookie(sess)
		require.True(t, ok)
		require.Empty(t, ck.Value)
		require.Equal(t, -1, ck.MaxAge)
		require.Contains(t, ck.String(), "Max-Age=0")
	})

	t.Run("should write a deletion cookie when the last key is removed", func(t *testing.T) {
		sess := session.Decode("a=1")
		sess.Delete("a")

		ck, ok := codec.Cookie(sess)
		require.True(t, ok)
		require.Equal(t, -1, ck.MaxAge)
	})

	t.Run("should write the value when set after clearing", func(t *testing.T) {
		sess := session.Decode("a=1")
		sess.Clear()
		sess.Set("b", "2")

		ck, ok := codec.Cookie(sess)
		require.True(t, ok)
		require.Equal(t, "b=2", ck.Value)
	})

	t.Run("deleting an unknown key does not modify", func(t *testing.T) {
		sess := session.Decode("a=1")
		sess.Delete("nope")
		require.False(t, sess.Modified())
	})
}
