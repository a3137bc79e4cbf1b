package session

import (
	"net/http"
	"strings"
)

// DefaultCookieName is the cookie name used when none is configured.
const DefaultCookieName = "WISDOM_SESSION"

// Codec reads the session from inbound requests and produces the outbound session cookie.
// A Codec is immutable after construction and safe for concurrent use.
type Codec struct {
	name     string
	signer   Signer
	path     string
	domain   string
	secure   bool
	httpOnly bool
	maxAge   int
	sameSite http.SameSite
}

// Option configures a [Codec].
type Option func(*Codec)

// WithCookieName sets the name of the session cookie.
func WithCookieName(name string) Option { return func(c *Codec) { c.name = name } }

// WithSigner enables signing. Without a signer the cookie carries the encoded data only.
func WithSigner(s Signer) Option { return func(c *Codec) { c.signer = s } }

// WithPath sets the cookie path, "/" by default.
func WithPath(p string) Option { return func(c *Codec) { c.path = p } }

// WithDomain sets the cookie domain.
func WithDomain(d string) Option { return func(c *Codec) { c.domain = d } }

// WithSecure marks the cookie as secure.
func WithSecure(v bool) Option { return func(c *Codec) { c.secure = v } }

// WithHTTPOnly toggles the HttpOnly attribute, true by default.
func WithHTTPOnly(v bool) Option { return func(c *Codec) { c.httpOnly = v } }

// WithMaxAge sets the Max-Age in seconds. Zero keeps it a browser-session cookie.
func WithMaxAge(seconds int) Option { return func(c *Codec) { c.maxAge = seconds } }

// WithSameSite sets the SameSite attribute.
func WithSameSite(s http.SameSite) Option { return func(c *Codec) { c.sameSite = s } }

// NewCodec inits a codec.
func NewCodec(opts ...Option) *Codec {
	c := &Codec{
		name:     DefaultCookieName,
		path:     "/",
		httpOnly: true,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name returns the cookie name.
func (c *Codec) Name() string { return c.name }

// Load returns the session carried by the request. A missing, malformed or badly signed cookie
// yields an empty session.
func (c *Codec) Load(r *http.Request) *Session {
	ck, err := r.Cookie(c.name)
	if err != nil {
		return New()
	}

	return c.Parse(ck.Value)
}

// Parse decodes a cookie value, verifying its signature when a signer is configured.
func (c *Codec) Parse(value string) *Session {
	if value == "" {
		return New()
	}

	if c.signer == nil {
		return Decode(value)
	}

	sig, data, found := strings.Cut(value, "-")
	if !found || !c.signer.Verify(data, sig) {
		return New()
	}

	return Decode(data)
}

// Value returns the cookie value for the session.
func (c *Codec) Value(s *Session) string {
	data := Encode(s)
	if c.signer == nil {
		return data
	}

	return c.signer.Sign(data) + "-" + data
}

// Cookie returns the cookie that must be sent to the client, if any. Unmodified sessions need no
// cookie. A modified session that ended up empty (because it was cleared or its last key was
// removed) yields a deletion cookie.
func (c *Codec) Cookie(s *Session) (*http.Cookie, bool) {
	if s == nil || !s.Modified() {
		return nil, false
	}

	ck := &http.Cookie{
		Name:     c.name,
		Path:     c.path,
		Domain:   c.domain,
		Secure:   c.secure,
		HttpOnly: c.httpOnly,
		SameSite: c.sameSite,
		MaxAge:   c.maxAge,
	}

	if s.Len() == 0 {
		ck.MaxAge = -1

		return ck, true
	}

	ck.Value = c.Value(s)

	return ck, true
}
