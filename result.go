package bserve

import (
	"net/http"
	"time"
)

// Content types understood by the built-in serializers.
const (
	MimeHTML = "text/html"
	MimeJSON = "application/json"
	MimeXML  = "application/xml"
	MimeText = "text/plain"
)

// DefaultCharset is the charset of a new [Result].
const DefaultCharset = "utf-8"

// Result describes the response a handler wants to produce, independent of the transport. Methods
// mutate the result and return it for chaining. Once a handler returns a result the dispatcher owns
// it; callers must not touch it afterwards.
type Result struct {
	status      int
	renderable  Renderable
	contentType string
	charset     string
	headers     map[string]string
	cookies     []Cookie
}

// NewResult inits a result with the given status code and a utf-8 charset.
func NewResult(status int) *Result {
	return &Result{
		status:  status,
		charset: DefaultCharset,
		headers: make(map[string]string),
		cookies: []Cookie{},
	}
}

// Render sets the payload.
func (r *Result) Render(rd Renderable) *Result {
	r.renderable = rd
	return r
}

// As sets the content type. It must not carry a charset parameter, use [Result.WithCharset].
func (r *Result) As(contentType string) *Result {
	r.contentType = contentType
	return r
}

// WithCharset sets the charset appended to the Content-Type header. An empty charset resets it to
// [DefaultCharset].
func (r *Result) WithCharset(charset string) *Result {
	if charset == "" {
		charset = DefaultCharset
	}

	r.charset = charset
	return r
}

// With sets a header, replacing any previous value for the same name.
func (r *Result) With(name, value string) *Result {
	r.headers[name] = value
	return r
}

// WithCookie appends a cookie.
func (r *Result) WithCookie(c Cookie) *Result {
	r.cookies = append(r.cookies, c)
	return r
}

// Without appends a cookie that deletes the named cookie on the client. Earlier cookies with the
// same name stay in the list so the transport still sees them in order.
func (r *Result) Without(name string) *Result {
	return r.WithCookie(DeletionCookie(name))
}

// Status sets the status code.
func (r *Result) Status(code int) *Result {
	r.status = code
	return r
}

// Redirect turns the result into a 303 See Other to url. The url is not validated.
func (r *Result) Redirect(url string) *Result {
	return r.Status(http.StatusSeeOther).With("Location", url)
}

// RedirectTemporary turns the result into a 307 Temporary Redirect to url.
func (r *Result) RedirectTemporary(url string) *Result {
	return r.Status(http.StatusTemporaryRedirect).With("Location", url)
}

// HTML sets the content type to [MimeHTML].
func (r *Result) HTML() *Result { return r.As(MimeHTML) }

// JSON sets the content type to [MimeJSON].
func (r *Result) JSON() *Result { return r.As(MimeJSON) }

// XML sets the content type to [MimeXML].
func (r *Result) XML() *Result { return r.As(MimeXML) }

// Text sets the content type to [MimeText].
func (r *Result) Text() *Result { return r.As(MimeText) }

// NoCache sets Cache-Control, Date and Expires so that neither the browser nor any proxy in
// between caches the response.
func (r *Result) NoCache() *Result {
	return r.noCacheAt(time.Now())
}

func (r *Result) noCacheAt(now time.Time) *Result {
	r.With("Cache-Control", "no-cache, no-store")
	r.With("Date", now.UTC().Format(http.TimeFormat))
	r.With("Expires", time.Unix(0, 0).UTC().Format(http.TimeFormat))
	return r
}

// StatusCode returns the status code.
func (r *Result) StatusCode() int { return r.status }

// Renderable returns the payload.
func (r *Result) Renderable() Renderable { return r.renderable }

// ContentType returns the content type, empty when none was set.
func (r *Result) ContentType() string { return r.contentType }

// Charset returns the charset, never empty.
func (r *Result) Charset() string { return r.charset }

// Headers returns the headers. The map is owned by the result.
func (r *Result) Headers() map[string]string { return r.headers }

// Cookies returns the cookies in insertion order.
func (r *Result) Cookies() []Cookie { return r.cookies }

// Cookie returns the last cookie appended under name, so a cookie removed with [Result.Without]
// reads back as the deletion cookie.
func (r *Result) Cookie(name string) (Cookie, bool) {
	for i := len(r.cookies) - 1; i >= 0; i-- {
		if r.cookies[i].Name == name {
			return r.cookies[i], true
		}
	}

	return Cookie{}, false
}
