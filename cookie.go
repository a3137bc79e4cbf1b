package bserve

import "net/http"

// Cookie describes a cookie a [Result] asks the client to store.
//
// MaxAge follows the Set-Cookie semantics of the result model rather than those of [http.Cookie]:
// a positive value is a lifetime in seconds, 0 deletes the cookie right away and a negative value
// leaves out the Max-Age attribute so the cookie lives for the browser session.
type Cookie struct {
	Name     string
	Value    string
	MaxAge   int
	Path     string
	Domain   string
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
}

// NewCookie returns a browser-session cookie for the root path.
func NewCookie(name, value string) Cookie {
	return Cookie{Name: name, Value: value, MaxAge: -1, Path: "/"}
}

// DeletionCookie returns a cookie that makes the client drop the named cookie.
func DeletionCookie(name string) Cookie {
	return Cookie{Name: name, MaxAge: 0, Path: "/"}
}

// Std converts the cookie into its standard library form.
func (c Cookie) Std() *http.Cookie {
	sc := &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		Domain:   c.Domain,
		Secure:   c.Secure,
		HttpOnly: c.HTTPOnly,
		SameSite: c.SameSite,
	}

	switch {
	case c.MaxAge == 0:
		sc.MaxAge = -1
	case c.MaxAge > 0:
		sc.MaxAge = c.MaxAge
	}

	return sc
}

// cookieFromStd is the inverse of [Cookie.Std].
func cookieFromStd(sc *http.Cookie) Cookie {
	c := Cookie{
		Name:     sc.Name,
		Value:    sc.Value,
		Path:     sc.Path,
		Domain:   sc.Domain,
		Secure:   sc.Secure,
		HTTPOnly: sc.HttpOnly,
		SameSite: sc.SameSite,
		MaxAge:   -1,
	}

	switch {
	case sc.MaxAge < 0:
		c.MaxAge = 0
	case sc.MaxAge > 0:
		c.MaxAge = sc.MaxAge
	}

	return c
}
