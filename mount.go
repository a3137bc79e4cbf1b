package bserve

import (
	"net/http"
	"net/url"
	"strings"
)

// Mount mounts a Handler on a sub-path pattern. The mounted handler receives
// requests with the mount prefix stripped from the path. Middleware registered via Use()
// sees the original path; the strip happens after middleware.
func (m *Mux) Mount(pattern string, handler Handler) {
	method, path := splitMethodPattern(pattern)
	wrapped := Wrap(stripPrefix(path, handler), m.middlewares.list...)

	m.handle(method+path, wrapped)
	m.handle(method+path+"/", wrapped)
}

// MountFunc mounts a HandlerFunc on a sub-path pattern.
func (m *Mux) MountFunc(pattern string, handler HandlerFunc) {
	m.Mount(pattern, handler)
}

// MountStd mounts a standard library [http.Handler] on a sub-path pattern, for example an
// http.FileServer. The handler owns its response, including error responses.
func (m *Mux) MountStd(pattern string, handler http.Handler) {
	m.Mount(pattern, StdHandler(handler))
}

func splitMethodPattern(pattern string) (method, path string) {
	if idx := strings.LastIndex(pattern, "/"); idx > 0 {
		prefix := pattern[:idx]
		if spaceIdx := strings.Index(prefix, " "); spaceIdx >= 0 {
			return pattern[:spaceIdx+1], pattern[spaceIdx+1:]
		}
	}

	return "", pattern
}

func stripPrefix(prefix string, handler Handler) Handler {
	return HandlerFunc(func(ctx *Context, r *http.Request) (*Result, error) {
		p := strings.TrimPrefix(r.URL.Path, prefix)
		if p == "" {
			p = "/"
		}

		rp := ""
		if r.URL.RawPath != "" {
			rp = strings.TrimPrefix(r.URL.RawPath, prefix)
			if rp == "" {
				rp = "/"
			}
		}

		r2 := new(http.Request)
		*r2 = *r
		r2.URL = new(url.URL)
		*r2.URL = *r.URL
		r2.URL.Path = p
		r2.URL.RawPath = rp

		return handler.ServeBServe(ctx, r2)
	})
}
