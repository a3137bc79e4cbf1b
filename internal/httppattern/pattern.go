// Package httppattern parses the routing patterns of net/http's ServeMux and builds request paths
// from them.
package httppattern

import (
	"go/token"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/net/http/httpguts"
)

// Pattern is a parsed "[METHOD ][HOST]/[PATH]" pattern.
type Pattern struct {
	str      string
	method   string
	host     string
	segments []segment
}

// segment is a literal path segment or a wildcard. A multi wildcard without a name stands for a
// trailing slash.
type segment struct {
	s      string
	wild   bool
	multi  bool
	dollar bool
}

func (p *Pattern) String() string { return p.str }

// Method returns the pattern's method, empty when it matches any method.
func (p *Pattern) Method() string { return p.method }

// Host returns the pattern's host, empty when it matches any host.
func (p *Pattern) Host() string { return p.host }

// Wildcards returns the names of the pattern's wildcards in order.
func (p *Pattern) Wildcards() []string {
	var names []string
	for _, seg := range p.segments {
		if seg.wild && seg.s != "" {
			names = append(names, seg.s)
		}
	}

	return names
}

// ParsePattern parses s following the rules of net/http's ServeMux.
func ParsePattern(s string) (*Pattern, error) {
	if s == "" {
		return nil, errors.New("empty pattern")
	}

	pat := &Pattern{str: s}
	rest := s

	if i := strings.IndexAny(s, " \t"); i >= 0 {
		pat.method = s[:i]
		rest = strings.TrimLeft(s[i+1:], " \t")
		if !httpguts.ValidHeaderFieldName(pat.method) {
			return nil, errors.Newf("invalid method %q", pat.method)
		}
	}

	i := strings.IndexByte(rest, '/')
	if i < 0 {
		return nil, errors.New("host/path missing /")
	}

	pat.host, rest = rest[:i], rest[i:]
	if strings.Contains(pat.host, "{") {
		return nil, errors.New("host contains '{' (missing initial '/'?)")
	}

	seen := map[string]bool{}
	for len(rest) > 0 {
		rest = rest[1:] // drop the leading slash
		if rest == "" {
			pat.segments = append(pat.segments, segment{wild: true, multi: true})
			break
		}

		var seg string
		if k := strings.IndexByte(rest, '/'); k >= 0 {
			seg, rest = rest[:k], rest[k:]
		} else {
			seg, rest = rest, ""
		}

		if !strings.Contains(seg, "{") {
			lit, err := url.PathUnescape(seg)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid path segment %q", seg)
			}

			pat.segments = append(pat.segments, segment{s: lit})
			continue
		}

		if seg[0] != '{' || seg[len(seg)-1] != '}' {
			return nil, errors.Newf("bad wildcard segment %q (must be entire segment)", seg)
		}

		name := seg[1 : len(seg)-1]
		if name == "$" {
			if rest != "" {
				return nil, errors.New("{$} not at end")
			}

			pat.segments = append(pat.segments, segment{dollar: true})
			break
		}

		name, multi := strings.CutSuffix(name, "...")
		if multi && rest != "" {
			return nil, errors.New("{...} wildcard not at end")
		}

		if name == "" {
			return nil, errors.New("empty wildcard")
		}

		if !token.IsIdentifier(name) {
			return nil, errors.Newf("bad wildcard name %q", name)
		}

		if seen[name] {
			return nil, errors.Newf("duplicate wildcard name %q", name)
		}

		seen[name] = true
		pat.segments = append(pat.segments, segment{s: name, wild: true, multi: multi})
	}

	return pat, nil
}

// Build substitutes vals, in order, for the pattern's named wildcards and returns the path.
// Single-segment values are path escaped; the value of a trailing {name...} wildcard keeps its
// slashes.
func Build(pat *Pattern, vals ...string) (string, error) {
	names := pat.Wildcards()
	if len(vals) < len(names) {
		return "", errors.Newf("not enough values for %q: got %d, want %d", pat.str, len(vals), len(names))
	}

	if len(vals) > len(names) {
		return "", errors.Newf("too many values for %q: got %d, want %d", pat.str, len(vals), len(names))
	}

	var b strings.Builder
	for _, seg := range pat.segments {
		switch {
		case seg.dollar:
			b.WriteString("/")
		case !seg.wild:
			b.WriteString("/" + url.PathEscape(seg.s))
		case seg.s == "":
			b.WriteString("/")
		case seg.multi:
			parts := strings.Split(vals[0], "/")
			for i, part := range parts {
				parts[i] = url.PathEscape(part)
			}

			b.WriteString("/" + strings.Join(parts, "/"))
			vals = vals[1:]
		default:
			b.WriteString("/" + url.PathEscape(vals[0]))
			vals = vals[1:]
		}
	}

	return b.String(), nil
}
