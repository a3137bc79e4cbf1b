package session

import (
	"net/url"
	"strings"
)

// Encode serializes the session into the form-encoded format used by Play compatible session
// cookies: url-encoded key=value pairs joined by '&', in insertion order. Removed keys are not
// emitted, empty values are.
func Encode(s *Session) string {
	if s == nil {
		return ""
	}

	var b strings.Builder
	sep := ""
	for _, k := range s.keys {
		v, ok := s.values[k]
		if !ok {
			continue
		}

		b.WriteString(sep)
		b.WriteString(FormEncode(k))
		b.WriteByte('=')
		b.WriteString(FormEncode(v))
		sep = "&"
	}

	return b.String()
}

// Decode parses a token produced by [Encode]. Segments without a '=' and segments that fail to
// percent-decode are dropped; all other segments are kept. Decode never fails.
func Decode(data string) *Session {
	s := New()
	if data == "" {
		return s
	}

	for _, segment := range strings.Split(data, "&") {
		rawKey, rawVal, found := strings.Cut(segment, "=")
		if !found {
			continue
		}

		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			continue
		}

		val, err := url.QueryUnescape(rawVal)
		if err != nil {
			continue
		}

		s.put(key, val)
	}

	return s
}

const upperhex = "0123456789ABCDEF"

// FormEncode encodes s the way java.net.URLEncoder does with UTF-8: ASCII letters, digits and
// ".-*_" are kept, space becomes '+', every other byte is written as %XX. This differs from
// [url.QueryEscape] for '~' and '*' and must not be swapped for it, other Play compatible
// implementations compare signatures over these exact bytes.
func FormEncode(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !keepUnescaped(s[i]) && s[i] != ' ' {
			n++
		}
	}

	if n == 0 && !strings.Contains(s, " ") {
		return s
	}

	buf := make([]byte, 0, len(s)+2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case keepUnescaped(c):
			buf = append(buf, c)
		case c == ' ':
			buf = append(buf, '+')
		default:
			buf = append(buf, '%', upperhex[c>>4], upperhex[c&15])
		}
	}

	return string(buf)
}

func keepUnescaped(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '.', c == '-', c == '*', c == '_':
		return true
	}

	return false
}

// SafeEquals compares two signatures in time that depends only on their length.
func SafeEquals(a, b string) bool {
	return safeEquals(a, b, nil)
}

// safeEquals calls visit (when non-nil) for every compared position.
func safeEquals(a, b string, visit func(i int)) bool {
	if len(a) != len(b) {
		return false
	}

	var equal byte
	for i := 0; i < len(a); i++ {
		if visit != nil {
			visit(i)
		}
		equal |= a[i] ^ b[i]
	}

	return equal == 0
}
