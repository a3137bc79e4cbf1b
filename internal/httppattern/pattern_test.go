package httppattern_test

import (
	"testing"

	"github.com/advdv/bserve/internal/httppattern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePattern(t *testing.T) {
	for _, c := range []struct {
		in        string
		method    string
		host      string
		wildcards []string
	}{
		{"/", "", "", nil},
		{"GET /items/{id}", "GET", "", []string{"id"}},
		{"POST  example.com/a/{b}/{c...}", "POST", "example.com", []string{"b", "c"}},
		{"/blog/{id}/{$}", "", "", []string{"id"}},
		{"DELETE\t/x", "DELETE", "", nil},
	} {
		t.Run(c.in, func(t *testing.T) {
			pat, err := httppattern.ParsePattern(c.in)
			require.NoError(t, err)
			assert.Equal(t, c.in, pat.String())
			assert.Equal(t, c.method, pat.Method())
			assert.Equal(t, c.host, pat.Host())
			assert.Equal(t, c.wildcards, pat.Wildcards())
		})
	}
}

func TestParsePatternErrors(t *testing.T) {
	for in, msg := range map[string]string{
		"":          "empty pattern",
		"GET":       "missing /",
		"G(T /a":    "invalid method",
		"/a{b}":     "must be entire segment",
		"/{$}/a":    "{$} not at end",
		"/{a...}/b": "not at end",
		"/{}":       "empty wildcard",
		"/{1a}":     "bad wildcard name",
		"/{a}/{a}":  "duplicate wildcard name",
		"/%zz":      "invalid path segment",
		"{host}/x":  "host contains",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := httppattern.ParsePattern(in)
			require.Error(t, err)
			assert.Contains(t, err.Error(), msg)
		})
	}
}

func TestBuild(t *testing.T) {
	for _, c := range []struct {
		pattern string
		vals    []string
		exp     string
	}{
		{"/", nil, "/"},
		{"/{$}", nil, "/"},
		{"GET /blog/{slug}", []string{"foo"}, "/blog/foo"},
		{"/blog/{id}/{$}", []string{"111"}, "/blog/111/"},
		{"/static/", nil, "/static/"},
		{"/files/{path...}", []string{"a/b c/d"}, "/files/a/b%20c/d"},
		{"/q/{v}", []string{"a/b"}, "/q/a%2Fb"},
		{"example.com/{a}/{b}", []string{"x", "y"}, "/x/y"},
	} {
		t.Run(c.pattern, func(t *testing.T) {
			pat, err := httppattern.ParsePattern(c.pattern)
			require.NoError(t, err)

			res, err := httppattern.Build(pat, c.vals...)
			require.NoError(t, err)
			assert.Equal(t, c.exp, res)
		})
	}
}

func TestBuildValueCount(t *testing.T) {
	pat, err := httppattern.ParsePattern("/blog/{id}")
	require.NoError(t, err)

	_, err = httppattern.Build(pat)
	require.ErrorContains(t, err, "not enough values")

	_, err = httppattern.Build(pat, "a", "b")
	require.ErrorContains(t, err, "too many values")
}
