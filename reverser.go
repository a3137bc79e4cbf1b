package bserve

import (
	"slices"

	"github.com/advdv/bserve/internal/httppattern"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// Reverser maps route names to their patterns so handlers can build links to other routes
// without repeating paths.
type Reverser struct {
	pats map[string]*httppattern.Pattern
}

// NewReverser inits the reverser.
func NewReverser() *Reverser {
	return &Reverser{pats: map[string]*httppattern.Pattern{}}
}

// Names returns the registered route names, sorted.
func (r *Reverser) Names() []string {
	names := lo.Keys(r.pats)
	slices.Sort(names)

	return names
}

// Reverse builds the path of the named route, filling its wildcards with vals in order.
func (r *Reverser) Reverse(name string, vals ...string) (string, error) {
	pat, ok := r.pats[name]
	if !ok {
		return "", errors.Newf("no route named %q, have: %v", name, r.Names())
	}

	path, err := httppattern.Build(pat, vals...)
	if err != nil {
		return "", errors.Wrapf(err, "reverse %q", name)
	}

	return path, nil
}

// Named registers str under name and returns it unchanged. It panics when the name is taken or
// the pattern does not parse, which is a programming error at route setup.
func (r *Reverser) Named(name, str string) string {
	if _, err := r.NamedPattern(name, str); err != nil {
		panic("bserve: " + err.Error())
	}

	return str
}

// NamedPattern is [Reverser.Named] returning the error instead of panicking.
func (r *Reverser) NamedPattern(name, str string) (string, error) {
	if _, exists := r.pats[name]; exists {
		return str, errors.Newf("route name %q already taken", name)
	}

	pat, err := httppattern.ParsePattern(str)
	if err != nil {
		return str, errors.Wrapf(err, "parse pattern %q", str)
	}

	r.pats[name] = pat

	return str, nil
}
