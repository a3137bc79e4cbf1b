// Package session implements cookie carried, optionally signed, key/value sessions.
//
// The wire format is the one used by the Play framework: the session is form-encoded
// (see [Encode]) and, when a [Signer] is configured, prefixed with the hex encoded HMAC of the
// encoded data and a '-'. Sessions written by one compatible implementation can therefore be
// read by another as long as they share the secret.
//
// A [Codec] loads the session from an inbound request and produces the outbound cookie:
//
//	codec := session.NewCodec(session.WithSigner(session.NewHMACSigner(secret)))
//	sess := codec.Load(r)
//	sess.Set("user", "alice")
//	if c, ok := codec.Cookie(sess); ok {
//	    http.SetCookie(w, c)
//	}
package session

import "slices"

// Session is an ordered string to string map. It is owned by a single request and is not safe
// for concurrent use.
type Session struct {
	keys    []string
	values  map[string]string
	dirty   bool
	cleared bool
}

// New returns an empty session.
func New() *Session {
	return &Session{values: make(map[string]string)}
}

// Get returns the value stored under key.
func (s *Session) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key. An existing key keeps its position.
func (s *Session) Set(key, value string) {
	s.put(key, value)
	s.dirty = true
}

// Delete removes key from the session.
func (s *Session) Delete(key string) {
	if _, ok := s.values[key]; !ok {
		return
	}

	delete(s.values, key)
	s.keys = slices.DeleteFunc(s.keys, func(k string) bool { return k == key })
	s.dirty = true
}

// Clear removes all entries and marks the session for deletion on the client.
func (s *Session) Clear() {
	s.keys = nil
	s.values = make(map[string]string)
	s.dirty = true
	s.cleared = true
}

// Len returns the number of entries.
func (s *Session) Len() int { return len(s.keys) }

// Keys returns the keys in insertion order.
func (s *Session) Keys() []string { return slices.Clone(s.keys) }

// Map returns a copy of the entries.
func (s *Session) Map() map[string]string {
	m := make(map[string]string, len(s.values))
	for k, v := range s.values {
		m[k] = v
	}

	return m
}

// Modified reports whether the session changed since it was loaded.
func (s *Session) Modified() bool { return s.dirty }

// Cleared reports whether [Session.Clear] was called.
func (s *Session) Cleared() bool { return s.cleared }

func (s *Session) put(key, value string) {
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}

	s.values[key] = value
}
