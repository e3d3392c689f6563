// Package registry turns raw identifiers into canonical node keys and interns
// each key as a small, stable integer ID used by the graph store.
package registry

import (
	"log/slog"

	"github.com/ritzau/refgraph/pkg/logging"
)

// Registry canonicalizes identifiers and assigns each canonical key an ID.
// IDs are handed out in first-appearance order starting at 0 and stay valid until Reset.
type Registry struct {
	canon      Canonicalizer
	bestEffort bool
	ids        map[string]int64
	keys       []string
	logger     *slog.Logger
}

// Option configures a Registry
type Option func(*Registry)

// WithCanonicalizer sets how raw identifiers are normalized (default: identity)
func WithCanonicalizer(c Canonicalizer) Option {
	return func(r *Registry) {
		if c != nil {
			r.canon = c
		}
	}
}

// WithBestEffort makes canonicalization failures fall back to the raw string
// instead of returning a NormalizationError.
func WithBestEffort() Option {
	return func(r *Registry) {
		r.bestEffort = true
	}
}

// New creates an empty registry
func New(opts ...Option) *Registry {
	r := &Registry{
		canon:  IdentityCanonicalizer{},
		ids:    make(map[string]int64),
		logger: logging.New("registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Canonicalize maps raw to its canonical key without interning it
func (r *Registry) Canonicalize(raw string) (string, error) {
	key, err := r.canon.Canonicalize(raw)
	if err == nil {
		return key, nil
	}

	if r.bestEffort {
		r.logger.Warn("using raw identifier as node key", "raw", raw, "error", err)
		return raw, nil
	}
	return "", &NormalizationError{Raw: raw, Err: err}
}

// Resolve canonicalizes raw and interns the resulting key
func (r *Registry) Resolve(raw string) (int64, string, error) {
	key, err := r.Canonicalize(raw)
	if err != nil {
		return 0, "", err
	}
	return r.Intern(key), key, nil
}

// Intern returns the ID for key, assigning the next free ID on first sight
func (r *Registry) Intern(key string) int64 {
	if id, exists := r.ids[key]; exists {
		return id
	}

	id := int64(len(r.keys))
	r.ids[key] = id
	r.keys = append(r.keys, key)
	return id
}

// Lookup returns the ID of an already interned key
func (r *Registry) Lookup(key string) (int64, bool) {
	id, exists := r.ids[key]
	return id, exists
}

// LookupRaw canonicalizes raw and looks up the key without interning it.
// The canonical key is returned even when it is unknown; it is empty only if
// canonicalization failed.
func (r *Registry) LookupRaw(raw string) (int64, string, bool) {
	key, err := r.Canonicalize(raw)
	if err != nil {
		return 0, "", false
	}
	id, exists := r.ids[key]
	return id, key, exists
}

// Key returns the canonical key for id, or "" if id is unknown
func (r *Registry) Key(id int64) string {
	if id < 0 || id >= int64(len(r.keys)) {
		return ""
	}
	return r.keys[id]
}

// Keys returns all interned keys in ID order
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.keys))
	copy(keys, r.keys)
	return keys
}

// Len returns the number of interned keys
func (r *Registry) Len() int {
	return len(r.keys)
}

// Reset forgets every interned key
func (r *Registry) Reset() {
	r.ids = make(map[string]int64)
	r.keys = nil
}
