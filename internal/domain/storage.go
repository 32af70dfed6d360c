package domain

import (
	"net/http"
	"time"
)

// CacheEntry is a stored response snapshot.
// Entries are never mutated; a Put for the same key replaces the whole entry.
type CacheEntry struct {
	Method   string      `json:"method"`
	URL      string      `json:"url"`
	Status   int         `json:"status"`
	Header   http.Header `json:"header"`
	Body     []byte      `json:"body"`
	StoredAt time.Time   `json:"stored_at"`
}

// RequestKey returns the identity a request is stored under: "METHOD URL"
func RequestKey(method, url string) string {
	if method == "" {
		method = http.MethodGet
	}
	return method + " " + url
}

// Key returns the entry's request identity
func (e *CacheEntry) Key() string {
	return RequestKey(e.Method, e.URL)
}

// CacheStorage holds named cache generations.
// Implementations must be safe for concurrent use.
type CacheStorage interface {
	// Open returns the named generation, creating it if absent
	Open(name string) (Cache, error)

	// Has reports whether the named generation exists
	Has(name string) (bool, error)

	// Keys lists generation names in storage order
	Keys() ([]string, error)

	// Count returns the number of entries in the named generation without
	// creating it. Returns ErrGenerationNotFound when it does not exist.
	Count(name string) (int, error)

	// Delete removes a generation and all its entries.
	// Returns false when no such generation existed.
	Delete(name string) (bool, error)

	Close() error
}

// Cache is a single generation of stored request -> response entries
type Cache interface {
	// Name returns the generation name
	Name() string

	// Match returns the entry stored under key, or (nil, nil) on a miss
	Match(key string) (*CacheEntry, error)

	// Put stores one entry, overwriting any previous entry for the same key
	Put(entry *CacheEntry) error

	// PutAll stores every entry or none of them
	PutAll(entries []*CacheEntry) error

	// Keys lists stored request identities
	Keys() ([]string, error)

	// Len returns the number of stored entries
	Len() (int, error)
}
