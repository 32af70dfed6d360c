package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/wanderlist/internal/domain"
	bolt "go.etcd.io/bbolt"
)

const dbFile = "wanderlist.db"

// GenerationStore implements domain.CacheStorage using BoltDB.
// Each cache generation is a top-level bucket keyed by request identity.
type GenerationStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects mem and order

	// Memory-only mode: generation -> key -> encoded entry
	mem   map[string]map[string][]byte
	order []string
}

// NewGenerationStore opens the cache database under baseDir.
// Each origin gets its own subdirectory so generations never mix across sites.
// An empty baseDir selects memory-only mode.
func NewGenerationStore(baseDir, origin string) (*GenerationStore, error) {
	if baseDir == "" {
		return NewMemoryStore(), nil
	}

	dir := baseDir
	if origin != "" {
		dir = filepath.Join(baseDir, hashOrigin(origin))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	return &GenerationStore{db: db}, nil
}

// NewMemoryStore returns a store that keeps everything in memory
func NewMemoryStore() *GenerationStore {
	return &GenerationStore{mem: make(map[string]map[string][]byte)}
}

func hashOrigin(origin string) string {
	normalized := strings.TrimRight(strings.ToLower(origin), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *GenerationStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generations ===

func (s *GenerationStore) Open(name string) (domain.Cache, error) {
	if name == "" {
		return nil, fmt.Errorf("cache name is required")
	}

	if s.db == nil {
		s.mu.Lock()
		if _, ok := s.mem[name]; !ok {
			s.mem[name] = make(map[string][]byte)
			s.order = append(s.order, name)
		}
		s.mu.Unlock()
		return &generation{store: s, name: name}, nil
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(name))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open generation %q: %w", name, err)
	}
	return &generation{store: s, name: name}, nil
}

func (s *GenerationStore) Has(name string) (bool, error) {
	if s.db == nil {
		s.mu.RLock()
		_, ok := s.mem[name]
		s.mu.RUnlock()
		return ok, nil
	}

	var ok bool
	err := s.db.View(func(tx *bolt.Tx) error {
		ok = tx.Bucket([]byte(name)) != nil
		return nil
	})
	return ok, err
}

func (s *GenerationStore) Keys() ([]string, error) {
	if s.db == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return append([]string(nil), s.order...), nil
	}

	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			names = append(names, string(name))
			return nil
		})
	})
	return names, err
}

// Count returns the number of entries in the named generation without
// creating it. A missing generation yields domain.ErrGenerationNotFound.
func (s *GenerationStore) Count(name string) (int, error) {
	if s.db == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		bucket, ok := s.mem[name]
		if !ok {
			return 0, domain.ErrGenerationNotFound
		}
		return len(bucket), nil
	}

	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(name))
		if b == nil {
			return domain.ErrGenerationNotFound
		}
		n = b.Stats().KeyN
		return nil
	})
	return n, err
}

func (s *GenerationStore) Delete(name string) (bool, error) {
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		_, ok := s.mem[name]
		if ok {
			delete(s.mem, name)
			for i, n := range s.order {
				if n == name {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		}
		return ok, nil
	}

	var existed bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		err := tx.DeleteBucket([]byte(name))
		if errors.Is(err, bolt.ErrBucketNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		existed = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete generation %q: %w", name, err)
	}
	return existed, nil
}

// === Entries ===

// generation implements domain.Cache over one bucket of the store
type generation struct {
	store *GenerationStore
	name  string
}

func (g *generation) Name() string { return g.name }

func (g *generation) Match(key string) (*domain.CacheEntry, error) {
	s := g.store
	if s.db == nil {
		s.mu.RLock()
		bucket, ok := s.mem[g.name]
		var data []byte
		if ok {
			data = bucket[key]
		}
		s.mu.RUnlock()
		if !ok {
			return nil, domain.ErrGenerationNotFound
		}
		if data == nil {
			return nil, nil
		}
		return decodeEntry(data)
	}

	// Values are only valid inside the transaction, decode before it ends
	var entry *domain.CacheEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(g.name))
		if b == nil {
			return domain.ErrGenerationNotFound
		}
		v := b.Get([]byte(key))
		if v == nil {
			return nil
		}
		e, err := decodeEntry(v)
		entry = e
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (g *generation) Put(entry *domain.CacheEntry) error {
	return g.PutAll([]*domain.CacheEntry{entry})
}

func (g *generation) PutAll(entries []*domain.CacheEntry) error {
	encoded := make(map[string][]byte, len(entries))
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", e.Key(), err)
		}
		if _, dup := encoded[e.Key()]; !dup {
			keys = append(keys, e.Key())
		}
		encoded[e.Key()] = data
	}

	s := g.store
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		bucket, ok := s.mem[g.name]
		if !ok {
			return domain.ErrGenerationNotFound
		}
		for _, k := range keys {
			bucket[k] = encoded[k]
		}
		return nil
	}

	// Single transaction: either every entry lands or none do
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(g.name))
		if b == nil {
			return domain.ErrGenerationNotFound
		}
		for _, k := range keys {
			if err := b.Put([]byte(k), encoded[k]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (g *generation) Keys() ([]string, error) {
	s := g.store
	if s.db == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		bucket, ok := s.mem[g.name]
		if !ok {
			return nil, domain.ErrGenerationNotFound
		}
		keys := make([]string, 0, len(bucket))
		for k := range bucket {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys, nil
	}

	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(g.name))
		if b == nil {
			return domain.ErrGenerationNotFound
		}
		return b.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

func (g *generation) Len() (int, error) {
	return g.store.Count(g.name)
}

func decodeEntry(data []byte) (*domain.CacheEntry, error) {
	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return &entry, nil
}
