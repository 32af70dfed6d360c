// Package offline implements the offline asset cache: a versioned cache
// generation populated at install, cleaned up at activation, and consulted for
// every intercepted request while active.
package offline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mmcdole/wanderlist/internal/domain"
	"golang.org/x/sync/errgroup"
)

// State is a position in the manager lifecycle
type State int

const (
	StateUninstalled State = iota
	StateInstalling
	StateInstalled // installed, waiting to activate
	StateActivating
	StateActive
	StateRedundant // install failed or replaced by a newer manager
)

func (s State) String() string {
	switch s {
	case StateUninstalled:
		return "uninstalled"
	case StateInstalling:
		return "installing"
	case StateInstalled:
		return "installed"
	case StateActivating:
		return "activating"
	case StateActive:
		return "active"
	case StateRedundant:
		return "redundant"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Fetcher issues network requests. *http.Client satisfies it.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// Signals lets the manager ask its host to speed up the lifecycle.
type Signals interface {
	// SkipWaiting asks the host to activate as soon as install completes
	SkipWaiting()

	// ClaimClients asks the host to route already-open clients through this
	// manager immediately
	ClaimClients(ctx context.Context) error
}

// ActivateResult reports the generation cleanup done during activation
type ActivateResult struct {
	Deleted []string
	Failed  []string
}

// Manager is the offline asset cache for one cache generation.
type Manager struct {
	cfg     Config
	storage domain.CacheStorage
	fetcher Fetcher
	signals Signals
	metrics Metrics
	logger  *slog.Logger
	now     func() time.Time

	mu    sync.RWMutex
	state State
	cache domain.Cache // current generation, set once installed

	fills sync.WaitGroup // in-flight fire-and-forget cache writes
}

// Option configures a Manager
type Option func(*Manager)

// WithSignals sets the host lifecycle signals
func WithSignals(s Signals) Option {
	return func(m *Manager) { m.signals = s }
}

// WithMetrics sets the metrics sink
func WithMetrics(metrics Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the time source used to stamp stored entries
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a manager in the Uninstalled state
func NewManager(cfg Config, storage domain.CacheStorage, fetcher Fetcher, opts ...Option) (*Manager, error) {
	cfg, err := cfg.validate()
	if err != nil {
		return nil, err
	}
	if storage == nil {
		return nil, fmt.Errorf("cache storage is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}

	m := &Manager{
		cfg:     cfg,
		storage: storage,
		fetcher: fetcher,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("cache", cfg.Name)
	return m, nil
}

// Name returns the cache generation tag
func (m *Manager) Name() string { return m.cfg.Name }

// Config returns the manager configuration
func (m *Manager) Config() Config { return m.cfg }

// State returns the current lifecycle state
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// transition moves from one of the allowed states to next
func (m *Manager) transition(next State, from ...State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range from {
		if m.state == s {
			m.state = next
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, m.state, next)
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// OnInstall populates the cache generation with every manifest asset.
// Either all assets are stored or none are; on failure the manager becomes
// Redundant and the host should keep its previous manager.
func (m *Manager) OnInstall(ctx context.Context) error {
	if err := m.transition(StateInstalling, StateUninstalled); err != nil {
		return err
	}

	start := time.Now()
	err := m.install(ctx)
	if m.metrics != nil {
		m.metrics.ObserveInstall(len(m.cfg.Manifest), time.Since(start), err)
	}
	if err != nil {
		m.setState(StateRedundant)
		m.logger.Error("install failed", "error", err)
		return fmt.Errorf("%w: %w", domain.ErrInstallFailed, err)
	}

	m.setState(StateInstalled)
	m.logger.Info("installed", "assets", len(m.cfg.Manifest), "duration", time.Since(start))

	if m.signals != nil {
		m.signals.SkipWaiting()
	}
	return nil
}

func (m *Manager) install(ctx context.Context) error {
	existed, err := m.storage.Has(m.cfg.Name)
	if err != nil {
		return err
	}
	cache, err := m.storage.Open(m.cfg.Name)
	if err != nil {
		return err
	}

	entries, err := m.fetchManifest(ctx)
	if err == nil {
		err = cache.PutAll(entries)
	}
	if err != nil {
		// Never leave behind a generation this install created
		if !existed {
			if _, derr := m.storage.Delete(m.cfg.Name); derr != nil {
				m.logger.Warn("failed to remove incomplete generation", "error", derr)
			}
		}
		return err
	}

	m.mu.Lock()
	m.cache = cache
	m.mu.Unlock()
	return nil
}

// fetchManifest downloads every manifest asset concurrently.
// The first failure cancels the rest.
func (m *Manager) fetchManifest(ctx context.Context) ([]*domain.CacheEntry, error) {
	entries := make([]*domain.CacheEntry, len(m.cfg.Manifest))
	g, gctx := errgroup.WithContext(ctx)
	for i, assetURL := range m.cfg.Manifest {
		g.Go(func() error {
			req, err := http.NewRequestWithContext(gctx, http.MethodGet, assetURL, nil)
			if err != nil {
				return err
			}
			resp, err := m.fetcher.Do(req)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", assetURL, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				return fmt.Errorf("fetch %s: unexpected status code: %d", assetURL, resp.StatusCode)
			}
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("read %s: %w", assetURL, err)
			}
			entries[i] = m.snapshot(req, resp, body)
			m.logger.Debug("fetched manifest asset", "url", assetURL, "bytes", len(body))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

// OnActivate deletes every generation other than this manager's, then claims
// clients. Deletion is best-effort: failures are logged and reported but never
// block activation.
func (m *Manager) OnActivate(ctx context.Context) (ActivateResult, error) {
	if err := m.transition(StateActivating, StateInstalled); err != nil {
		return ActivateResult{}, err
	}

	result := m.deleteStaleGenerations()
	if m.metrics != nil {
		m.metrics.ObserveActivate(len(result.Deleted), len(result.Failed))
	}

	m.setState(StateActive)
	m.logger.Info("activated", "deleted", result.Deleted, "failed", result.Failed)

	if m.signals != nil {
		if err := m.signals.ClaimClients(ctx); err != nil {
			m.logger.Warn("failed to claim clients", "error", err)
		}
	}
	return result, nil
}

func (m *Manager) deleteStaleGenerations() ActivateResult {
	var result ActivateResult

	names, err := m.storage.Keys()
	if err != nil {
		m.logger.Warn("failed to list cache generations", "error", err)
		return result
	}

	var mu sync.Mutex
	var g errgroup.Group
	for _, name := range names {
		if name == m.cfg.Name {
			continue
		}
		g.Go(func() error {
			_, err := m.storage.Delete(name)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				m.logger.Warn("failed to delete stale generation", "generation", name, "error", err)
				result.Failed = append(result.Failed, name)
				return nil
			}
			result.Deleted = append(result.Deleted, name)
			return nil
		})
	}
	g.Wait()
	return result
}

// Restore resumes a generation that a previous process already installed and
// activated, going straight to Active without fetching or cleaning up.
func (m *Manager) Restore() error {
	if err := m.adopt(StateActive); err != nil {
		return err
	}
	m.logger.Info("restored existing generation")
	return nil
}

// Adopt takes over a generation installed by a previous process, leaving the
// manager Installed so OnActivate can run.
func (m *Manager) Adopt() error {
	return m.adopt(StateInstalled)
}

func (m *Manager) adopt(next State) error {
	ok, err := m.storage.Has(m.cfg.Name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrGenerationNotFound, m.cfg.Name)
	}
	cache, err := m.storage.Open(m.cfg.Name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateUninstalled {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, m.state, next)
	}
	m.cache = cache
	m.state = next
	return nil
}

// Retire marks the manager Redundant once a newer one has taken over and
// waits for its pending cache writes. Requests already in flight still get
// their response but no longer fill the cache.
func (m *Manager) Retire() {
	m.setState(StateRedundant)
	m.fills.Wait()
}

// Wait blocks until every fire-and-forget cache write has finished
func (m *Manager) Wait() {
	m.fills.Wait()
}

// Entries returns the number of entries in the current generation
func (m *Manager) Entries() (int, error) {
	m.mu.RLock()
	cache := m.cache
	m.mu.RUnlock()
	if cache == nil {
		return 0, nil
	}
	return cache.Len()
}

// snapshot captures a response for storage
func (m *Manager) snapshot(req *http.Request, resp *http.Response, body []byte) *domain.CacheEntry {
	return &domain.CacheEntry{
		Method:   req.Method,
		URL:      req.URL.String(),
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     body,
		StoredAt: m.now().UTC(),
	}
}

// entryResponse rebuilds a readable response from a stored entry
func entryResponse(req *http.Request, e *domain.CacheEntry) *http.Response {
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status)),
		StatusCode:    e.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        e.Header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}
