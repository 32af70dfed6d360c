package offline

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mmcdole/wanderlist/internal/domain"
)

// RequestClass selects the caching strategy for a request
type RequestClass int

const (
	// ClassStatic is served cache-first with network fallback and fill
	ClassStatic RequestClass = iota
	// ClassAPI always goes to the network and never touches the cache
	ClassAPI
)

func (c RequestClass) String() string {
	if c == ClassAPI {
		return "api"
	}
	return "static"
}

// Classify returns the class of a request URL
func (m *Manager) Classify(rawURL string) RequestClass {
	if strings.Contains(rawURL, m.cfg.APIMarker) {
		return ClassAPI
	}
	return ClassStatic
}

// HandleRequest answers an intercepted request.
// req.URL must be absolute; it is both the network target and the cache identity.
func (m *Manager) HandleRequest(req *http.Request) (*http.Response, error) {
	m.mu.RLock()
	state, cache := m.state, m.cache
	m.mu.RUnlock()
	if state != StateActive {
		return nil, fmt.Errorf("%w (state %s)", domain.ErrNotActive, state)
	}

	class := m.Classify(req.URL.String())
	if class == ClassAPI {
		return m.networkOnly(req)
	}
	return m.cacheFirst(req, cache)
}

// networkOnly forwards the request and returns whatever the network returns
func (m *Manager) networkOnly(req *http.Request) (*http.Response, error) {
	resp, err := m.fetcher.Do(req)
	m.observe(ClassAPI, OutcomeNetwork, err)
	return resp, err
}

func (m *Manager) cacheFirst(req *http.Request, cache domain.Cache) (*http.Response, error) {
	key := domain.RequestKey(req.Method, req.URL.String())

	entry, err := cache.Match(key)
	if err != nil {
		m.logger.Debug("cache match failed, treating as miss", "key", key, "error", err)
	}
	if entry != nil {
		m.observe(ClassStatic, OutcomeHit, nil)
		return entryResponse(req, entry), nil
	}

	resp, err := m.fetcher.Do(req)
	m.observe(ClassStatic, OutcomeMiss, err)
	if err != nil {
		return nil, err
	}
	if !storable(req, resp) {
		return resp, nil
	}

	// One copy for the caller, one for the cache
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", req.URL, err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))

	stored := m.snapshot(req, resp, body)
	started := m.goFill(func() {
		err := cache.Put(stored)
		if m.metrics != nil {
			m.metrics.ObserveFill(err)
		}
		if err != nil {
			m.logger.Debug("cache fill failed", "key", key, "error", err)
		}
	})
	if !started {
		m.logger.Debug("manager retired, skipping cache fill", "key", key)
	}
	return resp, nil
}

// goFill starts a tracked cache write while the manager is still Active.
// Retire flips the state under the same lock before waiting, so no write
// can be added once it has started waiting.
func (m *Manager) goFill(fn func()) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != StateActive {
		return false
	}
	m.fills.Go(fn)
	return true
}

// storable mirrors the cache put rules: GET only, never partial content
func storable(req *http.Request, resp *http.Response) bool {
	return req.Method == http.MethodGet && resp.StatusCode != http.StatusPartialContent
}

func (m *Manager) observe(class RequestClass, outcome string, err error) {
	if m.metrics == nil {
		return
	}
	if err != nil {
		outcome = OutcomeError
	}
	m.metrics.ObserveRequest(class, outcome)
}

// Transport adapts a Manager to http.RoundTripper so an http.Client routes
// every call through the offline cache.
type Transport struct {
	Manager *Manager
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.Manager.HandleRequest(req)
}

// compile-time check
var _ http.RoundTripper = (*Transport)(nil)
