package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mmcdole/wanderlist/internal/domain"
	"github.com/mmcdole/wanderlist/internal/offline"
)

// Host drives offline cache managers through their lifecycle and keeps track
// of which one currently controls traffic.
type Host struct {
	storage domain.CacheStorage
	fetcher offline.Fetcher
	metrics offline.Metrics
	logger  *slog.Logger

	deployMu sync.Mutex // one lifecycle at a time
	active   atomic.Pointer[offline.Manager]
}

// NewHost creates a host with no active manager
func NewHost(storage domain.CacheStorage, fetcher offline.Fetcher, metrics offline.Metrics, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{storage: storage, fetcher: fetcher, metrics: metrics, logger: logger}
}

// Active returns the manager that controls traffic, or nil
func (h *Host) Active() *offline.Manager {
	return h.active.Load()
}

// hostSignals receives lifecycle signals from one manager
type hostSignals struct {
	host    *Host
	manager *offline.Manager
}

// SkipWaiting needs no bookkeeping: Deploy always activates right after a
// successful install.
func (s *hostSignals) SkipWaiting() {
	s.host.logger.Debug("skip waiting requested", "cache", s.manager.Name())
}

func (s *hostSignals) ClaimClients(ctx context.Context) error {
	return s.host.claim(s.manager)
}

func (h *Host) newManager(cfg offline.Config) (*offline.Manager, error) {
	sig := &hostSignals{host: h}
	opts := []offline.Option{offline.WithSignals(sig), offline.WithLogger(h.logger)}
	if h.metrics != nil {
		opts = append(opts, offline.WithMetrics(h.metrics))
	}
	m, err := offline.NewManager(cfg, h.storage, h.fetcher, opts...)
	if err != nil {
		return nil, err
	}
	sig.manager = m
	return m, nil
}

// Deploy installs a new generation and activates it straight away.
// Managers always ask to skip waiting once installed, so activation is
// unconditional. On install failure the previously active manager keeps
// serving.
func (h *Host) Deploy(ctx context.Context, cfg offline.Config) (offline.ActivateResult, error) {
	h.deployMu.Lock()
	defer h.deployMu.Unlock()

	m, err := h.newManager(cfg)
	if err != nil {
		return offline.ActivateResult{}, err
	}

	if err := m.OnInstall(ctx); err != nil {
		if prev := h.Active(); prev != nil {
			h.logger.Warn("install failed, keeping previous generation", "previous", prev.Name(), "error", err)
		}
		return offline.ActivateResult{}, err
	}
	return m.OnActivate(ctx)
}

// Restore activates an already-installed generation without touching the
// network. Used when Deploy fails on startup but storage still holds the
// generation from an earlier run.
func (h *Host) Restore(cfg offline.Config) error {
	h.deployMu.Lock()
	defer h.deployMu.Unlock()

	m, err := h.newManager(cfg)
	if err != nil {
		return err
	}
	if err := m.Restore(); err != nil {
		return err
	}
	return h.claim(m)
}

// DeployOrRestore deploys cfg and falls back to the stored generation when the
// install cannot complete.
func (h *Host) DeployOrRestore(ctx context.Context, cfg offline.Config) error {
	_, err := h.Deploy(ctx, cfg)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrInstallFailed) || h.Active() != nil {
		return err
	}
	if rerr := h.Restore(cfg); rerr != nil {
		return fmt.Errorf("%w (restore: %v)", err, rerr)
	}
	h.logger.Warn("install failed, serving stored generation", "cache", cfg.Name, "error", err)
	return nil
}

// claim routes all traffic to m and retires the manager it replaces
func (h *Host) claim(m *offline.Manager) error {
	prev := h.active.Swap(m)
	if prev != nil && prev != m {
		h.logger.Info("retiring manager", "previous", prev.Name(), "current", m.Name())
		prev.Retire()
	}
	return nil
}

// Close waits for pending cache writes of the active manager
func (h *Host) Close() {
	if m := h.Active(); m != nil {
		m.Wait()
	}
}
