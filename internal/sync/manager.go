// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	stdsync "sync"
	"time"

	"github.com/cavaks-kitchen/palate/internal/config"
	"github.com/cavaks-kitchen/palate/internal/logging"
	"github.com/cavaks-kitchen/palate/internal/metrics"
	"github.com/cavaks-kitchen/palate/internal/models"
	"github.com/cavaks-kitchen/palate/internal/recommend"
)

// ErrSyncDisabled is returned by TriggerSync when sync is not enabled.
var ErrSyncDisabled = errors.New("sync: upstream sync is disabled")

// ErrSyncInProgress is returned when a sync run is already executing.
var ErrSyncInProgress = errors.New("sync: a sync run is already in progress")

// CatalogStore is the subset of the storage layer the manager writes to.
type CatalogStore interface {
	PutItems(ctx context.Context, items []recommend.Item) (int, error)
	PutProfile(ctx context.Context, profile *recommend.UserProfile) error
	PutHistory(ctx context.Context, userID string, history *recommend.UserHistory) error
	PutOrder(ctx context.Context, order *recommend.Order) error
	Counts(ctx context.Context) (items, users, orders int, err error)
}

// Fetcher is the subset of the storefront client the manager reads
// from. Satisfied by *Client; tests substitute a stub.
type Fetcher interface {
	FetchItems(ctx context.Context) ([]recommend.Item, error)
	FetchUsers(ctx context.Context) ([]recommend.UserProfile, map[string]*recommend.UserHistory, error)
	FetchOrders(ctx context.Context) ([]recommend.Order, error)
	BreakerOpen() bool
}

// Manager runs periodic catalog syncs against the upstream storefront.
type Manager struct {
	store  CatalogStore
	client Fetcher
	cfg    config.SyncConfig

	mu        stdsync.RWMutex
	lastSync  time.Time
	lastError error
	running   bool

	syncMu stdsync.Mutex // serializes sync runs

	onSyncCompleted func()

	stopChan chan struct{}
	stopOnce stdsync.Once
}

// NewManager creates a sync manager. The client may be nil when sync is
// disabled.
func NewManager(store CatalogStore, client Fetcher, cfg config.SyncConfig) *Manager {
	logging.Info().
		Bool("enabled", cfg.Enabled).
		Dur("interval", cfg.Interval).
		Bool("sync_on_startup", cfg.SyncOnStartup).
		Msg("sync manager config loaded")

	return &Manager{
		store:    store,
		client:   client,
		cfg:      cfg,
		stopChan: make(chan struct{}),
	}
}

// SetOnSyncCompleted registers a callback invoked after each successful
// sync run. Used to invalidate the recommendation cache.
func (m *Manager) SetOnSyncCompleted(callback func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSyncCompleted = callback
}

// Start begins periodic synchronization. Blocks until ctx is canceled
// or Stop is called, so it runs directly as a supervised service.
func (m *Manager) Start(ctx context.Context) error {
	if !m.cfg.Enabled {
		logging.Info().Msg("upstream sync disabled, catalog is managed via the admin API")
		<-ctx.Done()
		return ctx.Err()
	}

	m.mu.Lock()
	m.running = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	if m.cfg.SyncOnStartup {
		if err := m.runSync(ctx); err != nil {
			logging.Error().Err(err).Msg("startup sync failed")
		}
	}

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := m.runSync(ctx); err != nil {
				logging.Error().Err(err).Msg("periodic sync failed")
			}
		case <-ctx.Done():
			return ctx.Err()
		case <-m.stopChan:
			return nil
		}
	}
}

// Stop terminates the periodic sync loop. Idempotent.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

// TriggerSync runs one sync immediately. Returns ErrSyncInProgress if a
// run is already executing.
func (m *Manager) TriggerSync(ctx context.Context) error {
	if !m.cfg.Enabled {
		return ErrSyncDisabled
	}
	return m.runSync(ctx)
}

// LastSync returns the completion time of the most recent successful
// sync, zero if none has completed.
func (m *Manager) LastSync() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSync
}

// Status reports the manager's current state plus store counts.
func (m *Manager) Status(ctx context.Context) models.SyncStatus {
	m.mu.RLock()
	status := models.SyncStatus{
		Enabled:  m.cfg.Enabled,
		Running:  m.running,
		LastSync: m.lastSync,
	}
	if m.lastError != nil {
		status.LastError = m.lastError.Error()
	}
	m.mu.RUnlock()

	if m.client != nil {
		status.BreakerOpen = m.client.BreakerOpen()
	}

	items, users, orders, err := m.store.Counts(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("failed to count catalog records")
	} else {
		status.ItemCount = items
		status.UserCount = users
		status.OrderCount = orders
	}

	return status
}

// runSync executes one full sync: items, then users, then orders.
// Partial progress is kept; a failure mid-run leaves earlier record
// types updated.
func (m *Manager) runSync(ctx context.Context) error {
	if !m.syncMu.TryLock() {
		return ErrSyncInProgress
	}
	defer m.syncMu.Unlock()

	start := time.Now()
	logging.Info().Msg("catalog sync started")

	err := m.syncAll(ctx)
	duration := time.Since(start)

	m.mu.Lock()
	m.lastError = err
	if err == nil {
		m.lastSync = time.Now()
	}
	callback := m.onSyncCompleted
	m.mu.Unlock()

	metrics.RecordSyncRun(duration, err, categorizeError(err))
	if err != nil {
		return err
	}

	logging.Info().Dur("duration", duration).Msg("catalog sync completed")
	if callback != nil {
		callback()
	}
	return nil
}

func (m *Manager) syncAll(ctx context.Context) error {
	items, err := m.client.FetchItems(ctx)
	if err != nil {
		return fmt.Errorf("fetch items: %w", err)
	}
	stored, err := m.store.PutItems(ctx, items)
	if err != nil {
		return fmt.Errorf("store items: %w", err)
	}
	metrics.SyncRecordsProcessed.WithLabelValues("item").Add(float64(stored))

	profiles, histories, err := m.client.FetchUsers(ctx)
	if err != nil {
		return fmt.Errorf("fetch users: %w", err)
	}
	for i := range profiles {
		if profiles[i].ID == "" {
			logging.Warn().Msg("skipping user without ID")
			continue
		}
		if err := m.store.PutProfile(ctx, &profiles[i]); err != nil {
			return fmt.Errorf("store profile %s: %w", profiles[i].ID, err)
		}
		if history, ok := histories[profiles[i].ID]; ok {
			if err := m.store.PutHistory(ctx, profiles[i].ID, history); err != nil {
				return fmt.Errorf("store history %s: %w", profiles[i].ID, err)
			}
		}
		metrics.SyncRecordsProcessed.WithLabelValues("user").Inc()
	}

	orders, err := m.client.FetchOrders(ctx)
	if err != nil {
		return fmt.Errorf("fetch orders: %w", err)
	}
	for i := range orders {
		if orders[i].ID == "" {
			logging.Warn().Msg("skipping order without ID")
			continue
		}
		if err := m.store.PutOrder(ctx, &orders[i]); err != nil {
			return fmt.Errorf("store order %s: %w", orders[i].ID, err)
		}
		metrics.SyncRecordsProcessed.WithLabelValues("order").Inc()
	}

	return nil
}

// categorizeError maps a sync failure to a metrics label.
func categorizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "fetch"):
		return "upstream"
	case strings.Contains(msg, "decode"):
		return "decode"
	case strings.Contains(msg, "store"):
		return "store"
	default:
		return "other"
	}
}
