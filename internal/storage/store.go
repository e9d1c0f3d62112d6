// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

// Package storage provides the BadgerDB-backed catalog store. It holds
// menu items, user profiles, purchase histories, and orders under
// typed key prefixes and implements recommend.DataProvider so the
// engine stays decoupled from the persistence layer.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/cavaks-kitchen/palate/internal/metrics"
	"github.com/cavaks-kitchen/palate/internal/recommend"
)

// Key prefixes for BadgerDB storage.
const (
	itemKeyPrefix    = "item:"
	userKeyPrefix    = "user:"
	historyKeyPrefix = "history:"
	orderKeyPrefix   = "order:"
)

var _ recommend.DataProvider = (*Store)(nil)

// Options configures a Store.
type Options struct {
	Path       string
	InMemory   bool
	GCInterval time.Duration
	Logger     zerolog.Logger
}

// Store is a BadgerDB-backed catalog store.
type Store struct {
	db     *badger.DB
	logger zerolog.Logger //nolint:gocritic // zerolog.Logger is designed to be copied

	stopGC chan struct{}
}

// Open opens (or creates) the store at the configured path. When
// InMemory is set the store is ephemeral and holds no files.
func Open(opts Options) (*Store, error) {
	var badgerOpts badger.Options
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Path == "" {
			return nil, errors.New("storage: path is required for a persistent store")
		}
		badgerOpts = badger.DefaultOptions(opts.Path)
	}
	badgerOpts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	s := &Store{
		db:     db,
		logger: opts.Logger,
		stopGC: make(chan struct{}),
	}

	if !opts.InMemory && opts.GCInterval > 0 {
		go s.gcLoop(opts.GCInterval)
	}

	return s, nil
}

// Close stops the value log GC loop and closes the database.
func (s *Store) Close() error {
	close(s.stopGC)
	return s.db.Close()
}

// gcLoop runs Badger value log garbage collection periodically.
func (s *Store) gcLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// ErrNoRewrite is normal when there is nothing to collect
			if err := s.db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				s.logger.Warn().Err(err).Msg("badger value log GC failed")
			}
		case <-s.stopGC:
			return
		}
	}
}

// PutItem stores a single menu item. Items without an ID are rejected.
func (s *Store) PutItem(ctx context.Context, item *recommend.Item) error {
	if item == nil || item.ID == "" {
		return errors.New("storage: item must have an ID")
	}
	return s.put(itemKeyPrefix+item.ID, item, "put_item")
}

// PutItems stores a batch of menu items in a single transaction.
// Items without an ID are skipped. Returns the number stored.
func (s *Store) PutItems(ctx context.Context, items []recommend.Item) (int, error) {
	start := time.Now()
	stored := 0

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for i := range items {
		if items[i].ID == "" {
			s.logger.Warn().Str("name", items[i].Name).Msg("skipping item without ID")
			continue
		}
		data, err := json.Marshal(&items[i])
		if err != nil {
			return stored, fmt.Errorf("marshal item %s: %w", items[i].ID, err)
		}
		if err := wb.Set([]byte(itemKeyPrefix+items[i].ID), data); err != nil {
			metrics.StoreErrors.WithLabelValues("put_items").Inc()
			return stored, fmt.Errorf("batch set item %s: %w", items[i].ID, err)
		}
		stored++
	}

	if err := wb.Flush(); err != nil {
		metrics.StoreErrors.WithLabelValues("put_items").Inc()
		return 0, fmt.Errorf("flush item batch: %w", err)
	}

	metrics.StoreOperationDuration.WithLabelValues("put_items").Observe(time.Since(start).Seconds())
	return stored, nil
}

// DeleteItem removes a menu item. Absent IDs are a no-op.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(itemKeyPrefix + id))
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete item: %w", err)
		}
		return nil
	})
}

// PutProfile stores a user profile.
func (s *Store) PutProfile(ctx context.Context, profile *recommend.UserProfile) error {
	if profile == nil || profile.ID == "" {
		return errors.New("storage: profile must have an ID")
	}
	return s.put(userKeyPrefix+profile.ID, profile, "put_profile")
}

// PutHistory stores a user's purchase and view history.
func (s *Store) PutHistory(ctx context.Context, userID string, history *recommend.UserHistory) error {
	if userID == "" {
		return errors.New("storage: user ID is required")
	}
	return s.put(historyKeyPrefix+userID, history, "put_history")
}

// PutOrder stores a completed order.
func (s *Store) PutOrder(ctx context.Context, order *recommend.Order) error {
	if order == nil || order.ID == "" {
		return errors.New("storage: order must have an ID")
	}
	return s.put(orderKeyPrefix+order.ID, order, "put_order")
}

// put marshals a value and stores it under key.
func (s *Store) put(key string, value interface{}, op string) error {
	start := time.Now()

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		metrics.StoreErrors.WithLabelValues(op).Inc()
		return fmt.Errorf("set %s: %w", key, err)
	}

	metrics.StoreOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	return nil
}

// Items returns all active menu items sorted by ID.
func (s *Store) Items(ctx context.Context) ([]recommend.Item, error) {
	start := time.Now()
	var items []recommend.Item

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(itemKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var item recommend.Item
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &item)
			})
			if err != nil {
				return fmt.Errorf("unmarshal item %s: %w", it.Item().Key(), err)
			}
			if !item.Active {
				continue
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		metrics.StoreErrors.WithLabelValues("items").Inc()
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	metrics.StoreOperationDuration.WithLabelValues("items").Observe(time.Since(start).Seconds())
	metrics.CatalogItems.Set(float64(len(items)))
	return items, nil
}

// ItemByID returns a single item. Inactive items are still returned so
// admin tooling can inspect them.
func (s *Store) ItemByID(ctx context.Context, id string) (*recommend.Item, error) {
	var item recommend.Item
	err := s.get(itemKeyPrefix+id, &item)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, recommend.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Profile returns a user profile.
func (s *Store) Profile(ctx context.Context, userID string) (*recommend.UserProfile, error) {
	var profile recommend.UserProfile
	err := s.get(userKeyPrefix+userID, &profile)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, recommend.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// History returns a user's purchase and view history. Unknown users get
// an empty history, not an error, so anonymous and first-time visitors
// still receive recommendations.
func (s *Store) History(ctx context.Context, userID string) (*recommend.UserHistory, error) {
	var history recommend.UserHistory
	err := s.get(historyKeyPrefix+userID, &history)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return &recommend.UserHistory{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &history, nil
}

// Peers returns every stored user except excludeID as a peer with
// their purchase history attached.
func (s *Store) Peers(ctx context.Context, excludeID string) ([]recommend.PeerUser, error) {
	start := time.Now()
	var peers []recommend.PeerUser

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(userKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			id := strings.TrimPrefix(string(it.Item().Key()), userKeyPrefix)
			if id == excludeID {
				continue
			}

			var profile recommend.UserProfile
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &profile)
			})
			if err != nil {
				return fmt.Errorf("unmarshal profile %s: %w", id, err)
			}

			peer := recommend.PeerUser{UserProfile: profile}
			historyItem, err := txn.Get([]byte(historyKeyPrefix + id))
			if err == nil {
				var history recommend.UserHistory
				if verr := historyItem.Value(func(val []byte) error {
					return json.Unmarshal(val, &history)
				}); verr == nil {
					peer.PurchasedItems = history.PurchasedItems
				}
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("get history %s: %w", id, err)
			}

			peers = append(peers, peer)
		}
		return nil
	})
	if err != nil {
		metrics.StoreErrors.WithLabelValues("peers").Inc()
		return nil, err
	}

	metrics.StoreOperationDuration.WithLabelValues("peers").Observe(time.Since(start).Seconds())
	return peers, nil
}

// Orders returns all stored orders sorted by placement time, newest
// first.
func (s *Store) Orders(ctx context.Context) ([]recommend.Order, error) {
	start := time.Now()
	var orders []recommend.Order

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(orderKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var order recommend.Order
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &order)
			})
			if err != nil {
				return fmt.Errorf("unmarshal order %s: %w", it.Item().Key(), err)
			}
			orders = append(orders, order)
		}
		return nil
	})
	if err != nil {
		metrics.StoreErrors.WithLabelValues("orders").Inc()
		return nil, err
	}

	sort.SliceStable(orders, func(i, j int) bool { return orders[i].PlacedAt.After(orders[j].PlacedAt) })
	metrics.StoreOperationDuration.WithLabelValues("orders").Observe(time.Since(start).Seconds())
	return orders, nil
}

// Counts returns the number of stored items, users, and orders.
func (s *Store) Counts(ctx context.Context) (items, users, orders int, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			switch {
			case strings.HasPrefix(key, itemKeyPrefix):
				items++
			case strings.HasPrefix(key, userKeyPrefix):
				users++
			case strings.HasPrefix(key, orderKeyPrefix):
				orders++
			}
		}
		return nil
	})
	return items, users, orders, err
}

// get fetches and unmarshals the value stored under key.
func (s *Store) get(key string, out interface{}) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
}
