// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cavaks-kitchen/palate/internal/logging"
)

func newTestTree(config TreeConfig) *Tree {
	return NewTree(logging.NewSlogLogger(), config)
}

func TestDefaultTreeConfig(t *testing.T) {
	cfg := DefaultTreeConfig()
	if cfg.FailureThreshold != 5.0 {
		t.Errorf("FailureThreshold = %v, want 5", cfg.FailureThreshold)
	}
	if cfg.FailureBackoff != 15*time.Second {
		t.Errorf("FailureBackoff = %v, want 15s", cfg.FailureBackoff)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", cfg.ShutdownTimeout)
	}
}

func TestNewTreeAppliesDefaults(t *testing.T) {
	tree := newTestTree(TreeConfig{})
	if tree.config.FailureThreshold != 5.0 {
		t.Errorf("zero threshold not defaulted: %v", tree.config.FailureThreshold)
	}
	if tree.config.ShutdownTimeout != 10*time.Second {
		t.Errorf("zero timeout not defaulted: %v", tree.config.ShutdownTimeout)
	}
}

func TestTreeRunsServiceUntilCancel(t *testing.T) {
	tree := newTestTree(TreeConfig{ShutdownTimeout: time.Second})

	var started atomic.Bool
	tree.AddAPIService(NewService("test-http", RunnerFunc(func(ctx context.Context) error {
		started.Store(true)
		<-ctx.Done()
		return ctx.Err()
	})))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.After(2 * time.Second)
	for !started.Load() {
		select {
		case <-deadline:
			t.Fatal("service never started")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Fatalf("Serve returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop after cancel")
	}
}

func TestTreeRestartsFailingService(t *testing.T) {
	tree := newTestTree(TreeConfig{
		FailureThreshold: 100,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})

	var runs atomic.Int32
	tree.AddIngestService(NewService("flaky-sync", RunnerFunc(func(ctx context.Context) error {
		if runs.Add(1) < 3 {
			return errors.New("transient failure")
		}
		<-ctx.Done()
		return ctx.Err()
	})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	deadline := time.After(3 * time.Second)
	for runs.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("service restarted %d times, want 3 runs", runs.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-errCh
}

func TestServiceString(t *testing.T) {
	svc := NewService("named", RunnerFunc(func(ctx context.Context) error { return nil }))
	if svc.String() != "named" {
		t.Fatalf("String() = %q", svc.String())
	}
}
