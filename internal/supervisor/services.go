// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

package supervisor

import (
	"context"
)

// Runner is any blocking run-until-canceled component. Both the HTTP server
// and the sync manager satisfy it.
type Runner interface {
	Serve(ctx context.Context) error
}

// RunnerFunc adapts a plain function to Runner.
type RunnerFunc func(ctx context.Context) error

func (f RunnerFunc) Serve(ctx context.Context) error { return f(ctx) }

// Service wraps a Runner as a named suture service.
type Service struct {
	name   string
	runner Runner
}

// NewService names a runner for the supervisor's event log.
func NewService(name string, runner Runner) *Service {
	return &Service{name: name, runner: runner}
}

// Serve implements suture.Service.
func (s *Service) Serve(ctx context.Context) error {
	return s.runner.Serve(ctx)
}

// String implements fmt.Stringer for supervisor log entries.
func (s *Service) String() string {
	return s.name
}
