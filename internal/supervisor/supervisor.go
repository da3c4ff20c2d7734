// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package supervisor starts and drains the node's best-effort
// background tasks (mempool TTL sweeps, peer-memory flushes, dial
// tracker decay) under a single errgroup, so shutdown cancels every
// ticker goroutine from one place instead of each package managing its
// own lifecycle.
package supervisor

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/decred/slog"
)

var log = slog.Disabled

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger slog.Logger) {
	log = logger
}

// Task is one periodic background job: run is invoked every interval
// until ctx is canceled.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Supervisor runs a fixed set of Tasks under one errgroup and context,
// so Stop cancels and drains every one of them together.
type Supervisor struct {
	tasks  []Task
	group  *errgroup.Group
	cancel context.CancelFunc
}

// New constructs a Supervisor for the given tasks. Nothing runs until
// Start is called.
func New(tasks []Task) *Supervisor {
	return &Supervisor{tasks: tasks}
}

// Start launches every task's ticker loop in the shared errgroup.
func (s *Supervisor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	g, gctx := errgroup.WithContext(ctx)
	s.group = g

	for _, t := range s.tasks {
		t := t
		g.Go(func() error {
			ticker := time.NewTicker(t.Interval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if err := t.Run(gctx); err != nil {
						log.Warnf("background task %q returned an error: %v", t.Name, err)
					}
				}
			}
		})
	}
}

// Stop cancels every task and blocks until they have all returned, or
// ctx expires first.
func (s *Supervisor) Stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()

	done := make(chan error, 1)
	go func() { done <- s.group.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
