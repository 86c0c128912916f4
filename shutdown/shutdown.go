// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package shutdown implements ShutdownCoordinator (spec.md §4.7): ordered,
// priority-descending invocation of registered shutdown handlers under
// per-handler and total timeouts, guaranteeing LEDs are darkened and
// hardware is released on every exit path.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// emergencyTimeout bounds the last-resort hardware cleanup hook.
const emergencyTimeout = 2 * time.Second

// Canonical priority bands (§4.7's "Canonical handler order").
const (
	PriorityOutputClear     = 100
	PriorityAnimationStop   = 90
	PriorityExternalAPI     = 80
	PriorityComponent       = 50
	PriorityManagedTasks    = 40
	PriorityRemainingTasks  = 40
	PriorityHardwareRelease = 20
)

// DefaultPerHandlerTimeout bounds a single handler's execution.
const DefaultPerHandlerTimeout = 5 * time.Second

// DefaultTotalTimeout bounds the entire shutdown sequence.
const DefaultTotalTimeout = 15 * time.Second

// Handler is a named, prioritized shutdown action. Priority order is
// descending: higher numbers run first.
type Handler struct {
	Priority int
	Name     string
	Action   func(ctx context.Context) error
}

// Coordinator is the process-wide ShutdownCoordinator. The zero value is
// not usable; construct with New.
type Coordinator struct {
	log               zerolog.Logger
	perHandlerTimeout time.Duration
	totalTimeout      time.Duration

	mu        sync.Mutex
	handlers  []Handler
	triggered bool
	done      chan struct{}

	emergency func()
}

// Option configures a Coordinator at construction time.
type Option func(*Coordinator)

// WithPerHandlerTimeout overrides DefaultPerHandlerTimeout.
func WithPerHandlerTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.perHandlerTimeout = d }
}

// WithTotalTimeout overrides DefaultTotalTimeout.
func WithTotalTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.totalTimeout = d }
}

// New constructs a Coordinator.
func New(log zerolog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		log:               log,
		perHandlerTimeout: DefaultPerHandlerTimeout,
		totalTimeout:      DefaultTotalTimeout,
		done:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register adds a shutdown handler. Safe to call concurrently with
// WaitForSignal/ShutdownAll only before shutdown has been triggered;
// registering after triggering is a programming error the caller should
// avoid (handlers added afterward are skipped, with a logged warning).
func (c *Coordinator) Register(h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.triggered {
		c.log.Warn().Str("handler", h.Name).Msg("shutdown: handler registered after shutdown already triggered, ignored")
		return
	}
	c.handlers = append(c.handlers, h)
}

// RegisterEmergencyCleanup installs the last-resort, no-await hook run if
// the total timeout is exceeded (§4.7 step 6). fn must not block.
func (c *Coordinator) RegisterEmergencyCleanup(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emergency = fn
}

// WaitForSignal blocks until SIGINT, SIGTERM, or ctx is cancelled, then
// runs ShutdownAll. It returns once the shutdown sequence completes.
func (c *Coordinator) WaitForSignal(ctx context.Context) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		c.log.Info().Str("signal", sig.String()).Msg("shutdown: signal received")
	case <-ctx.Done():
		c.log.Info().Msg("shutdown: context cancelled")
	}
	c.ShutdownAll(context.Background())
}

// Trigger runs the shutdown sequence programmatically (e.g. a control-API
// /shutdown operation), without waiting for an OS signal.
func (c *Coordinator) Trigger(ctx context.Context) {
	c.ShutdownAll(ctx)
}

// Done is closed once the first ShutdownAll call has run to completion;
// duplicate calls do not close it themselves.
func (c *Coordinator) Done() <-chan struct{} { return c.done }

// ShutdownAll runs every registered handler in priority-descending order,
// each bounded by perHandlerTimeout, the whole sequence bounded by
// totalTimeout. A second call while (or after) a first is in flight is a
// no-op: it returns immediately once the first completes (§4.7's "shutdown
// already in progress... idempotent, second signal is ignored").
func (c *Coordinator) ShutdownAll(ctx context.Context) {
	c.mu.Lock()
	if c.triggered {
		c.mu.Unlock()
		<-c.done
		return
	}
	c.triggered = true
	handlers := make([]Handler, len(c.handlers))
	copy(handlers, c.handlers)
	emergency := c.emergency
	c.mu.Unlock()

	sort.SliceStable(handlers, func(i, j int) bool { return handlers[i].Priority > handlers[j].Priority })

	start := time.Now()
	timedOut := false
	for _, h := range handlers {
		if time.Since(start) > c.totalTimeout {
			c.log.Warn().Str("handler", h.Name).Msg("shutdown: total timeout exceeded, aborting remaining handlers")
			timedOut = true
			break
		}
		c.runHandler(ctx, h)
	}

	if timedOut && emergency != nil {
		c.log.Warn().Msg("shutdown: running emergency hardware cleanup")
		// errgroup runs the cleanup hook, and the wait for it is bounded by
		// emergencyTimeout, without making it one of several
		// concurrently-run handlers (§5: shutdown stays sequential).
		egCtx, cancel := context.WithTimeout(context.Background(), emergencyTimeout)
		g, _ := errgroup.WithContext(egCtx)
		finished := make(chan struct{})
		g.Go(func() error {
			defer close(finished)
			emergency()
			return nil
		})
		select {
		case <-finished:
			if err := g.Wait(); err != nil {
				c.log.Error().Err(err).Msg("shutdown: emergency cleanup failed")
			}
		case <-egCtx.Done():
			c.log.Warn().Msg("shutdown: emergency cleanup did not finish within its timeout")
		}
		cancel()
	}

	close(c.done)
}

func (c *Coordinator) runHandler(ctx context.Context, h Handler) {
	hctx, cancel := context.WithTimeout(ctx, c.perHandlerTimeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				errCh <- &panicError{v: r}
				return
			}
		}()
		errCh <- h.Action(hctx)
	}()

	select {
	case <-hctx.Done():
		c.log.Warn().Str("handler", h.Name).Int("priority", h.Priority).Msg("shutdown: handler timed out")
	case err := <-errCh:
		if err != nil {
			c.log.Error().Err(err).Str("handler", h.Name).Int("priority", h.Priority).Msg("shutdown: handler errored")
		} else {
			c.log.Debug().Str("handler", h.Name).Int("priority", h.Priority).Msg("shutdown: handler completed")
		}
	}
}

type panicError struct{ v interface{} }

func (p *panicError) Error() string { return "panic in shutdown handler" }
