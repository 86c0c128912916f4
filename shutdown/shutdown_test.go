// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package shutdown

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestHandlersRunInPriorityDescendingOrder(t *testing.T) {
	c := New(zerolog.Nop())
	var mu sync.Mutex
	var order []string

	record := func(name string) func(context.Context) error {
		return func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	c.Register(Handler{Priority: PriorityHardwareRelease, Name: "gpio", Action: record("gpio")})
	c.Register(Handler{Priority: PriorityOutputClear, Name: "clear", Action: record("clear")})
	c.Register(Handler{Priority: PriorityAnimationStop, Name: "animstop", Action: record("animstop")})

	c.ShutdownAll(context.Background())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"clear", "animstop", "gpio"}, order)
}

func TestFailingHandlerDoesNotBlockRemaining(t *testing.T) {
	c := New(zerolog.Nop())
	var ranC bool
	c.Register(Handler{Priority: PriorityOutputClear, Name: "A", Action: func(context.Context) error { return nil }})
	c.Register(Handler{Priority: PriorityAnimationStop, Name: "B", Action: func(context.Context) error { return errors.New("boom") }})
	c.Register(Handler{Priority: PriorityHardwareRelease, Name: "C", Action: func(context.Context) error { ranC = true; return nil }})

	c.ShutdownAll(context.Background())
	assert.True(t, ranC)
}

func TestSlowHandlerTimesOutButSequenceContinues(t *testing.T) {
	c := New(zerolog.Nop(), WithPerHandlerTimeout(10*time.Millisecond))
	var ranAfter bool
	c.Register(Handler{Priority: 90, Name: "slow", Action: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})
	c.Register(Handler{Priority: 20, Name: "after", Action: func(context.Context) error { ranAfter = true; return nil }})

	start := time.Now()
	c.ShutdownAll(context.Background())
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, ranAfter)
}

func TestShutdownAllIsIdempotent(t *testing.T) {
	c := New(zerolog.Nop())
	var calls int
	c.Register(Handler{Priority: 100, Name: "once", Action: func(context.Context) error { calls++; return nil }})

	var wg sync.WaitGroup
	wg.Add(3)
	for i := 0; i < 3; i++ {
		go func() {
			defer wg.Done()
			c.ShutdownAll(context.Background())
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, calls)
}

func TestTotalTimeoutExceededRunsEmergencyCleanup(t *testing.T) {
	c := New(zerolog.Nop(), WithPerHandlerTimeout(50*time.Millisecond), WithTotalTimeout(20*time.Millisecond))
	emergencyRan := make(chan struct{})
	c.RegisterEmergencyCleanup(func() { close(emergencyRan) })

	c.Register(Handler{Priority: 100, Name: "slow1", Action: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})
	c.Register(Handler{Priority: 90, Name: "slow2", Action: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})

	c.ShutdownAll(context.Background())
	select {
	case <-emergencyRan:
	case <-time.After(time.Second):
		t.Fatal("emergency cleanup did not run")
	}
}

func TestPanicInHandlerIsRecoveredAndSequenceContinues(t *testing.T) {
	c := New(zerolog.Nop(), WithPerHandlerTimeout(50*time.Millisecond))
	var ranAfter bool
	c.Register(Handler{Priority: 100, Name: "panicker", Action: func(context.Context) error { panic("oh no") }})
	c.Register(Handler{Priority: 20, Name: "after", Action: func(context.Context) error { ranAfter = true; return nil }})

	require.NotPanics(t, func() { c.ShutdownAll(context.Background()) })
	assert.True(t, ranAfter)
}
