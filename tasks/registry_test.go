// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRunTrackedCompletes(t *testing.T) {
	reg := NewRegistry()
	done := make(chan struct{})
	_, id := reg.RunTracked(context.Background(), CategoryRender, "noop", "test", func(ctx context.Context) error {
		close(done)
		return nil
	})
	<-done
	require.Eventually(t, func() bool {
		for _, r := range reg.ListAll() {
			if r.ID == id {
				return r.Status() == Completed
			}
		}
		return false
	}, time.Second, time.Millisecond)
}

func TestRunTrackedFails(t *testing.T) {
	reg := NewRegistry()
	wantErr := errors.New("boom")
	_, id := reg.RunTracked(context.Background(), CategoryAnimation, "failer", "test", func(ctx context.Context) error {
		return wantErr
	})
	require.Eventually(t, func() bool {
		for _, r := range reg.ListAll() {
			if r.ID == id {
				return r.Status() == Failed
			}
		}
		return false
	}, time.Second, time.Millisecond)
	for _, r := range reg.Failed() {
		if r.ID == id {
			assert.Equal(t, "boom", r.Error())
		}
	}
}

func TestRunTrackedCancelledOnContextCancel(t *testing.T) {
	reg := NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	_, id := reg.RunTracked(ctx, CategoryAnimation, "cancellable", "test", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	<-started
	cancel()
	require.Eventually(t, func() bool {
		for _, r := range reg.Cancelled() {
			if r.ID == id {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond)
}

func TestRunTrackedRecoversPanic(t *testing.T) {
	reg := NewRegistry()
	_, id := reg.RunTracked(context.Background(), CategoryGeneral, "panicker", "test", func(ctx context.Context) error {
		panic("oh no")
	})
	require.Eventually(t, func() bool {
		for _, r := range reg.Failed() {
			if r.ID == id {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond)
}

func TestSummaryCounts(t *testing.T) {
	reg := NewRegistry()
	block := make(chan struct{})
	reg.RunTracked(context.Background(), CategoryRender, "blocked", "test", func(ctx context.Context) error {
		<-block
		return nil
	})
	reg.RunTracked(context.Background(), CategoryRender, "fails", "test", func(ctx context.Context) error {
		return errors.New("x")
	})

	require.Eventually(t, func() bool {
		return reg.Summary().Failed == 1
	}, time.Second, time.Millisecond)

	s := reg.Summary()
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.Active)
	assert.Equal(t, 1, s.Failed)
	close(block)
}
