// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package engine

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hollowstrand/ledcore/animation"
	"github.com/hollowstrand/ledcore/color"
	"github.com/hollowstrand/ledcore/frame"
	intchannel "github.com/hollowstrand/ledcore/internal/channel"
	"github.com/hollowstrand/ledcore/internal/channel/simdriver"
	"github.com/hollowstrand/ledcore/internal/zone"
	"github.com/hollowstrand/ledcore/render"
	"github.com/hollowstrand/ledcore/tasks"
	"github.com/hollowstrand/ledcore/transition"
)

const mainCh intchannel.ID = "MAIN"
const lampZone zone.ID = "LAMP"

// harness wires a Manager + Channel + Engine together and runs the
// Manager's tick loop for the duration of the test.
type harness struct {
	mgr    *render.Manager
	engine *Engine
	cancel context.CancelFunc
	done   chan struct{}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := zerolog.Nop()
	drv := simdriver.New(log)
	ch := intchannel.New(intchannel.Config{ID: mainCh, PixelCount: 4}, drv, map[zone.ID][2]int{lampZone: {0, 4}})
	mgr := render.NewManager(log, map[intchannel.ID]*intchannel.Channel{mainCh: ch},
		map[intchannel.ID]map[zone.ID]int{mainCh: {lampZone: 4}},
		render.WithTickRate(500))

	trans := transition.New(mgr, log)
	reg := tasks.NewRegistry()
	eng := New(log, mgr, mgr, trans, reg,
		func(zone.ID) intchannel.ID { return mainCh },
		map[zone.ID]int{lampZone: 4},
		map[zone.ID]color.Color{lampZone: color.Raw(5, 5, 5)},
		500)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		mgr.Run(ctx)
	}()

	h := &harness{mgr: mgr, engine: eng, cancel: cancel, done: done}
	t.Cleanup(func() {
		h.cancel()
		<-h.done
	})
	return h
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestStartTransitionsZoneToRunning(t *testing.T) {
	h := newHarness(t)
	err := h.engine.Start(context.Background(), lampZone, animation.Breathe, nil)
	require.NoError(t, err)
	assert.Equal(t, StateRunning, h.engine.StateOf(lampZone))
}

func TestStopReturnsZoneToIdleAndFadesToStatic(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.engine.Start(context.Background(), lampZone, animation.ColorCycle, nil))
	require.Eventually(t, func() bool { return h.engine.StateOf(lampZone) == StateRunning }, time.Second, time.Millisecond)

	require.NoError(t, h.engine.Stop(context.Background(), lampZone, false))
	assert.Equal(t, StateIdle, h.engine.StateOf(lampZone))

	snap := h.mgr.Snapshot()
	f, ok := snap.LastRendered[mainCh]
	require.True(t, ok)
	require.NotNil(t, f)

	// The fade's final step paints LAMP with its static color Raw(5,5,5).
	require.Eventually(t, func() bool {
		zf, ok := h.mgr.Snapshot().LastRendered[mainCh].(frame.ZoneFrame)
		return ok && zf.Colors[lampZone].Equal(color.Raw(5, 5, 5))
	}, time.Second, time.Millisecond, "stop must fade the zone to its static color")
}

func TestStopOnIdleZoneIsNoop(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.engine.Stop(context.Background(), lampZone, true))
	assert.Equal(t, StateIdle, h.engine.StateOf(lampZone))
}

func TestStartTwiceSwitchesRatherThanLeaksATask(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.engine.Start(context.Background(), lampZone, animation.Breathe, nil))
	require.Eventually(t, func() bool { return h.engine.StateOf(lampZone) == StateRunning }, time.Second, time.Millisecond)

	require.NoError(t, h.engine.Start(context.Background(), lampZone, animation.Snake, nil))
	assert.Equal(t, StateRunning, h.engine.StateOf(lampZone))

	h.engine.mu.Lock()
	n := len(h.engine.running)
	h.engine.mu.Unlock()
	assert.Equal(t, 1, n, "switching must leave exactly one running animation on the zone")
}

func TestUpdateParameterReachesRunningAnimation(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.engine.Start(context.Background(), lampZone, animation.Breathe, nil))
	err := h.engine.UpdateParameter(lampZone, "speed", animation.IntValue(90))
	assert.NoError(t, err)
}

func TestUpdateParameterOnIdleZoneErrors(t *testing.T) {
	h := newHarness(t)
	err := h.engine.UpdateParameter(lampZone, "speed", animation.IntValue(50))
	assert.Error(t, err)
}

func TestStopAllDrainsEveryRunningZone(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.engine.Start(context.Background(), lampZone, animation.Breathe, nil))
	require.Eventually(t, func() bool { return h.engine.StateOf(lampZone) == StateRunning }, time.Second, time.Millisecond)

	h.engine.StopAll(context.Background())
	assert.Equal(t, StateIdle, h.engine.StateOf(lampZone))
}
