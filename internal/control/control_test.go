// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package control

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
	"github.com/hollowstrand/ledcore/engine"
	intchannel "github.com/hollowstrand/ledcore/internal/channel"
	"github.com/hollowstrand/ledcore/internal/channel/simdriver"
	"github.com/hollowstrand/ledcore/internal/zone"
	"github.com/hollowstrand/ledcore/render"
	"github.com/hollowstrand/ledcore/tasks"
	"github.com/hollowstrand/ledcore/transition"
)

const mainCh intchannel.ID = "MAIN"
const lampZone zone.ID = "LAMP"

type harness struct {
	mgr    *render.Manager
	facade *Facade
	cancel context.CancelFunc
	done   chan struct{}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := zerolog.Nop()
	drv := simdriver.New(log)
	ch := intchannel.New(intchannel.Config{ID: mainCh, PixelCount: 4}, drv, map[zone.ID][2]int{lampZone: {0, 4}})
	mgr := render.NewManager(log, map[intchannel.ID]*intchannel.Channel{mainCh: ch},
		map[intchannel.ID]map[zone.ID]int{mainCh: {lampZone: 4}}, render.WithTickRate(500))

	trans := transition.New(mgr, log)
	reg := tasks.NewRegistry()
	eng := engine.New(log, mgr, mgr, trans, reg,
		func(zone.ID) intchannel.ID { return mainCh },
		map[zone.ID]int{lampZone: 4},
		map[zone.ID]color.Color{lampZone: color.Raw(5, 5, 5)},
		500)

	zones := map[zone.ID]ZoneInfo{
		lampZone: {Channel: mainCh, PixelCount: 4, StaticColor: color.Raw(5, 5, 5)},
	}
	facade := New(log, mgr, eng, trans, zones, 500)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		mgr.Run(ctx)
	}()

	h := &harness{mgr: mgr, facade: facade, cancel: cancel, done: done}
	t.Cleanup(func() {
		h.cancel()
		<-h.done
	})
	return h
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSetZoneColorSubmitsManualFrame(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.facade.SetZoneColor(lampZone, color.Raw(100, 100, 100), 128))

	require.Eventually(t, func() bool {
		snap := h.mgr.Snapshot()
		return snap.LastRendered[mainCh] != nil
	}, time.Second, time.Millisecond)
}

func TestSetZoneColorOnUnknownZoneErrors(t *testing.T) {
	h := newHarness(t)
	err := h.facade.SetZoneColor(zone.ID("GHOST"), color.Raw(1, 1, 1), 255)
	assert.Error(t, err)
}

func TestStartAndStopAnimationRoundTrip(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.facade.StartAnimation(context.Background(), lampZone, animation.Breathe, nil))
	require.NoError(t, h.facade.StopAnimation(context.Background(), lampZone, true))
}

func TestUpdateAnimationParameterOnUnknownZoneErrors(t *testing.T) {
	h := newHarness(t)
	err := h.facade.UpdateAnimationParameter(zone.ID("GHOST"), "speed", animation.IntValue(10))
	assert.Error(t, err)
}

func TestPowerOffThenPowerOnCompletesWithoutError(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.facade.StartAnimation(context.Background(), lampZone, animation.ColorCycle, nil))
	require.NoError(t, h.facade.PowerOff(context.Background()))
	require.NoError(t, h.facade.PowerOn(context.Background()))
}
