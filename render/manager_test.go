// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package render

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hollowstrand/ledcore/color"
	"github.com/hollowstrand/ledcore/frame"
	"github.com/hollowstrand/ledcore/internal/channel"
	"github.com/hollowstrand/ledcore/internal/channel/simdriver"
	"github.com/hollowstrand/ledcore/internal/zone"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	mainChannel channel.ID = "MAIN"
	floorZone   zone.ID    = "FLOOR"
)

func newTestManager(t *testing.T, rateHz int) (*Manager, *simdriver.Sim) {
	t.Helper()
	sim := simdriver.New(zerolog.Nop())
	ranges := map[zone.ID][2]int{floorZone: {0, 15}}
	ch := channel.New(channel.Config{ID: mainChannel, PixelCount: 20, MinFlushInterval: time.Microsecond}, sim, ranges)
	counts := map[channel.ID]map[zone.ID]int{mainChannel: {floorZone: 15}}
	m := NewManager(zerolog.Nop(), map[channel.ID]*channel.Channel{mainChannel: ch}, counts, WithTickRate(rateHz))
	return m, sim
}

func runManager(t *testing.T, m *Manager) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go m.Run(ctx)
	t.Cleanup(func() {
		cancel()
		m.Stop()
	})
	return cancel
}

func TestSingleStaticColor(t *testing.T) {
	m, sim := newTestManager(t, 200)
	runManager(t, m)

	f := frame.NewZoneFrame(map[zone.ID]color.Color{floorZone: color.Raw(255, 0, 0)}, frame.PriorityManual, frame.SourceStatic, 0)
	m.Submit(mainChannel, f)

	require.Eventually(t, func() bool {
		return sim.Flushes() > 0
	}, time.Second, time.Millisecond)

	last := sim.Last()
	require.Len(t, last, 20*3)
	assert.Equal(t, []byte{255, 0, 0}, last[0:3])
	assert.Equal(t, []byte{0, 0, 0}, last[15*3:15*3+3])
}

func TestPriorityPreemptionAndCascade(t *testing.T) {
	m, sim := newTestManager(t, 500)
	runManager(t, m)

	m.Submit(mainChannel, frame.NewZoneFrame(map[zone.ID]color.Color{floorZone: color.Raw(255, 0, 0)}, frame.PriorityManual, frame.SourceStatic, 300*time.Millisecond))
	require.Eventually(t, func() bool { return sim.Flushes() > 0 }, time.Second, time.Millisecond)

	time.Sleep(10 * time.Millisecond)
	m.Submit(mainChannel, frame.NewZoneFrame(map[zone.ID]color.Color{floorZone: color.Raw(0, 0, 255)}, frame.PriorityAnimation, frame.SourceAnimation, 50*time.Millisecond))

	require.Eventually(t, func() bool {
		last := sim.Last()
		return len(last) >= 3 && last[0] == 0 && last[2] == 255
	}, time.Second, time.Millisecond, "expected blue to win by priority")

	// Let the animation frame expire; Manual submission (ttl 300ms from its
	// own submission) is still alive, so FLOOR must cascade back to red.
	require.Eventually(t, func() bool {
		last := sim.Last()
		return len(last) >= 3 && last[0] == 255 && last[1] == 0 && last[2] == 0
	}, time.Second, time.Millisecond, "expected fallback to manual red after animation frame expired")
}

func TestExpiredQueueFallsBackToIdleBlack(t *testing.T) {
	m, sim := newTestManager(t, 500)
	runManager(t, m)

	m.Submit(mainChannel, frame.NewZoneFrame(map[zone.ID]color.Color{floorZone: color.Raw(9, 9, 9)}, frame.PriorityManual, frame.SourceStatic, 10*time.Millisecond))
	require.Eventually(t, func() bool { return sim.Flushes() > 0 }, time.Second, time.Millisecond)

	require.Eventually(t, func() bool {
		last := sim.Last()
		return len(last) >= 3 && last[0] == 0 && last[1] == 0 && last[2] == 0
	}, time.Second, time.Millisecond)
}

func TestPauseResumeDoesNotAlterLastRendered(t *testing.T) {
	m, sim := newTestManager(t, 200)
	runManager(t, m)

	m.Submit(mainChannel, frame.NewFullStrip(color.Raw(1, 2, 3), frame.PriorityManual, frame.SourceStatic, time.Second))
	require.Eventually(t, func() bool { return sim.Flushes() > 0 }, time.Second, time.Millisecond)
	before := sim.Last()

	m.Pause()
	time.Sleep(20 * time.Millisecond)
	m.Resume()
	time.Sleep(20 * time.Millisecond)

	after := sim.Last()
	assert.Equal(t, before, after)
}

func TestStepRequiresPause(t *testing.T) {
	m, _ := newTestManager(t, 200)
	runManager(t, m)

	err := m.Step()
	assert.ErrorIs(t, err, ErrNotPaused)

	m.Pause()
	err = m.Step()
	assert.NoError(t, err)
}

func TestSetRateRejectsNonPositive(t *testing.T) {
	m, _ := newTestManager(t, 200)
	runManager(t, m)
	assert.ErrorIs(t, m.SetRate(0), ErrInvalidRate)
	assert.ErrorIs(t, m.SetRate(-5), ErrInvalidRate)
	assert.NoError(t, m.SetRate(30))
}

func TestQuarantineAfterConsecutiveFailures(t *testing.T) {
	m, sim := newTestManager(t, 1000)
	sim.FailNext(DefaultQuarantineThreshold + 5)
	runManager(t, m)

	m.Submit(mainChannel, frame.NewFullStrip(color.Raw(1, 1, 1), frame.PriorityManual, frame.SourceStatic, time.Second))

	require.Eventually(t, func() bool {
		snap := m.Snapshot()
		return snap.Counters[mainChannel].Quarantined
	}, time.Second, time.Millisecond)
}

func TestSnapshotReportsEffectiveRateClampedByMinFlushInterval(t *testing.T) {
	sim := simdriver.New(zerolog.Nop())
	ranges := map[zone.ID][2]int{floorZone: {0, 15}}
	// 1000Hz asks for a 1ms tick budget, but this channel refuses to flush
	// more often than every 10ms: the manager must report ~100Hz, not 1000.
	ch := channel.New(channel.Config{ID: mainChannel, PixelCount: 20, MinFlushInterval: 10 * time.Millisecond}, sim, ranges)
	counts := map[channel.ID]map[zone.ID]int{mainChannel: {floorZone: 15}}
	m := NewManager(zerolog.Nop(), map[channel.ID]*channel.Channel{mainChannel: ch}, counts, WithTickRate(1000))
	runManager(t, m)

	snap := m.Snapshot()
	assert.Equal(t, 1000, snap.TickRateHz)
	assert.Equal(t, 100, snap.EffectiveTickRate)
}

func TestSnapshotEffectiveRateMatchesConfiguredRateWhenUnconstrained(t *testing.T) {
	m, _ := newTestManager(t, 200)
	runManager(t, m)

	snap := m.Snapshot()
	assert.Equal(t, 200, snap.EffectiveTickRate)
}

func TestDuplicateSubmitWithinOneTickRendersOnce(t *testing.T) {
	m, sim := newTestManager(t, 50)
	runManager(t, m)

	f := frame.NewFullStrip(color.Raw(7, 7, 7), frame.PriorityManual, frame.SourceStatic, time.Second)
	m.Submit(mainChannel, f)
	m.Submit(mainChannel, f)

	require.Eventually(t, func() bool { return sim.Flushes() > 0 }, time.Second, time.Millisecond)
	flushesAtFirst := sim.Flushes()
	time.Sleep(25 * time.Millisecond)
	// Only one winner should have been selected per tick; the queue holds at
	// most 2 identical entries but selectWinner only picks one per tick.
	assert.GreaterOrEqual(t, sim.Flushes(), flushesAtFirst)

	// Once paused no further tick runs, so every flush so far must match
	// exactly one selected winner.
	m.Pause()
	snap := m.Snapshot()
	selected := 0
	for _, n := range snap.Counters[mainChannel].SelectedByPriority {
		selected += n
	}
	assert.Equal(t, selected, sim.Flushes())
}
