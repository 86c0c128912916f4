// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package render implements FrameManager, the multi-queue priority
// scheduler that ticks at a fixed rate, selects one winning frame per
// output channel per tick, and dispatches it.
//
// The scheduler owns exactly one goroutine. Every external operation
// (Submit, Pause, Resume, Step, SetRate, Snapshot) is a command sent over a
// channel to that goroutine rather than a lock taken by the caller — the Go
// mapping of "single-threaded cooperative multitasking on one event loop"
// (spec.md §5) described in SPEC_FULL.md §5.
package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hollowstrand/ledcore/color"
	"github.com/hollowstrand/ledcore/frame"
	"github.com/hollowstrand/ledcore/internal/channel"
	"github.com/hollowstrand/ledcore/internal/zone"
)

// DefaultTickRateHz is the default render tick rate.
const DefaultTickRateHz = 60

// DefaultQueueCapacity is the bounded double-ended queue depth per
// (channel, priority) pair. Newest submission evicts oldest at capacity.
const DefaultQueueCapacity = 2

// DefaultQuarantineThreshold is the number of consecutive apply failures on
// one channel before it is quarantined.
const DefaultQuarantineThreshold = 10

// rollingWindow is the window size for the average tick duration counter.
const rollingWindow = 60

// ErrNotPaused is returned by Step when the manager is not paused.
var ErrNotPaused = errors.New("render: step requires the manager to be paused")

// ErrInvalidRate is returned by SetRate for non-positive values.
var ErrInvalidRate = errors.New("render: rate must be positive")

// ChannelCounters holds per-channel diagnostic counters.
type ChannelCounters struct {
	SelectedByPriority map[frame.Priority]int
	Expired            int
	DroppedOnOverflow  int
	Quarantined        bool
}

// Snapshot is the read-only view returned by Manager.Snapshot.
type Snapshot struct {
	LastRendered      map[channel.ID]frame.Frame
	Counters          map[channel.ID]ChannelCounters
	AverageTickTime   time.Duration
	TickRateHz        int
	EffectiveTickRate int
	Paused            bool
}

type queueKey struct {
	ch       channel.ID
	priority frame.Priority
}

type channelState struct {
	ch                *channel.Channel
	queues            map[frame.Priority][]frame.Frame
	lastRendered      frame.Frame
	lastRenderedAt    time.Time
	selectedByPrio    map[frame.Priority]int
	expiredCount      int
	droppedOverflow   int
	consecutiveFails  int
	quarantined       bool
	zonePixelCounts   map[zone.ID]int
}

func newChannelState(ch *channel.Channel, zonePixelCounts map[zone.ID]int) *channelState {
	return &channelState{
		ch:              ch,
		queues:          make(map[frame.Priority][]frame.Frame),
		selectedByPrio:  make(map[frame.Priority]int),
		zonePixelCounts: zonePixelCounts,
	}
}

// Manager is the FrameManager described in spec.md §4.2.
type Manager struct {
	log zerolog.Logger

	cmdCh chan command
	done  chan struct{}
	// finished is closed once the run loop actually exits, so Stop can block
	// until cleanup (e.g. final channel clears performed by the caller) is
	// safe to assume has happened.
	finished chan struct{}

	// state below is only ever touched on the run-loop goroutine.
	channels           map[channel.ID]*channelState
	order              []channel.ID
	rateHz             int
	quarantineThresh   int
	paused             bool
	tickDurations      []time.Duration
	tickDurationsIdx   int
}

// Option configures a Manager at construction time.
type Option func(*Manager)

// WithTickRate overrides DefaultTickRateHz.
func WithTickRate(hz int) Option {
	return func(m *Manager) { m.rateHz = hz }
}

// WithQuarantineThreshold overrides DefaultQuarantineThreshold.
func WithQuarantineThreshold(n int) Option {
	return func(m *Manager) { m.quarantineThresh = n }
}

// NewManager constructs a Manager over the given channels. zonePixelCounts
// maps each channel's zones to their configured pixel counts, used to
// validate PixelFrames before they are dispatched.
func NewManager(log zerolog.Logger, channels map[channel.ID]*channel.Channel, zonePixelCounts map[channel.ID]map[zone.ID]int, opts ...Option) *Manager {
	m := &Manager{
		log:              log,
		cmdCh:            make(chan command, 256),
		done:             make(chan struct{}),
		finished:         make(chan struct{}),
		channels:         make(map[channel.ID]*channelState),
		rateHz:           DefaultTickRateHz,
		quarantineThresh: DefaultQuarantineThreshold,
	}
	for id, ch := range channels {
		m.channels[id] = newChannelState(ch, zonePixelCounts[id])
		m.order = append(m.order, id)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run blocks, executing the tick loop, until ctx is cancelled or Stop is
// called. It is meant to be run on its own goroutine.
func (m *Manager) Run(ctx context.Context) {
	defer close(m.finished)
	timer := time.NewTimer(m.tickInterval())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case cmd := <-m.cmdCh:
			m.handle(ctx, cmd)
		case <-timer.C:
			m.tick(ctx, false)
			timer.Reset(m.tickInterval())
		}
	}
}

// Stop requests the run loop to exit and waits for it to finish.
func (m *Manager) Stop() {
	select {
	case <-m.done:
	default:
		close(m.done)
	}
	<-m.finished
}

func (m *Manager) tickInterval() time.Duration {
	if m.rateHz <= 0 {
		return time.Second / time.Duration(DefaultTickRateHz)
	}
	return time.Second / time.Duration(m.rateHz)
}

// maxMinFlushInterval returns the slowest MinFlushInterval configured across
// every channel the manager owns.
func (m *Manager) maxMinFlushInterval() time.Duration {
	var longest time.Duration
	for _, st := range m.channels {
		if iv := st.ch.MinFlushInterval(); iv > longest {
			longest = iv
		}
	}
	return longest
}

// effectiveTickRateHz is the tick rate actually achievable given the
// configured rate and every channel's MinFlushInterval: §4.2 requires the
// scheduler to enforce the minimum flush interval "even if the tick budget
// is smaller," and §8 requires that clamp to be visible via Snapshot.
func (m *Manager) effectiveTickRateHz() int {
	budget := m.tickInterval()
	floor := m.maxMinFlushInterval()
	if floor <= budget {
		return m.rateHz
	}
	return int(time.Second / floor)
}

// --- commands -------------------------------------------------------------

type command interface{ isCommand() }

type submitCmd struct {
	channel channel.ID
	f       frame.Frame
}

func (submitCmd) isCommand() {}

type pauseCmd struct{}

func (pauseCmd) isCommand() {}

type resumeCmd struct{}

func (resumeCmd) isCommand() {}

type stepCmd struct{ resp chan error }

func (stepCmd) isCommand() {}

type setRateCmd struct {
	hz   int
	resp chan error
}

func (setRateCmd) isCommand() {}

type snapshotCmd struct{ resp chan Snapshot }

func (snapshotCmd) isCommand() {}

// Submit queues a frame for the next tick. Never blocks except under
// extreme backpressure on the internal command channel, and never errors:
// the oldest frame at the same priority is evicted instead.
func (m *Manager) Submit(ch channel.ID, f frame.Frame) {
	m.cmdCh <- submitCmd{channel: ch, f: f}
}

// Pause halts rendering; staged state is preserved.
func (m *Manager) Pause() { m.cmdCh <- pauseCmd{} }

// Resume resumes rendering after Pause, and clears channel quarantine
// state (§4.2: quarantine is "skipped until the next pause/resume cycle").
func (m *Manager) Resume() { m.cmdCh <- resumeCmd{} }

// Step executes exactly one tick regardless of pause state... except it
// requires the manager to already be paused, per spec.md §4.2's table.
func (m *Manager) Step() error {
	resp := make(chan error, 1)
	m.cmdCh <- stepCmd{resp: resp}
	return <-resp
}

// SetRate updates the tick rate, effective at the next tick boundary.
func (m *Manager) SetRate(hz int) error {
	resp := make(chan error, 1)
	m.cmdCh <- setRateCmd{hz: hz, resp: resp}
	return <-resp
}

// Snapshot returns the last rendered frame per channel plus counters.
func (m *Manager) Snapshot() Snapshot {
	resp := make(chan Snapshot, 1)
	m.cmdCh <- snapshotCmd{resp: resp}
	return <-resp
}

// LastRenderedOn returns the most recent frame dispatched on ch, if any.
// Used by engine to seed cross-fade "from" buffers without wiring a full
// Snapshot round trip at every call site.
func (m *Manager) LastRenderedOn(ch channel.ID) (frame.Frame, bool) {
	snap := m.Snapshot()
	f, ok := snap.LastRendered[ch]
	return f, ok
}

func (m *Manager) handle(ctx context.Context, cmd command) {
	switch c := cmd.(type) {
	case submitCmd:
		m.enqueue(c.channel, c.f)
	case pauseCmd:
		m.paused = true
	case resumeCmd:
		m.paused = false
		for _, st := range m.channels {
			st.consecutiveFails = 0
			st.quarantined = false
		}
	case stepCmd:
		if !m.paused {
			c.resp <- ErrNotPaused
			return
		}
		m.tick(ctx, true)
		c.resp <- nil
	case setRateCmd:
		if c.hz <= 0 {
			c.resp <- ErrInvalidRate
			return
		}
		m.rateHz = c.hz
		c.resp <- nil
	case snapshotCmd:
		c.resp <- m.buildSnapshot()
	}
}

func (m *Manager) enqueue(chID channel.ID, f frame.Frame) {
	st, ok := m.channels[chID]
	if !ok {
		m.log.Warn().Str("channel", string(chID)).Msg("submit: unknown channel, dropped")
		return
	}
	prio := f.Info().Priority
	q := st.queues[prio]
	q = append(q, f)
	if len(q) > DefaultQueueCapacity {
		q = q[len(q)-DefaultQueueCapacity:]
		st.droppedOverflow++
	}
	st.queues[prio] = q
}

// tick runs exactly one render tick: select a winner per channel, dispatch
// it, update caches and counters.
func (m *Manager) tick(ctx context.Context, stepping bool) {
	if m.paused && !stepping {
		return
	}
	start := time.Now()

	for _, id := range m.order {
		st := m.channels[id]
		if st.quarantined {
			continue
		}
		m.tickChannel(ctx, st, start)
	}

	dur := time.Since(start)
	m.recordTickDuration(dur)

	if stepping {
		m.paused = true
	}
}

func (m *Manager) tickChannel(ctx context.Context, st *channelState, now time.Time) {
	winner := m.selectWinner(st, now)
	if winner == nil {
		if st.lastRendered != nil && !st.lastRendered.Info().Expired(now) {
			winner = st.lastRendered
		} else {
			winner = frame.NewFullStrip(color.Black, frame.PriorityIdle, frame.SourceIdle, frame.DefaultTTL)
		}
	}

	if err := m.dispatch(ctx, st, winner); err != nil {
		st.consecutiveFails++
		m.log.Error().Err(err).Str("channel", string(st.ch.ID())).
			Str("priority", winner.Info().Priority.String()).
			Str("source", winner.Info().Source.String()).
			Msg("channel apply failed")
		if st.consecutiveFails >= m.quarantineThresh {
			st.quarantined = true
			m.log.Warn().Str("channel", string(st.ch.ID())).Msg("channel quarantined after consecutive failures")
		}
		return
	}
	st.consecutiveFails = 0
	st.lastRendered = winner
	st.lastRenderedAt = now
	st.selectedByPrio[winner.Info().Priority]++
}

// selectWinner walks priorities from highest to lowest; within a priority,
// the last non-expired frame wins. Expired frames are discarded (and
// counted) as they're encountered.
func (m *Manager) selectWinner(st *channelState, now time.Time) frame.Frame {
	for _, prio := range frame.AllPriorities {
		q := st.queues[prio]
		if len(q) == 0 {
			continue
		}
		var kept []frame.Frame
		var winner frame.Frame
		for _, f := range q {
			if f.Info().Expired(now) {
				st.expiredCount++
				continue
			}
			kept = append(kept, f)
			winner = f // last non-expired wins: newest submission in the queue
		}
		st.queues[prio] = kept
		if winner != nil {
			return winner
		}
	}
	return nil
}

func (m *Manager) dispatch(ctx context.Context, st *channelState, f frame.Frame) error {
	switch v := f.(type) {
	case frame.FullStripFrame:
		return st.ch.ApplyFull(ctx, v.Color, v.Source)
	case frame.ZoneFrame:
		return st.ch.ApplyZoneMap(ctx, v.Colors, v.Source)
	case frame.PixelFrame:
		if st.zonePixelCounts != nil {
			if err := frame.ValidatePixelFrame(v, st.zonePixelCounts); err != nil {
				return err
			}
		}
		return st.ch.ApplyPixelFrame(ctx, v.Pixels, v.Source)
	case frame.PreviewFrame:
		return st.ch.ApplyPreview(ctx, v.Pixels, v.Source)
	default:
		return fmt.Errorf("render: unknown frame kind %T", f)
	}
}

func (m *Manager) recordTickDuration(d time.Duration) {
	if m.tickDurations == nil {
		m.tickDurations = make([]time.Duration, 0, rollingWindow)
	}
	if len(m.tickDurations) < rollingWindow {
		m.tickDurations = append(m.tickDurations, d)
	} else {
		m.tickDurations[m.tickDurationsIdx] = d
	}
	m.tickDurationsIdx = (m.tickDurationsIdx + 1) % rollingWindow
}

func (m *Manager) averageTickDuration() time.Duration {
	if len(m.tickDurations) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range m.tickDurations {
		total += d
	}
	return total / time.Duration(len(m.tickDurations))
}

func (m *Manager) buildSnapshot() Snapshot {
	last := make(map[channel.ID]frame.Frame, len(m.channels))
	counters := make(map[channel.ID]ChannelCounters, len(m.channels))
	for id, st := range m.channels {
		last[id] = st.lastRendered
		byPrio := make(map[frame.Priority]int, len(st.selectedByPrio))
		for k, v := range st.selectedByPrio {
			byPrio[k] = v
		}
		counters[id] = ChannelCounters{
			SelectedByPriority: byPrio,
			Expired:            st.expiredCount,
			DroppedOnOverflow:  st.droppedOverflow,
			Quarantined:        st.quarantined,
		}
	}
	return Snapshot{
		LastRendered:      last,
		Counters:          counters,
		AverageTickTime:   m.averageTickDuration(),
		TickRateHz:        m.rateHz,
		EffectiveTickRate: m.effectiveTickRateHz(),
		Paused:            m.paused,
	}
}
