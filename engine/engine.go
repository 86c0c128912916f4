// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package engine implements AnimationEngine (§4.4): it owns at most one
// running animation per zone and orchestrates cross-fade transitions when
// starting, stopping, or switching animations.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hollowstrand/ledcore/animation"
	"github.com/hollowstrand/ledcore/color"
	"github.com/hollowstrand/ledcore/frame"
	"github.com/hollowstrand/ledcore/internal/channel"
	"github.com/hollowstrand/ledcore/internal/zone"
	"github.com/hollowstrand/ledcore/tasks"
	"github.com/hollowstrand/ledcore/transition"
)

// Submitter is the subset of render.Manager the engine needs.
type Submitter interface {
	Submit(ch channel.ID, f frame.Frame)
}

// SnapshotProvider exposes the FrameManager's per-channel last-rendered
// cache, used to seed cross-fade "from" buffers.
type SnapshotProvider interface {
	LastRenderedOn(ch channel.ID) (frame.Frame, bool)
}

// DefaultCrossfadeDuration is the cross-fade duration Start uses on a zone
// that was Idle or already Running, and the duration of Stop's fade (§4.4).
// It is a fixed constant; Engine has no option to change it.
const DefaultCrossfadeDuration = 400 * time.Millisecond

// DefaultZoneStopTimeout bounds a single zone's cancellation during
// StopAll (§4.7: "1 s per-zone timeout").
const DefaultZoneStopTimeout = time.Second

// State is a zone's position in the per-zone animation state machine.
type State uint8

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateSwitching
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateSwitching:
		return "Switching"
	case StateStopping:
		return "Stopping"
	default:
		return "Unknown"
	}
}

type runningAnimation struct {
	anim   animation.Animation
	cancel context.CancelFunc
	done   chan struct{}
	taskID int64
}

// Engine is the AnimationEngine.
type Engine struct {
	log zerolog.Logger

	mgr       Submitter
	snapshots SnapshotProvider
	trans     *transition.Service
	registry  *tasks.Registry

	channelFor      func(zone.ID) channel.ID
	zonePixelCounts map[zone.ID]int
	staticColors    map[zone.ID]color.Color
	rateHz          int

	// mu guards running and states. It is NEVER held across an await point:
	// callers pop the *runningAnimation out of the map, release mu, then
	// wait on its done channel (§5's lock-discipline invariant).
	mu      sync.Mutex
	running map[zone.ID]*runningAnimation
	states  map[zone.ID]State
}

// New constructs an Engine. channelFor maps a zone to the channel it
// renders on; zonePixelCounts/staticColors/rateHz configure cross-fade
// geometry, fallback colors, and pacing respectively.
func New(log zerolog.Logger, mgr Submitter, snapshots SnapshotProvider, trans *transition.Service, registry *tasks.Registry, channelFor func(zone.ID) channel.ID, zonePixelCounts map[zone.ID]int, staticColors map[zone.ID]color.Color, rateHz int) *Engine {
	return &Engine{
		log:             log,
		mgr:             mgr,
		snapshots:       snapshots,
		trans:           trans,
		registry:        registry,
		channelFor:      channelFor,
		zonePixelCounts: zonePixelCounts,
		staticColors:    staticColors,
		rateHz:          rateHz,
		running:         make(map[zone.ID]*runningAnimation),
		states:          make(map[zone.ID]State),
	}
}

// StateOf reports a zone's current state machine position.
func (e *Engine) StateOf(z zone.ID) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.states[z]
}

// Start begins animationID on zone, cross-fading from the zone's current
// rendered state (whether a prior animation or a static color) over
// DefaultCrossfadeDuration.
func (e *Engine) Start(ctx context.Context, z zone.ID, animationID animation.ID, params map[animation.ParamID]animation.ParamValue) error {
	n := e.zonePixelCounts[z]
	ch := e.channelFor(z)

	newAnim, err := animation.New(animationID, []zone.ID{z}, params, e.zonePixelCounts)
	if err != nil {
		return fmt.Errorf("engine: start %s on %s: %w", animationID, z, err)
	}

	// Pre-roll: pull the first frame offline before the task is registered.
	firstFrame, _, err := newAnim.NextFrame(ctx)
	if err != nil {
		return fmt.Errorf("engine: start %s on %s: pre-roll failed: %w", animationID, z, err)
	}
	toBuf := transition.Buffer{z: ExtractZoneBuffer(firstFrame, z, n)}
	fromBuf := transition.Buffer{z: e.snapshotZone(ch, z, n)}

	e.mu.Lock()
	prior, hadPrior := e.running[z]
	if hadPrior {
		delete(e.running, z)
		e.states[z] = StateSwitching
	} else {
		e.states[z] = StateStarting
	}
	e.mu.Unlock()

	if hadPrior {
		prior.cancel()
		<-prior.done
	}

	if err := e.trans.Crossfade(ctx, ch, fromBuf, toBuf, DefaultCrossfadeDuration, e.rateHz); err != nil {
		e.log.Warn().Err(err).Str("zone", string(z)).Msg("cross-fade interrupted on start")
	}

	runCtx, cancel := context.WithCancel(context.Background())
	ra := &runningAnimation{anim: newAnim, cancel: cancel, done: make(chan struct{})}

	handle, taskID := e.registry.RunTracked(runCtx, tasks.CategoryAnimation,
		fmt.Sprintf("animation %s on zone %s", animationID, z), "engine",
		func(ctx context.Context) error {
			defer close(ra.done)
			defer e.releaseIfCurrent(z, ra)
			return e.runLoop(ctx, ch, newAnim)
		})
	_ = handle
	ra.taskID = taskID

	e.mu.Lock()
	e.running[z] = ra
	e.states[z] = StateRunning
	e.mu.Unlock()
	return nil
}

// runLoop repeatedly pulls frames from anim and submits them at Animation
// priority until ctx is cancelled, anim errors, or anim voluntarily
// completes.
func (e *Engine) runLoop(ctx context.Context, ch channel.ID, anim animation.Animation) error {
	for {
		f, done, err := anim.NextFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if f != nil {
			e.mgr.Submit(ch, f)
		}
		if done {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// releaseIfCurrent removes the zone's running-animation slot only if it is
// still the one that just finished (a newer Start may have already
// replaced it), and moves the zone state to Idle.
func (e *Engine) releaseIfCurrent(z zone.ID, ra *runningAnimation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cur, ok := e.running[z]; ok && cur == ra {
		delete(e.running, z)
		e.states[z] = StateIdle
	}
}

// Stop cancels any animation running on zone. If skipFade is false, it
// first fades to the zone's configured static color (or black) before
// returning. Idempotent: stopping an already-Idle zone is a no-op.
func (e *Engine) Stop(ctx context.Context, z zone.ID, skipFade bool) error {
	e.mu.Lock()
	ra, ok := e.running[z]
	if ok {
		delete(e.running, z)
		e.states[z] = StateStopping
	}
	e.mu.Unlock()

	if !ok {
		return nil
	}

	n := e.zonePixelCounts[z]
	ch := e.channelFor(z)
	fromBuf := transition.Buffer{z: e.snapshotZone(ch, z, n)}

	ra.cancel()
	<-ra.done

	if !skipFade {
		target, ok := e.staticColors[z]
		if !ok {
			target = color.Black
		}
		toBuf := transition.Buffer{z: RepeatColor(target, n)}
		if err := e.trans.Crossfade(ctx, ch, fromBuf, toBuf, DefaultCrossfadeDuration, e.rateHz); err != nil {
			e.log.Warn().Err(err).Str("zone", string(z)).Msg("fade-out interrupted on stop")
		}
	}

	e.mu.Lock()
	e.states[z] = StateIdle
	e.mu.Unlock()
	return nil
}

// StopAll stops every zone currently running an animation, sequentially
// (not concurrently — §5 "sequential-not-concurrent shutdown"), each
// bounded by DefaultZoneStopTimeout.
func (e *Engine) StopAll(ctx context.Context) {
	e.mu.Lock()
	zones := make([]zone.ID, 0, len(e.running))
	for z := range e.running {
		zones = append(zones, z)
	}
	e.mu.Unlock()

	for _, z := range zones {
		zctx, cancel := context.WithTimeout(ctx, DefaultZoneStopTimeout)
		if err := e.Stop(zctx, z, false); err != nil {
			e.log.Warn().Err(err).Str("zone", string(z)).Msg("stop_all: zone stop failed")
		}
		cancel()
	}
}

// UpdateParameter forwards a live parameter change to the zone's running
// animation without restarting its task.
func (e *Engine) UpdateParameter(z zone.ID, paramID animation.ParamID, value animation.ParamValue) error {
	e.mu.Lock()
	ra, ok := e.running[z]
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("engine: zone %s has no running animation", z)
	}
	return ra.anim.SetParameter(paramID, value)
}

func (e *Engine) snapshotZone(ch channel.ID, z zone.ID, pixelCount int) []color.Color {
	f, ok := e.snapshots.LastRenderedOn(ch)
	if !ok || f == nil {
		return RepeatColor(color.Black, pixelCount)
	}
	return ExtractZoneBuffer(f, z, pixelCount)
}

// ExtractZoneBuffer reads zone z's per-pixel colors out of whichever Frame
// variant last rendered on its channel, exported so control.Facade can
// build the same cross-fade "from" buffers engine.Start/Stop use.
func ExtractZoneBuffer(f frame.Frame, z zone.ID, pixelCount int) []color.Color {
	switch v := f.(type) {
	case frame.FullStripFrame:
		return RepeatColor(v.Color, pixelCount)
	case frame.ZoneFrame:
		if c, ok := v.Colors[z]; ok {
			return RepeatColor(c, pixelCount)
		}
		return RepeatColor(color.Black, pixelCount)
	case frame.PixelFrame:
		if px, ok := v.Pixels[z]; ok {
			return px
		}
		return RepeatColor(color.Black, pixelCount)
	default:
		return RepeatColor(color.Black, pixelCount)
	}
}

// RepeatColor builds an n-pixel buffer of a single uniform color.
func RepeatColor(c color.Color, n int) []color.Color {
	if n <= 0 {
		n = 1
	}
	out := make([]color.Color, n)
	for i := range out {
		out[i] = c
	}
	return out
}
