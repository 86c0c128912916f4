// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package animation implements the Animation trait (§4.3) and its closed
// catalog of six concrete producers. Each animation is a lazy, restartable
// sequence of frames whose parameters are live-mutable while running.
package animation

import (
	"context"
	"fmt"
	"time"

	"github.com/hollowstrand/ledcore/frame"
	"github.com/hollowstrand/ledcore/internal/zone"
)

// ID names one entry in the closed animation catalog.
type ID string

const (
	Breathe    ID = "breathe"
	ColorFade  ID = "colorfade"
	ColorCycle ID = "colorcycle"
	Snake      ID = "snake"
	ColorSnake ID = "colorsnake"
	Matrix     ID = "matrix"
)

// Animation produces a lazy, restartable sequence of frames. Parameters are
// live-mutable while the animation runs; a change takes effect on the next
// yielded frame.
type Animation interface {
	// ID returns this animation's catalog identifier.
	ID() ID
	// Parameters returns the declared parameter set.
	Parameters() ParamMap
	// SetParameter validates and applies a value atomically.
	SetParameter(id ParamID, value ParamValue) error
	// NextFrame produces the next frame. done=true signals voluntary
	// completion (the catalog's six animations never do this in practice,
	// since they are conceptually infinite, but the interface allows it).
	// NextFrame must not block on I/O; it may sleep to pace itself and must
	// respect ctx cancellation at that sleep.
	NextFrame(ctx context.Context) (f frame.Frame, done bool, err error)
	// Zones returns the zones this animation instance paints.
	Zones() []zone.ID
}

// New constructs a concrete Animation for id, bound to zones, with initial
// parameter overrides. zonePixelCounts gives each zone's configured pixel
// count for animations that produce Pixel frames.
func New(id ID, zones []zone.ID, initial map[ParamID]ParamValue, zonePixelCounts map[zone.ID]int) (Animation, error) {
	switch id {
	case Breathe:
		return newBreathe(zones, initial), nil
	case ColorFade:
		return newColorFade(zones, initial), nil
	case ColorCycle:
		return newColorCycle(zones, initial), nil
	case Snake:
		return newSnake(zones, initial, zonePixelCounts), nil
	case ColorSnake:
		return newColorSnake(zones, initial, zonePixelCounts), nil
	case Matrix:
		return newMatrix(zones, initial, zonePixelCounts), nil
	default:
		return nil, fmt.Errorf("animation: unknown catalog id %q", id)
	}
}

// sleepOrDone pauses for d, returning false immediately if ctx is
// cancelled. Every catalog animation calls this at least once per
// iteration so cancellation is observable within one frame period
// (§4.3 invariant, §9 "cooperative cancellation of cpu-light loops").
func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// speedInterval maps a Speed parameter in [1,100] to a per-frame pacing
// duration: higher speed, shorter interval.
func speedInterval(speed int32) time.Duration {
	if speed < 1 {
		speed = 1
	}
	if speed > 100 {
		speed = 100
	}
	ms := 500 - (speed-1)*5
	if ms < 5 {
		ms = 5
	}
	return time.Duration(ms) * time.Millisecond
}
