// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package transition implements TransitionService (§4.5): stateless fades
// emitted at Transition priority, computed at the FrameManager's tick rate.
package transition

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hollowstrand/ledcore/color"
	"github.com/hollowstrand/ledcore/frame"
	"github.com/hollowstrand/ledcore/internal/channel"
	"github.com/hollowstrand/ledcore/internal/zone"
)

// Submitter is the subset of render.Manager a Service needs; defined as an
// interface here so transition doesn't import render (engine wires both).
type Submitter interface {
	Submit(ch channel.ID, f frame.Frame)
}

// DefaultDuration is the default cross-fade duration (§4.4).
const DefaultDuration = 400 * time.Millisecond

// Service computes interpolated frames for fade-in, fade-out, and
// cross-fade, submitting them at Transition priority.
type Service struct {
	mgr Submitter
	log zerolog.Logger

	locksMu sync.Mutex
	locks   map[channel.ID]*sync.Mutex
}

// New constructs a Service that submits through mgr.
func New(mgr Submitter, log zerolog.Logger) *Service {
	return &Service{mgr: mgr, log: log, locks: make(map[channel.ID]*sync.Mutex)}
}

// lockChannel serializes this Service's own transitions per channel so a
// rapid FadeIn+FadeOut cannot interleave (§4.5 "Ordering"). Transitions on
// different channels run concurrently since each gets its own mutex.
func (s *Service) lockChannel(ch channel.ID) func() {
	s.locksMu.Lock()
	mu, ok := s.locks[ch]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[ch] = mu
	}
	s.locksMu.Unlock()
	mu.Lock()
	return mu.Unlock
}

// Buffer is a per-zone snapshot of pixel colors: either a single element
// (uniform zone color) or one element per configured pixel.
type Buffer map[zone.ID][]color.Color

// FadeOut fades every pixel in from to Black over duration.
func (s *Service) FadeOut(ctx context.Context, ch channel.ID, from Buffer, duration time.Duration, rateHz int) error {
	return s.run(ctx, ch, from, blackLike(from), duration, rateHz)
}

// FadeIn fades from Black to target over duration.
func (s *Service) FadeIn(ctx context.Context, ch channel.ID, target Buffer, duration time.Duration, rateHz int) error {
	return s.run(ctx, ch, blackLike(target), target, duration, rateHz)
}

// Crossfade linearly interpolates, per pixel, from `from` to `to` over
// duration.
func (s *Service) Crossfade(ctx context.Context, ch channel.ID, from, to Buffer, duration time.Duration, rateHz int) error {
	return s.run(ctx, ch, from, to, duration, rateHz)
}

// Cut submits target instantaneously, with no interpolation.
func (s *Service) Cut(ch channel.ID, target Buffer) {
	unlock := s.lockChannel(ch)
	defer unlock()
	s.mgr.Submit(ch, toFrame(target))
}

func blackLike(b Buffer) Buffer {
	out := make(Buffer, len(b))
	for id, px := range b {
		blk := make([]color.Color, len(px))
		for i := range blk {
			blk[i] = color.Black
		}
		out[id] = blk
	}
	return out
}

// run performs the shared step loop for FadeOut/FadeIn/Crossfade. If
// cancelled mid-run it simply stops emitting; priority cascade in
// FrameManager handles the rest (§4.5 "Cancellation").
func (s *Service) run(ctx context.Context, ch channel.ID, from, to Buffer, duration time.Duration, rateHz int) error {
	if rateHz <= 0 {
		rateHz = 60
	}
	unlock := s.lockChannel(ch)
	defer unlock()

	steps := int(math.Ceil(duration.Seconds() * float64(rateHz)))
	if steps < 1 {
		steps = 1
	}
	interval := time.Second / time.Duration(rateHz)

	for k := 0; k <= steps; k++ {
		t := ease(float64(k) / float64(steps))
		mixed := lerpBuffer(from, to, t)
		s.mgr.Submit(ch, toFrame(mixed))

		if k == steps {
			break
		}
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

// ease is linear by default (§4.5).
func ease(t float64) float64 { return t }

func lerpBuffer(from, to Buffer, t float64) Buffer {
	out := make(Buffer, len(to))
	for id, toPx := range to {
		fromPx := from[id]
		buf := make([]color.Color, len(toPx))
		for i := range buf {
			var fr, fg, fb uint8
			if i < len(fromPx) {
				fr, fg, fb = fromPx[i].ToRGB()
			}
			tr, tg, tb := toPx[i].ToRGB()
			buf[i] = color.Raw(lerpByte(fr, tr, t), lerpByte(fg, tg, t), lerpByte(fb, tb, t))
		}
		out[id] = buf
	}
	return out
}

func lerpByte(a, b uint8, t float64) uint8 {
	v := float64(a) + (float64(b)-float64(a))*t
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return uint8(v)
}

// toFrame picks the narrowest frame kind that represents b faithfully. A
// PixelFrame is authoritative over the *whole* channel (§3: zones it omits
// render black), so submitting one for a single-zone fade would blank every
// sibling zone on the same channel for the fade's whole duration — directly
// contradicting §4.4's "zones with distinct animations run independently."
// When every zone in b is a uniform color, a ZoneFrame carries the same
// information while only ever touching the zones it names (§4.5: "submit as
// a FullStrip or Zone frame depending on uniformity"). PixelFrame is
// reserved for buffers that are genuinely non-uniform per pixel.
func toFrame(b Buffer) frame.Frame {
	zoneColors := make(map[zone.ID]color.Color, len(b))
	for id, px := range b {
		if !uniformColor(px) {
			pixels := make(map[zone.ID][]color.Color, len(b))
			for zid, zpx := range b {
				pixels[zid] = zpx
			}
			return frame.NewPixelFrame(pixels, frame.PriorityTransition, frame.SourceTransition, frame.DefaultTTL)
		}
		zoneColors[id] = px[0]
	}
	return frame.NewZoneFrame(zoneColors, frame.PriorityTransition, frame.SourceTransition, frame.DefaultTTL)
}

// uniformColor reports whether every pixel in px is the same color.
func uniformColor(px []color.Color) bool {
	if len(px) == 0 {
		return false
	}
	first := px[0]
	for _, c := range px[1:] {
		if !c.Equal(first) {
			return false
		}
	}
	return true
}
