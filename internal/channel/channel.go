// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package channel defines OutputChannel, the abstraction over one physical
// data line controlling one contiguous addressable strip, plus a
// ByteOrder-aware staging buffer shared by concrete driver implementations.
//
// The split between a logical channel and the bus it flushes to mirrors
// periph.io's separation between a device (devices/apa102.Dev) and the
// conn/spi.Conn it writes to: a channel never materializes RGB bytes until
// the moment of flush, and flush is the only place a byte-order conversion
// happens.
package channel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hollowstrand/ledcore/color"
	"github.com/hollowstrand/ledcore/frame"
	"github.com/hollowstrand/ledcore/internal/zone"
)

// ID identifies one OutputChannel (one physical data line).
type ID string

// ByteOrder is the order in which a strip expects color bytes on the wire.
type ByteOrder uint8

const (
	OrderRGB ByteOrder = iota
	OrderGRB
	OrderBRG
)

// OutputError wraps a failure from the underlying driver. It is always
// logged and never causes a panic.
type OutputError struct {
	Channel ID
	Source  frame.Source
	Err     error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("channel %s: apply from source %s: %v", e.Channel, e.Source, e.Err)
}

func (e *OutputError) Unwrap() error { return e.Err }

// Driver is the minimal synchronous sink a channel flushes its staging
// buffer to. Concrete implementations (simdriver.Sim, a real SPI-backed
// strip) only need to implement this.
type Driver interface {
	// Flush writes exactly one frame's worth of native-order bytes to the
	// physical strip. len(bytes) == pixelCount * 3.
	Flush(ctx context.Context, bytes []byte) error
}

// Config describes one physical channel: its total pixel count, wire byte
// order, and the minimum time that must elapse between two flushes.
type Config struct {
	ID               ID
	PixelCount       int
	Order            ByteOrder
	MinFlushInterval time.Duration
}

// DefaultMinFlushInterval is the conservative default for ~90-pixel strips
// at 800kHz (§4.1).
const DefaultMinFlushInterval = 2750 * time.Microsecond

// Channel is one OutputChannel: it knows its total pixel count, translates
// (ZoneID, relative index) to an absolute pixel index via a configured
// zone range map, stages pending RGB values, and performs exactly one
// hardware flush per Apply* call.
type Channel struct {
	cfg    Config
	driver Driver

	mu      sync.Mutex
	staging []color.Color // length == cfg.PixelCount
	ranges  map[zone.ID][2]int
	lastFlush time.Time
}

// New constructs a Channel bound to driver, with zone ranges describing
// each zone's absolute [start, end) pixel range on this channel.
func New(cfg Config, driver Driver, ranges map[zone.ID][2]int) *Channel {
	if cfg.MinFlushInterval <= 0 {
		cfg.MinFlushInterval = DefaultMinFlushInterval
	}
	staging := make([]color.Color, cfg.PixelCount)
	for i := range staging {
		staging[i] = color.Black
	}
	rangesCopy := make(map[zone.ID][2]int, len(ranges))
	for k, v := range ranges {
		rangesCopy[k] = v
	}
	return &Channel{cfg: cfg, driver: driver, staging: staging, ranges: rangesCopy}
}

// ID returns the channel's identifier.
func (c *Channel) ID() ID { return c.cfg.ID }

// PixelCount returns the channel's total pixel count.
func (c *Channel) PixelCount() int { return c.cfg.PixelCount }

// MinFlushInterval returns the minimum time flush enforces between two
// hardware writes on this channel.
func (c *Channel) MinFlushInterval() time.Duration { return c.cfg.MinFlushInterval }

// ApplyFull stages one color across every pixel and flushes once.
func (c *Channel) ApplyFull(ctx context.Context, col color.Color, source frame.Source) error {
	c.mu.Lock()
	for i := range c.staging {
		c.staging[i] = col
	}
	c.mu.Unlock()
	return c.flush(ctx, source)
}

// ApplyZoneMap stages a uniform color per named zone, leaving pixels of
// unlisted zones untouched, and flushes once.
func (c *Channel) ApplyZoneMap(ctx context.Context, colors map[zone.ID]color.Color, source frame.Source) error {
	c.mu.Lock()
	for id, col := range colors {
		r, ok := c.ranges[id]
		if !ok {
			continue
		}
		for i := r[0]; i < r[1] && i < len(c.staging); i++ {
			c.staging[i] = col
		}
	}
	c.mu.Unlock()
	return c.flush(ctx, source)
}

// ApplyPixelFrame stages per-pixel colors composed from zone buffers. Per
// §3/Open Question 1, this frame kind is authoritative over the whole
// channel: zones omitted from pixels render black.
func (c *Channel) ApplyPixelFrame(ctx context.Context, pixels map[zone.ID][]color.Color, source frame.Source) error {
	c.mu.Lock()
	for i := range c.staging {
		c.staging[i] = color.Black
	}
	for id, px := range pixels {
		r, ok := c.ranges[id]
		if !ok {
			continue
		}
		for i := 0; i < len(px) && r[0]+i < r[1] && r[0]+i < len(c.staging); i++ {
			c.staging[r[0]+i] = px[i]
		}
	}
	c.mu.Unlock()
	return c.flush(ctx, source)
}

// ApplyPreview stages the fixed 8-pixel preview buffer and flushes once.
// The preview channel's PixelCount must be frame.PreviewPixelCount.
func (c *Channel) ApplyPreview(ctx context.Context, pixels [frame.PreviewPixelCount]color.Color, source frame.Source) error {
	c.mu.Lock()
	for i := 0; i < len(c.staging) && i < len(pixels); i++ {
		c.staging[i] = pixels[i]
	}
	c.mu.Unlock()
	return c.flush(ctx, source)
}

// Clear zeroes the staging buffer and flushes once.
func (c *Channel) Clear(ctx context.Context) error {
	c.mu.Lock()
	for i := range c.staging {
		c.staging[i] = color.Black
	}
	c.mu.Unlock()
	return c.flush(ctx, frame.SourceIdle)
}

// Snapshot returns a copy of the currently staged (last-flushed) colors.
func (c *Channel) Snapshot() []color.Color {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]color.Color, len(c.staging))
	copy(out, c.staging)
	return out
}

// flush converts the staged Colors to the strip's native byte order and
// performs the single hardware write, enforcing MinFlushInterval.
func (c *Channel) flush(ctx context.Context, source frame.Source) error {
	c.mu.Lock()
	wait := c.cfg.MinFlushInterval - time.Since(c.lastFlush)
	buf := c.encode()
	c.mu.Unlock()

	if wait > 0 {
		t := time.NewTimer(wait)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	err := c.driver.Flush(ctx, buf)

	c.mu.Lock()
	c.lastFlush = time.Now()
	c.mu.Unlock()

	if err != nil {
		return &OutputError{Channel: c.cfg.ID, Source: source, Err: err}
	}
	return nil
}

// encode materializes RGB bytes in the channel's native byte order. Must be
// called with c.mu held.
func (c *Channel) encode() []byte {
	buf := make([]byte, 0, len(c.staging)*3)
	for _, col := range c.staging {
		r, g, b := col.ToRGB()
		switch c.cfg.Order {
		case OrderGRB:
			buf = append(buf, g, r, b)
		case OrderBRG:
			buf = append(buf, b, r, g)
		default:
			buf = append(buf, r, g, b)
		}
	}
	return buf
}
