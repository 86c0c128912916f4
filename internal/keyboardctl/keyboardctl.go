// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package keyboardctl is a minimal stand-in for the keyboard input device
// spec.md §1 lists as an out-of-scope external collaborator: it reads
// single-character commands from an io.Reader, publishes them on
// eventbus.Bus as KeyEvents, and reacts to a small fixed command set by
// calling into control.Facade. It is a controller, not part of the
// rendering core — it never touches FrameManager or AnimationEngine
// directly (§4.9's framing applies equally here).
package keyboardctl

import (
	"bufio"
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/hollowstrand/ledcore/animation"
	"github.com/hollowstrand/ledcore/color"
	"github.com/hollowstrand/ledcore/eventbus"
	"github.com/hollowstrand/ledcore/internal/control"
	"github.com/hollowstrand/ledcore/internal/zone"
)

// Controller wires keyboard KeyEvents to control.Facade operations for one
// designated zone. The command set is intentionally tiny: it exists to
// exercise the control surface end-to-end, not to be a real UI.
type Controller struct {
	log    zerolog.Logger
	bus    *eventbus.Bus
	facade *control.Facade
	zone   zone.ID
}

// New constructs a Controller and subscribes it to bus immediately.
func New(log zerolog.Logger, bus *eventbus.Bus, facade *control.Facade, z zone.ID) *Controller {
	c := &Controller{log: log, bus: bus, facade: facade, zone: z}
	bus.SubscribeKey(c.handleKey)
	return c
}

// Run scans single characters from r and publishes each as a KeyEvent
// until r is exhausted or ctx is cancelled. Recognized commands:
//
//	b  start the breathe animation on the controller's zone
//	c  start the colorcycle animation
//	s  stop the running animation (with fade)
//	o  power off (global fade to black)
//	p  power on (global fade to static colors)
//	w  set the controller's zone to warm white at full brightness
func (c *Controller) Run(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanRunes)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		key := scanner.Text()
		c.bus.PublishKey(eventbus.KeyEvent{Key: key})
	}
	return scanner.Err()
}

func (c *Controller) handleKey(e eventbus.KeyEvent) {
	ctx := context.Background()
	var err error
	switch e.Key {
	case "b":
		err = c.facade.StartAnimation(ctx, c.zone, animation.Breathe, nil)
	case "c":
		err = c.facade.StartAnimation(ctx, c.zone, animation.ColorCycle, nil)
	case "s":
		err = c.facade.StopAnimation(ctx, c.zone, false)
	case "o":
		err = c.facade.PowerOff(ctx)
	case "p":
		err = c.facade.PowerOn(ctx)
	case "w":
		err = c.facade.SetZoneColor(c.zone, color.Raw(255, 214, 170), 255)
	default:
		return
	}
	if err != nil {
		c.log.Warn().Err(err).Str("key", e.Key).Msg("keyboardctl: command failed")
	}
}
