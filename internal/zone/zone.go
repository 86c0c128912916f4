// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package zone defines ZoneId, the closed set of zone identifiers drawn
// from configuration, and the runtime Zone record.
package zone

import (
	"fmt"

	"github.com/hollowstrand/ledcore/color"
)

// ID is a zone identifier drawn from a closed set declared in
// configuration. It is immutable once configured.
type ID string

// RenderMode describes what is currently driving a zone's pixels.
type RenderMode uint8

const (
	// Off means the zone renders black and nothing submits to it.
	Off RenderMode = iota
	// Static means a Manual-priority color setter owns the zone.
	Static
	// Animation means an AnimationEngine-owned animation owns the zone.
	Animation
)

func (m RenderMode) String() string {
	switch m {
	case Off:
		return "Off"
	case Static:
		return "Static"
	case Animation:
		return "Animation"
	default:
		return fmt.Sprintf("RenderMode(%d)", uint8(m))
	}
}

// Config is the immutable, configuration-derived half of a Zone.
type Config struct {
	ID             ID
	DisplayName    string
	PixelCount     int
	ChannelBinding string
	// Start and End are the zone's absolute pixel range [Start, End) on its
	// bound channel, computed by summing preceding zones' pixel counts on
	// that channel (§6).
	Start, End int
}

// State is the mutable runtime half of a Zone.
type State struct {
	CurrentColor color.Color
	Brightness   uint8
	RenderMode   RenderMode
}

// Zone pairs immutable Config with mutable State.
type Zone struct {
	Config Config
	State  State
}

// New creates a Zone in the Off render mode with black at zero brightness.
func New(cfg Config) *Zone {
	return &Zone{
		Config: cfg,
		State: State{
			CurrentColor: color.Black,
			Brightness:   0,
			RenderMode:   Off,
		},
	}
}
