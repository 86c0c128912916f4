// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package control implements Facade, the single type that exposes
// spec.md §6's abstract control surface (set_zone_color, start_animation,
// stop_animation, update_animation_parameter, power_off/power_on). Its
// front end in this repository is internal/keyboardctl, which holds a
// Facade and never talks to render.Manager, engine.Engine, or
// transition.Service directly.
package control

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hollowstrand/ledcore/animation"
	"github.com/hollowstrand/ledcore/color"
	"github.com/hollowstrand/ledcore/engine"
	"github.com/hollowstrand/ledcore/frame"
	"github.com/hollowstrand/ledcore/internal/channel"
	"github.com/hollowstrand/ledcore/internal/zone"
	"github.com/hollowstrand/ledcore/transition"
)

// ZoneInfo is the static, configuration-derived metadata Facade needs
// about one zone: which channel it renders on, how many pixels it has, and
// the static color it falls back to on power-off/stop-without-animation.
type ZoneInfo struct {
	Channel     channel.ID
	PixelCount  int
	StaticColor color.Color
}

// Submitter is the subset of render.Manager Facade needs for
// SetZoneColor.
type Submitter interface {
	Submit(ch channel.ID, f frame.Frame)
}

// Facade is the control-surface implementation.
type Facade struct {
	log   zerolog.Logger
	mgr   Submitter
	eng   *engine.Engine
	trans *transition.Service
	zones map[zone.ID]ZoneInfo
	rateHz int
}

// New constructs a Facade. zones describes every configured zone's channel
// binding, pixel count, and static fallback color.
func New(log zerolog.Logger, mgr Submitter, eng *engine.Engine, trans *transition.Service, zones map[zone.ID]ZoneInfo, rateHz int) *Facade {
	return &Facade{log: log, mgr: mgr, eng: eng, trans: trans, zones: zones, rateHz: rateHz}
}

func (f *Facade) zoneInfo(z zone.ID) (ZoneInfo, error) {
	info, ok := f.zones[z]
	if !ok {
		return ZoneInfo{}, fmt.Errorf("control: unknown zone %q", z)
	}
	return info, nil
}

// SetZoneColor submits a Zone-variant frame at Manual priority, the color
// scaled by brightness (§3: "brightness scaling is the only way to dim a
// color in the rendering pipeline").
func (f *Facade) SetZoneColor(z zone.ID, c color.Color, brightness uint8) error {
	info, err := f.zoneInfo(z)
	if err != nil {
		return err
	}
	scaled := c.WithBrightness(brightness)
	zf := frame.NewZoneFrame(map[zone.ID]color.Color{z: scaled}, frame.PriorityManual, frame.SourceStatic, frame.DefaultTTL)
	f.mgr.Submit(info.Channel, zf)
	return nil
}

// StartAnimation delegates to AnimationEngine.Start.
func (f *Facade) StartAnimation(ctx context.Context, z zone.ID, animationID animation.ID, params map[animation.ParamID]animation.ParamValue) error {
	if _, err := f.zoneInfo(z); err != nil {
		return err
	}
	return f.eng.Start(ctx, z, animationID, params)
}

// StopAnimation delegates to AnimationEngine.Stop.
func (f *Facade) StopAnimation(ctx context.Context, z zone.ID, skipFade bool) error {
	if _, err := f.zoneInfo(z); err != nil {
		return err
	}
	return f.eng.Stop(ctx, z, skipFade)
}

// UpdateAnimationParameter delegates to AnimationEngine.UpdateParameter.
func (f *Facade) UpdateAnimationParameter(z zone.ID, paramID animation.ParamID, value animation.ParamValue) error {
	if _, err := f.zoneInfo(z); err != nil {
		return err
	}
	return f.eng.UpdateParameter(z, paramID, value)
}

// PowerOff stops every running animation (falling each zone back to its
// static color or black), then fades every zone, one after another, from
// its static color to black through TransitionService, overriding any
// static color that would otherwise remain lit.
func (f *Facade) PowerOff(ctx context.Context) error {
	f.eng.StopAll(ctx)
	for z, info := range f.zones {
		from := transition.Buffer{z: engine.RepeatColor(info.StaticColor, info.PixelCount)}
		if err := f.trans.FadeOut(ctx, info.Channel, from, transition.DefaultDuration, f.rateHz); err != nil {
			f.log.Warn().Err(err).Str("zone", string(z)).Msg("power_off: fade interrupted")
		}
	}
	return nil
}

// PowerOn fades every zone from black back up to its configured static
// color through TransitionService. It does not restart any animation that
// was running before PowerOff.
func (f *Facade) PowerOn(ctx context.Context) error {
	for z, info := range f.zones {
		target := transition.Buffer{z: engine.RepeatColor(info.StaticColor, info.PixelCount)}
		if err := f.trans.FadeIn(ctx, info.Channel, target, transition.DefaultDuration, f.rateHz); err != nil {
			f.log.Warn().Err(err).Str("zone", string(z)).Msg("power_on: fade interrupted")
		}
	}
	return nil
}
