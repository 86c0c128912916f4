// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package animation

import (
	"context"
	"math"
	"time"

	"github.com/hollowstrand/ledcore/color"
	"github.com/hollowstrand/ledcore/frame"
	"github.com/hollowstrand/ledcore/internal/zone"
)

const (
	paramSpeed     ParamID = "speed"
	paramIntensity ParamID = "intensity"
	paramHue       ParamID = "hue"
	paramLength    ParamID = "length"
	paramHueOffset ParamID = "hue_offset"
)

func breatheParams() ParamMap {
	return ParamMap{
		paramSpeed:     {ID: paramSpeed, Kind: KindInt, Min: 1, Max: 100, Step: 1, Default: IntValue(50)},
		paramIntensity: {ID: paramIntensity, Kind: KindInt, Min: 0, Max: 100, Step: 1, Default: IntValue(75)},
		paramHue:       {ID: paramHue, Kind: KindHue, Min: 0, Max: 359, Step: 1, Default: HueValue(0)},
	}
}

type breatheAnim struct {
	zones  []zone.ID
	params *paramStore
	phase  float64
}

func newBreathe(zones []zone.ID, initial map[ParamID]ParamValue) *breatheAnim {
	return &breatheAnim{zones: zones, params: newParamStore(breatheParams(), initial)}
}

func (a *breatheAnim) ID() ID                 { return Breathe }
func (a *breatheAnim) Parameters() ParamMap    { return breatheParams() }
func (a *breatheAnim) Zones() []zone.ID        { return a.zones }

func (a *breatheAnim) SetParameter(id ParamID, v ParamValue) error {
	return a.params.set(id, v)
}

func (a *breatheAnim) NextFrame(ctx context.Context) (frame.Frame, bool, error) {
	speed := a.params.getInt(paramSpeed)
	intensity := a.params.getInt(paramIntensity)
	hue := a.params.getHue(paramHue)

	interval := speedInterval(speed)
	a.phase += 2 * math.Pi * float64(interval) / float64(3*time.Second)
	if a.phase > 2*math.Pi {
		a.phase -= 2 * math.Pi
	}
	// brightness oscillates within [0, intensity] using a raised cosine.
	level := (math.Cos(a.phase) + 1) / 2 * float64(intensity) / 100 * 255
	base := color.Hue(float64(hue))
	lit := base.WithBrightness(uint8(level))

	colors := make(map[zone.ID]color.Color, len(a.zones))
	for _, z := range a.zones {
		colors[z] = lit
	}
	f := frame.NewZoneFrame(colors, frame.PriorityAnimation, frame.SourceAnimation, frame.DefaultTTL)

	if !sleepOrDone(ctx, interval) {
		return f, false, ctx.Err()
	}
	return f, false, nil
}
