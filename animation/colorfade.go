// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package animation

import (
	"context"

	"github.com/hollowstrand/ledcore/color"
	"github.com/hollowstrand/ledcore/frame"
	"github.com/hollowstrand/ledcore/internal/zone"
)

func colorFadeParams() ParamMap {
	return ParamMap{
		paramSpeed:     {ID: paramSpeed, Kind: KindInt, Min: 1, Max: 100, Step: 1, Default: IntValue(50)},
		paramIntensity: {ID: paramIntensity, Kind: KindInt, Min: 0, Max: 100, Step: 1, Default: IntValue(75)},
	}
}

type colorFadeAnim struct {
	zones     []zone.ID
	params    *paramStore
	hueDegree float64
}

func newColorFade(zones []zone.ID, initial map[ParamID]ParamValue) *colorFadeAnim {
	return &colorFadeAnim{zones: zones, params: newParamStore(colorFadeParams(), initial)}
}

func (a *colorFadeAnim) ID() ID              { return ColorFade }
func (a *colorFadeAnim) Parameters() ParamMap { return colorFadeParams() }
func (a *colorFadeAnim) Zones() []zone.ID     { return a.zones }

func (a *colorFadeAnim) SetParameter(id ParamID, v ParamValue) error {
	return a.params.set(id, v)
}

func (a *colorFadeAnim) NextFrame(ctx context.Context) (frame.Frame, bool, error) {
	speed := a.params.getInt(paramSpeed)
	intensity := a.params.getInt(paramIntensity)
	interval := speedInterval(speed)

	a.hueDegree += float64(speed) / 20
	if a.hueDegree >= 360 {
		a.hueDegree -= 360
	}
	lit := color.Hue(a.hueDegree).WithBrightness(uint8(255 * int(intensity) / 100))

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
