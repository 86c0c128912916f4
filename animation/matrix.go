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

func matrixParams() ParamMap {
	return ParamMap{
		paramSpeed:     {ID: paramSpeed, Kind: KindInt, Min: 1, Max: 100, Step: 1, Default: IntValue(50)},
		paramLength:    {ID: paramLength, Kind: KindInt, Min: 2, Max: 8, Step: 1, Default: IntValue(4)},
		paramIntensity: {ID: paramIntensity, Kind: KindInt, Min: 0, Max: 100, Step: 1, Default: IntValue(75)},
		paramHue:       {ID: paramHue, Kind: KindHue, Min: 0, Max: 359, Step: 1, Default: HueValue(0)},
	}
}

// matrixAnim simulates falling "rain" columns on a 1-D strip by treating
// each zone's pixel buffer as a single column: a lit head with a fading
// tail of length paramLength, advancing one pixel per step.
type matrixAnim struct {
	zones      []zone.ID
	params     *paramStore
	pixelCount map[zone.ID]int
	heads      map[zone.ID]int
}

func newMatrix(zones []zone.ID, initial map[ParamID]ParamValue, pixelCount map[zone.ID]int) *matrixAnim {
	heads := make(map[zone.ID]int, len(zones))
	for i, z := range zones {
		heads[z] = i * 3 % maxInt(1, pixelCount[z])
	}
	return &matrixAnim{zones: zones, params: newParamStore(matrixParams(), initial), pixelCount: pixelCount, heads: heads}
}

func (a *matrixAnim) ID() ID              { return Matrix }
func (a *matrixAnim) Parameters() ParamMap { return matrixParams() }
func (a *matrixAnim) Zones() []zone.ID     { return a.zones }

func (a *matrixAnim) SetParameter(id ParamID, v ParamValue) error {
	return a.params.set(id, v)
}

func (a *matrixAnim) NextFrame(ctx context.Context) (frame.Frame, bool, error) {
	speed := a.params.getInt(paramSpeed)
	length := int(a.params.getInt(paramLength))
	intensity := a.params.getInt(paramIntensity)
	hue := a.params.getHue(paramHue)
	interval := speedInterval(speed)

	full := color.Hue(float64(hue)).WithBrightness(uint8(255 * int(intensity) / 100))

	pixels := make(map[zone.ID][]color.Color, len(a.zones))
	for _, z := range a.zones {
		n := a.pixelCount[z]
		buf := make([]color.Color, n)
		for i := range buf {
			buf[i] = color.Black
		}
		head := a.heads[z]
		for k := 0; k < length && n > 0; k++ {
			idx := ((head-k)%n + n) % n
			fade := uint8(255 - (255*k)/maxInt(1, length))
			buf[idx] = full.WithBrightness(fade)
		}
		if n > 0 {
			a.heads[z] = (head + 1) % n
		}
		pixels[z] = buf
	}

	f := frame.NewPixelFrame(pixels, frame.PriorityAnimation, frame.SourceAnimation, frame.DefaultTTL)
	if !sleepOrDone(ctx, interval) {
		return f, false, ctx.Err()
	}
	return f, false, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
