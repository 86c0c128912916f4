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

func snakeParams() ParamMap {
	return ParamMap{
		paramSpeed:  {ID: paramSpeed, Kind: KindInt, Min: 1, Max: 100, Step: 1, Default: IntValue(50)},
		paramLength: {ID: paramLength, Kind: KindInt, Min: 1, Max: 20, Step: 1, Default: IntValue(5)},
		paramHue:    {ID: paramHue, Kind: KindHue, Min: 0, Max: 359, Step: 1, Default: HueValue(0)},
	}
}

type snakeAnim struct {
	zones      []zone.ID
	params     *paramStore
	pixelCount map[zone.ID]int
	head       int
}

func newSnake(zones []zone.ID, initial map[ParamID]ParamValue, pixelCount map[zone.ID]int) *snakeAnim {
	return &snakeAnim{zones: zones, params: newParamStore(snakeParams(), initial), pixelCount: pixelCount}
}

func (a *snakeAnim) ID() ID              { return Snake }
func (a *snakeAnim) Parameters() ParamMap { return snakeParams() }
func (a *snakeAnim) Zones() []zone.ID     { return a.zones }

func (a *snakeAnim) SetParameter(id ParamID, v ParamValue) error {
	return a.params.set(id, v)
}

func (a *snakeAnim) NextFrame(ctx context.Context) (frame.Frame, bool, error) {
	speed := a.params.getInt(paramSpeed)
	length := int(a.params.getInt(paramLength))
	hue := a.params.getHue(paramHue)
	interval := speedInterval(speed)

	lit := color.Hue(float64(hue))
	pixels := make(map[zone.ID][]color.Color, len(a.zones))
	for _, z := range a.zones {
		n := a.pixelCount[z]
		buf := make([]color.Color, n)
		for i := range buf {
			buf[i] = color.Black
		}
		for k := 0; k < length && n > 0; k++ {
			idx := ((a.head-k)%n + n) % n
			buf[idx] = lit
		}
		pixels[z] = buf
	}
	a.head++

	f := frame.NewPixelFrame(pixels, frame.PriorityAnimation, frame.SourceAnimation, frame.DefaultTTL)
	if !sleepOrDone(ctx, interval) {
		return f, false, ctx.Err()
	}
	return f, false, nil
}
