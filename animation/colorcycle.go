// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package animation

import (
	"context"
	"time"

	"github.com/hollowstrand/ledcore/color"
	"github.com/hollowstrand/ledcore/frame"
	"github.com/hollowstrand/ledcore/internal/zone"
)

// colorCycleStepDuration is the hard-coded step duration named in §4.3's
// catalog table for ColorCycle.
const colorCycleStepDuration = 3 * time.Second

var colorCycleSteps = []color.Color{
	color.Raw(255, 0, 0),
	color.Raw(0, 255, 0),
	color.Raw(0, 0, 255),
}

type colorCycleAnim struct {
	zones []zone.ID
	step  int
}

func newColorCycle(zones []zone.ID, _ map[ParamID]ParamValue) *colorCycleAnim {
	return &colorCycleAnim{zones: zones}
}

func (a *colorCycleAnim) ID() ID              { return ColorCycle }
func (a *colorCycleAnim) Parameters() ParamMap { return ParamMap{} }
func (a *colorCycleAnim) Zones() []zone.ID     { return a.zones }

func (a *colorCycleAnim) SetParameter(id ParamID, v ParamValue) error {
	return errUnknownParam(ColorCycle, id)
}

func (a *colorCycleAnim) NextFrame(ctx context.Context) (frame.Frame, bool, error) {
	col := colorCycleSteps[a.step%len(colorCycleSteps)]
	a.step++
	f := frame.NewFullStrip(col, frame.PriorityAnimation, frame.SourceAnimation, frame.DefaultTTL)
	if !sleepOrDone(ctx, colorCycleStepDuration) {
		return f, false, ctx.Err()
	}
	return f, false, nil
}
