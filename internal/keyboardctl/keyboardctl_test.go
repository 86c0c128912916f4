// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package keyboardctl

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/hollowstrand/ledcore/color"
	intchannel "github.com/hollowstrand/ledcore/internal/channel"
	"github.com/hollowstrand/ledcore/internal/channel/simdriver"
	"github.com/hollowstrand/ledcore/internal/control"
	"github.com/hollowstrand/ledcore/internal/zone"
	"github.com/hollowstrand/ledcore/engine"
	"github.com/hollowstrand/ledcore/eventbus"
	"github.com/hollowstrand/ledcore/render"
	"github.com/hollowstrand/ledcore/tasks"
	"github.com/hollowstrand/ledcore/transition"
)

const mainCh intchannel.ID = "MAIN"
const lampZone zone.ID = "LAMP"

func TestKeyPressStartsAnimationThroughFacade(t *testing.T) {
	log := zerolog.Nop()
	drv := simdriver.New(log)
	ch := intchannel.New(intchannel.Config{ID: mainCh, PixelCount: 4}, drv, map[zone.ID][2]int{lampZone: {0, 4}})
	mgr := render.NewManager(log, map[intchannel.ID]*intchannel.Channel{mainCh: ch},
		map[intchannel.ID]map[zone.ID]int{mainCh: {lampZone: 4}}, render.WithTickRate(500))

	trans := transition.New(mgr, log)
	reg := tasks.NewRegistry()
	eng := engine.New(log, mgr, mgr, trans, reg,
		func(zone.ID) intchannel.ID { return mainCh },
		map[zone.ID]int{lampZone: 4},
		map[zone.ID]color.Color{lampZone: color.Raw(5, 5, 5)},
		500)
	facade := control.New(log, mgr, eng, trans, map[zone.ID]control.ZoneInfo{
		lampZone: {Channel: mainCh, PixelCount: 4, StaticColor: color.Raw(5, 5, 5)},
	}, 500)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mgr.Run(ctx)

	bus := eventbus.New()
	ctrl := New(log, bus, facade, lampZone)

	require.NoError(t, ctrl.Run(context.Background(), strings.NewReader("b")))

	require.Eventually(t, func() bool {
		return eng.StateOf(lampZone) == engine.StateRunning
	}, time.Second, time.Millisecond)
}
