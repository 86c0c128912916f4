// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// ledcored is the rendering-core daemon: it loads a hardware/zone
// manifest, wires OutputChannels through FrameManager, AnimationEngine,
// and TransitionService, starts the introspection HTTP server, and runs
// until SIGINT/SIGTERM drive it through ShutdownCoordinator.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hollowstrand/ledcore/color"
	"github.com/hollowstrand/ledcore/engine"
	"github.com/hollowstrand/ledcore/eventbus"
	intchannel "github.com/hollowstrand/ledcore/internal/channel"
	"github.com/hollowstrand/ledcore/internal/channel/simdriver"
	"github.com/hollowstrand/ledcore/internal/config"
	"github.com/hollowstrand/ledcore/internal/control"
	"github.com/hollowstrand/ledcore/internal/errs"
	"github.com/hollowstrand/ledcore/internal/httpapi"
	"github.com/hollowstrand/ledcore/internal/keyboardctl"
	"github.com/hollowstrand/ledcore/internal/zone"
	"github.com/hollowstrand/ledcore/render"
	"github.com/hollowstrand/ledcore/shutdown"
	"github.com/hollowstrand/ledcore/tasks"
	"github.com/hollowstrand/ledcore/transition"
)

var (
	flagConfigPath string
	flagHTTPAddr   string
)

func main() {
	root := &cobra.Command{
		Use:   "ledcored",
		Short: "Run the ledcore rendering daemon",
		RunE:  run,
	}
	root.Flags().StringVar(&flagConfigPath, "config", "manifest.yaml", "path to the hardware/zone manifest")
	root.Flags().StringVar(&flagHTTPAddr, "http-addr", ":8080", "address for the introspection HTTP server")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ledcored: %s\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	manifest, err := config.Load(flagConfigPath)
	if err != nil {
		return err
	}

	log := newLogger(manifest.LogLevel)

	channels, zonePixelCountsByChannel, err := buildChannels(log, manifest)
	if err != nil {
		return err
	}
	ranges := config.ResolveZoneRanges(manifest)

	mgr := render.NewManager(log, channels, zonePixelCountsByChannel, render.WithTickRate(tickRateOrDefault(manifest.TickRateHz)))
	trans := transition.New(mgr, log)
	registry := tasks.NewRegistry()

	channelForZone := make(map[zone.ID]intchannel.ID, len(manifest.Zones))
	zonePixelCounts := make(map[zone.ID]int, len(manifest.Zones))
	staticColors := make(map[zone.ID]color.Color, len(manifest.Zones))
	zoneInfos := make(map[zone.ID]control.ZoneInfo, len(manifest.Zones))
	for _, z := range manifest.Zones {
		id := zone.ID(z.ID)
		r, ok := ranges[z.ID]
		if !ok {
			continue // zone declared but not bound to any channel; config.Validate already rejected overbooking, an unbound zone just never renders
		}
		ch := intchannel.ID(r.Channel)
		channelForZone[id] = ch
		zonePixelCounts[id] = z.PixelCount
		staticColors[id] = color.Black
		zoneInfos[id] = control.ZoneInfo{Channel: ch, PixelCount: z.PixelCount, StaticColor: color.Black}
	}

	eng := engine.New(log, mgr, mgr, trans, registry,
		func(z zone.ID) intchannel.ID { return channelForZone[z] },
		zonePixelCounts, staticColors, tickRateOrDefault(manifest.TickRateHz))

	facade := control.New(log, mgr, eng, trans, zoneInfos, tickRateOrDefault(manifest.TickRateHz))

	httpSrv := httpapi.New(log, registry)

	coordinator := shutdown.New(log)
	coordinator.Register(shutdown.Handler{
		Priority: shutdown.PriorityOutputClear, Name: "clear-channels",
		Action: func(ctx context.Context) error { return clearAllChannels(ctx, channels) },
	})
	coordinator.Register(shutdown.Handler{
		Priority: shutdown.PriorityAnimationStop, Name: "animation-stop-all",
		Action: func(ctx context.Context) error { eng.StopAll(ctx); return nil },
	})
	coordinator.Register(shutdown.Handler{
		Priority: shutdown.PriorityComponent, Name: "render-manager-stop",
		Action: func(ctx context.Context) error { mgr.Stop(); return nil },
	})
	coordinator.RegisterEmergencyCleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = clearAllChannels(ctx, channels)
	})

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	bus := eventbus.New()
	firstZone := firstZoneID(manifest)
	if firstZone != "" {
		ctl := keyboardctl.New(log, bus, facade, firstZone)
		registry.RunTracked(runCtx, tasks.CategoryInput, "keyboard controller", "main", func(ctx context.Context) error {
			return ctl.Run(ctx, os.Stdin)
		})
	}

	registry.RunTracked(runCtx, tasks.CategoryRender, "frame manager tick loop", "main", func(ctx context.Context) error {
		mgr.Run(ctx)
		return nil
	})
	registry.RunTracked(runCtx, tasks.CategoryAPI, "introspection http server", "main", func(ctx context.Context) error {
		errCh := make(chan error, 1)
		go func() { errCh <- httpSrv.ListenAndServe(flagHTTPAddr) }()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return err
		}
	})

	watcher, err := config.NewWatcher(log, flagConfigPath)
	if err == nil {
		registry.RunTracked(runCtx, tasks.CategorySystem, "manifest change watcher", "main", watcher.Run)
	} else {
		log.Warn().Err(err).Msg("ledcored: could not start manifest watcher")
	}

	log.Info().Str("http_addr", flagHTTPAddr).Int("zones", len(zoneInfos)).Msg("ledcored: started")
	coordinator.WaitForSignal(runCtx)
	cancelRun()
	return nil
}

func tickRateOrDefault(hz int) int {
	if hz <= 0 {
		return render.DefaultTickRateHz
	}
	return hz
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(lvl).With().Timestamp().Logger()
}

func buildChannels(log zerolog.Logger, manifest *config.Manifest) (map[intchannel.ID]*intchannel.Channel, map[intchannel.ID]map[zone.ID]int, error) {
	channels := make(map[intchannel.ID]*intchannel.Channel, len(manifest.Hardware))
	zonePixelCountsByChannel := make(map[intchannel.ID]map[zone.ID]int, len(manifest.Hardware))
	ranges := config.ResolveZoneRanges(manifest)

	for _, h := range manifest.Hardware {
		order, err := parseByteOrder(h.ByteOrder)
		if err != nil {
			return nil, nil, errs.NewConfigError("hardware.byte_order", err)
		}
		drv := simdriver.New(log)
		zoneRanges := make(map[zone.ID][2]int)
		pixelCounts := make(map[zone.ID]int)
		for _, z := range manifest.Zones {
			r, ok := ranges[z.ID]
			if !ok || r.Channel != h.ID {
				continue
			}
			zoneRanges[zone.ID(z.ID)] = [2]int{r.Start, r.End}
			pixelCounts[zone.ID(z.ID)] = z.PixelCount
		}
		channels[intchannel.ID(h.ID)] = intchannel.New(intchannel.Config{
			ID:         intchannel.ID(h.ID),
			PixelCount: h.PixelCount,
			Order:      order,
		}, drv, zoneRanges)
		zonePixelCountsByChannel[intchannel.ID(h.ID)] = pixelCounts
	}
	return channels, zonePixelCountsByChannel, nil
}

func parseByteOrder(s string) (intchannel.ByteOrder, error) {
	switch s {
	case "", "RGB":
		return intchannel.OrderRGB, nil
	case "GRB":
		return intchannel.OrderGRB, nil
	case "BRG":
		return intchannel.OrderBRG, nil
	default:
		return 0, fmt.Errorf("unknown byte order %q", s)
	}
}

func clearAllChannels(ctx context.Context, channels map[intchannel.ID]*intchannel.Channel) error {
	var firstErr error
	for _, ch := range channels {
		if err := ch.Clear(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func firstZoneID(manifest *config.Manifest) zone.ID {
	if len(manifest.Zones) == 0 {
		return ""
	}
	return zone.ID(manifest.Zones[0].ID)
}
