// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config loads the hardware/zone/color manifest described in
// spec.md §6. This is ambient bootstrap plumbing, not part of the
// rendering core's algorithms: it produces plain structs that
// cmd/ledcored translates into channel.Config values, zone pixel ranges,
// and control.ZoneInfo entries, and never leaks into FrameManager,
// AnimationEngine, or TransitionService.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/hollowstrand/ledcore/internal/errs"
)

// HardwareChannel describes one physical output channel from the manifest's
// `hardware:` list.
type HardwareChannel struct {
	ID         string `yaml:"id"`
	Address    string `yaml:"address"`
	ChipModel  string `yaml:"chip_model"`
	ByteOrder  string `yaml:"byte_order"`
	PixelCount int    `yaml:"pixel_count"`
}

// ZoneSpec describes one zone from the manifest's `zones:` list.
type ZoneSpec struct {
	ID          string `yaml:"id"`
	DisplayName string `yaml:"display_name"`
	PixelCount  int    `yaml:"pixel_count"`
	Enabled     bool   `yaml:"enabled"`
}

// Binding maps a zone to the hardware channel it renders on, from the
// manifest's `bindings:` list (§6: "resolved from a separate
// zone-to-channel mapping so zones can be assigned without touching code").
type Binding struct {
	Zone    string `yaml:"zone"`
	Channel string `yaml:"channel"`
}

// ColorPreset is one entry of the manifest's `colors:` preset dictionary.
type ColorPreset struct {
	Name string `yaml:"name"`
	R    uint8  `yaml:"r"`
	G    uint8  `yaml:"g"`
	B    uint8  `yaml:"b"`
}

// Manifest is the fully decoded, not-yet-validated configuration document.
type Manifest struct {
	TickRateHz int               `yaml:"tick_rate_hz"`
	LogLevel   string            `yaml:"log_level"`
	Hardware   []HardwareChannel `yaml:"hardware"`
	Zones      []ZoneSpec        `yaml:"zones"`
	Bindings   []Binding         `yaml:"bindings"`
	Colors     []ColorPreset     `yaml:"colors"`
}

// Load reads the manifest at path. Scalar bootstrap settings (tick rate,
// log level) go through viper so they can be overridden by LEDCORE_*
// environment variables; the manifest body (hardware/zones/bindings/colors)
// is strict-decoded with yaml.v3 so an unrecognized field is a ConfigError
// rather than silently ignored.
func Load(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.NewConfigError("", fmt.Errorf("reading manifest %q: %w", path, err))
	}

	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, errs.NewConfigError("", fmt.Errorf("decoding manifest %q: %w", path, err))
	}

	v := viper.New()
	v.SetEnvPrefix("LEDCORE")
	v.AutomaticEnv()
	v.SetDefault("tick_rate_hz", m.TickRateHz)
	v.SetDefault("log_level", m.LogLevel)
	if hz := v.GetInt("tick_rate_hz"); hz > 0 {
		m.TickRateHz = hz
	}
	if lvl := v.GetString("log_level"); lvl != "" {
		m.LogLevel = normalizeLevel(lvl)
	}

	if err := Validate(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the structural invariants spec.md §6/§4.0 require:
// no duplicate zone ids, every binding resolves to a declared hardware
// channel, and no channel is overbooked by the sum of its bound zones'
// pixel counts.
func Validate(m *Manifest) error {
	seenZones := make(map[string]bool, len(m.Zones))
	for _, z := range m.Zones {
		if seenZones[z.ID] {
			return errs.NewConfigError("zones", fmt.Errorf("duplicate zone id %q", z.ID))
		}
		seenZones[z.ID] = true
	}

	channelsByID := make(map[string]HardwareChannel, len(m.Hardware))
	for _, h := range m.Hardware {
		channelsByID[h.ID] = h
	}

	zonePixelCount := make(map[string]int, len(m.Zones))
	for _, z := range m.Zones {
		zonePixelCount[z.ID] = z.PixelCount
	}

	used := make(map[string]int, len(m.Hardware))
	for _, b := range m.Bindings {
		ch, ok := channelsByID[b.Channel]
		if !ok {
			return errs.NewConfigError("bindings", fmt.Errorf("zone %q binds to undeclared channel %q", b.Zone, b.Channel))
		}
		if !seenZones[b.Zone] {
			return errs.NewConfigError("bindings", fmt.Errorf("binding references undeclared zone %q", b.Zone))
		}
		used[b.Channel] += zonePixelCount[b.Zone]
		if used[b.Channel] > ch.PixelCount {
			return errs.NewConfigError("bindings", fmt.Errorf(
				"channel %q overbooked: bound zones need %d pixels, channel has %d",
				b.Channel, used[b.Channel], ch.PixelCount))
		}
	}
	return nil
}

// ZoneRange is a zone's absolute [Start, End) pixel range on its bound
// channel.
type ZoneRange struct {
	Channel    string
	Start, End int
}

// ResolveZoneRanges computes each zone's absolute pixel range on its bound
// channel by summing preceding zones' pixel counts on the same channel, in
// manifest declaration order (§6).
func ResolveZoneRanges(m *Manifest) map[string]ZoneRange {
	pixelCount := make(map[string]int, len(m.Zones))
	for _, z := range m.Zones {
		pixelCount[z.ID] = z.PixelCount
	}

	offsets := make(map[string]int)
	out := make(map[string]ZoneRange, len(m.Bindings))
	for _, b := range m.Bindings {
		start := offsets[b.Channel]
		n := pixelCount[b.Zone]
		out[b.Zone] = ZoneRange{Channel: b.Channel, Start: start, End: start + n}
		offsets[b.Channel] = start + n
	}
	return out
}

// String-ify log level sanely; viper hands back whatever casing the
// environment used.
func normalizeLevel(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
