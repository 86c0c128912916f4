// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package color implements the tagged-variant Color model used throughout
// the rendering core.
//
// A Color is constructed in one of three modes (Hue, Preset, Raw) plus the
// Black convenience value. Every Color carries its resolved RGB triple from
// construction (Hue computes it in its constructor, Preset takes it from the
// caller), and ToRGB returns that triple; WithBrightness scales a Color while
// preserving its mode so a dimmed Hue is still a Hue and a dimmed Preset is
// still a Preset. RGB bytes are only materialized for real at the
// OutputChannel boundary (see package channel).
package color

import "fmt"

// Mode identifies which variant a Color was constructed as.
type Mode uint8

const (
	// ModeRaw holds an explicit (r, g, b) triple.
	ModeRaw Mode = iota
	// ModeHue holds a hue angle with saturation and value implicit at maximum.
	ModeHue
	// ModePreset holds a symbolic preset name paired with its eagerly
	// resolved RGB triple (see §9 of the design notes: this avoids a
	// circular dependency on a preset manager at runtime).
	ModePreset
)

func (m Mode) String() string {
	switch m {
	case ModeRaw:
		return "Raw"
	case ModeHue:
		return "Hue"
	case ModePreset:
		return "Preset"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Color is a tagged variant: exactly one of the constructors below should be
// used to build a value; the zero value is Black.
type Color struct {
	mode Mode

	// hue is valid when mode == ModeHue, degrees in [0, 360).
	hue uint16

	// presetName is valid when mode == ModePreset.
	presetName string

	r, g, b uint8
}

// Black is equivalent to Raw(0, 0, 0).
var Black = Color{mode: ModeRaw}

// Raw constructs a Color from explicit channel values.
func Raw(r, g, b uint8) Color {
	return Color{mode: ModeRaw, r: r, g: g, b: b}
}

// Hue constructs a Color from a hue angle in degrees, wrapped into [0, 360).
// Saturation and value are implicitly maximum.
func Hue(degrees float64) Color {
	h := mod360(degrees)
	r, g, b := hueToRGB(h)
	return Color{mode: ModeHue, hue: uint16(h), r: r, g: g, b: b}
}

// Preset constructs a Color from a symbolic preset name and its eagerly
// resolved RGB triple. Resolution happens once, by the caller (typically a
// config-driven color table), so this package never needs a back-reference
// to whatever owns the preset dictionary.
func Preset(name string, r, g, b uint8) Color {
	return Color{mode: ModePreset, presetName: name, r: r, g: g, b: b}
}

// Mode reports which variant this Color was constructed as.
func (c Color) Mode() Mode { return c.mode }

// PresetName returns the symbolic name for a ModePreset Color, or "" for
// any other mode.
func (c Color) PresetName() string {
	if c.mode != ModePreset {
		return ""
	}
	return c.presetName
}

// HueDegrees returns the hue angle for a ModeHue Color, or 0 for any other
// mode.
func (c Color) HueDegrees() float64 {
	if c.mode != ModeHue {
		return 0
	}
	return float64(c.hue)
}

// ToRGB resolves the Color to its byte triple. This is the only place a
// Color's mode is forgotten; callers that need to keep dimming a value
// after this point have already left the rendering pipeline's color model.
func (c Color) ToRGB() (uint8, uint8, uint8) {
	return c.r, c.g, c.b
}

// WithBrightness returns a new Color in the same Mode, each channel scaled
// by brightness/255 using integer arithmetic that rounds down. This is the
// only sanctioned way to dim a Color in the rendering pipeline.
func (c Color) WithBrightness(brightness uint8) Color {
	scale := func(v uint8) uint8 {
		return uint8((uint32(v) * uint32(brightness)) / 255)
	}
	out := c
	out.r = scale(c.r)
	out.g = scale(c.g)
	out.b = scale(c.b)
	return out
}

// Equal reports whether two Colors have the same mode and resolved RGB
// value. Preset colors with the same name but different resolved triples
// (shouldn't happen, but config bugs exist) are not equal.
func (c Color) Equal(o Color) bool {
	return c.mode == o.mode && c.r == o.r && c.g == o.g && c.b == o.b &&
		c.presetName == o.presetName && c.hue == o.hue
}

func mod360(degrees float64) float64 {
	d := degrees
	for d < 0 {
		d += 360
	}
	for d >= 360 {
		d -= 360
	}
	return d
}

// hueToRGB converts a hue angle (full saturation, full value) to an RGB
// triple using the standard six-sector HSV conversion.
func hueToRGB(h float64) (uint8, uint8, uint8) {
	hp := h / 60.0
	x := 1 - absFloat(modFloat(hp, 2)-1)
	var r1, g1, b1 float64
	switch {
	case hp < 1:
		r1, g1, b1 = 1, x, 0
	case hp < 2:
		r1, g1, b1 = x, 1, 0
	case hp < 3:
		r1, g1, b1 = 0, 1, x
	case hp < 4:
		r1, g1, b1 = 0, x, 1
	case hp < 5:
		r1, g1, b1 = x, 0, 1
	default:
		r1, g1, b1 = 1, 0, x
	}
	return uint8(r1 * 255), uint8(g1 * 255), uint8(b1 * 255)
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func modFloat(v, m float64) float64 {
	for v >= m {
		v -= m
	}
	for v < 0 {
		v += m
	}
	return v
}
