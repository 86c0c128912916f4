// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package color

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithBrightnessPreservesMode(t *testing.T) {
	cases := []Color{
		Black,
		Raw(10, 20, 30),
		Hue(240),
		Preset("warm-white", 255, 214, 170),
	}
	for _, c := range cases {
		for _, b := range []uint8{0, 1, 128, 254, 255} {
			got := c.WithBrightness(b)
			assert.Equal(t, c.Mode(), got.Mode(), "mode must survive WithBrightness(%d)", b)
		}
	}
}

func TestWithBrightnessFullIsIdentity(t *testing.T) {
	c := Raw(12, 200, 7)
	r1, g1, b1 := c.ToRGB()
	r2, g2, b2 := c.WithBrightness(255).ToRGB()
	assert.Equal(t, r1, r2)
	assert.Equal(t, g1, g2)
	assert.Equal(t, b1, b2)
}

func TestWithBrightnessZeroIsBlack(t *testing.T) {
	c := Hue(90)
	r, g, b := c.WithBrightness(0).ToRGB()
	assert.Equal(t, uint8(0), r)
	assert.Equal(t, uint8(0), g)
	assert.Equal(t, uint8(0), b)
}

func TestHue240ScaledToHalfIsBlue(t *testing.T) {
	d := Hue(240).WithBrightness(128)
	require.Equal(t, ModeHue, d.Mode())
	r, g, b := d.ToRGB()
	assert.Equal(t, uint8(0), r)
	assert.Equal(t, uint8(0), g)
	assert.Equal(t, uint8(128), b)
}

func TestPresetEagerResolution(t *testing.T) {
	c := Preset("candle", 255, 147, 41)
	r, g, b := c.ToRGB()
	assert.Equal(t, uint8(255), r)
	assert.Equal(t, uint8(147), g)
	assert.Equal(t, uint8(41), b)
	assert.Equal(t, "candle", c.PresetName())
}

func TestBlackIsRawZero(t *testing.T) {
	r, g, b := Black.ToRGB()
	assert.Equal(t, uint8(0), r)
	assert.Equal(t, uint8(0), g)
	assert.Equal(t, uint8(0), b)
	assert.Equal(t, ModeRaw, Black.Mode())
}

func TestHueWrapsModulo360(t *testing.T) {
	a := Hue(10)
	b := Hue(370)
	assert.True(t, a.Equal(b))
}
