// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package frame

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollowstrand/ledcore/color"
	"github.com/hollowstrand/ledcore/internal/zone"
)

const lampZone zone.ID = "LAMP"

func TestExpiredReportsPastTTL(t *testing.T) {
	f := NewFullStrip(color.Black, PriorityManual, SourceStatic, 10*time.Millisecond)
	assert.False(t, f.Info().Expired(f.Info().SubmittedAt))
	assert.True(t, f.Info().Expired(f.Info().SubmittedAt.Add(20*time.Millisecond)))
}

func TestNewFullStripAppliesDefaultTTLWhenZero(t *testing.T) {
	f := NewFullStrip(color.Black, PriorityIdle, SourceIdle, 0)
	assert.Equal(t, DefaultTTL, f.Info().TTL)
}

func TestValidatePixelFrameAcceptsMatchingLengths(t *testing.T) {
	f := NewPixelFrame(map[zone.ID][]color.Color{
		lampZone: {color.Black, color.Black, color.Black},
	}, PriorityAnimation, SourceAnimation, 0)
	err := ValidatePixelFrame(f, map[zone.ID]int{lampZone: 3})
	require.NoError(t, err)
}

func TestValidatePixelFrameRejectsLengthMismatch(t *testing.T) {
	f := NewPixelFrame(map[zone.ID][]color.Color{
		lampZone: {color.Black, color.Black},
	}, PriorityAnimation, SourceAnimation, 0)
	err := ValidatePixelFrame(f, map[zone.ID]int{lampZone: 3})
	require.Error(t, err)
}

func TestValidatePixelFrameRejectsUnknownZone(t *testing.T) {
	f := NewPixelFrame(map[zone.ID][]color.Color{
		lampZone: {color.Black},
	}, PriorityAnimation, SourceAnimation, 0)
	err := ValidatePixelFrame(f, map[zone.ID]int{})
	require.Error(t, err)
}

func TestNewPreviewFrameRejectsWrongLength(t *testing.T) {
	_, err := NewPreviewFrame(make([]color.Color, 3), PriorityDebug, SourceDebug, 0)
	require.Error(t, err)
}

func TestNewPreviewFrameAcceptsExactLength(t *testing.T) {
	pf, err := NewPreviewFrame(make([]color.Color, PreviewPixelCount), PriorityDebug, SourceDebug, 0)
	require.NoError(t, err)
	assert.Equal(t, KindPreview, pf.Kind())
}

func TestAllPrioritiesOrderedHighestFirst(t *testing.T) {
	require.Equal(t, PriorityDebug, AllPriorities[0])
	require.Equal(t, PriorityIdle, AllPriorities[len(AllPriorities)-1])
}
