// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package frame defines the immutable Frame variants the rendering core
// schedules, plus Priority and Source, the two small closed enumerations
// frames carry.
package frame

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hollowstrand/ledcore/color"
	"github.com/hollowstrand/ledcore/internal/zone"
)

// Priority totally orders frames; higher wins, ties broken by recency.
type Priority int

const (
	PriorityIdle       Priority = 0
	PriorityManual     Priority = 10
	PriorityPulse      Priority = 20
	PriorityAnimation  Priority = 30
	PriorityTransition Priority = 40
	PriorityDebug      Priority = 50
)

func (p Priority) String() string {
	switch p {
	case PriorityIdle:
		return "Idle"
	case PriorityManual:
		return "Manual"
	case PriorityPulse:
		return "Pulse"
	case PriorityAnimation:
		return "Animation"
	case PriorityTransition:
		return "Transition"
	case PriorityDebug:
		return "Debug"
	default:
		return fmt.Sprintf("Priority(%d)", int(p))
	}
}

// AllPriorities lists every level from highest to lowest, the order the
// FrameManager walks them in each tick.
var AllPriorities = []Priority{
	PriorityDebug,
	PriorityTransition,
	PriorityAnimation,
	PriorityPulse,
	PriorityManual,
	PriorityIdle,
}

// Source identifies who submitted a frame. It only affects logging and
// introspection, never selection.
type Source uint8

const (
	SourceIdle Source = iota
	SourceStatic
	SourcePulse
	SourceAnimation
	SourceTransition
	SourcePreview
	SourceDebug
)

func (s Source) String() string {
	switch s {
	case SourceIdle:
		return "idle"
	case SourceStatic:
		return "static"
	case SourcePulse:
		return "pulse"
	case SourceAnimation:
		return "animation"
	case SourceTransition:
		return "transition"
	case SourcePreview:
		return "preview"
	case SourceDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// DefaultTTL is the time-to-live applied when a frame doesn't specify one.
const DefaultTTL = 100 * time.Millisecond

// PreviewPixelCount is the fixed length of a Preview frame's pixel buffer.
const PreviewPixelCount = 8

// Kind identifies which of the four Frame variants a value is.
type Kind uint8

const (
	KindFullStrip Kind = iota
	KindZone
	KindPixel
	KindPreview
)

func (k Kind) String() string {
	switch k {
	case KindFullStrip:
		return "FullStrip"
	case KindZone:
		return "Zone"
	case KindPixel:
		return "Pixel"
	case KindPreview:
		return "Preview"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Meta is embedded in every concrete Frame variant.
type Meta struct {
	ID          string // uuid correlation id, surfaced over introspection only
	Priority    Priority
	Source      Source
	SubmittedAt time.Time
	TTL         time.Duration
}

// Expired reports whether this frame is too old to be selected at `now`.
func (m Meta) Expired(now time.Time) bool {
	return now.Sub(m.SubmittedAt) > m.TTL
}

// Frame is the common interface satisfied by all four variants. The
// concrete variants are immutable once constructed.
type Frame interface {
	Kind() Kind
	Info() Meta
}

func newMeta(priority Priority, source Source, ttl time.Duration) Meta {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return Meta{
		ID:          uuid.NewString(),
		Priority:    priority,
		Source:      source,
		SubmittedAt: time.Now(),
		TTL:         ttl,
	}
}

// FullStripFrame paints every pixel of the channel with one color.
type FullStripFrame struct {
	Meta
	Color color.Color
}

func (f FullStripFrame) Kind() Kind   { return KindFullStrip }
func (f FullStripFrame) Info() Meta   { return f.Meta }

// NewFullStrip constructs a FullStripFrame with the default TTL unless ttl > 0.
func NewFullStrip(c color.Color, priority Priority, source Source, ttl time.Duration) FullStripFrame {
	return FullStripFrame{Meta: newMeta(priority, source, ttl), Color: c}
}

// ZoneFrame paints each listed zone uniformly; unlisted zones retain their
// last rendered state (selection semantics live in package render).
type ZoneFrame struct {
	Meta
	Colors map[zone.ID]color.Color
}

func (f ZoneFrame) Kind() Kind { return KindZone }
func (f ZoneFrame) Info() Meta { return f.Meta }

// NewZoneFrame constructs a ZoneFrame.
func NewZoneFrame(colors map[zone.ID]color.Color, priority Priority, source Source, ttl time.Duration) ZoneFrame {
	return ZoneFrame{Meta: newMeta(priority, source, ttl), Colors: colors}
}

// PixelFrame paints per-pixel colors inside named zones. A PixelFrame is
// authoritative over the whole channel: zones it omits render black (see
// DESIGN.md, Open Question 1).
type PixelFrame struct {
	Meta
	Pixels map[zone.ID][]color.Color
}

func (f PixelFrame) Kind() Kind { return KindPixel }
func (f PixelFrame) Info() Meta { return f.Meta }

// NewPixelFrame constructs a PixelFrame. It does not check pixel counts,
// since this package doesn't know zone geometry; render.Manager runs
// ValidatePixelFrame against the channel's configured zone pixel counts
// before dispatching a PixelFrame.
func NewPixelFrame(pixels map[zone.ID][]color.Color, priority Priority, source Source, ttl time.Duration) PixelFrame {
	return PixelFrame{Meta: newMeta(priority, source, ttl), Pixels: pixels}
}

// ValidatePixelFrame checks that every zone's pixel slice length matches
// the configured pixel count supplied in counts.
func ValidatePixelFrame(f PixelFrame, counts map[zone.ID]int) error {
	for id, pixels := range f.Pixels {
		want, ok := counts[id]
		if !ok {
			return fmt.Errorf("pixel frame: unknown zone %q", id)
		}
		if len(pixels) != want {
			return fmt.Errorf("pixel frame: zone %q expects %d pixels, got %d", id, want, len(pixels))
		}
	}
	return nil
}

// PreviewFrame is a fixed-length buffer for the auxiliary 8-LED feedback
// surface.
type PreviewFrame struct {
	Meta
	Pixels [PreviewPixelCount]color.Color
}

func (f PreviewFrame) Kind() Kind { return KindPreview }
func (f PreviewFrame) Info() Meta { return f.Meta }

// NewPreviewFrame constructs a PreviewFrame from a slice that must have
// exactly PreviewPixelCount elements.
func NewPreviewFrame(pixels []color.Color, priority Priority, source Source, ttl time.Duration) (PreviewFrame, error) {
	var buf [PreviewPixelCount]color.Color
	if len(pixels) != PreviewPixelCount {
		return PreviewFrame{}, fmt.Errorf("preview frame: expected %d pixels, got %d", PreviewPixelCount, len(pixels))
	}
	copy(buf[:], pixels)
	return PreviewFrame{Meta: newMeta(priority, source, ttl), Pixels: buf}, nil
}
