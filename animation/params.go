// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package animation

import (
	"fmt"
	"sync"

	"github.com/hollowstrand/ledcore/color"
)

// ParamID names one parameter declared by an Animation.
type ParamID string

// ParamKind identifies which field of a ParamValue is meaningful.
type ParamKind uint8

const (
	KindInt ParamKind = iota
	KindFloat
	KindBool
	KindEnum
	KindColor
	KindHue
)

// ParamValue is a tagged union of the value types parameters may hold.
type ParamValue struct {
	kind  ParamKind
	i     int32
	f     float32
	b     bool
	enum  string
	color color.Color
	hue   uint16
}

func IntValue(v int32) ParamValue     { return ParamValue{kind: KindInt, i: v} }
func FloatValue(v float32) ParamValue { return ParamValue{kind: KindFloat, f: v} }
func BoolValue(v bool) ParamValue     { return ParamValue{kind: KindBool, b: v} }
func EnumValue(v string) ParamValue   { return ParamValue{kind: KindEnum, enum: v} }
func ColorValue(v color.Color) ParamValue { return ParamValue{kind: KindColor, color: v} }
func HueValue(v uint16) ParamValue    { return ParamValue{kind: KindHue, hue: v % 360} }

func (v ParamValue) Kind() ParamKind { return v.kind }
func (v ParamValue) Int() int32      { return v.i }
func (v ParamValue) Float() float32  { return v.f }
func (v ParamValue) Bool() bool      { return v.b }
func (v ParamValue) Enum() string    { return v.enum }
func (v ParamValue) Color() color.Color { return v.color }
func (v ParamValue) Hue() uint16     { return v.hue }

// ParamDecl declares one parameter's type, range, and default.
type ParamDecl struct {
	ID      ParamID
	Kind    ParamKind
	Min     float64
	Max     float64
	Step    float64
	Options []string // valid only for KindEnum
	Default ParamValue
}

// ParamMap is the set of parameters an Animation declares, keyed by ID.
type ParamMap map[ParamID]ParamDecl

// Validate checks a candidate value against a declaration's kind and range.
func (d ParamDecl) Validate(v ParamValue) error {
	if v.kind != d.Kind {
		return fmt.Errorf("parameter %s: expected kind %d, got %d", d.ID, d.Kind, v.kind)
	}
	switch d.Kind {
	case KindInt:
		if float64(v.i) < d.Min || float64(v.i) > d.Max {
			return fmt.Errorf("parameter %s: %d out of range [%g,%g]", d.ID, v.i, d.Min, d.Max)
		}
	case KindFloat:
		if float64(v.f) < d.Min || float64(v.f) > d.Max {
			return fmt.Errorf("parameter %s: %g out of range [%g,%g]", d.ID, v.f, d.Min, d.Max)
		}
	case KindHue:
		if v.hue >= 360 {
			return fmt.Errorf("parameter %s: hue %d out of range [0,360)", d.ID, v.hue)
		}
	case KindEnum:
		ok := false
		for _, o := range d.Options {
			if o == v.enum {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("parameter %s: %q not one of %v", d.ID, v.enum, d.Options)
		}
	}
	return nil
}

// paramStore is a mutex-guarded live parameter table shared by every
// concrete animation. next_frame reads through getInt/getHue; SetParameter
// validates then writes through set — both safe to call concurrently since a running
// animation's task goroutine and a controller updating a live parameter
// are different goroutines (§4.3's "live parameter mutation").
type paramStore struct {
	mu     sync.RWMutex
	decl   ParamMap
	values map[ParamID]ParamValue
}

func newParamStore(decl ParamMap, initial map[ParamID]ParamValue) *paramStore {
	values := make(map[ParamID]ParamValue, len(decl))
	for id, d := range decl {
		values[id] = d.Default
	}
	for id, v := range initial {
		if _, ok := decl[id]; ok {
			values[id] = v
		}
	}
	return &paramStore{decl: decl, values: values}
}

func (p *paramStore) set(id ParamID, v ParamValue) error {
	d, ok := p.decl[id]
	if !ok {
		return fmt.Errorf("unknown parameter %q", id)
	}
	if err := d.Validate(v); err != nil {
		return err
	}
	p.mu.Lock()
	p.values[id] = v
	p.mu.Unlock()
	return nil
}

func (p *paramStore) getInt(id ParamID) int32 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.values[id].i
}

func (p *paramStore) getHue(id ParamID) uint16 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.values[id].hue
}
