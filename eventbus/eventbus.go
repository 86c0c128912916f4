// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package eventbus implements EventBus (spec.md component 10): typed
// publish/subscribe fan-out for input events (encoder, button, keyboard).
// It is consumed by controllers, never by the rendering core itself.
//
// Per SPEC_FULL.md's design note on heterogeneous payloads, the Bus offers
// one Subscribe method per event variant, each taking a typed callback;
// types are erased only at the internal storage boundary, and callers
// never downcast an interface{}.
package eventbus

import (
	"sync"
	"time"
)

// SubscriptionID identifies one registered callback, returned by a
// Subscribe* call and consumed by Unsubscribe.
type SubscriptionID uint64

// EncoderID names one physical rotary encoder.
type EncoderID string

// ButtonID names one physical momentary button.
type ButtonID string

// EncoderTurnEvent reports a rotary encoder step. Delta is signed: positive
// is clockwise.
type EncoderTurnEvent struct {
	Encoder EncoderID
	Delta   int32
	At      time.Time
}

// EncoderPressEvent reports an encoder's integrated push-button.
type EncoderPressEvent struct {
	Encoder EncoderID
	At      time.Time
}

// ButtonPressEvent reports a standalone button press.
type ButtonPressEvent struct {
	Button ButtonID
	At     time.Time
}

// KeyEvent reports a keyboard key press, published by internal/keyboardctl,
// the keyboard controller cmd/ledcored runs.
type KeyEvent struct {
	Key string
	At  time.Time
}

// Bus is the process-wide EventBus. The zero value is not usable;
// construct with New.
type Bus struct {
	mu     sync.RWMutex
	nextID SubscriptionID

	encoderTurn  map[SubscriptionID]func(EncoderTurnEvent)
	encoderPress map[SubscriptionID]func(EncoderPressEvent)
	buttonPress  map[SubscriptionID]func(ButtonPressEvent)
	key          map[SubscriptionID]func(KeyEvent)
}

// New constructs an empty Bus.
func New() *Bus {
	return &Bus{
		encoderTurn:  make(map[SubscriptionID]func(EncoderTurnEvent)),
		encoderPress: make(map[SubscriptionID]func(EncoderPressEvent)),
		buttonPress:  make(map[SubscriptionID]func(ButtonPressEvent)),
		key:          make(map[SubscriptionID]func(KeyEvent)),
	}
}

func (b *Bus) allocID() SubscriptionID {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	return b.nextID
}

// SubscribeEncoderTurn registers fn to be called on every EncoderTurnEvent.
func (b *Bus) SubscribeEncoderTurn(fn func(EncoderTurnEvent)) SubscriptionID {
	id := b.allocID()
	b.mu.Lock()
	b.encoderTurn[id] = fn
	b.mu.Unlock()
	return id
}

// SubscribeEncoderPress registers fn to be called on every EncoderPressEvent.
func (b *Bus) SubscribeEncoderPress(fn func(EncoderPressEvent)) SubscriptionID {
	id := b.allocID()
	b.mu.Lock()
	b.encoderPress[id] = fn
	b.mu.Unlock()
	return id
}

// SubscribeButtonPress registers fn to be called on every ButtonPressEvent.
func (b *Bus) SubscribeButtonPress(fn func(ButtonPressEvent)) SubscriptionID {
	id := b.allocID()
	b.mu.Lock()
	b.buttonPress[id] = fn
	b.mu.Unlock()
	return id
}

// SubscribeKey registers fn to be called on every KeyEvent.
func (b *Bus) SubscribeKey(fn func(KeyEvent)) SubscriptionID {
	id := b.allocID()
	b.mu.Lock()
	b.key[id] = fn
	b.mu.Unlock()
	return id
}

// Unsubscribe removes a previously registered callback, from whichever
// variant it was registered against. A no-op if id is unknown or already
// removed.
func (b *Bus) Unsubscribe(id SubscriptionID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.encoderTurn, id)
	delete(b.encoderPress, id)
	delete(b.buttonPress, id)
	delete(b.key, id)
}

// PublishEncoderTurn fans e out to every current EncoderTurnEvent
// subscriber, synchronously and in no particular order. Subscribers are
// snapshotted before any callback runs, so a callback that subscribes or
// unsubscribes does not affect this publish.
func (b *Bus) PublishEncoderTurn(e EncoderTurnEvent) {
	b.mu.RLock()
	fns := make([]func(EncoderTurnEvent), 0, len(b.encoderTurn))
	for _, fn := range b.encoderTurn {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()
	for _, fn := range fns {
		fn(e)
	}
}

// PublishEncoderPress fans e out to every current subscriber.
func (b *Bus) PublishEncoderPress(e EncoderPressEvent) {
	b.mu.RLock()
	fns := make([]func(EncoderPressEvent), 0, len(b.encoderPress))
	for _, fn := range b.encoderPress {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()
	for _, fn := range fns {
		fn(e)
	}
}

// PublishButtonPress fans e out to every current subscriber.
func (b *Bus) PublishButtonPress(e ButtonPressEvent) {
	b.mu.RLock()
	fns := make([]func(ButtonPressEvent), 0, len(b.buttonPress))
	for _, fn := range b.buttonPress {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()
	for _, fn := range fns {
		fn(e)
	}
}

// PublishKey fans e out to every current subscriber.
func (b *Bus) PublishKey(e KeyEvent) {
	b.mu.RLock()
	fns := make([]func(KeyEvent), 0, len(b.key))
	for _, fn := range b.key {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()
	for _, fn := range fns {
		fn(e)
	}
}
