// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package simdriver is a simulated channel.Driver standing in for "the
// physical driver library for the LED controller chip" (spec.md §1, listed
// as out of scope). It holds the last-flushed bytes in memory so the rest
// of the pipeline is runnable and testable on any machine, the same way
// periph.io's devicestest package lets devices be tested without hardware.
package simdriver

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Sim is an in-memory channel.Driver. It never fails unless FailNext is set,
// which render's TestQuarantineAfterConsecutiveFailures uses to exercise the
// FrameManager's consecutive-failure quarantine.
type Sim struct {
	log zerolog.Logger

	mu       sync.Mutex
	last     []byte
	flushes  int
	failNext int
}

// New constructs a Sim driver.
func New(log zerolog.Logger) *Sim {
	return &Sim{log: log}
}

// Flush records the bytes it was given. If FailNext was armed, it
// decrements the counter and returns an error instead.
func (s *Sim) Flush(ctx context.Context, bytes []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext > 0 {
		s.failNext--
		s.log.Warn().Int("bytes", len(bytes)).Msg("simulated flush failure")
		return errFlush
	}
	s.last = append(s.last[:0], bytes...)
	s.flushes++
	return nil
}

// Last returns a copy of the most recently flushed bytes.
func (s *Sim) Last() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.last))
	copy(out, s.last)
	return out
}

// Flushes returns the number of successful flushes observed so far.
func (s *Sim) Flushes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushes
}

// FailNext arms the next n Flush calls to fail.
func (s *Sim) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
}

type simError string

func (e simError) Error() string { return string(e) }

const errFlush = simError("simulated driver: flush failed")
