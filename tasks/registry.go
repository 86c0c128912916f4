// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package tasks implements TaskRegistry, the process-wide directory of
// every long-running concurrent task (§4.6). Direct "fire and forget" task
// creation is prohibited: every goroutine the rendering core starts must be
// registered here so ShutdownCoordinator can account for it.
package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Category classifies a tracked task.
type Category string

const (
	CategoryAPI         Category = "api"
	CategoryHardware    Category = "hardware"
	CategoryRender      Category = "render"
	CategoryAnimation   Category = "animation"
	CategoryInput       Category = "input"
	CategorySystem      Category = "system"
	CategoryTransition  Category = "transition"
	CategoryEventBus    Category = "eventbus"
	CategoryBackground  Category = "background"
	CategoryGeneral     Category = "general"
)

// Status is a task's terminal (or running) outcome.
type Status uint8

const (
	Running Status = iota
	Completed
	Cancelled
	Failed
)

func (s Status) String() string {
	switch s {
	case Running:
		return "Running"
	case Completed:
		return "Completed"
	case Cancelled:
		return "Cancelled"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Record is the per-task directory entry.
type Record struct {
	ID          int64
	UUID        string
	Category    Category
	Description string
	CreatedBy   string
	CreatedAt   time.Time

	mu     sync.RWMutex
	status Status
	value  string // stringified result, if any
	errStr string // set only when status == Failed
}

// Status returns the current terminal (or Running) status.
func (r *Record) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Error returns the stringified failure, or "" if the task didn't fail.
func (r *Record) Error() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.errStr
}

func (r *Record) setStatus(s Status, value string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = s
	r.value = value
	if err != nil {
		r.errStr = err.Error()
	}
}

// Handle is returned by Register; the caller's goroutine MUST call exactly
// one of Complete, Cancel, or Fail when it exits.
type Handle struct {
	record *Record
}

// Complete marks the task Completed.
func (h *Handle) Complete() { h.record.setStatus(Completed, "", nil) }

// CompleteWithValue marks the task Completed with a stringified result.
func (h *Handle) CompleteWithValue(value string) { h.record.setStatus(Completed, value, nil) }

// Cancel marks the task Cancelled.
func (h *Handle) Cancel() { h.record.setStatus(Cancelled, "", nil) }

// Fail marks the task Failed, recording err's message.
func (h *Handle) Fail(err error) { h.record.setStatus(Failed, "", err) }

// Registry is the process-singleton task directory. The zero value is not
// usable; construct with NewRegistry.
type Registry struct {
	mu      sync.RWMutex
	nextID  int64
	records []*Record
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register allocates a new task record and returns its Handle plus
// monotonic ID. createdBy is an optional free-text hint.
func (reg *Registry) Register(category Category, description, createdBy string) (*Handle, int64) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.nextID++
	rec := &Record{
		ID:          reg.nextID,
		UUID:        uuid.NewString(),
		Category:    category,
		Description: description,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now(),
		status:      Running,
	}
	reg.records = append(reg.records, rec)
	return &Handle{record: rec}, rec.ID
}

// RunTracked registers fn as a task and runs it on a new goroutine,
// transitioning the record when it exits to Cancelled (fn returned an error
// after ctx was cancelled), Failed (fn panicked, or returned an error while
// ctx was still live), or Completed (fn returned nil). This is the
// only sanctioned way to start a background goroutine in the rendering
// core (§4.6: "direct fire and forget task creation is prohibited").
func (reg *Registry) RunTracked(ctx context.Context, category Category, description, createdBy string, fn func(context.Context) error) (*Handle, int64) {
	h, id := reg.Register(category, description, createdBy)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				h.Fail(fmt.Errorf("panic: %v", r))
			}
		}()
		err := fn(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			h.Cancel()
		case err != nil:
			h.Fail(err)
		default:
			h.Complete()
		}
	}()
	return h, id
}

// ListAll returns a snapshot of every record.
func (reg *Registry) ListAll() []*Record {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]*Record, len(reg.records))
	copy(out, reg.records)
	return out
}

// Active returns records currently Running.
func (reg *Registry) Active() []*Record { return reg.filter(Running) }

// Failed returns records that ended Failed.
func (reg *Registry) Failed() []*Record { return reg.filter(Failed) }

// Cancelled returns records that ended Cancelled.
func (reg *Registry) Cancelled() []*Record { return reg.filter(Cancelled) }

func (reg *Registry) filter(status Status) []*Record {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	var out []*Record
	for _, r := range reg.records {
		if r.Status() == status {
			out = append(out, r)
		}
	}
	return out
}

// Summary is the {total, active, failed, cancelled} counter set of §4.6
// and §6's /tasks/summary endpoint.
type Summary struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
}

// Summary computes the current Summary.
func (reg *Registry) Summary() Summary {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	s := Summary{Total: len(reg.records)}
	for _, r := range reg.records {
		switch r.Status() {
		case Running:
			s.Active++
		case Failed:
			s.Failed++
		case Cancelled:
			s.Cancelled++
		}
	}
	return s
}
