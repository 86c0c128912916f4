// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package httpapi implements the five read-only introspection endpoints of
// spec.md §6 over net/http's ServeMux pattern routing. Stdlib routing is
// sufficient for five JSON GETs with no path parameters (see DESIGN.md for
// why no third-party router is wired here). Handlers read only from
// tasks.Registry and hold no state of their own.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/hollowstrand/ledcore/tasks"
)

// Server serves the introspection surface.
type Server struct {
	log zerolog.Logger
	reg *tasks.Registry
	mux *http.ServeMux
}

// New constructs a Server backed by reg. Call Handler to obtain the
// http.Handler to mount, or ListenAndServe to run it standalone.
func New(log zerolog.Logger, reg *tasks.Registry) *Server {
	s := &Server{log: log, reg: reg, mux: http.NewServeMux()}
	s.mux.HandleFunc("/tasks/summary", s.handleSummary)
	s.mux.HandleFunc("/tasks/active", s.handleActive)
	s.mux.HandleFunc("/tasks/failed", s.handleFailed)
	s.mux.HandleFunc("/tasks", s.handleTasks)
	s.mux.HandleFunc("/health", s.handleHealth)
	return s
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe runs the server on addr until it errors or the process
// exits. Intended to be started via tasks.Registry.RunTracked under
// CategoryAPI.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("httpapi: failed to encode response")
	}
}

type taskView struct {
	ID          int64  `json:"id"`
	Category    string `json:"category"`
	Description string `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
}

func toTaskView(r *tasks.Record) taskView {
	return taskView{
		ID:          r.ID,
		Category:    string(r.Category),
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		Status:      r.Status().String(),
		Error:       r.Error(),
	}
}

type activeTaskView struct {
	taskView
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

type failedTaskView struct {
	taskView
	ErrorType string `json:"error_type"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.reg.Summary())
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	records := s.reg.ListAll()
	out := make([]taskView, 0, len(records))
	for _, rec := range records {
		out = append(out, toTaskView(rec))
	}
	s.writeJSON(w, out)
}

func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	records := s.reg.Active()
	out := make([]activeTaskView, 0, len(records))
	for _, rec := range records {
		out = append(out, activeTaskView{
			taskView:       toTaskView(rec),
			ElapsedSeconds: now.Sub(rec.CreatedAt).Seconds(),
		})
	}
	s.writeJSON(w, out)
}

func (s *Server) handleFailed(w http.ResponseWriter, r *http.Request) {
	records := s.reg.Failed()
	out := make([]failedTaskView, 0, len(records))
	for _, rec := range records {
		out = append(out, failedTaskView{
			taskView:  toTaskView(rec),
			ErrorType: "TaskFailureError",
		})
	}
	s.writeJSON(w, out)
}

// healthResponse is {status, reason?, tasks} per §6's /health row.
type healthResponse struct {
	Status string        `json:"status"`
	Reason string        `json:"reason,omitempty"`
	Tasks  tasks.Summary `json:"tasks"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	summary := s.reg.Summary()
	resp := healthResponse{Status: "healthy", Tasks: summary}
	if summary.Failed > 0 {
		resp.Status = "degraded"
		resp.Reason = "one or more tracked tasks failed"
	}
	s.writeJSON(w, resp)
}
