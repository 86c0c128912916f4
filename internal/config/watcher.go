// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher detects on-disk manifest edits after startup. Since ZoneId is
// immutable once configured (spec.md §3), it intentionally does not
// hot-apply a new manifest: it only logs a warning that a restart is
// required (§4.0). This is documented, deliberately inert behavior, not a
// silent no-op.
type Watcher struct {
	log zerolog.Logger
	fsw *fsnotify.Watcher
	path string
}

// NewWatcher starts watching the directory containing path (fsnotify
// watches directories, not bare files, so editors that replace-via-rename
// are still observed).
func NewWatcher(log zerolog.Logger, path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return &Watcher{log: log, fsw: fsw, path: path}, nil
}

// Run blocks, logging a warning each time the watched manifest file
// changes, until ctx is cancelled. Intended to be started via
// tasks.Registry.RunTracked under CategorySystem.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	target := filepath.Clean(w.path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.log.Warn().Str("path", w.path).Msg("configuration changed on disk, restart required")
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error().Err(err).Msg("config watcher error")
		}
	}
}
