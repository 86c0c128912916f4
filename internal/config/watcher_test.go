// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package config

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestWatcherObservesManifestEdit(t *testing.T) {
	path := writeManifest(t, validManifest)
	var buf logCapture
	log := zerolog.New(&buf)

	w, err := NewWatcher(log, path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return os.WriteFile(path, []byte(validManifest+"\n# touched\n"), 0o644) == nil
	}, time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return buf.contains("restart required")
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

type logCapture struct {
	data []byte
}

func (c *logCapture) Write(p []byte) (int, error) {
	c.data = append(c.data, p...)
	return len(p), nil
}

func (c *logCapture) contains(s string) bool {
	return strings.Contains(string(c.data), s)
}
