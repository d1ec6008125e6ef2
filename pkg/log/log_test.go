// Copyright 2020-2021 The OS-NVR Authors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; version 2.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package log

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) (*Logger, context.Context, context.CancelFunc) {
	t.Helper()
	logger := NewMockLogger()
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, logger.Start(ctx))
	return logger, ctx, cancel
}

func TestSubscribe(t *testing.T) {
	logger, _, cancel := newTestLogger(t)
	defer cancel()

	feed, unsub := logger.Subscribe()
	defer unsub()

	go logger.Info().Src("bridge").Clip("clipA").Msg("hello")

	select {
	case entry := <-feed:
		require.Equal(t, LevelInfo, entry.Level)
		require.Equal(t, "bridge", entry.Src)
		require.Equal(t, "clipA", entry.Clip)
		require.Equal(t, "hello", entry.Msg)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for log")
	}
}

func TestMultipleSubscribers(t *testing.T) {
	logger, _, cancel := newTestLogger(t)
	defer cancel()

	var wg sync.WaitGroup
	n := 3
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			feed, unsub := logger.Subscribe()
			defer unsub()
			<-feed
		}()
	}
	time.Sleep(10 * time.Millisecond)
	go logger.Warn().Src("core").Msg("gap")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("not all subscribers received the log")
	}
}
