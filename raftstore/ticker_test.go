package raftstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTickerFiresAfterTimeout(t *testing.T) {
	ticker := NewTicker(10 * time.Millisecond)

	fired := false
	remaining := ticker.Tick(func() { fired = true })
	require.False(t, fired)
	require.True(t, remaining > 0)

	time.Sleep(12 * time.Millisecond)

	fired = false
	remaining = ticker.Tick(func() { fired = true })
	require.True(t, fired)
	require.Equal(t, 10*time.Millisecond, remaining)
}
