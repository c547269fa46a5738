package cron

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJanitorRejectsBadSpec(t *testing.T) {
	t.Parallel()

	_, err := NewJanitor("not a cron spec", time.Minute, func(time.Duration) int { return 0 })
	require.Error(t, err)
}

func TestJanitorRunsSweep(t *testing.T) {
	t.Parallel()

	var got time.Duration
	j, err := NewJanitor("0 */10 * * * *", 30*time.Minute, func(idle time.Duration) int {
		got = idle
		return 2
	})
	require.NoError(t, err)

	j.run()
	assert.Equal(t, 30*time.Minute, got)
}

func TestJanitorStartStop(t *testing.T) {
	t.Parallel()

	j, err := NewJanitor("0 */10 * * * *", time.Minute, func(time.Duration) int { return 0 })
	require.NoError(t, err)

	j.Start()
	j.Stop()
}
