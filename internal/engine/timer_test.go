package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimerStart(t *testing.T) {
	timer := NewTimer(50 * time.Millisecond)
	assert.False(t, timer.IsActive())
	assert.Equal(t, "Not started", timer.String())

	timer.Start(time.Second)
	assert.True(t, timer.IsActive())
	assert.Equal(t, time.Second+50*time.Millisecond, timer.EndTime())
	assert.False(t, timer.IsExpired(time.Second+49*time.Millisecond))
	assert.True(t, timer.IsExpired(time.Second+50*time.Millisecond))
	assert.Equal(t, "1.000000 - 1.050000", timer.String())
}

func TestTimerStartWithMinimum(t *testing.T) {
	tests := []struct {
		name      string
		threshold time.Duration
		speed     float64
		minimum   time.Duration
		want      time.Duration
	}{
		{"minimum above threshold", 50 * time.Millisecond, 1, 80 * time.Millisecond, 80 * time.Millisecond},
		{"minimum below threshold", 50 * time.Millisecond, 1, 20 * time.Millisecond, 50 * time.Millisecond},
		{"minimum above scaled threshold", 100 * time.Millisecond, 0.5, 80 * time.Millisecond, 80 * time.Millisecond},
		{"minimum below scaled threshold", 100 * time.Millisecond, 2, 150 * time.Millisecond, 200 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timer := NewTimer(tt.threshold)
			timer.SetSpeed(tt.speed)
			now := 3 * time.Second
			timer.StartWithMinimum(now, tt.minimum)
			assert.Equal(t, tt.want, timer.EndTime()-now)
		})
	}
}

func TestTimerStartWithOffset(t *testing.T) {
	timer := NewTimer(100 * time.Millisecond)
	timer.StartWithOffset(time.Second, 30*time.Millisecond)
	assert.Equal(t, time.Second-70*time.Millisecond, timer.StartTime())
	assert.Equal(t, time.Second+30*time.Millisecond, timer.EndTime())

	// the distance is absolute
	timer.StartWithOffset(time.Second, 130*time.Millisecond)
	assert.Equal(t, time.Second-30*time.Millisecond, timer.StartTime())
}

func TestTimerSpeedDoesNotScaleExtra(t *testing.T) {
	timer := NewTimer(50 * time.Millisecond)
	timer.StartWithMinimum(0, 80*time.Millisecond)
	timer.SetSpeed(2)
	// 30ms extra stays, the threshold doubles
	assert.Equal(t, 130*time.Millisecond, timer.EndTime())
	assert.Equal(t, 100*time.Millisecond, timer.SpeedAdjustedThreshold())
	assert.Equal(t, 50*time.Millisecond, timer.Threshold())
}

func TestTimerDisable(t *testing.T) {
	timer := NewTimer(50 * time.Millisecond)
	timer.Start(0)
	timer.Disable()
	assert.False(t, timer.IsActive())
	assert.True(t, timer.IsExpired(time.Second))
	assert.False(t, timer.Expired(time.Second))

	timer.Reset()
	assert.False(t, timer.IsExpired(time.Hour))
}
