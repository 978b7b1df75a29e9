package engine

import (
	"fmt"
	"time"
)

const notStarted = time.Duration(1<<63 - 1)

// Timer is a restartable countdown used for leniency windows. The threshold
// is scaled by the song speed, extra time is not.
type Timer struct {
	threshold time.Duration
	start     time.Duration
	extra     time.Duration
	speed     float64
	active    bool
}

func NewTimer(threshold time.Duration) Timer {
	return Timer{
		threshold: threshold,
		start:     notStarted,
		speed:     1,
	}
}

func (t *Timer) Threshold() time.Duration { return t.threshold }

func (t *Timer) SpeedAdjustedThreshold() time.Duration {
	return time.Duration(float64(t.threshold) * t.speed)
}

func (t *Timer) StartTime() time.Duration { return t.start }

func (t *Timer) EndTime() time.Duration {
	if t.start == notStarted {
		return notStarted
	}
	return t.start + t.extra + t.SpeedAdjustedThreshold()
}

func (t *Timer) IsActive() bool { return t.active }

func (t *Timer) Start(now time.Duration) {
	t.start = now
	t.extra = 0
	t.active = true
}

// StartWithOffset starts the timer as if it began |threshold - offset| ago.
func (t *Timer) StartWithOffset(now, offset time.Duration) {
	diff := t.SpeedAdjustedThreshold() - offset
	if diff < 0 {
		diff = -diff
	}
	t.start = now - diff
	t.extra = 0
	t.active = true
}

// StartWithMinimum starts the timer so it lasts at least min, even when the
// speed adjusted threshold is shorter.
func (t *Timer) StartWithMinimum(now, min time.Duration) {
	t.start = now
	t.extra = min - t.SpeedAdjustedThreshold()
	if t.extra < 0 {
		t.extra = 0
	}
	t.active = true
}

func (t *Timer) Disable() { t.active = false }

func (t *Timer) Reset() {
	t.start = notStarted
	t.extra = 0
	t.active = false
}

func (t *Timer) IsExpired(now time.Duration) bool {
	return now >= t.EndTime()
}

// Expired is IsExpired for active timers only.
func (t *Timer) Expired(now time.Duration) bool {
	return t.active && t.IsExpired(now)
}

func (t *Timer) SetSpeed(speed float64) { t.speed = speed }

func (t Timer) String() string {
	if t.start == notStarted {
		return "Not started"
	}
	return fmt.Sprintf("%.6f - %.6f", t.start.Seconds(), t.EndTime().Seconds())
}
