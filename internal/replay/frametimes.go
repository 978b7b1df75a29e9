package replay

import (
	"errors"
	"math/rand"
	"time"
)

const (
	DefaultFPS = 60
	// MaxJitter is the largest frame time adjustment as a share of a frame
	MaxJitter = 0.25
)

var ErrInvalidTimeRange = errors.New("invalid time range")

// GenerateFrameTimes simulates an uneven frame clock over [from, to]. Each
// frame is moved by up to MaxJitter of a frame in either direction, except the
// first which is only ever late. Times are strictly increasing and end at to.
func GenerateFrameTimes(from, to time.Duration, fps float64, rng *rand.Rand) ([]time.Duration, error) {
	if to <= from {
		return nil, ErrInvalidTimeRange
	}
	if fps <= 0 {
		fps = DefaultFPS
	}
	frame := time.Duration(float64(time.Second) / fps)
	if frame <= 0 {
		frame = 1
	}

	times := make([]time.Duration, 0, int((to-from)/frame)+2)
	last := from - 1
	for t := from; t < to; t += frame {
		adjustment := rng.Float64() * MaxJitter
		if rng.Intn(2) == 0 && t > from {
			adjustment = -adjustment
		}
		at := t + time.Duration(float64(frame)*adjustment)
		if at > to {
			at = to
		}
		if at <= last {
			continue
		}
		times = append(times, at)
		last = at
	}
	if last < to {
		times = append(times, to)
	}
	return times, nil
}
