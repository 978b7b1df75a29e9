package replay

import (
	"time"

	"git.lost.host/meutraa/encore/internal/game"
)

// Record plays the frames' inputs the way a live host would, on a steady
// frame clock, and stores the statistics each engine ends with.
func Record(name string, chart *game.Chart, frames []Frame, fps float64) (*Replay, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	if fps <= 0 {
		fps = DefaultFPS
	}
	frame := time.Duration(float64(time.Second) / fps)
	end := simulationEnd(chart, frames) + Margin
	var times []time.Duration
	for t := -Margin; t < end; t += frame {
		times = append(times, t)
	}
	times = append(times, end)

	engines, err := simulate(chart, frames, times)
	if nil != err {
		return nil, err
	}
	r := &Replay{Name: name, Chart: chart, Frames: make([]Frame, len(frames))}
	for i, f := range frames {
		f.Stats = engines[i].Snapshot()
		r.Frames[i] = f
	}
	return r, nil
}
