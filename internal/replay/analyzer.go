package replay

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"git.lost.host/meutraa/encore/internal/band"
	"git.lost.host/meutraa/encore/internal/engine"
	"git.lost.host/meutraa/encore/internal/game"
	"git.lost.host/meutraa/encore/internal/log"
)

// Margin simulated before the song starts and after the last event
const Margin = 2 * time.Second

type AnalysisResult struct {
	Passed   bool
	Frame    Frame
	Original engine.Snapshot
	Result   engine.Snapshot
	Diffs    []StatDiff
}

type Analyzer struct {
	replay *Replay
	fps    float64
	seed   int64
	logger *zap.Logger
}

type Option func(*Analyzer)

func WithFPS(fps float64) Option {
	return func(a *Analyzer) { a.fps = fps }
}

// WithSeed fixes the frame jitter. A seed of 0 picks one from the clock.
func WithSeed(seed int64) Option {
	return func(a *Analyzer) { a.seed = seed }
}

func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

func NewAnalyzer(r *Replay, opts ...Option) *Analyzer {
	a := &Analyzer{replay: r, fps: DefaultFPS, logger: log.Logger}
	for _, opt := range opts {
		opt(a)
	}
	if a.seed == 0 {
		a.seed = time.Now().UnixNano()
	}
	return a
}

func (a *Analyzer) Seed() int64 { return a.seed }

// Analyze re-simulates every frame of the replay together, as one band, on a
// jittered frame clock and compares the statistics with the recorded ones.
func (a *Analyzer) Analyze() ([]AnalysisResult, error) {
	if a.replay.Chart == nil {
		return nil, ErrNoChart
	}
	frames := a.replay.Frames
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}

	end := simulationEnd(a.replay.Chart, frames)
	times, err := GenerateFrameTimes(-Margin, end+Margin, a.fps, rand.New(rand.NewSource(a.seed)))
	if nil != err {
		return nil, err
	}
	a.logger.Debug("analyzing replay",
		zap.String("name", a.replay.Name), zap.Int("frames", len(frames)),
		zap.Int("updates", len(times)), zap.Int64("seed", a.seed))

	engines, err := simulate(a.replay.Chart, frames, times, engine.WithLogger(a.logger))
	if nil != err {
		return nil, err
	}

	results := make([]AnalysisResult, len(frames))
	for i, f := range frames {
		result := engines[i].Snapshot()
		diffs := Compare(f.Stats, result)
		results[i] = AnalysisResult{
			Passed:   len(Mismatches(diffs)) == 0,
			Frame:    f,
			Original: f.Stats,
			Result:   result,
			Diffs:    diffs,
		}
		if !results[i].Passed {
			a.logger.Info("frame not reproduced", zap.Int("frame", i), zap.String("player", f.Profile.Name))
		}
	}
	return results, nil
}

func simulationEnd(chart *game.Chart, frames []Frame) time.Duration {
	end := chart.EndTime()
	for _, f := range frames {
		for _, in := range f.Inputs {
			if in.Time > end {
				end = in.Time
			}
		}
	}
	return end
}

// simulate plays every frame's inputs through fresh engines in one band,
// stopping at each of the given times. Due inputs are queued before the
// band advances.
func simulate(chart *game.Chart, frames []Frame, times []time.Duration, opts ...engine.Option) ([]engine.Engine, error) {
	b := band.New()
	engines := make([]engine.Engine, len(frames))
	for i, f := range frames {
		e, err := NewEngine(f.Profile, chart, f.Parameters, opts...)
		if nil != err {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		if err := b.Add(e); nil != err {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		engines[i] = e
	}

	logs := make([][]game.Input, len(frames))
	for i, f := range frames {
		logs[i] = append([]game.Input(nil), f.Inputs...)
		sort.SliceStable(logs[i], func(a, b int) bool { return logs[i][a].Time < logs[i][b].Time })
	}

	next := make([]int, len(frames))
	for _, t := range times {
		for i, inputs := range logs {
			for ; next[i] < len(inputs); next[i]++ {
				in := inputs[next[i]]
				if in.Time > t {
					break
				}
				engines[i].QueueInput(in)
			}
		}
		b.Update(t)
	}
	return engines, nil
}

// Analyze verifies one replay.
func Analyze(r *Replay, opts ...Option) ([]AnalysisResult, error) {
	return NewAnalyzer(r, opts...).Analyze()
}

// VerifyAll analyzes replays in parallel. Results are in replay order.
func VerifyAll(ctx context.Context, replays []*Replay, opts ...Option) ([][]AnalysisResult, error) {
	results := make([][]AnalysisResult, len(replays))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, r := range replays {
		i, r := i, r
		g.Go(func() error {
			if err := ctx.Err(); nil != err {
				return err
			}
			res, err := Analyze(r, opts...)
			if nil != err {
				return fmt.Errorf("%s: %w", r.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); nil != err {
		return nil, err
	}
	return results, nil
}
