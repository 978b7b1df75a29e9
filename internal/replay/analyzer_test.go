package replay

import (
	"context"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.lost.host/meutraa/encore/internal/engine"
	"git.lost.host/meutraa/encore/internal/engine/drums"
	"git.lost.host/meutraa/encore/internal/engine/guitar"
	"git.lost.host/meutraa/encore/internal/game"
)

func TestRecord(t *testing.T) {
	r := recorded()
	require.Len(t, r.Frames, 2)

	gs, ok := r.Frames[0].Stats.(guitar.Stats)
	require.True(t, ok)
	assert.Equal(t, 250, gs.CommittedScore)
	assert.Equal(t, 5, gs.NotesHit)
	assert.Zero(t, gs.Overstrums)

	ds, ok := r.Frames[1].Stats.(drums.Stats)
	require.True(t, ok)
	assert.Equal(t, 150, ds.CommittedScore)
	assert.Zero(t, ds.Overhits)

	_, err := Record("empty", r.Chart, nil, DefaultFPS)
	assert.ErrorIs(t, err, ErrNoFrames)
}

// A recorded replay reproduces on any jittered frame clock.
func TestAnalyze(t *testing.T) {
	r := recorded()
	for _, fps := range []float64{30, 60, 144, 240} {
		for seed := int64(1); seed <= 5; seed++ {
			results, err := Analyze(r, WithFPS(fps), WithSeed(seed))
			require.NoError(t, err)
			require.Len(t, results, 2)
			for i, res := range results {
				assert.True(t, res.Passed, "fps %v seed %d frame %d: %v", fps, seed, i, Mismatches(res.Diffs))
			}
		}
	}
}

func TestAnalyzeTampered(t *testing.T) {
	r := recorded()
	gs := r.Frames[0].Stats.(guitar.Stats)
	gs.CommittedScore += 100
	gs.Overstrums = 2
	r.Frames[0].Stats = gs

	results, err := Analyze(r, WithSeed(1))
	require.NoError(t, err)
	assert.False(t, results[0].Passed)
	assert.True(t, results[1].Passed)

	names := lo.Map(Mismatches(results[0].Diffs), func(d StatDiff, _ int) string { return d.Name })
	assert.ElementsMatch(t, []string{"CommittedScore", "Overstrums", "TotalScore"}, names)
}

func TestAnalyzeErrors(t *testing.T) {
	r := recorded()
	_, err := Analyze(&Replay{Chart: r.Chart})
	assert.ErrorIs(t, err, ErrNoFrames)
	_, err = Analyze(&Replay{Frames: r.Frames})
	assert.ErrorIs(t, err, ErrNoChart)

	r.Frames[0].Profile.Mode = game.VocalsMode
	_, err = Analyze(r)
	assert.ErrorIs(t, err, engine.ErrUnsupportedGameMode)
}

func TestAnalyzerSeed(t *testing.T) {
	r := recorded()
	assert.Equal(t, int64(42), NewAnalyzer(r, WithSeed(42)).Seed())
	assert.NotZero(t, NewAnalyzer(r).Seed())
}

func TestVerifyAll(t *testing.T) {
	replays := []*Replay{recorded(), recorded()}
	results, err := VerifyAll(context.Background(), replays, WithSeed(9))
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, res := range results {
		assert.True(t, lo.EveryBy(res, func(r AnalysisResult) bool { return r.Passed }))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = VerifyAll(ctx, replays)
	assert.ErrorIs(t, err, context.Canceled)
}

var benchResults []AnalysisResult

func BenchmarkAnalyze(b *testing.B) {
	r := recorded()
	b.ResetTimer()

	for n := 0; n < b.N; n++ {
		res, err := Analyze(r, WithFPS(144), WithSeed(int64(n+1)))
		if nil != err {
			b.Fatal(err)
		}
		benchResults = res
	}
}
