package replay

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.lost.host/meutraa/encore/internal/engine/guitar"
	"git.lost.host/meutraa/encore/internal/game"
	"git.lost.host/meutraa/encore/internal/testdata"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "replays.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore(t *testing.T) {
	s := openStore(t)
	r := recorded()
	require.NoError(t, s.Save(r))

	histories, err := s.Load(r.Chart)
	require.NoError(t, err)
	require.Len(t, histories, 2)

	// best score first
	assert.Equal(t, "alice", histories[0].Frame.Profile.Name)
	assert.Equal(t, 250, histories[0].Score())
	assert.Equal(t, "bob", histories[1].Frame.Profile.Name)
	assert.Equal(t, 150, histories[1].Score())

	for i, h := range histories {
		assert.Equal(t, r.Frames[i].Inputs, h.Frame.Inputs)
		assert.Equal(t, r.Frames[i].Stats, h.Frame.Stats)
		assert.Equal(t, r.Frames[i].Parameters, h.Frame.Parameters)
		assert.False(t, h.Created.IsZero())

		results, err := Analyze(h.Replay(r.Chart), WithSeed(11))
		require.NoError(t, err)
		assert.True(t, results[0].Passed, "%v", Mismatches(results[0].Diffs))
	}
}

// A strum and a fret release at the same instant must come back in the
// order they were played.
func TestStoreKeepsInputOrder(t *testing.T) {
	sync := testdata.Sync()
	notes := testdata.Singles(sync, 0, 0, 0)
	chart := testdata.Chart(sync, testdata.Track(game.Guitar, notes...))
	var inputs []game.Input
	for _, n := range notes {
		inputs = append(inputs,
			testdata.Press(game.GreenFret, n.Time-20*time.Millisecond),
			testdata.Press(game.StrumDown, n.Time),
			testdata.Release(game.GreenFret, n.Time),
			testdata.Release(game.StrumDown, n.Time+time.Millisecond),
		)
	}
	r, err := Record("ties", chart, []Frame{{
		Profile:    testdata.GuitarProfile("carol"),
		Parameters: guitar.DefaultParameters(),
		Inputs:     inputs,
	}}, DefaultFPS)
	require.NoError(t, err)
	require.Equal(t, 3, r.Frames[0].Stats.BaseStats().NotesHit)

	s := openStore(t)
	require.NoError(t, s.Save(r))
	histories, err := s.Load(chart)
	require.NoError(t, err)
	require.Len(t, histories, 1)
	assert.Equal(t, inputs, histories[0].Frame.Inputs)

	results, err := Analyze(histories[0].Replay(chart), WithSeed(5))
	require.NoError(t, err)
	assert.True(t, results[0].Passed, "%v", Mismatches(results[0].Diffs))
	assert.Equal(t, 150, results[0].Result.BaseStats().CommittedScore)
}

func TestStoreOtherChart(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Save(recorded()))

	sync := testdata.Sync()
	other := testdata.Chart(sync, testdata.Track(game.Guitar, testdata.Singles(sync, 4)...))
	histories, err := s.Load(other)
	require.NoError(t, err)
	assert.Empty(t, histories)
}

func TestHashChart(t *testing.T) {
	a, err := HashChart(recorded().Chart)
	require.NoError(t, err)
	b, err := HashChart(recorded().Chart)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	chart := recorded().Chart
	chart.Name = "renamed"
	c, err := HashChart(chart)
	require.NoError(t, err)
	assert.Equal(t, a, c)

	chart.Tracks[0].Notes[0].Lane = 3
	d, err := HashChart(chart)
	require.NoError(t, err)
	assert.NotEqual(t, a, d)
}
