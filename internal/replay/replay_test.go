package replay

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.lost.host/meutraa/encore/internal/engine/drums"
	"git.lost.host/meutraa/encore/internal/engine/guitar"
	"git.lost.host/meutraa/encore/internal/game"
	"git.lost.host/meutraa/encore/internal/testdata"
)

func TestEncodeDecode(t *testing.T) {
	r := recorded()
	var buf bytes.Buffer
	require.NoError(t, r.Encode(&buf))

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, r.Name, decoded.Name)
	require.Len(t, decoded.Frames, 2)
	assert.IsType(t, guitar.Stats{}, decoded.Frames[0].Stats)
	assert.IsType(t, drums.Stats{}, decoded.Frames[1].Stats)
	assert.Empty(t, cmp.Diff(r.Frames, decoded.Frames))
	assert.Empty(t, cmp.Diff(r.Chart.SyncTrack, decoded.Chart.SyncTrack))

	results, err := Analyze(decoded, WithSeed(5))
	require.NoError(t, err)
	assert.True(t, results[0].Passed)
	assert.True(t, results[1].Passed)
}

func TestDecodeChords(t *testing.T) {
	sync := testdata.Sync()
	chord := testdata.Chord(sync, testdata.Beat(1), game.Strum, 0, 0, 2, 4)
	r := &Replay{Chart: testdata.Chart(sync, testdata.Track(game.Guitar, chord))}
	var buf bytes.Buffer
	require.NoError(t, r.Encode(&buf))

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	parent := decoded.Chart.Tracks[0].Notes[0]
	require.Len(t, parent.Children, 2)
	for _, c := range parent.Children {
		assert.Same(t, parent, c.Parent)
	}
	assert.Empty(t, cmp.Diff(chord, parent, cmpopts.IgnoreFields(game.Note{}, "Parent")))
}

func TestDecodeErrors(t *testing.T) {
	tests := map[string]struct {
		doc string
		err error
	}{
		"no chart": {`{"name": "x", "frames": []}`, ErrNoChart},
		"bad stats": {
			`{"chart": {}, "frames": [{"profile": {"mode": "five-fret-guitar"}, "stats": {"committedScore": "lots"}}]}`,
			ErrStatsDecode,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			assert.ErrorIs(t, err, tt.err)
		})
	}

	_, err := Decode(strings.NewReader("{"))
	assert.Error(t, err)
}

func TestFrameWithoutStats(t *testing.T) {
	r, err := Decode(strings.NewReader(`{"chart": {}, "frames": [{"profile": {"mode": "four-lane-drums"}}]}`))
	require.NoError(t, err)
	assert.Nil(t, r.Frames[0].Stats)
	assert.Equal(t, uint32(480), r.Chart.SyncTrack.Resolution)
}
