package drums

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"git.lost.host/meutraa/encore/internal/engine"
	"git.lost.host/meutraa/encore/internal/game"
	"git.lost.host/meutraa/encore/internal/testdata"
)

func newDrums(sync *game.SyncTrack, notes []*game.Note, coda *game.CodaRegion, opts ...engine.Option) *Engine {
	return New(game.FourLaneDrums, testdata.Track(game.Drums, notes...), sync, coda, engine.DefaultParameters(), opts...)
}

func play(d *Engine, inputs []game.Input, until time.Duration) Stats {
	for _, in := range inputs {
		d.QueueInput(in)
	}
	d.Update(until)
	return d.DrumStats()
}

func pad(a game.Action, t time.Duration) []game.Input {
	return []game.Input{testdata.Press(a, t), testdata.Release(a, t+10*time.Millisecond)}
}

func TestHit(t *testing.T) {
	sync := testdata.Sync()
	notes := testdata.Singles(sync, 1, 2, 3, 1)
	d := newDrums(sync, notes, nil)

	stats := play(d, testdata.Inputs(
		testdata.HitDrum(notes[0], 0),
		testdata.HitDrum(notes[1], -30*time.Millisecond),
		pad(game.GreenPad, 1250*time.Millisecond),
		testdata.HitDrum(notes[2], 60*time.Millisecond),
		testdata.HitDrum(notes[3], 0),
	), 3*time.Second)

	assert.Equal(t, 4, stats.NotesHit)
	assert.Equal(t, 1, stats.Overhits)
	assert.Equal(t, 2, stats.Combo)
	assert.Equal(t, 2, stats.MaxCombo)
	assert.Equal(t, 200, stats.CommittedScore)
}

func TestOverhitSuppressed(t *testing.T) {
	sync := testdata.Sync()
	notes := []*game.Note{
		testdata.Note(sync, 1, testdata.Beat(1), game.Strum, 0),
		testdata.Note(sync, 1, testdata.Beat(40), game.Strum, 0),
	}

	tests := []struct {
		name string
		at   time.Duration
	}{
		{"before the first note", 100 * time.Millisecond},
		{"during the wait countdown", 10 * time.Second},
		{"after the last note", 21 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDrums(sync, notes, nil)
			stats := play(d, testdata.Inputs(
				testdata.HitDrum(notes[0], 0),
				testdata.HitDrum(notes[1], 0),
				pad(game.BluePad, tt.at),
			), 22*time.Second)
			assert.Zero(t, stats.Overhits)
			assert.Equal(t, 2, stats.Combo)
		})
	}
}

func TestChord(t *testing.T) {
	sync := testdata.Sync()
	notes := []*game.Note{
		testdata.Note(sync, 0, testdata.Beat(1), game.Strum, 0),
		testdata.Note(sync, 2, testdata.Beat(1), game.Strum, 0),
		testdata.Note(sync, 3, testdata.Beat(2), game.Strum, 0),
	}
	d := newDrums(sync, notes, nil)

	stats := play(d, testdata.Inputs(
		pad(game.YellowPad, 500*time.Millisecond),
		pad(game.Kick, 505*time.Millisecond),
		testdata.HitDrum(notes[2], 0),
	), 2*time.Second)

	assert.Equal(t, 3, stats.NotesHit)
	assert.Zero(t, stats.Overhits)
	assert.Equal(t, 3, stats.Combo)
}

func TestOverhitStripsStarPower(t *testing.T) {
	sync := testdata.Sync()
	notes := []*game.Note{
		testdata.Note(sync, 1, testdata.Beat(1), game.Strum, game.FlagStarPower|game.FlagStarPowerStart),
		testdata.Note(sync, 1, testdata.Beat(2), game.Strum, game.FlagStarPower),
		testdata.Note(sync, 1, testdata.Beat(3), game.Strum, game.FlagStarPower|game.FlagStarPowerEnd),
	}
	d := newDrums(sync, notes, nil)

	var overhits []engine.Event
	d.Subscribe(func(e engine.Event) {
		if e.Kind == engine.Overhit {
			overhits = append(overhits, e)
		}
	})

	stats := play(d, testdata.Inputs(
		testdata.HitDrum(notes[0], 0),
		pad(game.BluePad, 750*time.Millisecond),
		testdata.HitDrum(notes[1], 0),
		testdata.HitDrum(notes[2], 0),
	), 2*time.Second)

	assert.Equal(t, 3, stats.NotesHit)
	assert.Equal(t, 1, stats.StarPowerPhrasesMissed)
	assert.Zero(t, stats.StarPowerPhrasesHit)
	assert.Zero(t, stats.StarPowerTickAmount)
	assert.Len(t, overhits, 1)
}

func TestCoda(t *testing.T) {
	sync := testdata.Sync()
	notes := testdata.Singles(sync, 1, 1)
	coda := &game.CodaRegion{StartTime: 1500 * time.Millisecond, EndTime: 4 * time.Second}

	tests := []struct {
		name   string
		inputs []game.Input
		want   int
	}{
		{
			name: "collected",
			inputs: testdata.Inputs(
				testdata.HitDrum(notes[0], 0),
				testdata.HitDrum(notes[1], 0),
				pad(game.RedPad, 2*time.Second),
				pad(game.GreenPad, 2750*time.Millisecond),
			),
			want: 750 + 375,
		},
		{
			name: "pads are one lane",
			inputs: testdata.Inputs(
				testdata.HitDrum(notes[0], 0),
				testdata.HitDrum(notes[1], 0),
				pad(game.RedPad, 2*time.Second),
				pad(game.YellowPad, 2*time.Second),
			),
			want: 750,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDrums(sync, notes, coda)
			stats := play(d, tt.inputs, 5*time.Second)
			assert.Equal(t, tt.want, stats.CodaBonus)
			assert.Zero(t, stats.Overhits)
			assert.Equal(t, 100+tt.want, stats.CommittedScore)
		})
	}
}

func TestFiveLanePads(t *testing.T) {
	sync := testdata.Sync()
	notes := testdata.Singles(sync, 5)

	four := newDrums(sync, notes, nil)
	assert.Zero(t, play(four, testdata.HitDrum(notes[0], 0), time.Second).NotesHit)

	five := New(game.FiveLaneDrums, testdata.Track(game.Drums, testdata.Singles(sync, 5)...), sync, nil, engine.DefaultParameters())
	assert.Equal(t, 1, play(five, testdata.HitDrum(notes[0], 0), time.Second).NotesHit)
}

func TestBot(t *testing.T) {
	sync := testdata.Sync()
	notes := testdata.Singles(sync, 0, 1, 2, 3)
	d := newDrums(sync, notes, nil, engine.WithBot(true))
	d.Update(3 * time.Second)

	stats := d.DrumStats()
	assert.Equal(t, 4, stats.NotesHit)
	assert.Equal(t, 200, stats.CommittedScore)
	for _, n := range notes {
		assert.Equal(t, n.Time, n.HitTime)
	}
}

func TestReset(t *testing.T) {
	sync := testdata.Sync()
	notes := testdata.Singles(sync, 1, 2)
	d := newDrums(sync, notes, nil)
	fresh := d.DrumStats()
	play(d, testdata.Inputs(testdata.HitDrum(notes[0], 0), pad(game.BluePad, 750*time.Millisecond)), 2*time.Second)
	assert.NotEqual(t, fresh, d.DrumStats())

	d.Reset()
	assert.Equal(t, fresh, d.DrumStats())
}
