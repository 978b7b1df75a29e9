package replay

import (
	"time"

	"git.lost.host/meutraa/encore/internal/engine/guitar"
	"git.lost.host/meutraa/encore/internal/game"
	"git.lost.host/meutraa/encore/internal/testdata"
)

// fixture is a chart with a five note guitar part and a three note drum part,
// plus a frame for each that hits every note.
func fixture() (*game.Chart, []Frame) {
	sync := testdata.Sync()
	frets := testdata.Singles(sync, 0, 1, 2, 1, 0)
	pads := testdata.Singles(sync, 1, 2, 3)
	chart := testdata.Chart(sync, testdata.Track(game.Guitar, frets...), testdata.Track(game.Drums, pads...))

	offsets := []time.Duration{0, 10 * time.Millisecond, -15 * time.Millisecond, 30 * time.Millisecond, -5 * time.Millisecond}
	var strums [][]game.Input
	for i, n := range frets {
		strums = append(strums, testdata.StrumNote(n, offsets[i]))
	}
	var hits [][]game.Input
	for i, n := range pads {
		hits = append(hits, testdata.HitDrum(n, time.Duration(i*20-20)*time.Millisecond))
	}

	frames := []Frame{
		{Profile: testdata.GuitarProfile("alice"), Parameters: guitar.DefaultParameters(), Inputs: testdata.Inputs(strums...)},
		{Profile: testdata.DrumsProfile("bob"), Parameters: guitar.DefaultParameters(), Inputs: testdata.Inputs(hits...)},
	}
	return chart, frames
}

func recorded() *Replay {
	chart, frames := fixture()
	r, err := Record("fixture", chart, frames, DefaultFPS)
	if nil != err {
		panic(err)
	}
	return r
}
