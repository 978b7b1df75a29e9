package replay

import (
	"fmt"

	"git.lost.host/meutraa/encore/internal/engine"
	"git.lost.host/meutraa/encore/internal/engine/drums"
	"git.lost.host/meutraa/encore/internal/engine/guitar"
	"git.lost.host/meutraa/encore/internal/game"
)

// NewEngine builds a fresh engine for a profile over its own copy of the
// chart track, with the profile's modifiers applied and every note reset.
func NewEngine(profile game.Profile, chart *game.Chart, params guitar.Parameters, opts ...engine.Option) (engine.Engine, error) {
	switch profile.Mode {
	case game.FiveFretGuitar, game.FourLaneDrums, game.FiveLaneDrums:
	default:
		return nil, fmt.Errorf("%w: %v", engine.ErrUnsupportedGameMode, profile.Mode)
	}

	source, ok := chart.Track(profile.Instrument, profile.Difficulty)
	if !ok {
		return nil, fmt.Errorf("%w: %v %v", ErrNoTrack, profile.Instrument, profile.Difficulty)
	}
	track := source.Clone()
	profile.ApplyModifiers(track)
	track.Reset()

	opts = append(opts, engine.WithBot(profile.IsBot))
	var e engine.Engine
	switch profile.Mode {
	case game.FiveFretGuitar:
		e = guitar.New(track, chart.SyncTrack, chart.Coda, params, opts...)
	default:
		e = drums.New(profile.Mode, track, chart.SyncTrack, chart.Coda, params.Parameters, opts...)
	}
	if params.SongSpeed > 0 {
		e.SetSpeed(params.SongSpeed)
	}
	e.Reset()
	return e, nil
}
