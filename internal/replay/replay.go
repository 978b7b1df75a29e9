package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"git.lost.host/meutraa/encore/internal/engine"
	"git.lost.host/meutraa/encore/internal/engine/drums"
	"git.lost.host/meutraa/encore/internal/engine/guitar"
	"git.lost.host/meutraa/encore/internal/game"
)

var (
	ErrNoFrames    = errors.New("replay has no frames")
	ErrNoChart     = errors.New("replay has no chart")
	ErrNoTrack     = errors.New("chart has no track for profile")
	ErrStatsDecode = errors.New("unable to decode frame stats")
)

// Replay is one recorded performance of a chart by one or more players.
type Replay struct {
	Name   string      `json:"name"`
	Chart  *game.Chart `json:"chart"`
	Frames []Frame     `json:"frames"`
}

// Frame is what was recorded for one player: who played, with which
// parameters, every input, and the statistics the live engine ended with.
type Frame struct {
	Profile game.Profile `json:"profile"`
	// Other modes ignore the fretted leniencies
	Parameters guitar.Parameters `json:"parameters"`
	Inputs     []game.Input      `json:"inputs"`
	Stats      engine.Snapshot   `json:"stats"`
}

// UnmarshalJSON picks the statistics type from the profile's game mode.
func (f *Frame) UnmarshalJSON(data []byte) error {
	type plain Frame
	var raw struct {
		plain
		Stats json.RawMessage `json:"stats"`
	}
	if err := json.Unmarshal(data, &raw); nil != err {
		return err
	}
	*f = Frame(raw.plain)

	stats, err := decodeStats(f.Profile.Mode, raw.Stats)
	if nil != err {
		return err
	}
	f.Stats = stats
	return nil
}

func decodeStats(mode game.GameMode, data json.RawMessage) (engine.Snapshot, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var (
		s   engine.Snapshot
		err error
	)
	switch mode {
	case game.FiveFretGuitar:
		var gs guitar.Stats
		err = json.Unmarshal(data, &gs)
		s = gs
	case game.FourLaneDrums, game.FiveLaneDrums:
		var ds drums.Stats
		err = json.Unmarshal(data, &ds)
		s = ds
	default:
		var bs engine.Stats
		err = json.Unmarshal(data, &bs)
		s = bs
	}
	if nil != err {
		return nil, fmt.Errorf("%w: %v", ErrStatsDecode, err)
	}
	return s, nil
}

// Decode reads a replay document and restores what serialization drops from
// its chart.
func Decode(r io.Reader) (*Replay, error) {
	var rp Replay
	if err := json.NewDecoder(r).Decode(&rp); nil != err {
		return nil, fmt.Errorf("unable to decode replay: %w", err)
	}
	if rp.Chart == nil {
		return nil, ErrNoChart
	}
	rp.Chart.Prepare()
	return &rp, nil
}

func Load(path string) (*Replay, error) {
	f, err := os.Open(path)
	if nil != err {
		return nil, err
	}
	defer f.Close()
	rp, err := Decode(f)
	if nil != err {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rp, nil
}

func (r *Replay) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
