package guitar

import (
	"time"

	"git.lost.host/meutraa/encore/internal/engine"
)

type Parameters struct {
	engine.Parameters `yaml:",inline"`

	// A strum this soon after a fret-hit HOPO is absorbed instead of overstrumming
	HopoLeniency time.Duration `json:"hopoLeniency" yaml:"hopoLeniency"`
	// How long a strum waits for the right frets before it is an overstrum
	StrumLeniency time.Duration `json:"strumLeniency" yaml:"strumLeniency"`

	InfiniteFrontEnd bool `json:"infiniteFrontEnd,omitempty" yaml:"infiniteFrontEnd"`
}

func DefaultParameters() Parameters {
	return Parameters{
		Parameters:    engine.DefaultParameters(),
		HopoLeniency:  80 * time.Millisecond,
		StrumLeniency: 50 * time.Millisecond,
	}
}
