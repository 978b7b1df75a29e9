package engine

import "time"

// HitWindow is how early and how late a note may be hit, at song speed 1.
type HitWindow struct {
	Front time.Duration `json:"front" yaml:"front"`
	Back  time.Duration `json:"back" yaml:"back"`
}

type Parameters struct {
	HitWindow     HitWindow `json:"hitWindow" yaml:"hitWindow"`
	MaxMultiplier int       `json:"maxMultiplier" yaml:"maxMultiplier"`
	SongSpeed     float64   `json:"songSpeed" yaml:"songSpeed"`

	StarPowerWhammyBuffer time.Duration `json:"starPowerWhammyBuffer" yaml:"starPowerWhammyBuffer"`
	WaitCountdownMinGap   time.Duration `json:"waitCountdownMinGap" yaml:"waitCountdownMinGap"`
}

func DefaultParameters() Parameters {
	return Parameters{
		HitWindow:             HitWindow{Front: 70 * time.Millisecond, Back: 70 * time.Millisecond},
		MaxMultiplier:         4,
		SongSpeed:             1,
		StarPowerWhammyBuffer: 250 * time.Millisecond,
		WaitCountdownMinGap:   9 * time.Second,
	}
}

func (p Parameters) withDefaults() Parameters {
	d := DefaultParameters()
	if p.MaxMultiplier <= 0 {
		p.MaxMultiplier = d.MaxMultiplier
	}
	if p.SongSpeed <= 0 {
		p.SongSpeed = d.SongSpeed
	}
	if p.WaitCountdownMinGap <= 0 {
		p.WaitCountdownMinGap = d.WaitCountdownMinGap
	}
	return p
}
