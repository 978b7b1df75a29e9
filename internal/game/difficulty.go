package game

import "fmt"

type Difficulty uint8

const (
	Easy Difficulty = iota
	Medium
	Hard
	Expert
)

var difficultyNames = map[Difficulty]string{
	Easy:   "easy",
	Medium: "medium",
	Hard:   "hard",
	Expert: "expert",
}

func (d Difficulty) String() string {
	if n, ok := difficultyNames[d]; ok {
		return n
	}
	return fmt.Sprintf("difficulty(%d)", uint8(d))
}

func (d Difficulty) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Difficulty) UnmarshalText(b []byte) error {
	for k, v := range difficultyNames {
		if v == string(b) {
			*d = k
			return nil
		}
	}
	return fmt.Errorf("unknown difficulty %q", b)
}

// Instrument is the chart track a player plays.
type Instrument uint8

const (
	Guitar Instrument = iota
	Bass
	Drums
	Vocals
)

var instrumentNames = map[Instrument]string{
	Guitar: "guitar",
	Bass:   "bass",
	Drums:  "drums",
	Vocals: "vocals",
}

func (i Instrument) String() string {
	if n, ok := instrumentNames[i]; ok {
		return n
	}
	return fmt.Sprintf("instrument(%d)", uint8(i))
}

func (i Instrument) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *Instrument) UnmarshalText(b []byte) error {
	for k, v := range instrumentNames {
		if v == string(b) {
			*i = k
			return nil
		}
	}
	return fmt.Errorf("unknown instrument %q", b)
}

// GameMode is the closed set of engine families.
type GameMode uint8

const (
	FiveFretGuitar GameMode = iota
	FourLaneDrums
	FiveLaneDrums
	VocalsMode
)

var modeNames = map[GameMode]string{
	FiveFretGuitar: "five-fret-guitar",
	FourLaneDrums:  "four-lane-drums",
	FiveLaneDrums:  "five-lane-drums",
	VocalsMode:     "vocals",
}

func (m GameMode) String() string {
	if n, ok := modeNames[m]; ok {
		return n
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

func (m GameMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *GameMode) UnmarshalText(b []byte) error {
	for k, v := range modeNames {
		if v == string(b) {
			*m = k
			return nil
		}
	}
	return fmt.Errorf("unknown game mode %q", b)
}

// CodaParticipant reports if engines of this mode take part in a band's Big Rock Ending.
func (m GameMode) CodaParticipant() bool {
	return m != VocalsMode
}

// NLanes is the number of notional coda lanes per mode.
var NLanes = map[GameMode]int{
	FiveFretGuitar: 5,
	FourLaneDrums:  1,
	FiveLaneDrums:  1,
}
