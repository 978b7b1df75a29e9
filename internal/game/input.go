package game

import (
	"fmt"
	"time"
)

// Action is one of the closed, per-instrument input actions. The engine of
// the player's game mode gives it meaning.
type Action uint8

// Fretted actions. A fret action's value is its bit in the raw button mask.
const (
	GreenFret  Action = 0
	RedFret    Action = 1
	YellowFret Action = 2
	BlueFret   Action = 3
	OrangeFret Action = 4

	SoloGreenFret  Action = 10
	SoloRedFret    Action = 11
	SoloYellowFret Action = 12
	SoloBlueFret   Action = 13
	SoloOrangeFret Action = 14

	StrumUp   Action = 16
	StrumDown Action = 17
	Whammy    Action = 18
)

// Drum actions. A pad action's value is its lane.
const (
	Kick      Action = 0
	RedPad    Action = 1
	YellowPad Action = 2
	BluePad   Action = 3
	GreenPad  Action = 4
	OrangePad Action = 5
)

// StarPowerAction activates star power on every instrument.
const StarPowerAction Action = 19

// Input is one recorded player action. Pressed is false for releases.
type Input struct {
	Action  Action        `json:"action"`
	Time    time.Duration `json:"time"`
	Pressed bool          `json:"pressed"`
}

func (i Input) String() string {
	state := "release"
	if i.Pressed {
		state = "press"
	}
	return fmt.Sprintf("%v %d %s", i.Time, i.Action, state)
}
