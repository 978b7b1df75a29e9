package game

// Modifier changes a chart before it is played.
type Modifier uint8

const (
	AllStrums Modifier = 1 << iota
	AllHopos
	AllTaps
	NoSustains
)

// Profile is what a player chose before playing.
type Profile struct {
	Name       string     `json:"name"`
	Mode       GameMode   `json:"mode"`
	Instrument Instrument `json:"instrument"`
	Difficulty Difficulty `json:"difficulty"`
	Modifiers  Modifier   `json:"modifiers,omitempty"`
	IsBot      bool       `json:"isBot,omitempty"`
}

// ApplyModifiers rewrites a cloned track in place.
func (p Profile) ApplyModifiers(t *Track) {
	for _, n := range t.Notes {
		for _, nn := range n.AllNotes() {
			switch {
			case p.Modifiers&AllStrums != 0:
				nn.Forcing = Strum
			case p.Modifiers&AllHopos != 0:
				if nn.Forcing != Tap {
					nn.Forcing = Hopo
				}
			case p.Modifiers&AllTaps != 0:
				nn.Forcing = Tap
			}
			if p.Modifiers&NoSustains != 0 {
				nn.TickLength = 0
				nn.TimeLength = 0
				nn.Flags &^= FlagExtendedSustain | FlagDisjoint
			}
		}
	}
}
