package guitar

import "git.lost.host/meutraa/encore/internal/engine"

type Stats struct {
	engine.Stats

	Overstrums           int    `json:"overstrums"`
	HoposStrummed        int    `json:"hoposStrummed"`
	GhostInputs          int    `json:"ghostInputs"`
	StarPowerWhammyTicks uint32 `json:"starPowerWhammyTicks"`
}
