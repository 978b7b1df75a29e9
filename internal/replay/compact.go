package replay

import (
	"sort"
	"time"

	"git.lost.host/meutraa/encore/internal/game"
)

// InputsCompact holds every press and release of one action, with the
// position of each in the recorded log.
type InputsCompact struct {
	Action       game.Action     `json:"a"`
	Presses      []time.Duration `json:"p,omitempty"`
	Releases     []time.Duration `json:"r,omitempty"`
	PressOrder   []int           `json:"po,omitempty"`
	ReleaseOrder []int           `json:"ro,omitempty"`
}

func compactInputs(inputs []game.Input) []InputsCompact {
	colCount := 0
	for _, i := range inputs {
		if int(i.Action) >= colCount {
			colCount = int(i.Action) + 1
		}
	}
	ins := make([]InputsCompact, colCount)
	for a := range ins {
		ins[a].Action = game.Action(a)
	}
	for n, i := range inputs {
		c := &ins[i.Action]
		if i.Pressed {
			c.Presses = append(c.Presses, i.Time)
			c.PressOrder = append(c.PressOrder, n)
		} else {
			c.Releases = append(c.Releases, i.Time)
			c.ReleaseOrder = append(c.ReleaseOrder, n)
		}
	}
	return ins
}

type orderedInput struct {
	order int
	input game.Input
}

// uncompactInputs restores the recorded order. Rows stored without positions
// come back in time order, simultaneous inputs releases first, then by action.
func uncompactInputs(inputs []InputsCompact) []game.Input {
	ordered := []orderedInput{}
	positioned := true
	for _, c := range inputs {
		positioned = positioned && len(c.PressOrder) == len(c.Presses) && len(c.ReleaseOrder) == len(c.Releases)
		for i, t := range c.Presses {
			ordered = append(ordered, orderedInput{orderAt(c.PressOrder, i), game.Input{Action: c.Action, Time: t, Pressed: true}})
		}
		for i, t := range c.Releases {
			ordered = append(ordered, orderedInput{orderAt(c.ReleaseOrder, i), game.Input{Action: c.Action, Time: t}})
		}
	}

	ins := make([]game.Input, 0, len(ordered))
	if !positioned {
		for _, o := range ordered {
			ins = append(ins, o.input)
		}
		sortInputs(ins)
		return ins
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].order < ordered[j].order })
	for _, o := range ordered {
		ins = append(ins, o.input)
	}
	return ins
}

func orderAt(orders []int, i int) int {
	if i < len(orders) {
		return orders[i]
	}
	return 0
}

func sortInputs(ins []game.Input) {
	sort.SliceStable(ins, func(i, j int) bool {
		a, b := ins[i], ins[j]
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		if a.Pressed != b.Pressed {
			return !a.Pressed
		}
		return a.Action < b.Action
	})
}
