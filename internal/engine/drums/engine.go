package drums

import (
	"time"

	"go.uber.org/zap"

	"git.lost.host/meutraa/encore/internal/engine"
	"git.lost.host/meutraa/encore/internal/game"
)

type Stats struct {
	engine.Stats

	Overhits int `json:"overhits"`
}

// Engine scores a four or five lane drum track. Chords are separate notes
// sharing a time.
type Engine struct {
	*engine.Base

	pads     int
	pending  []game.Action
	overhits int
}

func New(mode game.GameMode, track *game.Track, sync *game.SyncTrack, coda *game.CodaRegion, params engine.Parameters, opts ...engine.Option) *Engine {
	d := &Engine{pads: 5}
	if mode == game.FiveLaneDrums {
		d.pads = 6
	}
	d.Base = engine.NewBase(d, mode, track, sync, coda, params, opts...)
	return d
}

func (d *Engine) DrumStats() Stats {
	return Stats{Stats: d.BaseStats(), Overhits: d.overhits}
}

func (d *Engine) Snapshot() engine.Snapshot { return d.DrumStats() }

func (d *Engine) HandleInput(in game.Input) {
	if !in.Pressed || int(in.Action) >= d.pads {
		return
	}
	if d.IsCodaActive() {
		d.HitCodaLane(0)
		return
	}
	d.pending = append(d.pending, in.Action)
}

func (d *Engine) UpdateHitLogic(t time.Duration) {
	if d.IsBot {
		for d.NoteIndex < len(d.Notes) && d.Notes[d.NoteIndex].Time <= t {
			d.HitNote(d.NoteIndex)
		}
		d.pending = d.pending[:0]
		return
	}

	for _, pad := range d.pending {
		if i, ok := d.noteForPad(pad, t); ok {
			d.HitNote(i)
		} else {
			d.Overhit(pad)
		}
	}
	d.pending = d.pending[:0]
}

// noteForPad finds the earliest unresolved note of the pad inside its window.
func (d *Engine) noteForPad(pad game.Action, t time.Duration) (int, bool) {
	for i := d.NoteIndex; i < len(d.Notes); i++ {
		n := d.Notes[i]
		if t < d.WindowStart(n) {
			break
		}
		if !n.Resolved() && n.Lane == uint8(pad) && d.IsNoteInWindow(n, t) {
			return i, true
		}
	}
	return 0, false
}

// Overhit punishes a pad hit that matched no note.
func (d *Engine) Overhit(pad game.Action) {
	if d.NoteIndex == 0 || d.NoteIndex >= len(d.Notes) || d.IsWaitCountdownActive() || d.IsCodaActive() {
		return
	}
	d.Logger().Debug("overhit", zap.Duration("time", d.CurrentTime), zap.Uint8("pad", uint8(pad)))
	if !d.Notes[d.NoteIndex].IsStarPowerStart() {
		d.StripStarPower(d.NoteIndex)
	}
	d.ResetCombo()
	d.overhits++
	d.UpdateMultiplier()
	d.Emit(engine.Overhit, d.NoteIndex)
}

func (d *Engine) SustainHeld(*game.Note) bool { return true }

func (d *Engine) QueueTimerUpdates(prev, next time.Duration) {}

func (d *Engine) NoteScore(*game.Note) int { return engine.PointsPerNote }

func (d *Engine) NoteResolved(*game.Note, bool) {}

func (d *Engine) ResetState() {
	d.pending = nil
	d.overhits = 0
}

func (d *Engine) SpeedChanged(float64) {}
