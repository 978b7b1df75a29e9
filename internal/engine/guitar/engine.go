package guitar

import (
	"math/bits"
	"time"

	"go.uber.org/zap"

	"git.lost.host/meutraa/encore/internal/engine"
	"git.lost.host/meutraa/encore/internal/game"
)

// Bits 10-14 of the raw button mask
const soloMask uint16 = 0x7C00

// Engine scores a five fret guitar track.
type Engine struct {
	*engine.Base

	params Parameters

	EffectiveButtonMask uint8
	InputButtonMask     uint16
	StandardButtonHeld  bool
	WasNoteGhosted      bool

	hasFretted  bool
	hasStrummed bool
	isFretPress bool
	pressedFret game.Action
	lastHitMask uint8

	HopoLeniencyTimer  engine.Timer
	StrumLeniencyTimer engine.Timer

	IsLaneActive     bool
	RequiredLaneNote int
	NextTrillNote    int

	overstrums    int
	hoposStrummed int
	ghostInputs   int
}

// New builds an engine over a track the engine may mutate.
func New(track *game.Track, sync *game.SyncTrack, coda *game.CodaRegion, params Parameters, opts ...engine.Option) *Engine {
	g := &Engine{
		params:              params,
		EffectiveButtonMask: game.OpenMask,
		HopoLeniencyTimer:   engine.NewTimer(params.HopoLeniency),
		StrumLeniencyTimer:  engine.NewTimer(params.StrumLeniency),
		NextTrillNote:       -1,
	}
	opts = append([]engine.Option{engine.WithInfiniteFrontEnd(params.InfiniteFrontEnd)}, opts...)
	g.Base = engine.NewBase(g, game.FiveFretGuitar, track, sync, coda, params.Parameters, opts...)
	return g
}

func (g *Engine) Parameters() Parameters { return g.params }

func (g *Engine) GuitarStats() Stats {
	return Stats{
		Stats:                g.BaseStats(),
		Overstrums:           g.overstrums,
		HoposStrummed:        g.hoposStrummed,
		GhostInputs:          g.ghostInputs,
		StarPowerWhammyTicks: g.WhammyTicks(),
	}
}

func (g *Engine) Snapshot() engine.Snapshot { return g.GuitarStats() }

func isFret(a game.Action) bool {
	return a <= game.OrangeFret || (a >= game.SoloGreenFret && a <= game.SoloOrangeFret)
}

func isStrum(a game.Action) bool {
	return a == game.StrumUp || a == game.StrumDown
}

// ToggleFret updates the raw mask and folds the solo frets onto the
// standard ones.
func (g *Engine) ToggleFret(fret game.Action, active bool) {
	if active {
		g.InputButtonMask |= 1 << fret
	} else {
		g.InputButtonMask &^= 1 << fret
	}
	g.EffectiveButtonMask = uint8(g.InputButtonMask) | uint8(g.InputButtonMask>>10)
	if g.EffectiveButtonMask == 0 {
		g.EffectiveButtonMask = game.OpenMask
	}
	g.StandardButtonHeld = g.InputButtonMask&^uint16(game.OpenMask)&^soloMask > 0
}

func (g *Engine) IsFretHeld(fret game.Action) bool {
	return g.EffectiveButtonMask&(1<<(fret%10)) != 0
}

func (g *Engine) HandleInput(in game.Input) {
	switch {
	case isFret(in.Action):
		g.ToggleFret(in.Action, in.Pressed)
		g.hasFretted = true
		g.isFretPress = in.Pressed
		g.pressedFret = in.Action % 10
		if in.Pressed && g.IsCodaActive() {
			g.HitCodaLane(int(in.Action % 10))
		}
	case isStrum(in.Action):
		if !in.Pressed {
			return
		}
		g.hasStrummed = true
		if g.IsCodaActive() {
			for lane := game.GreenFret; lane <= game.OrangeFret; lane++ {
				if g.IsFretHeld(lane) {
					g.HitCodaLane(int(lane))
				}
			}
		}
	case in.Action == game.Whammy:
		if in.Pressed {
			g.StarPowerWhammyTimer.Start(g.CurrentTime)
		}
	}
}

func (g *Engine) UpdateHitLogic(t time.Duration) {
	defer g.clearInputFlags()
	if g.IsCodaActive() {
		return
	}
	g.updateLane()

	if g.StrumLeniencyTimer.Expired(t) {
		g.StrumLeniencyTimer.Disable()
		g.Overstrum()
	}
	if g.HopoLeniencyTimer.Expired(t) {
		g.HopoLeniencyTimer.Disable()
	}

	if g.IsBot {
		g.updateBot(t)
		return
	}

	g.checkGhostInput(t)

	if g.hasStrummed {
		g.checkStrum(t)
	} else if g.StrumLeniencyTimer.IsActive() && g.NoteIndex < len(g.Notes) {
		n := g.Notes[g.NoteIndex]
		if g.IsNoteInWindow(n, t) && g.CanNoteBeHit(n) {
			g.StrumLeniencyTimer.Disable()
			g.hit(g.NoteIndex)
		}
	}

	for g.checkFretHit(t) {
	}
}

func (g *Engine) clearInputFlags() {
	g.hasFretted = false
	g.hasStrummed = false
	g.isFretPress = false
}

func (g *Engine) updateBot(t time.Duration) {
	for g.NoteIndex < len(g.Notes) {
		n := g.Notes[g.NoteIndex]
		if t < n.Time {
			return
		}
		g.EffectiveButtonMask = n.Mask
		g.hit(g.NoteIndex)
	}
}

// checkGhostInput flags a fret press above the HOPO or tap in the window.
func (g *Engine) checkGhostInput(t time.Duration) {
	if !g.isFretPress || g.NoteIndex >= len(g.Notes) {
		return
	}
	n := g.Notes[g.NoteIndex]
	if n.Forcing == game.Strum || !g.IsNoteInWindow(n, t) || g.CanNoteBeHit(n) {
		return
	}
	// frets at or below the note are anchoring
	if MostSignificantBit(1<<g.pressedFret) <= MostSignificantBit(int(n.Mask&^game.OpenMask)) {
		return
	}
	g.ghostInputs++
	g.WasNoteGhosted = true
	g.Logger().Debug("ghost input", zap.Int("note", g.NoteIndex), zap.Uint8("pressed", uint8(g.pressedFret)))
}

func (g *Engine) checkStrum(t time.Duration) {
	if g.HopoLeniencyTimer.IsActive() {
		g.HopoLeniencyTimer.Disable()
		g.Logger().Debug("strum absorbed by hopo leniency", zap.Duration("time", t))
		return
	}

	for i := g.NoteIndex; i < len(g.Notes); i++ {
		n := g.Notes[i]
		if t < g.WindowStart(n) {
			break
		}
		if n.Resolved() || !g.IsNoteInWindow(n, t) || !g.CanNoteBeHit(n) {
			continue
		}
		if n.Forcing != game.Strum {
			g.hoposStrummed++
		}
		g.StrumLeniencyTimer.Disable()
		g.hit(i)
		return
	}

	if g.StrumLeniencyTimer.IsActive() {
		g.Overstrum()
	}
	g.StrumLeniencyTimer.Start(t)
}

// checkFretHit hits the current note without a strum when its forcing
// allows it.
func (g *Engine) checkFretHit(t time.Duration) bool {
	if g.NoteIndex >= len(g.Notes) {
		return false
	}
	n := g.Notes[g.NoteIndex]
	if g.WasNoteGhosted || !g.IsNoteInWindow(n, t) {
		return false
	}
	if !g.hasFretted && n.Mask == g.lastHitMask {
		return false
	}

	hittable := false
	switch {
	case n.Forcing == game.Tap:
		hittable = true
	case n.Forcing == game.Hopo:
		// a repeated shape needs a strum
		hittable = (g.Stats().Combo > 0 || g.NoteIndex == 0) && n.Mask != g.lastHitMask
	}
	if n.IsLane() && g.IsLaneActive {
		hittable = true
	}
	if !hittable || !g.CanNoteBeHit(n) {
		return false
	}

	g.StrumLeniencyTimer.Disable()
	g.hit(g.NoteIndex)
	g.HopoLeniencyTimer.Start(t)
	g.hasFretted = false
	return true
}

func (g *Engine) hit(i int) {
	g.SkipPreviousNotes(i)
	g.HitNote(i)
}

// heldMask is the button mask without frets held for extended sustains.
func (g *Engine) heldMask() uint8 {
	buttons := g.EffectiveButtonMask
	for _, s := range g.ActiveSustains {
		if s.Note.IsExtendedSustain() {
			buttons &^= s.Note.DisjointMask
		}
	}
	if buttons == 0 {
		buttons = game.OpenMask
	}
	return buttons
}

// CanNoteBeHit applies the fret matching rules: open notes need nothing held,
// chords need an exact match, single notes allow anchoring below them.
func (g *Engine) CanNoteBeHit(n *game.Note) bool {
	buttons := g.heldMask()
	mask := n.ParentOrSelf().Mask

	switch {
	case mask == game.OpenMask:
		return buttons == game.OpenMask
	case mask&game.OpenMask != 0:
		return buttons&^game.OpenMask == mask&^game.OpenMask
	case MaskIsMultiFret(int(mask)):
		return buttons == mask
	}
	return MostSignificantBit(int(buttons&^game.OpenMask)) == MostSignificantBit(int(mask))
}

func (g *Engine) SustainHeld(n *game.Note) bool {
	mask := n.Mask
	if n.IsDisjoint() {
		mask = n.DisjointMask
	}
	buttons := g.EffectiveButtonMask
	if mask&game.OpenMask != 0 {
		buttons |= game.OpenMask
	}
	extendedHold := mask&buttons == mask

	parent := n.ParentOrSelf()
	if parent.Mask&game.OpenMask != 0 && parent.Mask != game.OpenMask && n.DisjointMask&game.OpenMask != 0 {
		if n.IsDisjoint() || n.IsExtendedSustain() {
			return true
		}
	}
	// a disjoint note only needs its own fret
	if n.IsExtendedSustain() || n.IsDisjoint() {
		return extendedHold
	}
	return g.CanNoteBeHit(n)
}

// Overstrum punishes a strum that hit nothing.
func (g *Engine) Overstrum() {
	if g.NoteIndex == 0 {
		return
	}
	if g.NoteIndex >= len(g.Notes) && len(g.ActiveSustains) == 0 {
		return
	}
	if g.IsWaitCountdownActive() {
		g.Logger().Debug("overstrum prevented during wait countdown", zap.Duration("time", g.CurrentTime))
		return
	}
	if g.ActiveLaneIncludesNote(g.GetLaneMask()) {
		return
	}

	g.Logger().Debug("overstrum", zap.Duration("time", g.CurrentTime), zap.Int("note", g.NoteIndex))
	g.BreakSustains()
	if g.NoteIndex < len(g.Notes) && !g.Notes[g.NoteIndex].IsStarPowerStart() {
		g.StripStarPower(g.NoteIndex)
	}
	g.ResetCombo()
	g.overstrums++
	g.UpdateMultiplier()
	g.Emit(engine.Overstrum, g.NoteIndex)
}

func (g *Engine) updateLane() {
	g.IsLaneActive = false
	g.RequiredLaneNote = 0
	g.NextTrillNote = -1
	if g.NoteIndex >= len(g.Notes) || !g.Notes[g.NoteIndex].IsLane() {
		return
	}
	n := g.Notes[g.NoteIndex]
	g.IsLaneActive = true
	g.RequiredLaneNote = int(n.Mask)
	if n.IsTrill() && g.NoteIndex+1 < len(g.Notes) && g.Notes[g.NoteIndex+1].IsLane() {
		g.NextTrillNote = int(g.Notes[g.NoteIndex+1].Mask)
	}
}

// GetLaneMask is the held mask without frets owned by active sustains.
func (g *Engine) GetLaneMask() int {
	laneMask := int(g.EffectiveButtonMask)
	for _, s := range g.ActiveSustains {
		laneMask &^= int(s.Note.Mask)
	}
	if g.RequiredLaneNote&int(game.OpenMask) != 0 && MaskIsMultiFret(g.RequiredLaneNote) {
		laneMask |= int(game.OpenMask)
	}
	return laneMask
}

func (g *Engine) ActiveLaneIncludesNote(mask int) bool {
	if !g.IsLaneActive {
		return false
	}
	if MaskIsMultiFret(g.RequiredLaneNote) {
		return mask == g.RequiredLaneNote
	}
	held := MostSignificantBit(mask)
	if held == MostSignificantBit(g.RequiredLaneNote) {
		return true
	}
	return g.NextTrillNote != -1 && held == MostSignificantBit(g.NextTrillNote)
}

func MaskIsMultiFret(mask int) bool {
	return mask&(mask-1) != 0
}

// MostSignificantBit is the 1-based index of the highest set bit, 0 for none.
func MostSignificantBit(mask int) int {
	return bits.Len(uint(mask))
}

func (g *Engine) QueueTimerUpdates(prev, next time.Duration) {
	if g.HopoLeniencyTimer.IsActive() && engine.IsTimeBetween(g.HopoLeniencyTimer.EndTime(), prev, next) {
		g.QueueUpdateTime(g.HopoLeniencyTimer.EndTime(), "hopo leniency end")
	}
	if g.StrumLeniencyTimer.IsActive() && engine.IsTimeBetween(g.StrumLeniencyTimer.EndTime(), prev, next) {
		g.QueueUpdateTime(g.StrumLeniencyTimer.EndTime(), "strum leniency end")
	}
}

func (g *Engine) NoteScore(n *game.Note) int {
	return engine.PointsPerNote * (1 + len(n.Children))
}

func (g *Engine) NoteResolved(n *game.Note, hit bool) {
	g.WasNoteGhosted = false
	if hit {
		g.lastHitMask = n.Mask
	}
}

func (g *Engine) ResetState() {
	g.EffectiveButtonMask = game.OpenMask
	g.InputButtonMask = 0
	g.StandardButtonHeld = false
	g.WasNoteGhosted = false
	g.clearInputFlags()
	g.lastHitMask = 0
	g.HopoLeniencyTimer.Reset()
	g.StrumLeniencyTimer.Reset()
	g.IsLaneActive = false
	g.RequiredLaneNote = 0
	g.NextTrillNote = -1
	g.overstrums = 0
	g.hoposStrummed = 0
	g.ghostInputs = 0
}

func (g *Engine) SpeedChanged(speed float64) {
	g.HopoLeniencyTimer.SetSpeed(speed)
	g.StrumLeniencyTimer.SetSpeed(speed)
}
