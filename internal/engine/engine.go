package engine

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"git.lost.host/meutraa/encore/internal/game"
	"git.lost.host/meutraa/encore/internal/log"
)

const (
	PointsPerNote        = 50
	SustainPointsPerBeat = 25

	// Star power is measured in beats of chart ticks
	StarPowerBarBeats        = 32
	StarPowerPhraseBeats     = 8
	StarPowerActivationBeats = StarPowerBarBeats / 2
)

var ErrUnsupportedGameMode = errors.New("unsupported game mode")

// before the song starts, far enough back that any frame time is later
const beginning = time.Duration(math.MinInt64 / 2)

// Rules is what an instrument adds on top of the generic engine.
type Rules interface {
	// HandleInput updates the instrument's button state for one input. Hit
	// logic runs right after at the input's time.
	HandleInput(in game.Input)
	// UpdateHitLogic resolves notes at the engine's current time.
	UpdateHitLogic(t time.Duration)
	SustainHeld(n *game.Note) bool
	// QueueTimerUpdates queues the instrument's timers expiring in (prev, next].
	QueueTimerUpdates(prev, next time.Duration)
	NoteScore(n *game.Note) int
	NoteResolved(n *game.Note, hit bool)
	ResetState()
	SpeedChanged(speed float64)
}

// Engine is what hosts, bands and the replay verifier drive.
type Engine interface {
	ID() uuid.UUID
	Mode() game.GameMode
	QueueInput(in game.Input)
	Update(t time.Duration)
	Reset()
	SetSpeed(speed float64)
	Subscribe(fn Listener) Subscription
	Unsubscribe(id Subscription)
	SetBandManaged(managed bool)
	UpdateBandMultiplier(multiplier int, at time.Duration)
	AwardCodaBonus()
	NextSyncPoint() (time.Duration, bool)
	BaseStats() Stats
	Snapshot() Snapshot
}

type queuedUpdate struct {
	time   time.Duration
	reason string
}

type bandChange struct {
	at         time.Duration
	multiplier int
}

type countdown struct {
	start, end time.Duration
}

// ActiveSustain is a held sustain. Score accrues from BaseTick at the current
// multiplier; a multiplier change commits what was earned and moves BaseTick.
type ActiveSustain struct {
	Note      *game.Note
	NoteIndex int
	BaseTick  uint32
	Committed int
}

type Option func(*Base)

func WithLogger(l *zap.Logger) Option {
	return func(b *Base) { b.logger = l }
}

func WithBot(isBot bool) Option {
	return func(b *Base) { b.IsBot = isBot }
}

func WithInfiniteFrontEnd(enabled bool) Option {
	return func(b *Base) { b.InfiniteFrontEnd = enabled }
}

// Base is the instrument agnostic engine. Instruments embed it and supply
// their Rules.
type Base struct {
	observers

	rules  Rules
	id     uuid.UUID
	mode   game.GameMode
	logger *zap.Logger

	Notes  []*game.Note
	Sync   *game.SyncTrack
	Params Parameters
	IsBot  bool
	// InfiniteFrontEnd removes the early limit of the hit window
	InfiniteFrontEnd bool

	CurrentTime time.Duration
	CurrentTick uint32
	NoteIndex   int

	stats          Stats
	comboMult      int
	factor         int
	bandMultiplier int
	bandManaged    bool
	pendingBand    []bandChange

	inputs  []game.Input
	updates []queuedUpdate

	ActiveSustains []*ActiveSustain

	Solos      []*SoloSection
	soloIndex  int
	soloActive bool

	Coda             *CodaSection
	codaClosingIndex int
	codaStarted      bool
	codaEnded        bool
	codaAwarded      bool

	countdowns []countdown // indexed by the note that follows the gap

	phraseOf       []int
	strippedPhrase []bool

	StarPowerWhammyTimer Timer
	whammyTicks          uint32
	speed                float64
}

// NewBase builds the generic part of an engine. The track must be a clone
// owned by this engine.
func NewBase(rules Rules, mode game.GameMode, track *game.Track, sync *game.SyncTrack,
	coda *game.CodaRegion, params Parameters, opts ...Option,
) *Base {
	params = params.withDefaults()
	b := &Base{
		rules:                rules,
		id:                   uuid.New(),
		mode:                 mode,
		logger:               log.Logger,
		Notes:                track.Notes,
		Sync:                 sync,
		Params:               params,
		StarPowerWhammyTimer: NewTimer(params.StarPowerWhammyBuffer),
		speed:                1,
		codaClosingIndex:     -1,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With(zap.Stringer("engine", b.id), zap.Stringer("mode", mode))

	b.buildPhrases()
	b.buildSolos()
	b.buildCountdowns()
	if coda != nil {
		maxScore := MaxFretScore
		if mode == game.FourLaneDrums || mode == game.FiveLaneDrums {
			maxScore = MaxDrumScore
		}
		b.Coda = NewCodaSection(game.NLanes[mode], maxScore, coda.StartTime, coda.EndTime)
		b.codaClosingIndex = sort.Search(len(b.Notes), func(i int) bool {
			return b.Notes[i].Time >= coda.EndTime
		})
		if b.codaClosingIndex == len(b.Notes) {
			b.codaClosingIndex = -1
		}
	}
	b.reset()
	b.SetSpeed(params.SongSpeed)
	return b
}

func (b *Base) buildPhrases() {
	b.phraseOf = make([]int, len(b.Notes))
	phrase := -1
	inPhrase := false
	for i, n := range b.Notes {
		if !n.IsStarPower() {
			b.phraseOf[i] = -1
			inPhrase = false
			continue
		}
		if !inPhrase || n.IsStarPowerStart() {
			phrase++
			inPhrase = true
		}
		b.phraseOf[i] = phrase
		if n.IsStarPowerEnd() {
			inPhrase = false
		}
	}
	b.strippedPhrase = make([]bool, phrase+1)
}

func (b *Base) buildSolos() {
	var current *SoloSection
	for _, n := range b.Notes {
		if n.IsSoloStart() {
			current = &SoloSection{StartTick: n.Tick, StartTime: n.Time}
		}
		if current == nil {
			continue
		}
		current.NoteCount++
		if n.IsSoloEnd() {
			current.EndTick = n.Tick
			current.EndTime = n.Time
			b.Solos = append(b.Solos, current)
			current = nil
		}
	}
}

func (b *Base) buildCountdowns() {
	b.countdowns = make([]countdown, len(b.Notes))
	for i := 1; i < len(b.Notes); i++ {
		end := time.Duration(0)
		for _, n := range b.Notes[i-1].AllNotes() {
			if e := n.TimeEnd(); e > end {
				end = e
			}
		}
		next := b.Notes[i].Time - b.Params.HitWindow.Front
		if next-end >= b.Params.WaitCountdownMinGap {
			b.countdowns[i] = countdown{start: end, end: next}
		}
	}
}

func (b *Base) ID() uuid.UUID         { return b.id }
func (b *Base) Mode() game.GameMode   { return b.mode }
func (b *Base) Logger() *zap.Logger   { return b.logger }
func (b *Base) Stats() *Stats         { return &b.stats }
func (b *Base) BaseStats() Stats      { return b.stats }
func (b *Base) Speed() float64        { return b.speed }
func (b *Base) WhammyTicks() uint32   { return b.whammyTicks }
func (b *Base) BandMultiplier() int   { return b.bandMultiplier }
func (b *Base) SetBandManaged(m bool) { b.bandManaged = m }

// SetSpeed propagates a song speed change into every timer.
func (b *Base) SetSpeed(speed float64) {
	b.speed = speed
	b.StarPowerWhammyTimer.SetSpeed(speed)
	b.rules.SpeedChanged(speed)
}

// Reset brings the engine and the notes back to their initial state.
func (b *Base) Reset() {
	b.reset()
	b.rules.ResetState()
}

func (b *Base) reset() {
	for _, n := range b.Notes {
		n.ResetState()
	}
	b.stats = Stats{
		ScoreMultiplier:       1,
		TotalNotes:            len(b.Notes),
		TotalStarPowerPhrases: len(b.strippedPhrase),
	}
	b.comboMult = 1
	b.factor = 1
	b.bandMultiplier = 0
	b.pendingBand = nil
	b.CurrentTime = beginning
	b.CurrentTick = 0
	b.NoteIndex = 0
	b.inputs = nil
	b.updates = nil
	b.ActiveSustains = nil
	b.soloIndex = 0
	b.soloActive = false
	for _, s := range b.Solos {
		s.NotesHit = 0
		s.SoloBonus = 0
	}
	if b.Coda != nil {
		b.Coda.Reset()
	}
	b.codaStarted = false
	b.codaEnded = false
	b.codaAwarded = false
	for i := range b.strippedPhrase {
		b.strippedPhrase[i] = false
	}
	b.StarPowerWhammyTimer.Reset()
	b.whammyTicks = 0
}

// QueueInput stores an input until the Update that reaches its time.
func (b *Base) QueueInput(in game.Input) {
	i := sort.Search(len(b.inputs), func(i int) bool { return b.inputs[i].Time > in.Time })
	b.inputs = append(b.inputs, game.Input{})
	copy(b.inputs[i+1:], b.inputs[i:])
	b.inputs[i] = in
}

// QueueUpdateTime registers a salient instant. Instants at the same time are
// processed once.
func (b *Base) QueueUpdateTime(t time.Duration, reason string) {
	i := sort.Search(len(b.updates), func(i int) bool { return b.updates[i].time >= t })
	if i < len(b.updates) && b.updates[i].time == t {
		return
	}
	b.logger.Debug("queued update", zap.Duration("time", t), zap.String("reason", reason))
	b.updates = append(b.updates, queuedUpdate{})
	copy(b.updates[i+1:], b.updates[i:])
	b.updates[i] = queuedUpdate{time: t, reason: reason}
}

// IsTimeBetween reports if t is in (prev, next].
func IsTimeBetween(t, prev, next time.Duration) bool {
	return t > prev && t <= next
}

func (b *Base) queueIfBetween(t, next time.Duration, reason string) {
	if IsTimeBetween(t, b.CurrentTime, next) {
		b.QueueUpdateTime(t, reason)
	}
}

func (b *Base) generateQueuedUpdates(next time.Duration) {
	if b.NoteIndex < len(b.Notes) {
		n := b.Notes[b.NoteIndex]
		if !b.InfiniteFrontEnd {
			b.queueIfBetween(b.WindowStart(n), next, "note window start")
		}
		b.queueIfBetween(n.Time, next, "note time")
		b.queueIfBetween(b.WindowEnd(n)+1, next, "note window end")
	}
	for _, s := range b.ActiveSustains {
		b.queueIfBetween(b.Sync.TickToTime(s.Note.TickEnd()), next, "sustain end")
	}
	if b.stats.IsStarPowerActive && !b.isWhammyGaining() {
		end := b.Sync.TickToTime(b.CurrentTick + b.stats.StarPowerTickAmount)
		b.queueIfBetween(end, next, "star power end")
	}
	if b.StarPowerWhammyTimer.IsActive() {
		b.queueIfBetween(b.StarPowerWhammyTimer.EndTime(), next, "whammy buffer end")
	}
	if b.Coda != nil && !b.codaEnded {
		b.queueIfBetween(b.Coda.StartTime, next, "coda start")
		if b.codaClosingIndex < 0 {
			b.queueIfBetween(b.Coda.EndTime, next, "coda end")
		}
	}
	b.rules.QueueTimerUpdates(b.CurrentTime, next)
}

// Update advances the engine to t. Queued inputs are applied at their own
// time and every salient instant before t is processed in order, so the
// result does not depend on how the caller steps time.
func (b *Base) Update(t time.Duration) {
	if t < b.CurrentTime {
		b.logger.Warn("update time went backwards",
			zap.Duration("current", b.CurrentTime), zap.Duration("requested", t))
		return
	}

	for len(b.inputs) > 0 && b.inputs[0].Time <= t {
		in := b.inputs[0]
		b.inputs = b.inputs[1:]

		at := in.Time
		if at < b.CurrentTime {
			at = b.CurrentTime
		}
		b.runUpdatesUntil(at)

		if in.Action == game.StarPowerAction {
			if in.Pressed {
				b.ActivateStarPower()
			}
		} else {
			b.rules.HandleInput(in)
		}
		b.step(at)
	}
	b.runUpdatesUntil(t)
}

func (b *Base) runUpdatesUntil(t time.Duration) {
	for {
		b.generateQueuedUpdates(t)
		if len(b.updates) == 0 || b.updates[0].time > t {
			break
		}
		u := b.updates[0]
		b.updates = b.updates[1:]
		if u.time <= b.CurrentTime {
			continue
		}
		b.logger.Debug("processing update", zap.Duration("time", u.time), zap.String("reason", u.reason))
		b.step(u.time)
	}
	if t > b.CurrentTime {
		b.step(t)
	}
}

// step moves the clock to t and runs everything evaluated at one instant.
func (b *Base) step(t time.Duration) {
	tick := b.Sync.TimeToTick(t)
	if t > b.CurrentTime && b.CurrentTime != beginning {
		b.accrueStarPower(t-b.CurrentTime, tick-b.CurrentTick)
	}
	b.CurrentTime = t
	b.CurrentTick = tick

	b.applyBandChanges()
	if b.StarPowerWhammyTimer.Expired(t) {
		b.StarPowerWhammyTimer.Disable()
	}
	if b.stats.IsStarPowerActive && b.stats.StarPowerTickAmount == 0 {
		b.deactivateStarPower()
	}
	b.checkCoda()
	b.checkMisses()
	b.rules.UpdateHitLogic(t)
	b.updateSustains()
}

func (b *Base) checkMisses() {
	for b.NoteIndex < len(b.Notes) && b.CurrentTime > b.WindowEnd(b.Notes[b.NoteIndex]) {
		b.MissNote(b.NoteIndex)
	}
}

// WindowStart is the earliest time a note can be hit at the current speed.
func (b *Base) WindowStart(n *game.Note) time.Duration {
	if b.InfiniteFrontEnd {
		return beginning
	}
	return n.Time - time.Duration(float64(b.Params.HitWindow.Front)*b.speed)
}

// WindowEnd is the latest time a note can be hit at the current speed.
func (b *Base) WindowEnd(n *game.Note) time.Duration {
	return n.Time + time.Duration(float64(b.Params.HitWindow.Back)*b.speed)
}

func (b *Base) IsNoteInWindow(n *game.Note, t time.Duration) bool {
	return t >= b.WindowStart(n) && t <= b.WindowEnd(n)
}

// IsWaitCountdownActive reports if the engine sits in a long gap before the
// next note.
func (b *Base) IsWaitCountdownActive() bool {
	if b.NoteIndex <= 0 || b.NoteIndex >= len(b.countdowns) {
		return false
	}
	c := b.countdowns[b.NoteIndex]
	return c.end > c.start && b.CurrentTime >= c.start && b.CurrentTime < c.end
}

func (b *Base) emit(e Event) {
	e.Engine = b.id
	e.Time = b.CurrentTime
	b.observers.emit(e)
}

// SkipPreviousNotes misses every unresolved note before i. It reports if
// any note was skipped.
func (b *Base) SkipPreviousNotes(i int) bool {
	skipped := false
	for j := b.NoteIndex; j < i; j++ {
		if !b.Notes[j].Resolved() {
			b.MissNote(j)
			skipped = true
		}
	}
	return skipped
}

// HitNote resolves note i as hit. Resolving a note twice is a no-op.
func (b *Base) HitNote(i int) {
	n := b.Notes[i]
	if n.Resolved() {
		b.logger.Debug("tried to hit/miss note twice",
			zap.Int("index", i), zap.Bool("hit", n.WasHit), zap.Bool("missed", n.WasMissed))
		return
	}
	n.SetHit(b.CurrentTime)

	if b.IsStarPowerNote(i) && n.IsStarPowerEnd() {
		b.AwardStarPower(b.Sync.Beats(StarPowerPhraseBeats))
		b.stats.StarPowerPhrasesHit++
		b.emit(Event{Kind: StarPowerPhraseHit, NoteIndex: i, Note: n})
	}

	if n.IsSoloStart() {
		b.startSolo()
	}
	if b.soloActive {
		b.Solos[b.soloIndex].NotesHit++
	}
	if n.IsSoloEnd() {
		b.endSolo()
	}

	b.stats.Combo++
	if b.stats.Combo > b.stats.MaxCombo {
		b.stats.MaxCombo = b.stats.Combo
	}
	b.stats.NotesHit++
	b.UpdateMultiplier()

	points := b.rules.NoteScore(n)
	b.stats.NoteScore += points
	b.AddScore(points)

	if n.IsDisjoint() {
		for _, chordNote := range n.AllNotes() {
			if chordNote.IsSustain() {
				b.StartSustain(chordNote, i)
			}
		}
	} else if n.IsSustain() {
		b.StartSustain(n, i)
	}

	b.rules.NoteResolved(n, true)
	b.emit(Event{Kind: NoteHit, NoteIndex: i, Note: n})
	b.noteResolved(i)
}

// MissNote resolves note i as missed. Resolving a note twice is a no-op.
func (b *Base) MissNote(i int) {
	n := b.Notes[i]
	if n.Resolved() {
		b.logger.Debug("tried to hit/miss note twice",
			zap.Int("index", i), zap.Bool("hit", n.WasHit), zap.Bool("missed", n.WasMissed))
		return
	}
	n.SetMissed()

	if b.IsStarPowerNote(i) {
		b.StripStarPower(i)
	}
	if n.IsSoloStart() {
		b.startSolo()
	}
	if n.IsSoloEnd() {
		b.endSolo()
	}
	if b.Coda != nil && b.codaStarted && !b.codaEnded && n.Time >= b.Coda.StartTime {
		b.Coda.MissNote()
	}

	b.stats.NotesMissed++
	b.ResetCombo()
	b.UpdateMultiplier()

	b.rules.NoteResolved(n, false)
	b.emit(Event{Kind: NoteMissed, NoteIndex: i, Note: n})
	b.noteResolved(i)
}

func (b *Base) noteResolved(i int) {
	for b.NoteIndex < len(b.Notes) && b.Notes[b.NoteIndex].Resolved() {
		b.NoteIndex++
	}
	if i == b.codaClosingIndex {
		b.endCoda()
	}
}

func (b *Base) ResetCombo() {
	b.stats.Combo = 0
}

// AddScore adds note points at the current multiplier.
func (b *Base) AddScore(points int) {
	b.stats.CommittedScore += points * b.stats.ScoreMultiplier
	b.stats.StarPowerScore += points * b.comboMult * (b.factor - 1)
}

// UpdateMultiplier recomputes the multiplier from the combo and the star
// power factor. Sustains are rebased on a change so earned ticks keep the
// multiplier they were earned at.
func (b *Base) UpdateMultiplier() {
	combo := 1 + b.stats.Combo/10
	if combo > b.Params.MaxMultiplier {
		combo = b.Params.MaxMultiplier
	}
	factor := 1
	switch {
	case b.bandMultiplier > 0:
		factor = b.bandMultiplier
	case b.stats.IsStarPowerActive:
		factor = 2
	}

	if combo*factor != b.stats.ScoreMultiplier {
		b.RebaseSustains(b.CurrentTick)
	}
	b.comboMult = combo
	b.factor = factor
	b.stats.ScoreMultiplier = combo * factor
}

// UpdateBandMultiplier sets the shared multiplier pushed by a band from the
// given instant on. Engines behind that instant apply it when they reach it.
func (b *Base) UpdateBandMultiplier(multiplier int, at time.Duration) {
	if at <= b.CurrentTime {
		b.bandMultiplier = multiplier
		b.UpdateMultiplier()
		return
	}
	b.pendingBand = append(b.pendingBand, bandChange{at: at, multiplier: multiplier})
	b.QueueUpdateTime(at, "band multiplier")
}

func (b *Base) applyBandChanges() {
	applied := 0
	for _, c := range b.pendingBand {
		if c.at > b.CurrentTime {
			break
		}
		b.bandMultiplier = c.multiplier
		applied++
	}
	if applied > 0 {
		b.pendingBand = b.pendingBand[applied:]
		b.UpdateMultiplier()
	}
}

func (b *Base) sustainPoints(from, to uint32, multiplier int) int {
	if to <= from {
		return 0
	}
	return int(uint64(to-from) * SustainPointsPerBeat * uint64(multiplier) / uint64(b.Sync.Resolution))
}

func (b *Base) StartSustain(n *game.Note, index int) {
	b.ActiveSustains = append(b.ActiveSustains, &ActiveSustain{Note: n, NoteIndex: index, BaseTick: n.Tick})
	b.emit(Event{Kind: SustainStart, NoteIndex: index, Note: n})
}

func (b *Base) sustainTick(s *ActiveSustain, tick uint32) uint32 {
	if end := s.Note.TickEnd(); tick > end {
		return end
	}
	return tick
}

func (b *Base) commitSustain(s *ActiveSustain, tick uint32, multiplier int, factor int) {
	to := b.sustainTick(s, tick)
	points := b.sustainPoints(s.BaseTick, to, multiplier)
	base := b.sustainPoints(s.BaseTick, to, multiplier/factor)
	s.Committed += points
	b.stats.CommittedScore += points
	b.stats.SustainScore += points
	b.stats.StarPowerScore += points - base
	if to > s.BaseTick {
		s.BaseTick = to
	}
}

// RebaseSustains commits every active sustain at the current multiplier.
func (b *Base) RebaseSustains(tick uint32) {
	for _, s := range b.ActiveSustains {
		b.commitSustain(s, tick, b.stats.ScoreMultiplier, b.factor)
	}
}

// EndSustain commits and removes active sustain i.
func (b *Base) EndSustain(i int) {
	s := b.ActiveSustains[i]
	b.commitSustain(s, b.CurrentTick, b.stats.ScoreMultiplier, b.factor)
	b.ActiveSustains = append(b.ActiveSustains[:i], b.ActiveSustains[i+1:]...)
	finished := b.CurrentTick >= s.Note.TickEnd()
	b.logger.Debug("ended sustain", zap.Uint32("end", s.Note.TickEnd()),
		zap.Uint32("tick", b.CurrentTick), zap.Bool("finished", finished))
	b.emit(Event{Kind: SustainEnd, NoteIndex: s.NoteIndex, Note: s.Note, Finished: finished})
}

// BreakSustains ends every active sustain at the current tick.
func (b *Base) BreakSustains() {
	for len(b.ActiveSustains) > 0 {
		b.EndSustain(0)
	}
}

func (b *Base) updateSustains() {
	pending := 0
	for i := 0; i < len(b.ActiveSustains); i++ {
		s := b.ActiveSustains[i]
		if b.CurrentTick >= s.Note.TickEnd() || !b.CanSustainHold(s.Note) {
			b.EndSustain(i)
			i--
			continue
		}
		pending += b.sustainPoints(s.BaseTick, b.CurrentTick, b.stats.ScoreMultiplier)
	}
	b.stats.PendingScore = pending
}

func (b *Base) CanSustainHold(n *game.Note) bool {
	return b.IsBot || b.rules.SustainHeld(n)
}

// IsStarPowerNote reports if note i is in a phrase that was not stripped.
func (b *Base) IsStarPowerNote(i int) bool {
	p := b.phraseOf[i]
	return p >= 0 && !b.strippedPhrase[p]
}

// StripStarPower forfeits the phrase note i belongs to.
func (b *Base) StripStarPower(i int) {
	if i < 0 || i >= len(b.phraseOf) {
		return
	}
	p := b.phraseOf[i]
	if p < 0 || b.strippedPhrase[p] {
		return
	}
	b.strippedPhrase[p] = true
	b.stats.StarPowerPhrasesMissed++
}

func (b *Base) starPowerBar() uint32 {
	return b.Sync.Beats(StarPowerBarBeats)
}

func (b *Base) AwardStarPower(ticks uint32) {
	amount := b.stats.StarPowerTickAmount + ticks
	if bar := b.starPowerBar(); amount > bar {
		ticks -= amount - bar
		amount = bar
	}
	b.stats.StarPowerTickAmount = amount
	b.stats.TotalStarPowerTicks += ticks
}

func (b *Base) isWhammyGaining() bool {
	if !b.StarPowerWhammyTimer.IsActive() {
		return false
	}
	for _, s := range b.ActiveSustains {
		if b.IsStarPowerNote(s.NoteIndex) {
			return true
		}
	}
	return false
}

// accrueStarPower applies the state held during (previous, current] to the
// star power bar. State only changes at processed instants, so the sums do not
// depend on the step size.
func (b *Base) accrueStarPower(dt time.Duration, dticks uint32) {
	gaining := b.isWhammyGaining()
	if !b.stats.IsStarPowerActive {
		if gaining {
			before := b.stats.StarPowerTickAmount
			b.AwardStarPower(dticks)
			b.whammyTicks += b.stats.StarPowerTickAmount - before
		}
		return
	}
	b.stats.TimeInStarPower += dt
	if gaining {
		// whammy gain cancels the drain
		b.whammyTicks += dticks
		b.stats.TotalStarPowerTicks += dticks
		return
	}
	if dticks >= b.stats.StarPowerTickAmount {
		b.stats.StarPowerTickAmount = 0
	} else {
		b.stats.StarPowerTickAmount -= dticks
	}
}

// NextSyncPoint is the earliest instant at which the engine may change its
// star power status: the next queued input, the bar running out, or whammy
// gain stopping. Bands advance their members in lockstep over these.
func (b *Base) NextSyncPoint() (time.Duration, bool) {
	next, ok := time.Duration(0), false
	consider := func(t time.Duration) {
		if t < b.CurrentTime {
			t = b.CurrentTime
		}
		if !ok || t < next {
			next, ok = t, true
		}
	}
	if len(b.inputs) > 0 {
		consider(b.inputs[0].Time)
	}
	if b.stats.IsStarPowerActive {
		if !b.isWhammyGaining() {
			consider(b.Sync.TickToTime(b.CurrentTick + b.stats.StarPowerTickAmount))
		} else {
			consider(b.StarPowerWhammyTimer.EndTime())
			for _, s := range b.ActiveSustains {
				consider(b.Sync.TickToTime(s.Note.TickEnd()))
			}
		}
	}
	return next, ok
}

func (b *Base) ActivateStarPower() {
	if b.stats.IsStarPowerActive || b.stats.StarPowerTickAmount < b.Sync.Beats(StarPowerActivationBeats) {
		return
	}
	b.stats.IsStarPowerActive = true
	b.stats.StarPowerActivationCount++
	b.logger.Debug("star power activated", zap.Duration("time", b.CurrentTime))
	// the band counts this activation before anyone recomputes a multiplier
	b.emit(Event{Kind: StarPowerStatus, Active: true})
	b.UpdateMultiplier()
}

func (b *Base) deactivateStarPower() {
	b.stats.IsStarPowerActive = false
	b.logger.Debug("star power ended", zap.Duration("time", b.CurrentTime))
	b.emit(Event{Kind: StarPowerStatus, Active: false})
	b.UpdateMultiplier()
}

func (b *Base) startSolo() {
	if b.soloActive || b.soloIndex >= len(b.Solos) {
		return
	}
	b.soloActive = true
	b.emit(Event{Kind: SoloStart, Solo: b.Solos[b.soloIndex]})
}

func (b *Base) endSolo() {
	if !b.soloActive {
		return
	}
	solo := b.Solos[b.soloIndex]
	bonus := solo.finish()
	b.stats.SoloBonuses += bonus
	b.stats.CommittedScore += bonus
	b.soloActive = false
	b.soloIndex++
	b.emit(Event{Kind: SoloEnd, Solo: solo})
}

func (b *Base) IsSoloActive() bool { return b.soloActive }

// CurrentSolo is the open solo, or nil.
func (b *Base) CurrentSolo() *SoloSection {
	if !b.soloActive {
		return nil
	}
	return b.Solos[b.soloIndex]
}

// IsCodaActive reports if free-form coda input is being collected.
func (b *Base) IsCodaActive() bool {
	return b.Coda != nil && !b.codaEnded && b.Coda.IsActive(b.CurrentTime)
}

// HitCodaLane collects the coda bonus of a lane at the current time.
func (b *Base) HitCodaLane(lane int) {
	if !b.IsCodaActive() {
		return
	}
	b.Coda.HitLane(b.CurrentTime, lane)
}

func (b *Base) checkCoda() {
	if b.Coda == nil || b.codaEnded {
		return
	}
	if !b.codaStarted && b.CurrentTime >= b.Coda.StartTime {
		b.codaStarted = true
		b.emit(Event{Kind: CodaStart, Coda: b.Coda})
	}
	if b.codaClosingIndex < 0 && b.CurrentTime >= b.Coda.EndTime {
		b.endCoda()
	}
}

func (b *Base) endCoda() {
	if b.Coda == nil || b.codaEnded {
		return
	}
	b.codaStarted = true
	b.codaEnded = true
	b.logger.Debug("coda ended", zap.Bool("success", b.Coda.Success), zap.Int("bonus", b.Coda.TotalBonus))
	b.emit(Event{Kind: CodaEnd, Coda: b.Coda})
	if !b.bandManaged {
		b.AwardCodaBonus()
	}
}

// AwardCodaBonus pays out a successful coda once.
func (b *Base) AwardCodaBonus() {
	if b.Coda == nil || !b.codaEnded || !b.Coda.Success || b.codaAwarded {
		return
	}
	b.codaAwarded = true
	b.stats.CodaBonus = b.Coda.TotalBonus
	b.stats.CommittedScore += b.Coda.TotalBonus
}

// Emit lets instruments publish their own events with the engine's id and time.
func (b *Base) Emit(kind EventKind, noteIndex int) {
	e := Event{Kind: kind, NoteIndex: noteIndex}
	if noteIndex >= 0 && noteIndex < len(b.Notes) {
		e.Note = b.Notes[noteIndex]
	}
	b.emit(e)
}
