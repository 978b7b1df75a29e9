package band

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"git.lost.host/meutraa/encore/internal/engine"
	"git.lost.host/meutraa/encore/internal/log"
)

var ErrDuplicateMember = errors.New("engine already in band")

// StarPowerMultiplier is what each member in star power adds to the band
// multiplier.
const StarPowerMultiplier = 2

type member struct {
	engine engine.Engine
	sub    engine.Subscription
}

// Band couples engines that play the same song together: the coda bonus is
// all or nothing and star power multiplies everyone's score.
type Band struct {
	members map[uuid.UUID]*member
	order   []uuid.UUID

	codaParticipants int
	codaSuccesses    int
	codaAwarded      bool
	starPowerCount   int
}

func New() *Band {
	return &Band{members: map[uuid.UUID]*member{}}
}

// Add registers an engine. The band takes over awarding its coda bonus.
func (b *Band) Add(e engine.Engine) error {
	id := e.ID()
	if _, ok := b.members[id]; ok {
		return fmt.Errorf("%w: %v", ErrDuplicateMember, id)
	}
	m := &member{engine: e}
	m.sub = e.Subscribe(b.onEvent)
	e.SetBandManaged(true)
	b.members[id] = m
	b.order = append(b.order, id)
	if e.Mode().CodaParticipant() {
		b.codaParticipants++
	}
	return nil
}

// Remove detaches an engine. It awards its own coda bonus again.
func (b *Band) Remove(id uuid.UUID) {
	m, ok := b.members[id]
	if !ok {
		return
	}
	m.engine.Unsubscribe(m.sub)
	m.engine.SetBandManaged(false)
	delete(b.members, id)
	b.order = lo.Without(b.order, id)
	if m.engine.Mode().CodaParticipant() {
		b.codaParticipants--
	}
}

func (b *Band) Members() []engine.Engine {
	return lo.Map(b.order, func(id uuid.UUID, _ int) engine.Engine { return b.members[id].engine })
}

func (b *Band) Member(id uuid.UUID) (engine.Engine, bool) {
	m, ok := b.members[id]
	if !ok {
		return nil, false
	}
	return m.engine, true
}

func (b *Band) Score() int {
	return lo.SumBy(b.Members(), func(e engine.Engine) int { return e.BaseStats().TotalScore() })
}

func (b *Band) StarPowerCount() int { return b.starPowerCount }

func (b *Band) Multiplier() int { return b.starPowerCount * StarPowerMultiplier }

// Update advances every member to t. Members move together through each
// instant where one of them may change its star power status, so the shared
// multiplier reaches everyone at the same song time.
func (b *Band) Update(t time.Duration) {
	prev := time.Duration(math.MinInt64)
	for {
		next, ok := time.Duration(0), false
		for _, id := range b.order {
			s, has := b.members[id].engine.NextSyncPoint()
			if !has || s <= prev || s > t {
				continue
			}
			if !ok || s < next {
				next, ok = s, true
			}
		}
		if !ok {
			break
		}
		for _, id := range b.order {
			b.members[id].engine.Update(next)
		}
		prev = next
	}
	for _, id := range b.order {
		b.members[id].engine.Update(t)
	}
}

// Reset clears the shared counters for a new playthrough.
func (b *Band) Reset() {
	b.codaSuccesses = 0
	b.codaAwarded = false
	b.starPowerCount = 0
}

func (b *Band) onEvent(e engine.Event) {
	switch e.Kind {
	case engine.CodaEnd:
		b.onCodaEnd(e)
	case engine.StarPowerStatus:
		b.onStarPowerStatus(e)
	}
}

func (b *Band) onCodaEnd(e engine.Event) {
	if e.Coda == nil || !e.Coda.Success {
		return
	}
	b.codaSuccesses++
	if b.codaSuccesses < b.codaParticipants || b.codaAwarded {
		return
	}
	b.codaAwarded = true
	log.Logger.Debug("band coda bonus awarded", zap.Int("members", len(b.order)))
	for _, id := range b.order {
		b.members[id].engine.AwardCodaBonus()
	}
}

func (b *Band) onStarPowerStatus(e engine.Event) {
	if e.Active {
		b.starPowerCount++
	} else if b.starPowerCount > 0 {
		b.starPowerCount--
	}
	multiplier := b.Multiplier()
	log.Logger.Debug("band multiplier changed",
		zap.Int("multiplier", multiplier), zap.Duration("at", e.Time), zap.Stringer("from", e.Engine))
	for _, id := range b.order {
		b.members[id].engine.UpdateBandMultiplier(multiplier, e.Time)
	}
}
