package engine

import (
	"time"

	"github.com/google/uuid"

	"git.lost.host/meutraa/encore/internal/game"
)

type EventKind uint8

const (
	NoteHit EventKind = iota
	NoteMissed
	SustainStart
	SustainEnd
	Overstrum
	Overhit
	SoloStart
	SoloEnd
	CodaStart
	CodaEnd
	StarPowerPhraseHit
	StarPowerStatus
)

var eventNames = [...]string{
	NoteHit:            "note-hit",
	NoteMissed:         "note-missed",
	SustainStart:       "sustain-start",
	SustainEnd:         "sustain-end",
	Overstrum:          "overstrum",
	Overhit:            "overhit",
	SoloStart:          "solo-start",
	SoloEnd:            "solo-end",
	CodaStart:          "coda-start",
	CodaEnd:            "coda-end",
	StarPowerPhraseHit: "star-power-phrase-hit",
	StarPowerStatus:    "star-power-status",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "unknown"
}

// Event is what an engine tells its subscribers. Only the fields relevant to
// the kind are set.
type Event struct {
	Kind   EventKind
	Engine uuid.UUID
	Time   time.Duration

	NoteIndex int
	Note      *game.Note

	// SustainEnd: the sustain was held to its end
	Finished bool
	// StarPowerStatus: the new status
	Active bool

	Solo *SoloSection
	Coda *CodaSection
}

type Listener func(Event)

// Subscription identifies a registered listener.
type Subscription uint64

type subscriber struct {
	id Subscription
	fn Listener
}

type observers struct {
	next uint64
	subs []subscriber
}

func (o *observers) Subscribe(fn Listener) Subscription {
	o.next++
	id := Subscription(o.next)
	o.subs = append(o.subs, subscriber{id: id, fn: fn})
	return id
}

func (o *observers) Unsubscribe(id Subscription) {
	for i, s := range o.subs {
		if s.id == id {
			o.subs = append(o.subs[:i:i], o.subs[i+1:]...)
			return
		}
	}
}

// emit calls listeners in subscription order.
func (o *observers) emit(e Event) {
	for _, s := range o.subs {
		s.fn(e)
	}
}
