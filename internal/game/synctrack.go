package game

import (
	"sort"
	"time"
)

// Tempo is a tempo change at a chart tick. BeatLength is the duration of one
// beat (a quarter note) from this tick on.
type Tempo struct {
	Tick       uint32        `json:"tick"`
	BeatLength time.Duration `json:"beatLength"`

	// Filled in by NewSyncTrack
	Time time.Duration `json:"-"`
}

// BPM builds a Tempo from beats per minute.
func BPM(tick uint32, bpm float64) Tempo {
	return Tempo{Tick: tick, BeatLength: time.Duration(float64(time.Minute) / bpm)}
}

// SyncTrack converts between chart ticks and song time.
type SyncTrack struct {
	Resolution uint32  `json:"resolution"` // ticks per beat
	Tempos     []Tempo `json:"tempos"`
}

// NewSyncTrack sorts the tempo changes and anchors each one to its time.
// A chart without a tempo at tick 0 starts at 120 BPM.
func NewSyncTrack(resolution uint32, tempos ...Tempo) *SyncTrack {
	ts := append([]Tempo(nil), tempos...)
	sort.SliceStable(ts, func(i, j int) bool { return ts[i].Tick < ts[j].Tick })
	if len(ts) == 0 || ts[0].Tick != 0 {
		ts = append([]Tempo{BPM(0, 120)}, ts...)
	}

	s := &SyncTrack{Resolution: resolution, Tempos: ts}
	s.Tempos[0].Time = 0
	for i := 1; i < len(s.Tempos); i++ {
		prev := s.Tempos[i-1]
		s.Tempos[i].Time = prev.Time + s.span(prev, s.Tempos[i].Tick-prev.Tick)
	}
	return s
}

// span is the duration of delta ticks at the given tempo, rounded up so that
// TimeToTick(TickToTime(t)) == t.
func (s *SyncTrack) span(tempo Tempo, delta uint32) time.Duration {
	num := int64(delta) * int64(tempo.BeatLength)
	res := int64(s.Resolution)
	return time.Duration((num + res - 1) / res)
}

func (s *SyncTrack) tempoAtTick(tick uint32) Tempo {
	i := sort.Search(len(s.Tempos), func(i int) bool { return s.Tempos[i].Tick > tick })
	if i == 0 {
		return s.Tempos[0]
	}
	return s.Tempos[i-1]
}

func (s *SyncTrack) tempoAtTime(t time.Duration) Tempo {
	i := sort.Search(len(s.Tempos), func(i int) bool { return s.Tempos[i].Time > t })
	if i == 0 {
		return s.Tempos[0]
	}
	return s.Tempos[i-1]
}

func (s *SyncTrack) TickToTime(tick uint32) time.Duration {
	tempo := s.tempoAtTick(tick)
	return tempo.Time + s.span(tempo, tick-tempo.Tick)
}

// TimeToTick floors. Times before the start of the song are tick 0.
func (s *SyncTrack) TimeToTick(t time.Duration) uint32 {
	if t <= 0 {
		return 0
	}
	tempo := s.tempoAtTime(t)
	elapsed := int64(t - tempo.Time)
	return tempo.Tick + uint32(elapsed*int64(s.Resolution)/int64(tempo.BeatLength))
}

// Beats converts a beat count into ticks.
func (s *SyncTrack) Beats(n uint32) uint32 {
	return n * s.Resolution
}
