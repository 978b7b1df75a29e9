package engine

import "time"

const (
	SoloPointsPerNote        = 100
	PerfectSoloPointsPerNote = 200
)

type SoloSection struct {
	StartTick uint32
	EndTick   uint32
	StartTime time.Duration
	EndTime   time.Duration

	NoteCount int
	NotesHit  int
	SoloBonus int
}

func (s *SoloSection) finish() int {
	switch {
	case s.NoteCount == 0 || s.NotesHit*2 < s.NoteCount:
		s.SoloBonus = 0
	case s.NotesHit >= s.NoteCount:
		s.SoloBonus = s.NotesHit * PerfectSoloPointsPerNote
	default:
		s.SoloBonus = s.NotesHit * SoloPointsPerNote
	}
	return s.SoloBonus
}
