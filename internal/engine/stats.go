package engine

import "time"

// Stats are the cumulative counters every engine keeps. Only the owning
// engine mutates them.
type Stats struct {
	CommittedScore int `json:"committedScore"`
	PendingScore   int `json:"pendingScore"`
	NoteScore      int `json:"noteScore"`
	SustainScore   int `json:"sustainScore"`
	StarPowerScore int `json:"starPowerScore"`
	SoloBonuses    int `json:"soloBonuses"`
	CodaBonus      int `json:"codaBonus"`

	Combo           int `json:"combo"`
	MaxCombo        int `json:"maxCombo"`
	ScoreMultiplier int `json:"scoreMultiplier"`

	NotesHit    int `json:"notesHit"`
	NotesMissed int `json:"notesMissed"`
	TotalNotes  int `json:"totalNotes"`

	StarPowerTickAmount      uint32        `json:"starPowerTickAmount"`
	TotalStarPowerTicks      uint32        `json:"totalStarPowerTicks"`
	TimeInStarPower          time.Duration `json:"timeInStarPower"`
	IsStarPowerActive        bool          `json:"isStarPowerActive"`
	StarPowerActivationCount int           `json:"starPowerActivationCount"`
	StarPowerPhrasesHit      int           `json:"starPowerPhrasesHit"`
	StarPowerPhrasesMissed   int           `json:"starPowerPhrasesMissed"`
	TotalStarPowerPhrases    int           `json:"totalStarPowerPhrases"`
}

func (s Stats) TotalScore() int {
	return s.CommittedScore + s.PendingScore
}

func (s Stats) Percent() float64 {
	if s.TotalNotes == 0 {
		return 1
	}
	return float64(s.NotesHit) / float64(s.TotalNotes)
}

// Snapshot is a copy of an engine's statistics: the generic counters plus
// whatever the instrument adds.
type Snapshot interface {
	BaseStats() Stats
}

func (s Stats) BaseStats() Stats { return s }
