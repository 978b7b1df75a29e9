package game

import (
	"time"

	"github.com/samber/lo"
)

// CodaRegion is the Big Rock Ending of a chart.
type CodaRegion struct {
	StartTime time.Duration `json:"startTime"`
	EndTime   time.Duration `json:"endTime"`
}

// Track is the note sequence of one instrument and difficulty.
type Track struct {
	Instrument Instrument `json:"instrument"`
	Difficulty Difficulty `json:"difficulty"`
	Notes      []*Note    `json:"notes"`
}

type Chart struct {
	Name      string      `json:"name"`
	SyncTrack *SyncTrack  `json:"syncTrack"`
	Tracks    []*Track    `json:"tracks"`
	Coda      *CodaRegion `json:"coda,omitempty"`
}

func (c *Chart) Track(instrument Instrument, difficulty Difficulty) (*Track, bool) {
	return lo.Find(c.Tracks, func(t *Track) bool {
		return t.Instrument == instrument && t.Difficulty == difficulty
	})
}

// EndTime is the end of the last note or sustain on any track.
func (c *Chart) EndTime() time.Duration {
	end := time.Duration(0)
	for _, t := range c.Tracks {
		for _, n := range t.Notes {
			for _, nn := range n.AllNotes() {
				if e := nn.TimeEnd(); e > end {
					end = e
				}
			}
		}
	}
	if c.Coda != nil && c.Coda.EndTime > end {
		end = c.Coda.EndTime
	}
	return end
}

// Prepare restores what serialization drops: tempo anchors and the parent
// links of chord children.
func (c *Chart) Prepare() {
	if c.SyncTrack == nil {
		c.SyncTrack = NewSyncTrack(480)
	} else {
		c.SyncTrack = NewSyncTrack(c.SyncTrack.Resolution, c.SyncTrack.Tempos...)
	}
	for _, t := range c.Tracks {
		for _, n := range t.Notes {
			for _, child := range n.Children {
				child.Parent = n
			}
		}
	}
}

// Clone copies the notes so a simulation can mutate their state.
func (t *Track) Clone() *Track {
	return &Track{
		Instrument: t.Instrument,
		Difficulty: t.Difficulty,
		Notes:      lo.Map(t.Notes, func(n *Note, _ int) *Note { return n.Clone() }),
	}
}

// Reset clears the transient state of every note.
func (t *Track) Reset() {
	for _, n := range t.Notes {
		n.ResetState()
	}
}

// NoteCount counts chords, not their children.
func (t *Track) NoteCount() int {
	return len(t.Notes)
}
