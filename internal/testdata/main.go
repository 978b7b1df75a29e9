package testdata

import (
	"sort"
	"time"

	"git.lost.host/meutraa/encore/internal/game"
)

// Resolution is the tick resolution of every fixture chart. At the default
// 120 BPM a beat is 500ms.
const Resolution = 480

const Open uint8 = 6

func Sync() *game.SyncTrack {
	return game.NewSyncTrack(Resolution, game.BPM(0, 120))
}

// Beat is the tick of a beat at the fixture resolution.
func Beat(n float64) uint32 {
	return uint32(n * Resolution)
}

func laneMask(lane uint8) uint8 {
	if lane == Open {
		return game.OpenMask
	}
	return 1 << lane
}

// Note builds a single note at a tick.
func Note(sync *game.SyncTrack, lane uint8, tick uint32, forcing game.Forcing, flags game.NoteFlags) *game.Note {
	return &game.Note{
		Lane:         lane,
		Mask:         laneMask(lane),
		DisjointMask: laneMask(lane),
		Forcing:      forcing,
		Flags:        flags,
		Time:         sync.TickToTime(tick),
		Tick:         tick,
	}
}

// Chord builds a note whose children are the remaining lanes.
func Chord(sync *game.SyncTrack, tick uint32, forcing game.Forcing, flags game.NoteFlags, lanes ...uint8) *game.Note {
	parent := Note(sync, lanes[0], tick, forcing, flags)
	for _, l := range lanes[1:] {
		child := Note(sync, l, tick, forcing, flags)
		child.Parent = parent
		parent.Children = append(parent.Children, child)
		parent.Mask |= child.Mask
	}
	for _, c := range parent.Children {
		c.Mask = parent.Mask
	}
	return parent
}

// Sustain extends a note and its children by ticks.
func Sustain(sync *game.SyncTrack, n *game.Note, ticks uint32) *game.Note {
	for _, nn := range n.AllNotes() {
		nn.TickLength = ticks
		nn.TimeLength = sync.TickToTime(nn.Tick+ticks) - nn.Time
	}
	return n
}

func Track(instrument game.Instrument, notes ...*game.Note) *game.Track {
	return &game.Track{Instrument: instrument, Difficulty: game.Expert, Notes: notes}
}

func Chart(sync *game.SyncTrack, tracks ...*game.Track) *game.Chart {
	return &game.Chart{Name: "fixture", SyncTrack: sync, Tracks: tracks}
}

// Singles builds one strum note per beat on the given lanes, starting at
// beat 1.
func Singles(sync *game.SyncTrack, lanes ...uint8) []*game.Note {
	notes := make([]*game.Note, len(lanes))
	for i, l := range lanes {
		notes[i] = Note(sync, l, Beat(float64(i+1)), game.Strum, 0)
	}
	return notes
}

func Press(a game.Action, t time.Duration) game.Input {
	return game.Input{Action: a, Time: t, Pressed: true}
}

func Release(a game.Action, t time.Duration) game.Input {
	return game.Input{Action: a, Time: t}
}

// StrumNote fingers a note's frets shortly before it, strums at offset from
// the note and lets go right after.
func StrumNote(n *game.Note, offset time.Duration) []game.Input {
	var ins []game.Input
	frets := fretsOf(n)
	for _, f := range frets {
		ins = append(ins, Press(f, n.Time-20*time.Millisecond))
	}
	at := n.Time + offset
	ins = append(ins, Press(game.StrumDown, at), Release(game.StrumDown, at+time.Millisecond))
	release := n.TimeEnd() + 5*time.Millisecond
	if release <= at+time.Millisecond {
		release = at + 2*time.Millisecond
	}
	for _, f := range frets {
		ins = append(ins, Release(f, release))
	}
	return ins
}

// HitDrum plays a note's pad at offset from the note.
func HitDrum(n *game.Note, offset time.Duration) []game.Input {
	at := n.Time + offset
	return []game.Input{Press(game.Action(n.Lane), at), Release(game.Action(n.Lane), at+10*time.Millisecond)}
}

func fretsOf(n *game.Note) []game.Action {
	var frets []game.Action
	for _, nn := range n.AllNotes() {
		if nn.Lane != Open {
			frets = append(frets, game.Action(nn.Lane))
		}
	}
	return frets
}

func GuitarProfile(name string) game.Profile {
	return game.Profile{Name: name, Mode: game.FiveFretGuitar, Instrument: game.Guitar, Difficulty: game.Expert}
}

func DrumsProfile(name string) game.Profile {
	return game.Profile{Name: name, Mode: game.FourLaneDrums, Instrument: game.Drums, Difficulty: game.Expert}
}

// Inputs merges input groups into one time ordered log.
func Inputs(groups ...[]game.Input) []game.Input {
	var all []game.Input
	for _, g := range groups {
		all = append(all, g...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Time < all[j].Time })
	return all
}
