package parser

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"git.lost.host/meutraa/encore/internal/game"
)

// Resolution is the tick resolution of imported charts. Every common
// simfile quantization up to 192nds lands on a whole tick.
const Resolution = 192

var ErrNoNotes = errors.New("simfile has no dance-single charts")

// Simfile difficulty names. Beginner charts are skipped.
var difficultyMap = map[string]game.Difficulty{
	"easy":      game.Easy,
	"medium":    game.Medium,
	"hard":      game.Hard,
	"challenge": game.Expert,
}

// StepMania parses .sm simfiles. Each dance-single chart becomes a guitar
// track on the green to blue frets and a drums track on the four pads.
// Holds and rolls become sustains on guitar.
type StepMania struct{}

type section struct {
	difficulty game.Difficulty
	notes      string
}

type hold struct {
	note *game.Note
	tick uint32
}

// 0 – No note
// 1 – Normal note
// 2 – Hold head
// 3 – Hold/Roll tail
// 4 – Roll head
// M – Mine (or other negative note)
// K – Automatic keysound
// L – Lift note
// F – Fake note

func isNote(c byte) bool {
	return c == '1' || c == '2' || c == '4'
}

// ParseFile parses a simfile and names the chart after its #TITLE, or the
// file when there is none.
func ParseFile(path string) (*game.Chart, error) {
	f, err := os.Open(path)
	if nil != err {
		return nil, err
	}
	defer f.Close()
	chart, err := (&StepMania{}).Parse(f)
	if nil != err {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if chart.Name == "" {
		chart.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return chart, nil
}

func (p *StepMania) Parse(r io.Reader) (*game.Chart, error) {
	data, err := io.ReadAll(r)
	if nil != err {
		return nil, err
	}

	str := strings.ReplaceAll(string(data), "\r", "")
	sections := strings.Split(str, "#NOTES:")
	meta := sections[0]

	chart := &game.Chart{}
	tempos := []game.Tempo{}
	for _, mdl := range strings.Split(meta, "\n#") {
		mdl = strings.TrimPrefix(strings.TrimSpace(mdl), "#")
		if strings.HasPrefix(mdl, "TITLE:") {
			chart.Name = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(mdl, "TITLE:"), ";"))
		} else if strings.HasPrefix(mdl, "BPMS:") {
			mdl = strings.TrimPrefix(mdl, "BPMS:")
			mdl = strings.ReplaceAll(mdl, "\n", "")
			for _, bpm := range strings.Split(strings.TrimSuffix(mdl, ";"), ",") {
				if strings.TrimSpace(bpm) == "" {
					continue
				}
				tempo, err := parseBPM(bpm)
				if nil != err {
					return nil, err
				}
				tempos = append(tempos, tempo)
			}
		}
	}
	chart.SyncTrack = game.NewSyncTrack(Resolution, tempos...)

	for _, s := range sections[1:] {
		lines := strings.SplitN(s, "\n", 7)
		if len(lines) < 7 {
			return nil, errors.New("truncated #NOTES section")
		}
		if strings.TrimSuffix(strings.TrimSpace(lines[1]), ":") != "dance-single" {
			continue
		}
		name := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(lines[3]), ":"))
		difficulty, ok := difficultyMap[name]
		if !ok {
			continue
		}
		sec := section{difficulty: difficulty, notes: strings.TrimSuffix(strings.TrimSpace(lines[6]), ";")}
		guitar, drums, err := p.tracks(chart.SyncTrack, sec)
		if nil != err {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		chart.Tracks = append(chart.Tracks, guitar, drums)
	}
	if len(chart.Tracks) == 0 {
		return nil, ErrNoNotes
	}
	return chart, nil
}

// parseBPM reads one beat=bpm pair.
func parseBPM(s string) (game.Tempo, error) {
	as := strings.Split(strings.TrimSpace(s), "=")
	if len(as) != 2 {
		return game.Tempo{}, fmt.Errorf("invalid bpm %q", s)
	}
	beat, err := strconv.ParseFloat(as[0], 64)
	if nil != err {
		return game.Tempo{}, err
	}
	bpm, err := strconv.ParseFloat(as[1], 64)
	if nil != err {
		return game.Tempo{}, err
	}
	if beat < 0 || bpm <= 0 {
		return game.Tempo{}, fmt.Errorf("invalid bpm %q", s)
	}
	return game.BPM(uint32(math.Round(beat*Resolution)), bpm), nil
}

func (p *StepMania) tracks(sync *game.SyncTrack, s section) (*game.Track, *game.Track, error) {
	guitar := &game.Track{Instrument: game.Guitar, Difficulty: s.difficulty}
	drums := &game.Track{Instrument: game.Drums, Difficulty: s.difficulty}
	holds := map[int]hold{}

	for m, block := range strings.Split(s.notes, ",") {
		lines := []string{}
		for _, l := range strings.Split(block, "\n") {
			if i := strings.Index(l, "//"); i >= 0 {
				l = l[:i]
			}
			l = strings.TrimSpace(l)
			if len(l) >= 4 {
				lines = append(lines, l)
			}
		}
		if len(lines) == 0 {
			continue
		}

		// Beat count is 4 per measure
		lineCount := uint32(len(lines))
		for i, line := range lines {
			tick := uint32(m)*4*Resolution + uint32(i)*4*Resolution/lineCount
			var frets, pads []*game.Note
			for col, c := range []byte(line[:4]) {
				if c == '3' {
					h, ok := holds[col]
					if !ok {
						return nil, nil, fmt.Errorf("measure %d: hold tail without a head", m)
					}
					h.note.TickLength = tick - h.tick
					h.note.TimeLength = sync.TickToTime(tick) - h.note.Time
					delete(holds, col)
					continue
				}
				if !isNote(c) {
					continue
				}
				fret := newNote(sync, uint8(col), tick)
				frets = append(frets, fret)
				pads = append(pads, newNote(sync, uint8(col)+1, tick))
				if c == '2' || c == '4' {
					if _, ok := holds[col]; ok {
						return nil, nil, fmt.Errorf("measure %d: hold head over an unreleased hold", m)
					}
					holds[col] = hold{note: fret, tick: tick}
				}
			}
			if len(frets) > 0 {
				guitar.Notes = append(guitar.Notes, chord(frets))
				drums.Notes = append(drums.Notes, pads...)
			}
		}
	}
	if len(holds) > 0 {
		return nil, nil, fmt.Errorf("%d holds never released", len(holds))
	}
	for _, n := range guitar.Notes {
		markDisjoint(n)
	}
	return guitar, drums, nil
}

func newNote(sync *game.SyncTrack, lane uint8, tick uint32) *game.Note {
	return &game.Note{
		Lane:         lane,
		Mask:         1 << lane,
		DisjointMask: 1 << lane,
		Forcing:      game.Strum,
		Time:         sync.TickToTime(tick),
		Tick:         tick,
	}
}

// chord makes the first note the parent of the rest.
func chord(notes []*game.Note) *game.Note {
	parent := notes[0]
	for _, child := range notes[1:] {
		child.Parent = parent
		parent.Children = append(parent.Children, child)
		parent.Mask |= child.Mask
	}
	for _, child := range parent.Children {
		child.Mask = parent.Mask
	}
	return parent
}

// markDisjoint flags chords whose notes are held for different lengths.
func markDisjoint(parent *game.Note) {
	for _, child := range parent.Children {
		if child.TickLength != parent.TickLength {
			for _, n := range parent.AllNotes() {
				n.Flags |= game.FlagDisjoint
			}
			return
		}
	}
}
