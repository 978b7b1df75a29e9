package game

import (
	"time"
)

// Forcing decides how a fretted note may be hit.
type Forcing uint8

const (
	Strum Forcing = iota // requires a strum
	Hopo                 // fret alone while the combo is alive
	Tap                  // always fret alone
)

func (f Forcing) String() string {
	switch f {
	case Hopo:
		return "hopo"
	case Tap:
		return "tap"
	}
	return "strum"
}

// OpenMask is the reserved lane bit for open notes.
const OpenMask uint8 = 1 << 6

type NoteFlags uint16

const (
	FlagStarPower NoteFlags = 1 << iota
	FlagStarPowerStart
	FlagStarPowerEnd
	FlagSoloStart
	FlagSoloEnd
	FlagLane  // part of a tremolo/trill lane
	FlagTrill // lane alternates between two shapes
	FlagExtendedSustain
	FlagDisjoint
)

// Note is a chart fact. Everything above the state block is immutable once the
// chart collaborator built it.
type Note struct {
	Lane         uint8     `json:"lane"`         // The lane (fret or pad) of this note, 6 for open
	Mask         uint8     `json:"mask"`         // The mask of the whole chord this note belongs to
	DisjointMask uint8     `json:"disjointMask"` // The mask of this note alone
	Forcing      Forcing   `json:"forcing,omitempty"`
	Flags        NoteFlags `json:"flags,omitempty"`

	Time       time.Duration `json:"time"` // The time the note should be hit
	TimeLength time.Duration `json:"timeLength,omitempty"`
	Tick       uint32        `json:"tick"`
	TickLength uint32        `json:"tickLength,omitempty"`

	Parent   *Note   `json:"-"`
	Children []*Note `json:"children,omitempty"`

	// This is state
	WasHit    bool          `json:"-"`
	WasMissed bool          `json:"-"`
	HitTime   time.Duration `json:"-"`
}

func (n *Note) Has(f NoteFlags) bool { return n.Flags&f != 0 }

func (n *Note) IsStarPower() bool      { return n.Has(FlagStarPower) }
func (n *Note) IsStarPowerStart() bool { return n.Has(FlagStarPowerStart) }
func (n *Note) IsStarPowerEnd() bool   { return n.Has(FlagStarPowerEnd) }
func (n *Note) IsSoloStart() bool      { return n.Has(FlagSoloStart) }
func (n *Note) IsSoloEnd() bool        { return n.Has(FlagSoloEnd) }
func (n *Note) IsLane() bool           { return n.Has(FlagLane) }
func (n *Note) IsTrill() bool          { return n.Has(FlagTrill) }
func (n *Note) IsDisjoint() bool       { return n.Has(FlagDisjoint) }
func (n *Note) IsExtendedSustain() bool {
	return n.Has(FlagExtendedSustain)
}

func (n *Note) IsSustain() bool { return n.TickLength > 0 }

func (n *Note) TimeEnd() time.Duration { return n.Time + n.TimeLength }
func (n *Note) TickEnd() uint32        { return n.Tick + n.TickLength }

func (n *Note) ParentOrSelf() *Note {
	if n.Parent != nil {
		return n.Parent
	}
	return n
}

// AllNotes returns the note followed by its chord children.
func (n *Note) AllNotes() []*Note {
	all := make([]*Note, 0, 1+len(n.Children))
	all = append(all, n)
	return append(all, n.Children...)
}

// Resolved reports if the note was hit or missed.
func (n *Note) Resolved() bool { return n.WasHit || n.WasMissed }

func (n *Note) SetHit(t time.Duration) {
	for _, c := range n.AllNotes() {
		c.WasHit = true
		c.HitTime = t
	}
}

func (n *Note) SetMissed() {
	for _, c := range n.AllNotes() {
		c.WasMissed = true
	}
}

// ResetState clears the transient scoring flags of the note and its children.
func (n *Note) ResetState() {
	for _, c := range n.AllNotes() {
		c.WasHit = false
		c.WasMissed = false
		c.HitTime = 0
	}
}

// Clone deep-copies a note with its children.
func (n *Note) Clone() *Note {
	c := *n
	c.Parent = nil
	c.Children = make([]*Note, len(n.Children))
	for i, child := range n.Children {
		cc := *child
		cc.Parent = &c
		cc.Children = nil
		c.Children[i] = &cc
	}
	return &c
}
