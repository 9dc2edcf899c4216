package chart

// Kind selects which payload fields of a Note are meaningful.
type Kind uint8

const (
	Guitar Kind = iota
	Drums
	Vocals
	ProKeys
)

func (k Kind) String() string {
	switch k {
	case Guitar:
		return "guitar"
	case Drums:
		return "drums"
	case Vocals:
		return "vocals"
	case ProKeys:
		return "prokeys"
	}
	return "unknown"
}

type Flags uint16

const (
	Chord Flags = 1 << iota
	ExtendedSustain
	Disjoint
	StarPower
	StarPowerStart
	StarPowerEnd
	StarPowerActivator
	Solo
	SoloStart
	SoloEnd
	Glissando
)

// Flags copied from a parent onto its children when a difficulty is linked.
const inheritedFlags = StarPower | StarPowerStart | StarPowerEnd | Solo | SoloStart | SoloEnd

// None is the index used for missing links.
const None = -1

// Note is a single playable note of any instrument. Chords are stored as a
// parent with its Children; Previous, Next and Parent are indices into the
// Notes of the owning InstrumentDifficulty.
type Note struct {
	Kind Kind

	// Lane is the fret (0 = open), drum pad or key of the note.
	Lane int
	// Type is the guitar note type, drum dynamics or vocal note type.
	Type uint8
	// Pitch is the MIDI pitch of a vocal note, negative when unpitched.
	Pitch       float32
	HarmonyPart int

	Flags Flags
	// authored flags, restored by ResetState
	flags Flags

	Time       float64
	TimeLength float64
	Tick       uint32
	TickLength uint32

	Parent   int
	Previous int
	Next     int
	Children []Note

	WasHit    bool
	WasMissed bool
}

func (n *Note) TimeEnd() float64 { return n.Time + n.TimeLength }
func (n *Note) TickEnd() uint32  { return n.Tick + n.TickLength }

func (n *Note) IsChord() bool              { return n.Flags&Chord != 0 }
func (n *Note) IsSustain() bool            { return n.TickLength > 0 }
func (n *Note) IsExtendedSustain() bool    { return n.Flags&ExtendedSustain != 0 }
func (n *Note) IsDisjoint() bool           { return n.Flags&Disjoint != 0 }
func (n *Note) IsStarPower() bool          { return n.Flags&StarPower != 0 }
func (n *Note) IsStarPowerStart() bool     { return n.Flags&StarPowerStart != 0 }
func (n *Note) IsStarPowerEnd() bool       { return n.Flags&StarPowerEnd != 0 }
func (n *Note) IsStarPowerActivator() bool { return n.Flags&StarPowerActivator != 0 }
func (n *Note) IsSolo() bool               { return n.Flags&Solo != 0 }
func (n *Note) IsSoloStart() bool          { return n.Flags&SoloStart != 0 }
func (n *Note) IsSoloEnd() bool            { return n.Flags&SoloEnd != 0 }
func (n *Note) IsGlissando() bool          { return n.Flags&Glissando != 0 }
func (n *Note) IsParent() bool             { return n.Parent == None }

// ChordLen is the number of notes in this chord, the parent included.
func (n *Note) ChordLen() int { return len(n.Children) + 1 }

// ChordNote returns the parent for i == 0 and child i-1 otherwise.
func (n *Note) ChordNote(i int) *Note {
	if i == 0 {
		return n
	}
	return &n.Children[i-1]
}

func (n *Note) WasFullyHit() bool {
	if !n.WasHit {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].WasHit {
			return false
		}
	}
	return true
}

func (n *Note) WasFullyMissed() bool {
	if !n.WasMissed {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].WasMissed {
			return false
		}
	}
	return true
}

func (n *Note) WasFullyHitOrMissed() bool {
	for i := 0; i < n.ChordLen(); i++ {
		c := n.ChordNote(i)
		if !c.WasHit && !c.WasMissed {
			return false
		}
	}
	return true
}

// SetHitState marks the note, and optionally its children, as hit.
func (n *Note) SetHitState(hit, children bool) {
	n.WasHit = hit
	if children {
		for i := range n.Children {
			n.Children[i].SetHitState(hit, true)
		}
	}
}

func (n *Note) SetMissState(missed, children bool) {
	n.WasMissed = missed
	if children {
		for i := range n.Children {
			n.Children[i].SetMissState(missed, true)
		}
	}
}

// ResetState clears hit state and restores the flags the note was authored with.
func (n *Note) ResetState() {
	n.WasHit = false
	n.WasMissed = false
	n.Flags = n.flags
	for i := range n.Children {
		n.Children[i].ResetState()
	}
}

// ActivateFlag sets f as if the note had been authored with it.
func (n *Note) ActivateFlag(f Flags) {
	n.Flags |= f
	n.flags |= f
}

// ResetFlags restores the authored flags without touching hit state.
func (n *Note) ResetFlags() {
	n.Flags = n.flags
	for i := range n.Children {
		n.Children[i].ResetFlags()
	}
}

// Clone returns a deep copy of the note and its children.
func (n *Note) Clone() Note {
	c := *n
	if nil != n.Children {
		c.Children = make([]Note, len(n.Children))
		for i := range n.Children {
			c.Children[i] = n.Children[i].Clone()
		}
	}
	return c
}

func (n *Note) snapshotFlags() {
	n.flags = n.Flags
	for i := range n.Children {
		n.Children[i].snapshotFlags()
	}
}
