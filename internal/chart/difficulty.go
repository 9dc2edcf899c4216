package chart

import "sort"

type PhraseType uint8

const (
	StarPowerPhrase PhraseType = iota
	SoloPhrase
	DrumFillPhrase
	BigRockEndingPhrase
	LyricPhrase
)

type Phrase struct {
	Type       PhraseType
	Time       float64
	TimeLength float64
	Tick       uint32
	TickLength uint32
}

func (p *Phrase) TickEnd() uint32  { return p.Tick + p.TickLength }
func (p *Phrase) TimeEnd() float64 { return p.Time + p.TimeLength }

type TextEvent struct {
	Text string
	Time float64
	Tick uint32
}

// RangeShift moves the visible pro keys range so it starts at Key and spans Size keys.
type RangeShift struct {
	Time float64
	Tick uint32
	Key  int
	Size int
}

// InstrumentDifficulty is the note timeline of one instrument at one difficulty.
type InstrumentDifficulty struct {
	Kind        Kind
	Notes       []Note
	Phrases     []Phrase
	TextEvents  []TextEvent
	RangeShifts []RangeShift
}

func NewInstrumentDifficulty(kind Kind) *InstrumentDifficulty {
	return &InstrumentDifficulty{Kind: kind}
}

// AddNote inserts a note in tick order. A non-vocal note landing on the tick
// of an existing note becomes a child of it.
func (d *InstrumentDifficulty) AddNote(n Note) {
	n.Kind = d.Kind
	i := sort.Search(len(d.Notes), func(i int) bool { return d.Notes[i].Tick >= n.Tick })
	if d.Kind != Vocals && i < len(d.Notes) && d.Notes[i].Tick == n.Tick {
		n.Children = nil
		d.Notes[i].Children = append(d.Notes[i].Children, n)
		return
	}
	d.Notes = append(d.Notes, Note{})
	copy(d.Notes[i+1:], d.Notes[i:])
	d.Notes[i] = n
}

// Link assigns the Previous, Next and Parent indices, marks chords, copies
// section flags onto children and records the result as the authored state.
// It must be called after any change to Notes.
func (d *InstrumentDifficulty) Link() {
	for i := range d.Notes {
		n := &d.Notes[i]
		n.Parent = None
		n.Previous = i - 1
		n.Next = i + 1
		if n.Next == len(d.Notes) {
			n.Next = None
		}
		if d.Kind != Vocals {
			if len(n.Children) > 0 {
				n.Flags |= Chord
			} else {
				n.Flags &^= Chord
			}
		}
		linkChildren(n, i, d.Kind)
		n.snapshotFlags()
	}
}

func linkChildren(n *Note, index int, kind Kind) {
	for j := range n.Children {
		c := &n.Children[j]
		c.Kind = kind
		c.Parent = index
		c.Previous = n.Previous
		c.Next = n.Next
		c.Flags = c.Flags&^inheritedFlags | n.Flags&inheritedFlags
		if kind != Vocals {
			c.Flags = c.Flags&^Chord | n.Flags&Chord
		}
		if kind == Vocals {
			linkChildren(c, index, kind)
		}
	}
}

// ApplyPhrases flags every note lying inside a star power or solo phrase,
// marking the first and last note of each phrase as its start and end. Drum
// fills mark their final note as a star power activator.
func (d *InstrumentDifficulty) ApplyPhrases() {
	for i := range d.Notes {
		d.Notes[i].Flags &^= inheritedFlags
	}
	for _, p := range d.Phrases {
		r := tickRange{start: p.Tick, end: p.TickEnd()}
		switch p.Type {
		case StarPowerPhrase:
			d.flagSection(r, false, StarPower, StarPowerStart, StarPowerEnd)
		case SoloPhrase:
			d.flagSection(r, false, Solo, SoloStart, SoloEnd)
		case DrumFillPhrase:
			// The last note of a fill activates star power on drums.
			d.flagSection(r, true, 0, 0, StarPowerActivator)
		}
	}
	d.Link()
}

type tickRange struct {
	start, end uint32
}

func (r tickRange) contains(tick uint32, inclusiveEnd bool) bool {
	if inclusiveEnd {
		return tick >= r.start && tick <= r.end
	}
	return tick >= r.start && (tick < r.end || r.start == r.end)
}

// sectionsOf rebuilds the tick ranges of a flagged section type from note flags.
func (d *InstrumentDifficulty) sectionsOf(flag, start, end Flags) []tickRange {
	var out []tickRange
	var cur tickRange
	open := false
	for i := range d.Notes {
		n := &d.Notes[i]
		if n.Flags&(flag|start|end) == 0 {
			if open {
				out = append(out, cur)
				open = false
			}
			continue
		}
		if !open || n.Flags&start != 0 {
			if open {
				out = append(out, cur)
			}
			cur = tickRange{start: n.Tick}
			open = true
		}
		cur.end = n.Tick
		if n.Flags&end != 0 {
			out = append(out, cur)
			open = false
		}
	}
	if open {
		out = append(out, cur)
	}
	return out
}

// flagSection sets flag on the parent notes in r, and start/end on the first
// and last of them.
func (d *InstrumentDifficulty) flagSection(r tickRange, inclusiveEnd bool, flag, start, end Flags) {
	first, last := None, None
	for i := range d.Notes {
		if !r.contains(d.Notes[i].Tick, inclusiveEnd) {
			continue
		}
		if first == None {
			first = i
		}
		last = i
		d.Notes[i].Flags |= flag
	}
	if first == None {
		return
	}
	d.Notes[first].Flags |= start
	d.Notes[last].Flags |= end
}

// ResetNoteState clears the hit state of every note.
func (d *InstrumentDifficulty) ResetNoteState() {
	for i := range d.Notes {
		d.Notes[i].ResetState()
	}
}

// Clone deep copies the difficulty so an engine may own and mutate its notes.
func (d *InstrumentDifficulty) Clone() *InstrumentDifficulty {
	c := &InstrumentDifficulty{
		Kind:        d.Kind,
		Notes:       make([]Note, len(d.Notes)),
		Phrases:     append([]Phrase{}, d.Phrases...),
		TextEvents:  append([]TextEvent{}, d.TextEvents...),
		RangeShifts: append([]RangeShift{}, d.RangeShifts...),
	}
	for i := range d.Notes {
		c.Notes[i] = d.Notes[i].Clone()
	}
	return c
}

// RangeShiftAt returns the pro keys range shift in effect at the given tick.
func (d *InstrumentDifficulty) RangeShiftAt(tick uint32) (RangeShift, bool) {
	i := sort.Search(len(d.RangeShifts), func(i int) bool { return d.RangeShifts[i].Tick > tick })
	if i == 0 {
		return RangeShift{}, false
	}
	return d.RangeShifts[i-1], true
}

func (d *InstrumentDifficulty) TotalNotes() int {
	total := 0
	for i := range d.Notes {
		total += d.Notes[i].ChordLen()
	}
	return total
}

func (d *InstrumentDifficulty) FirstTime() float64 {
	if len(d.Notes) == 0 {
		return 0
	}
	return d.Notes[0].Time
}

// EndTime is the latest time any note, sustain or phrase ends.
func (d *InstrumentDifficulty) EndTime() float64 {
	end := 0.0
	for i := range d.Notes {
		n := &d.Notes[i]
		for j := 0; j < n.ChordLen(); j++ {
			if t := n.ChordNote(j).TotalTimeEnd(); t > end {
				end = t
			}
		}
	}
	for i := range d.Phrases {
		if t := d.Phrases[i].TimeEnd(); t > end {
			end = t
		}
	}
	return end
}

// TotalTimeEnd is the end of the note including any vocal slide children.
func (n *Note) TotalTimeEnd() float64 {
	end := n.TimeEnd()
	if n.Kind == Vocals {
		for i := range n.Children {
			if t := n.Children[i].TotalTimeEnd(); t > end {
				end = t
			}
		}
	}
	return end
}

// TotalTickEnd is the tick counterpart of TotalTimeEnd.
func (n *Note) TotalTickEnd() uint32 {
	end := n.TickEnd()
	if n.Kind == Vocals {
		for i := range n.Children {
			if t := n.Children[i].TotalTickEnd(); t > end {
				end = t
			}
		}
	}
	return end
}
