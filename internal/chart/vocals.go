package chart

type VocalNoteType = uint8

const (
	PhraseNote VocalNoteType = iota
	LyricNote
	PercussionNote
)

func (n *Note) IsPhrase() bool     { return n.Kind == Vocals && n.Type == PhraseNote }
func (n *Note) IsPercussion() bool { return n.Kind == Vocals && n.Type == PercussionNote }
func (n *Note) IsNonPitched() bool { return n.Pitch < 0 }

// PitchAtSongTime is the target pitch of a sung note, gliding linearly from
// the end of one slide segment to the start of the next.
func (n *Note) PitchAtSongTime(time float64) float32 {
	if n.IsPhrase() {
		return -1
	}
	if time < n.TimeEnd() || len(n.Children) == 0 {
		return n.Pitch
	}

	first := n
	for i := range n.Children {
		second := &n.Children[i]
		if time >= first.Time && time < second.TimeEnd() {
			if time < first.TimeEnd() {
				return first.Pitch
			}
			if time >= second.Time {
				return second.Pitch
			}
			span := second.Time - first.TimeEnd()
			if span <= 0 {
				return second.Pitch
			}
			percent := (time - first.TimeEnd()) / span
			return first.Pitch + (second.Pitch-first.Pitch)*float32(percent)
		}
		first = second
	}
	return n.Children[len(n.Children)-1].Pitch
}

// NoteAtTick returns the sung (non percussion) note of a phrase covering
// tick, including its final tick.
func (n *Note) NoteAtTick(tick uint32) *Note {
	for i := range n.Children {
		c := &n.Children[i]
		if c.IsPercussion() {
			continue
		}
		if tick >= c.Tick && tick <= c.TotalTickEnd() {
			return c
		}
	}
	return nil
}

// PhraseTicks is the number of ticks that must be sung to fully hit a phrase.
func (n *Note) PhraseTicks() uint32 {
	var total uint32
	for i := range n.Children {
		c := &n.Children[i]
		if c.IsPercussion() {
			continue
		}
		total += c.TotalTickEnd() - c.Tick
	}
	return total
}

type Lyric struct {
	Text string
	Time float64
	Tick uint32
}

// VocalsPhrase is one lyric line. Its phrase note owns the sung and
// percussion notes of the line.
type VocalsPhrase struct {
	Note   Note
	Lyrics []Lyric
}

type VocalsPart struct {
	Name       string
	IsHarmony  bool
	Phrases    []VocalsPhrase
	TextEvents []TextEvent
}

// Difficulty lays the part out as an InstrumentDifficulty whose notes are the
// phrase notes. The result is a deep copy.
func (v *VocalsPart) Difficulty() *InstrumentDifficulty {
	d := NewInstrumentDifficulty(Vocals)
	d.TextEvents = append(d.TextEvents, v.TextEvents...)
	for i := range v.Phrases {
		p := v.Phrases[i].Note.Clone()
		p.Kind = Vocals
		p.Type = PhraseNote
		// Each star power phrase of a vocal part stands alone.
		if p.Flags&StarPower != 0 {
			p.Flags |= StarPowerStart | StarPowerEnd
		}
		d.Notes = append(d.Notes, p)
		d.Phrases = append(d.Phrases, Phrase{
			Type:       LyricPhrase,
			Time:       p.Time,
			TimeLength: p.TimeLength,
			Tick:       p.Tick,
			TickLength: p.TickLength,
		})
	}
	d.Link()
	return d
}
