// Package charttest builds small charts for engine and chart tests.
package charttest

import "git.lost.host/meutraa/tally/internal/chart"

type Builder struct {
	Sync *chart.SyncTrack

	kind     chart.Kind
	notes    []chart.Note
	phrases  []chart.Phrase
	shifts   []chart.RangeShift
	lastTick uint32
}

// New starts a chart of the given kind at 480 ticks per beat and 120 BPM.
func New(kind chart.Kind) *Builder {
	return &Builder{
		kind: kind,
		Sync: chart.NewSyncTrack(chart.DefaultResolution, nil, nil),
	}
}

func (b *Builder) WithSync(sync *chart.SyncTrack) *Builder {
	b.Sync = sync
	return b
}

// Note makes a note with its times derived from the sync track.
func (b *Builder) Note(tick, length uint32, lane int, typ uint8) chart.Note {
	time := b.Sync.TickToTime(tick)
	return chart.Note{
		Kind:       b.kind,
		Lane:       lane,
		Type:       typ,
		Tick:       tick,
		TickLength: length,
		Time:       time,
		TimeLength: b.Sync.TickToTime(tick+length) - time,
	}
}

func (b *Builder) Add(tick uint32, lane int, typ uint8) *Builder {
	return b.Sustain(tick, 0, lane, typ)
}

func (b *Builder) Sustain(tick, length uint32, lane int, typ uint8) *Builder {
	b.notes = append(b.notes, b.Note(tick, length, lane, typ))
	b.lastTick = tick
	return b
}

// Flags adds flags to the most recently added note.
func (b *Builder) Flags(f chart.Flags) *Builder {
	if n := len(b.notes); n > 0 {
		b.notes[n-1].Flags |= f
	}
	return b
}

func (b *Builder) Phrase(t chart.PhraseType, tick, length uint32) *Builder {
	time := b.Sync.TickToTime(tick)
	b.phrases = append(b.phrases, chart.Phrase{
		Type:       t,
		Tick:       tick,
		TickLength: length,
		Time:       time,
		TimeLength: b.Sync.TickToTime(tick+length) - time,
	})
	return b
}

func (b *Builder) RangeShift(tick uint32, key, size int) *Builder {
	b.shifts = append(b.shifts, chart.RangeShift{Tick: tick, Time: b.Sync.TickToTime(tick), Key: key, Size: size})
	return b
}

// Lyric makes a sung vocal note for use in VocalPhrase.
func (b *Builder) Lyric(tick, length uint32, pitch float32) chart.Note {
	n := b.Note(tick, length, 0, chart.LyricNote)
	n.Pitch = pitch
	return n
}

func (b *Builder) Percussion(tick uint32) chart.Note {
	n := b.Note(tick, 0, 0, chart.PercussionNote)
	n.Pitch = -1
	return n
}

// VocalPhrase adds a phrase note owning the given vocal notes.
func (b *Builder) VocalPhrase(tick, length uint32, flags chart.Flags, notes ...chart.Note) *Builder {
	p := b.Note(tick, length, 0, chart.PhraseNote)
	p.Pitch = -1
	p.Flags = flags
	p.Children = notes
	b.notes = append(b.notes, p)
	b.lastTick = tick
	return b
}

// Build returns the linked difficulty. Phrases, when any were added, decide
// the star power and solo flags.
func (b *Builder) Build() *chart.InstrumentDifficulty {
	d := chart.NewInstrumentDifficulty(b.kind)
	for _, n := range b.notes {
		d.AddNote(n)
	}
	d.Phrases = append(d.Phrases, b.phrases...)
	d.RangeShifts = append(d.RangeShifts, b.shifts...)
	if len(b.phrases) > 0 {
		d.ApplyPhrases()
	} else {
		d.Link()
	}
	return d
}
