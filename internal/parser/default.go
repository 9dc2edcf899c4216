package parser

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"git.lost.host/meutraa/tally/internal/chart"
)

// DefaultParser reads YAML chart documents. A document may take its tempo
// map from a standard MIDI file next to it instead of listing tempos.
type DefaultParser struct{}

type document struct {
	Name       string         `yaml:"name"`
	Artist     string         `yaml:"artist"`
	Charter    string         `yaml:"charter"`
	Resolution uint32         `yaml:"resolution"`
	Midi       string         `yaml:"midi"`
	Tempos     []tempoDoc     `yaml:"tempos"`
	Signatures []signatureDoc `yaml:"signatures"`
	Tracks     []trackDoc     `yaml:"tracks"`
	Vocals     []vocalsDoc    `yaml:"vocals"`
}

type tempoDoc struct {
	Tick uint32  `yaml:"tick"`
	BPM  float64 `yaml:"bpm"`
}

type signatureDoc struct {
	Tick        uint32 `yaml:"tick"`
	Numerator   uint32 `yaml:"numerator"`
	Denominator uint32 `yaml:"denominator"`
}

type trackDoc struct {
	Instrument  string          `yaml:"instrument"`
	Difficulty  string          `yaml:"difficulty"`
	Notes       []noteDoc       `yaml:"notes"`
	Phrases     []phraseDoc     `yaml:"phrases"`
	RangeShifts []rangeShiftDoc `yaml:"range_shifts"`
}

// Lane is the fret (0 open, 1 green to 5 orange), the drum pad (0 kick,
// 1 red to 4 green, 5 to 7 yellow, blue and green cymbals) or the zero
// based pro keys key.
type noteDoc struct {
	Tick   uint32 `yaml:"tick"`
	Length uint32 `yaml:"length"`
	Lane   int    `yaml:"lane"`
	Type   string `yaml:"type"`
}

type phraseDoc struct {
	Type   string `yaml:"type"`
	Tick   uint32 `yaml:"tick"`
	Length uint32 `yaml:"length"`
}

type rangeShiftDoc struct {
	Tick uint32 `yaml:"tick"`
	Key  int    `yaml:"key"`
	Size int    `yaml:"size"`
}

type vocalsDoc struct {
	Instrument string           `yaml:"instrument"`
	Name       string           `yaml:"name"`
	Phrases    []vocalPhraseDoc `yaml:"phrases"`
}

type vocalPhraseDoc struct {
	Tick      uint32         `yaml:"tick"`
	Length    uint32         `yaml:"length"`
	StarPower bool           `yaml:"star_power"`
	Notes     []vocalNoteDoc `yaml:"notes"`
}

// A negative pitch is an unpitched (spoken) note. Slides continue a note at
// other pitches.
type vocalNoteDoc struct {
	Tick       uint32         `yaml:"tick"`
	Length     uint32         `yaml:"length"`
	Pitch      float32        `yaml:"pitch"`
	Percussion bool           `yaml:"percussion"`
	Lyric      string         `yaml:"lyric"`
	Slides     []vocalNoteDoc `yaml:"slides"`
}

var noteTypes = map[chart.Kind]map[string]uint8{
	chart.Guitar: {"": chart.Strum, "strum": chart.Strum, "hopo": chart.Hopo, "tap": chart.Tap},
	chart.Drums:  {"": chart.Neutral, "neutral": chart.Neutral, "accent": chart.Accent, "ghost": chart.Ghost},
	// Glissando is a flag on pro keys notes rather than a type.
	chart.ProKeys: {"": 0, "glissando": 0},
}

var phraseTypes = map[string]chart.PhraseType{
	"star_power": chart.StarPowerPhrase,
	"solo":       chart.SoloPhrase,
	"drum_fill":  chart.DrumFillPhrase,
	"big_rock":   chart.BigRockEndingPhrase,
}

func (p *DefaultParser) Parse(file string) (*chart.SongChart, error) {
	data, err := os.ReadFile(file)
	if nil != err {
		return nil, errors.Wrap(err, "unable to read chart")
	}
	return p.Decode(data, filepath.Dir(file))
}

// Decode builds a chart from a document. Files the document refers to are
// looked up in dir.
func (p *DefaultParser) Decode(data []byte, dir string) (*chart.SongChart, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); nil != err {
		return nil, errors.Wrap(err, "unable to decode chart")
	}

	sync, err := p.syncTrack(&doc, dir)
	if nil != err {
		return nil, err
	}

	c := chart.NewSongChart(sync)
	c.Name, c.Artist, c.Charter = doc.Name, doc.Artist, doc.Charter

	var lastTick uint32
	for i := range doc.Tracks {
		t := &doc.Tracks[i]
		instrument, err := chart.ParseInstrument(t.Instrument)
		if nil != err {
			return nil, errors.Wrapf(err, "track %d", i)
		}
		difficulty, err := chart.ParseDifficulty(t.Difficulty)
		if nil != err {
			return nil, errors.Wrapf(err, "track %d", i)
		}
		kind := instrument.GameMode().Kind()
		if kind == chart.Vocals {
			return nil, fmt.Errorf("track %d: %w: vocals belong in the vocals section", i, chart.ErrInvalidOperation)
		}
		if _, ok := c.Track(instrument).Difficulties[difficulty]; ok {
			return nil, fmt.Errorf("track %d: %v %v is charted twice", i, difficulty, instrument)
		}

		d, err := p.difficulty(sync, kind, t)
		if nil != err {
			return nil, errors.Wrapf(err, "track %d", i)
		}
		c.Track(instrument).Difficulties[difficulty] = d
		if n := len(d.Notes); n > 0 {
			lastTick = max(lastTick, d.Notes[n-1].TotalTickEnd())
		}
	}

	for i := range doc.Vocals {
		v := &doc.Vocals[i]
		instrument, err := chart.ParseInstrument(v.Instrument)
		if nil != err {
			return nil, errors.Wrapf(err, "vocals %d", i)
		}
		if instrument.GameMode() != chart.VocalsMode {
			return nil, fmt.Errorf("vocals %d: %w: %v is not a vocal part", i, chart.ErrInvalidOperation, instrument)
		}
		part := p.vocalsPart(sync, instrument, v)
		c.Vocals[instrument] = part
		if n := len(part.Phrases); n > 0 {
			lastTick = max(lastTick, part.Phrases[n-1].Note.TickEnd())
		}
	}

	sync.GenerateBeatlines(max(lastTick, sync.LastTick()))
	return c, nil
}

func (p *DefaultParser) syncTrack(doc *document, dir string) (*chart.SyncTrack, error) {
	if doc.Midi != "" {
		f, err := os.Open(filepath.Join(dir, doc.Midi))
		if nil != err {
			return nil, errors.Wrap(err, "unable to open tempo map")
		}
		defer f.Close()
		return ReadSyncTrack(f)
	}

	tempos := make([]chart.Tempo, 0, len(doc.Tempos))
	for _, t := range doc.Tempos {
		if t.BPM <= 0 {
			return nil, fmt.Errorf("tempo at tick %d must be positive, got %v", t.Tick, t.BPM)
		}
		tempos = append(tempos, chart.Tempo{Tick: t.Tick, BeatsPerMinute: t.BPM})
	}
	signatures := make([]chart.TimeSignature, 0, len(doc.Signatures))
	for _, s := range doc.Signatures {
		if s.Numerator == 0 || s.Denominator == 0 {
			return nil, fmt.Errorf("time signature at tick %d is %d/%d", s.Tick, s.Numerator, s.Denominator)
		}
		signatures = append(signatures, chart.TimeSignature{Tick: s.Tick, Numerator: s.Numerator, Denominator: s.Denominator})
	}
	return chart.NewSyncTrack(doc.Resolution, tempos, signatures), nil
}

func note(sync *chart.SyncTrack, tick, length uint32) chart.Note {
	time := sync.TickToTime(tick)
	return chart.Note{
		Tick:       tick,
		TickLength: length,
		Time:       time,
		TimeLength: sync.TickToTime(tick+length) - time,
	}
}

func (p *DefaultParser) difficulty(sync *chart.SyncTrack, kind chart.Kind, t *trackDoc) (*chart.InstrumentDifficulty, error) {
	d := chart.NewInstrumentDifficulty(kind)
	types := noteTypes[kind]

	for _, nd := range t.Notes {
		typ, ok := types[nd.Type]
		if !ok {
			return nil, fmt.Errorf("note at tick %d has unknown %v note type %q", nd.Tick, kind, nd.Type)
		}
		if err := checkLane(kind, nd.Lane); nil != err {
			return nil, fmt.Errorf("note at tick %d: %w", nd.Tick, err)
		}
		n := note(sync, nd.Tick, nd.Length)
		n.Lane = nd.Lane
		n.Type = typ
		if nd.Type == "glissando" {
			n.Flags |= chart.Glissando
		}
		d.AddNote(n)
	}

	for _, pd := range t.Phrases {
		typ, ok := phraseTypes[pd.Type]
		if !ok {
			return nil, fmt.Errorf("phrase at tick %d has unknown type %q", pd.Tick, pd.Type)
		}
		n := note(sync, pd.Tick, pd.Length)
		d.Phrases = append(d.Phrases, chart.Phrase{
			Type:       typ,
			Tick:       n.Tick,
			TickLength: n.TickLength,
			Time:       n.Time,
			TimeLength: n.TimeLength,
		})
	}

	for _, r := range t.RangeShifts {
		d.RangeShifts = append(d.RangeShifts, chart.RangeShift{
			Tick: r.Tick,
			Time: sync.TickToTime(r.Tick),
			Key:  r.Key,
			Size: r.Size,
		})
	}

	d.ApplyPhrases()
	return d, nil
}

func checkLane(kind chart.Kind, lane int) error {
	last := chart.OrangeFret
	switch kind {
	case chart.Drums:
		last = chart.GreenCymbal
	case chart.ProKeys:
		last = chart.KeyCount - 1
	}
	if lane < 0 || lane > last {
		return fmt.Errorf("lane %d is outside 0 to %d", lane, last)
	}
	return nil
}

func (p *DefaultParser) vocalsPart(sync *chart.SyncTrack, instrument chart.Instrument, v *vocalsDoc) *chart.VocalsPart {
	part := &chart.VocalsPart{Name: v.Name, IsHarmony: instrument == chart.Harmony}
	for _, pd := range v.Phrases {
		phrase := chart.VocalsPhrase{Note: note(sync, pd.Tick, pd.Length)}
		phrase.Note.Kind = chart.Vocals
		phrase.Note.Type = chart.PhraseNote
		phrase.Note.Pitch = -1
		if pd.StarPower {
			phrase.Note.Flags |= chart.StarPower
		}
		for _, nd := range pd.Notes {
			phrase.Note.Children = append(phrase.Note.Children, vocalNote(sync, &nd))
			if nd.Lyric != "" {
				phrase.Lyrics = append(phrase.Lyrics, chart.Lyric{Text: nd.Lyric, Tick: nd.Tick, Time: sync.TickToTime(nd.Tick)})
			}
		}
		part.Phrases = append(part.Phrases, phrase)
	}
	return part
}

func vocalNote(sync *chart.SyncTrack, nd *vocalNoteDoc) chart.Note {
	n := note(sync, nd.Tick, nd.Length)
	n.Kind = chart.Vocals
	n.Pitch = nd.Pitch
	n.Type = chart.LyricNote
	if nd.Percussion {
		n.Type = chart.PercussionNote
		n.Pitch = -1
		n.TickLength, n.TimeLength = 0, 0
	}
	for i := range nd.Slides {
		n.Children = append(n.Children, vocalNote(sync, &nd.Slides[i]))
	}
	return n
}
