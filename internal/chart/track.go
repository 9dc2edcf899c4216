package chart

import "fmt"

type Difficulty uint8

const (
	Beginner Difficulty = iota
	Easy
	Medium
	Hard
	Expert
	ExpertPlus
)

var difficultyNames = [...]string{"beginner", "easy", "medium", "hard", "expert", "expert+"}

func (d Difficulty) String() string {
	if int(d) < len(difficultyNames) {
		return difficultyNames[d]
	}
	return "unknown"
}

func ParseDifficulty(s string) (Difficulty, error) {
	for i, name := range difficultyNames {
		if name == s {
			return Difficulty(i), nil
		}
	}
	return 0, fmt.Errorf("unknown difficulty %q", s)
}

// GameMode selects the engine that scores an instrument. Its value is the
// leading byte of serialized replay stats.
type GameMode uint8

const (
	FiveFretGuitar GameMode = iota
	FourLaneDrums
	FiveLaneDrums
	VocalsMode
	ProKeysMode
)

func (m GameMode) Kind() Kind {
	switch m {
	case FourLaneDrums, FiveLaneDrums:
		return Drums
	case VocalsMode:
		return Vocals
	case ProKeysMode:
		return ProKeys
	}
	return Guitar
}

func (m GameMode) String() string {
	switch m {
	case FiveFretGuitar:
		return "guitar"
	case FourLaneDrums:
		return "four-lane-drums"
	case FiveLaneDrums:
		return "five-lane-drums"
	case VocalsMode:
		return "vocals"
	case ProKeysMode:
		return "prokeys"
	}
	return fmt.Sprintf("gamemode(%d)", uint8(m))
}

type Instrument uint8

const (
	FiveFretGuitarInstrument Instrument = iota
	FiveFretBass
	FiveFretRhythm
	FiveFretCoopGuitar
	Keys
	FourLaneDrumsInstrument
	ProDrums
	FiveLaneDrumsInstrument
	VocalsInstrument
	Harmony
	ProKeysInstrument
)

var instrumentNames = map[Instrument]string{
	FiveFretGuitarInstrument: "guitar",
	FiveFretBass:             "bass",
	FiveFretRhythm:           "rhythm",
	FiveFretCoopGuitar:       "coop",
	Keys:                     "keys",
	FourLaneDrumsInstrument:  "drums",
	ProDrums:                 "prodrums",
	FiveLaneDrumsInstrument:  "fivelane",
	VocalsInstrument:         "vocals",
	Harmony:                  "harmony",
	ProKeysInstrument:        "prokeys",
}

func (i Instrument) String() string {
	if name, ok := instrumentNames[i]; ok {
		return name
	}
	return fmt.Sprintf("instrument(%d)", uint8(i))
}

func ParseInstrument(s string) (Instrument, error) {
	for i, name := range instrumentNames {
		if name == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown instrument %q", s)
}

func (i Instrument) GameMode() GameMode {
	switch i {
	case FourLaneDrumsInstrument, ProDrums:
		return FourLaneDrums
	case FiveLaneDrumsInstrument:
		return FiveLaneDrums
	case VocalsInstrument, Harmony:
		return VocalsMode
	case ProKeysInstrument:
		return ProKeysMode
	}
	return FiveFretGuitar
}

// InstrumentTrack holds every charted difficulty of one instrument.
type InstrumentTrack struct {
	Instrument   Instrument
	Difficulties map[Difficulty]*InstrumentDifficulty
}

func NewInstrumentTrack(instrument Instrument) *InstrumentTrack {
	return &InstrumentTrack{
		Instrument:   instrument,
		Difficulties: map[Difficulty]*InstrumentDifficulty{},
	}
}

func (t *InstrumentTrack) Difficulty(d Difficulty) (*InstrumentDifficulty, bool) {
	diff, ok := t.Difficulties[d]
	return diff, ok
}

// SongChart is a fully loaded chart.
type SongChart struct {
	Name    string
	Artist  string
	Charter string

	SyncTrack *SyncTrack
	Tracks    map[Instrument]*InstrumentTrack
	Vocals    map[Instrument]*VocalsPart
}

func NewSongChart(sync *SyncTrack) *SongChart {
	return &SongChart{
		SyncTrack: sync,
		Tracks:    map[Instrument]*InstrumentTrack{},
		Vocals:    map[Instrument]*VocalsPart{},
	}
}

// Track returns the track of an instrument, creating it when absent.
func (c *SongChart) Track(instrument Instrument) *InstrumentTrack {
	t, ok := c.Tracks[instrument]
	if !ok {
		t = NewInstrumentTrack(instrument)
		c.Tracks[instrument] = t
	}
	return t
}

// Difficulty returns a private copy of the notes an engine needs for the
// instrument and difficulty. Vocal parts have the same notes on every
// difficulty.
func (c *SongChart) Difficulty(instrument Instrument, d Difficulty) (*InstrumentDifficulty, error) {
	if instrument.GameMode() == VocalsMode {
		part, ok := c.Vocals[instrument]
		if !ok {
			return nil, fmt.Errorf("chart has no %v part", instrument)
		}
		return part.Difficulty(), nil
	}
	t, ok := c.Tracks[instrument]
	if !ok {
		return nil, fmt.Errorf("chart has no %v track", instrument)
	}
	diff, ok := t.Difficulty(d)
	if !ok {
		return nil, fmt.Errorf("chart has no %v %v difficulty", d, instrument)
	}
	return diff.Clone(), nil
}

// EndTime is the latest time anything in the chart ends.
func (c *SongChart) EndTime() float64 {
	end := 0.0
	if nil != c.SyncTrack {
		end = c.SyncTrack.EndTime()
	}
	for _, t := range c.Tracks {
		for _, d := range t.Difficulties {
			if e := d.EndTime(); e > end {
				end = e
			}
		}
	}
	for _, v := range c.Vocals {
		if e := v.Difficulty().EndTime(); e > end {
			end = e
		}
	}
	return end
}
