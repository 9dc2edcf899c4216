package replay

import (
	"github.com/pkg/errors"

	"git.lost.host/meutraa/tally/internal/chart"
	"git.lost.host/meutraa/tally/internal/engine"
)

// StatsVersion is written after the mode byte of every serialized
// PlayerStats. Readers accept any version up to their own.
const StatsVersion int32 = 1

// CommonStats is the part of a player's summary every instrument has.
type CommonStats struct {
	Mode                  chart.GameMode
	PlayerName            string
	Score                 int32
	Stars                 float32
	TotalStarPowerPhrases int32
	StarPowerPhrasesHit   int32
	StarPowerActivations  int32
	AverageMultiplier     float32
	NumPauses             int32
}

// PlayerStats is the summary of one player stored in the replay header, so
// that replay lists can be shown without reading the inputs. The concrete
// type follows the game mode.
type PlayerStats interface {
	Common() *CommonStats
	encode(e *encoder)
	decode(d *decoder, version int32)
}

func (c *CommonStats) Common() *CommonStats { return c }

type GuitarStats struct {
	CommonStats
	TotalNotes  int32
	NotesHit    int32
	Overstrums  int32
	GhostInputs int32
	SoloBonuses int32
}

type DrumsStats struct {
	CommonStats
	TotalNotes  int32
	NotesHit    int32
	Overhits    int32
	SoloBonuses int32
}

type VocalsStats struct {
	CommonStats
	NumPhrases        int32
	NumPerfectPhrases int32
}

type ProKeysStats struct {
	CommonStats
	TotalNotes  int32
	NotesHit    int32
	Overhits    int32
	SoloBonuses int32
}

func newPlayerStats(mode chart.GameMode) (PlayerStats, error) {
	var s PlayerStats
	switch mode {
	case chart.FiveFretGuitar:
		s = &GuitarStats{}
	case chart.FourLaneDrums, chart.FiveLaneDrums:
		s = &DrumsStats{}
	case chart.VocalsMode:
		s = &VocalsStats{}
	case chart.ProKeysMode:
		s = &ProKeysStats{}
	default:
		return nil, errors.Wrapf(ErrCorrupted, "no stats for game mode %v", mode)
	}
	s.Common().Mode = mode
	return s, nil
}

// Summarize builds the header summary of a finished engine run.
func Summarize(name string, mode chart.GameMode, s *engine.Stats, pauses int) PlayerStats {
	common := CommonStats{
		Mode:                  mode,
		PlayerName:            name,
		Score:                 int32(s.TotalScore()),
		Stars:                 s.Stars,
		TotalStarPowerPhrases: int32(s.TotalStarPowerPhrases),
		StarPowerPhrasesHit:   int32(s.StarPowerPhrasesHit),
		StarPowerActivations:  int32(s.StarPowerActivationCount),
		AverageMultiplier:     s.AverageMultiplier(),
		NumPauses:             int32(pauses),
	}
	switch mode {
	case chart.FourLaneDrums, chart.FiveLaneDrums:
		return &DrumsStats{
			CommonStats: common,
			TotalNotes:  int32(s.TotalNotes),
			NotesHit:    int32(s.NotesHit),
			Overhits:    int32(s.Overhits),
			SoloBonuses: int32(s.SoloBonuses),
		}
	case chart.VocalsMode:
		return &VocalsStats{
			CommonStats:       common,
			NumPhrases:        int32(s.TotalNotes),
			NumPerfectPhrases: int32(s.PerfectPhrases),
		}
	case chart.ProKeysMode:
		return &ProKeysStats{
			CommonStats: common,
			TotalNotes:  int32(s.TotalNotes),
			NotesHit:    int32(s.NotesHit),
			Overhits:    int32(s.Overhits),
			SoloBonuses: int32(s.SoloBonuses),
		}
	}
	return &GuitarStats{
		CommonStats: common,
		TotalNotes:  int32(s.TotalNotes),
		NotesHit:    int32(s.NotesHit),
		Overstrums:  int32(s.Overstrums),
		GhostInputs: int32(s.GhostInputs),
		SoloBonuses: int32(s.SoloBonuses),
	}
}

func (c *CommonStats) encodeCommon(e *encoder) {
	e.u8(uint8(c.Mode))
	e.i32(StatsVersion)
	e.str(c.PlayerName)
	e.i32(c.Score)
	e.f32(c.Stars)
	e.i32(c.TotalStarPowerPhrases)
	e.i32(c.StarPowerPhrasesHit)
	e.i32(c.StarPowerActivations)
	e.f32(c.AverageMultiplier)
	e.i32(c.NumPauses)
}

// decodeCommon reads everything after the mode byte and version.
func (c *CommonStats) decodeCommon(d *decoder) {
	c.PlayerName = d.str()
	c.Score = d.i32()
	c.Stars = d.f32()
	c.TotalStarPowerPhrases = d.i32()
	c.StarPowerPhrasesHit = d.i32()
	c.StarPowerActivations = d.i32()
	c.AverageMultiplier = d.f32()
	c.NumPauses = d.i32()
}

func (s *GuitarStats) encode(e *encoder) {
	s.encodeCommon(e)
	e.i32(s.TotalNotes)
	e.i32(s.NotesHit)
	e.i32(s.Overstrums)
	e.i32(s.GhostInputs)
	e.i32(s.SoloBonuses)
}

func (s *GuitarStats) decode(d *decoder, version int32) {
	s.decodeCommon(d)
	s.TotalNotes = d.i32()
	s.NotesHit = d.i32()
	s.Overstrums = d.i32()
	s.GhostInputs = d.i32()
	s.SoloBonuses = d.i32()
}

func (s *DrumsStats) encode(e *encoder) {
	s.encodeCommon(e)
	e.i32(s.TotalNotes)
	e.i32(s.NotesHit)
	e.i32(s.Overhits)
	e.i32(s.SoloBonuses)
}

func (s *DrumsStats) decode(d *decoder, version int32) {
	s.decodeCommon(d)
	s.TotalNotes = d.i32()
	s.NotesHit = d.i32()
	s.Overhits = d.i32()
	s.SoloBonuses = d.i32()
}

func (s *VocalsStats) encode(e *encoder) {
	s.encodeCommon(e)
	e.i32(s.NumPhrases)
	e.i32(s.NumPerfectPhrases)
}

func (s *VocalsStats) decode(d *decoder, version int32) {
	s.decodeCommon(d)
	s.NumPhrases = d.i32()
	s.NumPerfectPhrases = d.i32()
}

func (s *ProKeysStats) encode(e *encoder) {
	s.encodeCommon(e)
	e.i32(s.TotalNotes)
	e.i32(s.NotesHit)
	e.i32(s.Overhits)
	e.i32(s.SoloBonuses)
}

func (s *ProKeysStats) decode(d *decoder, version int32) {
	s.decodeCommon(d)
	s.TotalNotes = d.i32()
	s.NotesHit = d.i32()
	s.Overhits = d.i32()
	s.SoloBonuses = d.i32()
}

func readPlayerStats(d *decoder) (PlayerStats, error) {
	mode := chart.GameMode(d.u8())
	version := d.i32()
	if nil != d.err {
		return nil, d.err
	}
	if version < 1 || version > StatsVersion {
		return nil, errors.Wrapf(ErrInvalidVersion, "stats version %d", version)
	}
	s, err := newPlayerStats(mode)
	if nil != err {
		return nil, err
	}
	s.decode(d, version)
	if nil != d.err {
		return nil, d.err
	}
	return s, nil
}

// MarshalStats serializes a player summary: a mode byte, the stats version,
// the common fields and then the fields of the mode, all little endian.
func MarshalStats(s PlayerStats) []byte {
	var e encoder
	s.encode(&e)
	return e.buf.Bytes()
}

func UnmarshalStats(b []byte) (PlayerStats, error) {
	d := newDecoder(b)
	s, err := readPlayerStats(d)
	if nil != err {
		return nil, err
	}
	if d.r.Len() != 0 {
		return nil, errors.Wrapf(ErrCorrupted, "%d trailing bytes after stats", d.r.Len())
	}
	return s, nil
}
