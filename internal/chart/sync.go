package chart

import (
	"math"
	"sort"
)

const (
	DefaultResolution     = 480
	DefaultBeatsPerMinute = 120.0
)

type Tempo struct {
	Tick           uint32
	Time           float64
	BeatsPerMinute float64
}

func (t Tempo) SecondsPerBeat() float64 {
	return 60.0 / t.BeatsPerMinute
}

type TimeSignature struct {
	Tick        uint32
	Time        float64
	Numerator   uint32
	Denominator uint32
}

type BeatlineType uint8

const (
	Measure BeatlineType = iota
	Strong
	Weak
)

type Beatline struct {
	Type BeatlineType
	Tick uint32
	Time float64
}

// SyncTrack holds the tempo map of a song. Both marker lists are sorted by
// tick and always start at tick 0.
type SyncTrack struct {
	Resolution     uint32
	Tempos         []Tempo
	TimeSignatures []TimeSignature
	Beatlines      []Beatline
}

// NewSyncTrack sorts the given markers, fills in their times, and inserts the
// implicit 120 BPM 4/4 markers at tick 0 when the chart omits them.
func NewSyncTrack(resolution uint32, tempos []Tempo, signatures []TimeSignature) *SyncTrack {
	if resolution == 0 {
		resolution = DefaultResolution
	}
	s := &SyncTrack{
		Resolution:     resolution,
		Tempos:         append([]Tempo{}, tempos...),
		TimeSignatures: append([]TimeSignature{}, signatures...),
	}

	sort.SliceStable(s.Tempos, func(i, j int) bool { return s.Tempos[i].Tick < s.Tempos[j].Tick })
	sort.SliceStable(s.TimeSignatures, func(i, j int) bool {
		return s.TimeSignatures[i].Tick < s.TimeSignatures[j].Tick
	})

	if len(s.Tempos) == 0 || s.Tempos[0].Tick != 0 {
		s.Tempos = append([]Tempo{{BeatsPerMinute: DefaultBeatsPerMinute}}, s.Tempos...)
	}
	if len(s.TimeSignatures) == 0 || s.TimeSignatures[0].Tick != 0 {
		s.TimeSignatures = append([]TimeSignature{{Numerator: 4, Denominator: 4}}, s.TimeSignatures...)
	}

	s.Tempos[0].Time = 0
	for i := 1; i < len(s.Tempos); i++ {
		prev := s.Tempos[i-1]
		s.Tempos[i].Time = prev.Time + s.TickRangeToTimeDelta(prev.Tick, s.Tempos[i].Tick, prev)
	}
	for i := range s.TimeSignatures {
		s.TimeSignatures[i].Time = s.TickToTime(s.TimeSignatures[i].Tick)
	}
	return s
}

func (s *SyncTrack) tempoAtTick(tick uint32) Tempo {
	i := sort.Search(len(s.Tempos), func(i int) bool { return s.Tempos[i].Tick > tick })
	if i == 0 {
		return Tempo{BeatsPerMinute: DefaultBeatsPerMinute}
	}
	return s.Tempos[i-1]
}

func (s *SyncTrack) tempoAtTime(time float64) Tempo {
	i := sort.Search(len(s.Tempos), func(i int) bool { return s.Tempos[i].Time > time })
	if i == 0 {
		return Tempo{BeatsPerMinute: DefaultBeatsPerMinute}
	}
	return s.Tempos[i-1]
}

// TempoAt returns the tempo in effect at the given tick.
func (s *SyncTrack) TempoAt(tick uint32) Tempo {
	return s.tempoAtTick(tick)
}

// TimeSignatureAt returns the time signature in effect at the given tick.
func (s *SyncTrack) TimeSignatureAt(tick uint32) TimeSignature {
	i := sort.Search(len(s.TimeSignatures), func(i int) bool { return s.TimeSignatures[i].Tick > tick })
	if i == 0 {
		return TimeSignature{Numerator: 4, Denominator: 4}
	}
	return s.TimeSignatures[i-1]
}

func (s *SyncTrack) TickToTime(tick uint32) float64 {
	tempo := s.tempoAtTick(tick)
	return tempo.Time + s.TickRangeToTimeDelta(tempo.Tick, tick, tempo)
}

func (s *SyncTrack) TimeToTick(time float64) uint32 {
	if time < 0 {
		return 0
	}
	tempo := s.tempoAtTime(time)
	return tempo.Tick + s.TimeRangeToTickDelta(tempo.Time, time, tempo)
}

// TickRangeToTimeDelta converts a tick span lying within a single tempo into seconds.
func (s *SyncTrack) TickRangeToTimeDelta(start, end uint32, tempo Tempo) float64 {
	if end < start {
		return 0
	}
	beats := float64(end-start) / float64(s.Resolution)
	return beats * 60.0 / tempo.BeatsPerMinute
}

// TimeRangeToTickDelta converts a time span lying within a single tempo into
// ticks. Partial ticks are truncated after rounding away float noise at 8
// decimal places, so TimeToTick(TickToTime(t)) == t.
func (s *SyncTrack) TimeRangeToTickDelta(start, end float64, tempo Tempo) uint32 {
	if end < start {
		return 0
	}
	beats := (end - start) * tempo.BeatsPerMinute / 60.0
	ticks := math.Round(beats*float64(s.Resolution)*1e8) / 1e8
	return uint32(ticks)
}

func (s *SyncTrack) LastTick() uint32 {
	var last uint32
	if n := len(s.Tempos); n > 0 {
		last = s.Tempos[n-1].Tick
	}
	if n := len(s.TimeSignatures); n > 0 && s.TimeSignatures[n-1].Tick > last {
		last = s.TimeSignatures[n-1].Tick
	}
	return last
}

func (s *SyncTrack) EndTime() float64 {
	return s.TickToTime(s.LastTick())
}

// GenerateBeatlines fills Beatlines with one line per time signature beat up
// to and including lastTick.
func (s *SyncTrack) GenerateBeatlines(lastTick uint32) {
	s.Beatlines = s.Beatlines[:0]
	for i, sig := range s.TimeSignatures {
		end := lastTick
		if i+1 < len(s.TimeSignatures) {
			if s.TimeSignatures[i+1].Tick <= sig.Tick {
				continue
			}
			end = s.TimeSignatures[i+1].Tick - 1
		}
		s.generateBeats(sig, end)
	}
}

func (s *SyncTrack) generateBeats(sig TimeSignature, end uint32) {
	if sig.Denominator == 0 || sig.Numerator == 0 {
		return
	}
	rate := s.Resolution * 4 / sig.Denominator
	if rate == 0 {
		return
	}
	var count uint32
	for tick := sig.Tick; tick <= end; tick += rate {
		s.Beatlines = append(s.Beatlines, Beatline{
			Type: beatlineType(sig, count),
			Tick: tick,
			Time: s.TickToTime(tick),
		})
		count++
	}
}

// Measures returns the measure lines from start up to and including end.
func (s *SyncTrack) Measures(start, end uint32) []Beatline {
	var out []Beatline
	for i, sig := range s.TimeSignatures {
		last := end
		if i+1 < len(s.TimeSignatures) {
			next := s.TimeSignatures[i+1].Tick
			if next <= sig.Tick {
				continue
			}
			last = min(end, next-1)
		}
		if sig.Denominator == 0 {
			continue
		}
		length := s.Resolution * 4 / sig.Denominator * sig.Numerator
		if length == 0 || last < sig.Tick {
			continue
		}

		tick := sig.Tick
		if start > tick {
			tick += (start - tick + length - 1) / length * length
		}
		for ; tick <= last; tick += length {
			out = append(out, Beatline{Type: Measure, Tick: tick, Time: s.TickToTime(tick)})
		}
	}
	return out
}

func beatlineType(sig TimeSignature, count uint32) BeatlineType {
	const strongStep = 4
	strongRate := uint32(1)
	if sig.Denominator > strongStep {
		strongRate = sig.Denominator / strongStep
	}

	if sig.Numerator == 1 {
		if count < 1 {
			return Measure
		}
		if count%strongRate == 0 {
			return Strong
		}
		return Weak
	}

	beat := count % sig.Numerator
	if beat == 0 {
		return Measure
	}
	if sig.Denominator <= strongStep {
		return Strong
	}
	if beat%strongRate == 0 && beat != sig.Numerator-1 {
		return Strong
	}
	return Weak
}
