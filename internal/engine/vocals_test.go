package engine_test

import (
	"math"
	"testing"

	"git.lost.host/meutraa/tally/internal/chart"
	"git.lost.host/meutraa/tally/internal/chart/charttest"
	"git.lost.host/meutraa/tally/internal/engine"
)

func vocalsEngine(d *chart.InstrumentDifficulty, b *charttest.Builder) *engine.VocalsEngine {
	return engine.NewVocalsEngine(d, b.Sync, engine.DefaultParameters(chart.VocalsInstrument, chart.Expert))
}

var pitchDistanceTests = map[[2]float32]float32{
	{60, 60}:   0,
	{72, 60}:   0,
	{55, 60}:   5,
	{43, 60}:   5,
	{65, 60}:   5,
	{66, 60}:   6,
	{61.5, 60}: 1.5,
	{37, 60}:   1,
}

func TestPitchDistanceFoldsOctaves(t *testing.T) {
	for pitches, expected := range pitchDistanceTests {
		if out := engine.PitchDistance(pitches[0], pitches[1]); out != expected {
			t.Log("sung    ", pitches[0], "expected pitch", pitches[1])
			t.Log("out     ", out)
			t.Log("expected", expected)
			t.Fail()
		}
	}
}

// sing samples a constant pitch at 20 Hz from start to end.
func sing(start, end float64, pitch float32) []engine.GameInput {
	var inputs []engine.GameInput
	for k := 0; ; k++ {
		t := start + float64(k)*0.05
		if t > end {
			return inputs
		}
		inputs = append(inputs, engine.AxisInput(t, engine.Pitch, pitch))
	}
}

var singTests = map[string]struct {
	pitch float32
	hit   bool
}{
	"in tune":     {60, true},
	"octave down": {48, true},
	"octave up":   {72, true},
	"off pitch":   {55, false},
}

func TestSingPhrase(t *testing.T) {
	for name, test := range singTests {
		b := charttest.New(chart.Vocals)
		d := b.VocalPhrase(0, 960, 0, b.Lyric(0, 960, 60)).Build()
		e := vocalsEngine(d, b)

		play(e, 2, sing(0, 1.1, test.pitch)...)

		phrase := &d.Notes[0]
		s := e.Stats()
		if phrase.WasHit != test.hit || phrase.WasMissed == test.hit {
			t.Log("case    ", name)
			t.Log("hit     ", phrase.WasHit)
			t.Log("expected", test.hit)
			t.Fail()
			continue
		}
		if test.hit && (s.CommittedScore != 2000 || s.Combo != 1 || s.ScoreMultiplier != 2) {
			t.Error(name, "unexpected phrase score", s.CommittedScore, s.Combo, s.ScoreMultiplier)
		}
		if !test.hit && s.CommittedScore != 0 {
			t.Error(name, "missed phrase scored", s.CommittedScore)
		}
	}
}

func TestBadPitchIsIgnored(t *testing.T) {
	b := charttest.New(chart.Vocals)
	d := b.VocalPhrase(0, 960, 0, b.Lyric(0, 960, 60)).Build()
	e := vocalsEngine(d, b)

	inputs := sing(0, 0.5, 60)
	inputs = append(inputs,
		engine.AxisInput(0.52, engine.Pitch, float32(math.NaN())),
		engine.AxisInput(0.53, engine.Pitch, float32(math.Inf(1))),
	)
	play(e, 2, append(inputs, sing(0.55, 1.1, 60)...)...)

	if !d.Notes[0].WasHit {
		t.Error("a bad pitch sample broke the phrase")
	}
}

func TestEmptyPhraseAutoPasses(t *testing.T) {
	b := charttest.New(chart.Vocals)
	d := b.VocalPhrase(0, 480, 0).
		VocalPhrase(960, 480, 0, b.Lyric(960, 480, 60)).
		Build()
	e := vocalsEngine(d, b)

	play(e, 3)

	s := e.Stats()
	if !d.Notes[0].WasHit || !d.Notes[1].WasMissed {
		t.Error("phrases were not resolved", d.Notes[0].WasHit, d.Notes[1].WasMissed)
	}
	if s.NotesHit != 1 || s.TotalNotes != 2 || s.CommittedScore != 0 || s.Combo != 0 {
		t.Error("unexpected stats", s.NotesHit, s.TotalNotes, s.CommittedScore, s.Combo)
	}
}

func TestPercussionNotes(t *testing.T) {
	b := charttest.New(chart.Vocals)
	d := b.VocalPhrase(0, 480, 0, b.Percussion(0), b.Percussion(240)).Build()
	e := vocalsEngine(d, b)

	play(e, 2, press(0, engine.VocalHit), release(0, engine.VocalHit), press(0.25, engine.VocalHit))

	phrase := &d.Notes[0]
	if !phrase.Children[0].WasHit || !phrase.Children[1].WasHit {
		t.Error("percussion notes were not hit")
	}
	if s := e.Stats(); s.CommittedScore != 2*engine.PointsPerPercussion || !phrase.WasHit {
		t.Error("unexpected percussion score", s.CommittedScore)
	}
}

// Expert singing is perfect within 0.48 semitones and scores nothing past 0.8.
var pitchCreditTests = map[float32]struct {
	ticks uint32
	score int
	hit   bool
}{
	0.3:  {960, 2000, true},
	0.64: {480, 1000, false},
	0.79: {30, 63, false},
	0.9:  {0, 0, false},
}

func TestPartialPitchCredit(t *testing.T) {
	for offset, expected := range pitchCreditTests {
		b := charttest.New(chart.Vocals)
		d := b.VocalPhrase(0, 960, 0, b.Lyric(0, 960, 60)).Build()
		e := vocalsEngine(d, b)

		play(e, 2, sing(0, 1.1, 60+offset)...)

		s := e.Stats()
		if s.TicksHit != expected.ticks || math.Abs(float64(s.CommittedScore-expected.score)) > 1 || d.Notes[0].WasHit != expected.hit {
			t.Log("offset  ", offset)
			t.Log("out     ", s.TicksHit, s.CommittedScore, d.Notes[0].WasHit)
			t.Log("expected", expected)
			t.Fail()
		}
		if s.TicksHit+s.TicksMissed != 960 {
			t.Error(offset, "ticks do not add up", s.TicksHit, s.TicksMissed)
		}
	}
}
