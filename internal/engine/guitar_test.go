package engine_test

import (
	"testing"

	"git.lost.host/meutraa/tally/internal/chart"
	"git.lost.host/meutraa/tally/internal/chart/charttest"
	"git.lost.host/meutraa/tally/internal/engine"
)

func guitarEngine(d *chart.InstrumentDifficulty, b *charttest.Builder) *engine.GuitarEngine {
	p := engine.DefaultParameters(chart.FiveFretGuitarInstrument, chart.Expert)
	return engine.NewGuitarEngine(d, b.Sync, p)
}

func TestStrumEveryNote(t *testing.T) {
	b := charttest.New(chart.Guitar)
	d := b.Add(0, chart.GreenFret, chart.Strum).
		Add(1, chart.RedFret, chart.Strum).
		Add(2, chart.YellowFret, chart.Strum).
		Build()
	e := guitarEngine(d, b)

	t0, t1, t2 := d.Notes[0].Time, d.Notes[1].Time, d.Notes[2].Time
	play(e, 1,
		press(t0, engine.GreenFret), strum(t0),
		release(t1, engine.GreenFret), press(t1, engine.RedFret), strum(t1),
		release(t2, engine.RedFret), press(t2, engine.YellowFret), strum(t2),
	)

	s := e.Stats()
	if s.NotesHit != 3 || s.Overstrums != 0 || s.MaxCombo != 3 {
		t.Log("hit       ", s.NotesHit)
		t.Log("overstrums", s.Overstrums)
		t.Log("max combo ", s.MaxCombo)
		t.Fail()
	}
	if s.CommittedScore != 3*engine.PointsPerNote {
		t.Error("unexpected score", s.CommittedScore)
	}
}

func TestOverstrumResetsCombo(t *testing.T) {
	b := charttest.New(chart.Guitar)
	d := b.Add(0, chart.GreenFret, chart.Strum).
		Add(1920, chart.RedFret, chart.Strum).
		Add(3840, chart.YellowFret, chart.Strum).
		Build()
	e := guitarEngine(d, b)

	play(e, 1.5, press(0, engine.GreenFret), strum(0), strum(1))
	if s := e.Stats(); s.Combo != 0 || s.Overstrums != 1 {
		t.Error("strum without a note did not overstrum", s.Combo, s.Overstrums)
	}

	play(e, 5,
		release(2, engine.GreenFret), press(2, engine.RedFret), strum(2),
		release(4, engine.RedFret), press(4, engine.YellowFret), strum(4),
	)
	s := e.Stats()
	if s.NotesHit != 3 || s.Overstrums != 1 || s.Combo != 2 || s.MaxCombo != 2 {
		t.Log("hit       ", s.NotesHit)
		t.Log("overstrums", s.Overstrums)
		t.Log("combo     ", s.Combo, s.MaxCombo)
		t.Fail()
	}
}

func TestOverstrumDropsMultiplier(t *testing.T) {
	b := charttest.New(chart.Guitar)
	for i := uint32(0); i <= 10; i++ {
		b.Add(i*480, chart.GreenFret, chart.Strum)
	}
	d := b.Add(20*480, chart.GreenFret, chart.Strum).Build()
	e := guitarEngine(d, b)

	inputs := []engine.GameInput{press(0, engine.GreenFret)}
	for i := 0; i <= 10; i++ {
		inputs = append(inputs, strum(d.Notes[i].Time))
	}
	play(e, 6, inputs...)
	if s := e.Stats(); s.Combo != 11 || s.ScoreMultiplier != 2 {
		t.Fatal("expected a combo of 11 at 2x", s.Combo, s.ScoreMultiplier)
	}

	play(e, 8, strum(7))
	if s := e.Stats(); s.Combo != 0 || s.ScoreMultiplier != 1 || s.Overstrums != 1 {
		t.Error("overstrum kept the multiplier", s.Combo, s.ScoreMultiplier, s.Overstrums)
	}
}

// The chord is red and yellow after a strummed green note. Green stays held
// when the case holds it, and the other frets are pressed in order.
var chordTests = map[string]struct {
	typ       uint8
	anchoring bool
	frets     []int
	hit       bool
}{
	"exact":                     {chart.Strum, true, []int{engine.RedFret, engine.YellowFret}, true},
	"superset":                  {chart.Strum, true, []int{engine.GreenFret, engine.RedFret, engine.YellowFret}, false},
	"subset":                    {chart.Strum, true, []int{engine.RedFret}, false},
	"shifted":                   {chart.Strum, true, []int{engine.YellowFret, engine.BlueFret}, false},
	"hopo anchored":             {chart.Hopo, true, []int{engine.GreenFret, engine.RedFret, engine.YellowFret}, true},
	"hopo without anchoring":    {chart.Hopo, false, []int{engine.GreenFret, engine.RedFret, engine.YellowFret}, false},
	"hopo exact, no anchoring":  {chart.Hopo, false, []int{engine.RedFret, engine.YellowFret}, true},
	"hopo held above":           {chart.Hopo, true, []int{engine.BlueFret, engine.RedFret, engine.YellowFret}, false},
	"tap anchored":              {chart.Tap, true, []int{engine.GreenFret, engine.RedFret, engine.YellowFret}, true},
	"tap without anchoring":     {chart.Tap, false, []int{engine.GreenFret, engine.RedFret, engine.YellowFret}, false},
	"tap exact, no anchoring":   {chart.Tap, false, []int{engine.RedFret, engine.YellowFret}, true},
	"strum exact, no anchoring": {chart.Strum, false, []int{engine.RedFret, engine.YellowFret}, true},
}

func TestChordExactness(t *testing.T) {
	for name, test := range chordTests {
		b := charttest.New(chart.Guitar)
		d := b.Add(0, chart.GreenFret, chart.Strum).
			Add(240, chart.RedFret, test.typ).
			Add(240, chart.YellowFret, test.typ).
			Build()
		p := engine.DefaultParameters(chart.FiveFretGuitarInstrument, chart.Expert)
		p.Guitar.Anchoring = test.anchoring
		e := engine.NewGuitarEngine(d, b.Sync, p)

		chord := d.Notes[1].Time
		inputs := []engine.GameInput{press(0, engine.GreenFret), strum(0)}
		if test.frets[0] != engine.GreenFret {
			inputs = append(inputs, release(chord, engine.GreenFret))
		}
		for _, fret := range test.frets {
			if fret != engine.GreenFret {
				inputs = append(inputs, press(chord, fret))
			}
		}
		if test.typ == chart.Strum {
			inputs = append(inputs, strum(chord))
		}
		play(e, 1, inputs...)

		if d.Notes[1].WasHit != test.hit || d.Notes[1].WasMissed == test.hit {
			t.Log("case    ", name)
			t.Log("hit     ", d.Notes[1].WasHit)
			t.Log("expected", test.hit)
			t.Fail()
		}
		if test.hit && e.Stats().Overstrums != 0 {
			t.Error(name, "overstrummed")
		}
	}
}

var anchorTests = map[string]struct {
	anchoring bool
	frets     []int
	hit       bool
}{
	"lower fret held":       {true, []int{engine.GreenFret, engine.RedFret}, true},
	"higher fret held":      {true, []int{engine.RedFret, engine.YellowFret}, false},
	"lower fret, no anchor": {false, []int{engine.GreenFret, engine.RedFret}, false},
	"exact, no anchor":      {false, []int{engine.RedFret}, true},
}

func TestSingleNoteAnchoring(t *testing.T) {
	for name, test := range anchorTests {
		b := charttest.New(chart.Guitar)
		d := b.Add(0, chart.RedFret, chart.Strum).Build()
		p := engine.DefaultParameters(chart.FiveFretGuitarInstrument, chart.Expert)
		p.Guitar.Anchoring = test.anchoring
		e := engine.NewGuitarEngine(d, b.Sync, p)

		var inputs []engine.GameInput
		for _, fret := range test.frets {
			inputs = append(inputs, press(0, fret))
		}
		play(e, 1, append(inputs, strum(0))...)

		if d.Notes[0].WasHit != test.hit {
			t.Log("case    ", name)
			t.Log("expected", test.hit)
			t.Fail()
		}
	}
}

func TestHopoHitByFretting(t *testing.T) {
	b := charttest.New(chart.Guitar)
	d := b.Add(0, chart.GreenFret, chart.Strum).Add(240, chart.RedFret, chart.Hopo).Build()
	e := guitarEngine(d, b)

	play(e, 1, press(0, engine.GreenFret), strum(0), press(d.Notes[1].Time, engine.RedFret))

	s := e.Stats()
	if s.NotesHit != 2 || s.HoposStrummed != 0 || s.Overstrums != 0 {
		t.Error("hopo was not hit by the fret press", s.NotesHit, s.HoposStrummed, s.Overstrums)
	}
}

func TestGhostInputBlocksHopo(t *testing.T) {
	b := charttest.New(chart.Guitar)
	d := b.Add(0, chart.GreenFret, chart.Strum).Add(240, chart.RedFret, chart.Hopo).Build()
	e := guitarEngine(d, b)

	hopo := d.Notes[1].Time
	play(e, 1,
		press(0, engine.GreenFret), strum(0),
		press(hopo-0.05, engine.YellowFret),
		release(hopo, engine.YellowFret), press(hopo, engine.RedFret),
	)

	s := e.Stats()
	if s.GhostInputs != 1 {
		t.Error("expected one ghost input, got", s.GhostInputs)
	}
	if !d.Notes[1].WasMissed || s.NotesHit != 1 {
		t.Error("a ghosted hopo was hit without strumming")
	}
}

func TestStarPowerActivation(t *testing.T) {
	b := charttest.New(chart.Guitar)
	for i := uint32(0); i < 6; i++ {
		b.Add(i*480, chart.GreenFret, chart.Strum)
	}
	d := b.Phrase(chart.StarPowerPhrase, 0, 240).
		Phrase(chart.StarPowerPhrase, 480, 240).
		Build()
	e := guitarEngine(d, b)

	play(e, 0.6, press(0, engine.GreenFret), strum(0), strum(d.Notes[1].Time))
	s := e.Stats()
	if s.StarPowerPhrasesHit != 2 || !e.CanStarPowerActivate() {
		t.Fatal("two phrases should allow activation", s.StarPowerPhrasesHit, e.StarPowerBarAmount())
	}
	if e.StarPowerBarAmount() != 0.5 {
		t.Error("expected half a bar, got", e.StarPowerBarAmount())
	}

	play(e, 1.2,
		press(0.75, engine.GuitarStarPower), release(0.8, engine.GuitarStarPower),
		strum(d.Notes[2].Time),
	)
	s = e.Stats()
	if !s.IsStarPowerActive || s.StarPowerActivationCount != 1 || s.ScoreMultiplier != 2 {
		t.Fatal("star power did not activate", s.IsStarPowerActive, s.StarPowerActivationCount, s.ScoreMultiplier)
	}
	if s.CommittedScore != 2*engine.PointsPerNote+2*engine.PointsPerNote {
		t.Error("note in star power was not doubled", s.CommittedScore)
	}
	if s.StarPowerScore != engine.PointsPerNote {
		t.Error("unexpected star power score", s.StarPowerScore)
	}
}

func TestMissStripsStarPowerPhrase(t *testing.T) {
	b := charttest.New(chart.Guitar)
	for i := uint32(0); i < 3; i++ {
		b.Add(i*480, chart.GreenFret, chart.Strum)
	}
	d := b.Phrase(chart.StarPowerPhrase, 0, 1440).Build()
	e := guitarEngine(d, b)

	// The first note is left to pass.
	play(e, 2, press(0.4, engine.GreenFret), strum(d.Notes[1].Time), strum(d.Notes[2].Time))

	s := e.Stats()
	if s.NotesHit != 2 || s.StarPowerPhrasesHit != 0 || s.StarPowerTickAmount != 0 {
		t.Error("missed phrase still awarded star power", s.NotesHit, s.StarPowerPhrasesHit)
	}
	if d.Notes[2].IsStarPower() {
		t.Error("rest of the phrase was not stripped")
	}
}

func TestNoteIndexNeverDecreases(t *testing.T) {
	b := charttest.New(chart.Guitar)
	for i := uint32(0); i < 16; i++ {
		b.Add(i*120, chart.GreenFret+int(i%5), chart.Strum)
	}
	d := b.Build()
	e := guitarEngine(d, b)

	// Half the notes are hit, the rest overstrummed or missed.
	for i := range d.Notes {
		if i%2 == 0 {
			e.QueueInput(press(d.Notes[i].Time, engine.GreenFret+i%5))
		}
		e.QueueInput(strum(d.Notes[i].Time))
		if i%2 == 0 {
			e.QueueInput(release(d.Notes[i].Time+0.01, engine.GreenFret+i%5))
		}
	}

	last := 0
	for time := -1.0; time < 3; time += 1.0 / 60 {
		e.Update(time)
		if e.NoteIndex() < last {
			t.Fatal("note index went back from", last, "to", e.NoteIndex())
		}
		last = e.NoteIndex()
	}
	if last != len(d.Notes) {
		t.Error("not every note was resolved", last)
	}
}

func TestResetRestoresChart(t *testing.T) {
	b := charttest.New(chart.Guitar)
	d := b.Add(0, chart.GreenFret, chart.Strum).Phrase(chart.StarPowerPhrase, 0, 240).Build()
	e := guitarEngine(d, b)

	play(e, 1)
	if !d.Notes[0].WasMissed || d.Notes[0].IsStarPower() {
		t.Fatal("note was not missed")
	}

	e.Reset()
	if d.Notes[0].WasMissed || !d.Notes[0].IsStarPower() || e.NoteIndex() != 0 || e.Stats().Combo != 0 {
		t.Error("reset did not restore the chart")
	}
	if e.Stats().TotalNotes != 1 {
		t.Error("reset lost the note total")
	}
}

// A green sustain of four beats is held from the strum until the release.
var sustainReleaseTests = map[float64]int{
	0.3: 17,
	0.6: 32,
	1.2: 62,
	2.5: 100,
}

func TestEarlyReleaseTruncatesSustain(t *testing.T) {
	for releaseTime, expected := range sustainReleaseTests {
		b := charttest.New(chart.Guitar)
		d := b.Sustain(0, 1920, chart.GreenFret, chart.Strum).Build()
		e := guitarEngine(d, b)

		play(e, 3, press(0, engine.GreenFret), strum(0), release(releaseTime, engine.GreenFret))

		s := e.Stats()
		if s.SustainScore != expected || s.CommittedScore != engine.PointsPerNote+expected {
			t.Log("released", releaseTime)
			t.Log("out     ", s.SustainScore, s.CommittedScore)
			t.Log("expected", expected)
			t.Fail()
		}
		if s.PendingScore != 0 {
			t.Error("sustain still pending after release at", releaseTime)
		}
	}
}

var brokenComboTests = map[string]struct {
	typ uint8
	hit bool
}{
	"tap":  {chart.Tap, true},
	"hopo": {chart.Hopo, false},
}

func TestTapHitWithoutCombo(t *testing.T) {
	for name, test := range brokenComboTests {
		b := charttest.New(chart.Guitar)
		d := b.Add(0, chart.GreenFret, chart.Strum).Add(480, chart.RedFret, test.typ).Build()
		e := guitarEngine(d, b)

		// The strummed note passes unplayed, so the combo is broken.
		play(e, 0.4)
		if !d.Notes[0].WasMissed || e.Stats().Combo != 0 {
			t.Fatal(name, "first note was not missed")
		}

		play(e, 1, press(d.Notes[1].Time, engine.RedFret))
		s := e.Stats()
		if d.Notes[1].WasHit != test.hit || d.Notes[1].WasMissed == test.hit {
			t.Log("case    ", name)
			t.Log("hit     ", d.Notes[1].WasHit, s.NotesHit)
			t.Log("expected", test.hit)
			t.Fail()
		}
		if test.hit && s.Combo != 1 {
			t.Error(name, "combo", s.Combo)
		}
	}
}
