package bot_test

import (
	"testing"

	"git.lost.host/meutraa/tally/internal/bot"
	"git.lost.host/meutraa/tally/internal/chart"
	"git.lost.host/meutraa/tally/internal/chart/charttest"
	"git.lost.host/meutraa/tally/internal/engine"
)

// drive runs the engine at 60 frames per second with the bot as its only
// input source.
func drive(e engine.Engine, p *bot.Player, end float64) {
	for time := -1.0; time < end; time += 1.0 / 60 {
		for _, in := range p.Poll(time) {
			e.QueueInput(in)
		}
		e.Update(time)
	}
	e.Update(end)
}

func TestGuitarBotFullCombo(t *testing.T) {
	b := charttest.New(chart.Guitar)
	d := b.Add(0, chart.GreenFret, chart.Strum).
		Add(480, chart.GreenFret, chart.Strum).
		Add(480, chart.RedFret, chart.Strum).
		Add(720, chart.YellowFret, chart.Hopo).
		Add(960, chart.YellowFret, chart.Strum).
		Add(1440, chart.OrangeFret, chart.Strum).
		Add(1920, chart.OpenFret, chart.Strum).
		Phrase(chart.StarPowerPhrase, 0, 240).
		Phrase(chart.StarPowerPhrase, 480, 120).
		Build()
	p := engine.DefaultParameters(chart.FiveFretGuitarInstrument, chart.Expert)
	e := engine.NewGuitarEngine(d, b.Sync, p)
	player := bot.New(e, b.Sync, p)

	drive(e, player, 4)

	s := e.Stats()
	if s.NotesHit != s.TotalNotes || s.Overstrums != 0 || s.GhostInputs != 0 {
		t.Log("hit       ", s.NotesHit, "of", s.TotalNotes)
		t.Log("overstrums", s.Overstrums)
		t.Log("ghosts    ", s.GhostInputs)
		t.Fail()
	}
	if s.MaxCombo != s.TotalNotes {
		t.Error("combo was broken", s.MaxCombo)
	}
	if s.StarPowerActivationCount != 1 {
		t.Error("bot did not activate star power", s.StarPowerActivationCount)
	}
	if !player.Done() {
		t.Error("bot has inputs left")
	}
}

func TestDrumsBotFullCombo(t *testing.T) {
	b := charttest.New(chart.Drums)
	d := b.Add(0, chart.Kick, chart.Neutral).
		Add(0, chart.RedDrum, chart.Accent).
		Add(240, chart.YellowCymbal, chart.Neutral).
		Add(480, chart.BlueDrum, chart.Ghost).
		Add(720, chart.GreenCymbal, chart.Accent).
		Add(960, chart.Kick, chart.Neutral).
		Build()
	p := engine.DefaultParameters(chart.ProDrums, chart.Expert)
	e := engine.NewDrumsEngine(d, b.Sync, p)

	drive(e, bot.New(e, b.Sync, p), 3)

	s := e.Stats()
	if s.NotesHit != s.TotalNotes || s.Overhits != 0 || s.MaxCombo != s.TotalNotes {
		t.Error("drums bot missed", s.NotesHit, s.TotalNotes, s.Overhits)
	}
	// Both accents and the ghost earn the dynamics bonus.
	bonus := 3 * (engine.PointsPerNote / 2)
	if s.CommittedScore != s.TotalNotes*engine.PointsPerProNote+bonus {
		t.Error("unexpected score", s.CommittedScore)
	}
}

func TestVocalsBotPassesPhrases(t *testing.T) {
	b := charttest.New(chart.Vocals)
	d := b.VocalPhrase(0, 960, 0, b.Lyric(0, 480, 60), b.Lyric(480, 480, 64)).
		VocalPhrase(1920, 480, 0, b.Lyric(1920, 480, 55), b.Percussion(2160)).
		Build()
	p := engine.DefaultParameters(chart.VocalsInstrument, chart.Expert)
	e := engine.NewVocalsEngine(d, b.Sync, p)

	drive(e, bot.New(e, b.Sync, p), 4)

	for i := range d.Notes {
		if !d.Notes[i].WasHit {
			t.Error("phrase was not passed", i)
		}
	}
	if s := e.Stats(); s.Combo != 2 {
		t.Error("unexpected phrase combo", s.Combo)
	}
}

func TestProKeysBotFullCombo(t *testing.T) {
	b := charttest.New(chart.ProKeys)
	d := b.Add(0, 0, 0).
		Add(240, 0, 0).
		Add(480, 4, 0).
		Add(480, 7, 0).
		Add(720, 5, 0).
		Add(960, 24, 0).
		Build()
	p := engine.DefaultParameters(chart.ProKeysInstrument, chart.Expert)
	e := engine.NewProKeysEngine(d, b.Sync, p)

	drive(e, bot.New(e, b.Sync, p), 3)

	s := e.Stats()
	if s.NotesHit != s.TotalNotes || s.Overhits != 0 || s.Combo != 5 {
		t.Error("pro keys bot missed", s.NotesHit, s.TotalNotes, s.Overhits, s.Combo)
	}
}

func TestInputsAreOrdered(t *testing.T) {
	b := charttest.New(chart.Drums)
	for i := uint32(0); i < 8; i++ {
		b.Add(i*120, chart.RedDrum+int(i%4), chart.Neutral)
		b.Add(i*120, chart.Kick, chart.Neutral)
	}
	d := b.Build()
	p := engine.DefaultParameters(chart.FourLaneDrumsInstrument, chart.Expert)
	e := engine.NewDrumsEngine(d, b.Sync, p)

	inputs := bot.Inputs(e, b.Sync, p)
	if len(inputs) != 16 {
		t.Fatal("expected an input per note, got", len(inputs))
	}
	for i := 1; i < len(inputs); i++ {
		if inputs[i].Time < inputs[i-1].Time {
			t.Fatal("inputs out of order at", i)
		}
	}
}
