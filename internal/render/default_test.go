package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"git.lost.host/meutraa/tally/internal/chart"
	"git.lost.host/meutraa/tally/internal/engine"
	"git.lost.host/meutraa/tally/internal/replay"
	"git.lost.host/meutraa/tally/internal/score"
	"git.lost.host/meutraa/tally/internal/theme"
)

func newRenderer(t *testing.T) (*DefaultRenderer, *bytes.Buffer) {
	var out bytes.Buffer
	r := &DefaultRenderer{Out: &out, Theme: &theme.DefaultTheme{Plain: true}}
	if err := r.Init(); nil != err {
		t.Fatal(err)
	}
	if r.Width != 80 {
		t.Error("width", r.Width)
	}
	return r, &out
}

func expectLines(t *testing.T, out string, lines ...string) {
	for _, l := range lines {
		if !strings.Contains(out, l) {
			t.Log("out     ", out)
			t.Log("expected", l)
			t.Fail()
		}
	}
}

func frame(name string) *replay.Frame {
	return &replay.Frame{
		Profile:    replay.Profile{Name: name, Instrument: chart.ProDrums, Difficulty: chart.Expert},
		Parameters: engine.Parameters{Mode: chart.FourLaneDrums},
		Inputs: []engine.GameInput{
			engine.AxisInput(1.5, engine.KickPedal, 0.75),
			engine.AxisInput(2, engine.GreenCymbalPad, 1),
		},
	}
}

func TestRenderInfo(t *testing.T) {
	r, out := newRenderer(t)
	info := &replay.Info{
		Path:          "song.replay",
		ReplayVersion: replay.Version,
		EngineVersion: replay.EngineVersion,
		SongName:      "Test Song",
		ArtistName:    "Test Artist",
		Date:          time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		SongSpeed:     1,
		ReplayLength:  72,
		BandScore:     1234567,
		BandStars:     4.5,
		Stats: []replay.PlayerStats{&replay.DrumsStats{
			CommonStats: replay.CommonStats{Mode: chart.FourLaneDrums, PlayerName: "bot", Score: 51234},
			TotalNotes:  40,
			NotesHit:    39,
			Overhits:    2,
		}},
	}
	r.RenderInfo(info, 2048)
	expectLines(t, out.String(),
		"song.replay",
		"Test Song",
		"2024-01-02 03:04:05",
		"at 100%",
		"1,234,567 ★★★★☆",
		"2.0 kB, replay version 2, engine version 1",
		"51,234",
		"39/40 notes  2 overhits",
	)
}

func TestRenderAnalysis(t *testing.T) {
	r, out := newRenderer(t)
	info := &replay.Info{Path: "song.replay"}
	results := []replay.Result{
		{Passed: true, NotesMatch: true, Frame: frame("first")},
		{Passed: false, NotesMatch: false, Frame: frame("second"),
			Original: engine.Stats{CommittedScore: 100}, Result: engine.Stats{CommittedScore: 150}},
	}
	if r.RenderAnalysis(info, results, false) {
		t.Error("expected a failed analysis")
	}
	s := out.String()
	expectLines(t, s,
		"PASSED  first expert prodrums",
		"FAILED  second expert prodrums",
		"note results differ",
		"100        -> 150",
		"Drums stats:",
	)
	// passing frames only list differences when asked
	if strings.Count(s, "Base stats:") != 1 {
		t.Error("expected one stat listing", s)
	}

	out.Reset()
	errored := []replay.Result{{Frame: frame("third"), Err: errors.New("no expert prodrums")}}
	if r.RenderAnalysis(info, errored, true) {
		t.Error("expected a failed analysis")
	}
	expectLines(t, out.String(), "FAILED  third", "  no expert prodrums")
}

func TestRenderInputs(t *testing.T) {
	r, out := newRenderer(t)
	r.RenderInputs(&replay.Info{Path: "song.replay"}, &replay.Data{Frames: []replay.Frame{*frame("bot")}})
	expectLines(t, out.String(),
		"bot  expert prodrums, 2 inputs",
		"1.5000  kick",
		"green cymbal",
	)
}

func TestActionName(t *testing.T) {
	names := map[[2]int]string{
		{int(chart.FiveFretGuitar), engine.StrumDown}:      "strum down",
		{int(chart.FiveLaneDrums), engine.OrangeCymbalPad}: "orange cymbal",
		{int(chart.VocalsMode), engine.Pitch}:              "pitch",
		{int(chart.ProKeysMode), 24}:                       "key 25",
		{int(chart.ProKeysMode), engine.TouchEffects}:      "touch effects",
		{int(chart.VocalsMode), 9}:                         "action 9",
	}
	for args, expected := range names {
		if out := actionName(chart.GameMode(args[0]), args[1]); out != expected {
			t.Log("out     ", out)
			t.Log("expected", expected)
			t.Fail()
		}
	}
}

func TestRenderHistory(t *testing.T) {
	r, out := newRenderer(t)
	r.RenderHistory(nil)
	expectLines(t, out.String(), "no runs saved")

	out.Reset()
	r.RenderHistory([]score.Run{{
		Player:     "Player",
		Instrument: chart.ProDrums,
		Difficulty: chart.Hard,
		Speed:      1.25,
		Date:       time.Now().Add(-time.Hour),
		Stats:      &replay.DrumsStats{CommonStats: replay.CommonStats{Score: 12000, Stars: 3}},
		Inputs:     make([]engine.GameInput, 3),
	}})
	expectLines(t, out.String(), "1 hour ago", "Player", "125%", "12,000", "★★★☆☆", "3 inputs")
}
