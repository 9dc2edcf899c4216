package config

import (
	"os"
	"path/filepath"
	"testing"

	"git.lost.host/meutraa/tally/internal/chart"
	"git.lost.host/meutraa/tally/internal/engine"
)

func TestLoadParametersWithoutPreset(t *testing.T) {
	p, err := LoadParameters("", chart.ProDrums, chart.Expert, 1)
	if nil != err {
		t.Fatal(err)
	}
	expected := engine.DefaultParameters(chart.ProDrums, chart.Expert)
	expected.HitWindow.Normalize()
	if p.HitWindow != expected.HitWindow || p.Drums != expected.Drums || !p.ProDrums {
		t.Log("out     ", p)
		t.Log("expected", expected)
		t.Fail()
	}
}

func TestLoadParametersPreset(t *testing.T) {
	preset := filepath.Join(t.TempDir(), "preset.yml")
	doc := "max_multiplier: 6\nhit_window:\n  max_window: 0.1\n  min_window: 0.2\nguitar:\n  infinite_front_end: true\n"
	if err := os.WriteFile(preset, []byte(doc), 0o644); nil != err {
		t.Fatal(err)
	}

	p, err := LoadParameters(preset, chart.FiveFretGuitarInstrument, chart.Hard, 1.5)
	if nil != err {
		t.Fatal(err)
	}
	if p.MaxMultiplier != 6 || !p.Guitar.InfiniteFrontEnd {
		t.Error("preset fields", p.MaxMultiplier, p.Guitar.InfiniteFrontEnd)
	}
	// untouched fields keep their defaults
	if p.Guitar.HopoLeniency != 0.08 || p.Mode != chart.FiveFretGuitar {
		t.Error("defaults", p.Guitar.HopoLeniency, p.Mode)
	}
	// bounds are ordered
	if p.HitWindow.MaxWindow != 0.2 || p.HitWindow.MinWindow != 0.1 {
		t.Error("window", p.HitWindow.MaxWindow, p.HitWindow.MinWindow)
	}
	if p.SongSpeed != 1.5 || p.HitWindow.Scale != 1.5 {
		t.Error("speed", p.SongSpeed, p.HitWindow.Scale)
	}
}

func TestLoadParametersErrors(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.yml")
	if err := os.WriteFile(broken, []byte("hit_window: ["), 0o644); nil != err {
		t.Fatal(err)
	}
	for _, preset := range []string{broken, filepath.Join(dir, "missing.yml")} {
		if _, err := LoadParameters(preset, chart.VocalsInstrument, chart.Easy, 1); nil == err {
			t.Log("preset  ", preset)
			t.Log("expected an error")
			t.Fail()
		}
	}
}

var profiles = map[[3]string]bool{
	{"prodrums", "expert", ""}:         true,
	{"bass", "easy", "all-hopos"}:      true,
	{"banjo", "expert", ""}:            false,
	{"guitar", "insane", ""}:           false,
	{"guitar", "expert", "no-strings"}: false,
}

func TestProfile(t *testing.T) {
	for args, ok := range profiles {
		var mods []string
		if args[2] != "" {
			mods = []string{args[2]}
		}
		_, _, _, err := Profile(args[0], args[1], mods)
		if (nil == err) != ok {
			t.Log("out     ", err)
			t.Log("expected", ok)
			t.Fail()
		}
	}
}
