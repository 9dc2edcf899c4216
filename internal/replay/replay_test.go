package replay

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"

	"git.lost.host/meutraa/tally/internal/bot"
	"git.lost.host/meutraa/tally/internal/chart"
	"git.lost.host/meutraa/tally/internal/chart/charttest"
	"git.lost.host/meutraa/tally/internal/engine"
	"git.lost.host/meutraa/tally/internal/input"
)

func TestStatsLayout(t *testing.T) {
	s := &DrumsStats{
		CommonStats: CommonStats{
			Mode:       chart.FourLaneDrums,
			PlayerName: "ab",
			Score:      1234,
			Stars:      4.5,
		},
		TotalNotes: 10,
		NotesHit:   9,
		Overhits:   2,
	}
	b := MarshalStats(s)

	if b[0] != uint8(chart.FourLaneDrums) {
		t.Error("mode byte", b[0])
	}
	if v := binary.LittleEndian.Uint32(b[1:5]); v != uint32(StatsVersion) {
		t.Error("stats version", v)
	}
	if b[5] != 2 || string(b[6:8]) != "ab" {
		t.Error("player name", b[5:8])
	}
	if v := binary.LittleEndian.Uint32(b[8:12]); v != 1234 {
		t.Error("score", v)
	}
	// mode, version, name, seven common values and four drum values
	if len(b) != 1+4+3+7*4+4*4 {
		t.Error("length", len(b))
	}

	out, err := UnmarshalStats(b)
	if nil != err {
		t.Fatal(err)
	}
	if d, ok := out.(*DrumsStats); !ok || *d != *s {
		t.Log("out     ", out)
		t.Log("expected", s)
		t.Fail()
	}
}

func TestUnmarshalStatsErrors(t *testing.T) {
	valid := MarshalStats(&VocalsStats{CommonStats: CommonStats{Mode: chart.VocalsMode}, NumPhrases: 3})

	unknownMode := append([]byte{}, valid...)
	unknownMode[0] = 42
	newer := append([]byte{}, valid...)
	newer[1] = byte(StatsVersion + 1)

	tests := map[string]struct {
		in  []byte
		err error
	}{
		"truncated":    {valid[:len(valid)-1], ErrCorrupted},
		"trailing":     {append(append([]byte{}, valid...), 0), ErrCorrupted},
		"unknown mode": {unknownMode, ErrCorrupted},
		"newer":        {newer, ErrInvalidVersion},
		"empty":        {nil, ErrCorrupted},
	}
	for name, test := range tests {
		if _, err := UnmarshalStats(test.in); !errors.Is(err, test.err) {
			t.Log("test    ", name)
			t.Log("err     ", err)
			t.Log("expected", test.err)
			t.Fail()
		}
	}
}

func drumSong() *chart.SongChart {
	b := charttest.New(chart.Drums)
	for i := uint32(0); i < 32; i++ {
		b.Add(480+i*240, chart.RedDrum+int(i%4), chart.Neutral)
		if i%2 == 0 {
			b.Add(480+i*240, chart.Kick, chart.Neutral)
		}
	}
	c := chart.NewSongChart(b.Sync)
	c.Name, c.Artist, c.Charter = "Song", "Artist", "Charter"
	c.Track(chart.ProDrums).Difficulties[chart.Expert] = b.Build()
	return c
}

func botFrame(t *testing.T, c *chart.SongChart) Frame {
	f := Frame{
		Profile:    Profile{Name: "bot", Instrument: chart.ProDrums, Difficulty: chart.Expert, IsBot: true},
		Parameters: engine.DefaultParameters(chart.ProDrums, chart.Expert),
	}
	err := Record(c, &f, 60, func(e engine.Engine) input.Source {
		return bot.New(e, c.SyncTrack, f.Parameters)
	})
	if nil != err {
		t.Fatal(err)
	}
	return f
}

func encoded(t *testing.T, info *Info, data *Data) []byte {
	var buf bytes.Buffer
	if err := Write(&buf, info, data); nil != err {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestWriteRead(t *testing.T) {
	c := drumSong()
	f := botFrame(t, c)
	if f.Stats.NotesHit != f.Stats.TotalNotes || len(f.Inputs) == 0 {
		t.Fatal("bot did not play the chart", f.Stats)
	}

	date := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
	info := NewInfo(c, Hash{1, 2, 3}, date, []Frame{f})
	info2, data, err := Read(encoded(t, info, &Data{Frames: []Frame{f}}))
	if nil != err {
		t.Fatal(err)
	}

	if info2.SongName != "Song" || info2.ArtistName != "Artist" || info2.SongChecksum != (Hash{1, 2, 3}) || !info2.Date.Equal(date) {
		t.Error("header mismatch", info2)
	}
	if info2.ReplayVersion != Version || info2.EngineVersion != EngineVersion {
		t.Error("versions", info2.ReplayVersion, info2.EngineVersion)
	}
	if len(info2.Stats) != 1 || info2.Stats[0].Common().Score != int32(f.Stats.TotalScore()) {
		t.Error("player stats", info2.Stats)
	}

	if len(data.Frames) != 1 {
		t.Fatal("frames", len(data.Frames))
	}
	got := data.Frames[0]
	if got.Profile != f.Profile {
		t.Error("profile", got.Profile)
	}
	if !reflect.DeepEqual(got.Parameters, f.Parameters) {
		t.Log("out     ", got.Parameters)
		t.Log("expected", f.Parameters)
		t.Fail()
	}
	if got.Stats != f.Stats {
		t.Error("stats", got.Stats)
	}
	if !reflect.DeepEqual(got.Inputs, f.Inputs) || !reflect.DeepEqual(got.Notes, f.Notes) {
		t.Error("inputs or notes differ")
	}
}

func TestReadResults(t *testing.T) {
	c := drumSong()
	f := botFrame(t, c)
	info := NewInfo(c, Hash{}, time.Unix(0, 0), []Frame{f})
	valid := encoded(t, info, &Data{Frames: []Frame{f}})

	flip := func(i int) []byte {
		b := append([]byte{}, valid...)
		b[i] ^= 0xff
		return b
	}
	oldVersion := append([]byte{}, valid...)
	binary.LittleEndian.PutUint32(oldVersion[len(Magic):], uint32(DataMinVersion-1))
	newVersion := append([]byte{}, valid...)
	binary.LittleEndian.PutUint32(newVersion[len(Magic):], uint32(Version+1))

	tests := map[string]struct {
		in     []byte
		result ReadResult
	}{
		"valid":         {valid, Valid},
		"not a replay":  {[]byte("RIFF0000"), NotAReplay},
		"short":         {[]byte("YARE"), NotAReplay},
		"header":        {flip(len(Magic) + 4 + len(Hash{}) + 4 + 1), Corrupted},
		"header hash":   {flip(len(Magic) + 4), Corrupted},
		"data":          {flip(len(valid) - 1), DataMismatch},
		"truncated":     {valid[:len(Magic)+6], Corrupted},
		"newer version": {newVersion, InvalidVersion},
		"old version":   {oldVersion, MetadataOnly},
	}
	for name, test := range tests {
		_, _, err := Read(test.in)
		if r := ResultOf(err); r != test.result {
			t.Log("test    ", name)
			t.Log("err     ", err)
			t.Log("out     ", r)
			t.Log("expected", test.result)
			t.Fail()
		}
	}
}

func TestReadFile(t *testing.T) {
	c := drumSong()
	f := botFrame(t, c)
	info := NewInfo(c, Hash{}, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), []Frame{f})
	dir := t.TempDir()

	path, err := WriteFile(dir, info, &Data{Frames: []Frame{f}})
	if nil != err {
		t.Fatal(err)
	}
	if filepath.Base(path) != "Artist-Song-Charter-24-01-02-03-04-05.replay" {
		t.Error("file name", path)
	}

	meta, err := ReadMetadata(path)
	if nil != err || meta.Path != path || len(meta.Stats) != 1 {
		t.Error("metadata", meta, err)
	}
	if _, _, err := ReadFile(path); nil != err {
		t.Error(err)
	}

	_, _, err = ReadFile(filepath.Join(dir, "missing.replay"))
	if r := ResultOf(err); r != FileNotFound {
		t.Error("missing file read as", r, err)
	}
}

func TestReplayNameStripsInvalidCharacters(t *testing.T) {
	info := &Info{ArtistName: "AC/DC", SongName: `Who? "Me"`, CharterName: "a|b", Date: time.Date(2020, 12, 31, 23, 59, 58, 0, time.UTC)}
	if name := info.Name(); name != "ACDC-Who Me-ab-20-12-31-23-59-58" {
		t.Error("name", name)
	}
}

var analyzeRates = map[string]float64{
	"direct": 0,
	"30fps":  30,
	"60fps":  60,
	"240fps": 240,
}

func TestAnalyzeBotReplay(t *testing.T) {
	c := drumSong()
	data := &Data{Frames: []Frame{botFrame(t, c), botFrame(t, c)}}

	for name, fps := range analyzeRates {
		a := &Analyzer{Chart: c, FPS: fps, Seed: 7, Workers: 2}
		for i, r := range a.Analyze(data) {
			if nil != r.Err || !r.Passed || !r.NotesMatch {
				t.Log("mode    ", name, "frame", i)
				t.Log("err     ", r.Err)
				t.Log(PrintStatDifferences(&r.Original, &r.Result, chart.FourLaneDrums))
				t.Fail()
			}
		}
	}
}

func TestAnalyzeDetectsTampering(t *testing.T) {
	c := drumSong()
	f := botFrame(t, c)
	var kept []engine.GameInput
	for i, in := range f.Inputs {
		if i%3 != 0 {
			kept = append(kept, in)
		}
	}
	f.Inputs = kept

	a := &Analyzer{Chart: c}
	r := a.Analyze(&Data{Frames: []Frame{f}})[0]
	if nil != r.Err || r.Passed || r.NotesMatch {
		t.Error("tampered replay passed", r.Result)
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	c := drumSong()
	f := botFrame(t, c)
	f.Inputs = f.Inputs[:len(f.Inputs)/2]

	a := &Analyzer{Chart: c, FPS: 60, Seed: 1}
	first := a.Analyze(&Data{Frames: []Frame{f}})[0]
	second := a.Analyze(&Data{Frames: []Frame{f}})[0]
	if first.Result != second.Result {
		t.Log("out     ", second.Result)
		t.Log("expected", first.Result)
		t.Fail()
	}
}

func TestMissingTrack(t *testing.T) {
	c := drumSong()
	f := Frame{
		Profile:    Profile{Instrument: chart.FiveFretGuitarInstrument, Difficulty: chart.Expert},
		Parameters: engine.DefaultParameters(chart.FiveFretGuitarInstrument, chart.Expert),
	}
	r := (&Analyzer{Chart: c}).AnalyzeFrame(&f, nil)
	if nil == r.Err || r.Passed {
		t.Error("analysis of a missing track succeeded")
	}
}

func TestFrameTimes(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	times := FrameTimes(rng, 60, -2, 10)
	if times[0] < -2 || times[len(times)-1] != 10 {
		t.Error("bounds", times[0], times[len(times)-1])
	}
	for i := 1; i < len(times); i++ {
		if times[i] < times[i-1] || times[i] > 10 {
			t.Fatal("frame", i, "at", times[i], "after", times[i-1])
		}
	}
}

func TestPrintStatDifferences(t *testing.T) {
	a := engine.Stats{CommittedScore: 100, Overhits: 1}
	b := a
	b.CommittedScore = 150

	out := PrintStatDifferences(&a, &b, chart.FourLaneDrums)
	if !strings.Contains(out, "- Committed score:") || !strings.Contains(out, "100        -> 150") {
		t.Error("missing difference\n", out)
	}
	if !strings.Contains(out, "Drums stats:\n- Overhits:") || !strings.Contains(out, "1            (identical)") {
		t.Error("missing identical stat\n", out)
	}
}

func TestFrameKeepsDefaultTuning(t *testing.T) {
	// parameters written before anchoring could be turned off
	e := &encoder{}
	e.str("old")
	e.u8(uint8(chart.FiveFretGuitarInstrument))
	e.u8(uint8(chart.Expert))
	e.u32(0)
	e.boolean(false)
	e.u8(uint8(chart.FiveFretGuitar))
	e.f64(1)
	e.bytes([]byte("max_multiplier: 6\nguitar:\n  hopo_leniency: 0.1\n"))
	encodeEngineStats(e, &engine.Stats{})
	e.i32(0)
	e.i32(0)

	d := newDecoder(e.buf.Bytes())
	f := decodeFrame(d)
	if nil != d.err {
		t.Fatal(d.err)
	}
	p := f.Parameters
	if p.MaxMultiplier != 6 || p.Guitar.HopoLeniency != 0.1 {
		t.Error("written fields", p.MaxMultiplier, p.Guitar.HopoLeniency)
	}
	if !p.Guitar.Anchoring || !p.Guitar.AntiGhosting || p.Guitar.StrumLeniency != 0.05 {
		t.Error("missing fields lost their defaults", p.Guitar)
	}
}
