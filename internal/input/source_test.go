package input

import (
	"testing"
	"time"

	"github.com/eiannone/keyboard"

	"git.lost.host/meutraa/tally/internal/bot"
	"git.lost.host/meutraa/tally/internal/chart"
	"git.lost.host/meutraa/tally/internal/chart/charttest"
	"git.lost.host/meutraa/tally/internal/engine"
)

func TestRecordedPoll(t *testing.T) {
	r := NewRecorded([]engine.GameInput{
		engine.ButtonInput(1, engine.StrumDown, true),
		engine.ButtonInput(0.25, engine.GreenFret, true),
		engine.ButtonInput(0.5, engine.RedFret, true),
	})

	if out := r.Poll(0.5); len(out) != 2 || out[0].Action != engine.GreenFret || out[1].Action != engine.RedFret {
		t.Error("unexpected first poll", out)
	}
	if out := r.Poll(0.75); len(out) != 0 {
		t.Error("inputs were handed out twice", out)
	}
	if out := r.Poll(2); len(out) != 1 || out[0].Action != engine.StrumDown {
		t.Error("unexpected last poll", out)
	}
}

func TestRecorderKeepsInputs(t *testing.T) {
	log := []engine.GameInput{
		engine.AxisInput(0, engine.RedPad, 1),
		engine.AxisInput(1, engine.BluePad, 1),
	}
	r := &Recorder{Source: NewRecorded(log)}
	r.Poll(0.5)
	r.Poll(5)

	if len(r.Inputs()) != 2 || r.Inputs()[1] != log[1] {
		t.Error("recorder lost inputs", r.Inputs())
	}
}

func drumChart() (*chart.InstrumentDifficulty, *charttest.Builder) {
	b := charttest.New(chart.Drums)
	for i := uint32(0); i < 24; i++ {
		b.Add(i*160, chart.RedDrum+int(i%4), chart.Neutral)
		if i%3 == 0 {
			b.Add(i*160, chart.Kick, chart.Neutral)
		}
	}
	return b.Build(), b
}

var frameRates = []float64{15, 60, 144, 1000}

func TestDriveIsFrameRateIndependent(t *testing.T) {
	var first *engine.Stats
	for _, fps := range frameRates {
		d, b := drumChart()
		p := engine.DefaultParameters(chart.FourLaneDrumsInstrument, chart.Expert)
		e := engine.NewDrumsEngine(d, b.Sync, p)

		inputs := bot.Inputs(e, b.Sync, p)
		// Every fourth hit goes to the wrong pad.
		for i := 0; i < len(inputs); i += 4 {
			inputs[i].Action = engine.GreenCymbalPad
		}
		Drive(e, NewRecorded(inputs), -1, 6, 1/fps)

		s := *e.Stats()
		if nil == first {
			first = &s
			continue
		}
		if s != *first {
			t.Log("fps     ", fps)
			t.Log("out     ", s)
			t.Log("expected", *first)
			t.Fail()
		}
	}
	if first.NotesHit == first.TotalNotes || first.NotesHit == 0 {
		t.Error("expected a partial result, hit", first.NotesHit)
	}
}

func TestLiveSourceStamps(t *testing.T) {
	l := newLiveSource()
	zero := time.Unix(100, 0)
	l.Start(zero)

	l.events <- stamped{at: zero.Add(250 * time.Millisecond), in: engine.AxisInput(0, engine.RedPad, 1)}
	l.events <- stamped{at: zero.Add(2 * time.Second), in: engine.AxisInput(0, engine.KickPedal, 1)}

	out := l.Poll(1)
	if len(out) != 1 || out[0].Time != 0.25 || out[0].Action != engine.RedPad {
		t.Fatal("unexpected inputs before one second", out)
	}
	out = l.Poll(3)
	if len(out) != 1 || out[0].Time != 2 {
		t.Error("pending input was not kept", out)
	}
}

var drumKeysTests = map[string]bool{
	DefaultDrumKeys: true,
	"asdfghjkl":     true,
	"asdf":          false,
	"aadfghjkl":     false,
}

func TestDrumKeys(t *testing.T) {
	for keys, valid := range drumKeysTests {
		m, err := DrumKeys(keys)
		if (nil == err) != valid {
			t.Log("keys    ", keys)
			t.Log("err     ", err)
			t.Fail()
			continue
		}
		if valid && m[[]rune(keys)[0]] != engine.KickPedal {
			t.Error("first key is not the kick pedal", keys)
		}
	}
}

func TestProKeysCodesAreDistinct(t *testing.T) {
	codes := DefaultKeyCodes(chart.ProKeysMode)
	if len(codes) != chart.KeyCount+2 {
		t.Error("expected a code per key plus star power and touch effects, got", len(codes))
	}
}

func TestKeyboardReadMapsKeys(t *testing.T) {
	k := newKeyboardSource()
	keys := map[rune]int{'a': engine.RedPad, ' ': engine.KickPedal}
	keyChannel := make(chan keyboard.KeyEvent, 4)
	keyChannel <- keyboard.KeyEvent{Rune: 'a'}
	keyChannel <- keyboard.KeyEvent{Rune: 'z'}
	keyChannel <- keyboard.KeyEvent{Key: keyboard.KeySpace}
	keyChannel <- keyboard.KeyEvent{Key: keyboard.KeyEsc}
	close(keyChannel)

	k.read(keyChannel, keys, 0.5)

	select {
	case <-k.Quit():
	default:
		t.Error("escape did not quit")
	}
	out := k.Poll(time.Since(k.zero).Seconds() + 1)
	if len(out) != 2 || out[0].Action != engine.RedPad || out[1].Action != engine.KickPedal || out[0].Axis != 0.5 {
		t.Error("unexpected inputs", out)
	}
}

func TestKeyboardReaderStopsWhenFull(t *testing.T) {
	k := newKeyboardSource()
	keyChannel := make(chan keyboard.KeyEvent)
	finished := make(chan struct{})
	go func() {
		k.read(keyChannel, map[rune]int{'a': engine.RedPad}, 1)
		close(finished)
	}()

	// Nothing polls, so the reader blocks on the last key.
	for i := 0; i <= cap(k.events); i++ {
		keyChannel <- keyboard.KeyEvent{Rune: 'a'}
	}
	k.stop()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("reader did not return after the source stopped")
	}
	if len(k.events) != cap(k.events) {
		t.Error("buffered inputs", len(k.events))
	}
}
