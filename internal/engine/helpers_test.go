package engine_test

import (
	"git.lost.host/meutraa/tally/internal/chart"
	"git.lost.host/meutraa/tally/internal/engine"
)

func play(e engine.Engine, end float64, inputs ...engine.GameInput) {
	for _, in := range inputs {
		e.QueueInput(in)
	}
	e.Update(end)
}

func press(time float64, action int) engine.GameInput {
	return engine.ButtonInput(time, action, true)
}

func release(time float64, action int) engine.GameInput {
	return engine.ButtonInput(time, action, false)
}

func strum(time float64) engine.GameInput {
	return press(time, engine.StrumDown)
}

func pad(time float64, action int, velocity float32) engine.GameInput {
	return engine.AxisInput(time, action, velocity)
}

func hitStates(notes []chart.Note) []bool {
	var out []bool
	for i := range notes {
		for c := 0; c < notes[i].ChordLen(); c++ {
			out = append(out, notes[i].ChordNote(c).WasHit)
		}
	}
	return out
}
