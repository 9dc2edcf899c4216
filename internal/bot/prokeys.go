package bot

import (
	"git.lost.host/meutraa/tally/internal/chart"
	"git.lost.host/meutraa/tally/internal/engine"
)

// proKeysInputs lifts every held key and presses the keys of each chord.
// Keys are pressed again even when already down, since a key only hits a
// note when pressed inside its window.
func proKeysInputs(notes []chart.Note) []engine.GameInput {
	var (
		inputs []engine.GameInput
		held   [chart.KeyCount]bool
	)
	for i := range notes {
		n := &notes[i]
		for key := range held {
			if held[key] {
				inputs = append(inputs, engine.ButtonInput(n.Time, engine.Key1+key, false))
				held[key] = false
			}
		}
		for c := 0; c < n.ChordLen(); c++ {
			key := n.ChordNote(c).Lane
			inputs = append(inputs, engine.ButtonInput(n.Time, engine.Key1+key, true))
			held[key] = true
		}
	}
	return inputs
}
