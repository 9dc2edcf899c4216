package bot

import (
	"git.lost.host/meutraa/tally/internal/chart"
	"git.lost.host/meutraa/tally/internal/engine"
)

const fretCount = engine.WhiteFret + 1

func guitarInputs(notes []chart.Note) []engine.GameInput {
	var (
		inputs []engine.GameInput
		held   byte
		// end time of the extended sustain holding each fret
		sustainEnds [fretCount]float64
	)

	for i := range notes {
		n := &notes[i]
		target := n.NoteMask() &^ chart.OpenMask

		keep := target
		for fret := 0; fret < fretCount; fret++ {
			if sustainEnds[fret] > n.Time {
				keep |= 1 << fret
			}
		}

		changed := false
		for fret := 0; fret < fretCount; fret++ {
			bit := byte(1) << fret
			if held&bit != 0 && keep&bit == 0 {
				inputs = append(inputs, engine.ButtonInput(n.Time, engine.GreenFret+fret, false))
				held &^= bit
				changed = true
			}
		}
		for fret := 0; fret < fretCount; fret++ {
			bit := byte(1) << fret
			if target&bit != 0 && held&bit == 0 {
				inputs = append(inputs, engine.ButtonInput(n.Time, engine.GreenFret+fret, true))
				held |= bit
				changed = true
			}
		}

		// Hopos and taps are hit by the fret change alone.
		if n.IsStrum() || !changed {
			inputs = append(inputs,
				engine.ButtonInput(n.Time, engine.StrumDown, true),
				engine.ButtonInput(n.Time, engine.StrumDown, false),
			)
		}

		for c := 0; c < n.ChordLen(); c++ {
			cn := n.ChordNote(c)
			if !cn.IsExtendedSustain() || cn.Lane == chart.OpenFret {
				continue
			}
			sustainEnds[cn.Lane-chart.GreenFret] = cn.TimeEnd()
		}
	}
	return inputs
}
