package bot

import (
	"git.lost.host/meutraa/tally/internal/chart"
	"git.lost.host/meutraa/tally/internal/engine"
)

func drumsInputs(e *engine.DrumsEngine, notes []chart.Note) []engine.GameInput {
	var inputs []engine.GameInput
	for i := range notes {
		n := &notes[i]
		for c := 0; c < n.ChordLen(); c++ {
			cn := n.ChordNote(c)
			inputs = append(inputs, engine.AxisInput(cn.Time, e.ActionForPad(cn.Lane), velocity(cn)))
		}
	}
	return inputs
}

func velocity(n *chart.Note) float32 {
	switch {
	case n.IsAccent():
		return AccentVelocity
	case n.IsGhost():
		return GhostVelocity
	}
	return NeutralVelocity
}
