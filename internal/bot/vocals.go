package bot

import (
	"git.lost.host/meutraa/tally/internal/chart"
	"git.lost.host/meutraa/tally/internal/engine"
)

// Pitch sung over non pitched notes.
const talkiePitch float32 = 60

// vocalsInputs sings every phrase at the pitch detector's sample rate and
// hits every percussion note.
func vocalsInputs(phrases []chart.Note, sync *chart.SyncTrack, fps float64) []engine.GameInput {
	if fps <= 0 {
		fps = 20
	}
	step := 1 / fps

	var inputs []engine.GameInput
	for i := range phrases {
		phrase := &phrases[i]
		end := phrase.TimeEnd() + step

		for k := 0; ; k++ {
			t := phrase.Time + float64(k)*step
			if t > end {
				break
			}
			n := phrase.NoteAtTick(sync.TimeToTick(t))
			if n == nil {
				continue
			}
			pitch := talkiePitch
			if !n.IsNonPitched() {
				pitch = n.PitchAtSongTime(t)
			}
			inputs = append(inputs, engine.AxisInput(t, engine.Pitch, pitch))
		}

		for c := range phrase.Children {
			n := &phrase.Children[c]
			if !n.IsPercussion() {
				continue
			}
			inputs = append(inputs,
				engine.ButtonInput(n.Time, engine.VocalHit, true),
				engine.ButtonInput(n.Time, engine.VocalHit, false),
			)
		}
	}
	return inputs
}
