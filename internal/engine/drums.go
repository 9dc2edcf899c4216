package engine

import (
	"log/slog"

	"git.lost.host/meutraa/tally/internal/chart"
)

// DrumsEngine scores four lane, pro and five lane drums. Every note of a
// chord is hit separately.
type DrumsEngine struct {
	Base

	padHit   int
	velocity float32
	// velocities of hit ghost and accent notes
	velocities map[ref]float32
}

func NewDrumsEngine(d *chart.InstrumentDifficulty, sync *chart.SyncTrack, p Parameters) *DrumsEngine {
	e := &DrumsEngine{padHit: -1, velocities: make(map[ref]float32)}
	e.init(e, d, sync, p, true)
	return e
}

func (e *DrumsEngine) resetState() {
	e.resetPad()
	clear(e.velocities)
}

func (e *DrumsEngine) resetPad() {
	e.padHit = -1
	e.velocity = 0
}

// PadForAction maps an input action to a pad of the engine's lane layout,
// or -1 when the layout has no such pad.
func (e *DrumsEngine) PadForAction(action int) int {
	if e.Params.Mode == chart.FiveLaneDrums {
		switch action {
		case KickPedal:
			return chart.FiveLaneKick
		case RedPad:
			return chart.FiveLaneRed
		case BluePad:
			return chart.FiveLaneBlue
		case GreenPad:
			return chart.FiveLaneGreen
		case YellowCymbalPad:
			return chart.FiveLaneYellow
		case OrangeCymbalPad:
			return chart.FiveLaneOrange
		}
		return -1
	}

	switch action {
	case KickPedal:
		return chart.Kick
	case RedPad:
		return chart.RedDrum
	case YellowPad:
		return chart.YellowDrum
	case BluePad:
		return chart.BlueDrum
	case GreenPad:
		return chart.GreenDrum
	}
	if !e.Params.ProDrums {
		switch action {
		case YellowCymbalPad:
			return chart.YellowDrum
		case BlueCymbalPad:
			return chart.BlueDrum
		case GreenCymbalPad:
			return chart.GreenDrum
		}
		return -1
	}
	switch action {
	case YellowCymbalPad:
		return chart.YellowCymbal
	case BlueCymbalPad:
		return chart.BlueCymbal
	case GreenCymbalPad:
		return chart.GreenCymbal
	}
	return -1
}

// ActionForPad is the inverse of PadForAction.
func (e *DrumsEngine) ActionForPad(pad int) int {
	if e.Params.Mode == chart.FiveLaneDrums {
		switch pad {
		case chart.FiveLaneRed:
			return RedPad
		case chart.FiveLaneYellow:
			return YellowCymbalPad
		case chart.FiveLaneBlue:
			return BluePad
		case chart.FiveLaneOrange:
			return OrangeCymbalPad
		case chart.FiveLaneGreen:
			return GreenPad
		}
		return KickPedal
	}
	switch pad {
	case chart.RedDrum:
		return RedPad
	case chart.YellowDrum:
		return YellowPad
	case chart.BlueDrum:
		return BluePad
	case chart.GreenDrum:
		return GreenPad
	case chart.YellowCymbal:
		return YellowCymbalPad
	case chart.BlueCymbal:
		return BlueCymbalPad
	case chart.GreenCymbal:
		return GreenCymbalPad
	}
	return KickPedal
}

// padOf is the pad a note is hit with. Cymbals are played as toms outside
// of pro drums.
func (e *DrumsEngine) padOf(n *chart.Note) int {
	if e.Params.Mode == chart.FourLaneDrums && !e.Params.ProDrums {
		switch n.Lane {
		case chart.YellowCymbal:
			return chart.YellowDrum
		case chart.BlueCymbal:
			return chart.BlueDrum
		case chart.GreenCymbal:
			return chart.GreenDrum
		}
	}
	return n.Lane
}

func (e *DrumsEngine) mutateStateWithInput(in GameInput) {
	// Pads are axes so that velocity is kept. Releases have a zero axis.
	if !in.validAxis() || in.Axis <= 0 {
		return
	}
	e.padHit = e.PadForAction(in.Action)
	e.velocity = min(in.Axis, 1)
}

func (e *DrumsEngine) updateHitLogic(time float64) {
	e.updateStarPower()

	if e.noteIndex < len(e.notes) {
		e.checkForNoteHit()
	} else if e.padHit != -1 {
		e.resetPad()
	}
}

func (e *DrumsEngine) checkForNoteHit() {
	for i := e.noteIndex; i < len(e.notes); i++ {
		first := i == e.noteIndex
		parent := &e.notes[i]
		stop := false

		for c := 0; c < parent.ChordLen(); c++ {
			r := ref{index: i, child: c}
			n := parent.ChordNote(c)

			in, missed := e.noteInWindow(i, e.currentTime)
			if !in {
				if first && missed {
					// Missing one note of a chord out the back end misses all of it.
					for m := 0; m < parent.ChordLen(); m++ {
						mr := ref{index: i, child: m}
						// Skipping a star power activator is not penalised.
						if parent.IsStarPowerActivator() && e.CanStarPowerActivate() {
							e.hitNote(mr, true)
							continue
						}
						e.missNote(mr)
					}
				}
				stop = true
				break
			}

			if e.padOf(n) != e.padHit {
				continue
			}
			if n.WasHit || n.WasMissed {
				// A second hit on a resolved pad of the chord is swallowed.
				e.resetPad()
				stop = true
				break
			}

			bonus := e.applyVelocity(r)
			e.hitNote(r, false)
			if bonus {
				e.addScore(PointsPerNote / 2)
			}
			e.resetPad()

			// One input hits at most one note.
			stop = true
			break
		}

		if stop {
			break
		}
	}

	if e.padHit != -1 {
		e.overhit()
		e.resetPad()
	}
}

func (e *DrumsEngine) overhit() {
	if e.noteIndex == 0 {
		return
	}
	if e.noteIndex >= len(e.notes)-1 {
		return
	}
	// Free play between sections.
	if e.waitActive {
		return
	}

	slog.Debug("overhit", "time", e.currentTime, "pad", e.padHit)

	if !e.notes[e.noteIndex].IsStarPowerStart() {
		e.stripStarPower(e.noteIndex)
	}

	e.stats.Combo = 0
	e.stats.Overhits++
	e.updateMultiplier()
	e.emit(Event{Type: Overhit, NoteIndex: e.noteIndex, Payload: e.padHit})
}

// applyVelocity reports whether a ghost or accent note was hit softly or
// hard enough to earn the dynamics bonus. The threshold follows the last
// hit on the same pad within the situational window.
func (e *DrumsEngine) applyVelocity(r ref) bool {
	n := r.note(e.notes)
	if n.Type == chart.Neutral {
		return false
	}
	e.velocities[r] = e.velocity

	threshold := float32(e.Params.Drums.VelocityThreshold)
	window := e.Params.Drums.SituationalVelocityWindow

search:
	for p := e.notes[r.index].Previous; p != chart.None; p = e.notes[p].Previous {
		prev := &e.notes[p]
		if n.Time-prev.Time > window {
			break
		}
		for c := 0; c < prev.ChordLen(); c++ {
			cn := prev.ChordNote(c)
			v, ok := e.velocities[ref{index: p, child: c}]
			if !ok || cn.Lane != n.Lane {
				continue
			}
			relative := v
			if cn.Type != n.Type {
				relative = v - float32(e.Params.Drums.VelocityThreshold)
			}
			threshold = max(threshold, relative)
			break search
		}
	}

	if n.IsGhost() {
		return e.velocity < threshold
	}
	return e.velocity > 1-threshold
}

func (e *DrumsEngine) hitNote(r ref, activationAutoHit bool) {
	n := r.note(e.notes)
	parent := &e.notes[r.index]
	if n.WasHit || n.WasMissed {
		return
	}

	n.SetHitState(true, false)
	e.skipPreviousNotes(r.index)

	// The last hit note of the chord awards the phrase.
	if n.IsStarPower() && n.IsStarPowerEnd() && parent.WasFullyHit() {
		e.awardStarPower(r.index)
		e.stats.StarPowerPhrasesHit++
	}

	if n.IsSoloStart() {
		e.startSolo()
	}
	e.hitSoloNote(1)
	if n.IsSoloEnd() && parent.WasFullyHitOrMissed() {
		e.endSolo()
	}

	if !activationAutoHit && parent.IsStarPowerActivator() && e.CanStarPowerActivate() && parent.WasFullyHit() {
		e.activateStarPower()
	}

	e.stats.incrementCombo()
	e.stats.NotesHit++
	e.updateMultiplier()

	points := e.pointsPerNote()
	e.addScore(points)
	e.stats.NoteScore += points

	if !activationAutoHit {
		e.emit(Event{Type: NoteHit, NoteIndex: r.index, Child: r.child, Value: float64(e.velocity)})
	}
	e.advance(r)
}

func (e *DrumsEngine) missNote(r ref) {
	n := r.note(e.notes)
	if n.WasHit || n.WasMissed {
		return
	}

	n.SetMissState(true, false)

	if n.IsStarPower() {
		e.stripStarPower(r.index)
	}
	if n.IsSoloEnd() && e.notes[r.index].WasFullyHitOrMissed() {
		e.endSolo()
	}
	if n.IsSoloStart() {
		e.startSolo()
	}

	e.stats.Combo = 0
	e.updateMultiplier()
	e.emit(Event{Type: NoteMissed, NoteIndex: r.index, Child: r.child})
	e.advance(r)
}

func (e *DrumsEngine) pointsPerNote() int {
	if e.Params.ProDrums {
		return PointsPerProNote
	}
	return PointsPerNote
}

func (e *DrumsEngine) updateMultiplier() { e.defaultMultiplier() }

func (e *DrumsEngine) calculateBaseScore() int {
	score := 0
	for i := range e.notes {
		score += e.pointsPerNote() * e.notes[i].ChordLen()
	}
	return score
}

// Drums have no sustains.
func (e *DrumsEngine) canSustainHold(ref) bool { return false }
