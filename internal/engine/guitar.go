package engine

import (
	"log/slog"
	"math"
	"math/bits"

	"git.lost.host/meutraa/tally/internal/chart"
)

// GuitarEngine scores five fret guitar. Chords are scored as a single note.
type GuitarEngine struct {
	Base

	buttonMask     byte
	lastButtonMask byte

	hasFretted     bool
	hasStrummed    bool
	hasTapped      bool
	isFretPress    bool
	wasNoteGhosted bool

	// Time a hopo or tap may swallow a strum after being hit.
	hopoLeniency Timer
	// Time a strum may wait for the correct frets before overstrumming.
	strumLeniency Timer

	// Time the front end of the current note expires after a fret change.
	frontEndExpireTime float64
}

func NewGuitarEngine(d *chart.InstrumentDifficulty, sync *chart.SyncTrack, p Parameters) *GuitarEngine {
	e := &GuitarEngine{
		hopoLeniency:  NewTimer(p.Guitar.HopoLeniency),
		strumLeniency: NewTimer(p.Guitar.StrumLeniency),
	}
	e.init(e, d, sync, p, false)
	return e
}

// ButtonMask is the currently held frets. The open bit is set when no fret is held.
func (e *GuitarEngine) ButtonMask() byte { return e.buttonMask }

func (e *GuitarEngine) IsFretHeld(fret int) bool { return e.buttonMask&(1<<fret) != 0 }

func (e *GuitarEngine) SetSpeed(speed float64) {
	e.Base.SetSpeed(speed)
	e.hopoLeniency.SetSpeed(speed)
	e.strumLeniency.SetSpeed(speed)
}

func (e *GuitarEngine) resetState() {
	e.buttonMask = chart.OpenMask
	e.lastButtonMask = 0
	e.hasFretted = false
	e.hasStrummed = false
	e.hasTapped = true
	e.isFretPress = false
	e.wasNoteGhosted = false
	e.strumLeniency.Disable()
	e.hopoLeniency.Disable()
	e.frontEndExpireTime = 0
}

func (e *GuitarEngine) generateQueuedUpdates(nextTime float64) {
	e.Base.generateQueuedUpdates(nextTime)
	e.queueTimer(&e.hopoLeniency, nextTime, "hopo leniency end")
	e.queueTimer(&e.strumLeniency, nextTime, "strum leniency end")
}

func (e *GuitarEngine) mutateStateWithInput(in GameInput) {
	switch {
	case in.Action == GuitarStarPower:
		e.setStarPowerInput(in.Button)
	case in.Action == Whammy:
		if in.validAxis() {
			e.startWhammy(in.Time)
		}
	case in.Action == StrumUp || in.Action == StrumDown:
		if in.Button {
			e.hasStrummed = true
		}
	case in.Action >= GreenFret && in.Action <= WhiteFret:
		e.lastButtonMask = e.buttonMask
		e.hasFretted = true
		e.isFretPress = in.Button

		if in.Button {
			e.buttonMask |= 1 << in.Action
		} else {
			e.buttonMask &^= 1 << in.Action
		}

		if e.buttonMask&^chart.OpenMask == 0 {
			e.buttonMask |= chart.OpenMask
		} else {
			e.buttonMask &^= chart.OpenMask
		}
	}
}

func (e *GuitarEngine) updateHitLogic(time float64) {
	e.updateStarPower()
	e.updateTimers()

	if e.hasStrummed {
		eaten := false
		if e.hopoLeniency.IsActive {
			// A hopo can only swallow one strum.
			e.strumLeniency.Disable()
			e.hopoLeniency.Disable()
			eaten = true
			e.reRun = true
		} else if e.strumLeniency.IsActive {
			e.overstrum()
		}

		if !eaten {
			offset := 0.0
			if e.noteIndex >= len(e.notes) {
				offset = e.Params.Guitar.StrumLeniencySmall
			} else if in, _ := e.noteInWindow(e.noteIndex, e.currentTime); !in {
				offset = e.Params.Guitar.StrumLeniencySmall
			}
			if offset > 0 {
				e.strumLeniency.StartWithOffset(e.currentTime, offset)
			} else {
				e.strumLeniency.Start(e.currentTime)
			}
			e.reRun = true
		}
	}

	if e.noteIndex >= len(e.notes) {
		e.hasStrummed = false
		e.hasFretted = false
		e.isFretPress = false
		e.updateSustains()
		return
	}

	if e.hasFretted {
		e.hasTapped = true

		w := &e.Params.HitWindow
		frontEnd := w.FrontEnd(w.Size(e.averageNoteDistance(e.noteIndex)))
		e.frontEndExpireTime = e.currentTime + math.Abs(frontEnd)

		ghosted := e.isGhostInput(e.noteIndex)
		e.wasNoteGhosted = e.Params.Guitar.AntiGhosting && (ghosted || e.wasNoteGhosted)
		if ghosted {
			e.stats.GhostInputs++
			e.emit(Event{Type: GhostInput, NoteIndex: e.noteIndex})
		}
	}

	e.checkForNoteHit()
	e.updateSustains()

	e.hasStrummed = false
	e.hasFretted = false
	e.isFretPress = false
}

func (e *GuitarEngine) checkForNoteHit() {
	for i := e.noteIndex; i < len(e.notes); i++ {
		first := i == e.noteIndex
		n := &e.notes[i]

		if n.WasFullyHitOrMissed() {
			break
		}

		in, missed := e.noteInWindow(i, e.currentTime)
		if !in {
			if first && missed {
				e.missNote(ref{index: i})
			}
			break
		}

		if !e.canNoteBeHit(ref{index: i}) {
			// Hopos and taps cannot be skipped over at the start of the song.
			if (n.IsHopo() || n.IsTap()) && e.noteIndex == 0 {
				break
			}
			continue
		}

		// The first note may be a hopo without combo.
		hopo := n.IsHopo() && first && (e.stats.Combo > 0 || e.noteIndex == 0)
		// Taps may skip notes while the combo is broken.
		tap := n.IsTap() && (first || e.stats.Combo == 0)

		frontEndExpired := n.Time > e.frontEndExpireTime
		infiniteFrontEnd := e.Params.Guitar.InfiniteFrontEnd || !frontEndExpired || e.noteIndex == 0

		if e.hasTapped && (hopo || tap) && infiniteFrontEnd && !e.wasNoteGhosted {
			e.hitNote(i)
			break
		}

		if (e.hasStrummed || e.strumLeniency.IsActive) && (first || (e.noteIndex > 0 && e.stats.Combo == 0)) {
			if n.IsHopo() && e.hasStrummed {
				e.stats.HoposStrummed++
			}
			e.hitNote(i)
			break
		}
	}
}

func (e *GuitarEngine) updateTimers() {
	if e.hopoLeniency.IsActive && e.hopoLeniency.IsExpired(e.currentTime) {
		e.hopoLeniency.Disable()
		e.reRun = true
	}

	if e.strumLeniency.IsActive && e.strumLeniency.IsExpired(e.currentTime) {
		e.overstrum()
		e.strumLeniency.Disable()
		e.reRun = true
	}
}

func (e *GuitarEngine) overstrum() {
	// No overstrums before the first note or after the last one.
	if e.noteIndex == 0 {
		return
	}
	if e.noteIndex >= len(e.notes) && len(e.sustains) == 0 {
		return
	}
	if e.waitActive {
		return
	}

	slog.Debug("overstrum", "time", e.currentTime)

	for len(e.sustains) > 0 {
		s := &e.sustains[0]
		e.stats.CommittedScore += int(math.Ceil(e.sustainPoints(s, e.currentTick)))
		e.endSustain(0, true, false)
	}

	if e.noteIndex < len(e.notes) && !e.notes[e.noteIndex].IsStarPowerStart() {
		e.stripStarPower(e.noteIndex)
	}

	e.stats.Combo = 0
	e.stats.Overstrums++
	e.updateMultiplier()
	e.emit(Event{Type: Overstrum, NoteIndex: e.noteIndex})
}

func (e *GuitarEngine) hitNote(index int) {
	n := &e.notes[index]
	if n.WasHit || n.WasMissed {
		return
	}

	if n.IsHopo() || n.IsTap() {
		e.hasTapped = false
		e.hopoLeniency.Start(e.currentTime)
	} else {
		// Hopos and taps after a strummed note may use the infinite front end.
		e.hasTapped = true
		e.frontEndExpireTime = math.MaxFloat64
	}
	e.strumLeniency.Disable()

	noteMask := n.NoteMask()
	for i := 0; i < len(e.sustains); i++ {
		if e.sustainMask(e.sustains[i].note)&noteMask != 0 {
			sn := e.sustains[i].note.note(e.notes)
			e.endSustain(i, true, e.currentTick >= sn.TickEnd())
			i--
		}
	}

	n.SetHitState(true, true)
	e.skipPreviousNotes(index)

	if n.IsStarPower() && n.IsStarPowerEnd() {
		e.awardStarPower(index)
		e.stats.StarPowerPhrasesHit++
	}

	if n.IsSoloStart() {
		e.startSolo()
	}
	e.hitSoloNote(1)
	if n.IsSoloEnd() {
		e.endSolo()
	}

	e.stats.incrementCombo()
	e.stats.NotesHit++
	e.updateMultiplier()

	points := PointsPerNote * n.ChordLen()
	e.stats.NoteScore += points
	e.addScore(points)

	if n.IsDisjoint() {
		for c := 0; c < n.ChordLen(); c++ {
			if n.ChordNote(c).IsSustain() {
				e.startSustain(ref{index: index, child: c})
			}
		}
	} else if n.IsSustain() {
		e.startSustain(ref{index: index})
	}

	e.wasNoteGhosted = false
	e.emit(Event{Type: NoteHit, NoteIndex: index})
	e.advance(ref{index: index})
}

func (e *GuitarEngine) missNote(r ref) {
	n := &e.notes[r.index]
	if n.WasHit || n.WasMissed {
		return
	}

	e.hasTapped = false
	n.SetMissState(true, true)

	if n.IsStarPower() {
		e.stripStarPower(r.index)
	}
	if n.IsSoloEnd() {
		e.endSolo()
	}
	if n.IsSoloStart() {
		e.startSolo()
	}

	e.wasNoteGhosted = false
	e.stats.Combo = 0
	e.updateMultiplier()
	e.emit(Event{Type: NoteMissed, NoteIndex: r.index})
	e.advance(r)
}

// updateMultiplier rebases sustains at the old multiplier so extended
// sustains do not jump in score when it changes.
func (e *GuitarEngine) updateMultiplier() {
	previous := e.stats.ScoreMultiplier
	e.defaultMultiplier()
	next := e.stats.ScoreMultiplier
	if next != previous {
		e.stats.ScoreMultiplier = previous
		e.rebaseSustains(e.currentTick)
		e.stats.ScoreMultiplier = next
	}
}

func (e *GuitarEngine) calculateBaseScore() int {
	score := 0
	for i := range e.notes {
		n := &e.notes[i]
		score += PointsPerNote * n.ChordLen()
		score += int(math.Ceil(float64(n.TickLength) / e.ticksPerSustainPoint))

		// Disjoint chords sustain each note separately.
		if n.IsDisjoint() {
			for c := range n.Children {
				score += int(math.Ceil(float64(n.Children[c].TickLength) / e.ticksPerSustainPoint))
			}
		}
	}
	return score
}

func (e *GuitarEngine) sustainMask(r ref) byte {
	if n := r.note(e.notes); n.IsDisjoint() {
		return n.FretMask()
	}
	return e.notes[r.index].NoteMask()
}

func (e *GuitarEngine) canSustainHold(r ref) bool {
	n := r.note(e.notes)
	mask := e.sustainMask(r)

	buttons := e.buttonMask
	if mask&chart.OpenMask != 0 {
		buttons |= chart.OpenMask
	}
	extendedHold := mask&buttons == mask

	chordMask := e.notes[r.index].NoteMask()
	if chordMask&chart.OpenMask != 0 && chordMask != chart.OpenMask && n.FretMask()&chart.OpenMask != 0 {
		if n.IsDisjoint() || n.IsExtendedSustain() {
			return true
		}
	}

	if n.IsExtendedSustain() {
		return extendedHold
	}
	return e.canNoteBeHit(r)
}

func (e *GuitarEngine) canNoteBeHit(r ref) bool {
	buttons := e.buttonMask
	if len(e.sustains) > 0 {
		for _, s := range e.sustains {
			if s.note.note(e.notes).IsExtendedSustain() {
				buttons &^= e.sustainMask(s.note)
			}
		}

		held := e.buttonMask
		if buttons == 0 {
			buttons |= chart.OpenMask
			held |= chart.OpenMask
		}

		if buttons != held && e.isNoteHittable(r, buttons) {
			return true
		}
	}

	return e.isNoteHittable(r, e.buttonMask)
}

// isNoteHittable reports whether buttons can hit the note. With anchoring,
// lower frets may be held under single notes and hopo or tap chords.
func (e *GuitarEngine) isNoteHittable(r ref, buttons byte) bool {
	n := r.note(e.notes)
	chordMask := e.notes[r.index].NoteMask()
	disjointMask := n.FretMask()

	// Hit disjoint notes are only checked for their own fret while sustaining.
	sustaining := n.IsDisjoint() && n.WasHit
	noteMask := chordMask
	if sustaining {
		noteMask = disjointMask
		if disjointMask&buttons != 0 {
			return true
		}
	}

	// Open chords never anchor.
	if noteMask&chart.OpenMask != 0 && noteMask != chart.OpenMask {
		if buttons|chart.OpenMask == noteMask {
			return true
		}
	}

	if buttons == noteMask {
		return true
	}
	if !e.Params.Guitar.Anchoring {
		return false
	}

	anchor := buttons ^ noteMask

	if e.notes[r.index].IsChord() {
		if n.IsStrum() {
			return buttons == noteMask
		}

		lowest := byte(0)
		for fret := GreenFret; fret <= OrangeFret; fret++ {
			lowest = 1 << fret
			if lowest&chordMask == lowest {
				break
			}
		}
		return lowest >= anchor && buttons-anchor == chordMask
	}

	return anchor < noteMask&^chart.OpenMask
}

// isGhostInput reports whether the last fret press was a hammer-on onto a
// fret the note at index does not use.
func (e *GuitarEngine) isGhostInput(index int) bool {
	n := &e.notes[index]
	if n.Previous == chart.None || !e.isFretPress {
		return false
	}
	if in, _ := e.noteInWindow(index, e.currentTime); !in {
		return false
	}

	hammerOn := bits.Len8(e.buttonMask) > bits.Len8(e.lastButtonMask)
	return hammerOn && e.buttonMask&n.NoteMask() == 0
}
