package engine

import (
	"log/slog"
	"math"

	"git.lost.host/meutraa/tally/internal/chart"
)

// Press time of a key that has not been pressed since its last note.
const defaultPressTime = -9999

// ProKeysEngine scores pro keys. Every key of a chord is hit separately but
// a chord only adds to the combo once.
type ProKeysEngine struct {
	Base

	keyMask         uint32
	previousKeyMask uint32
	keyPressTimes   [chart.KeyCount]float64

	keyHit      int
	keyReleased int

	// Keys pressed for a chord must all be down before this runs out.
	chordStagger Timer
	// A key next to a note's key is forgiven if released before this runs out.
	fatFinger     Timer
	fatFingerKey  int
	fatFingerNote ref
}

func NewProKeysEngine(d *chart.InstrumentDifficulty, sync *chart.SyncTrack, p Parameters) *ProKeysEngine {
	e := &ProKeysEngine{
		chordStagger: NewTimer(p.ProKeys.ChordStaggerWindow),
		fatFinger:    NewTimer(p.ProKeys.FatFingerWindow),
	}
	e.init(e, d, sync, p, true)
	return e
}

// KeyMask has a bit set for every held key.
func (e *ProKeysEngine) KeyMask() uint32 { return e.keyMask }

// RangeShift is the visible key range at the current tick.
func (e *ProKeysEngine) RangeShift() (chart.RangeShift, bool) {
	return e.chart.RangeShiftAt(e.currentTick)
}

func (e *ProKeysEngine) SetSpeed(speed float64) {
	e.Base.SetSpeed(speed)
	e.chordStagger.SetSpeed(speed)
	e.fatFinger.SetSpeed(speed)
}

func (e *ProKeysEngine) resetState() {
	e.keyMask = 0
	e.previousKeyMask = 0
	for i := range e.keyPressTimes {
		e.keyPressTimes[i] = defaultPressTime
	}
	e.keyHit = -1
	e.keyReleased = -1
	e.chordStagger.Disable()
	e.fatFinger.Disable()
	e.clearFatFinger()
}

func (e *ProKeysEngine) clearFatFinger() {
	e.fatFinger.Disable()
	e.fatFingerKey = -1
	e.fatFingerNote = ref{index: chart.None}
}

func (e *ProKeysEngine) generateQueuedUpdates(nextTime float64) {
	e.Base.generateQueuedUpdates(nextTime)
	e.queueTimer(&e.chordStagger, nextTime, "chord stagger end")
	e.queueTimer(&e.fatFinger, nextTime, "fat finger end")
}

func (e *ProKeysEngine) mutateStateWithInput(in GameInput) {
	switch {
	case in.Action == ProKeysStarPower:
		e.setStarPowerInput(in.Button)
	case in.Action == TouchEffects:
		e.startWhammy(in.Time)
	case in.Action >= Key1 && in.Action < Key1+chart.KeyCount:
		key := in.Action - Key1
		if in.Button {
			e.keyHit = key
		} else {
			e.keyReleased = key
		}
		e.previousKeyMask = e.keyMask
		if in.Button {
			e.keyMask |= 1 << key
		} else {
			e.keyMask &^= 1 << key
		}
		e.keyPressTimes[key] = in.Time
	}
}

func (e *ProKeysEngine) updateHitLogic(time float64) {
	e.updateStarPower()

	if e.fatFinger.IsActive {
		if e.keyReleased == e.fatFingerKey && !e.fatFinger.IsExpired(e.currentTime) {
			// Forgiven once the intended note has been hit.
			if e.fatFingerNote.note(e.notes).WasHit {
				e.clearFatFinger()
			}
		} else if e.fatFinger.IsExpired(e.currentTime) {
			held := e.keyMask&(1<<e.fatFingerKey) != 0
			if held || !e.fatFingerNote.note(e.notes).WasHit {
				e.overhit(e.fatFingerKey)
			}
			e.clearFatFinger()
		}
	}
	e.keyReleased = -1

	if e.noteIndex >= len(e.notes) {
		e.keyHit = -1
		e.updateSustains()
		return
	}

	e.checkForNoteHit()
	e.updateSustains()
}

func (e *ProKeysEngine) checkForNoteHit() {
	index := e.noteIndex
	parent := &e.notes[index]

	w := &e.Params.HitWindow
	size := w.Size(e.averageNoteDistance(index))
	frontEnd, backEnd := w.FrontEnd(size), w.BackEnd(size)

	if in, missed := e.noteInWindow(index, e.currentTime); !in {
		if missed {
			for c := 0; c < parent.ChordLen(); c++ {
				e.missNote(ref{index: index, child: c})
			}
		}
	} else if e.canNoteBeHit(index, frontEnd) {
		for c := 0; c < parent.ChordLen(); c++ {
			e.hitNote(ref{index: index, child: c})
		}
		e.keyHit = -1
	} else if parent.IsChord() {
		if e.chordStagger.IsActive && e.chordStagger.IsExpired(e.currentTime) {
			// Keys held when the stagger window closes are hit, the rest missed.
			for c := 0; c < parent.ChordLen(); c++ {
				n := parent.ChordNote(c)
				if e.keyMask&keyMask(n.Lane) != 0 && e.keyInTime(n, n.Lane, frontEnd) {
					e.hitNote(ref{index: index, child: c})
				} else {
					e.missNote(ref{index: index, child: c})
				}
			}
			e.chordStagger.Disable()
		} else {
			for c := 0; c < parent.ChordLen(); c++ {
				n := parent.ChordNote(c)
				if e.keyHit != n.Lane {
					continue
				}
				if !e.chordStagger.IsActive {
					e.chordStagger.Start(e.currentTime)
					// The stagger window never outlasts the note's back end.
					if missTime := n.Time + backEnd; e.chordStagger.EndTime > missTime {
						diff := missTime - e.chordStagger.EndTime
						e.chordStagger.Start(e.currentTime - math.Abs(diff))
					}
				}
				e.keyHit = -1
				break
			}
		}
	}

	if e.keyHit == -1 {
		return
	}

	// Try the previous note first while it is still close enough to be the
	// intended target, otherwise the upcoming one.
	target := index
	if p := parent.Previous; p != chart.None && e.currentTime-e.notes[p].Time < e.fatFinger.Length() {
		target = p
	}
	adjacent, isAdjacent := e.adjacentNote(target, e.keyHit)
	inWindow, _ := e.noteInWindow(target, e.currentTime)

	if !inWindow || !isAdjacent || e.fatFinger.IsActive {
		e.overhit(e.keyHit)
		e.clearFatFinger()
	} else {
		e.fatFinger.Start(e.currentTime)
		e.fatFingerKey = e.keyHit
		e.fatFingerNote = adjacent
	}
	e.keyHit = -1
}

func (e *ProKeysEngine) adjacentNote(index, key int) (ref, bool) {
	n := &e.notes[index]
	for c := 0; c < n.ChordLen(); c++ {
		if IsAdjacentKey(n.ChordNote(c).Lane, key) {
			return ref{index: index, child: c}, true
		}
	}
	return ref{}, false
}

// IsAdjacentKey reports whether b sits right next to a on the keyboard: a
// semitone apart, or white keys with only a black key between them.
func IsAdjacentKey(a, b int) bool {
	if a > b {
		a, b = b, a
	}
	switch b - a {
	case 1:
		return true
	case 2:
		return chart.IsWhiteKey(a) && chart.IsWhiteKey(b) && !chart.IsWhiteKey(a+1)
	}
	return false
}

func keyMask(key int) uint32 { return 1 << key }

func (e *ProKeysEngine) keyInTime(n *chart.Note, key int, frontEnd float64) bool {
	return e.keyPressTimes[key] > n.Time+frontEnd
}

func (e *ProKeysEngine) canNoteBeHit(index int, frontEnd float64) bool {
	parent := &e.notes[index]

	var chordMask uint32
	for c := 0; c < parent.ChordLen(); c++ {
		chordMask |= keyMask(parent.ChordNote(c).Lane)
	}

	if e.keyMask&chordMask == chordMask {
		for c := 0; c < parent.ChordLen(); c++ {
			n := parent.ChordNote(c)
			if !e.keyInTime(n, n.Lane, frontEnd) {
				return false
			}
		}
		return true
	}

	// After the first note of a glissando any newly pressed key in time hits.
	if parent.Previous != chart.None && parent.IsGlissando() && e.notes[parent.Previous].IsGlissando() {
		pressed := (e.keyMask ^ e.previousKeyMask) & e.keyMask
		for c := 0; c < parent.ChordLen(); c++ {
			n := parent.ChordNote(c)
			for key := 0; pressed>>key != 0; key++ {
				if pressed&keyMask(key) != 0 && e.keyInTime(n, key, frontEnd) {
					e.keyPressTimes[key] = defaultPressTime
					return true
				}
			}
		}
	}

	return false
}

func (e *ProKeysEngine) overhit(key int) {
	if e.noteIndex == 0 {
		return
	}
	if e.noteIndex >= len(e.notes) && len(e.sustains) == 0 {
		return
	}
	if e.waitActive {
		return
	}

	slog.Debug("overhit", "time", e.currentTime, "key", key)

	for len(e.sustains) > 0 {
		s := &e.sustains[0]
		e.stats.CommittedScore += int(math.Ceil(e.sustainPoints(s, e.currentTick)))
		e.endSustain(0, true, false)
	}

	if e.noteIndex < len(e.notes) && !e.notes[e.noteIndex].IsStarPowerStart() {
		e.stripStarPower(e.noteIndex)
	}

	e.stats.Combo = 0
	e.stats.Overhits++
	e.updateMultiplier()
	e.emit(Event{Type: Overhit, NoteIndex: e.noteIndex, Payload: key})
}

func (e *ProKeysEngine) hitNote(r ref) {
	n := r.note(e.notes)
	parent := &e.notes[r.index]
	if n.WasHit || n.WasMissed {
		return
	}

	partiallyHit := false
	for c := 0; c < parent.ChordLen(); c++ {
		if cn := parent.ChordNote(c); cn.WasHit || cn.WasMissed {
			partiallyHit = true
			break
		}
	}

	n.SetHitState(true, false)
	e.keyPressTimes[n.Lane] = defaultPressTime

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

	if parent.WasFullyHit() {
		e.chordStagger.Disable()
	}

	// A chord adds to the combo once.
	if !partiallyHit {
		e.stats.incrementCombo()
	}
	e.stats.NotesHit++
	e.updateMultiplier()

	e.addScore(PointsPerProNote)
	e.stats.NoteScore += PointsPerProNote

	if n.IsSustain() {
		e.startSustain(r)
	}

	e.emit(Event{Type: NoteHit, NoteIndex: r.index, Child: r.child})
	e.advance(r)
}

func (e *ProKeysEngine) missNote(r ref) {
	n := r.note(e.notes)
	parent := &e.notes[r.index]
	if n.WasHit || n.WasMissed {
		return
	}

	n.SetMissState(true, false)
	e.keyPressTimes[n.Lane] = defaultPressTime

	if n.IsStarPower() {
		e.stripStarPower(r.index)
	}
	if n.IsSoloEnd() && parent.WasFullyHitOrMissed() {
		e.endSolo()
	}
	if n.IsSoloStart() {
		e.startSolo()
	}

	// Partially hit chords keep a combo of one.
	if parent.WasFullyMissed() {
		e.stats.Combo = 0
	} else {
		e.stats.Combo = 1
	}
	e.updateMultiplier()

	e.emit(Event{Type: NoteMissed, NoteIndex: r.index, Child: r.child})
	e.advance(r)
}

func (e *ProKeysEngine) updateMultiplier() { e.defaultMultiplier() }

func (e *ProKeysEngine) canSustainHold(r ref) bool {
	return e.keyMask&keyMask(r.note(e.notes).Lane) != 0
}

func (e *ProKeysEngine) calculateBaseScore() int {
	score := 0
	for i := range e.notes {
		n := &e.notes[i]
		score += PointsPerProNote * n.ChordLen()
		for c := 0; c < n.ChordLen(); c++ {
			score += int(math.Ceil(float64(n.ChordNote(c).TickLength) / e.ticksPerSustainPoint))
		}
	}
	return score
}
