package engine

import (
	"math"

	"git.lost.host/meutraa/tally/internal/chart"
)

const PointsPerPercussion = 100

// VocalsEngine scores one vocal or harmony part. Its notes are phrases whose
// children are the sung and percussion notes.
type VocalsEngine struct {
	Base

	hasHit    bool
	hasSang   bool
	pitchSang float32

	phraseTicksTotal uint32
	phraseTicksKnown bool
	// Fractional because off pitch singing earns partial ticks.
	phraseTicksHit float64
	lastSingTick   uint32
}

func NewVocalsEngine(d *chart.InstrumentDifficulty, sync *chart.SyncTrack, p Parameters) *VocalsEngine {
	e := &VocalsEngine{}
	e.init(e, d, sync, p, false)
	return e
}

// PitchSang is the last sung pitch as a MIDI note.
func (e *VocalsEngine) PitchSang() float32 { return e.pitchSang }

// PhraseTicksHit is the progress through the current phrase.
func (e *VocalsEngine) PhraseTicksHit() float64 { return e.phraseTicksHit }

func (e *VocalsEngine) resetState() {
	e.hasHit = false
	e.hasSang = false
	e.pitchSang = 0
	e.phraseTicksTotal = 0
	e.phraseTicksKnown = false
	e.phraseTicksHit = 0
	e.lastSingTick = 0
}

func (e *VocalsEngine) mutateStateWithInput(in GameInput) {
	switch in.Action {
	case VocalHit:
		if in.Button {
			e.hasHit = true
		}
	case Pitch:
		// Pitch detection glitches are dropped rather than scored.
		if !in.validAxis() {
			return
		}
		e.hasSang = true
		e.pitchSang = in.Axis
	case VocalsStarPower:
		e.setStarPowerInput(in.Button)
	}
}

func (e *VocalsEngine) generateQueuedUpdates(nextTime float64) {
	e.Base.generateQueuedUpdates(nextTime)
	if e.noteIndex >= len(e.notes) {
		return
	}

	// Phrases resolve on the first tick past their end.
	end := e.sync.TickToTime(e.notes[e.noteIndex].TickEnd() + 1)
	if isTimeBetween(end, e.currentTime, nextTime) {
		e.queueUpdateTime(end, "phrase end")
	}

	if c := e.nextPercussion(e.currentTick); c != nil {
		w := &e.Params.HitWindow
		back := math.Nextafter(c.Time+w.BackEnd(w.Size(w.MaxWindow)), math.Inf(1))
		if isTimeBetween(back, e.currentTime, nextTime) {
			e.queueUpdateTime(back, "percussion back end")
		}
	}
}

func (e *VocalsEngine) updateHitLogic(time float64) {
	e.updateStarPower()

	if e.noteIndex >= len(e.notes) {
		e.hasSang = false
		e.hasHit = false
		return
	}

	index := e.noteIndex
	phrase := &e.notes[index]
	if !e.phraseTicksKnown {
		e.phraseTicksTotal = phrase.PhraseTicks()
		e.phraseTicksKnown = true
	}

	e.checkSingingHit()
	e.checkPercussionHit()

	if e.currentTick <= phrase.TickEnd() {
		return
	}

	hasNotes := e.phraseTicksTotal != 0
	percent := 1.0
	if hasNotes {
		percent = e.phraseTicksHit / float64(e.phraseTicksTotal)
	}

	hit := percent >= e.Params.Vocals.PhraseHitPercent
	if hit {
		e.stats.TicksHit += e.phraseTicksTotal
		if hasNotes && percent >= 1 {
			e.stats.PerfectPhrases++
		}
		e.hitPhrase(index)
	} else {
		ticksHit := uint32(math.Round(e.phraseTicksHit))
		e.stats.TicksHit += ticksHit
		e.stats.TicksMissed += e.phraseTicksTotal - ticksHit
		e.missPhrase(index, percent)
	}

	if hasNotes {
		e.emit(Event{Type: PhraseHit, NoteIndex: index, Active: hit, Value: percent / e.Params.Vocals.PhraseHitPercent})
	}

	e.phraseTicksHit = 0
	e.phraseTicksTotal = 0
	e.phraseTicksKnown = false
}

func (e *VocalsEngine) checkSingingHit() {
	if !e.hasSang {
		return
	}
	e.hasSang = false

	lastSingTick := e.lastSingTick
	e.lastSingTick = e.currentTick

	// This tick was already scored.
	if lastSingTick >= e.currentTick {
		return
	}

	note := e.notes[e.noteIndex].NoteAtTick(e.currentTick)
	if note == nil {
		return
	}

	percent, ok := e.pitchHitPercent(note)
	if !ok {
		return
	}

	// The pitch cannot change between samples, so the ticks since the last
	// sample are credited up to one frame back.
	leniency := 1 / e.Params.Vocals.ApproximateVocalFps
	lastTick := max(e.sync.TimeToTick(e.currentTime-leniency), lastSingTick)
	e.phraseTicksHit += float64(e.currentTick-lastTick) * float64(percent)
}

// pitchHitPercent scores the sung pitch against the note, ignoring octaves.
func (e *VocalsEngine) pitchHitPercent(note *chart.Note) (float32, bool) {
	if note.IsNonPitched() {
		return 1, true
	}

	expected := note.PitchAtSongTime(e.currentTime)
	distance := PitchDistance(e.pitchSang, expected)

	p := &e.Params.Vocals
	if distance <= p.PitchWindowPerfect {
		return 1, true
	}
	if distance > p.PitchWindow {
		return 0, false
	}
	return float32(inverseLerp(float64(p.PitchWindow), float64(p.PitchWindowPerfect), float64(distance))), true
}

// PitchDistance is the distance in semitones between two pitches folded into
// a single octave.
func PitchDistance(sung, expected float32) float32 {
	return min(positiveMod(sung-expected, 12), positiveMod(expected-sung, 12))
}

func positiveMod(a, b float32) float32 {
	r := float32(math.Mod(float64(a), float64(b)))
	if r < 0 {
		r += b
	}
	return r
}

func (e *VocalsEngine) checkPercussionHit() {
	if c := e.nextPercussionIndex(e.currentTick); c != 0 {
		n := e.notes[e.noteIndex].ChordNote(c)
		in, missed := e.windowAt(n.Time, e.Params.HitWindow.MaxWindow, e.currentTime)
		if in && e.hasHit {
			e.hitPercussion(ref{index: e.noteIndex, child: c})
		} else if missed {
			e.missNote(ref{index: e.noteIndex, child: c})
		}
	} else if e.hasHit && e.CanStarPowerActivate() && e.Params.Vocals.SingToActivateStarPower {
		e.activateStarPower()
	}
	e.hasHit = false
}

func (e *VocalsEngine) nextPercussion(tick uint32) *chart.Note {
	if e.noteIndex >= len(e.notes) {
		return nil
	}
	if c := e.nextPercussionIndex(tick); c != 0 {
		return e.notes[e.noteIndex].ChordNote(c)
	}
	return nil
}

// nextPercussionIndex is the chord index of the next unresolved percussion
// note of the current phrase, or 0 when a sung note comes first.
func (e *VocalsEngine) nextPercussionIndex(tick uint32) int {
	phrase := &e.notes[e.noteIndex]
	for i := range phrase.Children {
		n := &phrase.Children[i]
		if !n.IsPercussion() && n.Tick < tick {
			continue
		}
		if n.IsPercussion() && (n.WasHit || n.WasMissed) {
			continue
		}
		if !n.IsPercussion() {
			return 0
		}
		return i + 1
	}
	return 0
}

func (e *VocalsEngine) hitPercussion(r ref) {
	n := r.note(e.notes)
	n.SetHitState(true, false)
	e.addScore(PointsPerPercussion)
	e.stats.NoteScore += PointsPerPercussion
	e.emit(Event{Type: PercussionHit, NoteIndex: r.index, Child: r.child})
}

func (e *VocalsEngine) hitPhrase(index int) {
	phrase := &e.notes[index]
	phrase.SetHitState(true, false)

	if phrase.IsStarPower() {
		e.awardStarPower(index)
		e.stats.StarPowerPhrasesHit++
	}

	if phrase.IsSoloStart() {
		e.startSolo()
	}
	e.hitSoloNote(1)
	if phrase.IsSoloEnd() {
		e.endSolo()
	}

	// Phrases without sung notes count as hit but score nothing.
	if e.phraseTicksTotal != 0 {
		e.stats.incrementCombo()
		e.addScore(e.Params.Vocals.PointsPerPhrase)
		e.stats.NoteScore += e.Params.Vocals.PointsPerPhrase
		e.updateMultiplier()
	}

	e.stats.NotesHit++
	e.emit(Event{Type: NoteHit, NoteIndex: index})
	e.advancePhrase()
}

func (e *VocalsEngine) missPhrase(index int, percent float64) {
	phrase := &e.notes[index]
	phrase.SetMissState(true, false)

	if phrase.IsStarPower() {
		e.stripStarPower(index)
	}
	if phrase.IsSoloEnd() {
		e.endSolo()
	}
	if phrase.IsSoloStart() {
		e.startSolo()
	}

	e.stats.Combo = 0
	e.addScore(int(math.Round(float64(e.Params.Vocals.PointsPerPhrase) * percent)))
	e.updateMultiplier()

	e.emit(Event{Type: NoteMissed, NoteIndex: index})
	e.advancePhrase()
}

// A phrase is resolved as a whole, whatever the state of its children.
func (e *VocalsEngine) advancePhrase() {
	e.noteIndex++
	e.reRun = true
}

func (e *VocalsEngine) missNote(r ref) {
	if r.child == 0 {
		e.missPhrase(r.index, 0)
		return
	}
	r.note(e.notes).SetMissState(true, false)
	e.emit(Event{Type: NoteMissed, NoteIndex: r.index, Child: r.child})
}

// The multiplier grows with every phrase hit.
func (e *VocalsEngine) updateMultiplier() {
	e.stats.ScoreMultiplier = min(e.stats.Combo+1, e.Params.MaxMultiplier)
	if e.stats.IsStarPowerActive {
		e.stats.ScoreMultiplier *= 2
	}
}

func (e *VocalsEngine) calculateBaseScore() int {
	score := 0
	for i := range e.notes {
		if len(e.notes[i].Children) > 0 {
			score += e.Params.Vocals.PointsPerPhrase
		}
	}
	return score
}

func (e *VocalsEngine) canSustainHold(ref) bool { return false }
