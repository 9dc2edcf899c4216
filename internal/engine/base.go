package engine

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"git.lost.host/meutraa/tally/internal/chart"
)

const (
	PointsPerNote    = 50
	PointsPerProNote = PointsPerNote + 10
	PointsPerBeat    = 25

	// Star power drains over at most this many measures.
	starPowerMaxMeasures = 8
	// A full bar is gained from this many beats of whammy, two short of the
	// drain length for leniency.
	starPowerMaxBeats = starPowerMaxMeasures*4 - 2

	sustainBurstFraction = 4
)

// Engine is the scoring state machine of one player.
type Engine interface {
	// QueueInput buffers an input for the next Update. Inputs earlier than
	// a previously queued input or the current time are moved forward.
	QueueInput(in GameInput)
	// Update advances the engine to time, processing queued inputs up to it.
	Update(time float64)
	Reset()
	SetSpeed(speed float64)
	AllowStarPower(allowed bool)

	Mode() chart.GameMode
	Stats() *Stats
	Notes() []chart.Note
	NoteIndex() int
	CurrentTime() float64
	BaseScore() int
	CanStarPowerActivate() bool
	StarPowerBarAmount() float64
	// CalculateHitWindow returns the front and back end offsets of the
	// current note.
	CalculateHitWindow() (float64, float64)
	// Events drains the notifications produced since the last call.
	Events() []Event
}

// New builds the engine for the game mode of p.
func New(d *chart.InstrumentDifficulty, sync *chart.SyncTrack, p Parameters) (Engine, error) {
	if d.Kind != p.Mode.Kind() {
		return nil, fmt.Errorf("%w: %v notes for a %v engine", chart.ErrInvalidOperation, d.Kind, p.Mode)
	}
	switch p.Mode {
	case chart.FiveFretGuitar:
		return NewGuitarEngine(d, sync, p), nil
	case chart.FourLaneDrums, chart.FiveLaneDrums:
		return NewDrumsEngine(d, sync, p), nil
	case chart.VocalsMode:
		return NewVocalsEngine(d, sync, p), nil
	case chart.ProKeysMode:
		return NewProKeysEngine(d, sync, p), nil
	}
	return nil, fmt.Errorf("%w: no engine for game mode %v", chart.ErrInvalidOperation, p.Mode)
}

// rules is implemented by each instrument engine and called back by Base.
type rules interface {
	mutateStateWithInput(in GameInput)
	updateHitLogic(time float64)
	generateQueuedUpdates(nextTime float64)
	canSustainHold(r ref) bool
	missNote(r ref)
	updateMultiplier()
	resetState()
	calculateBaseScore() int
}

type syncChange struct {
	index int
	tempo chart.Tempo
	sig   chart.TimeSignature
	time  float64
	tick  uint32
}

type frameUpdate struct {
	time   float64
	reason string
}

type activeSustain struct {
	note               ref
	baseTick           uint32
	baseScore          float64
	hasFinishedScoring bool
	isLeniencyHeld     bool
	leniencyDropTime   float64
}

// Base holds the state shared by every instrument engine: the clock, the
// input and update queues, scoring, star power, solos and sustains.
type Base struct {
	rules rules

	Params Parameters
	stats  Stats
	sync   *chart.SyncTrack
	chart  *chart.InstrumentDifficulty
	notes  []chart.Note
	events EventQueue

	resolution     uint32
	chordsSeparate bool

	TicksPerQuarterSpBar uint32
	TicksPerHalfSpBar    uint32
	TicksPerFullSpBar    uint32

	ticksPerSustainPoint  float64
	sustainBurstThreshold uint32
	baseScore             int
	starThresholds        []int

	solos     []SoloSection
	changes   []syncChange
	spTicks   []float64
	syncIndex int

	inputs    []GameInput
	inputHead int
	scheduled []frameUpdate

	noteIndex           int
	currentTime         float64
	lastUpdateTime      float64
	lastQueuedInputTime float64
	currentTick         uint32
	lastTick            uint32

	soloIndex  int
	starIndex  int
	soloActive bool

	waits      []waitCountdown
	waitIndex  int
	waitActive bool

	starPowerAllowed     bool
	starPowerInputActive bool
	whammyTimer          Timer
	lastWhammyTick       uint32

	spTickPosition           uint32
	previousSpTickPosition   uint32
	spTickActivationPosition uint32
	spTickEndPosition        uint32
	spActivationTime         float64
	spEndTime                float64

	sustains []activeSustain
	reRun    bool
}

func (b *Base) init(r rules, d *chart.InstrumentDifficulty, sync *chart.SyncTrack, p Parameters, chordsSeparate bool) {
	b.rules = r
	b.Params = p
	b.Params.HitWindow.Normalize()
	if b.Params.SongSpeed == 0 {
		b.Params.SongSpeed = 1
	}
	if b.Params.MaxMultiplier == 0 {
		b.Params.MaxMultiplier = 4
	}
	b.sync = sync
	b.chart = d
	b.notes = d.Notes
	b.resolution = sync.Resolution
	b.chordsSeparate = chordsSeparate
	b.starPowerAllowed = true

	b.TicksPerQuarterSpBar = uint32(math.Round(float64(starPowerMaxBeats) / 4 * float64(b.resolution)))
	b.TicksPerHalfSpBar = b.TicksPerQuarterSpBar * 2
	b.TicksPerFullSpBar = b.TicksPerQuarterSpBar * 4
	b.ticksPerSustainPoint = float64(b.resolution) / PointsPerBeat
	b.sustainBurstThreshold = b.resolution / sustainBurstFraction
	b.whammyTimer = NewTimer(p.StarPowerWhammyBuffer)

	b.buildSyncChanges()

	for i := range b.notes {
		b.stats.TotalNotes += b.numberOfNotes(&b.notes[i])
	}
	for i := range b.notes {
		n := &b.notes[i]
		if n.IsStarPowerEnd() || (d.Kind == chart.Vocals && n.IsStarPower()) {
			b.stats.TotalStarPowerPhrases++
		}
	}

	b.Reset()

	b.baseScore = r.calculateBaseScore()
	b.starThresholds = make([]int, len(p.StarMultiplierThresholds))
	for i, m := range p.StarMultiplierThresholds {
		b.starThresholds[i] = int(float64(b.baseScore) * float64(m))
	}
	b.solos = b.soloSections()
	b.waits = b.waitCountdowns()
}

// buildSyncChanges merges tempo and time signature markers into one list and
// records how many star power ticks have elapsed at each.
func (b *Base) buildSyncChanges() {
	s := b.sync
	sigIndex := 0
	for i, tempo := range s.Tempos {
		b.changes = append(b.changes, syncChange{
			index: len(b.changes), tempo: tempo, sig: s.TimeSignatures[sigIndex], time: tempo.Time, tick: tempo.Tick,
		})

		nextTempoTick := uint32(math.MaxUint32)
		if i+1 < len(s.Tempos) {
			nextTempoTick = s.Tempos[i+1].Tick
		}
		for next := sigIndex + 1; next < len(s.TimeSignatures); next++ {
			sig := s.TimeSignatures[next]
			if sig.Tick >= nextTempoTick {
				break
			}
			if sig.Tick == tempo.Tick {
				b.changes[len(b.changes)-1].sig = sig
			} else {
				b.changes = append(b.changes, syncChange{
					index: len(b.changes), tempo: tempo, sig: sig, time: sig.Time, tick: sig.Tick,
				})
			}
			sigIndex = next
		}
	}

	b.spTicks = append(b.spTicks[:0], 0)
	for i := 1; i < len(b.changes); i++ {
		prev := b.changes[i-1]
		delta := b.changes[i].time - prev.time
		b.spTicks = append(b.spTicks, b.spTicks[i-1]+b.drainPeriodToTicks(delta, prev.tempo, prev.sig))
	}
}

func (b *Base) Mode() chart.GameMode      { return b.Params.Mode }
func (b *Base) Stats() *Stats             { return &b.stats }
func (b *Base) Notes() []chart.Note       { return b.notes }
func (b *Base) NoteIndex() int            { return b.noteIndex }
func (b *Base) CurrentTime() float64      { return b.currentTime }
func (b *Base) CurrentTick() uint32       { return b.currentTick }
func (b *Base) BaseScore() int            { return b.baseScore }
func (b *Base) Solos() []SoloSection      { return b.solos }
func (b *Base) Events() []Event           { return b.events.Consume() }
func (b *Base) IsSoloActive() bool        { return b.soloActive }
func (b *Base) StarPowerEndTime() float64 { return b.spEndTime }
func (b *Base) IsStarPowerAllowed() bool  { return b.starPowerAllowed }

func (b *Base) CanStarPowerActivate() bool {
	return b.stats.StarPowerTickAmount >= b.TicksPerHalfSpBar
}

func (b *Base) StarPowerBarAmount() float64 {
	return float64(b.stats.StarPowerTickAmount) / float64(b.TicksPerFullSpBar)
}

func (b *Base) numberOfNotes(n *chart.Note) int {
	if b.chordsSeparate {
		return n.ChordLen()
	}
	return 1
}

func (b *Base) emit(e Event) {
	e.Time = b.currentTime
	b.events.Push(e)
}

func (b *Base) QueueInput(in GameInput) {
	if in.Time < b.lastQueuedInputTime {
		slog.Warn("input moved forward to the last queued input", "queued", b.lastQueuedInputTime, "input", in.Time)
		in.Time = b.lastQueuedInputTime
	}
	if in.Time < b.currentTime {
		slog.Warn("input moved forward to the current time", "current", b.currentTime, "input", in.Time)
		in.Time = b.currentTime
	}
	b.inputs = append(b.inputs, in)
	b.lastQueuedInputTime = in.Time
}

func (b *Base) Update(time float64) {
	b.processInputs(time)
	b.runQueuedUpdates(time)
	b.runEngineLoop(time)
}

func (b *Base) processInputs(time float64) {
	for b.inputHead < len(b.inputs) {
		in := b.inputs[b.inputHead]
		if in.Time > time {
			break
		}
		b.inputHead++

		if in.Time < b.currentTime {
			slog.Warn("skipping input in the past", "current", b.currentTime, "input", in.Time)
			continue
		}

		b.runQueuedUpdates(in.Time)
		b.rules.mutateStateWithInput(in)
		b.runEngineLoop(in.Time)
	}
	if b.inputHead == len(b.inputs) {
		b.inputs = b.inputs[:0]
		b.inputHead = 0
	}
}

// runQueuedUpdates runs the engine at every scheduled time before time, so
// that timers, window edges and sustain ends are evaluated exactly when they
// happen regardless of how often Update is called.
func (b *Base) runQueuedUpdates(time float64) {
	b.rules.generateQueuedUpdates(time)
	b.sortScheduled()

	for len(b.scheduled) > 0 {
		next := b.scheduled[0]
		if next.time <= b.currentTime {
			b.scheduled = b.scheduled[1:]
			continue
		}
		if next.time >= time {
			break
		}

		slog.Debug("running scheduled update", "time", next.time, "reason", next.reason)
		b.runEngineLoop(next.time)
		b.scheduled = b.scheduled[1:]

		if len(b.scheduled) > 0 {
			b.rules.generateQueuedUpdates(b.scheduled[0].time)
		} else {
			b.rules.generateQueuedUpdates(time)
		}
		b.sortScheduled()
	}
}

func (b *Base) sortScheduled() {
	sort.SliceStable(b.scheduled, func(i, j int) bool { return b.scheduled[i].time < b.scheduled[j].time })
}

func (b *Base) queueUpdateTime(time float64, reason string) {
	if time <= b.currentTime {
		return
	}
	for _, u := range b.scheduled {
		if u.time == time {
			return
		}
	}
	b.scheduled = append(b.scheduled, frameUpdate{time: time, reason: reason})
}

func (b *Base) runEngineLoop(time float64) {
	for {
		b.reRun = false
		b.updateTimeVariables(time)
		b.rules.updateHitLogic(time)
		if !b.reRun {
			return
		}
	}
}

func (b *Base) updateTimeVariables(time float64) {
	if time < b.currentTime {
		slog.Warn("time went backwards", "current", b.currentTime, "time", time)
	}
	b.lastUpdateTime = b.currentTime
	b.lastTick = b.currentTick
	b.currentTime = time
	b.currentTick = b.sync.TimeToTick(time)

	for b.syncIndex+1 < len(b.changes) && b.currentTick >= b.changes[b.syncIndex+1].tick {
		b.syncIndex++
	}
	b.updateWaitCountdown()
}

// generateQueuedUpdates schedules the shared update points between the
// current time and nextTime.
func (b *Base) generateQueuedUpdates(nextTime float64) {
	previous := b.currentTime

	if b.stats.IsStarPowerActive && isTimeBetween(b.spEndTime, previous, nextTime) {
		b.queueUpdateTime(b.spEndTime, "star power end")
	}

	for i := range b.sustains {
		s := &b.sustains[i]
		n := s.note.note(b.notes)
		burst := b.sync.TickToTime(b.burstTick(n))
		end := n.TimeEnd()
		drop := s.leniencyDropTime + b.Params.SustainDropLeniency*b.Params.SongSpeed

		if s.isLeniencyHeld && isTimeBetween(drop, previous, nextTime) {
			b.queueUpdateTime(drop, "sustain leniency drop")
		}
		if isTimeBetween(burst, previous, nextTime) {
			b.queueUpdateTime(burst, "sustain burst")
		}
		if isTimeBetween(end, previous, nextTime) {
			b.queueUpdateTime(end, "sustain end")
		}
	}

	for i := b.noteIndex; i < len(b.notes); i++ {
		n := &b.notes[i]
		size := b.Params.HitWindow.Size(b.averageNoteDistance(i))
		front := n.Time + b.Params.HitWindow.FrontEnd(size)
		back := n.Time + b.Params.HitWindow.BackEnd(size)

		if nextTime < front {
			break
		}
		if isTimeBetween(front, previous, nextTime) {
			b.queueUpdateTime(front, "note front end")
		}
		// A note is still hittable exactly on its back end.
		backIncrement := math.Nextafter(back, math.Inf(1))
		if isTimeBetween(backIncrement, previous, nextTime) {
			b.queueUpdateTime(backIncrement, "note back end")
		}
	}

	b.queueWaitCountdown(previous, nextTime)

	if b.whammyTimer.IsActive && isTimeBetween(b.whammyTimer.EndTime, previous, nextTime) {
		b.queueUpdateTime(b.whammyTimer.EndTime, "star power whammy end")
	}
}

func (b *Base) queueTimer(t *Timer, nextTime float64, reason string) {
	if t.IsActive && isTimeBetween(t.EndTime, b.currentTime, nextTime) {
		b.queueUpdateTime(t.EndTime, reason)
	}
}

func (b *Base) Reset() {
	b.noteIndex = 0
	b.currentTime = -math.MaxFloat64
	b.lastUpdateTime = -math.MaxFloat64
	b.lastQueuedInputTime = -math.MaxFloat64
	b.currentTick = 0
	b.lastTick = 0
	b.soloIndex = 0
	b.starIndex = 0
	b.soloActive = false
	b.waitIndex = 0
	b.waitActive = false
	b.starPowerInputActive = false
	b.syncIndex = 0

	b.spTickPosition = 0
	b.previousSpTickPosition = 0
	b.spTickActivationPosition = 0
	b.spTickEndPosition = 0
	b.spActivationTime = 0
	b.spEndTime = 0
	b.lastWhammyTick = 0
	b.whammyTimer.Reset()

	b.inputs = b.inputs[:0]
	b.inputHead = 0
	b.scheduled = b.scheduled[:0]
	b.sustains = b.sustains[:0]
	b.events.Clear()
	b.stats.Reset()

	for i := range b.notes {
		n := &b.notes[i]
		n.ResetState()
		if !b.starPowerAllowed {
			clearStarPower(n)
		}
	}
	for i := range b.solos {
		b.solos[i].NotesHit = 0
		b.solos[i].SoloBonus = 0
	}
	b.rules.resetState()
}

func (b *Base) SetSpeed(speed float64) {
	b.Params.SongSpeed = speed
	b.Params.HitWindow.Scale = speed
	b.whammyTimer.SetSpeed(speed)
}

func (b *Base) AllowStarPower(allowed bool) {
	if allowed == b.starPowerAllowed {
		return
	}
	b.starPowerAllowed = allowed
	for i := range b.notes {
		n := &b.notes[i]
		if allowed {
			n.ResetFlags()
		} else {
			clearStarPower(n)
		}
	}
}

func clearStarPower(n *chart.Note) {
	for i := 0; i < n.ChordLen(); i++ {
		n.ChordNote(i).Flags &^= chart.StarPower
	}
}

// CalculateHitWindow returns the front and back end of the current note's window.
func (b *Base) CalculateHitWindow() (float64, float64) {
	w := &b.Params.HitWindow
	if b.noteIndex >= len(b.notes) {
		return w.FrontEnd(w.MaxWindow), w.BackEnd(w.MaxWindow)
	}
	size := w.Size(b.averageNoteDistance(b.noteIndex))
	return w.FrontEnd(size), w.BackEnd(size)
}

// averageNoteDistance is half the gap to each neighbour of the note at index.
func (b *Base) averageNoteDistance(index int) float64 {
	n := &b.notes[index]
	toNext := b.Params.HitWindow.MaxWindow / 2
	if n.Next != chart.None {
		toNext = (b.notes[n.Next].Time - n.Time) / 2
	}
	fromPrevious := toNext
	if n.Previous != chart.None {
		fromPrevious = (n.Time - b.notes[n.Previous].Time) / 2
	}
	return fromPrevious + toNext
}

// noteInWindow reports whether the parent note at index can be hit at time,
// and whether its window has already passed.
func (b *Base) noteInWindow(index int, time float64) (inWindow, missed bool) {
	return b.windowAt(b.notes[index].Time, b.averageNoteDistance(index), time)
}

func (b *Base) windowAt(noteTime, averageDistance, time float64) (inWindow, missed bool) {
	w := &b.Params.HitWindow
	size := w.Size(averageDistance)
	if time < noteTime+w.FrontEnd(size) {
		return false, false
	}
	if time > noteTime+w.BackEnd(size) {
		return false, true
	}
	return true, false
}

// advance moves to the next note once every member of the chord at r is
// resolved.
func (b *Base) advance(r ref) {
	if b.notes[r.index].WasFullyHitOrMissed() {
		b.noteIndex++
		b.reRun = true
	}
}

// skipPreviousNotes misses every unresolved note before the parent at index.
func (b *Base) skipPreviousNotes(index int) bool {
	skipped := false
	for prev := b.notes[index].Previous; prev != chart.None && !b.notes[prev].WasFullyHitOrMissed(); prev = b.notes[prev].Previous {
		skipped = true
		slog.Debug("missed note by skipping", "index", prev, "time", b.currentTime)
		b.rules.missNote(ref{index: prev})
		if b.chordsSeparate {
			for c := range b.notes[prev].Children {
				b.rules.missNote(ref{index: prev, child: c + 1})
			}
		}
	}
	return skipped
}

func (b *Base) defaultMultiplier() {
	b.stats.ScoreMultiplier = min(b.stats.Combo/10+1, b.Params.MaxMultiplier)
	if b.stats.IsStarPowerActive {
		b.stats.ScoreMultiplier *= 2
	}
}

// addScore commits points at the current multiplier.
func (b *Base) addScore(points int) {
	scored := points * b.stats.ScoreMultiplier
	b.stats.CommittedScore += scored
	if b.stats.IsStarPowerActive {
		// Half of the doubled multiplier comes from star power.
		sp := scored / 2
		b.stats.StarPowerScore += sp
		b.stats.MultiplierScore += sp - points
	} else {
		b.stats.MultiplierScore += scored - points
	}
	b.updateStars()
}

func (b *Base) updateStars() {
	score := b.stats.StarScore()
	for b.starIndex < len(b.starThresholds) && score > b.starThresholds[b.starIndex] {
		b.starIndex++
	}
	progress := 0.0
	if b.starIndex < len(b.starThresholds) {
		previous := 0
		if b.starIndex > 0 {
			previous = b.starThresholds[b.starIndex-1]
		}
		progress = inverseLerp(float64(previous), float64(b.starThresholds[b.starIndex]), float64(score))
	}
	b.stats.Stars = float32(b.starIndex) + float32(progress)
}

func isTimeBetween(time, previous, next float64) bool {
	return time > previous && time < next
}
