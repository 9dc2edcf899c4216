package engine

import (
	"log/slog"
	"math"

	"git.lost.host/meutraa/tally/internal/chart"
)

// drainFactor is how much longer a chart tick lasts while star power drains.
// A full bar always drains over starPowerMaxMeasures measures of the current
// time signature.
func drainFactor(sig chart.TimeSignature) float64 {
	standard := 4.0 / float64(sig.Denominator) * float64(sig.Numerator) * starPowerMaxMeasures
	return standard / starPowerMaxBeats
}

func (b *Base) timePerStarPowerTick(tempo chart.Tempo, sig chart.TimeSignature) float64 {
	return tempo.SecondsPerBeat() / float64(b.resolution) * drainFactor(sig)
}

func (b *Base) drainPeriodToTicks(period float64, tempo chart.Tempo, sig chart.TimeSignature) float64 {
	return period / b.timePerStarPowerTick(tempo, sig)
}

// starPowerTicksAt converts a song time to the star power drain position.
func (b *Base) starPowerTicksAt(time float64) uint32 {
	c := b.changes[b.syncIndex]
	ticks := b.drainPeriodToTicks(time-c.time, c.tempo, c.sig) + b.spTicks[c.index]
	if ticks <= 0 {
		return 0
	}
	// Rounded to six places first so values a bit below a whole tick land on it.
	return uint32(math.Round(ticks*1e6) / 1e6)
}

func (b *Base) starPowerTickToTime(tick uint32) float64 {
	i := len(b.spTicks) - 1
	for i > 0 && b.spTicks[i] > float64(tick) {
		i--
	}
	c := b.changes[i]
	return c.time + (float64(tick)-b.spTicks[i])*b.timePerStarPowerTick(c.tempo, c.sig)
}

func (b *Base) updateStarPower() {
	b.previousSpTickPosition = b.spTickPosition
	b.spTickPosition = b.starPowerTicksAt(b.currentTime)

	if b.stats.IsStarPowerActive {
		drained := b.spTickPosition - b.previousSpTickPosition
		if b.spTickPosition < b.previousSpTickPosition || drained >= b.stats.StarPowerTickAmount {
			b.stats.StarPowerTickAmount = 0
		} else {
			b.stats.StarPowerTickAmount -= drained
		}
		if b.stats.StarPowerTickAmount == 0 {
			b.releaseStarPower()
		}
	}

	if b.starPowerInputActive && b.CanStarPowerActivate() {
		b.activateStarPower()
	}
}

func (b *Base) activateStarPower() {
	if b.stats.IsStarPowerActive {
		return
	}

	b.spActivationTime = b.currentTime
	b.spTickActivationPosition = b.spTickPosition
	b.spTickEndPosition = b.spTickActivationPosition + b.stats.StarPowerTickAmount
	b.spEndTime = b.starPowerTickToTime(b.spTickEndPosition)
	b.stats.StarPowerActivationCount++

	slog.Debug("star power activated", "time", b.currentTime, "end", b.spEndTime)

	b.rebaseSustains(b.currentTick)
	b.stats.IsStarPowerActive = true
	b.rules.updateMultiplier()
	b.emit(Event{Type: StarPowerStatus, Active: true})
}

func (b *Base) releaseStarPower() {
	slog.Debug("star power released", "time", b.currentTime)

	b.stats.IsStarPowerActive = false
	b.stats.TimeInStarPower += b.currentTime - b.spActivationTime

	b.rebaseSustains(b.currentTick)
	b.rules.updateMultiplier()
	b.emit(Event{Type: StarPowerStatus, Active: false})
}

func (b *Base) gainStarPower(ticks uint32) {
	previous := b.stats.StarPowerTickAmount
	b.stats.StarPowerTickAmount = min(b.stats.StarPowerTickAmount+ticks, b.TicksPerFullSpBar)

	b.stats.TotalStarPowerTicks += b.stats.StarPowerTickAmount - previous
	b.stats.TotalStarPowerBarsFilled = float64(b.stats.TotalStarPowerTicks) / float64(b.TicksPerFullSpBar)

	if b.stats.IsStarPowerActive {
		b.spTickEndPosition = b.spTickPosition + b.stats.StarPowerTickAmount
		b.spEndTime = b.starPowerTickToTime(b.spTickEndPosition)
	}
}

// awardStarPower grants a quarter bar for completing a phrase ending at index.
func (b *Base) awardStarPower(index int) {
	b.gainStarPower(b.TicksPerQuarterSpBar)
	b.emit(Event{Type: StarPowerPhraseHit, NoteIndex: index})
}

// stripStarPower removes the whole phrase containing the parent note at
// index once it can no longer be completed.
func (b *Base) stripStarPower(index int) {
	if index < 0 || index >= len(b.notes) || !b.notes[index].IsStarPower() {
		return
	}

	n := &b.notes[index]
	clearStarPower(n)

	if !n.IsStarPowerStart() {
		for i := n.Previous; i != chart.None && b.notes[i].IsStarPower(); i = b.notes[i].Previous {
			clearStarPower(&b.notes[i])
			if b.notes[i].IsStarPowerStart() {
				break
			}
		}
	}

	if !n.IsStarPowerEnd() {
		for i := n.Next; i != chart.None && b.notes[i].IsStarPower(); i = b.notes[i].Next {
			clearStarPower(&b.notes[i])
			if b.notes[i].IsStarPowerEnd() {
				break
			}
		}
	}

	b.emit(Event{Type: StarPowerPhraseMissed, NoteIndex: index})
}

// setStarPowerInput records the activation button state. Activation happens
// on the next hit logic pass.
func (b *Base) setStarPowerInput(active bool) {
	b.starPowerInputActive = active
}
