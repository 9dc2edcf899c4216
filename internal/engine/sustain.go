package engine

import (
	"log/slog"
	"math"

	"git.lost.host/meutraa/tally/internal/chart"
)

// burstTick is the tick where a sustain stops scoring. Sustains shorter than
// the burst threshold finish as soon as they start.
func (b *Base) burstTick(n *chart.Note) uint32 {
	if b.sustainBurstThreshold > n.TickLength {
		return n.Tick
	}
	return n.TickEnd() - b.sustainBurstThreshold
}

func (b *Base) startSustain(r ref) {
	if len(b.sustains) == 0 {
		b.lastWhammyTick = b.currentTick
	}
	n := r.note(b.notes)
	b.sustains = append(b.sustains, activeSustain{note: r, baseTick: n.Tick})

	slog.Debug("sustain started", "time", b.currentTime, "ticks", n.TickLength)
	b.emit(Event{Type: SustainStart, NoteIndex: r.index, Child: r.child})
}

func (b *Base) endSustain(i int, dropped, isEnd bool) {
	s := b.sustains[i]
	b.sustains = append(b.sustains[:i], b.sustains[i+1:]...)

	slog.Debug("sustain ended", "time", b.currentTime, "dropped", dropped, "end", isEnd)
	b.emit(Event{Type: SustainEnd, NoteIndex: s.note.index, Child: s.note.child, Active: s.hasFinishedScoring})
}

// sustainPoints is the score of a sustain held up to tick, including what was
// banked at its base tick.
func (b *Base) sustainPoints(s *activeSustain, tick uint32) float64 {
	n := s.note.note(b.notes)
	scoreTick := min(max(tick, n.Tick), n.TickEnd())
	return s.baseScore + float64(int64(scoreTick)-int64(s.baseTick))/b.ticksPerSustainPoint
}

func (b *Base) updateSustains() {
	b.stats.PendingScore = 0

	starPowerSustain := false
	for i := 0; i < len(b.sustains); i++ {
		s := &b.sustains[i]
		n := s.note.note(b.notes)

		starPowerSustain = starPowerSustain || n.IsStarPower()

		isBurst := b.currentTick >= b.burstTick(n)
		isEnd := b.currentTick >= n.TickEnd()

		tick := b.currentTick
		if isBurst || isEnd {
			tick = n.TickEnd()
		}

		dropped := false
		if !b.rules.canSustainHold(s.note) {
			if s.isLeniencyHeld {
				if b.currentTime >= s.leniencyDropTime+b.Params.SustainDropLeniency*b.Params.SongSpeed {
					dropped = true
				}
			} else {
				s.isLeniencyHeld = true
				s.leniencyDropTime = b.currentTime
			}
		} else {
			s.isLeniencyHeld = false
		}

		if !s.hasFinishedScoring {
			if isBurst || isEnd {
				s.hasFinishedScoring = true
			}

			if dropped || isBurst || isEnd {
				points := int(math.Ceil(b.sustainPoints(s, tick)))
				b.addScore(points)

				// Sustain score carries the combo multiplier but not star power.
				scored := points * b.stats.ScoreMultiplier
				if b.stats.IsStarPowerActive {
					scored /= 2
				}
				b.stats.SustainScore += scored
			} else {
				points := int(math.Ceil(b.sustainPoints(s, tick)))
				b.stats.PendingScore += points * b.stats.ScoreMultiplier
			}
		}

		if dropped || isEnd {
			b.endSustain(i, dropped, isEnd)
			i--
		}
	}

	b.updateStars()

	if starPowerSustain && b.whammyTimer.IsActive {
		ticks := b.currentTick - b.lastWhammyTick
		b.gainStarPower(ticks)
		b.stats.StarPowerWhammyTicks += ticks
		b.lastWhammyTick = b.currentTick
	}

	// Disabled after the sustains so the ticks up to expiry are still counted.
	if b.whammyTimer.IsActive && b.whammyTimer.IsExpired(b.currentTime) {
		b.whammyTimer.Disable()
	}
}

// rebaseSustains banks the points earned so far so later points are scored
// at a new multiplier.
func (b *Base) rebaseSustains(tick uint32) {
	b.stats.PendingScore = 0
	for i := range b.sustains {
		s := &b.sustains[i]
		if tick < s.baseTick {
			continue
		}
		n := s.note.note(b.notes)
		score := b.sustainPoints(s, tick)
		s.baseTick = min(max(tick, n.Tick), n.TickEnd())
		s.baseScore = score
		b.stats.PendingScore += int(score)
	}
}

// startWhammy starts or extends the star power whammy window.
func (b *Base) startWhammy(time float64) {
	if !b.whammyTimer.IsActive {
		b.lastWhammyTick = b.currentTick
	}
	b.whammyTimer.Start(time)
}
