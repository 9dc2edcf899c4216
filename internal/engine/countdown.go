package engine

import (
	"log/slog"

	"git.lost.host/meutraa/tally/internal/chart"
)

const (
	// Gaps between notes at least this long in seconds count down.
	waitCountdownSeconds = 9
	// Countdowns need this many measure lines in the gap.
	waitCountdownMeasures = 4
)

// waitCountdown is a long gap without notes. Overhits and overstrums are
// forgiven from its first measure line until one measure before the next note.
type waitCountdown struct {
	start      float64
	deactivate float64
	measures   int
}

func (b *Base) waitCountdowns() []waitCountdown {
	var out []waitCountdown
	var endTick uint32
	var endTime float64
	for i := range b.notes {
		n := &b.notes[i]
		if n.Time-endTime >= waitCountdownSeconds {
			measures := b.sync.Measures(endTick, n.Tick)
			if len(measures) >= waitCountdownMeasures {
				out = append(out, waitCountdown{
					start:      measures[0].Time,
					deactivate: measures[len(measures)-2].Time,
					measures:   len(measures),
				})
			}
		}
		endTick, endTime = chordEnd(n)
	}
	return out
}

// chordEnd is where the longest note of a chord ends.
func chordEnd(n *chart.Note) (uint32, float64) {
	tick, time := n.TickEnd(), n.TimeEnd()
	for c := range n.Children {
		if child := &n.Children[c]; child.TickEnd() > tick {
			tick, time = child.TickEnd(), child.TimeEnd()
		}
	}
	return tick, time
}

// IsWaitCountdownActive reports whether the song is counting down to the
// next note after a long gap.
func (b *Base) IsWaitCountdownActive() bool { return b.waitActive }

func (b *Base) updateWaitCountdown() {
	for b.waitIndex < len(b.waits) {
		w := &b.waits[b.waitIndex]
		if b.currentTime < w.start {
			return
		}
		if b.currentTime < w.deactivate {
			if !b.waitActive {
				slog.Debug("wait countdown started", "time", b.currentTime, "measures", w.measures)
				b.waitActive = true
			}
			return
		}
		b.waitActive = false
		b.waitIndex++
	}
}

func (b *Base) queueWaitCountdown(previous, nextTime float64) {
	if b.waitIndex >= len(b.waits) {
		return
	}
	w := &b.waits[b.waitIndex]
	if isTimeBetween(w.start, previous, nextTime) {
		b.queueUpdateTime(w.start, "wait countdown start")
	}
	if isTimeBetween(w.deactivate, previous, nextTime) {
		b.queueUpdateTime(w.deactivate, "wait countdown end")
	}
}
