package input

import (
	"sync"
	"time"

	"git.lost.host/meutraa/tally/internal/engine"
)

type stamped struct {
	at time.Time
	in engine.GameInput
}

// liveSource turns inputs read on another goroutine into song time. The
// reader sends on events; Poll and Start run on the driving goroutine.
type liveSource struct {
	events  chan stamped
	zero    time.Time
	pending []engine.GameInput

	done     chan struct{}
	stopOnce sync.Once
}

func newLiveSource() *liveSource {
	return &liveSource{
		events: make(chan stamped, 256),
		zero:   time.Now(),
		done:   make(chan struct{}),
	}
}

// send hands an input to the driving goroutine. It reports false once the
// source is stopped, when the reader must return.
func (l *liveSource) send(ev stamped) bool {
	select {
	case l.events <- ev:
		return true
	case <-l.done:
		return false
	}
}

// stop releases a reader blocked on a full buffer.
func (l *liveSource) stop() { l.stopOnce.Do(func() { close(l.done) }) }

func (l *liveSource) Start(zero time.Time) { l.zero = zero }

func (l *liveSource) Poll(t float64) []engine.GameInput {
drain:
	for {
		select {
		case ev, ok := <-l.events:
			if !ok {
				break drain
			}
			ev.in.Time = ev.at.Sub(l.zero).Seconds()
			l.pending = append(l.pending, ev.in)
		default:
			break drain
		}
	}

	n := 0
	for n < len(l.pending) && l.pending[n].Time <= t {
		n++
	}
	out := make([]engine.GameInput, n)
	copy(out, l.pending)
	l.pending = l.pending[n:]
	return out
}
