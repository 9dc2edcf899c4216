// Package input feeds engines. Every way of producing inputs, a bot, a
// recorded replay log or a live device, is a Source, and the same drivers
// hand their inputs to the engine.
package input

import (
	"context"
	"sort"
	"time"

	"git.lost.host/meutraa/tally/internal/engine"
)

// Source produces the inputs a player made up to a song time.
type Source interface {
	// Poll returns the inputs made since the last call and no later than
	// time, ordered by time.
	Poll(time float64) []engine.GameInput
}

// Clocked is implemented by live sources, which timestamp inputs against
// the wall clock and need to know when song time zero was.
type Clocked interface {
	Start(zero time.Time)
}

// Recorded plays back a fixed input log.
type Recorded struct {
	inputs []engine.GameInput
	next   int
}

func NewRecorded(inputs []engine.GameInput) *Recorded {
	sorted := make([]engine.GameInput, len(inputs))
	copy(sorted, inputs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })
	return &Recorded{inputs: sorted}
}

func (r *Recorded) Poll(time float64) []engine.GameInput {
	start := r.next
	for r.next < len(r.inputs) && r.inputs[r.next].Time <= time {
		r.next++
	}
	return r.inputs[start:r.next]
}

func (r *Recorded) Len() int { return len(r.inputs) }

// Recorder keeps a copy of everything its source hands out.
type Recorder struct {
	Source Source
	inputs []engine.GameInput
}

func (r *Recorder) Poll(time float64) []engine.GameInput {
	inputs := r.Source.Poll(time)
	r.inputs = append(r.inputs, inputs...)
	return inputs
}

func (r *Recorder) Inputs() []engine.GameInput { return r.inputs }

func (r *Recorder) Start(zero time.Time) {
	if c, ok := r.Source.(Clocked); ok {
		c.Start(zero)
	}
}

func frame(e engine.Engine, s Source, time float64) {
	for _, in := range s.Poll(time) {
		e.QueueInput(in)
	}
	e.Update(time)
}

// Drive runs e from start to end at a fixed step, polling s before every
// frame. The last frame is always at end.
func Drive(e engine.Engine, s Source, start, end, step float64) {
	for k := 0; ; k++ {
		time := start + float64(k)*step
		if time >= end {
			break
		}
		frame(e, s, time)
	}
	frame(e, s, end)
}

// Live runs e against the wall clock at fps until end seconds of song time
// have passed or ctx is done. Song time zero is the moment Live is called.
func Live(ctx context.Context, e engine.Engine, s Source, end, fps float64) error {
	start := time.Now()
	if c, ok := s.(Clocked); ok {
		c.Start(start)
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			frame(e, s, time.Since(start).Seconds())
			return ctx.Err()
		case now := <-ticker.C:
			t := now.Sub(start).Seconds()
			if t >= end {
				frame(e, s, end)
				return nil
			}
			frame(e, s, t)
		}
	}
}
