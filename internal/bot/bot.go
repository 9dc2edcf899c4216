// Package bot plays charts perfectly. A Player is an input source like any
// other, so a bot run goes through exactly the same engine code as a human.
package bot

import (
	"sort"

	"git.lost.host/meutraa/tally/internal/chart"
	"git.lost.host/meutraa/tally/internal/engine"
)

// Velocities the bot hits dynamic drum notes with.
const (
	AccentVelocity  float32 = 1.0
	GhostVelocity   float32 = 0.1
	NeutralVelocity float32 = 0.75
)

// Player feeds an engine the inputs of a perfect player and activates star
// power as soon as the engine allows it.
type Player struct {
	engine engine.Engine
	inputs []engine.GameInput
	next   int

	// -1 when star power is activated by the chart itself.
	starPowerAction int
	starPowerHeld   bool
	lastTime        float64
}

func New(e engine.Engine, sync *chart.SyncTrack, p engine.Parameters) *Player {
	return &Player{
		engine:          e,
		inputs:          Inputs(e, sync, p),
		starPowerAction: starPowerAction(e.Mode()),
	}
}

func starPowerAction(mode chart.GameMode) int {
	switch mode {
	case chart.FiveFretGuitar:
		return engine.GuitarStarPower
	case chart.VocalsMode:
		return engine.VocalsStarPower
	case chart.ProKeysMode:
		return engine.ProKeysStarPower
	}
	return -1
}

// Poll returns every synthesized input up to time.
func (p *Player) Poll(time float64) []engine.GameInput {
	var out []engine.GameInput
	for p.next < len(p.inputs) && p.inputs[p.next].Time <= time {
		out = append(out, p.inputs[p.next])
		p.next++
	}
	if len(out) > 0 {
		p.lastTime = out[len(out)-1].Time
	}

	if p.starPowerAction < 0 {
		return out
	}

	at := max(time, p.lastTime)
	if p.starPowerHeld {
		out = append(out, engine.ButtonInput(at, p.starPowerAction, false))
		p.starPowerHeld = false
	} else if p.engine.CanStarPowerActivate() && !p.engine.Stats().IsStarPowerActive {
		out = append(out, engine.ButtonInput(at, p.starPowerAction, true))
		p.starPowerHeld = true
	}
	p.lastTime = at
	return out
}

// Done reports whether every note input has been handed out.
func (p *Player) Done() bool { return p.next >= len(p.inputs) }

// Inputs synthesizes the inputs that hit every note of the engine's chart,
// without star power activation.
func Inputs(e engine.Engine, sync *chart.SyncTrack, p engine.Parameters) []engine.GameInput {
	var inputs []engine.GameInput
	switch e := e.(type) {
	case *engine.GuitarEngine:
		inputs = guitarInputs(e.Notes())
	case *engine.DrumsEngine:
		inputs = drumsInputs(e, e.Notes())
	case *engine.VocalsEngine:
		inputs = vocalsInputs(e.Notes(), sync, p.Vocals.ApproximateVocalFps)
	case *engine.ProKeysEngine:
		inputs = proKeysInputs(e.Notes())
	}
	sort.SliceStable(inputs, func(i, j int) bool { return inputs[i].Time < inputs[j].Time })
	return inputs
}
