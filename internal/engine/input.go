package engine

import (
	"math"

	"git.lost.host/meutraa/tally/internal/chart"
)

// GameInput is one timestamped player action. Button carries discrete
// presses and Axis carries continuous values such as sung pitch or pad
// velocity.
type GameInput struct {
	Time   float64 `json:"t"`
	Action int     `json:"a"`
	Button bool    `json:"b,omitempty"`
	Axis   float32 `json:"x,omitempty"`
}

func ButtonInput(time float64, action int, pressed bool) GameInput {
	return GameInput{Time: time, Action: action, Button: pressed}
}

func AxisInput(time float64, action int, value float32) GameInput {
	return GameInput{Time: time, Action: action, Axis: value}
}

func (in GameInput) validAxis() bool {
	return !math.IsNaN(float64(in.Axis)) && !math.IsInf(float64(in.Axis), 0)
}

// Guitar actions.
const (
	GreenFret = iota
	RedFret
	YellowFret
	BlueFret
	OrangeFret
	WhiteFret
	StrumUp
	StrumDown
	Whammy
	GuitarStarPower
)

// Drums actions. Pad hits carry their velocity in Axis; a zero axis is a
// release and is ignored.
const (
	KickPedal = iota
	RedPad
	YellowPad
	BluePad
	GreenPad
	YellowCymbalPad
	OrangeCymbalPad
	BlueCymbalPad
	GreenCymbalPad
)

// Vocals actions.
const (
	Pitch = iota
	VocalHit
	VocalsStarPower
)

// Pro keys actions. Key1 through Key25 are 0 to 24.
const (
	Key1             = 0
	ProKeysStarPower = chart.KeyCount
	TouchEffects     = chart.KeyCount + 1
)
