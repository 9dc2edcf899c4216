package input

import (
	"fmt"

	"git.lost.host/meutraa/tally/internal/chart"
	"git.lost.host/meutraa/tally/internal/engine"
)

// Linux key codes used by the default bindings.
const (
	key2         = 3
	key3         = 4
	key5         = 6
	key6         = 7
	key7         = 8
	keyQ         = 16
	keyW         = 17
	keyE         = 18
	keyR         = 19
	keyT         = 20
	keyY         = 21
	keyU         = 22
	keyI         = 23
	keyO         = 24
	keyEnter     = 28
	keyA         = 30
	keyS         = 31
	keyD         = 32
	keyF         = 33
	keyG         = 34
	keyH         = 35
	keyJ         = 36
	keyK         = 37
	keyLeftShift = 42
	keyZ         = 44
	keyX         = 45
	keyC         = 46
	keyV         = 47
	keyB         = 48
	keyN         = 49
	keyM         = 50
	keySpace     = 57
	keyUp        = 103
	keyDown      = 108
)

// Two octaves and a C, laid out like a piano over the bottom and top rows.
var proKeysCodes = [chart.KeyCount]uint16{
	keyZ, keyS, keyX, keyD, keyC, keyV, keyG, keyB, keyH, keyN, keyJ, keyM,
	keyQ, key2, keyW, key3, keyE, keyR, key5, keyT, key6, keyY, key7, keyU,
	keyI,
}

// DefaultKeyCodes returns the evdev bindings of a game mode.
func DefaultKeyCodes(mode chart.GameMode) map[uint16]int {
	switch mode {
	case chart.FiveFretGuitar:
		return map[uint16]int{
			keyA:     engine.GreenFret,
			keyS:     engine.RedFret,
			keyD:     engine.YellowFret,
			keyF:     engine.BlueFret,
			keyG:     engine.OrangeFret,
			keyUp:    engine.StrumUp,
			keyDown:  engine.StrumDown,
			keyEnter: engine.StrumDown,
			keySpace: engine.GuitarStarPower,
		}
	case chart.FourLaneDrums, chart.FiveLaneDrums:
		return map[uint16]int{
			keySpace: engine.KickPedal,
			keyD:     engine.RedPad,
			keyF:     engine.YellowPad,
			keyJ:     engine.BluePad,
			keyK:     engine.GreenPad,
			keyR:     engine.YellowCymbalPad,
			keyO:     engine.OrangeCymbalPad,
			keyU:     engine.BlueCymbalPad,
			keyI:     engine.GreenCymbalPad,
		}
	case chart.VocalsMode:
		return map[uint16]int{
			keyJ:     engine.VocalHit,
			keySpace: engine.VocalsStarPower,
		}
	case chart.ProKeysMode:
		codes := map[uint16]int{
			keySpace:     engine.ProKeysStarPower,
			keyLeftShift: engine.TouchEffects,
		}
		for key, code := range proKeysCodes {
			codes[code] = engine.Key1 + key
		}
		return codes
	}
	return nil
}

// DefaultDrumKeys are the terminal keys of the drum actions, from the kick
// pedal to the green cymbal.
const DefaultDrumKeys = " dfjkroui"

// DrumKeys maps each rune of keys to the drum action at its position.
func DrumKeys(keys string) (map[rune]int, error) {
	runes := []rune(keys)
	if len(runes) != engine.GreenCymbalPad+1 {
		return nil, fmt.Errorf("expected %d drum keys, got %d", engine.GreenCymbalPad+1, len(runes))
	}
	m := make(map[rune]int, len(runes))
	for action, r := range runes {
		if _, ok := m[r]; ok {
			return nil, fmt.Errorf("drum key %q is bound twice", r)
		}
		m[r] = action
	}
	return m, nil
}
