package input

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/eiannone/keyboard"

	"git.lost.host/meutraa/tally/internal/engine"
)

// KeyboardSource reads drum hits from the terminal. A terminal only reports
// key presses, which is all a drum pad needs; fretted instruments require
// an EvdevSource.
type KeyboardSource struct {
	*liveSource
	quit chan struct{}
}

func newKeyboardSource() *KeyboardSource {
	return &KeyboardSource{liveSource: newLiveSource(), quit: make(chan struct{})}
}

// OpenKeyboard puts the terminal in raw mode and maps pressed runes to drum
// actions hit at velocity. Escape or ctrl-c ends the session.
func OpenKeyboard(keys map[rune]int, velocity float32) (*KeyboardSource, error) {
	keyChannel, err := keyboard.GetKeys(128)
	if nil != err {
		return nil, fmt.Errorf("unable to open keyboard: %w", err)
	}

	k := newKeyboardSource()
	go k.read(keyChannel, keys, velocity)
	return k, nil
}

func (k *KeyboardSource) read(keyChannel <-chan keyboard.KeyEvent, keys map[rune]int, velocity float32) {
	for key := range keyChannel {
		if nil != key.Err {
			slog.Warn("keyboard read failed", "err", key.Err)
			continue
		}
		if key.Key == keyboard.KeyEsc || key.Key == keyboard.KeyCtrlC {
			close(k.quit)
			return
		}
		r := key.Rune
		if key.Key == keyboard.KeySpace {
			r = ' '
		}
		action, ok := keys[r]
		if !ok {
			continue
		}
		if !k.send(stamped{at: time.Now(), in: engine.AxisInput(0, action, velocity)}) {
			return
		}
	}
}

// Quit is closed when the player asked to stop.
func (k *KeyboardSource) Quit() <-chan struct{} { return k.quit }

func (k *KeyboardSource) Close() error {
	k.stop()
	if err := keyboard.Close(); nil != err {
		return fmt.Errorf("unable to close keyboard: %w", err)
	}
	return nil
}
