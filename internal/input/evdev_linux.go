//go:build linux

package input

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"time"

	"git.lost.host/meutraa/tally/internal/chart"
	"git.lost.host/meutraa/tally/internal/engine"
	"golang.org/x/sys/unix"
)

// https://github.com/torvalds/linux/blob/master/include/uapi/linux/input-event-codes.h
const evKey = 0x01

type keyEvent struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

type Event struct {
	Pressed  bool
	Released bool
	Code     uint16
	Time     time.Time
}

// ReadEvents sends the key events of an evdev device until reading fails.
// Auto repeats are dropped.
func ReadEvents(device string, events chan<- *Event) (*os.File, error) {
	file, err := os.Open(device)
	if nil != err {
		return nil, fmt.Errorf("unable to open input device: %w", err)
	}
	go func() {
		defer close(events)

		var ev keyEvent
		for {
			err := binary.Read(file, binary.LittleEndian, &ev)
			if nil != err {
				slog.Debug("stopped reading input device", "device", device, "err", err)
				return
			}
			if ev.Type != evKey || ev.Value > 1 {
				continue
			}
			events <- &Event{
				Pressed:  ev.Value == 1,
				Released: ev.Value == 0,
				Code:     ev.Code,
				Time:     time.Unix(ev.Time.Unix()),
			}
		}
	}()
	return file, nil
}

// EvdevSource is a live source reading a Linux input device, for example
// a keyboard or a USB guitar exposing buttons. Events carry the kernel's
// timestamps, so input timing does not depend on the frame rate.
type EvdevSource struct {
	*liveSource
	file *os.File
}

// OpenEvdev reads device with bindings from key codes to actions of the
// given mode. Drum pads are hit at a fixed velocity.
func OpenEvdev(device string, mode chart.GameMode, bindings map[uint16]int, velocity float32) (*EvdevSource, error) {
	events := make(chan *Event, 64)
	file, err := ReadEvents(device, events)
	if nil != err {
		return nil, err
	}

	s := &EvdevSource{liveSource: newLiveSource(), file: file}
	drums := mode == chart.FourLaneDrums || mode == chart.FiveLaneDrums
	go func() {
		defer close(s.events)
		for ev := range events {
			action, ok := bindings[ev.Code]
			if !ok {
				continue
			}
			var in engine.GameInput
			switch {
			case drums && ev.Pressed:
				in = engine.AxisInput(0, action, velocity)
			case drums:
				continue
			default:
				in = engine.ButtonInput(0, action, ev.Pressed)
			}
			if !s.send(stamped{at: ev.Time, in: in}) {
				// The device reader stops once the file is closed.
				for range events {
				}
				return
			}
		}
	}()
	return s, nil
}

func (s *EvdevSource) Close() error {
	s.stop()
	return s.file.Close()
}
