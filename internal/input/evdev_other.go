//go:build !linux

package input

import (
	"errors"

	"git.lost.host/meutraa/tally/internal/chart"
)

type EvdevSource struct {
	*liveSource
}

func OpenEvdev(device string, mode chart.GameMode, bindings map[uint16]int, velocity float32) (*EvdevSource, error) {
	return nil, errors.New("input devices can only be read on linux")
}

func (s *EvdevSource) Close() error { return nil }
