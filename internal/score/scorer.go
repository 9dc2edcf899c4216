package score

import (
	"crypto/sha256"
	"encoding/base64"
	"time"

	"git.lost.host/meutraa/tally/internal/chart"
	"git.lost.host/meutraa/tally/internal/engine"
	"git.lost.host/meutraa/tally/internal/replay"
)

// Store keeps the history of runs played on each chart.
type Store interface {
	Init() error
	Deinit()

	// Save the outcome of a run
	Save(run *Run)

	// Load up previous runs of the chart with this sum, oldest first
	Load(sum string) []Run
}

type Run struct {
	Sum        string
	Player     string
	Instrument chart.Instrument
	Difficulty chart.Difficulty
	Speed      float64
	Date       time.Time
	// Stats is the replay header summary of the run.
	Stats  replay.PlayerStats
	Inputs []engine.GameInput
}

// Sum identifies a chart by the contents of its file.
func Sum(data []byte) string {
	return SumOf(sha256.Sum256(data))
}

// SumOf encodes a checksum the way runs are keyed.
func SumOf(h replay.Hash) string {
	return base64.StdEncoding.EncodeToString(h[:])
}
