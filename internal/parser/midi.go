package parser

import (
	"io"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2/smf"

	"git.lost.host/meutraa/tally/internal/chart"
)

// ReadSyncTrack builds a sync track from the tempo and meter events of a
// standard MIDI file. Events of every track are used, since type 1 files
// keep them in the first track and type 0 files mix them with notes.
func ReadSyncTrack(r io.Reader) (*chart.SyncTrack, error) {
	midi, err := smf.ReadFrom(r)
	if nil != err {
		return nil, errors.Wrap(err, "unable to read midi file")
	}
	ticks, ok := midi.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, errors.New("midi files with timecode time formats are not supported")
	}

	var (
		tempos     []chart.Tempo
		signatures []chart.TimeSignature
	)
	for _, track := range midi.Tracks {
		var tick uint32
		for _, ev := range track {
			tick += ev.Delta
			var bpm float64
			var num, denom uint8
			switch {
			case ev.Message.GetMetaTempo(&bpm):
				tempos = append(tempos, chart.Tempo{Tick: tick, BeatsPerMinute: bpm})
			case ev.Message.GetMetaMeter(&num, &denom):
				signatures = append(signatures, chart.TimeSignature{
					Tick:        tick,
					Numerator:   uint32(num),
					Denominator: uint32(denom),
				})
			}
		}
	}
	return chart.NewSyncTrack(uint32(ticks), tempos, signatures), nil
}
