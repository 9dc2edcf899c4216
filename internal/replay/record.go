package replay

import (
	"time"

	"git.lost.host/meutraa/tally/internal/chart"
	"git.lost.host/meutraa/tally/internal/engine"
	"git.lost.host/meutraa/tally/internal/input"
)

// Record plays the chart for f's profile at a fixed frame rate with the
// source returned by open, and stores the inputs, stats and note results
// of the run in f.
func Record(c *chart.SongChart, f *Frame, fps float64, open func(e engine.Engine) input.Source) error {
	e, err := NewEngine(c, f)
	if nil != err {
		return err
	}
	rec := &input.Recorder{Source: open(e)}
	input.Drive(e, rec, -2, c.EndTime()+2, 1/fps)
	Capture(f, e, rec.Inputs())
	return nil
}

// Capture stores the outcome of a finished engine run in f.
func Capture(f *Frame, e engine.Engine, inputs []engine.GameInput) {
	f.Stats = *e.Stats()
	f.Notes = NoteResults(e.Notes())
	f.Inputs = append([]engine.GameInput(nil), inputs...)
}

// NewInfo describes a replay of frames played on c.
func NewInfo(c *chart.SongChart, songChecksum Hash, date time.Time, frames []Frame) *Info {
	info := &Info{
		SongName:     c.Name,
		ArtistName:   c.Artist,
		CharterName:  c.Charter,
		SongChecksum: songChecksum,
		Date:         date,
		SongSpeed:    1,
		ReplayLength: c.EndTime(),
	}
	var stars float32
	for k := range frames {
		f := &frames[k]
		info.SongSpeed = float32(f.Parameters.SongSpeed)
		info.BandScore += int32(f.Stats.TotalScore())
		stars += f.Stats.Stars
		info.Stats = append(info.Stats, Summarize(f.Profile.Name, f.Parameters.Mode, &f.Stats, 0))
	}
	if len(frames) > 0 {
		info.BandStars = stars / float32(len(frames))
	}
	return info
}
