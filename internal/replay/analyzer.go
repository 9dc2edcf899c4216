package replay

import (
	"fmt"
	"log/slog"
	"math/rand"
	"runtime"
	"slices"
	"strings"

	"github.com/remeh/sizedwaitgroup"

	"git.lost.host/meutraa/tally/internal/chart"
	"git.lost.host/meutraa/tally/internal/engine"
)

// Result is the outcome of replaying one frame.
type Result struct {
	Passed bool
	// NotesMatch is false when the recorded per note decisions differ from
	// the replayed ones. Frames without recorded decisions always match.
	NotesMatch bool
	Frame      *Frame
	Original   engine.Stats
	Result     engine.Stats
	Err        error
}

// Analyzer replays recorded inputs against the chart they were played on.
type Analyzer struct {
	Chart *chart.SongChart
	// FPS simulates frame updates at roughly this rate. Zero queues every
	// input and updates once.
	FPS float64
	// Seed makes the frame jitter of a simulation reproducible.
	Seed int64
	// Workers bounds how many frames are replayed at once, defaulting to
	// the number of CPUs.
	Workers int
}

// NewEngine builds a fresh engine for a frame the same way the game does.
func NewEngine(c *chart.SongChart, f *Frame) (engine.Engine, error) {
	notes, err := c.Difficulty(f.Profile.Instrument, f.Profile.Difficulty)
	if nil != err {
		return nil, err
	}
	if err := notes.ApplyModifiers(f.Profile.Modifiers); nil != err {
		return nil, err
	}
	notes.ResetNoteState()

	e, err := engine.New(notes, c.SyncTrack, f.Parameters)
	if nil != err {
		return nil, err
	}
	e.SetSpeed(f.Parameters.SongSpeed)
	e.Reset()
	return e, nil
}

// Analyze replays every frame of data. Frames run concurrently, each on its
// own engine, and the results keep the order of the frames.
func (a *Analyzer) Analyze(data *Data) []Result {
	workers := a.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make([]Result, len(data.Frames))
	wg := sizedwaitgroup.New(workers)
	for i := range data.Frames {
		wg.Add()
		go func(i int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(a.Seed + int64(i)))
			results[i] = a.AnalyzeFrame(&data.Frames[i], rng)
		}(i)
	}
	wg.Wait()
	return results
}

// AnalyzeFrame replays a single frame. rng is only used when simulating
// frames.
func (a *Analyzer) AnalyzeFrame(f *Frame, rng *rand.Rand) Result {
	r := Result{Frame: f, Original: f.Stats}
	e, err := NewEngine(a.Chart, f)
	if nil != err {
		r.Err = err
		return r
	}

	maxTime := a.Chart.EndTime()
	if n := len(f.Inputs); n > 0 && f.Inputs[n-1].Time > maxTime {
		maxTime = f.Inputs[n-1].Time
	}
	maxTime += 2

	if a.FPS <= 0 {
		for _, in := range f.Inputs {
			e.QueueInput(in)
		}
		e.Update(maxTime)
	} else {
		next := 0
		for _, time := range FrameTimes(rng, a.FPS, -2, maxTime) {
			for ; next < len(f.Inputs) && f.Inputs[next].Time <= time; next++ {
				e.QueueInput(f.Inputs[next])
			}
			e.Update(time)
		}
	}

	r.Result = *e.Stats()
	r.NotesMatch = len(f.Notes) == 0 || slices.Equal(f.Notes, NoteResults(e.Notes()))
	r.Passed = r.NotesMatch && IsPassResult(&r.Original, &r.Result, f.Parameters.Mode)
	if !r.Passed {
		slog.Debug("replay frame differs",
			"player", f.Profile.Name,
			"score", r.Original.CommittedScore,
			"replayed", r.Result.CommittedScore,
			"notes", r.NotesMatch)
	}
	return r
}

// FrameTimes spreads frames from from to to at about fps, each moved by up
// to half a frame in either direction. The first frame is never moved
// earlier and the last frame is always exactly to.
func FrameTimes(rng *rand.Rand, fps, from, to float64) []float64 {
	frame := 1 / fps
	var times []float64
	for time := from; time < to; time += frame {
		adjust := rng.Float64() * 0.5
		if rng.Intn(2) == 0 && time > from {
			adjust = -adjust
		}
		times = append(times, min(time+frame*adjust, to))
	}
	return append(times, to)
}

// IsPassResult reports whether the stats that decide a score agree.
func IsPassResult(original, result *engine.Stats, mode chart.GameMode) bool {
	passed := original.CommittedScore == result.CommittedScore &&
		original.NotesHit == result.NotesHit &&
		original.NotesMissed() == result.NotesMissed() &&
		original.Combo == result.Combo &&
		original.MaxCombo == result.MaxCombo &&
		original.SoloBonuses == result.SoloBonuses &&
		original.StarPowerScore == result.StarPowerScore &&
		original.StarPowerPhrasesHit == result.StarPowerPhrasesHit &&
		original.TimeInStarPower == result.TimeInStarPower &&
		original.TotalStarPowerTicks == result.TotalStarPowerTicks

	switch mode {
	case chart.FiveFretGuitar:
		passed = passed &&
			original.Overstrums == result.Overstrums &&
			original.GhostInputs == result.GhostInputs &&
			original.HoposStrummed == result.HoposStrummed &&
			original.StarPowerWhammyTicks == result.StarPowerWhammyTicks &&
			original.SustainScore == result.SustainScore
	case chart.FourLaneDrums, chart.FiveLaneDrums, chart.ProKeysMode:
		passed = passed && original.Overhits == result.Overhits
	case chart.VocalsMode:
		passed = passed &&
			original.TicksHit == result.TicksHit &&
			original.TicksMissed == result.TicksMissed
	}
	return passed
}

type statDiff struct {
	sb strings.Builder
}

func (d *statDiff) add(name string, original, result any) {
	if original == result {
		fmt.Fprintf(&d.sb, "- %-31s %-12v (identical)\n", name+":", original)
	} else {
		fmt.Fprintf(&d.sb, "- %-31s %-10v -> %v\n", name+":", original, result)
	}
}

// PrintStatDifferences lists every stat of both runs side by side.
func PrintStatDifferences(original, result *engine.Stats, mode chart.GameMode) string {
	d := &statDiff{}
	d.sb.WriteString("Base stats:\n")
	d.add("Committed score", original.CommittedScore, result.CommittedScore)
	d.add("Pending score", original.PendingScore, result.PendingScore)
	d.add("Note score", original.NoteScore, result.NoteScore)
	d.add("Sustain score", original.SustainScore, result.SustainScore)
	d.add("Multiplier score", original.MultiplierScore, result.MultiplierScore)
	d.add("Combo", original.Combo, result.Combo)
	d.add("Max combo", original.MaxCombo, result.MaxCombo)
	d.add("Score multiplier", original.ScoreMultiplier, result.ScoreMultiplier)
	d.add("Notes hit", original.NotesHit, result.NotesHit)
	d.add("Notes missed", original.NotesMissed(), result.NotesMissed())
	d.add("Total notes", original.TotalNotes, result.TotalNotes)
	d.add("Star power tick amount", original.StarPowerTickAmount, result.StarPowerTickAmount)
	d.add("Total star power ticks", original.TotalStarPowerTicks, result.TotalStarPowerTicks)
	d.add("Total star power bars filled", original.TotalStarPowerBarsFilled, result.TotalStarPowerBarsFilled)
	d.add("Star power activation count", original.StarPowerActivationCount, result.StarPowerActivationCount)
	d.add("Time in star power", original.TimeInStarPower, result.TimeInStarPower)
	d.add("Star power whammy ticks", original.StarPowerWhammyTicks, result.StarPowerWhammyTicks)
	d.add("Is star power active", original.IsStarPowerActive, result.IsStarPowerActive)
	d.add("Star power phrases hit", original.StarPowerPhrasesHit, result.StarPowerPhrasesHit)
	d.add("Total star power phrases", original.TotalStarPowerPhrases, result.TotalStarPowerPhrases)
	d.add("Star power phrases missed", original.StarPowerPhrasesMissed(), result.StarPowerPhrasesMissed())
	d.add("Star power score", original.StarPowerScore, result.StarPowerScore)
	d.add("Solo bonuses", original.SoloBonuses, result.SoloBonuses)
	d.add("Stars", original.Stars, result.Stars)
	d.sb.WriteString("\n")

	switch mode {
	case chart.FiveFretGuitar:
		d.sb.WriteString("Guitar stats:\n")
		d.add("Overstrums", original.Overstrums, result.Overstrums)
		d.add("Hopos strummed", original.HoposStrummed, result.HoposStrummed)
		d.add("Ghost inputs", original.GhostInputs, result.GhostInputs)
	case chart.FourLaneDrums, chart.FiveLaneDrums:
		d.sb.WriteString("Drums stats:\n")
		d.add("Overhits", original.Overhits, result.Overhits)
	case chart.VocalsMode:
		d.sb.WriteString("Vocals stats:\n")
		d.add("Ticks hit", original.TicksHit, result.TicksHit)
		d.add("Ticks missed", original.TicksMissed, result.TicksMissed)
		d.add("Perfect phrases", original.PerfectPhrases, result.PerfectPhrases)
	case chart.ProKeysMode:
		d.sb.WriteString("Pro Keys stats:\n")
		d.add("Overhits", original.Overhits, result.Overhits)
	}
	return d.sb.String()
}
