package render

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"golang.org/x/term"

	"git.lost.host/meutraa/tally/internal/chart"
	"git.lost.host/meutraa/tally/internal/engine"
	"git.lost.host/meutraa/tally/internal/replay"
	"git.lost.host/meutraa/tally/internal/score"
	"git.lost.host/meutraa/tally/internal/theme"
)

var shortUnits, _ = durafmt.DefaultUnitsCoder.Decode("y:yrs,wk:wks,d:d,h:h,m:m,s:s,ms:ms,us:us")

// DefaultRenderer writes reports to Out, standard output by default. Output
// is buffered and written on every report.
type DefaultRenderer struct {
	Out   io.Writer
	Theme theme.Theme
	// Width of rules. Taken from the terminal when Out is one.
	Width int

	buffer strings.Builder
}

func (r *DefaultRenderer) Init() error {
	if nil == r.Out {
		r.Out = os.Stdout
	}
	tty := false
	if f, ok := r.Out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		tty = true
		if columns, _, err := term.GetSize(int(f.Fd())); nil == err && r.Width == 0 {
			r.Width = columns
		}
	}
	if r.Width <= 0 {
		r.Width = 80
	}
	if nil == r.Theme {
		r.Theme = &theme.DefaultTheme{Plain: !tty}
	}
	return nil
}

func (r *DefaultRenderer) Deinit() error {
	return r.flush()
}

func (r *DefaultRenderer) flush() error {
	_, err := io.WriteString(r.Out, r.buffer.String())
	r.buffer.Reset()
	return err
}

func (r *DefaultRenderer) line(format string, args ...any) {
	fmt.Fprintf(&r.buffer, format, args...)
	r.buffer.WriteByte('\n')
}

func (r *DefaultRenderer) rule() {
	r.line("%s", strings.Repeat("─", min(r.Width, 60)))
}

func duration(seconds float64) string {
	return durafmt.Parse(time.Duration(seconds * float64(time.Second))).LimitFirstN(2).Format(shortUnits)
}

func (r *DefaultRenderer) RenderInfo(info *replay.Info, size int64) {
	defer r.flush()

	r.line("%s", r.Theme.RenderHeading(info.Path))
	r.line("  %-10s %v", "Song", info.SongName)
	r.line("  %-10s %v", "Artist", info.ArtistName)
	r.line("  %-10s %v", "Charter", info.CharterName)
	r.line("  %-10s %v (%v)", "Date", info.Date.Format("2006-01-02 15:04:05"), humanize.Time(info.Date))
	r.line("  %-10s %v at %v%%", "Length", duration(info.ReplayLength), humanize.Ftoa(float64(info.SongSpeed)*100))
	r.line("  %-10s %v %v", "Score", humanize.Comma(int64(info.BandScore)), r.Theme.RenderStars(info.BandStars))
	r.line("  %-10s %v, replay version %v, engine version %v", "File", humanize.Bytes(uint64(max(size, 0))), info.ReplayVersion, info.EngineVersion)
	for _, s := range info.Stats {
		r.line("  - %s", summary(s))
	}
	r.rule()
}

func summary(s replay.PlayerStats) string {
	c := s.Common()
	line := fmt.Sprintf("%-12v %-10v %10v  %.2f stars  %v/%v star power",
		c.PlayerName, c.Mode, humanize.Comma(int64(c.Score)), c.Stars, c.StarPowerPhrasesHit, c.TotalStarPowerPhrases)
	switch st := s.(type) {
	case *replay.GuitarStats:
		line += fmt.Sprintf("  %v/%v notes  %v overstrums", st.NotesHit, st.TotalNotes, st.Overstrums)
	case *replay.DrumsStats:
		line += fmt.Sprintf("  %v/%v notes  %v overhits", st.NotesHit, st.TotalNotes, st.Overhits)
	case *replay.ProKeysStats:
		line += fmt.Sprintf("  %v/%v notes  %v overhits", st.NotesHit, st.TotalNotes, st.Overhits)
	case *replay.VocalsStats:
		line += fmt.Sprintf("  %v/%v perfect phrases", st.NumPerfectPhrases, st.NumPhrases)
	}
	return line
}

func (r *DefaultRenderer) RenderAnalysis(info *replay.Info, results []replay.Result, all bool) bool {
	defer r.flush()

	passed := true
	r.line("%s  %v - %v", r.Theme.RenderHeading(info.Path), info.ArtistName, info.SongName)
	for i := range results {
		res := &results[i]
		p := res.Frame.Profile
		r.line("%s  %v %v %v", r.Theme.RenderResult(res.Passed), p.Name, p.Difficulty, p.Instrument)
		passed = passed && res.Passed
		if nil != res.Err {
			r.line("  %v", res.Err)
			continue
		}
		if !res.NotesMatch {
			r.line("  %s", r.Theme.RenderDifference("note results differ", false))
		}
		if res.Passed && !all {
			continue
		}
		diff := replay.PrintStatDifferences(&res.Original, &res.Result, res.Frame.Parameters.Mode)
		for _, l := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
			if strings.HasPrefix(l, "- ") {
				l = r.Theme.RenderDifference(l, strings.HasSuffix(l, "(identical)"))
			}
			r.line("  %s", l)
		}
	}
	r.rule()
	return passed
}

func (r *DefaultRenderer) RenderInputs(info *replay.Info, data *replay.Data) {
	defer r.flush()

	r.line("%s", r.Theme.RenderHeading(info.Path))
	for i := range data.Frames {
		f := &data.Frames[i]
		r.line("%v  %v %v, %v inputs", f.Profile.Name, f.Profile.Difficulty, f.Profile.Instrument, len(f.Inputs))
		for _, in := range f.Inputs {
			r.line("  %10.4f  %-16v %-5v %v", in.Time, actionName(f.Parameters.Mode, in.Action), in.Button, in.Axis)
		}
	}
}

func (r *DefaultRenderer) RenderHistory(runs []score.Run) {
	defer r.flush()

	if len(runs) == 0 {
		r.line("no runs saved for this chart")
		return
	}
	for i := range runs {
		run := &runs[i]
		points, stars := "", float32(0)
		if nil != run.Stats {
			points = humanize.Comma(int64(run.Stats.Common().Score))
			stars = run.Stats.Common().Stars
		}
		r.line("%-16v %-12v %-8v %-10v %5v%% %12v %v  %v inputs",
			humanize.Time(run.Date), run.Player, run.Difficulty, run.Instrument,
			humanize.Ftoa(run.Speed*100), points, r.Theme.RenderStars(stars), len(run.Inputs))
	}
}

var actionNames = map[chart.Kind][]string{
	chart.Guitar: {"green", "red", "yellow", "blue", "orange", "white", "strum up", "strum down", "whammy", "star power"},
	chart.Drums:  {"kick", "red", "yellow", "blue", "green", "yellow cymbal", "orange cymbal", "blue cymbal", "green cymbal"},
	chart.Vocals: {"pitch", "hit", "star power"},
}

func actionName(mode chart.GameMode, action int) string {
	if mode == chart.ProKeysMode {
		switch {
		case action == engine.ProKeysStarPower:
			return "star power"
		case action == engine.TouchEffects:
			return "touch effects"
		case action >= engine.Key1 && action < chart.KeyCount:
			return fmt.Sprintf("key %d", action+1)
		}
		return fmt.Sprintf("action %d", action)
	}
	names := actionNames[mode.Kind()]
	if action < 0 || action >= len(names) {
		return fmt.Sprintf("action %d", action)
	}
	return names[action]
}
