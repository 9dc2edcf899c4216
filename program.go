package main

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/pkg/errors"

	"git.lost.host/meutraa/tally/internal/bot"
	"git.lost.host/meutraa/tally/internal/chart"
	"git.lost.host/meutraa/tally/internal/config"
	"git.lost.host/meutraa/tally/internal/engine"
	"git.lost.host/meutraa/tally/internal/input"
	"git.lost.host/meutraa/tally/internal/parser"
	"git.lost.host/meutraa/tally/internal/render"
	"git.lost.host/meutraa/tally/internal/replay"
	"git.lost.host/meutraa/tally/internal/score"
)

type Program struct {
	Parser   parser.Parser
	Store    score.Store
	Renderer render.Renderer
}

// Session is one player setup to play a chart with.
type Session struct {
	Chart      string
	Player     string
	Instrument string
	Difficulty string
	Modifiers  []string
	Preset     string
	Speed      float64
	Out        string
}

// loadChart parses a chart file and checksums its contents.
func (p *Program) loadChart(file string) (*chart.SongChart, replay.Hash, error) {
	data, err := os.ReadFile(file)
	if nil != err {
		return nil, replay.Hash{}, errors.Wrap(err, "unable to read chart")
	}
	c, err := p.Parser.Parse(file)
	if nil != err {
		return nil, replay.Hash{}, err
	}
	return c, replay.Hash(sha256.Sum256(data)), nil
}

func (p *Program) frame(s *Session, isBot bool) (replay.Frame, error) {
	instrument, difficulty, modifiers, err := config.Profile(s.Instrument, s.Difficulty, s.Modifiers)
	if nil != err {
		return replay.Frame{}, err
	}
	params, err := config.LoadParameters(s.Preset, instrument, difficulty, s.Speed)
	if nil != err {
		return replay.Frame{}, err
	}
	return replay.Frame{
		Profile: replay.Profile{
			Name:       s.Player,
			Instrument: instrument,
			Difficulty: difficulty,
			Modifiers:  modifiers,
			IsBot:      isBot,
		},
		Parameters: params,
	}, nil
}

// save writes the replay of frames and adds every frame to the run history.
func (p *Program) save(c *chart.SongChart, sum replay.Hash, out string, frames []replay.Frame) error {
	info := replay.NewInfo(c, sum, time.Now(), frames)
	path, err := replay.WriteFile(out, info, &replay.Data{Frames: frames})
	if nil != err {
		return err
	}
	slog.Info("wrote replay", "path", path)

	for k := range frames {
		f := &frames[k]
		p.Store.Save(&score.Run{
			Sum:        score.SumOf(sum),
			Player:     f.Profile.Name,
			Instrument: f.Profile.Instrument,
			Difficulty: f.Profile.Difficulty,
			Speed:      f.Parameters.SongSpeed,
			Date:       info.Date,
			Stats:      info.Stats[k],
			Inputs:     f.Inputs,
		})
	}

	var size int64
	if fi, err := os.Stat(path); nil == err {
		size = fi.Size()
	}
	p.Renderer.RenderInfo(info, size)
	return nil
}

// Verify replays every file against the chart and fails when any frame no
// longer reproduces its recorded result.
func (p *Program) Verify(chartFile string, files []string, a replay.Analyzer, all bool) error {
	c, sum, err := p.loadChart(chartFile)
	if nil != err {
		return err
	}
	a.Chart = c

	failed := 0
	for _, file := range files {
		info, data, err := replay.ReadFile(file)
		if nil != err {
			slog.Error("unable to read replay", "file", file, "result", replay.ResultOf(err), "err", err)
			failed++
			continue
		}
		if info.SongChecksum != sum {
			slog.Warn("replay was recorded on another version of the chart", "file", file)
		}
		if info.EngineVersion != replay.EngineVersion {
			slog.Warn("replay was recorded with another engine version", "file", file, "version", info.EngineVersion)
		}
		if !p.Renderer.RenderAnalysis(info, a.Analyze(data), all) {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d replays failed", failed, len(files))
	}
	return nil
}

func (p *Program) Dump(file string) error {
	info, data, err := replay.ReadFile(file)
	if nil != err {
		return err
	}
	p.Renderer.RenderInputs(info, data)
	return nil
}

// Read prints the header of every replay, including replays too old to
// hold readable inputs.
func (p *Program) Read(files []string) error {
	failed := 0
	for _, file := range files {
		info, err := replay.ReadMetadata(file)
		if nil != err {
			slog.Error("unable to read replay", "file", file, "result", replay.ResultOf(err), "err", err)
			failed++
			continue
		}
		var size int64
		if fi, err := os.Stat(file); nil == err {
			size = fi.Size()
		}
		p.Renderer.RenderInfo(info, size)
	}
	if failed > 0 {
		return fmt.Errorf("unable to read %d of %d replays", failed, len(files))
	}
	return nil
}

// Bot lets the bot play a session at a fixed frame rate.
func (p *Program) Bot(s *Session, fps float64) error {
	c, sum, err := p.loadChart(s.Chart)
	if nil != err {
		return err
	}
	f, err := p.frame(s, true)
	if nil != err {
		return err
	}
	err = replay.Record(c, &f, fps, func(e engine.Engine) input.Source {
		return bot.New(e, c.SyncTrack, f.Parameters)
	})
	if nil != err {
		return err
	}
	return p.save(c, sum, s.Out, []replay.Frame{f})
}

// LiveInput selects where a live session reads inputs from. Without a
// device, drum hits are read from the terminal.
type LiveInput struct {
	Device   string
	DrumKeys string
	Velocity float32
	Delay    time.Duration
	FPS      float64
}

type liveSource interface {
	input.Source
	io.Closer
}

func (p *Program) openSource(mode chart.GameMode, in *LiveInput) (liveSource, <-chan struct{}, error) {
	if in.Device != "" {
		src, err := input.OpenEvdev(in.Device, mode, input.DefaultKeyCodes(mode), in.Velocity)
		if nil != err {
			return nil, nil, err
		}
		return src, nil, nil
	}
	if mode.Kind() != chart.Drums {
		return nil, nil, fmt.Errorf("the terminal can only play drums, %v needs an input device", mode)
	}
	keys, err := input.DrumKeys(in.DrumKeys)
	if nil != err {
		return nil, nil, err
	}
	src, err := input.OpenKeyboard(keys, in.Velocity)
	if nil != err {
		return nil, nil, err
	}
	return src, src.Quit(), nil
}

// Record plays a session live until the chart ends, the player quits or
// ctx is done, then saves whatever was played.
func (p *Program) Record(ctx context.Context, s *Session, in *LiveInput) error {
	c, sum, err := p.loadChart(s.Chart)
	if nil != err {
		return err
	}
	f, err := p.frame(s, false)
	if nil != err {
		return err
	}
	e, err := replay.NewEngine(c, &f)
	if nil != err {
		return err
	}

	src, quit, err := p.openSource(f.Parameters.Mode, in)
	if nil != err {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-quit:
			cancel()
		case <-ctx.Done():
		}
	}()

	fmt.Printf("%v - %v, %v %v starts in %v\r\n", c.Artist, c.Name, f.Profile.Difficulty, f.Profile.Instrument, in.Delay)
	select {
	case <-time.After(in.Delay):
	case <-ctx.Done():
	}

	rec := &input.Recorder{Source: src}
	err = input.Live(ctx, e, rec, c.EndTime()+2, in.FPS)
	if err := src.Close(); nil != err {
		slog.Warn("unable to close input", "err", err)
	}
	if nil != err && !errors.Is(err, context.Canceled) {
		return err
	}

	replay.Capture(&f, e, rec.Inputs())
	return p.save(c, sum, s.Out, []replay.Frame{f})
}

func (p *Program) History(chartFile string) error {
	data, err := os.ReadFile(chartFile)
	if nil != err {
		return errors.Wrap(err, "unable to read chart")
	}
	p.Renderer.RenderHistory(p.Store.Load(score.Sum(data)))
	return nil
}
