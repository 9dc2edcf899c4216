package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"git.lost.host/meutraa/tally/internal/config"
	"git.lost.host/meutraa/tally/internal/parser"
	"git.lost.host/meutraa/tally/internal/render"
	"git.lost.host/meutraa/tally/internal/replay"
	"git.lost.host/meutraa/tally/internal/score"
)

func main() {
	if err := run(); nil != err {
		log.Fatalln(err)
	}
}

func run() error {
	command := config.Parse()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: config.Level()})))

	// Ensure our Default implementations are used as interfaces
	var psr parser.Parser = &parser.DefaultParser{}
	var store score.Store = &score.DefaultStore{Path: *config.Database}
	var r render.Renderer = &render.DefaultRenderer{}

	if err := r.Init(); nil != err {
		return err
	}
	defer func() {
		if err := r.Deinit(); nil != err {
			slog.Warn("unable to flush output", "err", err)
		}
	}()

	switch command {
	case config.Bot.FullCommand(), config.Record.FullCommand(), config.History.FullCommand():
		if err := store.Init(); nil != err {
			return err
		}
		defer store.Deinit()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p := &Program{Parser: psr, Store: store, Renderer: r}
	switch command {
	case config.Verify.FullCommand():
		a := replay.Analyzer{Workers: *config.Workers}
		return p.Verify(*config.VerifyChart, *config.VerifyReplays, a, *config.VerifyAll)
	case config.Simulate.FullCommand():
		a := replay.Analyzer{FPS: *config.SimulateFPS, Seed: *config.SimulateSeed, Workers: *config.Workers}
		return p.Verify(*config.SimulateChart, *config.SimulateReplays, a, *config.SimulateAll)
	case config.Dump.FullCommand():
		return p.Dump(*config.DumpReplay)
	case config.Read.FullCommand():
		return p.Read(*config.ReadReplays)
	case config.Bot.FullCommand():
		return p.Bot(&Session{
			Chart:      *config.BotChart,
			Player:     "Bot",
			Instrument: *config.BotInstrument,
			Difficulty: *config.BotDifficulty,
			Modifiers:  *config.BotModifiers,
			Preset:     *config.BotPreset,
			Speed:      *config.BotSpeed,
			Out:        *config.BotOut,
		}, *config.BotFPS)
	case config.Record.FullCommand():
		return p.Record(ctx, &Session{
			Chart:      *config.RecordChart,
			Player:     *config.RecordPlayer,
			Instrument: *config.RecordInstrument,
			Difficulty: *config.RecordDifficulty,
			Modifiers:  *config.RecordModifiers,
			Preset:     *config.RecordPreset,
			Speed:      1,
			Out:        *config.RecordOut,
		}, &LiveInput{
			Device:   *config.RecordDevice,
			DrumKeys: *config.RecordKeys,
			Velocity: *config.RecordVelocity,
			Delay:    *config.RecordDelay,
			FPS:      *config.RecordFPS,
		})
	case config.History.FullCommand():
		return p.History(*config.HistoryChart)
	}
	return nil
}
