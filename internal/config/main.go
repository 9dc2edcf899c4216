package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/alecthomas/kingpin.v2"
	"gopkg.in/yaml.v3"

	"git.lost.host/meutraa/tally/internal/chart"
	"git.lost.host/meutraa/tally/internal/engine"
	"git.lost.host/meutraa/tally/internal/input"
)

var (
	LogLevel = kingpin.Flag("log-level", "Log level").Default("info").Enum("debug", "info", "warn", "error")
	Database = kingpin.Flag("database", "Score database").Default("./scores.db").Short('D').String()
	Workers  = kingpin.Flag("workers", "Frames replayed at once, 0 for one per CPU").Default("0").Short('w').Int()

	Verify        = kingpin.Command("verify", "Replay the inputs of replays and check their results")
	VerifyChart   = Verify.Arg("chart", "Chart the replays were played on").Required().ExistingFile()
	VerifyReplays = Verify.Arg("replays", "Replay files").Required().ExistingFiles()
	VerifyAll     = Verify.Flag("all", "Print stat differences of passing frames too").Short('a').Bool()

	Simulate        = kingpin.Command("simulate", "Verify replays with jittered frame updates")
	SimulateChart   = Simulate.Arg("chart", "Chart the replays were played on").Required().ExistingFile()
	SimulateReplays = Simulate.Arg("replays", "Replay files").Required().ExistingFiles()
	SimulateFPS     = Simulate.Flag("fps", "Approximate frame rate").Default("60").Float64()
	SimulateSeed    = Simulate.Flag("seed", "Seed of the frame jitter").Default("0").Int64()
	SimulateAll     = Simulate.Flag("all", "Print stat differences of passing frames too").Short('a').Bool()

	Dump       = kingpin.Command("dump", "Print the inputs of a replay")
	DumpReplay = Dump.Arg("replay", "Replay file").Required().ExistingFile()

	Read        = kingpin.Command("read", "Print the metadata of replays")
	ReadReplays = Read.Arg("replays", "Replay files").Required().ExistingFiles()

	Bot           = kingpin.Command("bot", "Let the bot play a chart and write the replay")
	BotChart      = Bot.Arg("chart", "Chart to play").Required().ExistingFile()
	BotInstrument = Bot.Flag("instrument", "Instrument").Default("guitar").Short('i').String()
	BotDifficulty = Bot.Flag("difficulty", "Difficulty").Default("expert").Short('d').String()
	BotModifiers  = Bot.Flag("modifier", "Chart modifier, may be repeated").Short('m').Strings()
	BotSpeed      = Bot.Flag("speed", "Song speed").Default("1.0").Short('s').Float64()
	BotFPS        = Bot.Flag("fps", "Frame rate the bot plays at").Default("60").Float64()
	BotPreset     = Bot.Flag("preset", "YAML file of engine parameters").Short('p').ExistingFile()
	BotOut        = Bot.Flag("out", "Replay directory").Default(".").Short('o').ExistingDir()

	Record           = kingpin.Command("record", "Play a chart live and write the replay")
	RecordChart      = Record.Arg("chart", "Chart to play").Required().ExistingFile()
	RecordInstrument = Record.Flag("instrument", "Instrument").Default("prodrums").Short('i').String()
	RecordDifficulty = Record.Flag("difficulty", "Difficulty").Default("expert").Short('d').String()
	RecordModifiers  = Record.Flag("modifier", "Chart modifier, may be repeated").Short('m').Strings()
	RecordPreset     = Record.Flag("preset", "YAML file of engine parameters").Short('p').ExistingFile()
	RecordPlayer     = Record.Flag("player", "Player name").Default("Player").Short('n').String()
	RecordDevice     = Record.Flag("device", "Read an evdev device instead of the terminal").Short('e').ExistingFile()
	RecordKeys       = Record.Flag("keys", "Terminal keys from the kick pedal to the green cymbal").Default(input.DefaultDrumKeys).Short('k').String()
	RecordVelocity   = Record.Flag("velocity", "Velocity of drum hits").Default("0.75").Float32()
	RecordDelay      = Record.Flag("delay", "Time before the chart starts").Default("2s").Duration()
	RecordFPS        = Record.Flag("fps", "Engine update rate").Default("240").Float64()
	RecordOut        = Record.Flag("out", "Replay directory").Default(".").Short('o').ExistingDir()

	History      = kingpin.Command("history", "List the saved runs of a chart")
	HistoryChart = History.Arg("chart", "Chart file").Required().ExistingFile()
)

// Parse reads the command line and returns the selected command.
func Parse() string {
	kingpin.Version("0.3.0")
	return kingpin.Parse()
}

func Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(*LogLevel)); nil != err {
		return slog.LevelInfo
	}
	return level
}

// LoadParameters returns the default parameters of an instrument and
// difficulty overridden by the fields set in the YAML preset file, if any.
func LoadParameters(preset string, instrument chart.Instrument, difficulty chart.Difficulty, speed float64) (engine.Parameters, error) {
	p := engine.DefaultParameters(instrument, difficulty)
	if preset != "" {
		data, err := os.ReadFile(preset)
		if nil != err {
			return p, fmt.Errorf("unable to read preset: %w", err)
		}
		if err := yaml.Unmarshal(data, &p); nil != err {
			return p, fmt.Errorf("unable to decode preset %v: %w", preset, err)
		}
	}
	p.SongSpeed = speed
	p.HitWindow.Scale = speed
	p.HitWindow.Normalize()
	return p, nil
}

// Profile parses the instrument, difficulty and modifiers named on the
// command line.
func Profile(instrument, difficulty string, modifiers []string) (chart.Instrument, chart.Difficulty, chart.Modifier, error) {
	i, err := chart.ParseInstrument(instrument)
	if nil != err {
		return i, 0, 0, err
	}
	d, err := chart.ParseDifficulty(difficulty)
	if nil != err {
		return i, d, 0, err
	}
	m, err := chart.ParseModifiers(modifiers)
	return i, d, m, err
}
