// Package replay reads and writes replay files and checks that the inputs
// they hold still reproduce the recorded results.
package replay

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"git.lost.host/meutraa/tally/internal/chart"
	"git.lost.host/meutraa/tally/internal/engine"
)

const (
	Magic = "YAREPLAY"
	// Extension of files written by WriteFile.
	Extension = ".replay"

	// Replays older than MetadataMinVersion cannot be read at all, and
	// those older than DataMinVersion only have a readable header.
	MetadataMinVersion int32 = 1
	DataMinVersion     int32 = 2
	Version            int32 = 2

	// EngineVersion changes whenever scoring changes in a way that makes
	// older replays fail analysis.
	EngineVersion int32 = 1
)

// Info is the header of a replay. It can be read without the frames.
type Info struct {
	Path string

	ReplayVersion  int32
	EngineVersion  int32
	ReplayChecksum Hash

	SongName     string
	ArtistName   string
	CharterName  string
	SongChecksum Hash
	Date         time.Time

	SongSpeed    float32
	ReplayLength float64
	BandScore    int32
	BandStars    float32

	Stats []PlayerStats
}

// Name is the file name a replay is saved under, without extension.
func (i *Info) Name() string {
	name := fmt.Sprintf("%s-%s-%s-%s", i.ArtistName, i.SongName, i.CharterName, i.Date.Format("06-01-02-15-04-05"))
	return invalidFileChars.ReplaceAllString(name, "")
}

var invalidFileChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// Profile is the player setup a frame was recorded with.
type Profile struct {
	Name       string
	Instrument chart.Instrument
	Difficulty chart.Difficulty
	Modifiers  chart.Modifier
	IsBot      bool
}

// NoteResult is the outcome of one chord note at the end of a run.
type NoteResult uint8

const (
	Unjudged NoteResult = iota
	Hit
	Missed
)

// NoteResults flattens the hit decisions of every note and chord child in
// chart order.
func NoteResults(notes []chart.Note) []NoteResult {
	var out []NoteResult
	for i := range notes {
		n := &notes[i]
		for j := 0; j < n.ChordLen(); j++ {
			c := n.ChordNote(j)
			switch {
			case c.WasHit:
				out = append(out, Hit)
			case c.WasMissed:
				out = append(out, Missed)
			default:
				out = append(out, Unjudged)
			}
		}
	}
	return out
}

// Frame is everything needed to replay one player.
type Frame struct {
	Profile    Profile
	Parameters engine.Parameters
	Stats      engine.Stats
	Notes      []NoteResult
	Inputs     []engine.GameInput
}

type Data struct {
	Frames []Frame
}

// Write stores a replay. The checksum of the frames is filled into info.
func Write(w io.Writer, info *Info, data *Data) error {
	var body encoder
	if err := encodeData(&body, data); nil != err {
		return err
	}
	info.ReplayVersion = Version
	info.EngineVersion = EngineVersion
	info.ReplayChecksum = hashOf(body.buf.Bytes())

	var header encoder
	encodeInfo(&header, info)

	var out encoder
	out.buf.WriteString(Magic)
	out.i32(Version)
	out.hash(hashOf(header.buf.Bytes()))
	out.bytes(header.buf.Bytes())
	out.buf.Write(body.buf.Bytes())

	if _, err := w.Write(out.buf.Bytes()); nil != err {
		return errors.Wrap(err, "unable to write replay")
	}
	return nil
}

// WriteFile stores a replay in dir under its Name and returns the path.
func WriteFile(dir string, info *Info, data *Data) (string, error) {
	path := filepath.Join(dir, info.Name()+Extension)
	var buf bytes.Buffer
	if err := Write(&buf, info, data); nil != err {
		return "", err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); nil != err {
		return "", errors.Wrap(err, "unable to save replay")
	}
	info.Path = path
	return path, nil
}

// Read parses a whole replay. Unless the error is ErrMetadataOnly or
// ErrDataMismatch, a non nil error means info is nil as well.
func Read(b []byte) (*Info, *Data, error) {
	info, rest, err := readHeader(b)
	if nil != err {
		return nil, nil, err
	}
	data, err := LoadData(info, rest)
	return info, data, err
}

func ReadFile(path string) (*Info, *Data, error) {
	b, err := os.ReadFile(path)
	if nil != err {
		return nil, nil, errors.Wrap(err, "unable to read replay")
	}
	info, data, err := Read(b)
	if nil != info {
		info.Path = path
	}
	return info, data, err
}

// ReadMetadata parses only the header of a replay file.
func ReadMetadata(path string) (*Info, error) {
	b, err := os.ReadFile(path)
	if nil != err {
		return nil, errors.Wrap(err, "unable to read replay")
	}
	info, _, err := readHeader(b)
	if nil != err {
		return nil, err
	}
	info.Path = path
	return info, nil
}

// LoadData parses the frames that follow the header described by info.
func LoadData(info *Info, b []byte) (*Data, error) {
	if info.ReplayVersion < DataMinVersion {
		return nil, errors.Wrapf(ErrMetadataOnly, "replay version %d", info.ReplayVersion)
	}
	if hashOf(b) != info.ReplayChecksum {
		return nil, ErrDataMismatch
	}
	d := newDecoder(b)
	data := decodeData(d)
	if nil != d.err {
		return nil, d.err
	}
	return data, nil
}

func readHeader(b []byte) (*Info, []byte, error) {
	if len(b) < len(Magic) || string(b[:len(Magic)]) != Magic {
		return nil, nil, ErrNotAReplay
	}
	d := newDecoder(b[len(Magic):])
	version := d.i32()
	if nil != d.err {
		return nil, nil, d.err
	}
	if version < MetadataMinVersion || version > Version {
		return nil, nil, errors.Wrapf(ErrInvalidVersion, "replay version %d", version)
	}

	sum := d.hash()
	header := d.bytes()
	if nil != d.err {
		return nil, nil, d.err
	}
	if hashOf(header) != sum {
		return nil, nil, errors.Wrap(ErrCorrupted, "header checksum mismatch")
	}

	hd := newDecoder(header)
	info, err := decodeInfo(hd)
	if nil != err {
		return nil, nil, err
	}
	info.ReplayVersion = version

	rest := make([]byte, d.r.Len())
	copy(rest, b[len(b)-d.r.Len():])
	return info, rest, nil
}

func encodeInfo(e *encoder, i *Info) {
	e.i32(i.EngineVersion)
	e.hash(i.ReplayChecksum)
	e.str(i.SongName)
	e.str(i.ArtistName)
	e.str(i.CharterName)
	e.hash(i.SongChecksum)
	e.i64(i.Date.UnixNano())
	e.f32(i.SongSpeed)
	e.f64(i.ReplayLength)
	e.i32(i.BandScore)
	e.f32(i.BandStars)
	e.i32(int32(len(i.Stats)))
	for _, s := range i.Stats {
		s.encode(e)
	}
}

func decodeInfo(d *decoder) (*Info, error) {
	i := &Info{}
	i.EngineVersion = d.i32()
	i.ReplayChecksum = d.hash()
	i.SongName = d.str()
	i.ArtistName = d.str()
	i.CharterName = d.str()
	i.SongChecksum = d.hash()
	i.Date = time.Unix(0, d.i64())
	i.SongSpeed = d.f32()
	i.ReplayLength = d.f64()
	i.BandScore = d.i32()
	i.BandStars = d.f32()
	n := d.count()
	if nil != d.err {
		return nil, d.err
	}
	for j := 0; j < n; j++ {
		s, err := readPlayerStats(d)
		if nil != err {
			return nil, err
		}
		i.Stats = append(i.Stats, s)
	}
	return i, nil
}

func encodeData(e *encoder, data *Data) error {
	e.i32(int32(len(data.Frames)))
	for k := range data.Frames {
		if err := encodeFrame(e, &data.Frames[k]); nil != err {
			return err
		}
	}
	return nil
}

func decodeData(d *decoder) *Data {
	data := &Data{}
	n := d.count()
	for j := 0; j < n; j++ {
		if nil != d.err {
			break
		}
		data.Frames = append(data.Frames, decodeFrame(d))
	}
	return data
}

// Frames keep the parameters as YAML so that new tuning fields do not
// change the binary layout.
func encodeFrame(e *encoder, f *Frame) error {
	e.str(f.Profile.Name)
	e.u8(uint8(f.Profile.Instrument))
	e.u8(uint8(f.Profile.Difficulty))
	e.u32(uint32(f.Profile.Modifiers))
	e.boolean(f.Profile.IsBot)

	params, err := yaml.Marshal(&f.Parameters)
	if nil != err {
		return errors.Wrap(err, "unable to encode engine parameters")
	}
	e.u8(uint8(f.Parameters.Mode))
	e.f64(f.Parameters.SongSpeed)
	e.bytes(params)

	encodeEngineStats(e, &f.Stats)

	e.i32(int32(len(f.Notes)))
	for _, r := range f.Notes {
		e.u8(uint8(r))
	}

	e.i32(int32(len(f.Inputs)))
	for _, in := range f.Inputs {
		e.f64(in.Time)
		e.i32(int32(in.Action))
		e.boolean(in.Button)
		e.f32(in.Axis)
	}
	return nil
}

func decodeFrame(d *decoder) Frame {
	var f Frame
	f.Profile.Name = d.str()
	f.Profile.Instrument = chart.Instrument(d.u8())
	f.Profile.Difficulty = chart.Difficulty(d.u8())
	f.Profile.Modifiers = chart.Modifier(d.u32())
	f.Profile.IsBot = d.boolean()

	mode := chart.GameMode(d.u8())
	speed := d.f64()
	params := d.bytes()
	if nil != d.err {
		return f
	}
	// Fields missing from older replays keep their default tuning.
	f.Parameters = engine.DefaultParameters(f.Profile.Instrument, f.Profile.Difficulty)
	if err := yaml.Unmarshal(params, &f.Parameters); nil != err {
		d.err = errors.Wrapf(ErrCorrupted, "engine parameters: %v", err)
		return f
	}
	f.Parameters.Mode = mode
	f.Parameters.SongSpeed = speed
	f.Parameters.HitWindow.Scale = speed

	decodeEngineStats(d, &f.Stats)

	n := d.count()
	f.Notes = make([]NoteResult, n)
	for k := range f.Notes {
		f.Notes[k] = NoteResult(d.u8())
	}

	// An input takes 17 bytes.
	n = d.count()
	f.Inputs = make([]engine.GameInput, 0, n/17)
	for j := 0; j < n; j++ {
		if nil != d.err {
			break
		}
		in := engine.GameInput{Time: d.f64(), Action: int(d.i32()), Button: d.boolean(), Axis: d.f32()}
		f.Inputs = append(f.Inputs, in)
	}
	return f
}

func encodeEngineStats(e *encoder, s *engine.Stats) {
	for _, v := range []int{
		s.CommittedScore, s.PendingScore, s.NoteScore, s.SustainScore, s.MultiplierScore,
		s.Combo, s.MaxCombo, s.ScoreMultiplier, s.NotesHit, s.TotalNotes,
	} {
		e.i32(int32(v))
	}
	e.u32(s.StarPowerTickAmount)
	e.u32(s.TotalStarPowerTicks)
	e.f64(s.TotalStarPowerBarsFilled)
	e.i32(int32(s.StarPowerActivationCount))
	e.f64(s.TimeInStarPower)
	e.u32(s.StarPowerWhammyTicks)
	e.boolean(s.IsStarPowerActive)
	for _, v := range []int{
		s.StarPowerPhrasesHit, s.TotalStarPowerPhrases, s.StarPowerScore, s.SoloBonuses,
	} {
		e.i32(int32(v))
	}
	e.f32(s.Stars)
	for _, v := range []int{s.Overstrums, s.HoposStrummed, s.GhostInputs, s.Overhits} {
		e.i32(int32(v))
	}
	e.u32(s.TicksHit)
	e.u32(s.TicksMissed)
	e.i32(int32(s.PerfectPhrases))
}

func decodeEngineStats(d *decoder, s *engine.Stats) {
	for _, v := range []*int{
		&s.CommittedScore, &s.PendingScore, &s.NoteScore, &s.SustainScore, &s.MultiplierScore,
		&s.Combo, &s.MaxCombo, &s.ScoreMultiplier, &s.NotesHit, &s.TotalNotes,
	} {
		*v = int(d.i32())
	}
	s.StarPowerTickAmount = d.u32()
	s.TotalStarPowerTicks = d.u32()
	s.TotalStarPowerBarsFilled = d.f64()
	s.StarPowerActivationCount = int(d.i32())
	s.TimeInStarPower = d.f64()
	s.StarPowerWhammyTicks = d.u32()
	s.IsStarPowerActive = d.boolean()
	for _, v := range []*int{
		&s.StarPowerPhrasesHit, &s.TotalStarPowerPhrases, &s.StarPowerScore, &s.SoloBonuses,
	} {
		*v = int(d.i32())
	}
	s.Stars = d.f32()
	for _, v := range []*int{&s.Overstrums, &s.HoposStrummed, &s.GhostInputs, &s.Overhits} {
		*v = int(d.i32())
	}
	s.TicksHit = d.u32()
	s.TicksMissed = d.u32()
	s.PerfectPhrases = int(d.i32())
}
