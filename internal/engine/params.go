package engine

import (
	"math"

	"git.lost.host/meutraa/tally/internal/chart"
)

// HitWindow describes the timing window around each note. Front and back end
// offsets are split from the full window by FrontToBackRatio.
type HitWindow struct {
	MaxWindow        float64 `yaml:"max_window"`
	MinWindow        float64 `yaml:"min_window"`
	FrontToBackRatio float64 `yaml:"front_to_back_ratio"`
	IsDynamic        bool    `yaml:"dynamic"`
	DynamicSlope     float64 `yaml:"dynamic_slope"`
	DynamicScale     float64 `yaml:"dynamic_scale"`
	DynamicGamma     float64 `yaml:"dynamic_gamma"`

	// Scale follows the song speed.
	Scale float64 `yaml:"-"`
}

func DefaultHitWindow() HitWindow {
	return HitWindow{
		MaxWindow:        0.14,
		MinWindow:        0.14,
		FrontToBackRatio: 1.0,
		DynamicSlope:     0.93,
		DynamicScale:     1.0,
		DynamicGamma:     1.5,
		Scale:            1.0,
	}
}

// Normalize orders the window bounds and clamps the dynamic curve settings.
func (w *HitWindow) Normalize() {
	if w.MaxWindow < w.MinWindow {
		w.MaxWindow, w.MinWindow = w.MinWindow, w.MaxWindow
	}
	w.DynamicSlope = clamp(w.DynamicSlope, 0, 1)
	w.DynamicScale = clamp(w.DynamicScale, 0.3, 3)
	w.DynamicGamma = clamp(w.DynamicGamma, 0.1, 10)
	if w.Scale == 0 {
		w.Scale = 1
	}
}

// Size is the full window for a note whose neighbours are averageDistance
// seconds away. Dense passages narrow the window towards MinWindow.
func (w *HitWindow) Size(averageDistance float64) float64 {
	if !w.IsDynamic {
		return w.MaxWindow
	}
	x := averageDistance * 1000
	minMillis := w.MinWindow * 1000
	maxMillis := w.MaxWindow * 1000
	gammaPow := math.Pow(x/(maxMillis*w.DynamicScale), w.DynamicGamma)
	minSlope := minMillis * w.DynamicSlope
	size := (gammaPow*(maxMillis-minSlope) + minSlope) / 1000
	return clamp(size, w.MinWindow, w.MaxWindow)
}

// FrontEnd is the negative offset from a note's time where its window opens.
func (w *HitWindow) FrontEnd(size float64) float64 {
	return -(math.Abs(size/2) * w.FrontToBackRatio) * w.Scale
}

func (w *HitWindow) BackEnd(size float64) float64 {
	return math.Abs(size/2) * (2 - w.FrontToBackRatio) * w.Scale
}

type GuitarParameters struct {
	HopoLeniency       float64 `yaml:"hopo_leniency"`
	StrumLeniency      float64 `yaml:"strum_leniency"`
	StrumLeniencySmall float64 `yaml:"strum_leniency_small"`
	InfiniteFrontEnd   bool    `yaml:"infinite_front_end"`
	AntiGhosting       bool    `yaml:"anti_ghosting"`
	// Anchoring lets lower frets be held under single notes and hopo or tap
	// chords. Strummed chords always need their exact frets.
	Anchoring bool `yaml:"anchoring"`
}

type DrumsParameters struct {
	// Pad hits softer than this count as ghosts, harder than 1 minus this as accents.
	VelocityThreshold float64 `yaml:"velocity_threshold"`
	// Seconds a previous hit on the same pad influences the velocity threshold.
	SituationalVelocityWindow float64 `yaml:"situational_velocity_window"`
}

type VocalsParameters struct {
	PitchWindow             float32 `yaml:"pitch_window"`
	PitchWindowPerfect      float32 `yaml:"pitch_window_perfect"`
	PhraseHitPercent        float64 `yaml:"phrase_hit_percent"`
	ApproximateVocalFps     float64 `yaml:"approximate_vocal_fps"`
	SingToActivateStarPower bool    `yaml:"sing_to_activate_star_power"`
	PointsPerPhrase         int     `yaml:"points_per_phrase"`
}

type ProKeysParameters struct {
	ChordStaggerWindow float64 `yaml:"chord_stagger_window"`
	FatFingerWindow    float64 `yaml:"fat_finger_window"`
}

// Parameters configure an engine. They are read only for the engine's
// lifetime apart from the song speed.
type Parameters struct {
	Mode chart.GameMode `yaml:"-"`
	// ProDrums scores drums as pro drums, where cymbals are distinct pads.
	ProDrums bool `yaml:"pro_drums"`

	HitWindow                HitWindow `yaml:"hit_window"`
	MaxMultiplier            int       `yaml:"max_multiplier"`
	StarMultiplierThresholds []float32 `yaml:"star_multiplier_thresholds"`
	StarPowerWhammyBuffer    float64   `yaml:"star_power_whammy_buffer"`
	SustainDropLeniency      float64   `yaml:"sustain_drop_leniency"`
	SongSpeed                float64   `yaml:"-"`

	Guitar  GuitarParameters  `yaml:"guitar"`
	Drums   DrumsParameters   `yaml:"drums"`
	Vocals  VocalsParameters  `yaml:"vocals"`
	ProKeys ProKeysParameters `yaml:"prokeys"`
}

var (
	guitarStarThresholds = []float32{0.21, 0.46, 0.77, 1.85, 3.08, 4.52}
	bassStarThresholds   = []float32{0.21, 0.50, 0.90, 2.77, 4.62, 6.78}
	drumsStarThresholds  = []float32{0.21, 0.46, 0.77, 1.85, 3.08, 4.29}
	vocalsStarThresholds = []float32{0.21, 0.46, 0.77, 1.85, 3.08, 4.18}
)

// DefaultParameters returns the standard tuning for an instrument and difficulty.
func DefaultParameters(instrument chart.Instrument, difficulty chart.Difficulty) Parameters {
	p := Parameters{
		Mode:                     instrument.GameMode(),
		ProDrums:                 instrument == chart.ProDrums,
		HitWindow:                DefaultHitWindow(),
		MaxMultiplier:            4,
		StarMultiplierThresholds: guitarStarThresholds,
		StarPowerWhammyBuffer:    0.25,
		SustainDropLeniency:      0.025,
		SongSpeed:                1,
		Guitar: GuitarParameters{
			HopoLeniency:       0.08,
			StrumLeniency:      0.05,
			StrumLeniencySmall: 0.025,
			AntiGhosting:       true,
			Anchoring:          true,
		},
		Drums: DrumsParameters{
			VelocityThreshold:         0.35,
			SituationalVelocityWindow: 1.5,
		},
		ProKeys: ProKeysParameters{
			ChordStaggerWindow: 0.05,
			FatFingerWindow:    0.1,
		},
	}

	switch p.Mode {
	case chart.FiveFretGuitar:
		if instrument == chart.FiveFretBass {
			p.MaxMultiplier = 6
			p.StarMultiplierThresholds = bassStarThresholds
		}
	case chart.FourLaneDrums, chart.FiveLaneDrums:
		p.StarMultiplierThresholds = drumsStarThresholds
	case chart.VocalsMode:
		p.StarMultiplierThresholds = vocalsStarThresholds
		p.HitWindow = HitWindow{MaxWindow: 0.16, MinWindow: 0.16, FrontToBackRatio: 1, Scale: 1}
		p.Vocals = defaultVocalsParameters(difficulty)
	}
	return p
}

func defaultVocalsParameters(difficulty chart.Difficulty) VocalsParameters {
	const perfectPercent = 0.6
	p := VocalsParameters{ApproximateVocalFps: 20}
	switch difficulty {
	case chart.Beginner, chart.Easy:
		p.PitchWindow, p.PhraseHitPercent, p.PointsPerPhrase = 1.7, 0.325, 400
	case chart.Medium:
		p.PitchWindow, p.PhraseHitPercent, p.PointsPerPhrase = 1.4, 0.4, 800
	case chart.Hard:
		p.PitchWindow, p.PhraseHitPercent, p.PointsPerPhrase = 1.1, 0.45, 1600
	default:
		p.PitchWindow, p.PhraseHitPercent, p.PointsPerPhrase = 0.8, 0.575, 2000
	}
	p.PitchWindowPerfect = p.PitchWindow * perfectPercent
	return p
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func inverseLerp(a, b, v float64) float64 {
	if a == b {
		return 0
	}
	return clamp((v-a)/(b-a), 0, 1)
}
