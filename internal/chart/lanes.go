package chart

type GuitarFret = int

const (
	OpenFret GuitarFret = iota
	GreenFret
	RedFret
	YellowFret
	BlueFret
	OrangeFret
)

type GuitarNoteType = uint8

const (
	Strum GuitarNoteType = iota
	Hopo
	Tap
)

// OpenMask is the bit used for open notes in a fret mask.
const OpenMask byte = 1 << 6

// FretMask is the single bit this guitar note occupies in a fret mask.
func (n *Note) FretMask() byte {
	if n.Lane == OpenFret {
		return OpenMask
	}
	return 1 << (n.Lane - 1)
}

// NoteMask combines the fret masks of the whole chord.
func (n *Note) NoteMask() byte {
	var mask byte
	for i := 0; i < n.ChordLen(); i++ {
		mask |= n.ChordNote(i).FretMask()
	}
	return mask
}

func (n *Note) IsStrum() bool { return n.Type == Strum }
func (n *Note) IsHopo() bool  { return n.Type == Hopo }
func (n *Note) IsTap() bool   { return n.Type == Tap }

type DrumPad = int

// Four lane and pro drums pads.
const (
	Kick DrumPad = iota
	RedDrum
	YellowDrum
	BlueDrum
	GreenDrum
	YellowCymbal
	BlueCymbal
	GreenCymbal
)

// Five lane drums pads.
const (
	FiveLaneKick DrumPad = iota
	FiveLaneRed
	FiveLaneYellow
	FiveLaneBlue
	FiveLaneOrange
	FiveLaneGreen
)

type DrumNoteType = uint8

const (
	Neutral DrumNoteType = iota
	Accent
	Ghost
)

func (n *Note) IsKick() bool   { return n.Kind == Drums && n.Lane == Kick }
func (n *Note) IsAccent() bool { return n.Kind == Drums && n.Type == Accent }
func (n *Note) IsGhost() bool  { return n.Kind == Drums && n.Type == Ghost }

func IsCymbal(pad DrumPad) bool {
	return pad == YellowCymbal || pad == BlueCymbal || pad == GreenCymbal
}

// KeyCount is the number of keys on a pro keys keyboard.
const KeyCount = 25

// IsWhiteKey reports whether the zero based key index is a white key. The
// range starts on C.
func IsWhiteKey(key int) bool {
	switch key % 12 {
	case 1, 3, 6, 8, 10:
		return false
	}
	return true
}
