package chart

import (
	"errors"
	"fmt"
)

// ErrInvalidOperation is returned when an operation is applied to a track of
// the wrong kind.
var ErrInvalidOperation = errors.New("invalid operation")

type Modifier uint16

const (
	AllStrums Modifier = 1 << iota
	AllHopos
	AllTaps
	HoposToTaps
	TapsToHopos
	NoKicks
	NoDynamics
	UnpitchedOnly

	NoModifiers Modifier = 0
)

var modifierNames = map[string]Modifier{
	"all-strums":     AllStrums,
	"all-hopos":      AllHopos,
	"all-taps":       AllTaps,
	"hopos-to-taps":  HoposToTaps,
	"taps-to-hopos":  TapsToHopos,
	"no-kicks":       NoKicks,
	"no-dynamics":    NoDynamics,
	"unpitched-only": UnpitchedOnly,
}

// ParseModifiers converts modifier names into a modifier set.
func ParseModifiers(names []string) (Modifier, error) {
	var m Modifier
	for _, name := range names {
		mod, ok := modifierNames[name]
		if !ok {
			return m, fmt.Errorf("unknown modifier %q", name)
		}
		m |= mod
	}
	return m, nil
}

func (m Modifier) Has(mod Modifier) bool { return m&mod == mod }

func (d *InstrumentDifficulty) requireKind(kind Kind, op string) error {
	if d.Kind != kind {
		return fmt.Errorf("%w: cannot apply %s to a %v track", ErrInvalidOperation, op, d.Kind)
	}
	return nil
}

// ApplyModifiers mutates the difficulty according to the modifiers relevant to
// its kind. The first matching guitar note type modifier wins.
func (d *InstrumentDifficulty) ApplyModifiers(m Modifier) error {
	switch d.Kind {
	case Guitar:
		switch {
		case m.Has(AllStrums):
			return d.ConvertToGuitarType(Strum)
		case m.Has(AllHopos):
			return d.ConvertToGuitarType(Hopo)
		case m.Has(AllTaps):
			return d.ConvertToGuitarType(Tap)
		case m.Has(HoposToTaps):
			return d.ConvertFromTypeToType(Hopo, Tap)
		case m.Has(TapsToHopos):
			return d.ConvertFromTypeToType(Tap, Hopo)
		}
	case Drums:
		if m.Has(NoKicks) {
			if err := d.RemoveKickDrumNotes(); nil != err {
				return err
			}
		}
		if m.Has(NoDynamics) {
			return d.RemoveDynamics()
		}
	case Vocals:
		if m.Has(UnpitchedOnly) {
			return d.ConvertToUnpitched()
		}
	}
	return nil
}

func (d *InstrumentDifficulty) eachNote(f func(n *Note)) {
	var walk func(n *Note)
	walk = func(n *Note) {
		f(n)
		for i := range n.Children {
			walk(&n.Children[i])
		}
	}
	for i := range d.Notes {
		walk(&d.Notes[i])
	}
}

func (d *InstrumentDifficulty) ConvertToGuitarType(t GuitarNoteType) error {
	if err := d.requireKind(Guitar, "guitar note type conversion"); nil != err {
		return err
	}
	d.eachNote(func(n *Note) { n.Type = t })
	d.Link()
	return nil
}

func (d *InstrumentDifficulty) ConvertFromTypeToType(from, to GuitarNoteType) error {
	if err := d.requireKind(Guitar, "guitar note type conversion"); nil != err {
		return err
	}
	d.eachNote(func(n *Note) {
		if n.Type == from {
			n.Type = to
		}
	})
	d.Link()
	return nil
}

func (d *InstrumentDifficulty) RemoveDynamics() error {
	if err := d.requireKind(Drums, "dynamics removal"); nil != err {
		return err
	}
	d.eachNote(func(n *Note) { n.Type = Neutral })
	d.Link()
	return nil
}

// ConvertToUnpitched turns every sung vocal note into an unpitched one.
func (d *InstrumentDifficulty) ConvertToUnpitched() error {
	if err := d.requireKind(Vocals, "unpitched conversion"); nil != err {
		return err
	}
	d.eachNote(func(n *Note) {
		if n.Type == LyricNote {
			n.Pitch = -1
		}
	})
	d.Link()
	return nil
}

// RemoveKickDrumNotes deletes every kick note. Star power and solo sections
// keep their extent: sections left without notes vanish, and a start or end
// that sat on a removed kick moves to the nearest remaining note inside the
// section.
func (d *InstrumentDifficulty) RemoveKickDrumNotes() error {
	if err := d.requireKind(Drums, "kick removal"); nil != err {
		return err
	}

	starPower := d.sectionsOf(StarPower, StarPowerStart, StarPowerEnd)
	solos := d.sectionsOf(Solo, SoloStart, SoloEnd)

	notes := d.Notes[:0]
	for _, n := range d.Notes {
		if n.IsKick() {
			k := None
			for j := range n.Children {
				if !n.Children[j].IsKick() {
					k = j
					break
				}
			}
			if k == None {
				continue
			}
			promoted := n.Children[k]
			promoted.Children = append(append([]Note{}, n.Children[:k]...), n.Children[k+1:]...)
			promoted.Flags |= n.Flags & StarPowerActivator
			n = promoted
		}
		children := n.Children[:0]
		for _, c := range n.Children {
			if !c.IsKick() {
				children = append(children, c)
			}
		}
		n.Children = children
		notes = append(notes, n)
	}
	d.Notes = notes

	for i := range d.Notes {
		d.Notes[i].Flags &^= inheritedFlags
	}
	for _, r := range starPower {
		d.flagSection(r, true, StarPower, StarPowerStart, StarPowerEnd)
	}
	for _, r := range solos {
		d.flagSection(r, true, Solo, SoloStart, SoloEnd)
	}

	phrases := d.Phrases[:0]
	for _, p := range d.Phrases {
		if d.hasNoteIn(tickRange{start: p.Tick, end: p.TickEnd()}) {
			phrases = append(phrases, p)
		}
	}
	d.Phrases = phrases

	d.Link()
	return nil
}

func (d *InstrumentDifficulty) hasNoteIn(r tickRange) bool {
	for i := range d.Notes {
		if r.contains(d.Notes[i].Tick, false) {
			return true
		}
	}
	return false
}
