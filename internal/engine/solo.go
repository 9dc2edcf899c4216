package engine

import "git.lost.host/meutraa/tally/internal/chart"

// SoloSection tracks the bonus of one solo.
type SoloSection struct {
	NoteCount int
	NotesHit  int
	SoloBonus int
}

func (b *Base) soloSections() []SoloSection {
	if len(b.notes) == 0 {
		return nil
	}
	if first := &b.notes[0]; first.IsSolo() {
		first.ActivateFlag(chart.SoloStart)
	}
	if last := &b.notes[len(b.notes)-1]; last.IsSolo() {
		last.ActivateFlag(chart.SoloEnd)
	}

	var solos []SoloSection
	for i := 0; i < len(b.notes); i++ {
		if !b.notes[i].IsSoloStart() {
			continue
		}
		count := b.numberOfNotes(&b.notes[i])
		if b.notes[i].IsSoloEnd() {
			solos = append(solos, SoloSection{NoteCount: count})
			continue
		}
		for j := i + 1; j < len(b.notes); j++ {
			count += b.numberOfNotes(&b.notes[j])
			if !b.notes[j].IsSoloEnd() {
				continue
			}
			solos = append(solos, SoloSection{NoteCount: count})
			i = j
			break
		}
	}
	return solos
}

func (b *Base) startSolo() {
	if b.soloIndex >= len(b.solos) {
		return
	}
	b.soloActive = true
	b.emit(Event{Type: SoloStart, Payload: b.soloIndex})
}

// hitSoloNote counts a hit towards the active solo.
func (b *Base) hitSoloNote(count int) {
	if b.soloActive {
		b.solos[b.soloIndex].NotesHit += count
	}
}

// endSolo awards up to 100 points per solo note hit once more than 60% of the
// solo was hit, rounded down to a multiple of 50.
func (b *Base) endSolo() {
	if !b.soloActive {
		return
	}

	solo := &b.solos[b.soloIndex]
	percent := float64(solo.NotesHit) / float64(solo.NoteCount)
	if percent < 0.6 {
		solo.SoloBonus = 0
	} else {
		points := 100 * float64(solo.NotesHit) * clamp((percent-0.6)/0.4, 0, 1)
		solo.SoloBonus = int(points) - int(points)%50
	}

	b.stats.SoloBonuses += solo.SoloBonus
	b.soloActive = false
	b.emit(Event{Type: SoloEnd, Payload: b.soloIndex, Value: float64(solo.SoloBonus)})
	b.soloIndex++
}
