package engine

import "git.lost.host/meutraa/tally/internal/chart"

type EventType uint8

const (
	NoteHit EventType = iota
	NoteMissed
	Overstrum
	Overhit
	GhostInput
	StarPowerPhraseHit
	StarPowerPhraseMissed
	StarPowerStatus
	SoloStart
	SoloEnd
	SustainStart
	SustainEnd
	PhraseHit
	PercussionHit
)

var eventNames = [...]string{
	"note-hit", "note-missed", "overstrum", "overhit", "ghost-input",
	"sp-phrase-hit", "sp-phrase-missed", "sp-status", "solo-start", "solo-end",
	"sustain-start", "sustain-end", "phrase-hit", "percussion-hit",
}

func (t EventType) String() string {
	if int(t) < len(eventNames) {
		return eventNames[t]
	}
	return "unknown"
}

// Event is a notification produced during Update. NoteIndex is the parent
// note and Child the chord member, 0 being the parent itself.
type Event struct {
	Type      EventType
	Time      float64
	NoteIndex int
	Child     int
	// Active for star power status, finished for sustain end, the bonus for
	// solo end and the hit percentage for vocal phrases.
	Active  bool
	Value   float64
	Payload int
}

// EventQueueSize must be a power of two.
const EventQueueSize = 1 << 10

const eventMask = EventQueueSize - 1

// EventQueue is a ring buffer drained by the caller after each Update.
// When full the oldest events are overwritten.
type EventQueue struct {
	events [EventQueueSize]Event
	head   uint64
	tail   uint64
}

func (q *EventQueue) Push(e Event) {
	q.events[q.tail&eventMask] = e
	q.tail++
	if q.tail-q.head > EventQueueSize {
		q.head = q.tail - EventQueueSize
	}
}

// Consume returns the pending events in order and empties the queue.
func (q *EventQueue) Consume() []Event {
	if q.tail == q.head {
		return nil
	}
	out := make([]Event, 0, q.tail-q.head)
	for i := q.head; i < q.tail; i++ {
		out = append(out, q.events[i&eventMask])
	}
	q.head = q.tail
	return out
}

func (q *EventQueue) Len() int { return int(q.tail - q.head) }

func (q *EventQueue) Clear() { q.head = q.tail }

// ref locates a note within the engine's notes.
type ref struct {
	index int
	child int
}

func (r ref) note(notes []chart.Note) *chart.Note {
	return notes[r.index].ChordNote(r.child)
}
