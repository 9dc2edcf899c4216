package engine

// Stats accumulates the score of one player. Only the owning engine mutates it.
type Stats struct {
	CommittedScore  int
	PendingScore    int
	NoteScore       int
	SustainScore    int
	MultiplierScore int

	Combo           int
	MaxCombo        int
	ScoreMultiplier int

	NotesHit   int
	TotalNotes int

	StarPowerTickAmount      uint32
	TotalStarPowerTicks      uint32
	TotalStarPowerBarsFilled float64
	StarPowerActivationCount int
	TimeInStarPower          float64
	StarPowerWhammyTicks     uint32
	IsStarPowerActive        bool
	StarPowerPhrasesHit      int
	TotalStarPowerPhrases    int
	StarPowerScore           int

	SoloBonuses int
	Stars       float32

	// Guitar
	Overstrums    int
	HoposStrummed int
	GhostInputs   int

	// Drums and pro keys
	Overhits int

	// Vocals
	TicksHit       uint32
	TicksMissed    uint32
	PerfectPhrases int
}

func (s *Stats) TotalScore() int  { return s.CommittedScore + s.PendingScore + s.SoloBonuses }
func (s *Stats) StarScore() int   { return s.CommittedScore + s.PendingScore }
func (s *Stats) NotesMissed() int { return s.TotalNotes - s.NotesHit }

func (s *Stats) StarPowerPhrasesMissed() int {
	return s.TotalStarPowerPhrases - s.StarPowerPhrasesHit
}

func (s *Stats) Percent() float32 {
	if s.TotalNotes == 0 {
		return 1
	}
	return float32(s.NotesHit) / float32(s.TotalNotes)
}

// AverageMultiplier is the committed score relative to the score the same
// hits would have earned without any multiplier.
func (s *Stats) AverageMultiplier() float32 {
	base := s.CommittedScore - s.MultiplierScore
	if base <= 0 {
		return 1
	}
	return float32(s.CommittedScore) / float32(base)
}

// Reset clears everything except the totals that come from the chart.
func (s *Stats) Reset() {
	totalNotes, totalPhrases := s.TotalNotes, s.TotalStarPowerPhrases
	*s = Stats{}
	s.TotalNotes = totalNotes
	s.TotalStarPowerPhrases = totalPhrases
	s.ScoreMultiplier = 1
}

func (s *Stats) incrementCombo() {
	s.Combo++
	if s.Combo > s.MaxCombo {
		s.MaxCombo = s.Combo
	}
}
