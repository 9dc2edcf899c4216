package engine

import "math"

// Timer is a leniency window measured in song time. Its length scales with
// song speed.
type Timer struct {
	StartTime float64
	EndTime   float64
	IsActive  bool

	original float64
	speed    float64
}

func NewTimer(length float64) Timer {
	return Timer{original: length, speed: 1, StartTime: math.Inf(-1), EndTime: math.Inf(-1)}
}

func (t *Timer) Length() float64 { return t.original * t.speed }

func (t *Timer) Start(now float64) {
	t.StartTime = now
	t.EndTime = now + t.Length()
	t.IsActive = true
}

// StartWithOffset starts the timer so that it ends offset seconds from now.
func (t *Timer) StartWithOffset(now, offset float64) {
	t.StartTime = now
	t.EndTime = now + offset*t.speed
	t.IsActive = true
}

func (t *Timer) Disable() { t.IsActive = false }

func (t *Timer) Reset() {
	t.IsActive = false
	t.StartTime = math.Inf(-1)
	t.EndTime = math.Inf(-1)
}

func (t *Timer) IsExpired(now float64) bool { return now >= t.EndTime }

func (t *Timer) SetSpeed(speed float64) { t.speed = speed }
