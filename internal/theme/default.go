package theme

import (
	"fmt"
	"math"
	"strings"
)

// Color is a 24 bit terminal colour.
type Color struct {
	R, G, B uint8
}

// DefaultTheme colours report text with true colour escapes. A Plain theme
// returns text unchanged, for output that is not a terminal.
type DefaultTheme struct {
	Plain bool
}

func (t *DefaultTheme) paint(c Color, text string) string {
	if t.Plain {
		return text
	}
	return fmt.Sprintf("\033[38;2;%v;%v;%vm%v\033[0m", c.R, c.G, c.B, text)
}

func (t *DefaultTheme) RenderHeading(text string) string {
	if t.Plain {
		return text
	}
	return "\033[1m" + t.paint(colors["heading"], text)
}

func (t *DefaultTheme) RenderResult(passed bool) string {
	if passed {
		return t.paint(colors["pass"], "PASSED")
	}
	return t.paint(colors["fail"], "FAILED")
}

func (t *DefaultTheme) RenderDifference(line string, identical bool) string {
	if identical {
		return t.paint(colors["identical"], line)
	}
	return t.paint(colors["fail"], line)
}

// RenderStars draws whole stars out of five. Six or more stars are gold.
func (t *DefaultTheme) RenderStars(stars float32) string {
	n := int(math.Floor(float64(stars)))
	if n >= 6 {
		return t.paint(colors["gold"], strings.Repeat(starSym, 5))
	}
	n = max(0, min(n, 5))
	return t.paint(colors["star"], strings.Repeat(starSym, n)) + strings.Repeat(emptyStarSym, 5-n)
}

const (
	starSym      = "★"
	emptyStarSym = "☆"
)

var colors = map[string]Color{
	"heading":   {0, 118, 236},   // blue
	"pass":      {0, 236, 128},   // green
	"fail":      {236, 30, 0},    // red
	"identical": {106, 106, 106}, // grey
	"star":      {236, 236, 236}, // white
	"gold":      {236, 195, 0},   // yellow
}
