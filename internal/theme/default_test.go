package theme

import "testing"

var plainStars = map[float32]string{
	0:   "☆☆☆☆☆",
	2.9: "★★☆☆☆",
	5:   "★★★★★",
	6.2: "★★★★★",
	-1:  "☆☆☆☆☆",
}

func TestRenderStars(t *testing.T) {
	th := &DefaultTheme{Plain: true}
	for stars, expected := range plainStars {
		if out := th.RenderStars(stars); out != expected {
			t.Log("stars   ", stars)
			t.Log("out     ", out)
			t.Log("expected", expected)
			t.Fail()
		}
	}
}

func TestColors(t *testing.T) {
	th := &DefaultTheme{}
	if out := th.RenderResult(true); out != "\033[38;2;0;236;128mPASSED\033[0m" {
		t.Log("out     ", out)
		t.Fail()
	}
	if out := th.RenderStars(7); out != "\033[38;2;236;195;0m★★★★★\033[0m" {
		t.Log("out     ", out)
		t.Fail()
	}

	plain := &DefaultTheme{Plain: true}
	if plain.RenderResult(false) != "FAILED" || plain.RenderDifference("x", false) != "x" || plain.RenderHeading("h") != "h" {
		t.Fail()
	}
}
