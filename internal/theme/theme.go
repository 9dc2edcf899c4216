package theme

type Theme interface {
	RenderHeading(text string) string
	RenderResult(passed bool) string
	RenderDifference(line string, identical bool) string
	RenderStars(stars float32) string
}
