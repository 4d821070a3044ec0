package workspace

import "math"

// Distance is the Euclidean distance between two points.
func Distance(ax, ay, bx, by float64) float64 {
	return math.Hypot(ax-bx, ay-by)
}

// findCollision returns the index of the first non-loading token other than
// skip whose center is strictly closer than threshold to (x, y), or -1.
func findCollision(tokens []Token, skip string, x, y, threshold float64) int {
	for i, t := range tokens {
		if t.ID == skip || t.Loading {
			continue
		}
		if Distance(t.X, t.Y, x, y) < threshold {
			return i
		}
	}
	return -1
}

// SpawnPosition picks where a new token lands. Narrow viewports get a fixed
// spot; wider ones get a small random offset from (200, 200).
func SpawnPosition(viewportWidth, narrowViewport float64, jitter func() float64) (float64, float64) {
	if viewportWidth < narrowViewport {
		return 50, 100
	}
	return 200 + jitter()*50, 200 + jitter()*50
}
