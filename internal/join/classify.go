package join

import "github.com/jm3hiromu30-bit/keiba-scatter/internal/models"

// Classify buckets a joined run relative to the target race. Surface
// dominates distance: a different surface always wins, regardless of
// distance equality. Every run gets exactly one category.
func Classify(run models.HistoricalRun, target models.RaceTarget) models.Category {
	switch {
	case run.Surface != target.Surface:
		return models.DifferentSurface
	case run.Distance == target.Distance:
		return models.SameDistance
	default:
		return models.DifferentDist
	}
}
