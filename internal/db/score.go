package db

import domcol "github.com/whokrish/vectorbeats/internal/domain/collection"

// Similarity converts an engine-native distance into a similarity.
// Cosine and dot distances are 1-s; euclidean distance d becomes 1/(1+d).
func Similarity(metric domcol.Metric, distance float64) float64 {
	switch metric {
	case domcol.MetricEuclidean:
		if distance < 0 {
			distance = 0
		}
		return 1 / (1 + distance)
	default:
		return 1 - distance
	}
}

// MaxDistance is the euclidean distance matching a similarity threshold.
// It returns false when the threshold does not bound the distance.
func MaxDistance(threshold float64) (float64, bool) {
	if threshold <= 0 {
		return 0, false
	}
	if threshold >= 1 {
		return 0, true
	}
	return 1/threshold - 1, true
}
