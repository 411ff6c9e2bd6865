package search

import (
	"math"
	"time"
)

// Recency boost parameters: a hit from today scores up to 30% higher,
// decaying with a 90-day half-life-style exponential.
const (
	recencyBoostWeight = 0.3
	recencyDecayDays   = 90.0
)

// CosineSimilarity computes the cosine of the angle between two vectors.
// Vectors of different lengths are an error; a zero-magnitude vector has
// no direction and yields similarity 0.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// RecencyBoost scales a similarity by how recently the entry was created:
// boosted = sim * (1 + 0.3 * e^(-ageDays/90)). The boost is strictly
// decreasing with age and never inverts the similarity ordering of two
// entries created at the same time.
func RecencyBoost(similarity float64, createdAt, now time.Time) float64 {
	ageDays := now.Sub(createdAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	return similarity * (1 + recencyBoostWeight*math.Exp(-ageDays/recencyDecayDays))
}
