// Package index provides shared scoring primitives for the search engines.
// Corpus embeddings are L2-normalized at load, so cosine similarity is a
// plain dot product everywhere below.
package index

import (
	"math"
	"sort"

	"github.com/altglass/semqa/internal/domain/search/result"
)

// Normalize returns an L2-normalized copy of v. A zero vector is returned
// unchanged so it scores zero against everything instead of producing NaNs.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	norm := float32(math.Sqrt(sum))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// Dot computes the dot product of two vectors.
// Assumes equal length (caller's responsibility).
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Scored pairs a document id with its similarity to the query.
type Scored struct {
	DocID int
	Score float32
}

// TopK orders candidates by descending score, ties broken by ascending
// document id, and returns the first k as ranked results. It mutates the
// candidates slice. k must not exceed len(candidates).
func TopK(candidates []Scored, k int) []result.Result {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].DocID < candidates[j].DocID
	})

	if k > len(candidates) {
		k = len(candidates)
	}

	results := make([]result.Result, k)
	for i := 0; i < k; i++ {
		results[i] = result.New(candidates[i].DocID, candidates[i].Score, i)
	}
	return results
}
