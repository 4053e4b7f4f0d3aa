// Package ivf implements a partitioned (inverted-file) index over corpus
// embeddings. Training clusters a corpus sample into leaves; queries scan
// only the leaves whose centroids are closest to the query.
package ivf

import (
	"context"
	"fmt"
	"sort"

	"github.com/altglass/semqa/internal/domain"
	"github.com/altglass/semqa/internal/domain/search/result"
	"github.com/altglass/semqa/internal/index"
)

// Corpus is the read-only view of the document store the index is built over.
type Corpus interface {
	Size() int
	Dimension() int
	Embedding(id int) []float32
}

// Options controls index training.
type Options struct {
	// NumLeaves is the number of partitions. Must be in [1, corpus size].
	NumLeaves int
	// TrainingSampleSize bounds the clustering sample. The effective sample
	// is min(TrainingSampleSize, corpus size), never below NumLeaves.
	TrainingSampleSize int
	// Seed makes sampling and clustering reproducible.
	Seed int64
	// MaxIterations bounds the refinement loop. Defaults to 25.
	MaxIterations int
}

// Index is an immutable trained partition index. Safe for concurrent
// readers; a rebuild produces a fresh Index that is swapped in atomically
// by the owner.
type Index struct {
	corpus      Corpus
	centroids   [][]float32 // one normalized representative per leaf
	assignments []int       // doc id -> leaf id
	leaves      [][]int     // leaf id -> doc ids, ascending
	opts        Options
}

// NumLeaves returns the partition count.
func (ix *Index) NumLeaves() int { return len(ix.centroids) }

// Options returns the training options the index was built with.
func (ix *Index) Options() Options { return ix.opts }

// Dimension returns the embedding dimensionality the index was built over.
func (ix *Index) Dimension() int { return ix.corpus.Dimension() }

// LeafSizes returns the number of documents per leaf.
func (ix *Index) LeafSizes() []int {
	sizes := make([]int, len(ix.leaves))
	for i, leaf := range ix.leaves {
		sizes[i] = len(leaf)
	}
	return sizes
}

// Assignments returns the doc id -> leaf id mapping. Callers must not mutate it.
func (ix *Index) Assignments() []int { return ix.assignments }

// Search ranks leaves by centroid similarity, scans the documents of the
// top leavesToSearch leaves, and returns up to topK results using the same
// ordering and tie-break rule as the exact engine.
func (ix *Index) Search(ctx context.Context, query []float32, topK, leavesToSearch int) ([]result.Result, error) {
	n := ix.corpus.Size()
	if topK < 1 || topK > n {
		return nil, fmt.Errorf("%w: top_k must be between 1 and %d, got %d", domain.ErrInvalidArgument, n, topK)
	}
	if leavesToSearch < 1 || leavesToSearch > len(ix.centroids) {
		return nil, fmt.Errorf(
			"%w: leaves_to_search must be between 1 and %d, got %d",
			domain.ErrInvalidArgument, len(ix.centroids), leavesToSearch,
		)
	}
	if len(query) != ix.corpus.Dimension() {
		return nil, fmt.Errorf(
			"%w: query dimension %d, corpus dimension %d",
			domain.ErrInvalidArgument, len(query), ix.corpus.Dimension(),
		)
	}

	selected := ix.rankLeaves(query)[:leavesToSearch]

	var candidates []index.Scored
	for _, leaf := range selected {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("approximate scan canceled: %w", err)
		}
		for _, docID := range ix.leaves[leaf] {
			candidates = append(candidates, index.Scored{
				DocID: docID,
				Score: index.Dot(query, ix.corpus.Embedding(docID)),
			})
		}
	}

	return index.TopK(candidates, topK), nil
}

// rankLeaves orders all leaf ids by descending centroid similarity,
// ties broken by ascending leaf id.
func (ix *Index) rankLeaves(query []float32) []int {
	type leafScore struct {
		leaf  int
		score float32
	}
	scores := make([]leafScore, len(ix.centroids))
	for i, c := range ix.centroids {
		scores[i] = leafScore{leaf: i, score: index.Dot(query, c)}
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].leaf < scores[j].leaf
	})

	order := make([]int, len(scores))
	for i, s := range scores {
		order[i] = s.leaf
	}
	return order
}

// buildLeaves derives the per-leaf document lists from assignments.
// Document ids stay ascending within each leaf.
func buildLeaves(assignments []int, numLeaves int) [][]int {
	leaves := make([][]int, numLeaves)
	for docID, leaf := range assignments {
		leaves[leaf] = append(leaves[leaf], docID)
	}
	return leaves
}
