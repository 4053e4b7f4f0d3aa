package ivf

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/altglass/semqa/internal/domain"
	"github.com/altglass/semqa/internal/index"
)

const defaultMaxIterations = 25

// Builder trains indexes over a fixed corpus with fixed options.
type Builder struct {
	corpus Corpus
	opts   Options
}

// NewBuilder creates a reusable index builder.
func NewBuilder(corpus Corpus, opts Options) *Builder {
	return &Builder{corpus: corpus, opts: opts}
}

// Build trains a fresh index.
func (b *Builder) Build(ctx context.Context) (*Index, error) {
	return Train(ctx, b.corpus, b.opts)
}

// Train builds a partition index: it clusters a bounded corpus sample into
// NumLeaves centroids, then assigns every document of the full corpus to its
// nearest centroid. Deterministic for a fixed seed and corpus.
func Train(ctx context.Context, corpus Corpus, opts Options) (*Index, error) {
	n := corpus.Size()
	if opts.NumLeaves < 1 || opts.NumLeaves > n {
		return nil, fmt.Errorf(
			"%w: num_leaves must be between 1 and %d, got %d",
			domain.ErrInvalidArgument, n, opts.NumLeaves,
		)
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = defaultMaxIterations
	}

	sample := drawSample(n, opts)
	centroids, err := cluster(ctx, corpus, sample, opts)
	if err != nil {
		return nil, err
	}

	assignments, err := assignAll(ctx, corpus, centroids)
	if err != nil {
		return nil, err
	}

	return &Index{
		corpus:      corpus,
		centroids:   centroids,
		assignments: assignments,
		leaves:      buildLeaves(assignments, opts.NumLeaves),
		opts:        opts,
	}, nil
}

// drawSample picks min(TrainingSampleSize, N) document ids uniformly without
// replacement, never fewer than NumLeaves.
func drawSample(n int, opts Options) []int {
	size := opts.TrainingSampleSize
	if size > n {
		size = n
	}
	if size < opts.NumLeaves {
		size = opts.NumLeaves
	}

	rng := rand.New(rand.NewSource(opts.Seed)) //nolint:gosec // reproducible sampling, not crypto
	return rng.Perm(n)[:size]
}

// cluster runs k-means-style iterative refinement over the sample embeddings.
// Assignment maximizes dot product (cosine on normalized vectors); centroids
// are the re-normalized means of their members.
func cluster(ctx context.Context, corpus Corpus, sample []int, opts Options) ([][]float32, error) {
	dim := corpus.Dimension()
	k := opts.NumLeaves

	// The shuffled sample prefix seeds the initial centroids.
	centroids := make([][]float32, k)
	for i := 0; i < k; i++ {
		centroids[i] = append([]float32(nil), corpus.Embedding(sample[i])...)
	}

	assignment := make([]int, len(sample))
	for i := range assignment {
		assignment[i] = -1
	}

	for iter := 0; iter < opts.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("clustering canceled at iteration %d: %w", iter, err)
		}

		changed := false
		for i, docID := range sample {
			best := nearestCentroid(corpus.Embedding(docID), centroids)
			if best != assignment[i] {
				assignment[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		recomputeCentroids(corpus, sample, assignment, centroids, dim)
		repairEmptyLeaves(corpus, sample, assignment, centroids)
	}

	return centroids, nil
}

// recomputeCentroids replaces each centroid with the normalized mean of its
// members. Empty leaves keep their previous centroid until repaired.
func recomputeCentroids(corpus Corpus, sample, assignment []int, centroids [][]float32, dim int) {
	sums := make([][]float64, len(centroids))
	counts := make([]int, len(centroids))
	for i := range sums {
		sums[i] = make([]float64, dim)
	}

	for i, docID := range sample {
		leaf := assignment[i]
		counts[leaf]++
		emb := corpus.Embedding(docID)
		for j, x := range emb {
			sums[leaf][j] += float64(x)
		}
	}

	for leaf := range centroids {
		if counts[leaf] == 0 {
			continue
		}
		var norm2 float64
		for _, s := range sums[leaf] {
			norm2 += s * s
		}
		if norm2 == 0 {
			continue
		}
		inv := 1 / math.Sqrt(norm2)
		for j := range centroids[leaf] {
			centroids[leaf][j] = float32(sums[leaf][j] * inv)
		}
	}
}

// repairEmptyLeaves moves the worst-fitting sample point into each empty
// leaf, keeping the partition total. Deterministic: the point with the lowest
// similarity to its own centroid wins; ties go to the lowest sample position.
func repairEmptyLeaves(corpus Corpus, sample, assignment []int, centroids [][]float32) {
	counts := make([]int, len(centroids))
	for _, leaf := range assignment {
		counts[leaf]++
	}

	for leaf := range centroids {
		if counts[leaf] > 0 {
			continue
		}

		worst := -1
		worstScore := float32(math.MaxFloat32)
		for i, docID := range sample {
			if counts[assignment[i]] <= 1 {
				continue
			}
			score := index.Dot(corpus.Embedding(docID), centroids[assignment[i]])
			if score < worstScore {
				worstScore = score
				worst = i
			}
		}
		if worst < 0 {
			continue
		}

		counts[assignment[worst]]--
		assignment[worst] = leaf
		counts[leaf] = 1
		copy(centroids[leaf], corpus.Embedding(sample[worst]))
	}
}

// assignAll maps every document of the full corpus (not just the sample) to
// its nearest centroid, in parallel chunks.
func assignAll(ctx context.Context, corpus Corpus, centroids [][]float32) ([]int, error) {
	n := corpus.Size()
	assignments := make([]int, n)

	workers := runtime.GOMAXPROCS(0)
	chunk := (n + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		start, end := start, end
		g.Go(func() error {
			for i := start; i < end; i++ {
				if i%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return fmt.Errorf("leaf assignment canceled: %w", err)
					}
				}
				assignments[i] = nearestCentroid(corpus.Embedding(i), centroids)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return assignments, nil
}

// nearestCentroid returns the centroid with the highest dot product,
// ties broken by the lowest leaf id.
func nearestCentroid(emb []float32, centroids [][]float32) int {
	best := 0
	bestScore := index.Dot(emb, centroids[0])
	for i := 1; i < len(centroids); i++ {
		score := index.Dot(emb, centroids[i])
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	return best
}
