// Package corpus holds the immutable in-memory document store and its loaders.
package corpus

import (
	"fmt"
	"math"

	"github.com/altglass/semqa/internal/domain"
)

// Record is one raw corpus row before validation.
type Record struct {
	Question  string
	Answer    string
	Embedding []float32
}

// Store is the immutable document store. All embeddings are L2-normalized
// at load so cosine similarity reduces to a dot product.
type Store struct {
	docs      []domain.Document
	dimension int
}

// Load validates records and builds a store. The slice position becomes the
// canonical document id. Fails with ErrCorpusLoad on an empty corpus,
// inconsistent embedding dimensionality, or a zero-norm embedding.
func Load(records []Record) (*Store, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty corpus", domain.ErrCorpusLoad)
	}

	dim := len(records[0].Embedding)
	if dim == 0 {
		return nil, fmt.Errorf("%w: record 0 has no embedding", domain.ErrCorpusLoad)
	}

	docs := make([]domain.Document, len(records))
	for i, rec := range records {
		if len(rec.Embedding) != dim {
			return nil, fmt.Errorf(
				"%w: record %d embedding dimension %d, expected %d",
				domain.ErrCorpusLoad, i, len(rec.Embedding), dim,
			)
		}
		normalized, ok := normalizeL2(rec.Embedding)
		if !ok {
			return nil, fmt.Errorf("%w: record %d has zero-norm embedding", domain.ErrCorpusLoad, i)
		}
		docs[i] = domain.NewDocument(i, rec.Question, rec.Answer, normalized)
	}

	return &Store{docs: docs, dimension: dim}, nil
}

// Get returns the document at the given corpus position.
func (s *Store) Get(id int) (domain.Document, error) {
	if id < 0 || id >= len(s.docs) {
		return domain.Document{}, fmt.Errorf("%w: id %d (corpus size %d)", domain.ErrDocumentNotFound, id, len(s.docs))
	}
	return s.docs[id], nil
}

// Size returns the number of documents.
func (s *Store) Size() int { return len(s.docs) }

// Dimension returns the embedding dimensionality.
func (s *Store) Dimension() int { return s.dimension }

// Columns returns the logical column names of the corpus, for the health payload.
func (s *Store) Columns() []string {
	return []string{"question", "answer", "embedding"}
}

// Embedding returns the normalized embedding of the document at position id.
// The caller must not mutate the returned slice.
func (s *Store) Embedding(id int) []float32 {
	return s.docs[id].Embedding()
}

// normalizeL2 returns an L2-normalized copy of v, or false for a zero norm.
func normalizeL2(v []float32) ([]float32, bool) {
	var norm2 float64
	for _, x := range v {
		norm2 += float64(x) * float64(x)
	}
	if norm2 == 0 {
		return nil, false
	}
	inv := 1 / math.Sqrt(norm2)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out, true
}
