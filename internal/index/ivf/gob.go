package ivf

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// indexState is the serializable part of a trained index. Leaf lists are
// derived from assignments on decode; the corpus is re-attached by the caller.
type indexState struct {
	Centroids   [][]float32
	Assignments []int
	Dimension   int
	Size        int
	Opts        Options
}

// GobEncode implements gob.GobEncoder.
func (ix *Index) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	encoder := gob.NewEncoder(&buf)

	state := indexState{
		Centroids:   ix.centroids,
		Assignments: ix.assignments,
		Dimension:   ix.corpus.Dimension(),
		Size:        ix.corpus.Size(),
		Opts:        ix.opts,
	}
	if err := encoder.Encode(state); err != nil {
		return nil, fmt.Errorf("encode index state: %w", err)
	}

	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder. The decoded index has no corpus
// attached; call Attach before searching.
func (ix *Index) GobDecode(data []byte) error {
	decoder := gob.NewDecoder(bytes.NewReader(data))

	var state indexState
	if err := decoder.Decode(&state); err != nil {
		return fmt.Errorf("decode index state: %w", err)
	}

	ix.centroids = state.Centroids
	ix.assignments = state.Assignments
	ix.leaves = buildLeaves(state.Assignments, len(state.Centroids))
	ix.opts = state.Opts
	ix.corpus = &detachedCorpus{size: state.Size, dimension: state.Dimension}

	return nil
}

// Attach binds a decoded index to the live corpus, validating that the
// snapshot matches it.
func (ix *Index) Attach(corpus Corpus) error {
	if corpus.Size() != ix.corpus.Size() {
		return fmt.Errorf(
			"snapshot built over %d documents, corpus has %d",
			ix.corpus.Size(), corpus.Size(),
		)
	}
	if corpus.Dimension() != ix.corpus.Dimension() {
		return fmt.Errorf(
			"snapshot dimension %d, corpus dimension %d",
			ix.corpus.Dimension(), corpus.Dimension(),
		)
	}
	ix.corpus = corpus
	return nil
}

// detachedCorpus carries snapshot shape between decode and Attach.
type detachedCorpus struct {
	size      int
	dimension int
}

func (c *detachedCorpus) Size() int               { return c.size }
func (c *detachedCorpus) Dimension() int          { return c.dimension }
func (c *detachedCorpus) Embedding(int) []float32 { return nil }
