package domain

import "errors"

var (
	// ErrInvalidArgument signals a caller-supplied parameter out of range.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrDocumentNotFound signals a document id outside the corpus.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrCorpusLoad signals an inconsistent corpus at startup. Fatal.
	ErrCorpusLoad = errors.New("corpus load failed")
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrGenerationProvider signals an answer generation failure.
	ErrGenerationProvider = errors.New("generation provider error")
	// ErrSearchFailure signals an unexpected fault inside a scan.
	ErrSearchFailure = errors.New("search failure")
)
