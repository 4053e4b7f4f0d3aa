package result

// Result is a single search hit. Ephemeral, produced per query.
type Result struct {
	docID int
	score float32
	rank  int
}

// New creates a search result.
func New(docID int, score float32, rank int) Result {
	return Result{docID: docID, score: score, rank: rank}
}

// DocID returns the corpus position of the matched document.
func (r *Result) DocID() int { return r.docID }

// Score returns the cosine similarity to the query.
func (r *Result) Score() float32 { return r.score }

// Rank returns the zero-based position in the result list.
func (r *Result) Rank() int { return r.rank }
