package domain

// Document is one question/answer record with its embedding vector.
// Immutable after corpus load; the corpus position is the canonical id.
type Document struct {
	id        int
	question  string
	answer    string
	embedding []float32
}

// NewDocument creates a document.
func NewDocument(id int, question, answer string, embedding []float32) Document {
	return Document{id: id, question: question, answer: answer, embedding: embedding}
}

// ID returns the corpus position of the document.
func (d *Document) ID() int { return d.id }

// Question returns the stored question text.
func (d *Document) Question() string { return d.question }

// Answer returns the stored answer text.
func (d *Document) Answer() string { return d.answer }

// Embedding returns the document embedding. Callers must not mutate it.
func (d *Document) Embedding() []float32 { return d.embedding }
