package corpus

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/altglass/semqa/internal/domain"
)

func testRecords() []Record {
	return []Record{
		{Question: "what is go", Answer: "a language", Embedding: []float32{1, 0, 0}},
		{Question: "what is chi", Answer: "a router", Embedding: []float32{0, 2, 0}},
		{Question: "what is zap", Answer: "a logger", Embedding: []float32{0, 0, 3}},
	}
}

func TestLoadAssignsPositionalIDs(t *testing.T) {
	store, err := Load(testRecords())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if store.Size() != 3 {
		t.Fatalf("size: got %d", store.Size())
	}
	if store.Dimension() != 3 {
		t.Fatalf("dimension: got %d", store.Dimension())
	}

	for i := 0; i < 3; i++ {
		doc, err := store.Get(i)
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		if doc.ID() != i {
			t.Errorf("doc %d: ID() = %d", i, doc.ID())
		}
	}
}

func TestLoadNormalizesEmbeddings(t *testing.T) {
	store, err := Load(testRecords())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	for i := 0; i < store.Size(); i++ {
		var norm2 float64
		for _, x := range store.Embedding(i) {
			norm2 += float64(x) * float64(x)
		}
		if math.Abs(norm2-1) > 1e-6 {
			t.Errorf("doc %d: squared norm %v, expected 1", i, norm2)
		}
	}
}

func TestLoadEmptyCorpus(t *testing.T) {
	_, err := Load(nil)
	if !errors.Is(err, domain.ErrCorpusLoad) {
		t.Errorf("expected ErrCorpusLoad, got %v", err)
	}
}

func TestLoadInconsistentDimensions(t *testing.T) {
	records := testRecords()
	records[1].Embedding = []float32{1, 0}

	_, err := Load(records)
	if !errors.Is(err, domain.ErrCorpusLoad) {
		t.Errorf("expected ErrCorpusLoad, got %v", err)
	}
}

func TestLoadZeroNormEmbedding(t *testing.T) {
	records := testRecords()
	records[2].Embedding = []float32{0, 0, 0}

	_, err := Load(records)
	if !errors.Is(err, domain.ErrCorpusLoad) {
		t.Errorf("expected ErrCorpusLoad, got %v", err)
	}
}

func TestGetOutOfRange(t *testing.T) {
	store, err := Load(testRecords())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	for _, id := range []int{-1, 3, 100} {
		_, err := store.Get(id)
		if !errors.Is(err, domain.ErrDocumentNotFound) {
			t.Errorf("id=%d: expected ErrDocumentNotFound, got %v", id, err)
		}
	}
}

func TestReadCSV(t *testing.T) {
	input := `question,answer,embedding
what is go,a language,"[1, 0, 0]"
what is chi,a router,"[0, 1, 0]"
`

	records, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Question != "what is go" || records[0].Answer != "a language" {
		t.Errorf("unexpected record 0: %+v", records[0])
	}
	if len(records[1].Embedding) != 3 || records[1].Embedding[1] != 1 {
		t.Errorf("unexpected embedding: %v", records[1].Embedding)
	}
}

func TestReadCSVAlternateColumnNames(t *testing.T) {
	input := `input_text,output_text,embeddings
q1,a1,"[0.5, 0.5]"
`

	records, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if records[0].Question != "q1" || records[0].Answer != "a1" {
		t.Errorf("unexpected record: %+v", records[0])
	}
}

func TestReadCSVWithoutEmbeddingColumn(t *testing.T) {
	input := `question,answer
q1,a1
`

	records, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(records[0].Embedding) != 0 {
		t.Errorf("expected no embedding, got %v", records[0].Embedding)
	}
}

func TestReadCSVMissingColumns(t *testing.T) {
	input := `foo,bar
x,y
`

	_, err := ReadCSV(strings.NewReader(input))
	if !errors.Is(err, domain.ErrCorpusLoad) {
		t.Errorf("expected ErrCorpusLoad, got %v", err)
	}
}

func TestReadCSVMalformedEmbedding(t *testing.T) {
	input := `question,answer,embedding
q1,a1,not-json
`

	_, err := ReadCSV(strings.NewReader(input))
	if !errors.Is(err, domain.ErrCorpusLoad) {
		t.Errorf("expected ErrCorpusLoad, got %v", err)
	}
}
