package index

import (
	"math"
	"testing"
)

func TestTopKOrdersByScoreDescending(t *testing.T) {
	candidates := []Scored{
		{DocID: 0, Score: 0.1},
		{DocID: 1, Score: 0.9},
		{DocID: 2, Score: 0.5},
	}

	results := TopK(candidates, 3)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	wantOrder := []int{1, 2, 0}
	for i, want := range wantOrder {
		if results[i].DocID() != want {
			t.Errorf("rank %d: expected doc %d, got %d", i, want, results[i].DocID())
		}
		if results[i].Rank() != i {
			t.Errorf("rank %d: Rank() = %d", i, results[i].Rank())
		}
	}
}

func TestTopKBreaksTiesByAscendingDocID(t *testing.T) {
	candidates := []Scored{
		{DocID: 7, Score: 0.5},
		{DocID: 2, Score: 0.5},
		{DocID: 4, Score: 0.5},
	}

	results := TopK(candidates, 3)

	wantOrder := []int{2, 4, 7}
	for i, want := range wantOrder {
		if results[i].DocID() != want {
			t.Errorf("rank %d: expected doc %d, got %d", i, want, results[i].DocID())
		}
	}
}

func TestTopKTruncatesToK(t *testing.T) {
	candidates := []Scored{
		{DocID: 0, Score: 0.3},
		{DocID: 1, Score: 0.8},
	}

	results := TopK(candidates, 1)

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].DocID() != 1 {
		t.Errorf("expected doc 1, got %d", results[0].DocID())
	}
}

func TestTopKWithKLargerThanCandidates(t *testing.T) {
	candidates := []Scored{{DocID: 0, Score: 0.3}}

	results := TopK(candidates, 10)

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

func TestDot(t *testing.T) {
	got := Dot([]float32{1, 2, 3}, []float32{4, 5, 6})
	if got != 32 {
		t.Errorf("expected 32, got %v", got)
	}
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})

	norm := math.Sqrt(float64(v[0]*v[0] + v[1]*v[1]))
	if math.Abs(norm-1) > 1e-6 {
		t.Errorf("expected unit norm, got %v", norm)
	}
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("unexpected normalized vector: %v", v)
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	v := Normalize([]float32{0, 0, 0})

	for i, x := range v {
		if x != 0 {
			t.Errorf("component %d: expected 0, got %v", i, x)
		}
	}
}
