package ivf

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSnapshotRoundTrip(t *testing.T) {
	corpus := randomCorpus(100, 8, 1)
	ix := trainTestIndex(t, corpus, 5)

	path := filepath.Join(t.TempDir(), "index.gob.gz")
	if err := ix.SaveSnapshot(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	restored, err := LoadSnapshot(path, corpus)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if restored.NumLeaves() != ix.NumLeaves() {
		t.Fatalf("num leaves: restored %d, original %d", restored.NumLeaves(), ix.NumLeaves())
	}

	// Any query must produce identical results through the restored index.
	for trial := 0; trial < 5; trial++ {
		query := corpus.Embedding(trial * 7)

		want, err := ix.Search(context.Background(), query, 10, 3)
		if err != nil {
			t.Fatalf("original search: %v", err)
		}
		got, err := restored.Search(context.Background(), query, 10, 3)
		if err != nil {
			t.Fatalf("restored search: %v", err)
		}

		if len(got) != len(want) {
			t.Fatalf("result count: restored %d, original %d", len(got), len(want))
		}
		for i := range want {
			if got[i].DocID() != want[i].DocID() || got[i].Score() != want[i].Score() {
				t.Errorf("trial %d rank %d: restored (%d, %v), original (%d, %v)",
					trial, i, got[i].DocID(), got[i].Score(), want[i].DocID(), want[i].Score())
			}
		}
	}
}

func TestLoadSnapshotRejectsMismatchedCorpus(t *testing.T) {
	corpus := randomCorpus(100, 8, 1)
	ix := trainTestIndex(t, corpus, 5)

	path := filepath.Join(t.TempDir(), "index.gob.gz")
	if err := ix.SaveSnapshot(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := LoadSnapshot(path, randomCorpus(50, 8, 1)); err == nil {
		t.Error("expected error for corpus size mismatch")
	}
	if _, err := LoadSnapshot(path, randomCorpus(100, 16, 1)); err == nil {
		t.Error("expected error for dimension mismatch")
	}
}

func TestReadSnapshotExposesParameters(t *testing.T) {
	corpus := randomCorpus(100, 8, 1)
	ix := trainTestIndex(t, corpus, 5)

	path := filepath.Join(t.TempDir(), "index.gob.gz")
	if err := ix.SaveSnapshot(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	detached, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if detached.NumLeaves() != 5 {
		t.Errorf("num leaves: got %d", detached.NumLeaves())
	}
	if detached.Options().Seed != 42 {
		t.Errorf("seed: got %d", detached.Options().Seed)
	}
	if detached.Dimension() != 8 {
		t.Errorf("dimension: got %d", detached.Dimension())
	}
	if len(detached.Assignments()) != 100 {
		t.Errorf("assignments: got %d", len(detached.Assignments()))
	}
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	corpus := randomCorpus(10, 4, 1)

	if _, err := LoadSnapshot(filepath.Join(t.TempDir(), "absent.gob.gz"), corpus); err == nil {
		t.Error("expected error for missing snapshot")
	}
}
