package corpus

import (
	"path/filepath"
	"testing"
)

func TestParquetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.parquet")

	want := testRecords()
	if err := WriteParquet(path, want); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := LoadParquet(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(got) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Question != want[i].Question || got[i].Answer != want[i].Answer {
			t.Errorf("record %d: got %+v", i, got[i])
		}
		if len(got[i].Embedding) != len(want[i].Embedding) {
			t.Fatalf("record %d: embedding length %d", i, len(got[i].Embedding))
		}
		for j := range want[i].Embedding {
			if got[i].Embedding[j] != want[i].Embedding[j] {
				t.Errorf("record %d embedding[%d]: got %v", i, j, got[i].Embedding[j])
			}
		}
	}
}

func TestLoadParquetMissingFile(t *testing.T) {
	if _, err := LoadParquet(filepath.Join(t.TempDir(), "absent.parquet")); err == nil {
		t.Error("expected error for missing file")
	}
}
