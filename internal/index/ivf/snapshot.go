package ivf

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// SaveSnapshot writes the trained index to path as a gzip-compressed gob
// stream. The write goes through a temp file and rename so a crash never
// leaves a truncated snapshot behind.
func (ix *Index) SaveSnapshot(path string) error {
	tmp := path + ".tmp"

	f, err := os.Create(filepath.Clean(tmp))
	if err != nil {
		return fmt.Errorf("create snapshot %s: %w", tmp, err)
	}

	zw := gzip.NewWriter(f)
	if err := gob.NewEncoder(zw).Encode(ix); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("flush snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close snapshot: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot decodes an index snapshot without binding it to a corpus.
// The result can be inspected but not searched until Attach.
func ReadSnapshot(path string) (*Index, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", path, err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("read snapshot header: %w", err)
	}
	defer zr.Close()

	var ix Index
	if err := gob.NewDecoder(zr).Decode(&ix); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &ix, nil
}

// LoadSnapshot reads an index snapshot and attaches it to the live corpus.
func LoadSnapshot(path string, corpus Corpus) (*Index, error) {
	ix, err := ReadSnapshot(path)
	if err != nil {
		return nil, err
	}

	if err := ix.Attach(corpus); err != nil {
		return nil, fmt.Errorf("attach snapshot: %w", err)
	}
	return ix, nil
}
