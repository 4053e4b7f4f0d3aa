package corpus

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/altglass/semqa/internal/domain"
)

// LoadCSV reads a corpus from a CSV file with a header row. The question and
// answer columns may be named question/answer or input_text/output_text;
// the embedding column (if present) holds a JSON float array.
func LoadCSV(path string) ([]Record, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrCorpusLoad, path, err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV parses corpus records from CSV content.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // validated against the header below

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read csv header: %w", domain.ErrCorpusLoad, err)
	}

	qIdx, aIdx, eIdx := resolveCSVColumns(header)
	if qIdx < 0 || aIdx < 0 {
		return nil, fmt.Errorf(
			"%w: csv header must contain question/answer (or input_text/output_text) columns, got %v",
			domain.ErrCorpusLoad, header,
		)
	}

	var records []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read csv line %d: %w", domain.ErrCorpusLoad, line, err)
		}
		if len(row) <= qIdx || len(row) <= aIdx {
			return nil, fmt.Errorf("%w: csv line %d has %d fields", domain.ErrCorpusLoad, line, len(row))
		}

		rec := Record{Question: row[qIdx], Answer: row[aIdx]}
		if eIdx >= 0 && eIdx < len(row) && row[eIdx] != "" {
			if err := json.Unmarshal([]byte(row[eIdx]), &rec.Embedding); err != nil {
				return nil, fmt.Errorf("%w: csv line %d embedding: %w", domain.ErrCorpusLoad, line, err)
			}
		}
		records = append(records, rec)
	}

	return records, nil
}

func resolveCSVColumns(header []string) (qIdx, aIdx, eIdx int) {
	qIdx, aIdx, eIdx = -1, -1, -1
	for i, name := range header {
		switch name {
		case "question", "input_text":
			qIdx = i
		case "answer", "output_text":
			aIdx = i
		case "embedding", "embeddings":
			eIdx = i
		}
	}
	return qIdx, aIdx, eIdx
}
