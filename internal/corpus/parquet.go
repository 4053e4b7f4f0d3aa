package corpus

import (
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/altglass/semqa/internal/domain"
)

// parquetRow is the columnar corpus schema.
type parquetRow struct {
	Question  string    `parquet:"question"`
	Answer    string    `parquet:"answer"`
	Embedding []float32 `parquet:"embedding,list"`
}

// LoadParquet reads a corpus from a parquet file.
func LoadParquet(path string) ([]Record, error) {
	rows, err := parquet.ReadFile[parquetRow](path)
	if err != nil {
		return nil, fmt.Errorf("%w: read parquet %s: %w", domain.ErrCorpusLoad, path, err)
	}

	records := make([]Record, len(rows))
	for i, row := range rows {
		records[i] = Record{
			Question:  row.Question,
			Answer:    row.Answer,
			Embedding: row.Embedding,
		}
	}
	return records, nil
}

// WriteParquet writes corpus records (with embeddings) to a parquet file.
// Used by the offline embed-corpus tooling.
func WriteParquet(path string, records []Record) error {
	rows := make([]parquetRow, len(records))
	for i, rec := range records {
		rows[i] = parquetRow{
			Question:  rec.Question,
			Answer:    rec.Answer,
			Embedding: rec.Embedding,
		}
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("write parquet %s: %w", path, err)
	}
	return nil
}
