package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/altglass/semqa/internal/corpus"
	openaiTransport "github.com/altglass/semqa/internal/transport/openai"
)

var embedCorpusFlags struct {
	inputPath  string
	outputPath string
	model      string
	baseURL    string
	dimensions int
	batchSize  int
	rateLimit  float64
}

var embedCorpusCmd = &cobra.Command{
	Use:   "embed-corpus",
	Short: "Embed corpus rows that have no embedding and write a parquet corpus",
	Long: `Read a corpus file, embed every row that has no embedding yet via the
configured provider, and write the fully embedded corpus as parquet.

The API key is read from the OPENAI_API_KEY environment variable.

Examples:
  semqactl embed-corpus --in data/qa.csv --out data/corpus.parquet
  semqactl embed-corpus --in qa.csv --out corpus.parquet --batch-size 16 --rate-limit 1`,
	RunE: runEmbedCorpus,
}

func init() {
	embedCorpusCmd.Flags().StringVar(&embedCorpusFlags.inputPath, "in", "", "input corpus (csv or parquet)")
	embedCorpusCmd.Flags().StringVar(&embedCorpusFlags.outputPath, "out", "", "output parquet path")
	embedCorpusCmd.Flags().StringVar(&embedCorpusFlags.model, "model", "text-embedding-3-small", "embedding model")
	embedCorpusCmd.Flags().StringVar(&embedCorpusFlags.baseURL, "base-url", "", "OpenAI-compatible API base URL")
	embedCorpusCmd.Flags().IntVar(&embedCorpusFlags.dimensions, "dimensions", 0, "requested embedding dimensions (0 = model default)")
	embedCorpusCmd.Flags().IntVar(&embedCorpusFlags.batchSize, "batch-size", 5, "texts per embedding request")
	embedCorpusCmd.Flags().Float64Var(&embedCorpusFlags.rateLimit, "rate-limit", 20.0/60.0, "embedding calls per second")
	_ = embedCorpusCmd.MarkFlagRequired("in")
	_ = embedCorpusCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(embedCorpusCmd)
}

func runEmbedCorpus(cmd *cobra.Command, args []string) error {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}

	records, err := loadRecords(embedCorpusFlags.inputPath)
	if err != nil {
		return err
	}

	var pending []int
	for i, rec := range records {
		if len(rec.Embedding) == 0 {
			pending = append(pending, i)
		}
	}
	fmt.Printf("Corpus: %d rows, %d without embeddings\n", len(records), len(pending))

	if len(pending) > 0 {
		embedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
			APIKey:     apiKey,
			BaseURL:    embedCorpusFlags.baseURL,
			Model:      embedCorpusFlags.model,
			Dimensions: embedCorpusFlags.dimensions,
			Provider:   "openai",
			RateLimit:  embedCorpusFlags.rateLimit,
			Logger:     zap.NewNop(),
		})

		bar := progressbar.NewOptions(len(pending),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowBytes(false),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
			progressbar.OptionOnCompletion(func() {
				fmt.Println()
			}),
		)

		batchSize := embedCorpusFlags.batchSize
		for offset := 0; offset < len(pending); offset += batchSize {
			end := offset + batchSize
			if end > len(pending) {
				end = len(pending)
			}
			batch := pending[offset:end]

			texts := make([]string, len(batch))
			for j, idx := range batch {
				texts[j] = records[idx].Question
			}

			result, err := embedder.BatchEmbed(cmd.Context(), texts)
			if err != nil {
				return fmt.Errorf("embed batch at row %d: %w", batch[0], err)
			}

			for j, idx := range batch {
				records[idx].Embedding = result.Embeddings[j]
			}
			_ = bar.Set(end)
		}
	}

	if err := corpus.WriteParquet(embedCorpusFlags.outputPath, records); err != nil {
		return fmt.Errorf("write parquet: %w", err)
	}

	fmt.Printf("Embedded corpus written to %s\n", embedCorpusFlags.outputPath)
	return nil
}
