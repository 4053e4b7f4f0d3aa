package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/altglass/semqa/internal/corpus"
	"github.com/altglass/semqa/internal/index/ivf"
)

var buildIndexFlags struct {
	corpusPath         string
	outputPath         string
	numLeaves          int
	trainingSampleSize int
	seed               int64
	maxIterations      int
}

var buildIndexCmd = &cobra.Command{
	Use:   "build-index",
	Short: "Train a partition index over a corpus and write a snapshot",
	Long: `Train a partition index over an embedded corpus and write a compressed
snapshot the server can restore at startup.

Examples:
  semqactl build-index --corpus data/corpus.parquet --out data/index.gob.gz
  semqactl build-index --corpus data/corpus.csv --out index.gob.gz --num-leaves 50`,
	RunE: runBuildIndex,
}

func init() {
	buildIndexCmd.Flags().StringVar(&buildIndexFlags.corpusPath, "corpus", "", "corpus file (csv or parquet)")
	buildIndexCmd.Flags().StringVar(&buildIndexFlags.outputPath, "out", "index.gob.gz", "snapshot output path")
	buildIndexCmd.Flags().IntVar(&buildIndexFlags.numLeaves, "num-leaves", 25, "number of partitions")
	buildIndexCmd.Flags().IntVar(&buildIndexFlags.trainingSampleSize, "sample-size", 2000, "training sample size")
	buildIndexCmd.Flags().Int64Var(&buildIndexFlags.seed, "seed", 42, "clustering seed")
	buildIndexCmd.Flags().IntVar(&buildIndexFlags.maxIterations, "max-iterations", 25, "clustering iteration cap")
	_ = buildIndexCmd.MarkFlagRequired("corpus")

	rootCmd.AddCommand(buildIndexCmd)
}

func runBuildIndex(cmd *cobra.Command, args []string) error {
	records, err := loadRecords(buildIndexFlags.corpusPath)
	if err != nil {
		return err
	}

	store, err := corpus.Load(records)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}
	fmt.Printf("Corpus: %d documents, dimension %d\n", store.Size(), store.Dimension())

	ix, err := ivf.Train(cmd.Context(), store, ivf.Options{
		NumLeaves:          buildIndexFlags.numLeaves,
		TrainingSampleSize: buildIndexFlags.trainingSampleSize,
		Seed:               buildIndexFlags.seed,
		MaxIterations:      buildIndexFlags.maxIterations,
	})
	if err != nil {
		return fmt.Errorf("train index: %w", err)
	}

	if err := ix.SaveSnapshot(buildIndexFlags.outputPath); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	fmt.Printf("Index trained: %d leaves\n", ix.NumLeaves())
	fmt.Printf("Snapshot written to %s\n", buildIndexFlags.outputPath)
	return nil
}

// loadRecords reads corpus records, inferring the format from the extension.
func loadRecords(path string) ([]corpus.Record, error) {
	var records []corpus.Record
	var err error

	if isParquet(path) {
		records, err = corpus.LoadParquet(path)
	} else {
		records, err = corpus.LoadCSV(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}
	return records, nil
}

func isParquet(path string) bool {
	return len(path) > 8 && path[len(path)-8:] == ".parquet"
}
