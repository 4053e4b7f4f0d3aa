package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/altglass/semqa/internal/index/ivf"
)

var inspectIndexCmd = &cobra.Command{
	Use:   "inspect-index [snapshot]",
	Short: "Print the parameters and leaf layout of an index snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspectIndex,
}

func init() {
	rootCmd.AddCommand(inspectIndexCmd)
}

func runInspectIndex(cmd *cobra.Command, args []string) error {
	ix, err := ivf.ReadSnapshot(args[0])
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	opts := ix.Options()
	sizes := ix.LeafSizes()

	total := 0
	minSize, maxSize := sizes[0], sizes[0]
	for _, s := range sizes {
		total += s
		if s < minSize {
			minSize = s
		}
		if s > maxSize {
			maxSize = s
		}
	}

	fmt.Printf("Snapshot: %s\n", args[0])
	fmt.Printf("  Documents:       %d\n", total)
	fmt.Printf("  Dimension:       %d\n", ix.Dimension())
	fmt.Printf("  Leaves:          %d\n", ix.NumLeaves())
	fmt.Printf("  Sample size:     %d\n", opts.TrainingSampleSize)
	fmt.Printf("  Seed:            %d\n", opts.Seed)
	fmt.Printf("  Max iterations:  %d\n", opts.MaxIterations)
	fmt.Printf("  Leaf size:       min %d / median %d / max %d\n", minSize, median(sizes), maxSize)

	return nil
}

func median(sizes []int) int {
	sorted := append([]int(nil), sizes...)
	sort.Ints(sorted)
	return sorted[len(sorted)/2]
}
