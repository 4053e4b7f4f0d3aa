// semqactl is the offline tooling for the semqa service: corpus embedding,
// index training, and snapshot inspection.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/altglass/semqa/internal/version"
)

var rootCmd = &cobra.Command{
	Use:     "semqactl",
	Short:   "Offline tooling for the semqa corpus and partition index",
	Version: version.Version,
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
