package adapter

import (
	"fmt"
	"os"

	"github.com/sergev/uft/detect"
	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe FILE",
	Short: "Identify the format of an image or flux capture file",
	Long: `Read FILE and report every container/flux format it matches,
ranked by confidence. USB adapter is not used.`,
	Args: cobra.ExactArgs(1),
	// Override PersistentPreRun to skip USB adapter initialization
	PersistentPreRun: func(cmd *cobra.Command, args []string) {},
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(args[0])
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to read file %s: %w", args[0], err))
		}

		candidates := detect.Probe(data)
		if len(candidates) == 0 {
			fmt.Printf("%s: format not recognized\n", args[0])
			return
		}

		fmt.Printf("%s:\n", args[0])
		for _, c := range candidates {
			kind := "container"
			if c.Kind == detect.KindFlux {
				kind = "flux"
			}
			fmt.Printf("  %-20s %-10s confidence %d%%\n", c.Format, kind, c.Confidence)
		}

		if best, ok := detect.Best(data); ok {
			fmt.Printf("\nBest guess: %s\n", best.Format)
		}
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
}
