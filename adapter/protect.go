package adapter

import (
	"fmt"
	"os"

	"github.com/sergev/uft/hfe"
	"github.com/sergev/uft/protection"
	"github.com/sergev/uft/protection/copylock"
	"github.com/sergev/uft/protection/longtrack"
	"github.com/spf13/cobra"
)

var protectCmd = &cobra.Command{
	Use:   "protect",
	Short: "Detect or generate copy-protection track signatures",
	Long:  "Detect or generate CopyLock and longtrack copy-protection signatures.",
	// Override PersistentPreRun to skip USB adapter initialization
	PersistentPreRun: func(cmd *cobra.Command, args []string) {},
}

var protectDetectCmd = &cobra.Command{
	Use:   "detect FILE",
	Short: "Scan every track of an HFE image for known protection schemes",
	Args:  cobra.ExactArgs(1),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {},
	Run: func(cmd *cobra.Command, args []string) {
		runDetectProtection(args[0])
	},
}

var detectProtectionCmd = &cobra.Command{
	Use:   "detect-protection FILE",
	Short: "Scan every track of an HFE image for known protection schemes",
	Long:  "Shorthand for 'protect detect FILE'.",
	Args:  cobra.ExactArgs(1),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {},
	Run: func(cmd *cobra.Command, args []string) {
		runDetectProtection(args[0])
	},
}

func runDetectProtection(filename string) {
	disk, err := hfe.Read(filename)
	if err != nil {
		cobra.CheckErr(fmt.Errorf("failed to read file %s: %w", filename, err))
	}

	found := 0
	for cyl, track := range disk.Tracks {
		for head, data := range [][]byte{track.Side0, track.Side1} {
			if len(data) == 0 {
				continue
			}
			trackBits := len(data) * 8
			finding, ok := protection.DetectAll(data, trackBits)
			if !ok {
				continue
			}
			found++
			switch {
			case finding.CopyLockFound:
				fmt.Printf("cyl %d head %d: CopyLock (seed 0x%08x)\n", cyl, head, finding.CopyLockSeed)
			case finding.LongtrackFound:
				fmt.Printf("cyl %d head %d: %s (confidence %.2f, %d bits)\n",
					cyl, head, finding.Longtrack.Kind, finding.Longtrack.Confidence, finding.Longtrack.TrackBits)
			}
		}
	}

	if found == 0 {
		fmt.Printf("%s: no known protection scheme detected\n", filename)
	}
}

var protectGenerateKind string
var protectGenerateSeed uint32
var protectGenerateBits int

var protectGenerateCmd = &cobra.Command{
	Use:   "generate OUT.bin",
	Short: "Generate a synthetic protected track for testing",
	Long: `Generate raw track bytes for a known protection scheme and write them
to OUT.bin. --kind selects the scheme: copylock, protec, silmarils.`,
	Args:             cobra.ExactArgs(1),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {},
	Run: func(cmd *cobra.Command, args []string) {
		var data []byte
		switch protectGenerateKind {
		case "copylock":
			data = copylock.Generate(protectGenerateSeed, protectGenerateBits/8)
		case "protec":
			data = longtrack.GenerateProtec(0xFF, protectGenerateBits)
		case "silmarils":
			data = longtrack.GenerateSilmarils(protectGenerateBits)
		default:
			cobra.CheckErr(fmt.Errorf("unknown kind %q (want copylock, protec, or silmarils)", protectGenerateKind))
		}

		if err := os.WriteFile(args[0], data, 0644); err != nil {
			cobra.CheckErr(fmt.Errorf("failed to write file %s: %w", args[0], err))
		}
		fmt.Printf("Wrote %d bytes of %s track data to %s\n", len(data), protectGenerateKind, args[0])
	},
}

func init() {
	protectGenerateCmd.Flags().StringVar(&protectGenerateKind, "kind", "copylock", "scheme to generate: copylock, protec, silmarils")
	protectGenerateCmd.Flags().Uint32Var(&protectGenerateSeed, "seed", 0x1234, "CopyLock LFSR seed")
	protectGenerateCmd.Flags().IntVar(&protectGenerateBits, "bits", 100_000, "track length in bits")

	protectCmd.AddCommand(protectDetectCmd)
	protectCmd.AddCommand(protectGenerateCmd)
	rootCmd.AddCommand(protectCmd)
	rootCmd.AddCommand(detectProtectionCmd)
}
