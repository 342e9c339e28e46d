package adapter

import (
	"fmt"
	"os"

	"github.com/sergev/uft/config"
	"github.com/sergev/uft/ddcore"
	"github.com/spf13/cobra"
)

func openReadWrite(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_RDWR, 0644)
}

var (
	copyRetryCount int
	copySoftBlock  int
	copyHardBlock  int
	copyFillOnError bool
	copyContinueOnError bool
)

var copyCmd = &cobra.Command{
	Use:   "copy SRC DEST",
	Short: "Copy SRC to DEST with block-level read retry and recovery",
	Long: `Copy SRC to DEST using the recovery engine: failing reads are retried
at progressively smaller granularity, optionally filled or skipped, and
both sides are hashed as they stream. USB adapter is not used: SRC and
DEST are files.`,
	Args: cobra.ExactArgs(2),
	// Override PersistentPreRun to skip USB adapter initialization, but
	// still load configuration for [recovery] defaults.
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := config.Initialize(); err != nil {
			cobra.CheckErr(fmt.Errorf("failed to initialize config: %w", err))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		cfg := recoveryConfigFromFlags(args[0], args[1])

		engine, err := ddcore.NewEngine(cfg)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to start copy: %w", err))
		}

		status, err := engine.Run()
		printCopyStatus(status)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("copy failed: %w", err))
		}
	},
}

// recoveryConfigFromFlags builds a ddcore.Config from the [recovery] TOML
// defaults, overridden by any explicit copy flags.
func recoveryConfigFromFlags(src, dst string) ddcore.Config {
	cfg := ddcore.DefaultConfig()
	cfg.InputPath = src
	cfg.OutputPath = dst

	rc := config.Recovery
	if rc.SoftBlockSize > 0 {
		cfg.BlockSizes.Soft = rc.SoftBlockSize
	}
	if rc.HardBlockSize > 0 {
		cfg.BlockSizes.Hard = rc.HardBlockSize
	}
	if rc.DIOBlockSize > 0 {
		cfg.BlockSizes.DIO = rc.DIOBlockSize
	}
	cfg.BlockSizes.AutoAdjust = rc.AutoAdjust
	cfg.Recovery.Reverse = rc.Reverse
	cfg.Recovery.Sparse = rc.Sparse
	cfg.Recovery.MaxErrors = rc.MaxErrors
	cfg.Recovery.RetryCount = rc.RetryCount
	cfg.Recovery.RetryDelayMs = rc.RetryDelayMs
	cfg.Recovery.ContinueOnError = rc.ContinueOnError
	cfg.Recovery.FillOnError = rc.FillOnError
	cfg.Recovery.FillByte = byte(rc.FillPattern)
	cfg.Hash.Input = hashAlgosFromNames(rc.HashAlgos)
	cfg.Hash.Output = cfg.Hash.Input
	cfg.Hash.Window = rc.HashWindowBytes
	cfg.Hash.VerifyOutput = rc.VerifyAfterCopy

	if copyCmd.Flags().Changed("retry-count") {
		cfg.Recovery.RetryCount = copyRetryCount
	}
	if copyCmd.Flags().Changed("soft-block") && copySoftBlock > 0 {
		cfg.BlockSizes.Soft = copySoftBlock
	}
	if copyCmd.Flags().Changed("hard-block") && copyHardBlock > 0 {
		cfg.BlockSizes.Hard = copyHardBlock
	}
	if copyCmd.Flags().Changed("fill-on-error") {
		cfg.Recovery.FillOnError = copyFillOnError
	}
	if copyCmd.Flags().Changed("continue-on-error") {
		cfg.Recovery.ContinueOnError = copyContinueOnError
	}

	cfg.OnStatus = func(s ddcore.Status) {
		fmt.Printf("\r%d bytes copied, %d read errors, %d skipped", s.BytesWritten, s.ErrorsRead, s.SectorsSkipped)
	}

	return cfg
}

func hashAlgosFromNames(names []string) ddcore.HashAlgo {
	var algos ddcore.HashAlgo
	for _, name := range names {
		switch name {
		case "md5":
			algos |= ddcore.HashMD5
		case "sha1":
			algos |= ddcore.HashSHA1
		case "sha256":
			algos |= ddcore.HashSHA256
		case "sha512":
			algos |= ddcore.HashSHA512
		}
	}
	if algos == 0 {
		algos = ddcore.HashMD5
	}
	return algos
}

func printCopyStatus(s ddcore.Status) {
	fmt.Printf("\n\n%s: %s\n", s.Outcome, s.Message)
	fmt.Printf("%d bytes read, %d bytes written\n", s.BytesRead, s.BytesWritten)
	if s.ErrorsRead > 0 || s.ErrorsWrite > 0 {
		fmt.Printf("%d read errors, %d write errors, %d sectors skipped\n", s.ErrorsRead, s.ErrorsWrite, s.SectorsSkipped)
	}
	for algo, hex := range s.HashInputHex {
		fmt.Printf("input  %s: %s\n", hashAlgoName(algo), hex)
	}
	for algo, hex := range s.HashOutputHex {
		fmt.Printf("output %s: %s\n", hashAlgoName(algo), hex)
	}
}

func hashAlgoName(a ddcore.HashAlgo) string {
	switch a {
	case ddcore.HashMD5:
		return "md5"
	case ddcore.HashSHA1:
		return "sha1"
	case ddcore.HashSHA256:
		return "sha256"
	case ddcore.HashSHA512:
		return "sha512"
	default:
		return "unknown"
	}
}

var wipePatternName string

var wipeCmd = &cobra.Command{
	Use:   "wipe FILE",
	Short: "Overwrite FILE with a destructive wipe pattern",
	Long:  "Overwrite FILE with zero, random, DoD-3-pass, DoD-7-pass, or Gutmann-35-pass data.",
	Args:  cobra.ExactArgs(1),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := config.Initialize(); err != nil {
			cobra.CheckErr(fmt.Errorf("failed to initialize config: %w", err))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		f, err := openReadWrite(args[0])
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to open file %s: %w", args[0], err))
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to stat file %s: %w", args[0], err))
		}

		wipe := ddcore.Wipe{
			Pattern:   wipePatternFromName(wipePatternName),
			PassCount: config.Wipe.PassCount,
			Verify:    config.Wipe.Verify,
		}
		if wipe.PassCount <= 0 {
			wipe.PassCount = 1
		}

		fmt.Printf("Wiping %s (%d bytes) with %s pattern, %d pass(es)\n", args[0], info.Size(), wipePatternName, wipe.PassCount)
		if err := ddcore.RunWipe(wipe, f, info.Size(), config.Recovery.SoftBlockSize); err != nil {
			cobra.CheckErr(fmt.Errorf("wipe failed: %w", err))
		}
		fmt.Printf("Done.\n")
	},
}

func wipePatternFromName(name string) ddcore.FillPattern {
	switch name {
	case "zero":
		return ddcore.FillZero
	case "one":
		return ddcore.FillOne
	case "random":
		return ddcore.FillRandom
	case "dod3":
		return ddcore.FillDoD3Pass
	case "dod7":
		return ddcore.FillDoD7Pass
	case "gutmann":
		return ddcore.FillGutmann35Pass
	default:
		return ddcore.FillZero
	}
}

func init() {
	copyCmd.Flags().IntVar(&copyRetryCount, "retry-count", 3, "hard-block retry count on read error")
	copyCmd.Flags().IntVar(&copySoftBlock, "soft-block", 0, "soft read/write block size in bytes (0 = config default)")
	copyCmd.Flags().IntVar(&copyHardBlock, "hard-block", 0, "hard (minimum) block size in bytes (0 = config default)")
	copyCmd.Flags().BoolVar(&copyFillOnError, "fill-on-error", false, "fill unrecoverable blocks instead of skipping them")
	copyCmd.Flags().BoolVar(&copyContinueOnError, "continue-on-error", true, "continue past unrecoverable blocks instead of aborting")
	rootCmd.AddCommand(copyCmd)

	wipeCmd.Flags().StringVar(&wipePatternName, "pattern", "zero", "wipe pattern: zero, one, random, dod3, dod7, gutmann")
	rootCmd.AddCommand(wipeCmd)
}
