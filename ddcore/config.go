// Package ddcore implements a format-independent read/write recovery
// pipeline ("dd core") over files, block devices, or the floppy CHS backend.
// It retries failing reads at progressively smaller granularity, optionally
// fills unreadable regions, hashes both sides of the copy, and reports
// progress through a cancellable, pausable status snapshot.
package ddcore

import "fmt"

// BlockSizes controls the read/write granularity used by the engine.
type BlockSizes struct {
	// Soft is the normal read/write granule. Default 128 KiB, legal range
	// 512 B..16 MiB.
	Soft int
	// Hard is the minimum granule used on error. Default 512 B, must be
	// <= Soft.
	Hard int
	// DIO is the alignment target for direct I/O.
	DIO int
	// AutoAdjust shrinks the granule toward Hard after each error, and
	// scales it back up after a run of clean reads at Hard.
	AutoAdjust bool
}

const (
	MinSoftBlockSize     = 512
	MaxSoftBlockSize     = 16 * 1024 * 1024
	DefaultSoftBlockSize = 128 * 1024
	DefaultHardBlockSize = 512
	DefaultDIOBlockSize  = 1024 * 1024
)

// FillPattern names a wipe/fill pattern.
type FillPattern int

const (
	FillZero FillPattern = iota
	FillOne
	FillRandom
	FillDoD3Pass
	FillDoD7Pass
	FillGutmann35Pass
)

// Recovery controls how the engine reacts to read errors.
type Recovery struct {
	// Reverse reads the source from tail to head.
	Reverse bool
	// Sparse skips writing holes instead of filling them.
	Sparse bool
	// MaxErrors bounds the number of unrecovered errors tolerated before
	// aborting; 0 means unlimited.
	MaxErrors int
	RetryCount    int
	RetryDelayMs  int
	ContinueOnError bool
	// FillOnError, when set, replaces an unrecovered chunk with FillByte
	// instead of skipping or aborting.
	FillOnError bool
	FillByte    byte
}

// HashAlgo identifies a digest algorithm. Values are bit flags so a Hash
// config can request any subset.
type HashAlgo uint8

const (
	HashMD5 HashAlgo = 1 << iota
	HashSHA1
	HashSHA256
	HashSHA512
)

// Hash controls incremental hashing of the input and output streams.
type Hash struct {
	// Input and Output are bitmasks of HashAlgo values, applied
	// independently to the bytes read and the bytes written.
	Input  HashAlgo
	Output HashAlgo
	// Window resets the running hashes every Window bytes when nonzero.
	Window int
	// VerifyOutput is carried in the configuration, but the engine does not
	// act on it: the destination is not re-read or compared after a copy.
	VerifyOutput bool
}

// Wipe controls a destructive overwrite pass, independent of copying.
type Wipe struct {
	Pattern    FillPattern
	FillByte   byte
	PassCount  int
	Verify     bool
}

// Output controls how the destination is opened and written.
type Output struct {
	SplitOutput   bool
	SplitSize     int64
	Append        bool
	Truncate      bool
	DirectIO      bool
	SyncWrites    bool
	SyncFrequency int
}

// Floppy configures the floppy CHS backend (§6 of the floppy geometry
// contract); see adapter.FloppyAdapter for the actual transport.
type Floppy struct {
	StepDelayMs    int
	SettleDelayMs  int
	MotorSpinUpMs  int
	WriteRetries   int
	SkipBadSectors bool
}

const (
	MinStepDelayMs     = 1
	MaxStepDelayMs     = 50
	DefaultStepDelayMs = 3

	MinSettleDelayMs     = 5
	MaxSettleDelayMs     = 100
	DefaultSettleDelayMs = 15

	MinMotorSpinUpMs     = 100
	MaxMotorSpinUpMs     = 2000
	DefaultMotorSpinUpMs = 500

	MinWriteRetries     = 0
	MaxWriteRetries     = 20
	DefaultWriteRetries = 3
)

// Config is the full set of knobs accepted by NewEngine, mirroring
// dd_config_t's grouping field-for-field.
type Config struct {
	InputPath  string
	OutputPath string

	// Skip bytes at the start of input before the first read.
	Skip int64
	// Seek bytes at the start of output before the first write.
	Seek int64
	// MaxBytes bounds how much of the input is copied; 0 means until EOF.
	MaxBytes int64

	BlockSizes BlockSizes
	Recovery   Recovery
	Hash       Hash
	Wipe       Wipe
	Output     Output
	Floppy     Floppy

	// OnStatus, if set, is invoked at a bounded rate as the copy proceeds.
	OnStatus func(Status)
}

// DefaultConfig returns a Config populated with the engine's documented
// defaults; callers override only the fields they care about.
func DefaultConfig() Config {
	return Config{
		BlockSizes: BlockSizes{
			Soft:       DefaultSoftBlockSize,
			Hard:       DefaultHardBlockSize,
			DIO:        DefaultDIOBlockSize,
			AutoAdjust: true,
		},
		Recovery: Recovery{
			RetryCount:   3,
			RetryDelayMs: 250,
		},
		Floppy: Floppy{
			StepDelayMs:   DefaultStepDelayMs,
			SettleDelayMs: DefaultSettleDelayMs,
			MotorSpinUpMs: DefaultMotorSpinUpMs,
			WriteRetries:  DefaultWriteRetries,
		},
	}
}

// Validate checks the configuration for internally inconsistent values
// before an Engine is built from it.
func (c Config) Validate() error {
	if c.BlockSizes.Soft < MinSoftBlockSize || c.BlockSizes.Soft > MaxSoftBlockSize {
		return fmt.Errorf("soft block size %d out of range [%d, %d]", c.BlockSizes.Soft, MinSoftBlockSize, MaxSoftBlockSize)
	}
	if c.BlockSizes.Hard <= 0 || c.BlockSizes.Hard > c.BlockSizes.Soft {
		return fmt.Errorf("hard block size %d must be positive and <= soft block size %d", c.BlockSizes.Hard, c.BlockSizes.Soft)
	}
	if c.Recovery.RetryCount < 0 {
		return fmt.Errorf("retry count %d must be non-negative", c.Recovery.RetryCount)
	}
	if c.Recovery.RetryDelayMs < 0 {
		return fmt.Errorf("retry delay %d must be non-negative", c.Recovery.RetryDelayMs)
	}
	if c.Floppy.StepDelayMs != 0 && (c.Floppy.StepDelayMs < MinStepDelayMs || c.Floppy.StepDelayMs > MaxStepDelayMs) {
		return fmt.Errorf("step delay %dms out of range [%d, %d]", c.Floppy.StepDelayMs, MinStepDelayMs, MaxStepDelayMs)
	}
	if c.Floppy.SettleDelayMs != 0 && (c.Floppy.SettleDelayMs < MinSettleDelayMs || c.Floppy.SettleDelayMs > MaxSettleDelayMs) {
		return fmt.Errorf("settle delay %dms out of range [%d, %d]", c.Floppy.SettleDelayMs, MinSettleDelayMs, MaxSettleDelayMs)
	}
	if c.Floppy.WriteRetries < MinWriteRetries || c.Floppy.WriteRetries > MaxWriteRetries {
		return fmt.Errorf("write retries %d out of range [%d, %d]", c.Floppy.WriteRetries, MinWriteRetries, MaxWriteRetries)
	}
	return nil
}
