package ddcore

import "testing"

func TestDefaultConfigValidates(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestValidateRejectsHardLargerThanSoft(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BlockSizes.Hard = cfg.BlockSizes.Soft + 1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error when hard block size exceeds soft")
	}
}

func TestValidateRejectsOutOfRangeSoft(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BlockSizes.Soft = MinSoftBlockSize - 1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error when soft block size is below minimum")
	}
}

func TestValidateRejectsBadStepDelay(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Floppy.StepDelayMs = MaxStepDelayMs + 1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error when step delay exceeds maximum")
	}
}
