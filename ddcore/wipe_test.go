package ddcore

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestRunWipeZeroPattern(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "disk.img")
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x99}, 4096), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	if err := RunWipe(Wipe{Pattern: FillZero}, f, 4096, 512); err != nil {
		t.Fatalf("RunWipe: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, bytes.Repeat([]byte{0x00}, 4096)) {
		t.Fatalf("expected file fully zeroed")
	}
}

func TestRunWipeDoD3PassCount(t *testing.T) {
	passes := passesFor(Wipe{Pattern: FillDoD3Pass})
	if len(passes) != 3 {
		t.Fatalf("DoD-3 should have 3 passes, got %d", len(passes))
	}
	if passes[0][0] != 0x00 || passes[1][0] != 0xFF {
		t.Fatalf("DoD-3 first two passes should be 0x00 then 0xFF")
	}
	if passes[2] != nil {
		t.Fatalf("DoD-3 final pass should be random (nil pattern)")
	}
}

func TestRunWipeGutmannPassCount(t *testing.T) {
	passes := gutmannPasses()
	if len(passes) != 35 {
		t.Fatalf("Gutmann wipe should have 35 passes, got %d", len(passes))
	}
	for i := 0; i < 4; i++ {
		if passes[i] != nil {
			t.Fatalf("pass %d should be random", i)
		}
	}
	for i := len(passes) - 4; i < len(passes); i++ {
		if passes[i] != nil {
			t.Fatalf("pass %d should be random", i)
		}
	}
}

func TestRunWipeLastPatternWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "disk.img")
	if err := os.WriteFile(path, make([]byte, 1024), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	if err := RunWipe(Wipe{Pattern: FillOne}, f, 1024, 256); err != nil {
		t.Fatalf("RunWipe: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, bytes.Repeat([]byte{0xFF}, 1024)) {
		t.Fatalf("expected file filled with 0xFF")
	}
}
