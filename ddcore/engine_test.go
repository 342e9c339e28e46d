package ddcore

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writeTempFile: %v", err)
	}
	return path
}

func TestEngineCopiesWholeFile(t *testing.T) {
	dir := t.TempDir()
	data := bytes.Repeat([]byte{0xAB, 0xCD, 0xEF, 0x01}, 4096) // 16 KiB
	src := writeTempFile(t, dir, "src.bin", data)
	dstPath := filepath.Join(dir, "dst.bin")

	cfg := DefaultConfig()
	cfg.InputPath = src
	cfg.OutputPath = dstPath
	cfg.BlockSizes.Soft = 4096
	cfg.Output.Truncate = true

	eng, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	status, err := eng.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if status.Outcome != OutcomeDone {
		t.Fatalf("outcome = %v, want Done", status.Outcome)
	}
	if status.BytesWritten != int64(len(data)) {
		t.Fatalf("bytes written = %d, want %d", status.BytesWritten, len(data))
	}

	got, err := os.ReadFile(dstPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("copied data mismatch")
	}
}

func TestEngineHashesBothSides(t *testing.T) {
	dir := t.TempDir()
	data := []byte("the quick brown fox jumps over the lazy dog")
	src := writeTempFile(t, dir, "src.bin", data)
	dstPath := filepath.Join(dir, "dst.bin")

	cfg := DefaultConfig()
	cfg.InputPath = src
	cfg.OutputPath = dstPath
	cfg.BlockSizes.Soft = 512
	cfg.Output.Truncate = true
	cfg.Hash.Input = HashSHA256
	cfg.Hash.Output = HashSHA256

	eng, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	status, err := eng.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	in := status.HashInputHex[HashSHA256]
	out := status.HashOutputHex[HashSHA256]
	if in == "" || out == "" {
		t.Fatalf("expected non-empty hashes, got input=%q output=%q", in, out)
	}
	if in != out {
		t.Fatalf("input hash %q != output hash %q for an exact copy", in, out)
	}
}

func TestEngineMaxBytes(t *testing.T) {
	dir := t.TempDir()
	data := bytes.Repeat([]byte{0x42}, 1000)
	src := writeTempFile(t, dir, "src.bin", data)
	dstPath := filepath.Join(dir, "dst.bin")

	cfg := DefaultConfig()
	cfg.InputPath = src
	cfg.OutputPath = dstPath
	cfg.BlockSizes.Soft = 512
	cfg.Output.Truncate = true
	cfg.MaxBytes = 250

	eng, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	status, err := eng.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if status.BytesWritten != 250 {
		t.Fatalf("bytes written = %d, want 250", status.BytesWritten)
	}
}

func TestEngineCancelReturnsPartialCounters(t *testing.T) {
	dir := t.TempDir()
	data := bytes.Repeat([]byte{0x11}, 1<<20)
	src := writeTempFile(t, dir, "src.bin", data)
	dstPath := filepath.Join(dir, "dst.bin")

	cfg := DefaultConfig()
	cfg.InputPath = src
	cfg.OutputPath = dstPath
	cfg.BlockSizes.Soft = 1024
	cfg.Output.Truncate = true

	eng, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	eng.Cancel()
	status, err := eng.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if status.Outcome != OutcomeCancelled {
		t.Fatalf("outcome = %v, want Cancelled", status.Outcome)
	}
}

type flakyBackend struct {
	data      []byte
	offset    int64
	failAt    int64 // byte offset that always errors on a full-size read
	failCount int
}

func (f *flakyBackend) ReadBlock(buf []byte) (int, error) {
	if f.offset == f.failAt && f.failCount > 0 {
		f.failCount--
		return 0, io.ErrUnexpectedEOF
	}
	if f.offset >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(buf, f.data[f.offset:])
	f.offset += int64(n)
	return n, nil
}
func (f *flakyBackend) WriteBlock(buf []byte) (int, error) { return len(buf), nil }
func (f *flakyBackend) SeekToOffset(offset int64) error    { f.offset = offset; return nil }
func (f *flakyBackend) Size() (int64, bool)                { return int64(len(f.data)), true }
func (f *flakyBackend) Close() error                       { return nil }

func TestEngineFillsOnExhaustedRetries(t *testing.T) {
	dir := t.TempDir()
	dstPath := filepath.Join(dir, "dst.bin")
	dstFile, err := os.Create(dstPath)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	data := bytes.Repeat([]byte{0x7E}, 256)
	cfg := DefaultConfig()
	cfg.BlockSizes.Soft = 64
	cfg.BlockSizes.Hard = 16
	cfg.Recovery.RetryCount = 1
	cfg.Recovery.FillOnError = true
	cfg.Recovery.FillByte = 0xFF

	eng := newEngine(cfg, &flakyBackend{data: data, failAt: 0, failCount: 100}, &fileBackend{f: dstFile})
	status, err := eng.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if status.ErrorsRead == 0 {
		t.Fatalf("expected at least one recorded read error")
	}
	if status.BytesWritten != int64(len(data)) {
		t.Fatalf("bytes written = %d, want %d (fill keeps the stream whole)", status.BytesWritten, len(data))
	}

	got, err := os.ReadFile(dstPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got[0] != 0xFF {
		t.Fatalf("expected first block to be filled with 0xFF, got %#x", got[0])
	}
}
