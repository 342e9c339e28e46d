package mfm

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// encodeMFM builds a standard MFM bitcell stream for data, one clock bit
// followed by one data bit per input bit -- the inverse of DecodeToBytes,
// used here only to build test fixtures.
func encodeMFM(data []byte) (bits []byte, nBits int) {
	lastDataBit := 0
	buf := make([]byte, 0, len(data)*2)
	pos := 0
	putBit := func(v int) {
		byteIdx := pos / 8
		if byteIdx >= len(buf) {
			buf = append(buf, 0)
		}
		if v != 0 {
			buf[byteIdx] |= 1 << uint(7-(pos&7))
		}
		pos++
	}
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			dataBit := int((b >> uint(i)) & 1)
			if dataBit != 0 {
				putBit(0)
				putBit(1)
			} else {
				putBit(lastDataBit ^ 1)
				putBit(0)
			}
			lastDataBit = dataBit
		}
	}
	return buf, pos
}

func TestDecodeToBytesRoundTrip(t *testing.T) {
	cases := [][]byte{
		{0x00},
		{0xFF},
		{0xAA, 0x55},
		{0x12, 0x34, 0x56},
		{0x44, 0xa9},
	}
	for _, data := range cases {
		bits, nBits := encodeMFM(data)
		got := LoadBitcells(bits, nBits).DecodeToBytes()
		if !bytes.Equal(got, data) {
			t.Fatalf("DecodeToBytes(encodeMFM(%v)) = %v, want %v", data, got, data)
		}
	}
}

func TestLen(t *testing.T) {
	bits, nBits := encodeMFM([]byte{0x42})
	s := LoadBitcells(bits, nBits)
	if s.Len() != 16 {
		t.Fatalf("Len() = %d, want 16", s.Len())
	}
}

func TestExportBitcellsAndBytes(t *testing.T) {
	data := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	bits, nBits := encodeMFM(data)
	s := LoadBitcells(bits, nBits)

	dir := t.TempDir()
	bitcellsPath := filepath.Join(dir, "track.bitcells")
	bytesPath := filepath.Join(dir, "track.bin")

	if err := s.ExportBitcells(bitcellsPath); err != nil {
		t.Fatalf("ExportBitcells: %v", err)
	}
	if err := s.ExportBytes(bytesPath); err != nil {
		t.Fatalf("ExportBytes: %v", err)
	}

	rawBits, err := os.ReadFile(bitcellsPath)
	if err != nil {
		t.Fatalf("reading exported bitcells: %v", err)
	}
	if !bytes.Equal(rawBits, bits[:len(rawBits)]) {
		t.Fatalf("exported bitcells = %v, want %v", rawBits, bits)
	}

	rawBytes, err := os.ReadFile(bytesPath)
	if err != nil {
		t.Fatalf("reading exported bytes: %v", err)
	}
	if !bytes.Equal(rawBytes, data) {
		t.Fatalf("exported bytes = %v, want %v", rawBytes, data)
	}
}

func TestDecodeToBytesOddBitcellCount(t *testing.T) {
	// A lone clock bit with no paired data bit should simply be dropped,
	// not panic.
	bits, _ := encodeMFM([]byte{0xAA})
	s := LoadBitcells(bits, 1)
	if got := len(s.DecodeToBytes()); got != 0 {
		t.Fatalf("DecodeToBytes() produced %d bytes from 1 bitcell, want 0", got)
	}
}
