package diskcopy

import "testing"

func TestDC42RoundTrip(t *testing.T) {
	sectors := make([]byte, 800*1024)
	for i := range sectors {
		sectors[i] = byte(i)
	}
	blob := CreateDC42("Test Disk", Gcr800K, sectors)

	result := Analyze(blob)
	if result.ImageType != TypeDC42 {
		t.Fatalf("ImageType = %v, want TypeDC42", result.ImageType)
	}
	if result.VolumeName != "Test Disk" {
		t.Fatalf("VolumeName = %q, want %q", result.VolumeName, "Test Disk")
	}
	if !result.ChecksumValid {
		t.Fatalf("ChecksumValid = false, want true")
	}
	if result.DiskFormat != Gcr800K {
		t.Fatalf("DiskFormat = %v, want Gcr800K", result.DiskFormat)
	}
	if result.SectorCount != uint32(len(sectors)/512) {
		t.Fatalf("SectorCount = %d, want %d", result.SectorCount, len(sectors)/512)
	}

	got := ReadSectorData(blob, result)
	if len(got) != len(sectors) {
		t.Fatalf("ReadSectorData length = %d, want %d", len(got), len(sectors))
	}
	for i := range got {
		if got[i] != sectors[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, got[i], sectors[i])
		}
	}
}

func TestDC42DetectsCorruption(t *testing.T) {
	sectors := make([]byte, 512)
	blob := CreateDC42("Bad Disk", Gcr400K, sectors)
	blob[HeaderSize] ^= 0xFF // corrupt first sector byte after header

	result := Analyze(blob)
	if result.ChecksumValid {
		t.Fatalf("expected checksum mismatch after corruption")
	}
}

func TestAnalyzeUnknownOnGarbage(t *testing.T) {
	result := Analyze([]byte{1, 2, 3})
	if result.ImageType != TypeUnknown {
		t.Fatalf("ImageType = %v, want TypeUnknown", result.ImageType)
	}
}

func TestDecodeADCPlainRun(t *testing.T) {
	src := []byte{0x03, 'a', 'b', 'c', 'd'} // plain run, length 4
	out, err := DecodeADC(src, 4)
	if err != nil {
		t.Fatalf("DecodeADC: %v", err)
	}
	if string(out) != "abcd" {
		t.Fatalf("got %q, want %q", out, "abcd")
	}
}

func TestDecodeADCRepeat2(t *testing.T) {
	// Plain run "AB", then a 2-byte match copying back distance 2 for 4 bytes.
	src := []byte{0x01, 'A', 'B', 0x00, 0x01}
	out, err := DecodeADC(src, 6)
	if err != nil {
		t.Fatalf("DecodeADC: %v", err)
	}
	if string(out) != "ABABAB" {
		t.Fatalf("got %q, want %q", out, "ABABAB")
	}
}

func TestDetectMacBinaryVersion(t *testing.T) {
	hdr := make([]byte, MacBinaryHeaderSize+HeaderSize+512)
	hdr[1] = 5 // name length
	sectors := hdr[MacBinaryHeaderSize+HeaderSize:]
	blob := CreateDC42("Inner", Gcr400K, sectors)
	copy(hdr[MacBinaryHeaderSize:], blob)

	if !isMacBinary(hdr) {
		t.Fatalf("expected isMacBinary to detect wrapper")
	}
	result := Analyze(hdr)
	if result.ImageType != TypeDC42 {
		t.Fatalf("ImageType = %v, want TypeDC42 (unwrapped)", result.ImageType)
	}
	if result.VolumeName != "Inner" {
		t.Fatalf("VolumeName = %q, want %q", result.VolumeName, "Inner")
	}
}
