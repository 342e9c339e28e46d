package atarist

import "testing"

func TestGeometryForSize(t *testing.T) {
	cases := []struct {
		size int
		ok   bool
	}{
		{SizeSS_SD, true},
		{SizeSS_DD, true},
		{SizeDS_DD, true},
		{SizeDS_HD, true},
		{123456, false},
	}
	for _, c := range cases {
		_, ok := GeometryForSize(c.size)
		if ok != c.ok {
			t.Errorf("GeometryForSize(%d) ok = %v, want %v", c.size, ok, c.ok)
		}
	}
}

func TestRawSectorRoundTrip(t *testing.T) {
	img, err := OpenRaw(make([]byte, SizeDS_DD))
	if err != nil {
		t.Fatalf("OpenRaw: %v", err)
	}
	payload := make([]byte, SectorSize)
	for i := range payload {
		payload[i] = byte(i)
	}
	if err := img.WriteSector(5, 1, 3, payload); err != nil {
		t.Fatalf("WriteSector: %v", err)
	}
	got, err := img.ReadSector(5, 1, 3)
	if err != nil {
		t.Fatalf("ReadSector: %v", err)
	}
	for i := range got {
		if got[i] != payload[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, got[i], payload[i])
		}
	}
}

func TestMSARoundTripUncompressed(t *testing.T) {
	geom := Geometry{SectorsPerTrack: 9, Sides: 2, Tracks: 80}
	raw := &RawImage{Geometry: geom, Data: make([]byte, geom.Tracks*geom.Sides*geom.SectorsPerTrack*SectorSize)}
	for i := range raw.Data {
		raw.Data[i] = byte(i * 7)
	}

	compressed := CreateMSA(raw)
	reopened, err := OpenMSA(compressed)
	if err != nil {
		t.Fatalf("OpenMSA: %v", err)
	}
	if len(reopened.Raw.Data) != len(raw.Data) {
		t.Fatalf("decoded length = %d, want %d", len(reopened.Raw.Data), len(raw.Data))
	}
	for i := range raw.Data {
		if reopened.Raw.Data[i] != raw.Data[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, reopened.Raw.Data[i], raw.Data[i])
		}
	}
}

func TestMSARoundTripWithRuns(t *testing.T) {
	sectorsPerTrack := 9
	track := make([]byte, sectorsPerTrack*SectorSize)
	for i := 0; i < 200; i++ {
		track[i] = 0xAA
	}
	for i := 200; i < 210; i++ {
		track[i] = 0xE5 // force the escape path on a literal byte
	}

	compressed := EncodeMSATrack(track)
	decoded, err := DecodeMSATrack(compressed, sectorsPerTrack)
	if err != nil {
		t.Fatalf("DecodeMSATrack: %v", err)
	}
	if len(decoded) != len(track) {
		t.Fatalf("decoded length = %d, want %d", len(decoded), len(track))
	}
	for i := range track {
		if decoded[i] != track[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, decoded[i], track[i])
		}
	}
}

func TestDecodeMSATrackUncompressedLength(t *testing.T) {
	sectorsPerTrack := 9
	track := make([]byte, sectorsPerTrack*SectorSize)
	for i := range track {
		track[i] = byte(i)
	}
	decoded, err := DecodeMSATrack(track, sectorsPerTrack)
	if err != nil {
		t.Fatalf("DecodeMSATrack: %v", err)
	}
	for i := range track {
		if decoded[i] != track[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, decoded[i], track[i])
		}
	}
}

func TestProbeMSA(t *testing.T) {
	hdr := make([]byte, msaHeaderSize)
	hdr[0], hdr[1] = 0x0E, 0x0F
	if ProbeMSA(hdr) == 0 {
		t.Fatalf("expected nonzero confidence for valid MSA magic")
	}
	if ProbeMSA([]byte{0, 0, 0}) != 0 {
		t.Fatalf("expected zero confidence for short/bogus buffer")
	}
}
