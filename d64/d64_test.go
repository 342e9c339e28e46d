package d64

import "testing"

func TestOpenRejectsBadSize(t *testing.T) {
	if _, err := Open(make([]byte, 100)); err == nil {
		t.Fatalf("expected error for bad size")
	}
}

func TestProbe(t *testing.T) {
	if Probe(make([]byte, SizeD64)) == 0 {
		t.Fatalf("expected nonzero confidence for D64-sized buffer")
	}
	if Probe(make([]byte, 12345)) != 0 {
		t.Fatalf("expected zero confidence for bogus size")
	}
}

func TestD64SectorRoundTrip(t *testing.T) {
	img := New(D64, false)

	payload := make([]byte, 256)
	for i := range payload {
		payload[i] = byte('A' + i%4)
	}
	if err := img.WriteSector(18, 0, payload); err != nil {
		t.Fatalf("WriteSector: %v", err)
	}

	got, err := img.ReadSector(18, 0)
	if err != nil {
		t.Fatalf("ReadSector: %v", err)
	}
	for i := range got {
		if got[i] != payload[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, got[i], payload[i])
		}
	}
}

func TestD64OpenRoundTrip(t *testing.T) {
	img := New(D64, false)
	payload := []byte("ABCD")
	full := make([]byte, 256)
	for i := range full {
		full[i] = payload[i%len(payload)]
	}
	if err := img.WriteSector(18, 0, full); err != nil {
		t.Fatalf("WriteSector: %v", err)
	}

	reopened, err := Open(img.Data)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := reopened.ReadSector(18, 0)
	if err != nil {
		t.Fatalf("ReadSector: %v", err)
	}
	if got[0] != 'A' || got[1] != 'B' || got[2] != 'C' || got[3] != 'D' {
		t.Fatalf("unexpected sector contents: %v", got[:4])
	}
}

func TestD71SectorOffsetsDistinctFromD64(t *testing.T) {
	img := New(D71, false)
	if err := img.WriteSector(1, 0, make([]byte, 256)); err != nil {
		t.Fatalf("WriteSector side 0: %v", err)
	}
	payload := make([]byte, 256)
	payload[0] = 0xAB
	if err := img.WriteSector(36, 0, payload); err != nil {
		t.Fatalf("WriteSector side 1: %v", err)
	}
	got, err := img.ReadSector(36, 0)
	if err != nil {
		t.Fatalf("ReadSector side 1: %v", err)
	}
	if got[0] != 0xAB {
		t.Fatalf("side-1 sector contents wrong: %v", got[:1])
	}
	other, err := img.ReadSector(1, 0)
	if err != nil {
		t.Fatalf("ReadSector side 0: %v", err)
	}
	if other[0] == 0xAB {
		t.Fatalf("side 0 and side 1 sector 0 aliased to same offset")
	}
}
