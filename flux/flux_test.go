package flux

import (
	"encoding/binary"
	"testing"
)

func buildGWContainer(cylinder, head uint32, deltas []uint32) []byte {
	buf := make([]byte, gwHeaderSize+len(deltas)*4)
	copy(buf[0:4], gwMagic[:])
	binary.LittleEndian.PutUint32(buf[4:8], gwSupportedVersion)
	binary.LittleEndian.PutUint32(buf[8:12], cylinder)
	binary.LittleEndian.PutUint32(buf[12:16], head)
	binary.LittleEndian.PutUint32(buf[16:20], uint32(len(deltas)))
	off := gwHeaderSize
	for _, d := range deltas {
		binary.LittleEndian.PutUint32(buf[off:off+4], d)
		off += 4
	}
	return buf
}

func TestOpenGW(t *testing.T) {
	deltas := []uint32{100, 200, 300}
	buf := buildGWContainer(3, 1, deltas)

	if ProbeGW(buf) != 100 {
		t.Fatalf("ProbeGW should report full confidence")
	}

	track, err := OpenGW(buf)
	if err != nil {
		t.Fatalf("OpenGW: %v", err)
	}
	if track.Cylinder != 3 || track.Head != 1 {
		t.Fatalf("track identity mismatch: %+v", track)
	}
	if len(track.Deltas) != 3 || track.Deltas[1] != 200 {
		t.Fatalf("unexpected deltas: %v", track.Deltas)
	}
}

func TestOpenGWTruncated(t *testing.T) {
	buf := buildGWContainer(0, 0, []uint32{1, 2, 3})
	_, err := OpenGW(buf[:10])
	if err != ErrTruncatedContainer {
		t.Fatalf("expected ErrTruncatedContainer, got %v", err)
	}
}

func TestOpenGWUnsupportedVersion(t *testing.T) {
	buf := buildGWContainer(0, 0, nil)
	binary.LittleEndian.PutUint32(buf[4:8], 99)
	_, err := OpenGW(buf)
	var uv *UnsupportedVersionError
	if err == nil {
		t.Fatalf("expected error")
	}
	if !asUnsupportedVersion(err, &uv) {
		t.Fatalf("expected UnsupportedVersionError, got %v", err)
	}
	if uv.Version != 99 {
		t.Fatalf("version = %d, want 99", uv.Version)
	}
}

func asUnsupportedVersion(err error, target **UnsupportedVersionError) bool {
	if e, ok := err.(*UnsupportedVersionError); ok {
		*target = e
		return true
	}
	return false
}

func buildKryoFluxChunk(typ byte, payload []byte) []byte {
	buf := make([]byte, kryofluxChunkHeaderSize+len(payload))
	buf[0] = typ
	binary.LittleEndian.PutUint16(buf[1:3], uint16(len(payload)))
	copy(buf[3:], payload)
	return buf
}

func TestOpenKryoFlux(t *testing.T) {
	flux1 := buildKryoFluxChunk(chunkFLUX, []byte{10, 20, 30})
	index := buildKryoFluxChunk(chunkINDEX, []byte{0, 0, 0, 0})
	flux2 := buildKryoFluxChunk(chunkFLUX, []byte{40})

	var data []byte
	data = append(data, flux1...)
	data = append(data, index...)
	data = append(data, flux2...)

	if ProbeKryoFlux(data) != 100 {
		t.Fatalf("ProbeKryoFlux should report full confidence")
	}

	track, err := OpenKryoFlux(data, 5, 0)
	if err != nil {
		t.Fatalf("OpenKryoFlux: %v", err)
	}
	if len(track.Deltas) != 4 {
		t.Fatalf("expected 4 deltas, got %d: %v", len(track.Deltas), track.Deltas)
	}
	if len(track.IndexMarkers) != 1 || track.IndexMarkers[0] != 3 {
		t.Fatalf("unexpected index markers: %v", track.IndexMarkers)
	}
}

func TestNormalize(t *testing.T) {
	track := Track{ResolutionHz: 1000, Deltas: []uint32{10, 20}}
	out := Normalize(track, 2000)
	if out.Deltas[0] != 20 || out.Deltas[1] != 40 {
		t.Fatalf("unexpected normalized deltas: %v", out.Deltas)
	}
}
