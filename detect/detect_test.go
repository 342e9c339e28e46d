package detect

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/sergev/uft/atarist"
	"github.com/sergev/uft/d64"
)

func TestProbeGWFlux(t *testing.T) {
	buf := make([]byte, 20)
	copy(buf[0:4], []byte{'G', 'W', 'F', 0})
	binary.LittleEndian.PutUint32(buf[4:8], 1)

	candidates := Probe(buf)
	if len(candidates) == 0 || candidates[0].Format != "greaseweazle-flux" {
		t.Fatalf("expected greaseweazle-flux as top candidate, got %+v", candidates)
	}
	if candidates[0].Kind != KindFlux {
		t.Fatalf("expected KindFlux, got %v", candidates[0].Kind)
	}
}

func TestProbeHFE(t *testing.T) {
	buf := make([]byte, 512)
	copy(buf, "HXCPICFE")

	best, ok := Best(buf)
	if !ok {
		t.Fatalf("expected a confident match")
	}
	if best.Format != "HFE" {
		t.Fatalf("Format = %q, want HFE", best.Format)
	}
}

func TestProbeD64BySize(t *testing.T) {
	buf := make([]byte, d64.SizeD64)
	best, ok := Best(buf)
	if !ok {
		t.Fatalf("expected a confident match")
	}
	if best.Format != "d64" {
		t.Fatalf("Format = %q, want d64", best.Format)
	}
}

func TestProbeRawSTBySize(t *testing.T) {
	buf := make([]byte, atarist.SizeDS_DD)
	best, ok := Best(buf)
	if !ok {
		t.Fatalf("expected a confident match")
	}
	if best.Format != "raw-st" {
		t.Fatalf("Format = %q, want raw-st", best.Format)
	}
}

func TestProbeMSAMagic(t *testing.T) {
	buf := make([]byte, 10)
	binary.BigEndian.PutUint16(buf[0:2], 0x0E0F)
	binary.BigEndian.PutUint16(buf[2:4], 9)   // sectors per track
	binary.BigEndian.PutUint16(buf[4:6], 1)   // sides-1
	binary.BigEndian.PutUint16(buf[6:8], 0)   // start track
	binary.BigEndian.PutUint16(buf[8:10], 79) // end track

	best, ok := Best(buf)
	if !ok {
		t.Fatalf("expected a confident match")
	}
	if best.Format != "MSA" {
		t.Fatalf("Format = %q, want MSA", best.Format)
	}
}

func TestProbeUnknownReturnsEmpty(t *testing.T) {
	buf := bytes.Repeat([]byte{0x13, 0x37}, 100)
	if candidates := Probe(buf); len(candidates) != 0 {
		t.Fatalf("expected no candidates for garbage input, got %+v", candidates)
	}
	if _, ok := Best(buf); ok {
		t.Fatalf("Best should report no match for garbage input")
	}
}

func TestProbeRanksHighestConfidenceFirst(t *testing.T) {
	// An HFE signature (confidence 95) should outrank a same-length
	// coincidental D64 size match (confidence 90) when both fire.
	buf := make([]byte, d64.SizeD64)
	copy(buf, "HXCPICFE")

	candidates := Probe(buf)
	if len(candidates) < 2 {
		t.Fatalf("expected both HFE and d64 to fire, got %+v", candidates)
	}
	if candidates[0].Format != "HFE" {
		t.Fatalf("expected HFE to rank first, got %+v", candidates)
	}
	for i := 1; i < len(candidates); i++ {
		if candidates[i].Confidence > candidates[i-1].Confidence {
			t.Fatalf("candidates not sorted descending: %+v", candidates)
		}
	}
}
