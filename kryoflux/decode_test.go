package kryoflux

import (
	"encoding/binary"
	"testing"
)

func TestFindEndOfStreamDetectsEOFMarker(t *testing.T) {
	c := &Client{}
	data := []byte{0x0d, 0x0d, 0x00, 0x00}
	if !c.findEndOfStream(data) {
		t.Fatalf("expected EOF marker to be detected")
	}
}

func TestFindEndOfStreamIncompleteStream(t *testing.T) {
	c := &Client{}
	data := []byte{0x0e, 0x0e, 0x0e}
	if c.findEndOfStream(data) {
		t.Fatalf("expected incomplete stream (no EOF marker) to return false")
	}
}

func indexBlock(streamPosition, sampleCounter, indexCounter uint32) []byte {
	block := make([]byte, 16)
	block[0] = 0x0d
	block[1] = 0x02
	binary.LittleEndian.PutUint16(block[2:4], 12)
	binary.LittleEndian.PutUint32(block[4:8], streamPosition)
	binary.LittleEndian.PutUint32(block[8:12], sampleCounter)
	binary.LittleEndian.PutUint32(block[12:16], indexCounter)
	return block
}

func TestDecodePulsesParsesIndexBlocks(t *testing.T) {
	c := &Client{}
	var data []byte
	data = append(data, indexBlock(100, 66, 1000)...)
	data = append(data, indexBlock(5000, 66, 2000)...)
	data = append(data, 0x0d, 0x0d, 0x00, 0x00) // EOF marker

	pulses := c.decodePulses(data)
	if len(pulses) != 2 {
		t.Fatalf("expected 2 index pulses, got %d", len(pulses))
	}
	if pulses[0].streamPosition != 100 || pulses[0].indexCounter != 1000 {
		t.Fatalf("unexpected first pulse: %+v", pulses[0])
	}
	if pulses[1].streamPosition != 5000 || pulses[1].indexCounter != 2000 {
		t.Fatalf("unexpected second pulse: %+v", pulses[1])
	}
}

func TestDecodeFluxAccumulatesFlux1Bytes(t *testing.T) {
	c := &Client{}
	// Two Flux1 bytes: ticks 0x10 then 0x20, values >= 0x0e so treated as
	// single-byte flux samples.
	data := []byte{0x10, 0x20}
	transitions, err := c.decodeFlux(data, 0, uint32(len(data)))
	if err != nil {
		t.Fatalf("decodeFlux: %v", err)
	}
	if len(transitions) != 2 {
		t.Fatalf("expected 2 transitions, got %d", len(transitions))
	}
	if transitions[1] <= transitions[0] {
		t.Fatalf("expected increasing transition times, got %v", transitions)
	}
}

func TestDecodeFluxRejectsIncompleteFlux2Block(t *testing.T) {
	c := &Client{}
	data := []byte{0x03} // Flux2 opcode without its trailing byte
	if _, err := c.decodeFlux(data, 0, uint32(len(data))); err == nil {
		t.Fatalf("expected error for truncated Flux2 block")
	}
}
