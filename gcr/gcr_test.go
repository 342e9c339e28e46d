package gcr

import "testing"

func TestNibbleRoundTrip(t *testing.T) {
	for n := byte(0); n < 16; n++ {
		code := EncodeNibble(n)
		got, ok := DecodeNibble(code)
		if !ok {
			t.Fatalf("DecodeNibble(EncodeNibble(%d)) reported invalid", n)
		}
		if got != n {
			t.Fatalf("DecodeNibble(EncodeNibble(%d)) = %d, want %d", n, got, n)
		}
	}
}

func TestInvalidCodesAreFlagged(t *testing.T) {
	valid := map[byte]bool{}
	for _, c := range encodeTable {
		valid[c] = true
	}
	for code := byte(0); code < 32; code++ {
		if valid[code] {
			continue
		}
		if IsValidCode(code) {
			t.Fatalf("code 0x%02X should be invalid", code)
		}
		if _, ok := DecodeNibble(code); ok {
			t.Fatalf("DecodeNibble(0x%02X) should report invalid", code)
		}
	}
}

func TestGroupRoundTrip(t *testing.T) {
	for _, v := range []byte{0x00, 0x01, 0x55, 0xAA, 0xFF, 0x3C} {
		plain := [4]byte{v, v, v, v}
		encoded := EncodeGroup(plain)
		decoded, valid := DecodeGroup(encoded)
		if valid != 4 {
			t.Fatalf("DecodeGroup valid=%d, want 4 for value 0x%02X", valid, v)
		}
		if decoded != plain {
			t.Fatalf("DecodeGroup(EncodeGroup(%v)) = %v", plain, decoded)
		}
	}
}

func TestSectorRoundTrip(t *testing.T) {
	var data [256]byte
	for i := range data {
		data[i] = byte(i)
	}
	h := Header{Sector: 5, Track: 17, ID1: 'A', ID0: 'B'}

	encoded := EncodeSector(data, h, SimNone, 8)

	syncOff := FindSync(encoded, 0)
	if syncOff < 0 {
		t.Fatalf("no sync found in encoded sector")
	}
	var hdrBytes [10]byte
	copy(hdrBytes[:], encoded[syncOff:syncOff+10])
	gotH, tag, checksumOk, valid := DecodeHeaderBlock(hdrBytes)
	if valid != 2 || tag != 0x08 || !checksumOk {
		t.Fatalf("header decode failed: valid=%d tag=%x checksumOk=%v", valid, tag, checksumOk)
	}
	if gotH != h {
		t.Fatalf("decoded header = %+v, want %+v", gotH, h)
	}

	dataSyncOff := FindSync(encoded, syncOff+10+headerGapLen)
	if dataSyncOff < 0 {
		t.Fatalf("no data sync found")
	}
	var dataBytes [325]byte
	copy(dataBytes[:], encoded[dataSyncOff:dataSyncOff+325])
	gotData, dataOk, dvalid := DecodeDataBlock(dataBytes)
	if dvalid != 65 || !dataOk {
		t.Fatalf("data decode failed: valid=%d ok=%v", dvalid, dataOk)
	}
	if gotData != data {
		t.Fatalf("decoded data does not match original payload")
	}
}

func TestEncodeSectorSimulatedErrors(t *testing.T) {
	var data [256]byte
	h := Header{Sector: 1, Track: 1, ID1: 'X', ID0: 'Y'}

	headerless := EncodeSector(data, h, SimHeaderNotFound, 8)
	full := EncodeSector(data, h, SimNone, 8)
	if len(headerless) >= len(full) {
		t.Fatalf("SimHeaderNotFound encoding should be shorter than full encoding")
	}

	badChecksum := EncodeSector(data, h, SimBadHeaderChecksum, 8)
	syncOff := FindSync(badChecksum, 0)
	var hdrBytes [10]byte
	copy(hdrBytes[:], badChecksum[syncOff:syncOff+10])
	_, _, checksumOk, _ := DecodeHeaderBlock(hdrBytes)
	if checksumOk {
		t.Fatalf("SimBadHeaderChecksum should decode with checksumOk = false")
	}
}

func TestDetectCycleRawMatch(t *testing.T) {
	pattern := make([]byte, 40)
	for i := range pattern {
		pattern[i] = byte(i)
	}
	track := append(append([]byte{}, pattern...), pattern...)
	result := DetectCycle(track, 30, 50)
	if !result.Known {
		t.Fatalf("expected cycle to be found")
	}
	if result.Length != len(pattern) {
		t.Fatalf("cycle length = %d, want %d", result.Length, len(pattern))
	}
}

func TestReduceRuns(t *testing.T) {
	track := []byte{0x01, 0x55, 0x55, 0x55, 0x55, 0x55, 0x02}
	out := ReduceGaps(track, 2)
	want := []byte{0x01, 0x55, 0x55, 0x02}
	if string(out) != string(want) {
		t.Fatalf("ReduceGaps = %v, want %v", out, want)
	}
}
