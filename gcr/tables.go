// Package gcr implements the Commodore 1541-family Group Code Recording
// (GCR) bitcell codec: the 4-to-5 bit nibble mapping, sync search, sector
// header/data (de/en)coding, track-cycle detection, and bad-GCR accounting.
//
// The Apple II 6-and-2 GCR variant is not implemented; it would be a
// separate parameterization of the same skeleton (different table, 6-bit
// groups instead of 4-bit nibbles) but is out of scope here.
package gcr

// encodeTable maps each 4-bit nibble to its 5-bit GCR code. These are the
// canonical Commodore 1541 values; they must match every preserved image and
// must never be re-derived or approximated.
var encodeTable = [16]byte{
	0x0A, 0x0B, 0x12, 0x13, 0x0E, 0x0F, 0x16, 0x17,
	0x09, 0x19, 0x1A, 0x1B, 0x0D, 0x1D, 0x1E, 0x15,
}

// decodeTable inverts encodeTable. Entries for the 16 codes that are not
// valid GCR codes are -1.
var decodeTable = buildDecodeTable()

func buildDecodeTable() [32]int8 {
	var t [32]int8
	for i := range t {
		t[i] = -1
	}
	for nibble, code := range encodeTable {
		t[code] = int8(nibble)
	}
	return t
}

// EncodeNibble returns the 5-bit GCR code for a 4-bit nibble (0..15).
func EncodeNibble(nibble byte) byte {
	return encodeTable[nibble&0x0F]
}

// DecodeNibble returns the 4-bit nibble for a 5-bit GCR code, and whether
// the code is one of the 16 valid codes.
func DecodeNibble(code byte) (nibble byte, ok bool) {
	v := decodeTable[code&0x1F]
	if v < 0 {
		return 0, false
	}
	return byte(v), true
}

// IsValidCode reports whether code is one of the 16 valid 5-bit GCR codes.
func IsValidCode(code byte) bool {
	return decodeTable[code&0x1F] >= 0
}
