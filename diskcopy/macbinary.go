package diskcopy

import (
	"encoding/binary"

	"github.com/sergev/uft/internal/crc16"
)

// MacBinaryHeaderSize is the fixed length of a MacBinary I/II/III header,
// always padded to a multiple of 128 bytes.
const MacBinaryHeaderSize = 128

// isMacBinary applies the classic MacBinary detection heuristic: the buffer
// must hold a 128-byte header plus an 84-byte DC42 header, byte 0 and byte
// 74 must be zero (old-version/zero-fill fields), and the file name length
// at byte 1 must be 1..63. The data fork length at offset 83 is not
// examined.
func isMacBinary(data []byte) bool {
	if len(data) < MacBinaryHeaderSize+HeaderSize {
		return false
	}
	if data[0] != 0 || data[74] != 0 {
		return false
	}
	nameLen := int(data[1])
	if nameLen == 0 || nameLen > 63 {
		return false
	}
	return true
}

// detectMacBinaryVersion distinguishes MacBinary I from II/III. A header
// whose CRC-16/CCITT (initial value 0) over bytes 0..123 does not match the
// big-endian value at offset 124..125 is MacBinary I; otherwise the "mBIN"
// signature at offset 102 marks MacBinary III and a version byte of 129 at
// offset 122 marks MacBinary II.
func detectMacBinaryVersion(data []byte) int {
	if len(data) < MacBinaryHeaderSize {
		return 1
	}
	if crc16.CCITT(0, data[:124]) != binary.BigEndian.Uint16(data[124:126]) {
		return 1
	}
	if len(data) > 106 && string(data[102:106]) == "mBIN" {
		return 3
	}
	if data[122] == 129 {
		return 2
	}
	return 1
}
