package gcr

// Header is the eight-byte plain-domain header block that precedes every
// Commodore GCR sector.
type Header struct {
	Sector byte
	Track  byte
	ID1    byte
	ID0    byte
}

func headerChecksum(sector, track, id1, id0 byte) byte {
	return sector ^ track ^ id1 ^ id0
}

// EncodeHeaderBlock produces the 10 GCR bytes for a sector header.
func EncodeHeaderBlock(h Header) [10]byte {
	return encodeHeaderBlockChecksum(h, false)
}

// encodeHeaderBlockChecksum encodes a sector header, optionally corrupting
// the embedded XOR checksum byte while leaving the sector/track/id fields
// themselves intact.
func encodeHeaderBlockChecksum(h Header, badChecksum bool) [10]byte {
	checksum := headerChecksum(h.Sector, h.Track, h.ID1, h.ID0)
	if badChecksum {
		checksum ^= 0xFF
	}
	plain := [8]byte{
		0x08,
		checksum,
		h.Sector,
		h.Track,
		h.ID1,
		h.ID0,
		0x0F,
		0x0F,
	}
	var out [10]byte
	g0 := EncodeGroup([4]byte{plain[0], plain[1], plain[2], plain[3]})
	g1 := EncodeGroup([4]byte{plain[4], plain[5], plain[6], plain[7]})
	copy(out[0:5], g0[:])
	copy(out[5:10], g1[:])
	return out
}

// DecodeHeaderBlock decodes the 10 GCR bytes of a sector header. checksumOk
// reports whether the embedded XOR checksum matches. validGroups reports
// how many of the two 4-byte groups decoded with all valid GCR codes (0, 1,
// or 2) so callers can distinguish "fully readable but wrong checksum" from
// "partially unreadable".
func DecodeHeaderBlock(gcrBytes [10]byte) (h Header, tag byte, checksumOk bool, validGroups int) {
	var g0, g1 [5]byte
	copy(g0[:], gcrBytes[0:5])
	copy(g1[:], gcrBytes[5:10])

	p0, v0 := DecodeGroup(g0)
	p1, v1 := DecodeGroup(g1)
	if v0 == 4 {
		validGroups++
	}
	if v1 == 4 {
		validGroups++
	}

	tag = p0[0]
	checksum := p0[1]
	h.Sector = p0[2]
	h.Track = p0[3]
	h.ID1 = p1[0]
	h.ID0 = p1[1]

	checksumOk = checksum == headerChecksum(h.Sector, h.Track, h.ID1, h.ID0)
	return h, tag, checksumOk, validGroups
}

// EncodeDataBlock produces the 325 GCR bytes for a 256-byte sector payload.
func EncodeDataBlock(data [256]byte) [325]byte {
	var xsum byte
	for _, b := range data {
		xsum ^= b
	}
	return encodeDataBlockChecksum(data, xsum)
}

// encodeDataBlockChecksum encodes a data block using an explicit checksum
// byte, letting callers simulate a corrupted checksum without altering the
// payload itself.
func encodeDataBlockChecksum(data [256]byte, xsum byte) [325]byte {
	var plain [260]byte
	plain[0] = 0x07
	copy(plain[1:257], data[:])
	plain[257] = xsum
	plain[258] = 0x00
	plain[259] = 0x00

	var out [325]byte
	for i := 0; i < 65; i++ {
		g := EncodeGroup([4]byte{
			plain[4*i], plain[4*i+1], plain[4*i+2], plain[4*i+3],
		})
		copy(out[5*i:5*i+5], g[:])
	}
	return out
}

// DecodeDataBlock decodes the 325 GCR bytes of a sector data block.
// checksumOk reports whether the embedded XOR checksum matches.
// validGroups is the number of the 65 groups (0..65) that decoded with all
// four bytes valid before the first invalid 5-bit code was hit.
func DecodeDataBlock(gcrBytes [325]byte) (data [256]byte, checksumOk bool, validGroups int) {
	var plain [260]byte
	for i := 0; i < 65; i++ {
		var g [5]byte
		copy(g[:], gcrBytes[5*i:5*i+5])
		p, v := DecodeGroup(g)
		copy(plain[4*i:4*i+4], p[:])
		if v == 4 {
			validGroups++
		} else {
			break
		}
	}

	copy(data[:], plain[1:257])
	var xsum byte
	for _, b := range data {
		xsum ^= b
	}
	checksumOk = xsum == plain[257]
	return data, checksumOk, validGroups
}

// SimulatedErrorKind selects a deliberate structural defect for EncodeSector,
// used to reconstruct disks with authentic induced error conditions.
type SimulatedErrorKind int

const (
	// SimNone writes a fully correct sector.
	SimNone SimulatedErrorKind = iota
	// SimHeaderNotFound omits the header block's sync and bytes entirely.
	SimHeaderNotFound
	// SimDataNotFound omits the data block's sync and bytes entirely.
	SimDataNotFound
	// SimBadHeaderChecksum writes a header with a deliberately wrong XOR
	// checksum byte.
	SimBadHeaderChecksum
	// SimBadDataChecksum writes a data block with a deliberately wrong XOR
	// checksum byte.
	SimBadDataChecksum
)

// headerGapLen is the load-bearing gap between a sector's header block and
// its data block. Writing any other value corrupts the following sector.
const headerGapLen = 9

// EncodeSector produces the full on-media byte sequence for one sector:
// [sync][header][gap][sync][data][tailgap]. tailGapLen is the track-zone
// dependent tail gap length (see c64track.GapLength); gap bytes are 0x55.
func EncodeSector(data [256]byte, h Header, kind SimulatedErrorKind, tailGapLen int) []byte {
	var out []byte

	writeSync := func() {
		for i := 0; i < 5; i++ {
			out = append(out, 0xFF)
		}
	}
	writeGap := func(n int) {
		for i := 0; i < n; i++ {
			out = append(out, 0x55)
		}
	}

	if kind != SimHeaderNotFound {
		writeSync()
		hdr := encodeHeaderBlockChecksum(h, kind == SimBadHeaderChecksum)
		out = append(out, hdr[:]...)
	}
	writeGap(headerGapLen)

	if kind != SimDataNotFound {
		writeSync()
		xsum := byte(0)
		for _, b := range data {
			xsum ^= b
		}
		if kind == SimBadDataChecksum {
			xsum ^= 0xFF
		}
		dataBlock := encodeDataBlockChecksum(data, xsum)
		out = append(out, dataBlock[:]...)
	}
	writeGap(tailGapLen)

	return out
}
