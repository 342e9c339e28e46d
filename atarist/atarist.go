// Package atarist implements raw Atari ST disk images (contiguous 512-byte
// sectors in CHS order) and MSA, a per-track RLE compressed container.
package atarist

import (
	"encoding/binary"
	"fmt"
)

// Geometry describes an Atari ST disk's sector layout.
type Geometry struct {
	SectorsPerTrack int
	Sides           int
	Tracks          int
}

// raw ST sizes, all at 512 bytes/sector.
const (
	SizeSS_SD = 360 * 1024  // single-sided, single-density
	SizeSS_DD = 400 * 1024  // single-sided, double-density
	SizeDS_DD = 720 * 1024  // double-sided, double-density
	SizeDS_HD = 1440 * 1024 // double-sided, high-density
)

// SectorSize is fixed for all Atari ST raw images.
const SectorSize = 512

// GeometryForSize returns the standard CHS geometry implied by a raw ST
// image's byte length, or false if the size is not one of the four
// recognized variants.
func GeometryForSize(size int) (Geometry, bool) {
	switch size {
	case SizeSS_SD:
		return Geometry{SectorsPerTrack: 9, Sides: 1, Tracks: 80}, true
	case SizeSS_DD:
		return Geometry{SectorsPerTrack: 10, Sides: 1, Tracks: 80}, true
	case SizeDS_DD:
		return Geometry{SectorsPerTrack: 9, Sides: 2, Tracks: 80}, true
	case SizeDS_HD:
		return Geometry{SectorsPerTrack: 18, Sides: 2, Tracks: 80}, true
	default:
		return Geometry{}, false
	}
}

// RawImage is an open raw ST disk image.
type RawImage struct {
	Geometry Geometry
	Data     []byte
}

// ProbeRaw reports a rough confidence (0..100) that data is a raw ST image.
func ProbeRaw(data []byte) int {
	if _, ok := GeometryForSize(len(data)); ok {
		return 80
	}
	return 0
}

// OpenRaw validates data's length against the four standard raw ST sizes.
func OpenRaw(data []byte) (*RawImage, error) {
	geom, ok := GeometryForSize(len(data))
	if !ok {
		return nil, fmt.Errorf("atarist: unrecognized raw image size %d", len(data))
	}
	return &RawImage{Geometry: geom, Data: data}, nil
}

// chsOffset computes the byte offset of sector (cylinder, head, sector)
// within a raw CHS-ordered image. sector is 1-based, per Atari ST convention.
func (img *RawImage) chsOffset(cylinder, head, sector int) (int, error) {
	g := img.Geometry
	if cylinder < 0 || cylinder >= g.Tracks {
		return 0, fmt.Errorf("atarist: cylinder %d out of range", cylinder)
	}
	if head < 0 || head >= g.Sides {
		return 0, fmt.Errorf("atarist: head %d out of range", head)
	}
	if sector < 1 || sector > g.SectorsPerTrack {
		return 0, fmt.Errorf("atarist: sector %d out of range", sector)
	}
	trackIndex := cylinder*g.Sides + head
	return (trackIndex*g.SectorsPerTrack + (sector - 1)) * SectorSize, nil
}

// ReadSector reads the 512-byte sector at (cylinder, head, sector).
func (img *RawImage) ReadSector(cylinder, head, sector int) ([]byte, error) {
	off, err := img.chsOffset(cylinder, head, sector)
	if err != nil {
		return nil, err
	}
	out := make([]byte, SectorSize)
	copy(out, img.Data[off:off+SectorSize])
	return out, nil
}

// WriteSector writes a 512-byte payload to (cylinder, head, sector).
func (img *RawImage) WriteSector(cylinder, head, sector int, payload []byte) error {
	if len(payload) != SectorSize {
		return fmt.Errorf("atarist: payload must be exactly %d bytes, got %d", SectorSize, len(payload))
	}
	off, err := img.chsOffset(cylinder, head, sector)
	if err != nil {
		return err
	}
	copy(img.Data[off:off+SectorSize], payload)
	return nil
}

// ToRaw returns a copy of the underlying raw sector data.
func (img *RawImage) ToRaw() []byte {
	out := make([]byte, len(img.Data))
	copy(out, img.Data)
	return out
}

// msaMagic is the big-endian MSA header signature.
const msaMagic = 0x0E0F

// msaHeaderSize is the fixed 10-byte MSA header.
const msaHeaderSize = 10

// msaEscape introduces a three-byte RLE run: (fill byte, big-endian count).
const msaEscape = 0xE5

// MSAHeader is the parsed 10-byte big-endian MSA header.
type MSAHeader struct {
	SectorsPerTrack int
	Sides           int // 1 or 2 (stored on disk as sides-1)
	StartTrack      int
	EndTrack        int
}

// ProbeMSA reports a rough confidence (0..100) that data begins with a
// valid MSA header.
func ProbeMSA(data []byte) int {
	if len(data) < msaHeaderSize {
		return 0
	}
	if binary.BigEndian.Uint16(data[0:2]) != msaMagic {
		return 0
	}
	return 85
}

// ParseMSAHeader reads the 10-byte big-endian MSA header:
// [magic 0x0E0F, sectors_per_track, sides-1, start_track, end_track].
func ParseMSAHeader(data []byte) (MSAHeader, error) {
	if len(data) < msaHeaderSize {
		return MSAHeader{}, fmt.Errorf("atarist: truncated MSA header")
	}
	if binary.BigEndian.Uint16(data[0:2]) != msaMagic {
		return MSAHeader{}, fmt.Errorf("atarist: bad MSA magic %#x", binary.BigEndian.Uint16(data[0:2]))
	}
	return MSAHeader{
		SectorsPerTrack: int(binary.BigEndian.Uint16(data[2:4])),
		Sides:           int(binary.BigEndian.Uint16(data[4:6])) + 1,
		StartTrack:      int(binary.BigEndian.Uint16(data[6:8])),
		EndTrack:        int(binary.BigEndian.Uint16(data[8:10])),
	}, nil
}

// DecodeMSATrack expands one MSA-compressed track to exactly
// sectorsPerTrack*SectorSize bytes. Per spec, a stored length equal to that
// full size means the track is uncompressed; otherwise bytes are literal
// except 0xE5, which introduces a (fill, big-endian uint16 count) run.
func DecodeMSATrack(compressed []byte, sectorsPerTrack int) ([]byte, error) {
	wantLen := sectorsPerTrack * SectorSize
	if len(compressed) == wantLen {
		out := make([]byte, wantLen)
		copy(out, compressed)
		return out, nil
	}

	out := make([]byte, 0, wantLen)
	i := 0
	for i < len(compressed) && len(out) < wantLen {
		b := compressed[i]
		if b != msaEscape {
			out = append(out, b)
			i++
			continue
		}
		if i+4 > len(compressed) {
			return nil, fmt.Errorf("atarist: truncated MSA RLE run at offset %d", i)
		}
		fill := compressed[i+1]
		count := int(binary.BigEndian.Uint16(compressed[i+2 : i+4]))
		for k := 0; k < count; k++ {
			out = append(out, fill)
		}
		i += 4
	}
	if len(out) != wantLen {
		return nil, fmt.Errorf("atarist: decoded track length %d, want %d", len(out), wantLen)
	}
	return out, nil
}

// EncodeMSATrack compresses one raw track using the MSA RLE scheme: runs of
// four or more identical bytes are emitted as an escape triple, everything
// else is copied literally. A literal 0xE5 byte is always escaped, even as
// a run of one, since it would otherwise be ambiguous with the escape code.
func EncodeMSATrack(track []byte) []byte {
	out := make([]byte, 0, len(track))
	i := 0
	for i < len(track) {
		b := track[i]
		runLen := 1
		for i+runLen < len(track) && track[i+runLen] == b && runLen < 0xFFFF {
			runLen++
		}
		switch {
		case b == msaEscape:
			out = append(out, msaEscape, b)
			out = appendUint16(out, uint16(runLen))
			i += runLen
		case runLen >= 4:
			out = append(out, msaEscape, b)
			out = appendUint16(out, uint16(runLen))
			i += runLen
		default:
			out = append(out, b)
			i++
		}
	}
	return out
}

func appendUint16(out []byte, v uint16) []byte {
	return append(out, byte(v>>8), byte(v))
}

// MSAImage is a fully decoded (to raw CHS form) MSA image.
type MSAImage struct {
	Header MSAHeader
	Raw    *RawImage
}

// OpenMSA parses an MSA file's header and decompresses every stored track
// into a flat raw CHS image.
func OpenMSA(data []byte) (*MSAImage, error) {
	hdr, err := ParseMSAHeader(data)
	if err != nil {
		return nil, err
	}
	tracks := hdr.EndTrack - hdr.StartTrack + 1
	if tracks <= 0 {
		return nil, fmt.Errorf("atarist: empty MSA track range")
	}

	raw := make([]byte, 0, tracks*hdr.Sides*hdr.SectorsPerTrack*SectorSize)
	pos := msaHeaderSize
	for t := 0; t < tracks*hdr.Sides; t++ {
		if pos+2 > len(data) {
			return nil, fmt.Errorf("atarist: truncated MSA track length at track %d", t)
		}
		trackLen := int(binary.BigEndian.Uint16(data[pos : pos+2]))
		pos += 2
		if pos+trackLen > len(data) {
			return nil, fmt.Errorf("atarist: truncated MSA track data at track %d", t)
		}
		decoded, err := DecodeMSATrack(data[pos:pos+trackLen], hdr.SectorsPerTrack)
		if err != nil {
			return nil, fmt.Errorf("atarist: track %d: %w", t, err)
		}
		raw = append(raw, decoded...)
		pos += trackLen
	}

	geom := Geometry{SectorsPerTrack: hdr.SectorsPerTrack, Sides: hdr.Sides, Tracks: tracks}
	return &MSAImage{Header: hdr, Raw: &RawImage{Geometry: geom, Data: raw}}, nil
}

// CreateMSA compresses a raw CHS image into an MSA byte stream.
func CreateMSA(raw *RawImage) []byte {
	g := raw.Geometry
	out := make([]byte, msaHeaderSize)
	binary.BigEndian.PutUint16(out[0:2], msaMagic)
	binary.BigEndian.PutUint16(out[2:4], uint16(g.SectorsPerTrack))
	binary.BigEndian.PutUint16(out[4:6], uint16(g.Sides-1))
	binary.BigEndian.PutUint16(out[6:8], 0)
	binary.BigEndian.PutUint16(out[8:10], uint16(g.Tracks-1))

	trackBytes := g.SectorsPerTrack * SectorSize
	for t := 0; t < g.Tracks*g.Sides; t++ {
		start := t * trackBytes
		end := start + trackBytes
		track := raw.Data[start:end]
		compressed := EncodeMSATrack(track)
		if len(compressed) >= trackBytes {
			compressed = track // store uncompressed when RLE doesn't help
		}
		lenField := make([]byte, 2)
		binary.BigEndian.PutUint16(lenField, uint16(len(compressed)))
		out = append(out, lenField...)
		out = append(out, compressed...)
	}
	return out
}
