// Package d64 implements the D64 and D71 linear sector image containers:
// a flat sequence of 256-byte Commodore 1541/1571 sectors in standard DOS
// order, with an optional trailing per-sector error table.
package d64

import (
	"fmt"

	"github.com/sergev/uft/c64track"
)

// Kind distinguishes D64 (single-sided, tracks 1..35) from D71 (double-sided,
// tracks 1..70, side 1 mapped onto tracks 36..70).
type Kind int

const (
	D64 Kind = iota
	D71
)

// Byte sizes for the four legal variants.
const (
	SizeD64        = 174848
	SizeD64Errors  = 175531
	SizeD71        = 349696
	SizeD71Errors  = 350208
)

// Image is an open D64/D71 container.
type Image struct {
	Kind       Kind
	Data       []byte
	ErrorTable []byte // nil unless the "with errors" variant
}

// Probe reports a rough confidence (0..100) that data is a D64/D71 image,
// based solely on its byte length.
func Probe(data []byte) int {
	switch len(data) {
	case SizeD64, SizeD64Errors, SizeD71, SizeD71Errors:
		return 90
	default:
		return 0
	}
}

// Open validates data's length against the four legal sizes and returns an
// Image positioned over it (no copy: sector reads return copies, but the
// image itself borrows data).
func Open(data []byte) (*Image, error) {
	switch len(data) {
	case SizeD64:
		return &Image{Kind: D64, Data: data}, nil
	case SizeD64Errors:
		return &Image{Kind: D64, Data: data[:SizeD64], ErrorTable: data[SizeD64:]}, nil
	case SizeD71:
		return &Image{Kind: D71, Data: data}, nil
	case SizeD71Errors:
		return &Image{Kind: D71, Data: data[:SizeD71], ErrorTable: data[SizeD71:]}, nil
	default:
		return nil, fmt.Errorf("d64: unrecognized image size %d", len(data))
	}
}

// New allocates a blank D64 or D71 image of the given kind, optionally with
// an error table (all bytes zero, i.e. "no error" per the 1541 DOS table).
func New(kind Kind, withErrors bool) *Image {
	size := SizeD64
	if kind == D71 {
		size = SizeD71
	}
	img := &Image{Kind: kind, Data: make([]byte, size)}
	if withErrors {
		sectors := c64track.D64TotalSectors()
		if kind == D71 {
			sectors *= 2
		}
		img.ErrorTable = make([]byte, sectors)
	}
	return img
}

// totalTracks returns the highest valid track number for this image's kind.
func (img *Image) totalTracks() int {
	if img.Kind == D71 {
		return 70
	}
	return 35
}

// ReadSector reads the 256-byte sector at the given (track, sector)
// selector. track is 1-based; for D71, tracks 36..70 address side 1.
func (img *Image) ReadSector(track, sector int) ([]byte, error) {
	off, err := img.sectorOffset(track, sector)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 256)
	copy(out, img.Data[off:off+256])
	return out, nil
}

// WriteSector writes a 256-byte payload to the given (track, sector)
// selector.
func (img *Image) WriteSector(track, sector int, payload []byte) error {
	if len(payload) != 256 {
		return fmt.Errorf("d64: payload must be exactly 256 bytes, got %d", len(payload))
	}
	off, err := img.sectorOffset(track, sector)
	if err != nil {
		return err
	}
	copy(img.Data[off:off+256], payload)
	return nil
}

func (img *Image) sectorOffset(track, sector int) (int, error) {
	if track < 1 || track > img.totalTracks() {
		return 0, fmt.Errorf("d64: track %d out of range", track)
	}
	zoneTrack := c64track.NormalizeD71Track(track)
	maxSector := c64track.SectorsPerTrack(zoneTrack)
	if sector < 0 || sector >= maxSector {
		return 0, fmt.Errorf("d64: sector %d out of range for track %d", sector, track)
	}

	var block int
	if track <= 35 {
		block = c64track.TrackSectorToBlock(track, sector)
	} else {
		// D71 side 1: tracks 36..70 follow immediately after side 0's 683
		// blocks, using the same per-zone sector counts as side 0.
		block = c64track.D64TotalSectors() + c64track.TrackSectorToBlock(zoneTrack, sector)
	}
	return block * 256, nil
}

// ErrorCodeAt returns the stored 1541 DOS error code for the given sector
// selector, or gcr.ErrOK if this image has no error table.
func (img *Image) ErrorCodeAt(track, sector int) (int, error) {
	if img.ErrorTable == nil {
		return 0, nil
	}
	var block int
	zoneTrack := c64track.NormalizeD71Track(track)
	if track <= 35 {
		block = c64track.TrackSectorToBlock(track, sector)
	} else {
		block = c64track.D64TotalSectors() + c64track.TrackSectorToBlock(zoneTrack, sector)
	}
	if block < 0 || block >= len(img.ErrorTable) {
		return 0, fmt.Errorf("d64: error table index %d out of range", block)
	}
	return int(img.ErrorTable[block]), nil
}

// ToRaw returns the raw sector data (without any error table).
func (img *Image) ToRaw() []byte {
	out := make([]byte, len(img.Data))
	copy(out, img.Data)
	return out
}
