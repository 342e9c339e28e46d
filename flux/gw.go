package flux

import (
	"encoding/binary"
	"fmt"
)

// gwMagic is the fixed four-byte magic at the start of a GW-style flux
// container.
var gwMagic = [4]byte{'G', 'W', 'F', 0}

// gwSupportedVersion is the only container version this package decodes
// directly; other versions are reported via UnsupportedVersionError.
const gwSupportedVersion = 1

// gwHeaderSize is the fixed header length: magic(4) + version(4) +
// cylinder(4) + head(4) + count(4), all little-endian.
const gwHeaderSize = 20

// ProbeGW reports a rough confidence (0..100) that data is a GW-style flux
// container, based solely on the magic bytes.
func ProbeGW(data []byte) int {
	if len(data) < 4 {
		return 0
	}
	if data[0] == gwMagic[0] && data[1] == gwMagic[1] && data[2] == gwMagic[2] && data[3] == gwMagic[3] {
		return 100
	}
	return 0
}

// OpenGW parses a single GW-style flux track container.
func OpenGW(data []byte) (Track, error) {
	if len(data) < gwHeaderSize {
		return Track{}, ErrTruncatedContainer
	}
	if data[0] != gwMagic[0] || data[1] != gwMagic[1] || data[2] != gwMagic[2] || data[3] != gwMagic[3] {
		return Track{}, fmt.Errorf("flux: not a GW container")
	}

	version := binary.LittleEndian.Uint32(data[4:8])
	if version != gwSupportedVersion {
		return Track{}, &UnsupportedVersionError{Version: int(version)}
	}

	cylinder := binary.LittleEndian.Uint32(data[8:12])
	head := binary.LittleEndian.Uint32(data[12:16])
	count := binary.LittleEndian.Uint32(data[16:20])

	need := gwHeaderSize + int(count)*4
	if len(data) < need {
		return Track{}, ErrMalformedFlux
	}

	deltas := make([]uint32, count)
	off := gwHeaderSize
	for i := range deltas {
		v := binary.LittleEndian.Uint32(data[off : off+4])
		if v == 0 {
			return Track{}, ErrMalformedFlux
		}
		deltas[i] = v
		off += 4
	}

	return Track{
		Cylinder:     int(cylinder),
		Head:         int(head),
		ResolutionHz: 0, // GW containers do not carry an explicit resolution field
		Deltas:       deltas,
	}, nil
}

// gwTrackIterator iterates a buffer containing zero or more concatenated
// GW-style track containers.
type gwTrackIterator struct {
	data []byte
	off  int
	err  error
}

func (it *gwTrackIterator) Next() (Track, bool) {
	if it.err != nil || it.off >= len(it.data) {
		return Track{}, false
	}
	t, err := OpenGW(it.data[it.off:])
	if err != nil {
		it.err = err
		return Track{}, false
	}
	consumed := gwHeaderSize + len(t.Deltas)*4
	it.off += consumed
	return t, true
}

// GWContainer wraps a buffer of concatenated GW-style track containers.
type GWContainer struct {
	data []byte
}

// OpenGWContainer validates that data begins with a valid GW container and
// returns a Container that lazily iterates every track packed into it.
func OpenGWContainer(data []byte) (*GWContainer, error) {
	if ProbeGW(data) == 0 {
		return nil, fmt.Errorf("flux: not a GW container")
	}
	return &GWContainer{data: data}, nil
}

func (c *GWContainer) IterTracks() TrackIterator {
	return &gwTrackIterator{data: c.data}
}
