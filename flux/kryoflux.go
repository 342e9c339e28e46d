package flux

import (
	"encoding/binary"
	"fmt"
)

// KryoFlux chunk type bytes.
const (
	chunkFLUX  = 0x01
	chunkOOB   = 0x02
	chunkINDEX = 0x03
)

// kryofluxChunkHeaderSize is [type(1), length(2, little-endian)].
const kryofluxChunkHeaderSize = 3

// ProbeKryoFlux heuristically estimates confidence (0..100) that data is a
// KryoFlux-style chunked stream: there is no fixed whole-file magic, so this
// walks the chunk headers end-to-end and checks they are all self-consistent.
func ProbeKryoFlux(data []byte) int {
	off := 0
	chunks := 0
	for off+kryofluxChunkHeaderSize <= len(data) {
		typ := data[off]
		if typ != chunkFLUX && typ != chunkOOB && typ != chunkINDEX {
			break
		}
		length := int(binary.LittleEndian.Uint16(data[off+1 : off+3]))
		need := off + kryofluxChunkHeaderSize + length
		if need > len(data) {
			break
		}
		off = need
		chunks++
	}
	if chunks == 0 {
		return 0
	}
	if off == len(data) {
		return 100
	}
	// Parsed some valid chunks but didn't consume the whole buffer cleanly.
	return 40
}

// OpenKryoFlux parses a KryoFlux-style chunked stream for one track and
// normalizes it into a Track. FLUX chunk payloads are decoded with the
// direct/extended interval scheme shared with the Greaseweazle transport
// (a value v in 0..249 is a delta of v+1 ticks; 250..254 introduce an
// extended two-byte delta; 0xFF introduces an out-of-band opcode byte).
// INDEX chunk payloads must be 4 bytes long, but their value is not used:
// the index marker records the number of deltas decoded so far.
func OpenKryoFlux(data []byte, cylinder, head int) (Track, error) {
	track := Track{Cylinder: cylinder, Head: head}

	off := 0
	for off < len(data) {
		if off+kryofluxChunkHeaderSize > len(data) {
			return Track{}, ErrTruncatedContainer
		}
		typ := data[off]
		length := int(binary.LittleEndian.Uint16(data[off+1 : off+3]))
		payloadStart := off + kryofluxChunkHeaderSize
		payloadEnd := payloadStart + length
		if payloadEnd > len(data) {
			return Track{}, ErrTruncatedContainer
		}
		payload := data[payloadStart:payloadEnd]

		switch typ {
		case chunkFLUX:
			deltas, err := decodeFluxPayload(payload)
			if err != nil {
				return Track{}, err
			}
			track.Deltas = append(track.Deltas, deltas...)
		case chunkOOB:
			// Out-of-band metadata (stream info, index timing, EOF marker).
			// Not surfaced as flux data; ignored beyond validation.
		case chunkINDEX:
			if len(payload) != 4 {
				return Track{}, ErrMalformedFlux
			}
			track.IndexMarkers = append(track.IndexMarkers, len(track.Deltas))
		default:
			return Track{}, fmt.Errorf("flux: unknown KryoFlux chunk type 0x%02X", typ)
		}

		off = payloadEnd
	}

	return track, nil
}

// decodeFluxPayload decodes one FLUX chunk's variable-length-encoded delta
// run.
func decodeFluxPayload(payload []byte) ([]uint32, error) {
	var out []uint32
	i := 0
	for i < len(payload) {
		b := payload[i]
		switch {
		case b <= 249:
			out = append(out, uint32(b)+1)
			i++
		case b >= 250 && b <= 254:
			if i+1 >= len(payload) {
				return nil, ErrTruncatedContainer
			}
			ext := uint32(b-250)*256 + uint32(payload[i+1])
			out = append(out, ext+250)
			i += 2
		default: // 0xFF: out-of-band opcode inline in the flux stream
			if i+1 >= len(payload) {
				return nil, ErrTruncatedContainer
			}
			// Opcode byte consumed; no flux delta produced for it.
			i += 2
		}
	}
	return out, nil
}

// kryofluxTrackIterator iterates pre-split per-track KryoFlux streams, one
// per (cylinder, head) in capture order.
type kryofluxTrackIterator struct {
	streams []kryofluxStream
	idx     int
}

type kryofluxStream struct {
	data           []byte
	cylinder, head int
}

func (it *kryofluxTrackIterator) Next() (Track, bool) {
	if it.idx >= len(it.streams) {
		return Track{}, false
	}
	s := it.streams[it.idx]
	it.idx++
	t, err := OpenKryoFlux(s.data, s.cylinder, s.head)
	if err != nil {
		return Track{}, false
	}
	return t, true
}

// KryoFluxContainer groups the individual per-track stream files that make
// up a KryoFlux capture session (one file per track/head on disk).
type KryoFluxContainer struct {
	streams []kryofluxStream
}

// NewKryoFluxContainer returns an empty container; AddTrack adds the raw
// per-track stream buffers, each tagged with its (cylinder, head).
func NewKryoFluxContainer() *KryoFluxContainer {
	return &KryoFluxContainer{}
}

// AddTrack registers one raw stream buffer for the given (cylinder, head).
func (c *KryoFluxContainer) AddTrack(cylinder, head int, data []byte) {
	c.streams = append(c.streams, kryofluxStream{data: data, cylinder: cylinder, head: head})
}

func (c *KryoFluxContainer) IterTracks() TrackIterator {
	return &kryofluxTrackIterator{streams: c.streams}
}
