// Package diskcopy implements Apple Disk Copy 4.2, NDIF (Disk Copy 6.x),
// Self-Mounting Image (SMI) extraction, and MacBinary II/III unwrapping.
package diskcopy

import (
	"encoding/binary"
	"fmt"
)

// DiskFormat identifies the on-disk encoding recorded in a DC42 header.
type DiskFormat byte

const (
	Gcr400K  DiskFormat = 0
	Gcr800K  DiskFormat = 1
	Mfm720K  DiskFormat = 2
	Mfm1440K DiskFormat = 3
	Custom   DiskFormat = 0xFF
)

// ImageType identifies which container kind was detected.
type ImageType int

const (
	TypeUnknown ImageType = iota
	TypeDC42
	TypeNDIF
	TypeUDIF
	TypeRaw
	TypeSMI
)

// HeaderSize is the fixed DC42 header length.
const HeaderSize = 84

// dc42Header is the 84-byte Disk Copy 4.2 header, all fields big-endian.
type dc42Header struct {
	VolumeName    string
	DataSize      uint32
	TagSize       uint32
	DataChecksum  uint32
	TagChecksum   uint32
	DiskEncoding  DiskFormat
	FormatByte    byte
	PrivateWord   uint16
}

// AnalyzeResult is the outcome of analyzing a DC42/NDIF/SMI/MacBinary blob.
type AnalyzeResult struct {
	ImageType      ImageType
	MacBinaryType  int // 0 = none, 1/2/3 = MacBinary I/II/III
	IsValid        bool
	VolumeName     string
	DiskFormat     DiskFormat
	SectorCount    uint32
	SectorSize     uint32
	ChecksumValid  bool
	DataOffset     int // offset of sector data within the original buffer
}

// parseDC42Header reads the 84-byte big-endian DC42 header starting at off.
func parseDC42Header(data []byte, off int) (dc42Header, error) {
	if off+HeaderSize > len(data) {
		return dc42Header{}, fmt.Errorf("diskcopy: truncated DC42 header")
	}
	h := data[off : off+HeaderSize]

	nameLen := int(h[0])
	if nameLen > 63 {
		nameLen = 63
	}
	name := string(h[1 : 1+nameLen])

	return dc42Header{
		VolumeName:   name,
		DataSize:     binary.BigEndian.Uint32(h[64:68]),
		TagSize:      binary.BigEndian.Uint32(h[68:72]),
		DataChecksum: binary.BigEndian.Uint32(h[72:76]),
		TagChecksum:  binary.BigEndian.Uint32(h[76:80]),
		DiskEncoding: DiskFormat(h[80]),
		FormatByte:   h[81],
		PrivateWord:  binary.BigEndian.Uint16(h[82:84]),
	}, nil
}

// dc42Checksum computes the Disk Copy 4.2 checksum: a running 32-bit sum
// over 16-bit big-endian words, with a rotate-right-by-1 of the accumulator
// after each addition. A trailing odd byte is treated as the high byte of a
// final word (low byte 0).
func dc42Checksum(data []byte) uint32 {
	var sum uint32
	i := 0
	for i+1 < len(data) {
		word := uint32(data[i])<<8 | uint32(data[i+1])
		sum += word
		sum = (sum >> 1) | (sum << 31)
		i += 2
	}
	if i < len(data) {
		word := uint32(data[i]) << 8
		sum += word
		sum = (sum >> 1) | (sum << 31)
	}
	return sum
}

// SectorCountFor returns the number of 512-byte sectors implied by a DC42
// data size.
func SectorCountFor(dataSize uint32) uint32 {
	return dataSize / 512
}

// CreateDC42 builds a DC42 image buffer for the given volume name, disk
// format, and raw sector data.
func CreateDC42(volumeName string, format DiskFormat, sectorData []byte) []byte {
	out := make([]byte, HeaderSize+len(sectorData))

	if len(volumeName) > 63 {
		volumeName = volumeName[:63]
	}
	out[0] = byte(len(volumeName))
	copy(out[1:1+len(volumeName)], volumeName)

	binary.BigEndian.PutUint32(out[64:68], uint32(len(sectorData)))
	binary.BigEndian.PutUint32(out[68:72], 0) // tag size: unused here
	binary.BigEndian.PutUint32(out[72:76], dc42Checksum(sectorData))
	binary.BigEndian.PutUint32(out[76:80], 0) // tag checksum: unused here
	out[80] = byte(format)
	out[81] = 0x22 // Mac format byte
	binary.BigEndian.PutUint16(out[82:84], 0x0100)

	copy(out[HeaderSize:], sectorData)
	return out
}

// Analyze inspects a byte blob, skipping a MacBinary header when one is
// present, and reports TypeDC42 when a DC42 header with the 0x0100 magic at
// offset 82 follows; anything else is TypeUnknown. NDIF and SMI images are
// not classified here: Analyze never reports TypeNDIF or TypeSMI.
func Analyze(data []byte) AnalyzeResult {
	offset := 0
	mbType := 0
	if isMacBinary(data) {
		mbType = detectMacBinaryVersion(data)
		offset = MacBinaryHeaderSize
	}

	if offset+HeaderSize > len(data) {
		return AnalyzeResult{ImageType: TypeUnknown, MacBinaryType: mbType}
	}

	h, err := parseDC42Header(data, offset)
	if err != nil || h.PrivateWord != 0x0100 {
		return AnalyzeResult{ImageType: TypeUnknown, MacBinaryType: mbType}
	}

	sectorData := data[offset+HeaderSize:]
	if int(h.DataSize) <= len(sectorData) {
		sectorData = sectorData[:h.DataSize]
	}
	checksumValid := dc42Checksum(sectorData) == h.DataChecksum

	return AnalyzeResult{
		ImageType:     TypeDC42,
		MacBinaryType: mbType,
		IsValid:       true,
		VolumeName:    h.VolumeName,
		DiskFormat:    h.DiskEncoding,
		SectorCount:   SectorCountFor(h.DataSize),
		SectorSize:    512,
		ChecksumValid: checksumValid,
		DataOffset:    offset + HeaderSize,
	}
}

// ReadSectorData returns the raw sector bytes (stripped of any MacBinary
// wrapper and the DC42 header) from a DC42-identified blob.
func ReadSectorData(data []byte, result AnalyzeResult) []byte {
	end := result.DataOffset + int(result.SectorCount)*int(result.SectorSize)
	if end > len(data) {
		end = len(data)
	}
	return data[result.DataOffset:end]
}
