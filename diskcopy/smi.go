package diskcopy

import "bytes"

// smiMagic is the 2-byte signature at the start of a Self-Mounting Image's
// embedded disk image resource fork wrapper; SMI files are DC42 images with
// a driver stub and resource fork prepended, so extraction is a matter of
// finding the DC42 header rather than parsing a distinct format.
var smiMagic = []byte{0x60, 0x00} // 68k BRA opcode, start of driver stub

// FindEmbeddedDC42 scans data for a DC42 header whose DataSize/TagSize
// fields describe a run that fits within the remaining buffer, used to
// locate a DC42 image embedded inside an SMI driver wrapper. It returns the
// byte offset of the header, or -1 if none is found.
func FindEmbeddedDC42(data []byte) int {
	if !bytes.HasPrefix(data, smiMagic) {
		return -1
	}
	for off := 0; off+HeaderSize < len(data); off++ {
		h, err := parseDC42Header(data, off)
		if err != nil {
			continue
		}
		if h.VolumeName == "" {
			continue
		}
		remaining := len(data) - off - HeaderSize
		if int(h.DataSize) > 0 && int(h.DataSize) <= remaining {
			return off
		}
	}
	return -1
}
