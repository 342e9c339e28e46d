package hfe

import "fmt"

// ReadADF returns an error for every file: reading Amiga ADF images is not
// implemented. ADF stores raw sectors, not bitcells, so converting it requires the
// Amiga MFM sector codec (sync words, header/data checksums) layered on
// top of the bitcell stream -- outside the track-inventory level this
// package operates at.
func ReadADF(filename string) (*Disk, error) {
	return nil, fmt.Errorf("ADF format not yet implemented")
}

// WriteADF returns an error for every disk: writing ADF images is not implemented.
func WriteADF(filename string, disk *Disk) error {
	return fmt.Errorf("ADF format not yet implemented")
}
