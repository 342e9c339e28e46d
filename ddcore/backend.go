package ddcore

import (
	"fmt"
	"io"
	"os"
)

// backend is the narrow interface every copy endpoint implements: a file,
// a block device, or the floppy CHS backend. All three share read_block/
// write_block/seek_to_offset; the floppy backend additionally exposes CHS
// addressing through FloppyBackend.
type backend interface {
	io.Closer
	ReadBlock(buf []byte) (int, error)
	WriteBlock(buf []byte) (int, error)
	SeekToOffset(offset int64) error
	Size() (int64, bool)
}

// fileBackend wraps a plain file or block device.
type fileBackend struct {
	f *os.File
}

func openFileSource(path string) (*fileBackend, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source %s: %w", path, err)
	}
	return &fileBackend{f: f}, nil
}

func openFileSink(path string, out Output) (*fileBackend, error) {
	flags := os.O_WRONLY | os.O_CREATE
	switch {
	case out.Append:
		flags |= os.O_APPEND
	case out.Truncate:
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("open destination %s: %w", path, err)
	}
	return &fileBackend{f: f}, nil
}

func (b *fileBackend) ReadBlock(buf []byte) (int, error)  { return b.f.Read(buf) }
func (b *fileBackend) WriteBlock(buf []byte) (int, error) { return b.f.Write(buf) }
func (b *fileBackend) SeekToOffset(offset int64) error {
	_, err := b.f.Seek(offset, io.SeekStart)
	return err
}
func (b *fileBackend) Size() (int64, bool) {
	info, err := b.f.Stat()
	if err != nil {
		return 0, false
	}
	return info.Size(), true
}
func (b *fileBackend) Close() error { return b.f.Close() }

// FloppyBackend is the CHS-addressed hardware interface of spec.md §6,
// narrower than adapter.FloppyAdapter: it operates sector-by-sector rather
// than whole-image, so the recovery engine can retry a single bad sector
// without re-reading the rest of the disk.
type FloppyBackend interface {
	ReadSector(track, head, sector int, buf []byte) (int, error)
	WriteSector(track, head, sector int, buf []byte) error
	Geometry() (cylinders, heads, sectorsPerTrack, sectorSize int)
}

// floppyBackend adapts a FloppyBackend to the byte-offset-addressed backend
// interface the engine drives, translating linear offsets to CHS triples in
// the standard cylinder-major, head-minor, sector-minor order.
type floppyBackend struct {
	dev                                            FloppyBackend
	cylinders, heads, sectorsPerTrack, sectorSize int
	offset                                         int64
	onCHS                                          func(CHS)
}

func newFloppyBackend(dev FloppyBackend, onCHS func(CHS)) *floppyBackend {
	cyl, heads, spt, ssz := dev.Geometry()
	return &floppyBackend{dev: dev, cylinders: cyl, heads: heads, sectorsPerTrack: spt, sectorSize: ssz, onCHS: onCHS}
}

func (b *floppyBackend) chsForOffset(offset int64) (CHS, error) {
	if b.sectorSize == 0 {
		return CHS{}, fmt.Errorf("floppy backend reports zero sector size")
	}
	sectorIndex := offset / int64(b.sectorSize)
	totalSectors := int64(b.cylinders) * int64(b.heads) * int64(b.sectorsPerTrack)
	if sectorIndex >= totalSectors {
		return CHS{}, io.EOF
	}
	perCylinder := int64(b.heads) * int64(b.sectorsPerTrack)
	cyl := sectorIndex / perCylinder
	rem := sectorIndex % perCylinder
	head := rem / int64(b.sectorsPerTrack)
	sector := rem % int64(b.sectorsPerTrack)
	return CHS{Cylinder: int(cyl), Head: int(head), Sector: int(sector)}, nil
}

func (b *floppyBackend) ReadBlock(buf []byte) (int, error) {
	chs, err := b.chsForOffset(b.offset)
	if err != nil {
		return 0, err
	}
	if b.onCHS != nil {
		b.onCHS(chs)
	}
	n, err := b.dev.ReadSector(chs.Cylinder, chs.Head, chs.Sector, buf)
	b.offset += int64(n)
	return n, err
}

func (b *floppyBackend) WriteBlock(buf []byte) (int, error) {
	chs, err := b.chsForOffset(b.offset)
	if err != nil {
		return 0, err
	}
	if b.onCHS != nil {
		b.onCHS(chs)
	}
	if err := b.dev.WriteSector(chs.Cylinder, chs.Head, chs.Sector, buf); err != nil {
		return 0, err
	}
	b.offset += int64(len(buf))
	return len(buf), nil
}

func (b *floppyBackend) SeekToOffset(offset int64) error {
	b.offset = offset
	return nil
}

func (b *floppyBackend) Size() (int64, bool) {
	return int64(b.cylinders) * int64(b.heads) * int64(b.sectorsPerTrack) * int64(b.sectorSize), true
}

func (b *floppyBackend) Close() error { return nil }
