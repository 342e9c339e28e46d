package ddcore

import (
	"crypto/rand"
	"fmt"
	"io"
)

// dod3Passes and dod7Passes list the byte pattern written by each pass of
// the DoD wipe schemes; a nil entry is a pass of random bytes. RunWipe runs
// each entry once, dropping trailing entries when PassCount is smaller than
// the table; a larger PassCount adds no passes.
var dod3Passes = [][]byte{{0x00}, {0xFF}, nil} // nil = random
var dod7Passes = [][]byte{
	{0xF6}, {0x00}, {0xFF}, nil, {0x00}, {0xFF}, nil,
}

// gutmannPasses lists the 35 Gutmann passes; the first 4 and last 4 are
// random, the middle 27 cycle fixed bit patterns.
func gutmannPasses() [][]byte {
	passes := make([][]byte, 0, 35)
	for i := 0; i < 4; i++ {
		passes = append(passes, nil)
	}
	fixed := [][]byte{
		{0x55}, {0xAA}, {0x92, 0x49, 0x24}, {0x49, 0x24, 0x92}, {0x24, 0x92, 0x49},
		{0x00}, {0x11}, {0x22}, {0x33}, {0x44}, {0x55}, {0x66}, {0x77},
		{0x88}, {0x99}, {0xAA}, {0xBB}, {0xCC}, {0xDD}, {0xEE}, {0xFF},
		{0x92, 0x49, 0x24}, {0x49, 0x24, 0x92}, {0x24, 0x92, 0x49},
		{0x6D, 0xB6, 0xDB}, {0xB6, 0xDB, 0x6D}, {0xDB, 0x6D, 0xB6},
	}
	passes = append(passes, fixed...)
	for i := 0; i < 4; i++ {
		passes = append(passes, nil)
	}
	return passes
}

func passesFor(w Wipe) [][]byte {
	switch w.Pattern {
	case FillZero:
		return [][]byte{{0x00}}
	case FillOne:
		return [][]byte{{0xFF}}
	case FillRandom:
		return [][]byte{nil}
	case FillDoD3Pass:
		return dod3Passes
	case FillDoD7Pass:
		return dod7Passes
	case FillGutmann35Pass:
		return gutmannPasses()
	default:
		return [][]byte{{w.FillByte}}
	}
}

// RunWipe overwrites an entire destination with the configured pattern,
// ignoring any prior content. Unlike Engine.Run, a wipe has no source side
// to read from or hash.
func RunWipe(w Wipe, dst io.WriteSeeker, size int64, blockSize int) error {
	if blockSize <= 0 {
		blockSize = DefaultSoftBlockSize
	}
	passes := passesFor(w)
	if w.PassCount > 0 && w.PassCount < len(passes) {
		passes = passes[:w.PassCount]
	}

	buf := make([]byte, blockSize)
	for passIdx, pattern := range passes {
		if _, err := dst.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("wipe pass %d: seek: %w", passIdx, err)
		}
		var remaining int64 = size
		for remaining > 0 {
			n := blockSize
			if int64(n) > remaining {
				n = int(remaining)
			}
			if err := fillPattern(buf[:n], pattern); err != nil {
				return fmt.Errorf("wipe pass %d: %w", passIdx, err)
			}
			if _, err := dst.Write(buf[:n]); err != nil {
				return fmt.Errorf("wipe pass %d: write: %w", passIdx, err)
			}
			remaining -= int64(n)
		}
	}
	return nil
}

func fillPattern(buf []byte, pattern []byte) error {
	if pattern == nil {
		_, err := rand.Read(buf)
		return err
	}
	for i := range buf {
		buf[i] = pattern[i%len(pattern)]
	}
	return nil
}
