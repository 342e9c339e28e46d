// Package protection ties together the CopyLock and longtrack sub-detectors
// behind the single ProtectionFinding result shape spec'd for the universal
// dispatcher: higher-confidence (CRC-verified, then signature-bearing, then
// sync-only, then "empty" fallback) variants are tried first, and dispatch
// commits to the first match with confidence >= 0.80.
package protection

import (
	"github.com/sergev/uft/internal/crc16"
	"github.com/sergev/uft/protection/copylock"
	"github.com/sergev/uft/protection/longtrack"
)

// commitThreshold is the confidence above which the dispatcher commits to a
// match instead of continuing to try lower-priority detectors.
const commitThreshold = 0.80

// Finding is the unified protection-detection result.
type Finding struct {
	CopyLockSeed   uint32
	CopyLockFound  bool
	Longtrack      longtrack.Finding
	LongtrackFound bool
}

// DetectAll runs every detector over a captured track's raw byte-domain
// data (already bit-separated, i.e. the MFM/GCR decoded byte stream) plus
// its measured bit length, in priority order, and returns the first finding
// whose confidence clears commitThreshold.
func DetectAll(data []byte, trackBits int) (Finding, bool) {
	// CRC-verified first.
	if f, ok := longtrack.DetectSevenCities(data, trackBits, sevenCitiesCRC); ok && f.Confidence >= commitThreshold {
		return Finding{Longtrack: f, LongtrackFound: true}, true
	}
	// Then signature-bearing.
	if f, ok := longtrack.DetectSilmarils(data, trackBits); ok && f.Confidence >= commitThreshold {
		return Finding{Longtrack: f, LongtrackFound: true}, true
	}
	// Then sync-only heuristics.
	if f, ok := longtrack.DetectProtec(data, trackBits); ok && f.Confidence >= commitThreshold {
		return Finding{Longtrack: f, LongtrackFound: true}, true
	}
	// Then the generic "empty"/long-track-length fallback.
	if percent, isLong := longtrack.DetectGeneric(trackBits); isLong {
		return Finding{
			Longtrack: longtrack.Finding{
				Kind:       longtrack.Empty,
				Confidence: 0.80,
				TrackBits:  trackBits,
			},
			LongtrackFound: true,
		}, percent > 0
	}
	return Finding{}, false
}

// sevenCitiesCRC computes CRC-CCITT over a Seven Cities of Gold payload
// candidate, using the same polynomial as the rest of the protection engine.
func sevenCitiesCRC(payload []byte) uint16 {
	return crc16.CCITT(0xFFFF, payload)
}

// DetectCopyLock attempts CopyLock LFSR seed recovery from window; it does
// not scan sector sync words. window must be >= 8 bytes of data known
// to be LFSR output (typically the decoded contents of one sector).
func DetectCopyLock(window []byte) (Finding, bool) {
	seed, ok := copylock.RecoverSeed(window)
	if !ok {
		return Finding{}, false
	}
	return Finding{CopyLockSeed: seed, CopyLockFound: true}, true
}
