// Package detect is the format auto-detection façade: given an unclassified
// byte buffer, it calls every container and flux prober in order of
// specificity (hardware flux magic, then pipeline magic, then image
// container magic, then image container size) and returns a ranked list of
// candidates. It has no parsing side effects — a high-confidence Candidate
// still has to be opened with its own package's constructor.
package detect

import (
	"github.com/sergev/uft/atarist"
	"github.com/sergev/uft/d64"
	"github.com/sergev/uft/diskcopy"
	"github.com/sergev/uft/flux"
)

// Kind classifies what a Candidate actually names: a raw flux capture or a
// sector/track container.
type Kind int

const (
	KindFlux Kind = iota
	KindContainer
)

// Candidate is one prober's verdict on a buffer.
type Candidate struct {
	Format     string
	Kind       Kind
	Confidence int // 0..100
}

// BestConfidenceThreshold is the minimum confidence Best() will accept.
const BestConfidenceThreshold = 50

const (
	hfeV1Signature = "HXCPICFE"
	hfeV3Signature = "HXCHFEV3"
)

func probeHFE(data []byte) int {
	if len(data) < 8 {
		return 0
	}
	sig := string(data[:8])
	if sig == hfeV1Signature || sig == hfeV3Signature {
		return 95
	}
	return 0
}

// msaMagicBytes mirrors atarist's unexported constant; duplicated here because
// detect only needs the two magic bytes, not the rest of the MSA package.
var msaMagicBytes = [2]byte{0x0E, 0x0F}

func probeMSAMagic(data []byte) int {
	if len(data) < 2 {
		return 0
	}
	if data[0] == msaMagicBytes[0] && data[1] == msaMagicBytes[1] {
		return atarist.ProbeMSA(data)
	}
	return 0
}

func probeSMI(data []byte) int {
	if len(data) < 2 || data[0] != 0x60 || data[1] != 0x00 {
		return 0
	}
	if diskcopy.FindEmbeddedDC42(data) >= 0 {
		return 70
	}
	return 0
}

func probeDC42(data []byte) int {
	result := diskcopy.Analyze(data)
	if result.ImageType != diskcopy.TypeDC42 || !result.IsValid {
		return 0
	}
	if result.ChecksumValid {
		return 90
	}
	return 60
}

// magicProbers returns fixed-signature container probers: these run before
// any size-only heuristic because a magic match is strictly more specific
// than "the buffer happens to be the right length".
func magicProbers() []struct {
	name string
	fn   func([]byte) int
} {
	return []struct {
		name string
		fn   func([]byte) int
	}{
		{"HFE", probeHFE},
		{"SMI", probeSMI},
		{"DC42", probeDC42},
		{"MSA", probeMSAMagic},
	}
}

// Probe runs every prober over data and returns every nonzero-confidence
// Candidate, ranked highest confidence first. A zero-length result means no
// prober recognized the buffer.
func Probe(data []byte) []Candidate {
	var candidates []Candidate

	// Hardware flux magic: GW's fixed "GWF\0" header is the most specific
	// signal the façade can see.
	if c := flux.ProbeGW(data); c > 0 {
		candidates = append(candidates, Candidate{Format: "greaseweazle-flux", Kind: KindFlux, Confidence: c})
	}

	// Pipeline magic: KryoFlux's chunked stream has no single fixed magic,
	// only a structural heuristic over its first few chunk headers.
	if c := flux.ProbeKryoFlux(data); c > 0 {
		candidates = append(candidates, Candidate{Format: "kryoflux-stream", Kind: KindFlux, Confidence: c})
	}

	// Image container magic: fixed byte signatures.
	for _, p := range magicProbers() {
		if c := p.fn(data); c > 0 {
			candidates = append(candidates, Candidate{Format: p.name, Kind: KindContainer, Confidence: c})
		}
	}

	// Image container size: only the buffer's length is diagnostic.
	if c := d64.Probe(data); c > 0 {
		candidates = append(candidates, Candidate{Format: "d64", Kind: KindContainer, Confidence: c})
	}
	if c := atarist.ProbeRaw(data); c > 0 {
		candidates = append(candidates, Candidate{Format: "raw-st", Kind: KindContainer, Confidence: c})
	}

	sortByConfidenceDesc(candidates)
	return candidates
}

// Best returns the top-ranked candidate if its confidence clears
// BestConfidenceThreshold.
func Best(data []byte) (Candidate, bool) {
	candidates := Probe(data)
	if len(candidates) == 0 || candidates[0].Confidence < BestConfidenceThreshold {
		return Candidate{}, false
	}
	return candidates[0], true
}

func sortByConfidenceDesc(c []Candidate) {
	for i := 1; i < len(c); i++ {
		for j := i; j > 0 && c[j].Confidence > c[j-1].Confidence; j-- {
			c[j], c[j-1] = c[j-1], c[j]
		}
	}
}
