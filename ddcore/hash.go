package ddcore

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"io"
	"os"
)

// digestSet tracks one running hash.Hash per requested algorithm, with
// optional windowed reset every N input bytes.
type digestSet struct {
	algos   HashAlgo
	window  int
	sinceN  int
	hashers map[HashAlgo]hash.Hash
}

func newDigestSet(algos HashAlgo, window int) *digestSet {
	d := &digestSet{algos: algos, window: window, hashers: make(map[HashAlgo]hash.Hash)}
	d.reset()
	return d
}

func newHasher(a HashAlgo) hash.Hash {
	switch a {
	case HashMD5:
		return md5.New()
	case HashSHA1:
		return sha1.New()
	case HashSHA256:
		return sha256.New()
	case HashSHA512:
		return sha512.New()
	default:
		return nil
	}
}

var allHashAlgos = []HashAlgo{HashMD5, HashSHA1, HashSHA256, HashSHA512}

func (d *digestSet) reset() {
	for _, a := range allHashAlgos {
		if d.algos&a != 0 {
			d.hashers[a] = newHasher(a)
		}
	}
	d.sinceN = 0
}

// Write folds p into every active digest. With a window configured, the
// digest is reset lazily at the start of the first write that crosses a
// window boundary, so Hex() always reflects the most recently completed (or
// in-progress) window rather than an eagerly-cleared one.
func (d *digestSet) Write(p []byte) {
	if d.window <= 0 {
		for _, h := range d.hashers {
			h.Write(p)
		}
		return
	}
	for len(p) > 0 {
		if d.sinceN >= d.window {
			d.reset()
		}
		chunk := p
		if remaining := d.window - d.sinceN; len(chunk) > remaining {
			chunk = chunk[:remaining]
		}
		for _, h := range d.hashers {
			h.Write(chunk)
		}
		d.sinceN += len(chunk)
		p = p[len(chunk):]
	}
}

// Hex returns the lowercase hex digest of every active algorithm computed
// so far, without disturbing the running state.
func (d *digestSet) Hex() map[HashAlgo]string {
	out := make(map[HashAlgo]string, len(d.hashers))
	for a, h := range d.hashers {
		// hash.Hash.Sum appends to (and does not consume) its argument,
		// so this reads the digest without resetting it.
		out[a] = hex.EncodeToString(h.Sum(nil))
	}
	return out
}

// HashFile computes the whole-file (unwindowed) digest of every algorithm
// in algos, for the "verify" command's standalone checksum path — no
// Engine or Config required.
func HashFile(path string, algos HashAlgo) (map[HashAlgo]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d := newDigestSet(algos, 0)
	buf := make([]byte, 128*1024)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			d.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return d.Hex(), nil
}
