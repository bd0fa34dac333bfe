package source

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest is a sha256 content hash used for cache keys.
type Digest [32]byte

// Sum hashes every part in order, separating parts so that ("ab","c") and
// ("a","bc") produce different digests.
func Sum(parts ...[]byte) Digest {
	h := sha256.New()
	for _, p := range parts {
		var n [8]byte
		l := uint64(len(p))
		for i := range n {
			n[i] = byte(l >> (8 * i))
		}
		h.Write(n[:])
		h.Write(p)
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

func (d Digest) IsZero() bool {
	return d == Digest{}
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}
