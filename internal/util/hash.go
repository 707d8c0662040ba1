package util

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// shortHashLen is the number of hex digits kept in content-derived ids.
const shortHashLen = 16

// ShortHash is the leading hex digits of the sha256 of b.
func ShortHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])[:shortHashLen]
}

// ShortHashReader is ShortHash over a stream, so large files need not be
// held in memory.
func ShortHashReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil))[:shortHashLen], nil
}
