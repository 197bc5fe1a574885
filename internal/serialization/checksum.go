package serialization

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// ComputeChecksum computes the SHA-256 checksum of data.
func ComputeChecksum(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// ComputeChecksumReader computes a SHA-256 checksum from an io.Reader,
// for validating large files without holding them in memory.
func ComputeChecksumReader(r io.Reader) ([32]byte, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return [32]byte{}, err
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum, nil
}

// EncodeChecksum renders a checksum as the lowercase hex string stored
// in the file header.
func EncodeChecksum(sum [32]byte) string {
	return hex.EncodeToString(sum[:])
}

// ValidateChecksum compares a computed checksum against the stored hex
// string. Returns ErrChecksumMismatch on any difference.
func ValidateChecksum(computed [32]byte, stored string) error {
	if EncodeChecksum(computed) != stored {
		return ErrChecksumMismatch
	}
	return nil
}
