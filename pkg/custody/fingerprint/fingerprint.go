package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"custodia-hq/custodia/pkg/custody"
)

const (
	// chunkSize is the read buffer size used while streaming content into
	// the hash. The full stream is always consumed; only the buffer is
	// bounded, so arbitrarily large evidence files hash in constant memory.
	chunkSize = 64 * 1024

	// DigestLength is the length of a hex-encoded SHA-256 digest.
	DigestLength = sha256.Size * 2
)

// Digest consumes the reader to EOF and returns the hex-encoded SHA-256
// digest of its content. The same bytes always produce the same digest.
//
// Returns a *custody.StreamError if the stream cannot be fully read; no
// partial digest is ever returned.
func Digest(r io.Reader) (string, error) {
	h := sha256.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", custody.NewStreamError(err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// DigestBytes is a convenience function that returns the hex-encoded
// SHA-256 digest of an in-memory byte slice.
func DigestBytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
