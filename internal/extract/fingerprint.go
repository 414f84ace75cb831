package extract

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/zeebo/blake3"
)

// Fingerprint derives a cache key from image content.
func Fingerprint(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FileFingerprint derives a cache key from a file-like identity tuple,
// for callers that want to avoid hashing full content.
func FileFingerprint(name string, size int64, modTime time.Time) string {
	h := blake3.New()
	fmt.Fprintf(h, "%s\x00%d\x00%d", name, size, modTime.UnixNano())
	return hex.EncodeToString(h.Sum(nil))
}
