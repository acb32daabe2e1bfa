package checksum

import (
	"crypto/sha1" //nolint:gosec // G505: SHA-1 identifies artifacts published with SHA-1 digests
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// BufferSize is the read buffer size used when hashing.
const BufferSize = 64 * 1024

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, BufferSize)
		return &b
	},
}

// SHA1File returns the lowercase hex SHA-1 digest of the file at path.
func SHA1File(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is supplied by the cache
	if err != nil {
		return "", fmt.Errorf("open %s for hashing: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	sum, err := SHA1Reader(f)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return sum, nil
}

// SHA1Reader returns the lowercase hex SHA-1 digest of everything read from r.
func SHA1Reader(r io.Reader) (string, error) {
	bp := bufPool.Get().(*[]byte) //nolint:errcheck,forcetypeassert // pool only holds *[]byte
	defer bufPool.Put(bp)

	h := sha1.New() //nolint:gosec // G401: see import
	// io.CopyBuffer would bypass buf if r implemented WriterTo.
	if _, err := io.CopyBuffer(h, struct{ io.Reader }{r}, *bp); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Equal reports whether two hex digests name the same hash, ignoring case
// and surrounding whitespace.
func Equal(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
