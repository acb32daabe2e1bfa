package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/giantswarm/diskcache/internal/sentinel"
)

// ErrUnsupportedCompression is returned when no decompressor is available for
// an archive's compression format.
const ErrUnsupportedCompression = sentinel.Error("unsupported compression")

// Compression identifies the compression format wrapping a tar stream.
type Compression int

const (
	// CompressionNone is a plain, uncompressed tar stream.
	CompressionNone Compression = iota
	// CompressionGzip is gzip (.tar.gz, .tgz).
	CompressionGzip
	// CompressionBzip2 is bzip2 (.tar.bz2, .tbz2).
	CompressionBzip2
	// CompressionXZ is xz (.tar.xz, .txz).
	CompressionXZ
	// CompressionZstd is Zstandard (.tar.zst, .tzst).
	CompressionZstd
)

// String returns the conventional lowercase name of the format.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionBzip2:
		return "bzip2"
	case CompressionXZ:
		return "xz"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", int(c))
	}
}

// IsValid reports whether c is one of the defined formats.
func (c Compression) IsValid() bool {
	return c >= CompressionNone && c <= CompressionZstd
}

var magics = []struct {
	prefix []byte
	comp   Compression
}{
	{[]byte{0x1f, 0x8b}, CompressionGzip},
	{[]byte("BZh"), CompressionBzip2},
	{[]byte{0xfd, '7', 'z', 'X', 'Z', 0x00}, CompressionXZ},
	{[]byte{0x28, 0xb5, 0x2f, 0xfd}, CompressionZstd},
}

const (
	// sniffLen covers the ustar magic at offset 257 of the first header.
	sniffLen    = 263
	ustarOffset = 257
)

// DetectCompression sniffs the leading bytes of the file at path. When the
// content matches no known magic and is not recognisably a tar stream, the
// extension decides.
func DetectCompression(path string) (Compression, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is a staged archive
	if err != nil {
		return CompressionNone, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return CompressionNone, fmt.Errorf("read %s: %w", path, err)
	}

	if c, ok := sniff(head[:n]); ok {
		return c, nil
	}
	return CompressionFromExt(path), nil
}

// sniff matches head against known magic numbers. ok is false when the
// content is inconclusive.
func sniff(head []byte) (Compression, bool) {
	for _, m := range magics {
		if bytes.HasPrefix(head, m.prefix) {
			return m.comp, true
		}
	}
	if len(head) >= ustarOffset+5 && string(head[ustarOffset:ustarOffset+5]) == "ustar" {
		return CompressionNone, true
	}
	return CompressionNone, false
}

// CompressionFromExt maps a file name extension to a format. Unknown
// extensions map to CompressionNone.
func CompressionFromExt(name string) Compression {
	lower := strings.ToLower(name)
	switch {
	case hasAnySuffix(lower, ".gz", ".tgz"):
		return CompressionGzip
	case hasAnySuffix(lower, ".bz2", ".tbz2", ".tbz"):
		return CompressionBzip2
	case hasAnySuffix(lower, ".xz", ".txz"):
		return CompressionXZ
	case hasAnySuffix(lower, ".zst", ".tzst", ".zstd"):
		return CompressionZstd
	default:
		return CompressionNone
	}
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}
