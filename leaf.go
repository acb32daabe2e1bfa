package diskcache

import (
	"context"

	"github.com/giantswarm/diskcache/internal/archive"
	"github.com/giantswarm/diskcache/internal/checksum"
	"github.com/giantswarm/diskcache/internal/logging"
)

// Compression identifies an archive's compression format.
type Compression = archive.Compression

// Compression formats recognized by DetectCompression.
const (
	CompressionNone  = archive.CompressionNone
	CompressionGzip  = archive.CompressionGzip
	CompressionBzip2 = archive.CompressionBzip2
	CompressionXZ    = archive.CompressionXZ
	CompressionZstd  = archive.CompressionZstd
)

// DetectCompression sniffs the compression of the file at path from its
// leading bytes and falls back to its extension.
func DetectCompression(path string) (Compression, error) {
	return archive.DetectCompression(path)
}

// CompressionFromExt guesses the compression from a file name.
func CompressionFromExt(name string) Compression {
	return archive.CompressionFromExt(name)
}

// Untar extracts the tarball at path into cwd with the tar program. The
// decompressor is chosen from the archive contents, preferring parallel
// implementations (pigz, lbzip2, pbzip2, pixz, zstdmt) when installed. With
// sudo set, tar runs through "sudo -n". A failing tar is reported as
// *RunError.
func Untar(ctx context.Context, path, cwd string, sudo bool) error {
	return archive.Untar(ctx, path, cwd, archive.UntarOptions{Sudo: sudo, Logger: logging.Logger()})
}

// SHA1File returns the lowercase hex SHA-1 digest of the file at path.
func SHA1File(path string) (string, error) {
	return checksum.SHA1File(path)
}
