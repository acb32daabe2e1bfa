package diskcache

import (
	"context"

	"github.com/giantswarm/diskcache/internal/archive"
	"github.com/giantswarm/diskcache/internal/fetch"
)

// HTTPFetcher downloads an http(s) URL to a local file. Implementations
// must fail on any non-2xx response.
type HTTPFetcher interface {
	Fetch(ctx context.Context, url, dst string) error
}

// StorageClient copies a gs://bucket/object URL to a local file.
type StorageClient interface {
	Copy(ctx context.Context, gsURL, dst string) error
}

// Extractor unpacks an archive into an existing directory.
type Extractor interface {
	Extract(ctx context.Context, archive, dest string) error
}

// TarExtractor extracts with the tar program, choosing the fastest available
// decompressor and optionally running under sudo. It is the default
// Extractor.
type TarExtractor = archive.TarExtractor

// NativeExtractor extracts gzip, bzip2, zstd and plain tarballs in-process
// without external tools. It rejects entries that escape the destination.
type NativeExtractor = archive.NativeExtractor

// Compile-time interface checks.
var (
	_ HTTPFetcher   = (*fetch.HTTPFetcher)(nil)
	_ StorageClient = (*fetch.GCSClient)(nil)
	_ Extractor     = TarExtractor{}
	_ Extractor     = NativeExtractor{}
)
