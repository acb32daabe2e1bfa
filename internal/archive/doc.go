// Package archive extracts tarballs into cache staging directories.
//
// Compression is detected from the file's leading magic bytes, falling back
// to the file name extension. Untar shells out to tar with the fastest
// available decompressor (pigz, lbzip2, pbzip2, pixz, zstdmt before their
// single-threaded counterparts) and can run under sudo. NativeExtractor
// decodes gzip, bzip2 and zstd archives in-process and refuses entries that
// would land outside the destination directory.
package archive
