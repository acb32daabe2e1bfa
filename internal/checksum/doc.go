// Package checksum computes SHA-1 digests of cached artifacts. Files are
// streamed through pooled fixed-size buffers so memory use does not depend
// on file size.
package checksum
