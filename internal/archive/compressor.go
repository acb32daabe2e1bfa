package archive

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// LookPathFunc resolves a program name to a path, like exec.LookPath.
type LookPathFunc func(file string) (string, error)

// Compressor is a resolved decompression program plus the extra flags tar
// must pass to it.
type Compressor struct {
	Path string
	Args []string
}

// Command returns the value for tar's -I flag.
func (c Compressor) Command() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// candidates lists programs per format, fastest first.
var candidates = map[Compression][]string{
	CompressionGzip:  {"pigz", "gzip"},
	CompressionBzip2: {"lbzip2", "pbzip2", "bzip2"},
	CompressionXZ:    {"pixz", "xz"},
	CompressionZstd:  {"zstdmt", "zstd"},
}

// extraArgs holds per-program flags. pbzip2 rejects archives with trailing
// padding unless told otherwise; zstd refuses to write to a pipe without -f.
var extraArgs = map[string][]string{
	"pbzip2": {"--ignore-trailing-garbage=1"},
	"zstd":   {"-f"},
	"zstdmt": {"-f"},
}

// FindCompressor returns the preferred available decompressor for c. A nil
// lookPath uses exec.LookPath. CompressionNone has no compressor and returns
// the zero Compressor.
func FindCompressor(c Compression, lookPath LookPathFunc) (Compressor, error) {
	if c == CompressionNone {
		return Compressor{}, nil
	}
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	names, ok := candidates[c]
	if !ok {
		return Compressor{}, fmt.Errorf("%w: %s", ErrUnsupportedCompression, c)
	}
	for _, name := range names {
		path, err := lookPath(name)
		if err != nil {
			continue
		}
		return Compressor{Path: path, Args: extraArgs[filepath.Base(path)]}, nil
	}
	return Compressor{}, fmt.Errorf("%w: no %s decompressor in PATH (tried %s)",
		ErrUnsupportedCompression, c, strings.Join(names, ", "))
}
