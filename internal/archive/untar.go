package archive

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/giantswarm/diskcache/internal/process"
)

// UntarOptions configures Untar.
type UntarOptions struct {
	Sudo     bool         // run tar through sudo
	LookPath LookPathFunc // nil uses exec.LookPath
	Logger   *slog.Logger // nil disables logging
}

// Untar extracts the archive at path into cwd with the tar program,
// preserving permissions. A non-zero tar exit is returned as
// *process.RunError. A relative path is taken relative to cwd, as tar sees
// it.
func Untar(ctx context.Context, path, cwd string, opts UntarOptions) error {
	if !filepath.IsAbs(path) && cwd != "" {
		path = filepath.Join(cwd, path)
	}
	comp, err := DetectCompression(path)
	if err != nil {
		return err
	}

	args := []string{"tar"}
	if comp != CompressionNone {
		c, err := FindCompressor(comp, opts.LookPath)
		if err != nil {
			return fmt.Errorf("untar %s: %w", path, err)
		}
		args = append(args, "-I", c.Command())
	}
	args = append(args, "-xpf", path)

	if opts.Logger != nil {
		opts.Logger.Debug("extracting archive",
			"archive", path, "dest", cwd, "compression", comp.String(), "sudo", opts.Sudo)
	}

	if _, err := process.Run(ctx, process.Cmd{
		Args:   args,
		Dir:    cwd,
		Sudo:   opts.Sudo,
		Logger: opts.Logger,
	}); err != nil {
		return fmt.Errorf("untar %s: %w", path, err)
	}
	return nil
}

// TarExtractor extracts archives with the tar program via Untar.
type TarExtractor struct {
	Sudo   bool
	Logger *slog.Logger
}

// Extract unpacks archive into dest, which must exist. A relative archive
// path is resolved against the current directory, not dest.
func (e TarExtractor) Extract(ctx context.Context, archive, dest string) error {
	abs, err := filepath.Abs(archive)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", archive, err)
	}
	return Untar(ctx, abs, dest, UntarOptions{Sudo: e.Sudo, Logger: e.Logger})
}
