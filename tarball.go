package diskcache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/giantswarm/diskcache/internal/fetch"
	"github.com/giantswarm/diskcache/internal/fileutil"
)

// extractDirName is the directory inside the scratch dir that receives the
// archive contents and is then moved into place.
const extractDirName = "extract"

// tarballPopulator caches the extracted contents of an archive.
type tarballPopulator struct{ c *Cache }

func (p tarballPopulator) insert(ctx context.Context, key Key, source string, opts FetchOptions) error {
	src, err := fetch.Classify(source)
	if err != nil {
		return err
	}

	tmp, err := os.MkdirTemp(p.c.staging, "tarball-cache-*")
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmp); err != nil {
			p.c.log.Warn("failed to clean up staging dir", "path", tmp, "error", err)
		}
	}()

	tarball := src.Path
	if src.Kind != fetch.KindLocal {
		if tarball, err = p.c.fetchInto(ctx, tmp, source, opts); err != nil {
			return err
		}
	}

	extractDir := filepath.Join(tmp, extractDirName)
	if err := os.Mkdir(extractDir, 0o755); err != nil {
		return fmt.Errorf("create extract dir: %w", err)
	}
	if err := p.c.extractor.Extract(ctx, tarball, extractDir); err != nil {
		return fmt.Errorf("extract %s: %w", source, err)
	}
	return p.c.insert(key, extractDir)
}

// exists treats an empty directory at the entry path as absent, removing it
// so a later insert starts clean. Interrupted extractions and leftovers of
// other tools leave such directories behind.
func (p tarballPopulator) exists(key Key) (bool, error) {
	path, err := p.c.KeyPath(key)
	if err != nil {
		return false, err
	}
	if _, err := fileutil.RemoveIfEmptyDir(path); err != nil {
		return false, fmt.Errorf("clear empty entry %s: %w", path, err)
	}
	return p.c.entryExists(key)
}
