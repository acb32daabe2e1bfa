package diskcache

import (
	"context"
	"fmt"
	"os"

	"github.com/giantswarm/diskcache/internal/fetch"
)

// remotePopulator downloads URL sources into staging before inserting them.
// Local sources are moved in without a copy.
type remotePopulator struct{ c *Cache }

func (p remotePopulator) insert(ctx context.Context, key Key, source string, opts FetchOptions) error {
	src, err := fetch.Classify(source)
	if err != nil {
		return err
	}
	if src.Kind == fetch.KindLocal {
		return p.c.insert(key, src.Path)
	}

	tmp, err := os.MkdirTemp(p.c.staging, "fetch-*")
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmp); err != nil {
			p.c.log.Warn("failed to clean up staging dir", "path", tmp, "error", err)
		}
	}()

	downloaded, err := p.c.fetchInto(ctx, tmp, source, opts)
	if err != nil {
		return err
	}
	return p.c.insert(key, downloaded)
}

func (p remotePopulator) exists(key Key) (bool, error) {
	return p.c.entryExists(key)
}
