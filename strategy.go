package diskcache

import (
	"context"
	"fmt"
)

// Strategy selects how a cache turns an assigned source into entry content.
type Strategy int

const (
	// StrategyLocal moves a local file or directory into the cache.
	StrategyLocal Strategy = iota

	// StrategyRemote treats the source as a URL. file:// URLs and bare paths
	// are moved in like StrategyLocal; gs:// and http(s):// URLs are
	// downloaded into the staging directory first, so the entry only appears
	// once the download is complete.
	StrategyRemote

	// StrategyTarball treats the source as a URL to an archive and caches
	// its extracted contents. Local archives are read in place and never
	// moved. An empty directory at the entry path counts as absent.
	StrategyTarball
)

// IsValid reports whether s is a recognized Strategy value.
func (s Strategy) IsValid() bool {
	switch s {
	case StrategyLocal, StrategyRemote, StrategyTarball:
		return true
	default:
		return false
	}
}

// String returns the name of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyLocal:
		return "StrategyLocal"
	case StrategyRemote:
		return "StrategyRemote"
	case StrategyTarball:
		return "StrategyTarball"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// populator is the per-strategy half of a cache: how a source becomes
// content and how presence is decided. insert runs with the key's write lock
// held.
type populator interface {
	insert(ctx context.Context, key Key, source string, opts FetchOptions) error
	exists(key Key) (bool, error)
}

func (c *Cache) newPopulator(s Strategy) populator {
	switch s {
	case StrategyRemote:
		return remotePopulator{c: c}
	case StrategyTarball:
		return tarballPopulator{c: c}
	default:
		return localPopulator{c: c}
	}
}

// localPopulator moves the source path into place.
type localPopulator struct{ c *Cache }

func (p localPopulator) insert(_ context.Context, key Key, source string, _ FetchOptions) error {
	return p.c.insert(key, source)
}

func (p localPopulator) exists(key Key) (bool, error) {
	return p.c.entryExists(key)
}
