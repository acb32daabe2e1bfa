// Package diskcache provides a process-safe, on-disk cache of files and
// directory trees keyed by tuples of strings.
//
// Each key maps to a path below the cache root (components joined with "+")
// and to a sibling lock file. Writers of a key exclude each other across
// processes through the lock; readers may hold a shared lock to keep an
// entry stable while they use it. Entries are staged next to the cache and
// renamed into place, so a reader sees either no entry or a complete one,
// even after a crash mid-population.
//
// # Basic Usage
//
//	c, err := diskcache.New("/var/cache/sdk")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	ref, err := c.Lookup(diskcache.Key{"chromeos-base", "chromite", "1.0"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = ref.Do(ctx, func(r *diskcache.Reference) error {
//	    if _, err := r.SetDefault(ctx, "/tmp/build/chromite", true); err != nil {
//	        return err
//	    }
//	    // r.Path() is populated and read-locked until Do returns.
//	    return use(r.Path())
//	})
//
// # Strategies
//
// New moves local paths into the cache. NewRemote accepts gs://, http(s)://
// and file:// URLs, downloading into the staging directory first and
// optionally verifying a SHA-1 digest (WithSHA1). NewTarball caches the
// extracted contents of an archive; an empty directory at the entry path is
// treated as a missing entry.
//
// # Pruning
//
// DeleteStale removes entries whose last modification is older than a given
// age, each under its write lock. Lock files are never deleted; other
// processes may be waiting on them.
package diskcache
