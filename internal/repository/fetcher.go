package repository

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/launchcg/jsync/internal/errors"
	"github.com/launchcg/jsync/internal/lockfile"
)

// Fetcher fetches parent descriptors, consulting the cache and the lock file
// for remote sources. It is safe for concurrent use.
type Fetcher struct {
	cache  *Cache
	logger *slog.Logger

	mu   sync.Mutex
	lock *lockfile.LockFile
	used map[string]bool

	newRepository func(source, baseDir string) (Repository, error)
}

// NewFetcher creates a fetcher. A nil cache disables caching.
func NewFetcher(cache *Cache, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Fetcher{
		cache:         cache,
		logger:        logger,
		used:          make(map[string]bool),
		newRepository: New,
	}
}

// SetLock makes the fetcher verify remote documents against l and record
// sources l does not know yet.
func (f *Fetcher) SetLock(l *lockfile.LockFile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lock = l
}

// Used returns the remote sources fetched so far.
func (f *Fetcher) Used() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, len(f.used))
	for s := range f.used {
		out = append(out, s)
	}
	return out
}

// Fetch retrieves the descriptor at source. Relative file sources are
// resolved against baseDir.
//
// Pinned remote sources are served from the cache when present. Other remote
// sources are fetched and fall back to the cache when the remote fails.
func (f *Fetcher) Fetch(ctx context.Context, source, baseDir string) (*Document, error) {
	repo, err := f.newRepository(source, baseDir)
	if err != nil {
		return nil, errors.NewRepositoryError(source, "parse", err)
	}

	if repo.Protocol() == "file" {
		doc, err := repo.Fetch(ctx)
		if err != nil {
			return nil, errors.NewRepositoryError(source, "fetch", err)
		}
		doc.Source = source
		doc.Integrity = ComputeIntegrity(doc.Data)
		return doc, nil
	}

	doc, err := f.fetchRemote(ctx, repo, source)
	if err != nil {
		return nil, err
	}
	doc.Source = source
	doc.Integrity = ComputeIntegrity(doc.Data)

	if err := f.verify(doc); err != nil {
		return nil, errors.NewRepositoryError(source, "verify", err)
	}
	return doc, nil
}

func (f *Fetcher) fetchRemote(ctx context.Context, repo Repository, source string) (*Document, error) {
	if p, ok := repo.(Pinner); ok && p.Pinned() {
		if doc, ok := f.cached(source); ok {
			f.logger.Debug("using cached parent descriptor", "source", source)
			return doc, nil
		}
	}

	doc, err := repo.Fetch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			if cached, ok := f.cached(source); ok {
				f.logger.Warn("parent descriptor unreachable, using cached copy",
					"source", source, "error", err)
				return cached, nil
			}
		}
		return nil, errors.NewRepositoryError(source, "fetch", err)
	}

	if f.cache != nil {
		if err := f.cache.Put(source, doc.Name, doc.Data); err != nil {
			f.logger.Warn("failed to cache parent descriptor", "source", source, "error", err)
		}
	}
	return doc, nil
}

func (f *Fetcher) cached(source string) (*Document, bool) {
	if f.cache == nil {
		return nil, false
	}
	name, data, ok := f.cache.Get(source)
	if !ok {
		return nil, false
	}
	return &Document{Name: name, Data: data, Cached: true}, true
}

func (f *Fetcher) verify(doc *Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.used[doc.Source] = true
	if f.lock == nil {
		return nil
	}

	locked := f.lock.Get(doc.Source)
	if locked == nil {
		f.lock.Set(doc.Source, &lockfile.LockedParent{
			Name:      doc.Name,
			Revision:  doc.Revision,
			Integrity: doc.Integrity,
		})
		return nil
	}

	if err := VerifyIntegrity(doc.Data, locked.Integrity); err != nil {
		return fmt.Errorf("%w (run 'jsync sync --update-lock' to accept the new content)", err)
	}
	return nil
}
