package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/sync/singleflight"

	"revpulse/internal/cache"
)

// CachedFetcher bounds upstream traffic: within one revalidation window a
// credential is fetched at most once, and concurrent cold reads for the
// same credential are collapsed into a single upstream call. Failures are
// not cached so the live tier recovers on the next read.
type CachedFetcher struct {
	fetcher Fetcher
	store   cache.Cache[LiveTotal]
	group   singleflight.Group
}

var _ Fetcher = (*CachedFetcher)(nil)

func NewCachedFetcher(fetcher Fetcher, store cache.Cache[LiveTotal]) *CachedFetcher {
	return &CachedFetcher{fetcher: fetcher, store: store}
}

func (f *CachedFetcher) FetchLiveMonthlyTotal(ctx context.Context, key string) (LiveTotal, error) {
	ck := cacheKey(key)

	if total, ok := f.store.Get(ck); ok {
		return total, nil
	}

	v, err, _ := f.group.Do(ck, func() (any, error) {
		// A concurrent caller may have populated the cache while we
		// waited on the flight group.
		if total, ok := f.store.Get(ck); ok {
			return total, nil
		}
		total, err := f.fetcher.FetchLiveMonthlyTotal(ctx, key)
		if err != nil {
			return LiveTotal{}, err
		}
		f.store.Set(ck, total)
		return total, nil
	})
	if err != nil {
		return LiveTotal{}, err
	}
	return v.(LiveTotal), nil
}

// cacheKey hashes the credential so the raw secret never sits in the cache
// as a map key.
func cacheKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
