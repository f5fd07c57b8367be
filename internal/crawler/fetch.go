package crawler

import (
	"time"

	"sglee475/shortsworker/helpers"
	"sglee475/shortsworker/logger"
	"sglee475/shortsworker/services/cache"
)

// FetchFunc retrieves a page body for a URL
type FetchFunc func(url string) ([]byte, error)

// StaticFetcher fetches watch pages over plain HTTP with browser-like
// headers, caching bodies for a short TTL so the bounded per-item retry
// does not hit the site a second time.
type StaticFetcher struct {
	cacheSvc cache.CacheService
	ttl      time.Duration
	fetch    FetchFunc
	log      *logger.Logger
}

// NewStaticFetcher creates a static page fetcher; cacheSvc may be nil
func NewStaticFetcher(cacheSvc cache.CacheService, ttl time.Duration) *StaticFetcher {
	return &StaticFetcher{
		cacheSvc: cacheSvc,
		ttl:      ttl,
		fetch:    helpers.FetchWithRandomHeaders,
		log:      logger.ForCache(),
	}
}

// Fetch returns the page body for the URL, from cache when available
func (f *StaticFetcher) Fetch(url string) ([]byte, error) {
	key := pageCacheKey(url)

	if f.cacheSvc != nil {
		if body, err := f.cacheSvc.Get(key); err == nil {
			f.log.Debug().Str("url", url).Msg("watch page cache hit")
			return body, nil
		}
	}

	body, err := f.fetch(url)
	if err != nil {
		return nil, err
	}

	if f.cacheSvc != nil {
		if err := f.cacheSvc.Set(key, body, f.ttl); err != nil {
			f.log.Debug().Err(err).Str("url", url).Msg("failed to cache watch page")
		}
	}

	return body, nil
}

// pageCacheKey derives a cache key from the video id, falling back to the URL
func pageCacheKey(url string) string {
	if id, err := helpers.VideoID(url); err == nil {
		return "page:" + id
	}
	return "page:" + url
}
