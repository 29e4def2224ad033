package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pailler/qrlink/internal/app/model"
	"github.com/redis/go-redis/v9"
)

const (
	linkCachePrefix = "qrlink:link:"
	linkCacheTTL    = 30 * time.Second
)

// LinkCache keeps hot links in Redis for the redirect path. Every method
// is best-effort: a Redis hiccup means a cache miss, never a failed
// resolution. Counter staleness is harmless because the cap is enforced
// by the conditional consume, not by the cached row.
type LinkCache struct {
	rdb *redis.Client
}

// NewLinkCache wraps the given client. A nil client yields a cache that
// always misses.
func NewLinkCache(rdb *redis.Client) *LinkCache {
	return &LinkCache{rdb: rdb}
}

// Get returns the cached link for code, or nil on any miss or error.
func (c *LinkCache) Get(ctx context.Context, code string) *model.Link {
	if c == nil || c.rdb == nil {
		return nil
	}

	data, err := c.rdb.Get(ctx, linkCachePrefix+code).Bytes()
	if err != nil {
		return nil
	}

	var link model.Link
	if err := json.Unmarshal(data, &link); err != nil {
		return nil
	}
	return &link
}

// Set stores the link under its short code.
func (c *LinkCache) Set(ctx context.Context, link *model.Link) {
	if c == nil || c.rdb == nil {
		return
	}

	data, err := json.Marshal(link)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, linkCachePrefix+link.ShortCode, data, linkCacheTTL)
}

// Invalidate drops the cached entry, used after updates and deletes.
func (c *LinkCache) Invalidate(ctx context.Context, code string) {
	if c == nil || c.rdb == nil {
		return
	}
	c.rdb.Del(ctx, linkCachePrefix+code)
}
