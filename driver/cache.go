package driver

import (
	"context"

	"goflare.io/ember"
)

// Cache is the subset of the ember multi cache the repositories rely on.
type Cache interface {
	Get(ctx context.Context, key string, value any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

type emberCache struct {
	cache *ember.MultiCache
}

func NewEmberCache(cache *ember.MultiCache) Cache {
	return &emberCache{cache: cache}
}

func (c *emberCache) Get(ctx context.Context, key string, value any) (bool, error) {
	return c.cache.Get(ctx, key, value)
}

func (c *emberCache) Set(ctx context.Context, key string, value any) error {
	return c.cache.Set(ctx, key, value)
}

func (c *emberCache) Delete(ctx context.Context, key string) error {
	return c.cache.Delete(ctx, key)
}
