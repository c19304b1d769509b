package annotation

import (
	"context"
	"sync"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const imageCacheKey contextKey = "image_cache"

// ImageCache keeps decoded images by URL so switching back to an image does
// not fetch it again. The oldest entry is evicted once capacity is reached.
type ImageCache struct {
	mu       sync.RWMutex
	capacity int
	order    []string
	images   map[string]*LoadedImage
}

// NewImageCache creates a cache holding at most capacity images; zero means
// unbounded.
func NewImageCache(capacity int) *ImageCache {
	return &ImageCache{capacity: capacity, images: map[string]*LoadedImage{}}
}

// Get returns a cached image if available
func (c *ImageCache) Get(url string) (*LoadedImage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	img, ok := c.images[url]
	return img, ok
}

func (c *ImageCache) Set(url string, img *LoadedImage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.images[url]; !ok {
		c.order = append(c.order, url)
	}
	c.images[url] = img
	for c.capacity > 0 && len(c.order) > c.capacity {
		delete(c.images, c.order[0])
		c.order = c.order[1:]
	}
}

func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// WithImageCache adds an image cache to the context
func WithImageCache(ctx context.Context, cache *ImageCache) context.Context {
	return context.WithValue(ctx, imageCacheKey, cache)
}

// GetImageCache retrieves the image cache from context
func GetImageCache(ctx context.Context) *ImageCache {
	if cache, ok := ctx.Value(imageCacheKey).(*ImageCache); ok {
		return cache
	}
	return nil
}
