package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// IconCache memoizes generated item icon URLs by item name, so repeated
// drops of the same item cost one image generation total.
type IconCache struct {
	mu     sync.Mutex
	icons  map[string]string
	images ImageService
}

// NewIconCache creates an icon cache over the given image service.
func NewIconCache(images ImageService) *IconCache {
	return &IconCache{
		icons:  make(map[string]string),
		images: images,
	}
}

// GetOrGenerate returns the cached icon URL for an item name, generating
// and caching it on first sight.
func (c *IconCache) GetOrGenerate(ctx context.Context, itemName string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(itemName))

	c.mu.Lock()
	if url, ok := c.icons[key]; ok {
		c.mu.Unlock()
		return url, nil
	}
	c.mu.Unlock()

	prompt := fmt.Sprintf("pixel art icon of %s, game inventory item, centered, plain background, high quality", itemName)
	url, err := c.images.GenerateImage(ctx, prompt)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.icons[key] = url
	c.mu.Unlock()
	return url, nil
}
