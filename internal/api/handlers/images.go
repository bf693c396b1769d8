package handlers

import "sync"

type storedImage struct {
	data []byte
	mime string
}

// ImageCache retains uploaded slip images in memory so the UI can render
// thumbnails and previews. It is presentation-owned state; the ledger core
// only holds opaque references.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]storedImage
}

// NewImageCache creates an empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{images: make(map[string]storedImage)}
}

// Put stores the image bytes for a transaction id.
func (c *ImageCache) Put(id string, data []byte, mime string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images[id] = storedImage{data: data, mime: mime}
}

// Get returns the image bytes and MIME type for a transaction id.
func (c *ImageCache) Get(id string) ([]byte, string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	img, ok := c.images[id]
	return img.data, img.mime, ok
}

// Delete drops the image for a transaction id; absent ids are a no-op.
func (c *ImageCache) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.images, id)
}
