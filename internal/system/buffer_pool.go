package system

import (
	"image"
	"sync"
)

// MaskPool reuses coverage masks between frames, keyed by their bounds.
type MaskPool struct {
	pools map[image.Rectangle]*sync.Pool
	mu    sync.RWMutex
}

var globalPool = &MaskPool{
	pools: make(map[image.Rectangle]*sync.Pool),
}

// GetAlpha returns a mask with the given bounds. Its contents are
// undefined.
func GetAlpha(rect image.Rectangle) *image.Alpha {
	return globalPool.Get(rect)
}

// PutAlpha hands img back for reuse.
func PutAlpha(img *image.Alpha) {
	globalPool.Put(img)
}

func (p *MaskPool) Get(rect image.Rectangle) *image.Alpha {
	p.mu.RLock()
	pool, exists := p.pools[rect]
	p.mu.RUnlock()

	if !exists {
		p.mu.Lock()
		// Double check
		pool, exists = p.pools[rect]
		if !exists {
			pool = &sync.Pool{
				New: func() any {
					return image.NewAlpha(rect)
				},
			}
			p.pools[rect] = pool
		}
		p.mu.Unlock()
	}

	return pool.Get().(*image.Alpha)
}

func (p *MaskPool) Put(img *image.Alpha) {
	if img == nil {
		return
	}
	p.mu.RLock()
	pool, exists := p.pools[img.Rect]
	p.mu.RUnlock()

	if exists {
		pool.Put(img)
	}
}
