// Package cache provides a small generic LRU cache.
//
//	c := cache.New[string, *image.RGBA](8)
//	mask := c.GetOrCreate(key, func() *image.RGBA { return render(key) })
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
