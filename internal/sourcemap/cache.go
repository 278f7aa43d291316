package sourcemap

import (
	"os"
	"sync"
	"time"
)

// cacheItem is a cached value plus the stat of the file it was derived from
type cacheItem[V any] struct {
	value   V
	modTime time.Time
	size    int64
}

// fileCache maps a file path to a value derived from its content. An entry
// is only returned while the file's size and modification time are unchanged.
type fileCache[V any] struct {
	items map[string]*cacheItem[V]
	mutex sync.RWMutex
}

func newFileCache[V any]() *fileCache[V] {
	return &fileCache[V]{items: make(map[string]*cacheItem[V])}
}

// get returns the cached value for path if the file has not changed since
func (c *fileCache[V]) get(path string) (V, bool) {
	c.mutex.RLock()
	item, exists := c.items[path]
	c.mutex.RUnlock()

	var zero V
	if !exists {
		return zero, false
	}

	if stat, err := os.Stat(path); err == nil {
		if stat.ModTime().Equal(item.modTime) && stat.Size() == item.size {
			return item.value, true
		}
	}

	c.mutex.Lock()
	delete(c.items, path)
	c.mutex.Unlock()
	return zero, false
}

// set stores value for path together with the file's current stat
func (c *fileCache[V]) set(path string, value V) error {
	stat, err := os.Stat(path)
	if err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items[path] = &cacheItem[V]{
		value:   value,
		modTime: stat.ModTime(),
		size:    stat.Size(),
	}
	return nil
}

func (c *fileCache[V]) size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.items)
}
