// This file is part of livecheck.
//
// livecheck is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// livecheck is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with livecheck.  If not, see <https://www.gnu.org/licenses/>.

package provider

import (
	"sync"
)

// CategoryCache maps category ids to names for one updater
type CategoryCache struct {
	sync.RWMutex
	names map[string]string
}

// NewCategoryCache that is empty
func NewCategoryCache() *CategoryCache {
	return &CategoryCache{
		names: make(map[string]string),
	}
}

// Get a name
func (c *CategoryCache) Get(id string) (name string, ok bool) {
	c.RLock()
	defer c.RUnlock()
	name, ok = c.names[id]
	return
}

// Put a name; empty ids or names are ignored
func (c *CategoryCache) Put(id, name string) {
	if id == "" || name == "" {
		return
	}
	c.Lock()
	defer c.Unlock()
	c.names[id] = name
}

// Missing gives the ids that have no name yet, without duplicates
func (c *CategoryCache) Missing(ids []string) (missing []string) {
	c.RLock()
	defer c.RUnlock()
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := c.names[id]; !ok {
			missing = append(missing, id)
		}
	}
	return
}

// Len of the cache
func (c *CategoryCache) Len() int {
	c.RLock()
	defer c.RUnlock()
	return len(c.names)
}

// Invalidate forgets every name
func (c *CategoryCache) Invalidate() {
	c.Lock()
	defer c.Unlock()
	c.names = make(map[string]string)
}
