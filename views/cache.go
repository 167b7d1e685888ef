// Copyright 2019 Tamás Gulácsi
//
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package views

import (
	"sort"
	"sync"
)

// Cache holds fetched view definitions for the lifetime of the process.
// A nil entry records that the server has no such view.
type Cache struct {
	mu    sync.RWMutex
	views map[string]*ViewDefinition
}

func NewCache() *Cache {
	return &Cache{views: make(map[string]*ViewDefinition)}
}

// Get returns the cached definition and whether the name is cached at all.
func (c *Cache) Get(name string) (*ViewDefinition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.views[name]
	return v, ok
}

// Set stores v (possibly nil) under name.
func (c *Cache) Set(name string, v *ViewDefinition) {
	c.mu.Lock()
	if c.views == nil {
		c.views = make(map[string]*ViewDefinition)
	}
	c.views[name] = v
	c.mu.Unlock()
}

func (c *Cache) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.views)
}

// Names returns the cached names, sorted.
func (c *Cache) Names() []string {
	c.mu.RLock()
	names := make([]string, 0, len(c.views))
	for k := range c.views {
		names = append(names, k)
	}
	c.mu.RUnlock()
	sort.Strings(names)
	return names
}
