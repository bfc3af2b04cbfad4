package engine

import (
	"regexp"
	"sync"
)

// DefaultRegexCacheSize bounds the number of compiled patterns kept by a
// RegexCache when no explicit capacity is given.
const DefaultRegexCacheSize = 128

// RegexCache memoizes compiled regular expressions, bounded with
// oldest-inserted eviction. An invalid pattern is cached as permanently
// non-matching, so a workflow with a broken regex costs one failed
// compile, total, and then never fires.
//
// The cache is owned by the engine instance rather than hidden in package
// state, so tests can size and inspect it.
//
// Thread-safety: all methods are safe for concurrent use.
type RegexCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*regexp.Regexp // nil value = invalid pattern
	order    []string                  // insertion order, oldest first
}

// NewRegexCache creates a cache bounded to capacity patterns.
// capacity <= 0 uses DefaultRegexCacheSize.
func NewRegexCache(capacity int) *RegexCache {
	if capacity <= 0 {
		capacity = DefaultRegexCacheSize
	}
	return &RegexCache{
		capacity: capacity,
		entries:  make(map[string]*regexp.Regexp, capacity),
	}
}

// Get returns the compiled form of pattern, compiling and inserting it on
// first use. The second return is false when the pattern does not compile;
// that verdict is cached too.
func (c *RegexCache) Get(pattern string) (*regexp.Regexp, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if re, ok := c.entries[pattern]; ok {
		return re, re != nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		re = nil
	}
	c.insert(pattern, re)
	return re, re != nil
}

// insert adds a pattern, evicting the oldest-inserted entry at capacity.
// Caller holds c.mu.
func (c *RegexCache) insert(pattern string, re *regexp.Regexp) {
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[pattern] = re
	c.order = append(c.order, pattern)
}

// Contains reports whether pattern is currently cached, without compiling.
func (c *RegexCache) Contains(pattern string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[pattern]
	return ok
}

// Len returns the number of cached patterns.
func (c *RegexCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
