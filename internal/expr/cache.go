package expr

import "sync"

// cachedCompiler memoizes compiled programs by source text. Programs are
// immutable, so sharing them between bindings and instances is safe.
type cachedCompiler struct {
	inner Compiler

	mu       sync.RWMutex
	programs map[string]cacheEntry
	maxSize  int
}

type cacheEntry struct {
	prog Program
	err  error
}

// Cached wraps c with a bounded compile cache. Compile failures are cached
// too, so a malformed directive repeated in every list item is parsed once.
func Cached(c Compiler) Compiler {
	if _, ok := c.(*cachedCompiler); ok {
		return c
	}
	return &cachedCompiler{
		inner:    c,
		programs: make(map[string]cacheEntry),
		maxSize:  1024,
	}
}

func (c *cachedCompiler) Compile(source string) (Program, error) {
	c.mu.RLock()
	entry, ok := c.programs[source]
	c.mu.RUnlock()
	if ok {
		return entry.prog, entry.err
	}

	prog, err := c.inner.Compile(source)

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.programs) >= c.maxSize {
		// Simple eviction: drop everything once full.
		c.programs = make(map[string]cacheEntry)
	}
	c.programs[source] = cacheEntry{prog: prog, err: err}
	return prog, err
}
