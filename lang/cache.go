package lang

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize is the capacity of a cache created with size 0.
const DefaultCacheSize = 1024

// Cache stores compiled expressions keyed by their text, signature,
// environment version and pipeline version. Registering anything in the
// environment or changing the pipeline therefore misses the cache instead of
// returning a stale artifact.
//
// A Cache is safe for concurrent use and may be shared by interpreters.
// Concurrent parses of the same key are collapsed into one.
type Cache struct {
	entries sync.Map // map[string]*Expression
	group   singleflight.Group
	size    atomic.Int64
	max     int64
	hits    atomic.Uint64
	misses  atomic.Uint64
}

// NewCache returns a cache holding at most size expressions. When full, an
// arbitrary entry is evicted.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}

	return &Cache{max: int64(size)}
}

// Len returns the number of cached expressions.
func (c *Cache) Len() int { return int(c.size.Load()) }

// Stats returns the number of cache hits and misses.
func (c *Cache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// Clear removes all cached expressions.
func (c *Cache) Clear() {
	c.entries.Range(func(k, _ any) bool {
		if _, ok := c.entries.LoadAndDelete(k); ok {
			c.size.Add(-1)
		}

		return true
	})
}

// load returns the cached expression for key, building and storing it with
// build on a miss. hit reports whether the expression came from the cache.
func (c *Cache) load(
	key string,
	build func() (*Expression, error),
) (e *Expression, hit bool, err error) {
	if v, ok := c.entries.Load(key); ok {
		c.hits.Add(1)

		return v.(*Expression), true, nil //nolint:forcetypeassert // only *Expression is stored
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		if v, ok := c.entries.Load(key); ok {
			return v, nil
		}

		e, err := build()
		if err != nil {
			return nil, err
		}

		c.store(key, e)

		return e, nil
	})
	if err != nil {
		return nil, false, err
	}

	if shared {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}

	return v.(*Expression), shared, nil //nolint:forcetypeassert // only *Expression is stored
}

func (c *Cache) store(key string, e *Expression) {
	for c.size.Load() >= c.max {
		evicted := false

		c.entries.Range(func(k, _ any) bool {
			if _, ok := c.entries.LoadAndDelete(k); ok {
				c.size.Add(-1)

				evicted = true
			}

			return false
		})

		if !evicted {
			break
		}
	}

	if _, loaded := c.entries.LoadOrStore(key, e); !loaded {
		c.size.Add(1)
	}
}

// cacheKey hashes everything that determines the result of a parse.
func cacheKey(
	interp *Interpreter,
	text string,
	returnType reflect.Type,
	params []Parameter,
) string {
	var sb strings.Builder

	// Environment and pipeline identity and version.
	fmt.Fprintf(&sb, "%p:%d:%p:%d\x00",
		interp.env, interp.env.Version(), interp.pipeline, interp.pipeline.Version())

	writeType(&sb, returnType)

	for _, p := range params {
		sb.WriteString(p.Name)
		sb.WriteByte(':')
		writeType(&sb, p.Type)
	}

	sb.WriteByte(0)
	sb.WriteString(text)

	return strconv.FormatUint(xxh3.HashString(sb.String()), 36)
}

func writeType(sb *strings.Builder, t reflect.Type) {
	if t == nil {
		sb.WriteString("<nil>;")

		return
	}

	// Type strings are not unique across packages; the descriptor address is.
	fmt.Fprintf(sb, "%s@%p;", t, t)
}
