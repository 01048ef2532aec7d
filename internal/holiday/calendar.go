package holiday

import (
	"strconv"

	"golang.org/x/sync/singleflight"

	"zandaka/internal/cache"
)

// Calendar resolves the holiday set of a year.
type Calendar interface {
	Holidays(year int) Set
}

// CalendarFunc adapts a function to Calendar.
type CalendarFunc func(year int) Set

func (f CalendarFunc) Holidays(year int) Set { return f(year) }

// YearCache memoizes ForYear for the lifetime of one computation. It is not
// safe for concurrent use.
type YearCache struct {
	years map[int]Set
}

func NewYearCache() *YearCache {
	return &YearCache{years: make(map[int]Set)}
}

func (c *YearCache) Holidays(year int) Set {
	if s, ok := c.years[year]; ok {
		return s
	}
	s := ForYear(year)
	c.years[year] = s
	return s
}

// SharedCache is a bounded, process-wide Calendar safe for concurrent use.
// Concurrent misses for the same year compute it once.
type SharedCache struct {
	lru     *cache.LRUCache[int, Set]
	group   singleflight.Group
	compute func(year int) Set
}

// DefaultSharedCacheSize covers a decade of look-back and look-ahead.
const DefaultSharedCacheSize = 32

func NewSharedCache(size int) *SharedCache {
	if size <= 0 {
		size = DefaultSharedCacheSize
	}
	return &SharedCache{
		lru:     cache.NewLRUCache[int, Set](size),
		compute: ForYear,
	}
}

func (c *SharedCache) Holidays(year int) Set {
	if s, ok := c.lru.Get(year); ok {
		return s
	}
	v, _, _ := c.group.Do(strconv.Itoa(year), func() (any, error) {
		if s, ok := c.lru.Get(year); ok {
			return s, nil
		}
		s := c.compute(year)
		c.lru.Set(year, s)
		return s, nil
	})
	return v.(Set)
}

// Size returns the number of cached years.
func (c *SharedCache) Size() int { return c.lru.Size() }

var (
	_ Calendar = (*YearCache)(nil)
	_ Calendar = (*SharedCache)(nil)
	_ Calendar = CalendarFunc(nil)
)
