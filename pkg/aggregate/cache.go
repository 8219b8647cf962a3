package aggregate

import (
	"sync"
	"time"

	"github.com/Heavenston/headar/internal/utils"
	"github.com/Heavenston/headar/pkg/mirror"
	"github.com/Heavenston/headar/pkg/protocol"
)

type cacheKey struct {
	dayStart int64
	view     View
	user     uint32
	focused  uint32
	locked   uint32
	// hasFocused/hasLocked distinguish "user 0" from "not set".
	hasFocused bool
	hasLocked  bool
}

// Cache memoizes day backgrounds against a range mirror. Entries are valid
// only for the mirror version they were computed at; any applied change-event
// invalidates the whole cache on the next lookup.
type Cache struct {
	ranges *mirror.Table[uint32, protocol.RangeAvailabilityRow]

	mu      sync.Mutex
	version uint64
	entries map[cacheKey]Background
}

// NewCache creates an empty cache over the given range mirror.
func NewCache(ranges *mirror.Table[uint32, protocol.RangeAvailabilityRow]) *Cache {
	return &Cache{
		ranges:  ranges,
		entries: make(map[cacheKey]Background),
	}
}

// DayBackground returns the memoized background for the day, recomputing it
// when the mirror has changed since the cached value was stored.
func (c *Cache) DayBackground(day time.Time, view View, currentUserID uint32, focused, locked *uint32) Background {
	key := cacheKey{dayStart: utils.StartOfDay(day).Unix(), view: view, user: currentUserID}
	if focused != nil {
		key.focused = *focused
		key.hasFocused = true
	}
	if locked != nil {
		key.locked = *locked
		key.hasLocked = true
	}

	version := c.ranges.Version()

	c.mu.Lock()
	if version != c.version {
		c.entries = make(map[cacheKey]Background)
		c.version = version
	}
	if bg, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return bg
	}
	c.mu.Unlock()

	bg := DayBackground(day, c.ranges.Snapshot(), view, currentUserID, focused, locked)

	c.mu.Lock()
	if c.version == version {
		c.entries[key] = bg
	}
	c.mu.Unlock()
	return bg
}

// Len reports the number of live cache entries, for tests.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
