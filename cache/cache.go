// Package cache keeps translated blocks in a set-associative directory with
// LRU replacement.
package cache

import (
	"sync"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/armxlate/xlate"
)

// Guest code is at least halfword aligned, so keys step by two and the low
// bit carries the Thumb state.
const keyStride = 2

// Config sizes a BlockCache.
type Config struct {
	Sets int
	Ways int
}

// DefaultConfig returns 64 sets of 8 ways.
func DefaultConfig() Config {
	return Config{Sets: 64, Ways: 8}
}

// Statistics counts cache events.
type Statistics struct {
	Lookups       uint64
	Hits          uint64
	Misses        uint64
	Publishes     uint64
	Evictions     uint64
	Invalidations uint64
}

// BlockCache holds translated blocks keyed by guest PC and instruction set.
// It implements xlate.Publisher and is safe for concurrent use.
type BlockCache struct {
	mu        sync.Mutex
	config    Config
	directory *akitacache.DirectoryImpl
	blocks    []*xlate.Block // indexed by setID*ways + wayID
	stats     Statistics
}

// New creates an empty BlockCache.
func New(config Config) *BlockCache {
	return &BlockCache{
		config: config,
		directory: akitacache.NewDirectory(
			config.Sets,
			config.Ways,
			keyStride,
			akitacache.NewLRUVictimFinder(),
		),
		blocks: make([]*xlate.Block, config.Sets*config.Ways),
	}
}

func key(pc uint32, thumb bool) uint64 {
	k := uint64(pc &^ 1)
	if thumb {
		k |= 1
	}
	return k
}

func (c *BlockCache) index(block *akitacache.Block) int {
	return block.SetID*c.config.Ways + block.WayID
}

// Config returns the cache geometry.
func (c *BlockCache) Config() Config {
	return c.config
}

// Lookup returns the block starting at pc in the given state, if cached.
func (c *BlockCache) Lookup(pc uint32, thumb bool) (*xlate.Block, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Lookups++
	block := c.directory.Lookup(0, key(pc, thumb))
	if block == nil || !block.IsValid {
		c.stats.Misses++
		return nil, false
	}
	c.stats.Hits++
	c.directory.Visit(block)
	return c.blocks[c.index(block)], true
}

// Publish stores a complete block, replacing any block with the same key
// and evicting the least recently used block of its set if needed.
func (c *BlockCache) Publish(b *xlate.Block) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Publishes++
	k := key(b.GuestPC, b.Thumb)
	block := c.directory.Lookup(0, k)
	if block == nil || !block.IsValid {
		block = c.directory.FindVictim(k)
		if block == nil {
			return
		}
		if block.IsValid {
			c.stats.Evictions++
		}
		block.Tag = k
		block.IsValid = true
	}
	c.blocks[c.index(block)] = b
	c.directory.Visit(block)
}

// Invalidate drops every block whose guest bytes overlap [start, end).
// It returns the number of blocks dropped.
func (c *BlockCache) Invalidate(start, end uint32) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if !block.IsValid {
				continue
			}
			i := c.index(block)
			b := c.blocks[i]
			if b.GuestPC < end && start < b.GuestPC+b.Size {
				block.IsValid = false
				c.blocks[i] = nil
				n++
			}
		}
	}
	c.stats.Invalidations += uint64(n)
	return n
}

// Len returns the number of cached blocks.
func (c *BlockCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid {
				n++
			}
		}
	}
	return n
}

// Stats returns cache statistics.
func (c *BlockCache) Stats() Statistics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Reset drops all blocks and clears statistics.
func (c *BlockCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.directory.Reset()
	clear(c.blocks)
	c.stats = Statistics{}
}
