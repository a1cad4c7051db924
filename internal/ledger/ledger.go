// Package ledger tracks which anonymous session created which item. The
// backend stores a null author for anonymous items, so edit/delete permission
// for them is decided by this local correlation store instead.
package ledger

import (
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Ledger is the ownership port: Record is called after an anonymous author's
// item is persisted, IsOwner answers later edit/delete permission checks.
type Ledger interface {
	Record(itemID uuid.UUID, authorToken string)
	IsOwner(itemID uuid.UUID, authorToken string) bool
}

// DefaultCapacity bounds the in-memory implementation.
const DefaultCapacity = 4096

// Memory is a capacity-bounded in-process Ledger. Entries evict LRU-first and
// vanish on restart; anonymous ownership is transient session correlation,
// not an audit trail.
type Memory struct {
	cache *lru.Cache[uuid.UUID, string]
}

// NewMemory returns a Memory ledger holding at most capacity entries.
// Non-positive capacities fall back to DefaultCapacity.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	cache, err := lru.New[uuid.UUID, string](capacity)
	if err != nil {
		// lru.New only fails on a non-positive size, which is handled above
		panic(err)
	}
	return &Memory{cache: cache}
}

func (m *Memory) Record(itemID uuid.UUID, authorToken string) {
	if authorToken == "" {
		return
	}
	m.cache.Add(itemID, authorToken)
}

func (m *Memory) IsOwner(itemID uuid.UUID, authorToken string) bool {
	owner, ok := m.cache.Get(itemID)
	return ok && authorToken != "" && owner == authorToken
}
