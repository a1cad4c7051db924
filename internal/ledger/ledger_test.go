package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRecordAndIsOwner(t *testing.T) {
	m := NewMemory(16)
	item := uuid.New()

	assert.False(t, m.IsOwner(item, "anon-abc"))

	m.Record(item, "anon-abc")
	assert.True(t, m.IsOwner(item, "anon-abc"))
	assert.False(t, m.IsOwner(item, "anon-xyz"))
	assert.False(t, m.IsOwner(uuid.New(), "anon-abc"))
}

func TestEmptyTokenNeverOwns(t *testing.T) {
	m := NewMemory(16)
	item := uuid.New()

	m.Record(item, "")
	assert.False(t, m.IsOwner(item, ""))
}

func TestCapacityEvictsOldest(t *testing.T) {
	m := NewMemory(2)
	first := uuid.New()

	m.Record(first, "anon-1")
	m.Record(uuid.New(), "anon-2")
	m.Record(uuid.New(), "anon-3")

	assert.False(t, m.IsOwner(first, "anon-1"))
}
