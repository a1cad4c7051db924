// Package positions computes ordinal position updates for drag-and-drop moves
// of items within and across board columns. All functions are pure and
// deterministic; they return the minimal set of updates needed so callers can
// keep write volume down.
package positions

import "github.com/google/uuid"

// Entry is the ordering view of an item: its identity and current position.
type Entry struct {
	ID       uuid.UUID
	Position int
}

// Update records a new position for one item.
type Update struct {
	ID       uuid.UUID `json:"id"`
	Position int       `json:"position"`
}

// Reorder moves the item with movedID to newIndex within a single column.
// Items must be ordered ascending by position. The result contains an update
// for every item whose position changes; moving an item to its current index
// returns nil. Indexes beyond the end clamp to the last slot.
func Reorder(items []Entry, movedID uuid.UUID, newIndex int) []Update {
	from := indexOf(items, movedID)
	if from < 0 {
		return nil
	}
	if newIndex < 0 {
		newIndex = 0
	}
	if newIndex > len(items)-1 {
		newIndex = len(items) - 1
	}
	if newIndex == from {
		return nil
	}

	moved := items[from]
	rest := make([]Entry, 0, len(items)-1)
	rest = append(rest, items[:from]...)
	rest = append(rest, items[from+1:]...)

	order := make([]Entry, 0, len(items))
	order = append(order, rest[:newIndex]...)
	order = append(order, moved)
	order = append(order, rest[newIndex:]...)

	var updates []Update
	for i, it := range order {
		if it.Position != i {
			updates = append(updates, Update{ID: it.ID, Position: i})
		}
	}
	return updates
}

// CrossColumn makes room in a destination column for an item landing at
// insertIndex. Items must be ordered ascending by position. It returns the
// increments for items at or after the insertion index and the position
// assigned to the moved item, which equals the (clamped) insertion index.
func CrossColumn(destItems []Entry, insertIndex int) ([]Update, int) {
	if insertIndex < 0 {
		insertIndex = 0
	}
	if insertIndex > len(destItems) {
		insertIndex = len(destItems)
	}

	var updates []Update
	for i := insertIndex; i < len(destItems); i++ {
		updates = append(updates, Update{ID: destItems[i].ID, Position: destItems[i].Position + 1})
	}
	return updates, insertIndex
}

// Reindex reassigns dense 0..n-1 positions to items in their given order,
// closing any gaps. It returns an update for every item whose position
// differs from its array index, so applying it to its own output yields
// nothing further.
func Reindex(items []Entry) []Update {
	var updates []Update
	for i, it := range items {
		if it.Position != i {
			updates = append(updates, Update{ID: it.ID, Position: i})
		}
	}
	return updates
}

func indexOf(items []Entry, id uuid.UUID) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
