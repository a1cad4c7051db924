package querycache

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Key identifies one cached query as an ordered segment list, scoped from
// entity group down to the concrete resource. Prefix relationships are
// meaningful: cancelling, invalidating, or releasing a prefix touches every
// key beneath it.
type Key []string

// String renders the key for map storage and logs. Segments never contain the
// separator.
func (k Key) String() string {
	return strings.Join(k, "/")
}

// HasPrefix reports whether k sits at or below prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i, seg := range prefix {
		if k[i] != seg {
			return false
		}
	}
	return true
}

// BoardDetail is the board row itself (title, status, settings). It doubles as
// the prefix shared by every query on the board.
func BoardDetail(boardID uuid.UUID) Key {
	return Key{"boards", "detail", boardID.String()}
}

// BoardColumns is the board's column list.
func BoardColumns(boardID uuid.UUID) Key {
	return Key{"boards", "detail", boardID.String(), "columns"}
}

// BoardItems is the board's item list across all columns.
func BoardItems(boardID uuid.UUID) Key {
	return Key{"boards", "detail", boardID.String(), "items"}
}

// BoardVotes is the vote rows for the given set of items. The scope segment is
// canonical, so two callers naming the same items in different order share one
// entry.
func BoardVotes(boardID uuid.UUID, itemIDs []uuid.UUID) Key {
	return Key{"boards", "detail", boardID.String(), "votes", voteScope(itemIDs)}
}

// VotesPrefix covers every vote query on the board regardless of item scope.
// Item churn changes the scope segment, so stale scopes are found through
// this prefix and released.
func VotesPrefix(boardID uuid.UUID) Key {
	return Key{"boards", "detail", boardID.String(), "votes"}
}

// VoterStats is one voter's used/remaining budget on a board.
func VoterStats(boardID uuid.UUID, voterID string) Key {
	return Key{"boards", "detail", boardID.String(), "vote-stats", voterID}
}

func voteScope(itemIDs []uuid.UUID) string {
	ids := make([]string, len(itemIDs))
	for i, id := range itemIDs {
		ids[i] = id.String()
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}
