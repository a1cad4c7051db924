package retro

import (
	"context"

	"github.com/google/uuid"

	"github.com/scrumkit/scrumkit-api/internal/gateway"
	"github.com/scrumkit/scrumkit-api/internal/models"
	"github.com/scrumkit/scrumkit-api/internal/querycache"
)

// Read paths. Each mounts a fetcher for its key on first use, so a board that
// has been opened keeps refreshing through invalidation and polling until its
// last participant leaves and the key is released.

// Board returns the board row, cache-first.
func (s *Service) Board(ctx context.Context, boardID uuid.UUID) (models.Board, error) {
	key := querycache.BoardDetail(boardID)
	s.cache.Register(key, func(ctx context.Context) (any, error) {
		var board models.Board
		if err := s.gw.First(ctx, &board, gateway.Eq("id", boardID)); err != nil {
			return nil, err
		}
		return board, nil
	})
	v, err := s.cache.Fetch(ctx, key)
	if err != nil {
		return models.Board{}, err
	}
	board, ok := v.(models.Board)
	if !ok {
		return models.Board{}, errUnexpectedShape
	}
	return board, nil
}

// Columns returns the board's columns in display order.
func (s *Service) Columns(ctx context.Context, boardID uuid.UUID) ([]models.BoardColumn, error) {
	key := querycache.BoardColumns(boardID)
	s.cache.Register(key, func(ctx context.Context) (any, error) {
		var cols []models.BoardColumn
		err := s.gw.Select(ctx, &cols,
			gateway.Eq("board_id", boardID),
			gateway.OrderAsc("display_order"))
		if err != nil {
			return nil, err
		}
		return cols, nil
	})
	v, err := s.cache.Fetch(ctx, key)
	if err != nil {
		return nil, err
	}
	cols, _ := v.([]models.BoardColumn)
	return cols, nil
}

// Items returns the board's items ordered by position.
func (s *Service) Items(ctx context.Context, boardID uuid.UUID) ([]models.RetroItem, error) {
	key := querycache.BoardItems(boardID)
	s.cache.Register(key, func(ctx context.Context) (any, error) {
		var items []models.RetroItem
		err := s.gw.Select(ctx, &items,
			gateway.Eq("board_id", boardID),
			gateway.OrderAsc("position"),
			gateway.OrderAsc("created_at"))
		if err != nil {
			return nil, err
		}
		return items, nil
	})
	v, err := s.cache.Fetch(ctx, key)
	if err != nil {
		return nil, err
	}
	items, _ := v.([]models.RetroItem)
	return items, nil
}

// Votes returns the vote rows for the board's current items. The vote query
// is scoped to the item-id set, so item churn re-registers it under a fresh
// key and stale scopes are released.
func (s *Service) Votes(ctx context.Context, boardID uuid.UUID) ([]models.Vote, error) {
	items, err := s.Items(ctx, boardID)
	if err != nil {
		return nil, err
	}
	itemIDs := itemIDsOf(items)
	key := querycache.BoardVotes(boardID, itemIDs)
	for _, mounted := range s.cache.MountedKeys(querycache.VotesPrefix(boardID)) {
		if mounted.String() != key.String() {
			s.cache.Release(mounted)
		}
	}
	s.cache.Register(key, func(ctx context.Context) (any, error) {
		if len(itemIDs) == 0 {
			return []models.Vote{}, nil
		}
		var votes []models.Vote
		if err := s.gw.Select(ctx, &votes, gateway.In("item_id", itemIDs)); err != nil {
			return nil, err
		}
		return votes, nil
	})
	v, err := s.cache.Fetch(ctx, key)
	if err != nil {
		return nil, err
	}
	votes, _ := v.([]models.Vote)
	return votes, nil
}

// VoterStats returns the voter's used/remaining budget on the board.
// Anonymous actors have no budget and never reach this path.
func (s *Service) VoterStats(ctx context.Context, boardID, voterID uuid.UUID) (models.VoteStats, error) {
	key := querycache.VoterStats(boardID, voterID.String())
	s.cache.Register(key, func(ctx context.Context) (any, error) {
		var board models.Board
		if err := s.gw.First(ctx, &board, gateway.Eq("id", boardID)); err != nil {
			return nil, err
		}
		var votes []models.Vote
		err := s.gw.Select(ctx, &votes,
			gateway.Eq("board_id", boardID),
			gateway.Eq("voter_id", voterID))
		if err != nil {
			return nil, err
		}
		return statsFor(board, voterID, len(votes)), nil
	})
	v, err := s.cache.Fetch(ctx, key)
	if err != nil {
		return models.VoteStats{}, err
	}
	stats, ok := v.(models.VoteStats)
	if !ok {
		return models.VoteStats{}, errUnexpectedShape
	}
	return stats, nil
}

// RefreshBoard forces every mounted query on the board through its fetcher.
// This is the polling entry point; unchanged results produce no subscriber
// traffic. Individual failures do not stop the sweep.
func (s *Service) RefreshBoard(ctx context.Context, boardID uuid.UUID) error {
	var firstErr error
	for _, key := range s.cache.MountedKeys(querycache.BoardDetail(boardID)) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.cache.Refetch(ctx, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ReleaseBoard drops the board's cached state and fetchers. Called when its
// last participant disconnects.
func (s *Service) ReleaseBoard(boardID uuid.UUID) {
	s.cache.Release(querycache.BoardDetail(boardID))
}

func statsFor(board models.Board, voterID uuid.UUID, used int) models.VoteStats {
	remaining := board.VotingLimit - used
	if remaining < 0 {
		remaining = 0
	}
	return models.VoteStats{
		BoardID:     board.ID,
		VoterID:     voterID,
		Used:        used,
		VotingLimit: board.VotingLimit,
		Remaining:   remaining,
	}
}

func itemIDsOf(items []models.RetroItem) []uuid.UUID {
	ids := make([]uuid.UUID, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}
