package retro

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/scrumkit/scrumkit-api/internal/gateway"
	"github.com/scrumkit/scrumkit-api/internal/models"
	"github.com/scrumkit/scrumkit-api/internal/querycache"
	"github.com/scrumkit/scrumkit-api/internal/ratelimit"
)

// ToggleVote flips the actor's vote on an item: hasVoted carries the current
// state, so true removes and false adds. Guard order is fixed: anonymous
// rejection before any cache or backend touch, then the cooldown, then the
// backend capacity check for additions. Settle invalidates the vote query and
// the voter's own stats, nothing broader.
func (s *Service) ToggleVote(ctx context.Context, actor string, boardID, itemID uuid.UUID, hasVoted bool) error {
	voterID, err := uuid.Parse(actor)
	if err != nil || models.IsAnonymousID(actor) {
		s.notify(actor, NoticeError, ErrAnonymousVote.Error())
		return ErrAnonymousVote
	}
	if err := s.allow(actor, ratelimit.OpVote); err != nil {
		return err
	}
	s.limiter.Mark(actor, ratelimit.OpVote)

	board, err := s.activeBoard(ctx, boardID)
	if err != nil {
		return err
	}
	items, err := s.Items(ctx, boardID)
	if err != nil {
		return err
	}
	if indexOfItem(items, itemID) < 0 {
		return ErrItemNotFound
	}
	votes, err := s.Votes(ctx, boardID)
	if err != nil {
		return err
	}

	adding := !hasVoted
	already := false
	for _, v := range votes {
		if v.ItemID == itemID && v.VoterID == voterID {
			already = true
			break
		}
	}
	if adding == already {
		return nil // cache already shows the desired state
	}

	if adding {
		ok, err := s.gw.CanUserVote(ctx, boardID, voterID, itemID)
		if err != nil {
			s.notify(actor, NoticeError, failureMessage(err, "Could not record your vote."))
			return err
		}
		if !ok {
			limitErr := &VoteLimitError{Limit: board.VotingLimit}
			s.notify(actor, NoticeError, limitErr.Error())
			return limitErr
		}
	}

	var optimistic []models.Vote
	if adding {
		optimistic = make([]models.Vote, 0, len(votes)+1)
		optimistic = append(optimistic, votes...)
		optimistic = append(optimistic, models.Vote{
			ID:        uuid.New(), // synthetic, replaced on refetch
			ItemID:    itemID,
			BoardID:   boardID,
			VoterID:   voterID,
			CreatedAt: time.Now(),
		})
	} else {
		optimistic = make([]models.Vote, 0, len(votes))
		for _, v := range votes {
			if v.ItemID == itemID && v.VoterID == voterID {
				continue
			}
			optimistic = append(optimistic, v)
		}
	}
	used := 0
	for _, v := range optimistic {
		if v.VoterID == voterID {
			used++
		}
	}

	votesKey := querycache.BoardVotes(boardID, itemIDsOf(items))
	statsKey := querycache.VoterStats(boardID, actor)
	s.cache.CancelQueries(votesKey)
	s.cache.CancelQueries(statsKey)
	votesSnap := s.cache.Snapshot(votesKey)
	statsSnap := s.cache.Snapshot(statsKey)
	s.cache.Set(votesKey, optimistic)
	s.cache.Set(statsKey, statsFor(board, voterID, used))

	var writeErr error
	if adding {
		row := models.Vote{ItemID: itemID, BoardID: boardID, VoterID: voterID}
		writeErr = s.gw.Insert(ctx, &row)
	} else {
		writeErr = s.gw.Delete(ctx, &models.Vote{},
			gateway.Eq("item_id", itemID), gateway.Eq("voter_id", voterID))
	}

	if writeErr != nil {
		s.cache.RestoreSnapshot(votesKey, votesSnap)
		s.cache.RestoreSnapshot(statsKey, statsSnap)
		fallback := "Could not record your vote."
		if !adding {
			fallback = "Could not remove your vote."
		}
		s.notify(actor, NoticeError, failureMessage(writeErr, fallback))
	} else if adding {
		s.notify(actor, NoticeSuccess, "Vote recorded")
	} else {
		s.notify(actor, NoticeSuccess, "Vote removed")
	}

	s.cache.Invalidate(votesKey)
	s.cache.Invalidate(statsKey)
	return writeErr
}
