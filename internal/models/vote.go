package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vote marks that a participant spent one of their board votes on an item.
// Its identity is logically the (item, voter) pair; rows are hard-deleted on
// unvote so a later re-vote can recreate the pair.
type Vote struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ItemID    uuid.UUID `json:"itemId" gorm:"type:uuid;index:idx_votes_item_voter;not null"`
	BoardID   uuid.UUID `json:"boardId" gorm:"type:uuid;index;not null"`
	VoterID   uuid.UUID `json:"voterId" gorm:"type:uuid;index:idx_votes_item_voter;not null"`
	CreatedAt time.Time `json:"createdAt"`
}

func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// VoteStats summarizes one voter's remaining budget on a board.
type VoteStats struct {
	BoardID     uuid.UUID `json:"boardId"`
	VoterID     uuid.UUID `json:"voterId"`
	Used        int       `json:"used"`
	VotingLimit int       `json:"votingLimit"`
	Remaining   int       `json:"remaining"`
}

type ToggleVoteRequest struct {
	HasVoted bool `json:"hasVoted"`
}
