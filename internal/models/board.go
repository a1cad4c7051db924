package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Board statuses
const (
	BoardStatusActive   = "active"
	BoardStatusEnded    = "ended"
	BoardStatusArchived = "archived"
)

// DefaultVotingLimit is the per-participant vote ceiling applied to new boards.
const DefaultVotingLimit = 3

type Board struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Title        string         `json:"title" gorm:"not null"`
	Status       string         `json:"status" gorm:"not null;default:'active'"` // active, ended, archived
	Template     string         `json:"template" gorm:"not null;default:'default'"`
	VotingLimit  int            `json:"votingLimit" gorm:"not null;default:3"`
	IsAnonymous  bool           `json:"isAnonymous" gorm:"default:false"`
	CreatorID    *uuid.UUID     `json:"creatorId" gorm:"type:uuid;index"`
	CreatorToken string         `json:"-" gorm:"index"` // anonymous creator session token, empty for accounts
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"` // boards are flagged, never physically removed
	Columns      []BoardColumn  `json:"columns,omitempty" gorm:"foreignKey:BoardID"`
}

func (b *Board) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// OwnedBy reports whether the given actor (account ID or anonymous token)
// created this board.
func (b *Board) OwnedBy(actorID string) bool {
	if b.CreatorID != nil && b.CreatorID.String() == actorID {
		return true
	}
	return b.CreatorToken != "" && b.CreatorToken == actorID
}

func IsValidBoardStatus(s string) bool {
	switch s {
	case BoardStatusActive, BoardStatusEnded, BoardStatusArchived:
		return true
	default:
		return false
	}
}

// Board DTOs
type CreateBoardRequest struct {
	Title       string `json:"title" validate:"required"`
	Template    string `json:"template"`
	VotingLimit int    `json:"votingLimit"`
	IsAnonymous bool   `json:"isAnonymous"`
}

type UpdateBoardRequest struct {
	Title       *string `json:"title"`
	Status      *string `json:"status"`
	VotingLimit *int    `json:"votingLimit"`
	IsAnonymous *bool   `json:"isAnonymous"`
}

type BoardSummary struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	Template    string    `json:"template"`
	VotingLimit int       `json:"votingLimit"`
	IsAnonymous bool      `json:"isAnonymous"`
	ItemCount   int       `json:"itemCount"`
	CreatedAt   time.Time `json:"createdAt"`
}
