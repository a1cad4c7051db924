package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Poker session statuses
const (
	PokerStatusVoting   = "voting"
	PokerStatusRevealed = "revealed"
	PokerStatusFinished = "finished"
)

// Decks available for estimate values.
var PokerDecks = map[string][]string{
	"fibonacci": {"0", "1", "2", "3", "5", "8", "13", "21", "34", "?", "☕"},
	"tshirt":    {"XS", "S", "M", "L", "XL", "XXL", "?"},
	"powers":    {"1", "2", "4", "8", "16", "32", "?"},
}

// PokerSession is a planning poker room: a set of stories estimated one at a
// time by the connected participants.
type PokerSession struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Name           string         `json:"name" gorm:"not null"`
	Deck           string         `json:"deck" gorm:"not null;default:'fibonacci'"`
	Status         string         `json:"status" gorm:"not null;default:'voting'"`
	CurrentStoryID *uuid.UUID     `json:"currentStoryId" gorm:"type:uuid"`
	CreatorID      *uuid.UUID     `json:"creatorId" gorm:"type:uuid;index"`
	CreatorToken   string         `json:"-" gorm:"index"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
	Stories        []PokerStory   `json:"stories,omitempty" gorm:"foreignKey:SessionID"`
}

func (s *PokerSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// OwnedBy reports whether the given actor created this session.
func (s *PokerSession) OwnedBy(actorID string) bool {
	if s.CreatorID != nil && s.CreatorID.String() == actorID {
		return true
	}
	return s.CreatorToken != "" && s.CreatorToken == actorID
}

// PokerStory is one backlog entry to estimate, ordered by Position within its
// session the same way retro items are ordered within a column.
type PokerStory struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID   uuid.UUID      `json:"sessionId" gorm:"type:uuid;index;not null"`
	Title       string         `json:"title" gorm:"not null"`
	Description string         `json:"description"`
	Position    int            `json:"position" gorm:"not null"`
	Estimate    *string        `json:"estimate"` // final agreed value, set on reveal or later
	Revealed    bool           `json:"revealed" gorm:"default:false"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (st *PokerStory) BeforeCreate(tx *gorm.DB) error {
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	return nil
}

// PokerEstimate is one participant's card for a story. VoterID carries an
// account ID or an anonymous session token; values stay hidden until the
// story is revealed.
type PokerEstimate struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	StoryID   uuid.UUID `json:"storyId" gorm:"type:uuid;index;not null"`
	VoterID   string    `json:"voterId" gorm:"index;not null"`
	VoterName string    `json:"voterName"`
	Value     string    `json:"value" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (e *PokerEstimate) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Poker DTOs
type CreatePokerSessionRequest struct {
	Name string `json:"name" validate:"required"`
	Deck string `json:"deck"`
}

type CreateStoryRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

type SubmitEstimateRequest struct {
	Value     string `json:"value" validate:"required"`
	VoterName string `json:"voterName"`
}

type SetEstimateRequest struct {
	Estimate string `json:"estimate" validate:"required"`
}

type ReorderStoriesRequest struct {
	StoryID  uuid.UUID `json:"storyId" validate:"required"`
	NewIndex int       `json:"newIndex"`
}
