package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RetroItem is a single piece of feedback inside a column. Position is an
// integer ordering key, strictly ordered within the item's column.
type RetroItem struct {
	ID         uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	BoardID    uuid.UUID      `json:"boardId" gorm:"type:uuid;index;not null"`
	ColumnID   uuid.UUID      `json:"columnId" gorm:"type:uuid;index;not null"`
	Text       string         `json:"text" gorm:"not null"`
	AuthorID   *uuid.UUID     `json:"authorId" gorm:"type:uuid;index"` // nil for anonymous authors
	AuthorName string         `json:"authorName"`
	Position   int            `json:"position" gorm:"not null"`
	Color      *string        `json:"color"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
	Votes      []Vote         `json:"votes,omitempty" gorm:"foreignKey:ItemID"`
}

func (i *RetroItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// AuthoredBy reports whether the given account actor wrote this item.
// Anonymous authorship is tracked in the ownership ledger, not here.
func (i *RetroItem) AuthoredBy(actorID string) bool {
	return i.AuthorID != nil && i.AuthorID.String() == actorID
}

// Item DTOs
type CreateItemRequest struct {
	ColumnID   uuid.UUID `json:"columnId" validate:"required"`
	Text       string    `json:"text" validate:"required"`
	AuthorName string    `json:"authorName"`
}

type UpdateItemRequest struct {
	Text  *string `json:"text"`
	Color *string `json:"color"`
}

type MoveItemRequest struct {
	ToColumnID uuid.UUID `json:"toColumnId" validate:"required"`
	NewIndex   int       `json:"newIndex"`
}

type MergeItemsRequest struct {
	ItemIDs    []uuid.UUID `json:"itemIds" validate:"required"`
	ToColumnID uuid.UUID   `json:"toColumnId" validate:"required"`
}
