package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BoardColumn is a named bucket of items on a retrospective board. Columns are
// stamped out from a template when the board is created and are immutable
// afterwards.
type BoardColumn struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	BoardID      uuid.UUID      `json:"boardId" gorm:"type:uuid;index;not null"`
	Kind         string         `json:"kind" gorm:"not null"` // semantic type: went-well, improve, ...
	Title        string         `json:"title" gorm:"not null"`
	Description  string         `json:"description"`
	Color        string         `json:"color" gorm:"type:varchar(7)"`
	DisplayOrder int            `json:"displayOrder" gorm:"not null"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

func (col *BoardColumn) BeforeCreate(tx *gorm.DB) error {
	if col.ID == uuid.Nil {
		col.ID = uuid.New()
	}
	return nil
}

// ColumnTemplate describes one column of a board template.
type ColumnTemplate struct {
	Kind        string
	Title       string
	Description string
	Color       string
}

// columnTemplates maps template names to their column layouts.
var columnTemplates = map[string][]ColumnTemplate{
	"default": {
		{Kind: "went-well", Title: "What went well", Description: "Things the team should keep doing", Color: "#22c55e"},
		{Kind: "improve", Title: "What could be improved", Description: "Things that slowed the team down", Color: "#f59e0b"},
		{Kind: "action-items", Title: "Action items", Description: "Concrete follow-ups with owners", Color: "#3b82f6"},
	},
	"mad-sad-glad": {
		{Kind: "mad", Title: "Mad", Description: "What frustrated you this sprint", Color: "#ef4444"},
		{Kind: "sad", Title: "Sad", Description: "What disappointed you this sprint", Color: "#f59e0b"},
		{Kind: "glad", Title: "Glad", Description: "What made you happy this sprint", Color: "#22c55e"},
	},
	"start-stop-continue": {
		{Kind: "start", Title: "Start", Description: "What should we start doing", Color: "#3b82f6"},
		{Kind: "stop", Title: "Stop", Description: "What should we stop doing", Color: "#ef4444"},
		{Kind: "continue", Title: "Continue", Description: "What should we keep doing", Color: "#22c55e"},
	},
}

// ColumnsForTemplate returns the column layout for a template name, falling
// back to the default template for unknown names.
func ColumnsForTemplate(template string) (string, []ColumnTemplate) {
	if cols, ok := columnTemplates[template]; ok {
		return template, cols
	}
	return "default", columnTemplates["default"]
}
