package gateway

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/scrumkit/scrumkit-api/internal/models"
)

// Gorm adapts a *gorm.DB to the Store interface.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (g *Gorm) apply(tx *gorm.DB, opts []Option) *gorm.DB {
	q := Build(opts)
	for _, c := range q.Conds {
		if c.In {
			tx = tx.Where(c.Column+" IN ?", c.Values)
		} else {
			tx = tx.Where(c.Column+" = ?", c.Value)
		}
	}
	for _, o := range q.Orders {
		if o.Desc {
			tx = tx.Order(o.Column + " DESC")
		} else {
			tx = tx.Order(o.Column + " ASC")
		}
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	return tx
}

func (g *Gorm) Select(ctx context.Context, dest any, opts ...Option) error {
	return g.apply(g.db.WithContext(ctx), opts).Find(dest).Error
}

func (g *Gorm) First(ctx context.Context, dest any, opts ...Option) error {
	return g.apply(g.db.WithContext(ctx), opts).First(dest).Error
}

func (g *Gorm) Insert(ctx context.Context, rows any) error {
	return g.db.WithContext(ctx).Create(rows).Error
}

func (g *Gorm) Update(ctx context.Context, model any, values map[string]any, opts ...Option) error {
	return g.apply(g.db.WithContext(ctx).Model(model), opts).Updates(values).Error
}

func (g *Gorm) Delete(ctx context.Context, model any, opts ...Option) error {
	return g.apply(g.db.WithContext(ctx), opts).Delete(model).Error
}

// CanUserVote counts the voter's votes across the whole board and compares
// against the board's configured limit. Votes carry a denormalized board_id so
// no join is needed.
func (g *Gorm) CanUserVote(ctx context.Context, boardID, voterID, itemID uuid.UUID) (bool, error) {
	var board models.Board
	if err := g.db.WithContext(ctx).First(&board, "id = ?", boardID).Error; err != nil {
		return false, err
	}
	var used int64
	err := g.db.WithContext(ctx).Model(&models.Vote{}).
		Where("board_id = ? AND voter_id = ?", boardID, voterID).
		Count(&used).Error
	if err != nil {
		return false, err
	}
	return int(used) < board.VotingLimit, nil
}
