// Package gateway is the thin typed query interface between the sync core and
// the relational store. The orchestrator only ever talks to the Store
// interface; the backend stays an external collaborator behind it, including
// row-level authorization, which is not duplicated client-side.
package gateway

import (
	"context"

	"github.com/google/uuid"
)

// Store issues table-scoped reads and writes plus the one RPC-style call the
// vote guard needs.
type Store interface {
	// Select loads all rows matching the options into dest (a pointer to a
	// slice of models).
	Select(ctx context.Context, dest any, opts ...Option) error
	// First loads a single row into dest (a pointer to a model).
	First(ctx context.Context, dest any, opts ...Option) error
	// Insert persists one row or a batch of rows.
	Insert(ctx context.Context, rows any) error
	// Update applies the given column values to rows of model matching the
	// options.
	Update(ctx context.Context, model any, values map[string]any, opts ...Option) error
	// Delete removes rows of model matching the options.
	Delete(ctx context.Context, model any, opts ...Option) error
	// CanUserVote is the server-side capacity decision: whether the voter may
	// place one more vote on the given item's board.
	CanUserVote(ctx context.Context, boardID, voterID, itemID uuid.UUID) (bool, error)
}

// Cond is one filter clause: equality by default, membership when In is set.
type Cond struct {
	Column string
	Value  any
	Values any
	In     bool
}

// Order is one ordering clause on a named column.
type Order struct {
	Column string
	Desc   bool
}

// Query is the option-built description adapters translate to their backend.
type Query struct {
	Conds  []Cond
	Orders []Order
	Limit  int
}

// Option narrows or orders a gateway operation.
type Option func(*Query)

// Eq filters rows where column equals value.
func Eq(column string, value any) Option {
	return func(q *Query) {
		q.Conds = append(q.Conds, Cond{Column: column, Value: value})
	}
}

// In filters rows where column is a member of values (any slice type).
func In(column string, values any) Option {
	return func(q *Query) {
		q.Conds = append(q.Conds, Cond{Column: column, Values: values, In: true})
	}
}

// OrderAsc sorts ascending by column.
func OrderAsc(column string) Option {
	return func(q *Query) {
		q.Orders = append(q.Orders, Order{Column: column})
	}
}

// OrderDesc sorts descending by column.
func OrderDesc(column string) Option {
	return func(q *Query) {
		q.Orders = append(q.Orders, Order{Column: column, Desc: true})
	}
}

// Limit caps the number of rows returned.
func Limit(n int) Option {
	return func(q *Query) {
		q.Limit = n
	}
}

// Build folds options into a Query for adapters.
func Build(opts []Option) Query {
	var q Query
	for _, opt := range opts {
		opt(&q)
	}
	return q
}
